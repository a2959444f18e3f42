package cli

import (
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/matzehuels/meshmap/pkg/render/links"
	"github.com/matzehuels/meshmap/pkg/topology"
)

// inspectCommand creates the inspect command, which prints a topology as
// tables without running the simulation.
func (c *CLI) inspectCommand() *cobra.Command {
	var (
		flags     sourceFlags
		showLinks bool
	)

	cmd := &cobra.Command{
		Use:   "inspect [topology]",
		Short: "Print the devices and links of a network map",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			src, err := c.openSource(ctx, &flags, args)
			if err != nil {
				return err
			}
			defer src.Close()

			g, err := src.Load(ctx)
			if err != nil {
				return err
			}

			now := time.Now()
			fmt.Println(StyleTitle.Render(src.Name()))
			printSummary(g, now)
			printNewline()
			fmt.Println(deviceTable(g, now))
			if showLinks {
				printNewline()
				fmt.Println(linkTable(g))
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&showLinks, "links", "l", false, "also print the link table")
	cmd.ValidArgsFunction = completeTopologyFile
	flags.register(cmd, "source")
	return cmd
}

// printSummary prints device counts per type and the link health.
func printSummary(g *topology.Graph, now time.Time) {
	counts := g.CountByType()
	for _, t := range topology.KnownTypes {
		printKeyValue(t.String(), StyleNumber.Render(strconv.Itoa(counts[t])))
	}

	weak := 0
	for _, l := range g.Links {
		if links.Weak(l) {
			weak++
		}
	}
	printKeyValue("Links", fmt.Sprintf("%s %s",
		StyleNumber.Render(strconv.Itoa(len(g.Links))),
		StyleDim.Render(fmt.Sprintf("(%d weak)", weak))))
	if !g.Timestamp.IsZero() {
		printKeyValue("Snapshot", humanize.RelTime(g.Timestamp, now, "ago", "from now"))
	}
}

// deviceTable renders one row per device, coordinator first, then by name.
func deviceTable(g *topology.Graph, now time.Time) string {
	degree := make(map[string]int, len(g.Nodes))
	for _, l := range g.Links {
		degree[l.Source]++
		degree[l.Target]++
	}

	nodes := append([]*topology.Node(nil), g.Nodes...)
	sort.SliceStable(nodes, func(i, j int) bool {
		ci, cj := nodes[i].Type() == topology.Coordinator, nodes[j].Type() == topology.Coordinator
		if ci != cj {
			return ci
		}
		return nodes[i].Device.DisplayName() < nodes[j].Device.DisplayName()
	})

	rows := make([][]string, 0, len(nodes))
	for _, n := range nodes {
		d := n.Device
		model := "—"
		if d.ModelID != "" {
			model = d.ModelID
		}
		seen := "—"
		if d.LastSeen != nil {
			seen = humanize.RelTime(*d.LastSeen, now, "ago", "from now")
		}
		rows = append(rows, []string{
			d.DisplayName(),
			string(d.Type),
			d.IEEEAddr,
			model,
			strconv.Itoa(degree[n.ID]),
			seen,
		})
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("Device", "Type", "IEEE", "Model", "Links", "Last seen").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return styleTableHeader
			}
			if col == 1 {
				return deviceStyle(nodes[row].Type())
			}
			if col >= 2 {
				return lipgloss.NewStyle().Foreground(colorGray)
			}
			return lipgloss.NewStyle()
		})
	return t.Render()
}

// linkTable renders one row per link. Weak links are highlighted.
func linkTable(g *topology.Graph) string {
	index := g.Index()
	name := func(id string) string {
		if n, ok := index[id]; ok {
			return n.Device.DisplayName()
		}
		return id
	}

	rows := make([][]string, 0, len(g.Links))
	for _, l := range g.Links {
		rows = append(rows, []string{
			name(l.Source),
			name(l.Target),
			strconv.Itoa(l.LinkQuality),
			strconv.Itoa(l.Depth),
			topology.LinkType(l, index[l.Source], index[l.Target]),
		})
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("Source", "Target", "LQI", "Depth", "Type").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return styleTableHeader
			}
			if links.Weak(g.Links[row]) {
				return StyleWarning
			}
			return lipgloss.NewStyle()
		})
	return t.Render()
}
