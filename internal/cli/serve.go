package cli

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/matzehuels/meshmap/internal/server"
	"github.com/matzehuels/meshmap/pkg/mapview"
	"github.com/matzehuels/meshmap/pkg/source"
)

type serveOpts struct {
	addr             string
	poll             time.Duration
	snapshotInterval time.Duration
	sessionTTL       time.Duration
	noCache          bool
	source           sourceFlags
}

// serveCommand creates the serve command for the live browser map.
func (c *CLI) serveCommand() *cobra.Command {
	var opts serveOpts

	cmd := &cobra.Command{
		Use:   "serve [topology]",
		Short: "Serve the live, draggable map over HTTP",
		Long: `Serve runs the force simulation continuously and streams rendered frames to
browsers over server-sent events. Devices can be dragged from any number of
browser tabs at once. The source is polled and the map follows topology
changes without losing positions.`,
		Example: `  meshmap serve networkmap.json
  meshmap serve --source mongo --uri mongodb://localhost:27017 --addr :8080`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runServe(cmd, args, &opts)
		},
	}

	cmd.Flags().StringVar(&opts.addr, "addr", "", "listen address (default from config)")
	cmd.Flags().DurationVar(&opts.poll, "poll", 5*time.Second, "source poll interval; 0 disables polling")
	cmd.Flags().DurationVar(&opts.snapshotInterval, "snapshot-interval", 0, "minimum time between frames (default from config)")
	cmd.Flags().DurationVar(&opts.sessionTTL, "session-ttl", 0, "idle time before a viewer's pointers are released")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable the export cache")
	cmd.ValidArgsFunction = completeTopologyFile
	opts.source.register(cmd, "source")

	return cmd
}

func (c *CLI) runServe(cmd *cobra.Command, args []string, opts *serveOpts) error {
	ctx := cmd.Context()

	src, err := c.openSource(ctx, &opts.source, args)
	if err != nil {
		return err
	}
	defer src.Close()

	runner, err := c.newRunner(ctx, opts.noCache)
	if err != nil {
		return err
	}
	defer runner.Close()

	g, stale, err := runner.Load(ctx, src)
	if err != nil {
		return err
	}
	if stale {
		printWarning("%s unavailable, using last good snapshot", src.Name())
	}

	m := mapview.New(g, c.mapOptions())
	defer m.Close()

	sopts := server.Options{
		Addr:             c.Config.Server.Addr,
		SnapshotInterval: c.Config.Server.SnapshotInterval,
		SessionTTL:       opts.sessionTTL,
		Runner:           runner,
		Export:           c.exportOptions(),
		Logger:           componentLogger(c.Logger, componentServer),
	}
	if opts.addr != "" {
		sopts.Addr = opts.addr
	}
	if opts.snapshotInterval > 0 {
		sopts.SnapshotInterval = opts.snapshotInterval
	}
	if opts.poll > 0 {
		sopts.Source = src
		sopts.PollInterval = opts.poll
	}

	printSuccess("Loaded %s", src.Name())
	state := stateFresh
	if stale {
		state = stateStale
	}
	printStats(len(g.Nodes), len(g.Links), state)
	printKeyValue("Map", StyleLink.Render("http://"+sopts.Addr))
	if sopts.Source != nil {
		printDetail("Polling %s every %s", sourceLabel(src), opts.poll)
	}

	return server.New(m, sopts).Run(ctx)
}

// sourceLabel shortens a source name for display.
func sourceLabel(src source.Source) string {
	if f, ok := src.(*source.File); ok {
		return f.Path
	}
	return src.Name()
}
