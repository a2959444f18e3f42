package cli

import (
	"github.com/spf13/cobra"

	"github.com/matzehuels/meshmap/pkg/errors"
	"github.com/matzehuels/meshmap/pkg/source"
	"github.com/matzehuels/meshmap/pkg/topology"
)

// importCommand creates the import command, which stores a topology file
// in a database source so serve can poll it.
func (c *CLI) importCommand() *cobra.Command {
	var (
		to sourceFlags
		db string
	)

	cmd := &cobra.Command{
		Use:   "import <topology>",
		Short: "Store a topology snapshot in SQLite or MongoDB",
		Example: `  meshmap import networkmap.json --to sqlite --db mesh.db
  meshmap import networkmap.yaml --to mongo --uri mongodb://localhost:27017`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			g, err := topology.DecodeFile(args[0])
			if err != nil {
				return err
			}

			opts := to.options(c.Config.Source, "")
			if db != "" {
				opts.Path = db
			}
			if opts.Kind == source.KindFile {
				return errors.New(errors.ErrCodeInvalidInput, "--to must be sqlite or mongo")
			}
			store, err := source.OpenStore(ctx, opts)
			if err != nil {
				return err
			}
			defer store.Close()

			if err := store.Save(ctx, g); err != nil {
				return err
			}
			printSuccess("Imported %s into %s", args[0], store.Name())
			printStats(len(g.Nodes), len(g.Links), stateFresh)
			return nil
		},
	}

	cmd.ValidArgsFunction = completeTopologyFile
	to.register(cmd, "to")
	cmd.Flags().StringVar(&db, "db", "", "sqlite database path (default from config)")
	return cmd
}
