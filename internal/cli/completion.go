package cli

import (
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/meshmap/pkg/pipeline"
	"github.com/matzehuels/meshmap/pkg/source"
)

// completionCommand creates the completion command for generating shell completions.
func (c *CLI) completionCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Long: `Generate shell completion scripts for meshmap.

Bash:
  $ source <(meshmap completion bash)

Zsh:
  $ meshmap completion zsh > "${fpath[1]}/_meshmap"

Fish:
  $ meshmap completion fish > ~/.config/fish/completions/meshmap.fish

PowerShell:
  PS> meshmap completion powershell | Out-String | Invoke-Expression

Format and source flags complete to the values meshmap accepts.`,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletionV2(out, true)
			case "zsh":
				return cmd.Root().GenZshCompletion(out)
			case "fish":
				return cmd.Root().GenFishCompletion(out, true)
			case "powershell":
				return cmd.Root().GenPowerShellCompletionWithDesc(out)
			}
			return nil
		},
	}

	return cmd
}

// completeFormats completes a comma-separated list of export formats,
// offering only formats not already listed.
func completeFormats(_ *cobra.Command, _ []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	prefix, seen := "", map[string]bool{}
	if i := strings.LastIndex(toComplete, ","); i >= 0 {
		prefix = toComplete[:i+1]
		for _, f := range parseFormats(toComplete[:i]) {
			seen[f] = true
		}
	}

	var out []string
	for f := range pipeline.ValidFormats {
		if !seen[f] {
			out = append(out, prefix+f)
		}
	}
	sort.Strings(out)
	return out, cobra.ShellCompDirectiveNoFileComp | cobra.ShellCompDirectiveNoSpace
}

// completeSourceKinds completes the --source and --to flags.
func completeSourceKinds(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
	return []string{
		source.KindFile + "\tJSON, YAML or TOML networkmap file",
		source.KindSQLite + "\tSQLite database written by import",
		source.KindMongo + "\tMongoDB collection of networkmap documents",
	}, cobra.ShellCompDirectiveNoFileComp
}

// topologyFileExts limits positional completion to files a source can read.
var topologyFileExts = []string{"json", "yaml", "yml", "toml", "db", "sqlite", "sqlite3"}

func completeTopologyFile(_ *cobra.Command, args []string, _ string) ([]string, cobra.ShellCompDirective) {
	if len(args) > 0 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	return topologyFileExts, cobra.ShellCompDirectiveFilterFileExt
}
