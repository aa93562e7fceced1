package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/mindmap/pkg/mindmap"
)

// completionCommand creates the completion command for generating shell completions.
func (c *CLI) completionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Long: `Generate shell completion scripts for mindmap.

Bash:
  $ source <(mindmap completion bash)

Zsh:
  $ mindmap completion zsh > "${fpath[1]}/_mindmap"

Fish:
  $ mindmap completion fish > ~/.config/fish/completions/mindmap.fish

PowerShell:
  PS> mindmap completion powershell | Out-String | Invoke-Expression
`,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletion(out)
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
}

// completeMap completes a map file as the first argument and topic IDs of
// that map for the next topicArgs arguments. Topic labels are shown as
// descriptions.
func completeMap(topicArgs int) cobra.CompletionFunc {
	return func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		if len(args) == 0 {
			return []string{"json", "yaml", "yml"}, cobra.ShellCompDirectiveFilterFileExt
		}
		if len(args) > topicArgs {
			return nil, cobra.ShellCompDirectiveNoFileComp
		}
		m, err := mindmap.ReadFile(args[0])
		if err != nil {
			return nil, cobra.ShellCompDirectiveError
		}
		ids := make([]string, 0, len(m.Nodes))
		for _, n := range m.Nodes {
			if strings.HasPrefix(n.ID, toComplete) {
				ids = append(ids, n.ID+"\t"+n.DisplayLabel())
			}
		}
		return ids, cobra.ShellCompDirectiveNoFileComp
	}
}
