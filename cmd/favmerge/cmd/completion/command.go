// Package completion provides the shell completion command.
package completion

import (
	"github.com/spf13/cobra"
)

// NewCommand creates the completion command. It replaces cobra's default so
// the help text names favmerge.
func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "completion",
		Short: "Generate shell completion scripts",
		Long: `Generate shell completion scripts for favmerge.

Examples:
  # Load bash completions in the current shell
  source <(favmerge completion bash)

  # Install zsh completions
  favmerge completion zsh > "${fpath[1]}/_favmerge"

  # Install fish completions
  favmerge completion fish > ~/.config/fish/completions/favmerge.fish`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}

	cmd.AddCommand(
		newShellCommand("bash", func(cmd *cobra.Command) error {
			return cmd.Root().GenBashCompletionV2(cmd.OutOrStdout(), true)
		}),
		newShellCommand("zsh", func(cmd *cobra.Command) error {
			return cmd.Root().GenZshCompletion(cmd.OutOrStdout())
		}),
		newShellCommand("fish", func(cmd *cobra.Command) error {
			return cmd.Root().GenFishCompletion(cmd.OutOrStdout(), true)
		}),
		newShellCommand("powershell", func(cmd *cobra.Command) error {
			return cmd.Root().GenPowerShellCompletionWithDesc(cmd.OutOrStdout())
		}),
	)

	return cmd
}

func newShellCommand(shell string, generate func(*cobra.Command) error) *cobra.Command {
	return &cobra.Command{
		Use:                   shell,
		Short:                 "Generate " + shell + " completion script",
		Args:                  cobra.NoArgs,
		DisableFlagsInUseLine: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return generate(cmd)
		},
	}
}
