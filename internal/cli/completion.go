package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
)

var completionInstall bool

var completionCmd = &cobra.Command{
	Use:   "completion <shell>",
	Short: "Set up shell completions for gantt",
	Long: `Set up shell tab-completions for gantt commands, flags, task ids and
WBS category names.

Supported shells: bash, zsh, fish, powershell

Quick install (adds completions to your shell profile):

  gantt completion bash --install
  gantt completion zsh --install
  gantt completion fish --install

Or print the completion script to stdout (for manual setup):

  gantt completion bash
  gantt completion zsh
  gantt completion fish
  gantt completion powershell`,
	ValidArgs: []string{"bash", "zsh", "fish", "powershell"},
	Args:      cobra.MaximumNArgs(1),
	RunE:      runCompletion,
}

func init() {
	completionCmd.Flags().BoolVar(&completionInstall, "install", false,
		"Install completions into your shell profile")

	// Replace Cobra's default completion command.
	rootCmd.CompletionOptions.DisableDefaultCmd = true
	rootCmd.AddCommand(completionCmd)
}

// completionShell describes how to generate and install one shell's script.
type completionShell struct {
	gen func(w io.Writer) error
	// target returns the install path under home; nil when --install is
	// not supported.
	target func(home string) string
	hints  []string
	after  []string
}

var completionShells = map[string]completionShell{
	"bash": {
		gen: func(w io.Writer) error { return rootCmd.GenBashCompletionV2(w, true) },
		target: func(home string) string {
			return filepath.Join(home, ".local", "share", "bash-completion", "completions", "gantt")
		},
		hints: []string{`eval "$(gantt completion bash)"`},
		after: []string{"Restart your shell or run: source %s"},
	},
	"zsh": {
		gen: func(w io.Writer) error { return rootCmd.GenZshCompletion(w) },
		target: func(home string) string {
			return filepath.Join(home, ".local", "share", "zsh", "site-functions", "_gantt")
		},
		hints: []string{`eval "$(gantt completion zsh)"`},
		after: []string{
			"Ensure the directory of %s is in your fpath, then run:",
			"  autoload -Uz compinit && compinit",
		},
	},
	"fish": {
		gen: func(w io.Writer) error { return rootCmd.GenFishCompletion(w, true) },
		target: func(home string) string {
			return filepath.Join(home, ".config", "fish", "completions", "gantt.fish")
		},
		hints: []string{"gantt completion fish | source"},
		after: []string{"Completions in %s load in new fish sessions automatically."},
	},
	"powershell": {
		gen:   func(w io.Writer) error { return rootCmd.GenPowerShellCompletionWithDesc(w) },
		hints: []string{"gantt completion powershell | Out-String | Invoke-Expression"},
	},
}

func runCompletion(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		return cmd.Help()
	}
	shell, ok := completionShells[args[0]]
	if !ok {
		return fmt.Errorf("unsupported shell %q (supported: bash, zsh, fish, powershell)", args[0])
	}

	if completionInstall {
		return installCompletion(cmd, args[0], shell)
	}

	// Hints go to stderr so the script on stdout can be piped into eval.
	hint := cmd.ErrOrStderr()
	fmt.Fprintln(hint, "# To load completions in your current session:")
	for _, h := range shell.hints {
		fmt.Fprintf(hint, "#   %s\n", h)
	}
	if shell.target != nil {
		fmt.Fprintf(hint, "# To install permanently:\n#   gantt completion %s --install\n", args[0])
	}
	return shell.gen(cmd.OutOrStdout())
}

func installCompletion(cmd *cobra.Command, name string, shell completionShell) error {
	if shell.target == nil {
		return fmt.Errorf("automatic install is not supported for %s; run 'gantt completion %s' and add the output to your profile", name, name)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("detecting home directory: %w", err)
	}

	target := shell.target(home)
	if err := os.MkdirAll(filepath.Dir(target), 0o750); err != nil {
		return fmt.Errorf("creating completion directory: %w", err)
	}
	if err := writeCompletionFile(target, shell.gen); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s completions installed to %s\n", name, target)
	for _, line := range shell.after {
		if strings.Contains(line, "%s") {
			fmt.Fprintf(out, line+"\n", target)
		} else {
			fmt.Fprintln(out, line)
		}
	}
	return nil
}

// writeCompletionFile creates target and writes the script into it,
// propagating close errors.
func writeCompletionFile(target string, gen func(io.Writer) error) error {
	f, err := os.Create(target)
	if err != nil {
		return fmt.Errorf("creating completion file %s: %w", target, err)
	}

	writeErr := gen(f)
	closeErr := f.Close()

	if writeErr != nil {
		return writeErr
	}
	if closeErr != nil {
		return fmt.Errorf("closing completion file %s: %w", target, closeErr)
	}
	return nil
}
