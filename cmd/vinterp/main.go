package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/vango-dev/vinterp/internal/errors"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

const banner = `
  ╦  ╦┬┌┐┌┌┬┐┌─┐┬─┐┌─┐
  ╚╗╔╝││││ │ ├┤ ├┬┘├─┘
   ╚╝ ┴┘└┘ ┴ └─┘┴└─┴
`

func main() {
	if err := rootCmd().Execute(); err != nil {
		errors.PrintError(err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var noColor bool

	root := &cobra.Command{
		Use:   "vinterp",
		Short: "Apply edit streams to a live document",
		Long: `vinterp interprets the edit stream a UI producer emits and applies it
to a document it owns, reporting user events back as messages.

  • serve hosts a document over HTTP and WebSocket
  • replay applies recorded batches and prints the result
  • inspect decodes binary batches and frames`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if noColor || os.Getenv("NO_COLOR") != "" {
				errors.DisableColors()
			}
		},
	}
	root.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable colored output")

	root.AddCommand(
		serveCmd(),
		replayCmd(),
		inspectCmd(),
		versionCmd(),
	)
	return root
}

// printBanner prints the vinterp ASCII art banner.
func printBanner(cmd *cobra.Command) {
	fmt.Fprint(cmd.OutOrStdout(), banner)
}

// success prints a success message.
func success(cmd *cobra.Command, format string, args ...any) {
	fmt.Fprintf(cmd.OutOrStdout(), "\033[32m✓\033[0m %s\n", fmt.Sprintf(format, args...))
}

// info prints an info message.
func info(cmd *cobra.Command, format string, args ...any) {
	fmt.Fprintf(cmd.OutOrStdout(), "  %s\n", fmt.Sprintf(format, args...))
}
