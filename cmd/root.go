package cmd

import (
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/teemow/ocslots/internal/config"
)

// rootOptions holds the persistent flags shared by all commands.
type rootOptions struct {
	configPath  string
	forceAuth   bool
	noSaveToken bool

	// in and out are the streams commands talk to the user on.
	in  io.Reader
	out io.Writer
	// errOut receives log output.
	errOut io.Writer
}

// version will be set by main
var version = "dev"

// SetVersion sets the version reported by the CLI
func SetVersion(v string) {
	version = v
}

// newRootCmd builds the complete command tree.
func newRootCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ocslots",
		Short: "Manage OpenClassrooms mentoring availabilities",
		Long: `ocslots books and releases one-hour availability slots on the
OpenClassrooms mentoring calendar.

A slot series is a weekday, an hour range and a number of weeks:

  ocslots add mon 18 21 2   # Mondays 18:00-21:00 for the next two weeks
  ocslots rem fri 9 12      # release Friday 09:00-12:00 this week

It can run as:
  - A standalone CLI tool (default)
  - An MCP (Model Context Protocol) server for AI assistants`,
		Version:      version,
		SilenceUsage: true,
	}
	cmd.SetVersionTemplate(`{{printf "ocslots version %s\n" .Version}}`)
	cmd.SetIn(opts.in)
	cmd.SetOut(opts.out)
	cmd.SetErr(opts.errOut)

	cmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "Configuration file (default: ./"+config.DefaultConfigFile+" if present)")
	cmd.PersistentFlags().BoolVar(&opts.forceAuth, "force-auth", false, "Log in again even if a valid token is cached")
	cmd.PersistentFlags().BoolVar(&opts.noSaveToken, "no-save-token", false, "Do not write the obtained token to the token cache")

	cmd.AddCommand(newAddCmd(opts))
	cmd.AddCommand(newRemCmd(opts))
	cmd.AddCommand(newCheckCmd(opts))
	cmd.AddCommand(newEventsCmd(opts))
	cmd.AddCommand(newGoogleAuthCmd(opts))
	cmd.AddCommand(newServeCmd(opts))
	cmd.AddCommand(newGenerateDocsCmd(opts))
	cmd.AddCommand(newVersionCmd())

	return cmd
}

// Execute is the main entry point for the CLI application
func Execute() {
	opts := &rootOptions{in: os.Stdin, out: os.Stdout, errOut: os.Stderr}
	if err := newRootCmd(opts).Execute(); err != nil {
		os.Exit(1)
	}
}
