package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/teemow/ocslots/internal/instrumentation"
)

func newCheckCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Verify the login and print the user id",
		Long: `Authenticate with the cached token or the configured credentials and
print the resolved user id. Exits non-zero when authentication fails.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signalContext()
			defer cancel()

			a, err := newApp(ctx, opts)
			if err != nil {
				return err
			}
			defer a.close()

			ctx, span := instrumentation.StartCommandSpan(ctx, "check")
			defer span.End()

			if err := a.login(ctx); err != nil {
				instrumentation.SetSpanError(span, err)
				return err
			}
			instrumentation.SetSpanSuccess(span)

			fmt.Fprintf(cmd.OutOrStdout(), "Authenticated as user %s\n", a.client.UserID())
			return nil
		},
	}
}
