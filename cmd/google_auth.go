package cmd

import (
	"bufio"
	"context"
	"fmt"
	"io"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/teemow/ocslots/internal/config"
	"github.com/teemow/ocslots/internal/google"
)

func newGoogleAuthCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "google-auth",
		Short: "Authorize the Google Calendar export",
		Long: `Run the OAuth authorization code flow for Google Calendar.

Set GOOGLE_CLIENT_ID and GOOGLE_CLIENT_SECRET to a Google Cloud OAuth client
of type "Desktop app". Open the printed URL, grant access and paste either the
code or the whole URL the browser was redirected to. The token is cached in
the user cache directory and refreshed automatically.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signalContext()
			defer cancel()

			cfg, err := config.Load(opts.configPath)
			if err != nil {
				return err
			}
			return runGoogleAuth(ctx, cmd.InOrStdin(), cmd.OutOrStdout(), google.NewFileTokenProvider(cfg.Google.TokenFile))
		},
	}
}

func runGoogleAuth(ctx context.Context, in io.Reader, out io.Writer, store *google.FileTokenProvider) error {
	conf, err := google.OAuthConfigFromEnv()
	if err != nil {
		return err
	}

	state := uuid.NewString()
	fmt.Fprintf(out, "Visit this URL in your browser and grant access:\n\n%s\n\n", google.GetAuthURL(conf, state))
	fmt.Fprint(out, "Paste the authorization code or the redirect URL: ")

	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && line == "" {
		return fmt.Errorf("failed to read authorization code: %w", err)
	}
	code, err := google.ExtractCode(line, state)
	if err != nil {
		return err
	}

	if err := google.SaveToken(ctx, conf, store, code); err != nil {
		return err
	}
	fmt.Fprintf(out, "Token saved to %s\n", store.Path)
	return nil
}
