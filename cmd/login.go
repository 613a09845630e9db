package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/teemow/coverletter/internal/google"
	"github.com/teemow/coverletter/internal/logging"
)

func newLoginCmd() *cobra.Command {
	var (
		debugMode bool
		flags     configFlags
	)

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Authorize Google Drive and Docs access",
		Long: `Make sure a valid Google credential is stored. An existing credential is
refreshed when expired; otherwise a browser opens for the consent screen.

Run this once before starting the MCP server, which never opens a browser.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := logging.NewLogger(os.Stderr, debugMode)
			cfg := flags.load(cmd)

			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer cancel()
			if cfg.Timeout > 0 {
				var timeoutCancel context.CancelFunc
				ctx, timeoutCancel = context.WithTimeout(ctx, cfg.Timeout)
				defer timeoutCancel()
			}

			store := google.NewFileStore(cfg.TokenFile)
			provider := newCredentialProvider(cfg, store, true, logger, observability{})

			cred, err := provider.Credentials(ctx)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Google credential stored in %s\n", store.Path())
			if !cred.Expiry.IsZero() {
				fmt.Fprintf(cmd.OutOrStdout(), "Access token valid until %s\n", cred.Expiry.Local().Format(time.RFC1123))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&debugMode, "debug", false, "Enable debug logging")
	flags.registerAuth(cmd)

	return cmd
}
