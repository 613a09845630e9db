package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/teemow/coverletter/internal/instrumentation"
	"github.com/teemow/coverletter/internal/letter"
	"github.com/teemow/coverletter/internal/logging"
)

func newGenerateCmd() *cobra.Command {
	var (
		debugMode bool
		role      string
		company   string
		flags     configFlags
	)

	cmd := &cobra.Command{
		Use:   "generate [role] [company]",
		Short: "Generate a cover letter and save it as PDF",
		Long: `Write a cover letter body for a role at a company, copy the Google Docs
template, fill its placeholders and export the result as
"{company}_Cover_Letter.pdf".

Role and company can be given as arguments or with --role and --company.
The first run opens a browser to authorize Google Drive and Docs access.`,
		Args: cobra.RangeArgs(0, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			switch len(args) {
			case 2:
				role, company = args[0], args[1]
			case 1:
				return fmt.Errorf("both role and company are required")
			}
			return runGenerate(cmd, letter.Request{Role: role, Company: company}, debugMode, &flags)
		},
	}

	cmd.Flags().BoolVar(&debugMode, "debug", false, "Enable debug logging")
	cmd.Flags().StringVar(&role, "role", "", "Role title, e.g. 'Senior Platform Engineer'")
	cmd.Flags().StringVar(&company, "company", "", "Company name")
	flags.register(cmd)

	return cmd
}

func runGenerate(cmd *cobra.Command, req letter.Request, debugMode bool, flags *configFlags) error {
	if err := req.Normalize().Validate(); err != nil {
		return err
	}

	logger := logging.NewLogger(os.Stderr, debugMode)

	cfg := flags.load(cmd)
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	if cfg.Timeout > 0 {
		var timeoutCancel context.CancelFunc
		ctx, timeoutCancel = context.WithTimeout(ctx, cfg.Timeout)
		defer timeoutCancel()
	}

	_, obs, shutdown, err := startInstrumentation(ctx, instrumentation.DefaultConfig(), logger)
	if err != nil {
		return err
	}
	defer shutdown()

	svc, err := newServices(cfg, true, logger, obs)
	if err != nil {
		return err
	}
	pipeline, err := svc.newPipeline(cfg, logger, obs, false)
	if err != nil {
		return err
	}

	conf, err := pipeline.Generate(ctx, req)
	if err != nil {
		var stepErr *letter.StepError
		if errors.As(err, &stepErr) && stepErr.Orphaned() {
			fmt.Fprintf(cmd.ErrOrStderr(), "The partially filled document %s was left in Google Drive.\n", stepErr.DocumentID)
		}
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), conf.Message())
	return nil
}
