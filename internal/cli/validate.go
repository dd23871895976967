package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/bankwatch/internal/config"
)

// ValidationResult summarizes a valid configuration.
type ValidationResult struct {
	Valid    bool     `json:"valid"`
	Path     string   `json:"path"`
	Mode     string   `json:"mode"`
	Database string   `json:"database"`
	Scraper  string   `json:"scraper"`
	Channel  string   `json:"channel"`
	Accounts []string `json:"accounts"`
}

func (r ValidationResult) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "✓ %s is valid\n", r.Path)
	fmt.Fprintf(&b, "  mode:     %s\n", r.Mode)
	fmt.Fprintf(&b, "  database: %s\n", r.Database)
	fmt.Fprintf(&b, "  scraper:  %s\n", r.Scraper)
	fmt.Fprintf(&b, "  channel:  %s\n", r.Channel)
	fmt.Fprintf(&b, "  accounts: %s", strings.Join(r.Accounts, ", "))
	return b.String()
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Validate the configuration file",
		Long: `Load and validate the configuration without touching the database,
the scraper or the notification channel.

Checks the schema, expands ${VAR} references and verifies that every
account carries the credentials its kind requires.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, cmd)
		},
	}
}

func runValidate(opts *RootOptions, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)
	formatter.VerboseLog("Loading %s", opts.Config)

	cfg, err := config.Load(opts.Config)
	if err != nil {
		var details interface{}
		var schemaErr *config.SchemaError
		if errors.As(err, &schemaErr) {
			details = schemaErr.Details
		}
		_ = formatter.Error(ErrCodeConfig, err.Error(), details)
		return WrapExitError(ExitFailure, "validation failed", err)
	}

	result := ValidationResult{
		Valid:    true,
		Path:     opts.Config,
		Mode:     cfg.Mode,
		Database: cfg.Database,
		Scraper:  scraperSummary(cfg.Scraper),
		Channel:  cfg.Notify.Channel,
	}
	for _, acct := range cfg.Accounts {
		result.Accounts = append(result.Accounts, acct.String())
	}
	return formatter.Success(result)
}

func scraperSummary(s config.Scraper) string {
	if s.Fixture != "" {
		return "fixture " + s.Fixture
	}
	return "command " + strings.Join(s.Command, " ")
}
