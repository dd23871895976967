package cli

import (
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/bankwatch/internal/record"
	"github.com/roach88/bankwatch/internal/store"
)

// PendingEntry is one record awaiting notification.
type PendingEntry struct {
	Identity       string `json:"identity"`
	Account        string `json:"account"`
	Date           string `json:"date"`
	Description    string `json:"description"`
	OriginalAmount string `json:"original_amount"`
	Currency       string `json:"currency"`
	Status         string `json:"status"`
}

// PendingList is the output of the pending command.
type PendingList struct {
	Count   int            `json:"count"`
	Records []PendingEntry `json:"records"`
}

func (l PendingList) String() string {
	if l.Count == 0 {
		return "No records awaiting notification."
	}
	var b strings.Builder
	w := tabwriter.NewWriter(&b, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "DATE\tACCOUNT\tAMOUNT\tSTATUS\tDESCRIPTION\tIDENTITY")
	for _, e := range l.Records {
		fmt.Fprintf(w, "%s\t%s\t%s %s\t%s\t%s\t%s\n",
			e.Date, e.Account, e.OriginalAmount, e.Currency, e.Status, e.Description, e.Identity[:12])
	}
	_ = w.Flush()
	fmt.Fprintf(&b, "%d record(s) awaiting notification", l.Count)
	return b.String()
}

// NewPendingCommand creates the pending command.
func NewPendingCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "pending",
		Short: "List records awaiting notification",
		Long: `List stored records that were not notified yet, in delivery order.

These are the records the next cycle will try to deliver.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPending(rootOpts, cmd)
		},
	}
}

func runPending(opts *RootOptions, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	cfg, err := loadConfig(opts)
	if err != nil {
		_ = formatter.Error(ErrCodeConfig, err.Error(), nil)
		return err
	}

	formatter.VerboseLog("Opening database %s", cfg.Database)
	st, err := store.Open(cfg.Database)
	if err != nil {
		_ = formatter.Error(ErrCodeStore, "failed to open database", err.Error())
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer st.Close()

	recs, err := st.Pending(cmd.Context())
	if err != nil {
		_ = formatter.Error(ErrCodeStore, "failed to list pending records", err.Error())
		return WrapExitError(ExitCommandError, "failed to list pending records", err)
	}

	list := PendingList{Count: len(recs), Records: make([]PendingEntry, 0, len(recs))}
	for _, rec := range recs {
		list.Records = append(list.Records, pendingEntry(rec))
	}
	return formatter.Success(list)
}

func pendingEntry(rec record.Record) PendingEntry {
	return PendingEntry{
		Identity:       rec.Identity,
		Account:        rec.Account,
		Date:           rec.Date.UTC().Format(time.DateOnly),
		Description:    rec.Description,
		OriginalAmount: rec.OriginalAmount.StringFixed(2),
		Currency:       rec.OriginalCurrency,
		Status:         string(rec.Status),
	}
}
