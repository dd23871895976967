package notify

import (
	"bytes"
	_ "embed"
	"fmt"
	"html/template"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/roach88/bankwatch/internal/record"
)

//go:embed template.html
var tableTemplate string

// Display defaults.
const (
	DefaultDateLayout   = "15:04 - 02/01/2006"
	DefaultPendingLabel = "בתהליך אישור"
	DefaultFinalLabel   = "סופי"
	DefaultTimezone     = "Asia/Jerusalem"
)

// Row labels, in display order.
const (
	labelAccount        = "חשבון"
	labelDate           = "תאריך"
	labelDescription    = "תיאור"
	labelOriginalAmount = "סכום מקורי"
	labelChargedAmount  = "סכום לחיוב"
	labelStatus         = "סטטוס"
	labelMemo           = "הערה"
)

// RenderOptions configures a Renderer. Zero values select the defaults.
type RenderOptions struct {
	// FriendlyNames maps raw account numbers to display names.
	FriendlyNames map[string]string

	// Location is the zone dates are shown in.
	Location *time.Location

	DateLayout   string
	PendingLabel string
	FinalLabel   string

	// Currency is shown when a record carries no currency of its own.
	Currency string
}

// Renderer turns records into messages.
type Renderer struct {
	opts RenderOptions
	tmpl *template.Template
}

type row struct {
	Label string
	Value string
}

// NewRenderer creates a renderer.
func NewRenderer(opts RenderOptions) (*Renderer, error) {
	if opts.Location == nil {
		loc, err := time.LoadLocation(DefaultTimezone)
		if err != nil {
			return nil, fmt.Errorf("load timezone: %w", err)
		}
		opts.Location = loc
	}
	if opts.DateLayout == "" {
		opts.DateLayout = DefaultDateLayout
	}
	if opts.PendingLabel == "" {
		opts.PendingLabel = DefaultPendingLabel
	}
	if opts.FinalLabel == "" {
		opts.FinalLabel = DefaultFinalLabel
	}
	if opts.Currency == "" {
		opts.Currency = record.DefaultChargedCurrency
	}

	tmpl, err := template.New("transaction").Parse(tableTemplate)
	if err != nil {
		return nil, fmt.Errorf("parse template: %w", err)
	}
	return &Renderer{opts: opts, tmpl: tmpl}, nil
}

// Render builds the message for rec.
func (r *Renderer) Render(rec record.Record) (Message, error) {
	p := r.payload(rec)
	rows := []row{
		{labelAccount, p.Account},
		{labelDate, p.Date},
		{labelDescription, p.Description},
		{labelOriginalAmount, p.OriginalAmount},
		{labelChargedAmount, p.ChargedAmount},
		{labelStatus, p.Status},
		{labelMemo, p.Memo},
	}

	var html bytes.Buffer
	if err := r.tmpl.Execute(&html, struct{ Rows []row }{rows}); err != nil {
		return Message{}, fmt.Errorf("render %s: %w", rec.Identity, err)
	}

	var text strings.Builder
	for _, rw := range rows {
		fmt.Fprintf(&text, "%s: %s\n", rw.Label, rw.Value)
	}

	return Message{
		Identity: rec.Identity,
		Subject:  p.Description + " - " + p.OriginalAmount,
		HTML:     html.String(),
		Text:     text.String(),
		Payload:  p,
		Record:   rec,
	}, nil
}

func (r *Renderer) payload(rec record.Record) Payload {
	account := rec.Account
	if name, ok := r.opts.FriendlyNames[rec.Account]; ok && name != "" {
		account = name
	}

	status := r.opts.FinalLabel
	if rec.Status == record.StatusPending {
		status = r.opts.PendingLabel
	}

	return Payload{
		Account:        account,
		Date:           rec.Date.In(r.opts.Location).Format(r.opts.DateLayout),
		Description:    rec.Description,
		OriginalAmount: r.amount(rec.OriginalCurrency, rec.OriginalAmount.Neg().StringFixed(2)),
		ChargedAmount:  r.amount(rec.ChargedCurrency, rec.ChargedAmount.Neg().StringFixed(2)),
		Status:         status,
		Memo:           rec.Memo,
	}
}

// amount prefixes the currency; debits arrive negative and are shown as
// positive spend.
func (r *Renderer) amount(currency, value string) string {
	if currency == "" {
		currency = r.opts.Currency
	}
	return currency + value
}
