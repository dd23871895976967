package source

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/roach88/bankwatch/internal/record"
)

// scrapeResult is the israeli-bank-scrapers result document.
type scrapeResult struct {
	Success      bool             `json:"success"`
	ErrorType    string           `json:"errorType,omitempty"`
	ErrorMessage string           `json:"errorMessage,omitempty"`
	Accounts     []scrapedAccount `json:"accounts,omitempty"`
}

type scrapedAccount struct {
	AccountNumber string       `json:"accountNumber"`
	Txns          []scrapedTxn `json:"txns"`
}

type scrapedTxn struct {
	Identifier       txnIdentifier   `json:"identifier"`
	Date             time.Time       `json:"date"`
	Description      string          `json:"description"`
	Memo             *string         `json:"memo"`
	OriginalAmount   decimal.Decimal `json:"originalAmount"`
	OriginalCurrency string          `json:"originalCurrency"`
	ChargedAmount    decimal.Decimal `json:"chargedAmount"`
	ChargedCurrency  *string         `json:"chargedCurrency"`
	Status           string          `json:"status"`
}

// txnIdentifier accepts the identifier as a JSON string or number.
// Some scrapers emit numeric ids and others strings; both hash the same text.
type txnIdentifier string

// UnmarshalJSON implements json.Unmarshaler.
func (id *txnIdentifier) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*id = ""
	case len(data) > 0 && data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = txnIdentifier(s)
	default:
		var n json.Number
		if err := json.Unmarshal(data, &n); err != nil {
			return fmt.Errorf("identifier: %w", err)
		}
		*id = txnIdentifier(n.String())
	}
	return nil
}

// observations flattens a successful result. Transactions dated before the
// requested start are kept: card issuers post late with the original date.
// A failed result becomes a *FetchError with its errorType.
func (r scrapeResult) observations(acct Account) ([]record.RawObservation, error) {
	if !r.Success {
		kind := r.ErrorType
		if kind == "" {
			kind = FailureGeneric
		}
		var cause error
		if r.ErrorMessage != "" {
			cause = errors.New(r.ErrorMessage)
		}
		return nil, &FetchError{Kind: kind, Account: acct.Name(), Err: cause}
	}

	var obs []record.RawObservation
	for _, a := range r.Accounts {
		for _, t := range a.Txns {
			o := record.RawObservation{
				Identifier:       string(t.Identifier),
				Account:          a.AccountNumber,
				Date:             t.Date,
				Description:      t.Description,
				OriginalAmount:   t.OriginalAmount,
				OriginalCurrency: t.OriginalCurrency,
				ChargedAmount:    t.ChargedAmount,
				Status:           t.Status,
			}
			if t.Memo != nil {
				o.Memo = *t.Memo
			}
			if t.ChargedCurrency != nil {
				o.ChargedCurrency = *t.ChargedCurrency
			}
			obs = append(obs, o)
		}
	}
	return obs, nil
}
