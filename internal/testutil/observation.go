package testutil

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/roach88/bankwatch/internal/record"
)

// Obs builds a raw observation for account "1111" with ILS amounts.
// date is "2006-01-02" in UTC; amount is a decimal string.
func Obs(identifier, date, amount, description, memo, status string) record.RawObservation {
	d, err := time.Parse("2006-01-02", date)
	if err != nil {
		panic(err)
	}
	amt := decimal.RequireFromString(amount)
	return record.RawObservation{
		Identifier:       identifier,
		Account:          "1111",
		Date:             d,
		Description:      description,
		Memo:             memo,
		OriginalAmount:   amt,
		OriginalCurrency: "ILS",
		ChargedAmount:    amt,
		Status:           status,
	}
}
