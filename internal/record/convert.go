package record

import "fmt"

// FromObservation converts a raw observation into a Record with its identity.
// A missing charged currency falls back to DefaultChargedCurrency.
func FromObservation(obs RawObservation) (Record, error) {
	status, err := ParseStatus(obs.Status)
	if err != nil {
		return Record{}, fmt.Errorf("convert %q: %w", obs.Identifier, err)
	}

	chargedCurrency := obs.ChargedCurrency
	if chargedCurrency == "" {
		chargedCurrency = DefaultChargedCurrency
	}

	return Record{
		Identity:         identityOf(obs.Identifier, obs.Date, obs.OriginalAmount.String(), obs.Description, obs.Memo, status),
		ExternalID:       obs.Identifier,
		Account:          obs.Account,
		Status:           status,
		Date:             obs.Date,
		OriginalAmount:   obs.OriginalAmount,
		OriginalCurrency: obs.OriginalCurrency,
		ChargedAmount:    obs.ChargedAmount,
		ChargedCurrency:  chargedCurrency,
		Description:      obs.Description,
		Memo:             obs.Memo,
	}, nil
}
