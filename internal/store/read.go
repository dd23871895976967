package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/roach88/bankwatch/internal/record"
)

const recordColumns = `identity, external_id, account, status, date, original_amount, original_currency,
	charged_amount, charged_currency, description, memo, notified`

// IdentitiesSince returns identities of all records dated at or after since.
// Returns an empty slice (not nil) if none match.
func (s *Store) IdentitiesSince(ctx context.Context, since time.Time) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT identity FROM transactions
		WHERE date >= ?
		ORDER BY seq ASC
	`, record.FormatDate(since))
	if err != nil {
		return nil, fmt.Errorf("query identities: %w", err)
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan identity: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate identities: %w", err)
	}

	return ids, nil
}

// Pending returns every record not yet notified, in insertion order.
func (s *Store) Pending(ctx context.Context) ([]record.Record, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+recordColumns+`
		FROM transactions
		WHERE notified = 0
		ORDER BY seq ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query pending: %w", err)
	}
	defer rows.Close()

	recs := []record.Record{}
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		recs = append(recs, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate pending: %w", err)
	}

	return recs, nil
}

// Get returns the record with the given identity or ErrNotFound.
func (s *Store) Get(ctx context.Context, identity string) (record.Record, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+recordColumns+`
		FROM transactions
		WHERE identity = ?
	`, identity)

	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return record.Record{}, fmt.Errorf("get %s: %w", identity, ErrNotFound)
	}
	if err != nil {
		return record.Record{}, err
	}
	return rec, nil
}

// Count returns the total number of stored records.
func (s *Store) Count(ctx context.Context) (int, error) {
	return s.count(ctx, `SELECT COUNT(*) FROM transactions`)
}

// CountPending returns the number of records not yet notified.
func (s *Store) CountPending(ctx context.Context) (int, error) {
	return s.count(ctx, `SELECT COUNT(*) FROM transactions WHERE notified = 0`)
}

func (s *Store) count(ctx context.Context, query string) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, query).Scan(&n); err != nil {
		return 0, fmt.Errorf("count: %w", err)
	}
	return n, nil
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (record.Record, error) {
	var (
		rec                     record.Record
		status, date            string
		originalAmt, chargedAmt string
		notified                int
	)

	err := row.Scan(
		&rec.Identity,
		&rec.ExternalID,
		&rec.Account,
		&status,
		&date,
		&originalAmt,
		&rec.OriginalCurrency,
		&chargedAmt,
		&rec.ChargedCurrency,
		&rec.Description,
		&rec.Memo,
		&notified,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return record.Record{}, err
		}
		return record.Record{}, fmt.Errorf("scan record: %w", err)
	}

	rec.Status = record.Status(status)
	rec.Notified = notified == 1

	if rec.Date, err = time.Parse(record.DateLayout, date); err != nil {
		return record.Record{}, fmt.Errorf("scan record %s: date: %w", rec.Identity, err)
	}
	if rec.OriginalAmount, err = decimal.NewFromString(originalAmt); err != nil {
		return record.Record{}, fmt.Errorf("scan record %s: original amount: %w", rec.Identity, err)
	}
	if rec.ChargedAmount, err = decimal.NewFromString(chargedAmt); err != nil {
		return record.Record{}, fmt.Errorf("scan record %s: charged amount: %w", rec.Identity, err)
	}

	return rec, nil
}
