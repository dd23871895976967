package store

import (
	"context"
	"fmt"

	"github.com/roach88/bankwatch/internal/record"
)

// Insert stores a new record.
// Uses ON CONFLICT(identity) DO NOTHING; when nothing was inserted the
// identity already existed and ErrDuplicateKey is returned.
// The stored notified flag is always 0 regardless of rec.Notified.
func (s *Store) Insert(ctx context.Context, rec record.Record) error {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO transactions
		(identity, external_id, account, status, date, original_amount, original_currency,
		 charged_amount, charged_currency, description, memo, notified, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 0, ?)
		ON CONFLICT(identity) DO NOTHING
	`,
		rec.Identity,
		rec.ExternalID,
		rec.Account,
		string(rec.Status),
		record.FormatDate(rec.Date),
		rec.OriginalAmount.String(),
		rec.OriginalCurrency,
		rec.ChargedAmount.String(),
		rec.ChargedCurrency,
		rec.Description,
		rec.Memo,
		record.FormatDate(s.now()),
	)
	if err != nil {
		return fmt.Errorf("insert %s: %w", rec.Identity, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("insert %s: rows affected: %w", rec.Identity, err)
	}
	if n == 0 {
		return fmt.Errorf("insert %s: %w", rec.Identity, ErrDuplicateKey)
	}

	return nil
}

// MarkNotified sets the notified flag of a record.
// Idempotent: marking an already notified record succeeds and keeps the
// original notified_at. Returns ErrNotFound for unknown identities.
func (s *Store) MarkNotified(ctx context.Context, identity string) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE transactions
		SET notified = 1, notified_at = COALESCE(notified_at, ?)
		WHERE identity = ?
	`, record.FormatDate(s.now()), identity)
	if err != nil {
		return fmt.Errorf("mark notified %s: %w", identity, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("mark notified %s: rows affected: %w", identity, err)
	}
	if n == 0 {
		return fmt.Errorf("mark notified %s: %w", identity, ErrNotFound)
	}

	return nil
}
