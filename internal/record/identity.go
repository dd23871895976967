package record

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"golang.org/x/text/unicode/norm"
)

// IdentityVersion is the domain prefix of the identity hash.
// Bump the suffix when identityFields changes; old identities stop matching.
const IdentityVersion = "bankwatch/txn/v1"

// IdentityLength is the length of an identity in hex characters.
const IdentityLength = sha256.Size * 2

// DateLayout is the canonical, fixed-width UTC form of a transaction date.
// The store also uses it so lexical order equals chronological order.
const DateLayout = "2006-01-02T15:04:05.000Z"

// fieldSeparator is the ASCII unit separator. It does not occur in bank data.
const fieldSeparator = "\x1f"

// identityFields returns the v1 field list in hashing order:
// identifier, date, original amount, description, memo, status.
//
// Status is included: a pending transaction that later settles gets a new
// identity and is reported again with its settled values.
func identityFields(identifier string, date time.Time, amount string, description, memo string, status Status) []string {
	return []string{
		identifier,
		FormatDate(date),
		amount,
		description,
		memo,
		string(status),
	}
}

// FormatDate renders t in the canonical DateLayout.
func FormatDate(t time.Time) string {
	return t.UTC().Format(DateLayout)
}

// hashWithDomain computes SHA-256 hash with domain separation.
// Format: SHA256(domain + 0x00 + data)
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// Identity computes the content-addressed identity of an observation.
// Equal observations always produce equal identities. Amounts are compared
// by value (-50.00 and -50 hash the same) and strings are NFC normalized.
func Identity(obs RawObservation) (string, error) {
	status, err := ParseStatus(obs.Status)
	if err != nil {
		return "", fmt.Errorf("Identity: %w", err)
	}
	return identityOf(obs.Identifier, obs.Date, obs.OriginalAmount.String(), obs.Description, obs.Memo, status), nil
}

func identityOf(identifier string, date time.Time, amount string, description, memo string, status Status) string {
	fields := identityFields(identifier, date, amount, description, memo, status)
	for i, f := range fields {
		fields[i] = norm.NFC.String(f)
	}
	return hashWithDomain(IdentityVersion, []byte(strings.Join(fields, fieldSeparator)))
}

// MustIdentity is like Identity but panics on error.
// Use only in tests or when inputs are known to be valid.
func MustIdentity(obs RawObservation) string {
	id, err := Identity(obs)
	if err != nil {
		panic(err)
	}
	return id
}
