// Package record defines the transaction types flowing through bankwatch and
// the content-addressed identity that keys them.
//
// A RawObservation is what a source adapter returns. It is converted once into
// a Record, whose Identity is the primary key in the durable store and the
// dedup token in the discovery tracker.
//
// # Identity
//
// Identity is SHA-256 over a domain prefix and a fixed field list, see
// IdentityVersion and identityFields. The field list is part of the on-disk
// format: every stored row is keyed by it, so changing it is a migration.
package record
