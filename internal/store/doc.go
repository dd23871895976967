// Package store provides SQLite-backed durable storage for bankwatch transactions.
//
// The store is the source of truth for what has been seen and what has been
// delivered:
//   - transactions: one row per record identity, never deleted
//   - notified: 0 until delivery succeeds, then 1, never reverted
//
// # Guarantees
//
// Uniqueness: identity is UNIQUE. A second Insert of the same identity returns
// ErrDuplicateKey and leaves the row untouched.
//
// Ordering: Pending returns rows ORDER BY seq ASC, which is insertion order.
//
// Monotonic flag: a trigger rejects any update that would set notified from 1
// back to 0.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - single connection: one writer, no SQLITE_BUSY between our own calls
package store
