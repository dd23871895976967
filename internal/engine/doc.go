// Package engine drives bank transaction synchronization.
//
// A cycle has two phases that always run in this order:
//
//  1. Sync: for each configured account, fetch observations through the
//     source adapter, convert them to records, drop the ones the tracker
//     already knows or the ignore list names, and insert the rest into the
//     store one by one. Every inserted identity is added to the tracker
//     before the next candidate is considered.
//  2. Notify: select every stored record not yet notified, in insertion
//     order, render it, send it, and only then mark it notified. A record
//     delivered but not marked is delivered again next cycle; a record
//     marked is never selected again.
//
// The Scheduler bootstraps the tracker from the store once and then runs
// cycles either forever with a fixed pause between them, or exactly once.
//
// FAILURE ISOLATION:
//
// Failures are values, not control flow. Each folds a slice through a
// function and returns one Outcome per item, so one failed account, insert
// or delivery never stops the others. Only a CycleError aborts a cycle:
// the store failing to answer, or a panic.
//
// SHUTDOWN:
//
// Cancellation is cooperative. The context is checked before each account,
// each delivery, and each cycle. Work already started runs on a detached
// context bounded by its own timeout, so a fetch or send in flight is allowed
// to finish but nothing new begins.
//
// Thread-safety: the sync phase mutates the tracker and the store from a
// single goroutine. Concurrent duplicate inserts are resolved by the store's
// uniqueness constraint and counted as duplicates.
package engine
