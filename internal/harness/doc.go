// Package harness runs bankwatch scenarios against the real engine.
//
// A scenario scripts what every account's fetch returns in each cycle, which
// deliveries are refused and which MarkNotified calls fail. The harness runs
// the real SyncCycle, Notifier and Scheduler over an in-memory store and
// records every observable effect as a trace.
//
// # Scenario Format
//
//	name: delivery_failure_retried
//	description: "A refused delivery is retried by the next cycle"
//	accounts: [max]
//	ignore: ["Bit transfer"]
//	cycles:
//	  - fetch:
//	      max:
//	        transactions:
//	          - {id: X1, date: "2024-01-01", amount: "-50", description: Cafe, status: final}
//	    fail_delivery: [Cafe]
//	  - restart: true
//	    fetch:
//	      max:
//	        error: TIMEOUT
//	assertions:
//	  - type: trace_count
//	    event: sent
//	    match: {description: Cafe}
//	    count: 1
//	  - type: final_state
//	    where: {description: Cafe}
//	    expect: {notified: true, status: final}
//
// # Trace Events
//
//   - restart: a new process started before this cycle
//   - fetch_failed: account, detail = failure kind
//   - stored: description, detail = status
//   - sent / delivery_failed: description
//   - mark_failed: description
//   - cycle_error: detail = cycle error code
//
// # Assertion Types
//
//   - trace_contains: at least one event of the type matches
//   - trace_order: "type description" keys appear in order
//   - trace_count: exactly N events of the type match
//   - final_state: checks the transactions table
//
// # Deterministic Testing
//
// The clock starts at the scenario's start time and advances by its
// interval before every cycle after the first. Run IDs are sequential.
// Identical scenarios therefore produce identical traces, compared against
// testdata/golden/<name>.golden.
package harness
