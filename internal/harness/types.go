package harness

// Trace event types.
const (
	EventRestart        = "restart"
	EventFetchFailed    = "fetch_failed"
	EventStored         = "stored"
	EventSent           = "sent"
	EventDeliveryFailed = "delivery_failed"
	EventMarkFailed     = "mark_failed"
	EventCycleError     = "cycle_error"
)

// TraceEvent is one observable effect of a scenario cycle.
type TraceEvent struct {
	Cycle       int64  `json:"cycle"`
	Type        string `json:"type"`
	Account     string `json:"account,omitempty"`
	Description string `json:"description,omitempty"`
	Detail      string `json:"detail,omitempty"`
}

// key identifies the event in trace_order assertions: the type, followed by
// the description when there is one.
func (e TraceEvent) key() string {
	if e.Description == "" {
		return e.Type
	}
	return e.Type + " " + e.Description
}

// fields exposes the event for subset matching.
func (e TraceEvent) fields() map[string]interface{} {
	return map[string]interface{}{
		"cycle":       e.Cycle,
		"account":     e.Account,
		"description": e.Description,
		"detail":      e.Detail,
	}
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass is true when every assertion held.
	Pass bool `json:"pass"`

	// Trace contains every event in the order it happened.
	Trace []TraceEvent `json:"trace"`

	// Errors contains assertion failures. Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Errors: []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

func (r *Result) add(e TraceEvent) {
	r.Trace = append(r.Trace, e)
}
