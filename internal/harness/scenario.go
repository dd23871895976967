package harness

import (
	"bytes"
	"fmt"
	"os"
	"time"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/roach88/bankwatch/internal/record"
	"github.com/roach88/bankwatch/internal/source"
)

// Scenario describes a sequence of cycles against one bankwatch installation
// and the outcome they must produce.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Start is the wall clock of the first cycle. Defaults to
	// 2024-01-05T09:00:00Z.
	Start time.Time `yaml:"start,omitempty"`

	// Interval advances the clock between cycles. Defaults to one hour.
	Interval time.Duration `yaml:"interval,omitempty"`

	DaysAgo            int      `yaml:"days_ago,omitempty"`
	LookbackMarginDays int      `yaml:"lookback_margin_days,omitempty"`
	Ignore             []string `yaml:"ignore,omitempty"`

	// Accounts lists account labels. Every account is of kind max.
	Accounts []string `yaml:"accounts"`

	Cycles []Cycle `yaml:"cycles"`

	// Assertions validate the final trace and store.
	// Supported types: trace_contains, trace_order, trace_count, final_state
	Assertions []Assertion `yaml:"assertions"`
}

// Cycle scripts the collaborators for one cycle.
type Cycle struct {
	// Restart starts a new process before this cycle: a fresh tracker
	// bootstrapped from the surviving store.
	Restart bool `yaml:"restart,omitempty"`

	// Fetch maps an account label to what its fetch returns. Accounts not
	// listed return no transactions.
	Fetch map[string]FetchStep `yaml:"fetch,omitempty"`

	// FailDelivery lists descriptions whose delivery is refused.
	FailDelivery []string `yaml:"fail_delivery,omitempty"`

	// FailMark lists descriptions whose MarkNotified fails.
	FailMark []string `yaml:"fail_mark,omitempty"`
}

// FetchStep is one scripted fetch result: transactions or a failure kind.
type FetchStep struct {
	Transactions []Transaction `yaml:"transactions,omitempty"`
	Error        string        `yaml:"error,omitempty"`
}

// Transaction is a raw observation in scenario shorthand.
type Transaction struct {
	ID          string `yaml:"id"`
	Account     string `yaml:"account,omitempty"` // defaults to "1111"
	Date        string `yaml:"date"`              // 2006-01-02
	Amount      string `yaml:"amount"`
	Currency    string `yaml:"currency,omitempty"` // defaults to ILS
	Description string `yaml:"description"`
	Memo        string `yaml:"memo,omitempty"`
	Status      string `yaml:"status"`
}

// Observation converts the shorthand to the adapter's output type.
func (tx Transaction) Observation() (record.RawObservation, error) {
	date, err := time.Parse(time.DateOnly, tx.Date)
	if err != nil {
		return record.RawObservation{}, fmt.Errorf("transaction %s: %w", tx.ID, err)
	}
	amount, err := decimal.NewFromString(tx.Amount)
	if err != nil {
		return record.RawObservation{}, fmt.Errorf("transaction %s: amount: %w", tx.ID, err)
	}
	account := tx.Account
	if account == "" {
		account = "1111"
	}
	currency := tx.Currency
	if currency == "" {
		currency = "ILS"
	}
	return record.RawObservation{
		Identifier:       tx.ID,
		Account:          account,
		Date:             date,
		Description:      tx.Description,
		Memo:             tx.Memo,
		OriginalAmount:   amount,
		OriginalCurrency: currency,
		ChargedAmount:    amount,
		ChargedCurrency:  currency,
		Status:           tx.Status,
	}, nil
}

// Assertion validates trace or final state.
type Assertion struct {
	// Type is one of the Assert* constants.
	Type string `yaml:"type"`

	// Event is the trace event type (trace_contains, trace_count).
	Event string `yaml:"event,omitempty"`

	// Match is a subset of event fields: cycle, account, description,
	// detail (trace_contains, trace_count).
	Match map[string]interface{} `yaml:"match,omitempty"`

	// Count is the expected number of matching events (trace_count).
	Count int `yaml:"count,omitempty"`

	// Events is the expected order of "type description" keys (trace_order).
	Events []string `yaml:"events,omitempty"`

	// Where selects exactly one transactions row (final_state).
	Where map[string]interface{} `yaml:"where,omitempty"`

	// Expect contains expected column values (final_state).
	// Subset match - only specified columns are validated.
	Expect map[string]interface{} `yaml:"expect,omitempty"`

	// Rows, if set, is the expected number of rows matching Where
	// (final_state). Expect is then optional.
	Rows *int `yaml:"rows,omitempty"`
}

// Assertion type constants.
const (
	AssertTraceContains = "trace_contains"
	AssertTraceOrder    = "trace_order"
	AssertTraceCount    = "trace_count"
	AssertFinalState    = "final_state"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario is LoadScenario without the file read.
func ParseScenario(data []byte) (*Scenario, error) {
	// Strict field validation catches typos like "assertion:" vs "assertions:"
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	scenario.applyDefaults()
	return &scenario, nil
}

func (s *Scenario) applyDefaults() {
	if s.Start.IsZero() {
		s.Start = time.Date(2024, 1, 5, 9, 0, 0, 0, time.UTC)
	}
	if s.Interval == 0 {
		s.Interval = time.Hour
	}
	if s.DaysAgo == 0 {
		s.DaysAgo = 7
	}
	if s.LookbackMarginDays == 0 {
		s.LookbackMarginDays = 7
	}
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if len(s.Accounts) == 0 {
		return fmt.Errorf("accounts list is required and must be non-empty")
	}
	if len(s.Cycles) == 0 {
		return fmt.Errorf("cycles list is required and must be non-empty")
	}
	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}

	known := make(map[string]bool, len(s.Accounts))
	for _, a := range s.Accounts {
		known[a] = true
	}

	for i, c := range s.Cycles {
		for account, step := range c.Fetch {
			if !known[account] {
				return fmt.Errorf("cycles[%d].fetch: unknown account %q", i, account)
			}
			if step.Error != "" && len(step.Transactions) > 0 {
				return fmt.Errorf("cycles[%d].fetch.%s: set transactions or error, not both", i, account)
			}
			for j, tx := range step.Transactions {
				if _, err := tx.Observation(); err != nil {
					return fmt.Errorf("cycles[%d].fetch.%s[%d]: %w", i, account, j, err)
				}
			}
		}
	}

	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion); err != nil {
			return err
		}
	}

	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertTraceContains:
		if a.Event == "" {
			return fmt.Errorf("assertions[%d]: event is required for trace_contains", index)
		}
	case AssertTraceOrder:
		if len(a.Events) == 0 {
			return fmt.Errorf("assertions[%d]: events list is required for trace_order", index)
		}
	case AssertTraceCount:
		if a.Event == "" {
			return fmt.Errorf("assertions[%d]: event is required for trace_count", index)
		}
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for trace_count", index)
		}
	case AssertFinalState:
		if len(a.Expect) == 0 && a.Rows == nil {
			return fmt.Errorf("assertions[%d]: expect or rows is required for final_state", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}

	return nil
}

// account builds the descriptor for a scenario account label.
func account(label string) source.Account {
	return source.Account{
		Kind:        source.KindMax,
		Label:       label,
		Credentials: source.Credentials{Username: "u", Password: "p"},
	}
}
