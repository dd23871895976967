package source

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/roach88/bankwatch/internal/record"
)

// scrapeRequest is written to the scraper's stdin.
type scrapeRequest struct {
	CompanyID           Kind        `json:"companyId"`
	StartDate           time.Time   `json:"startDate"`
	Timeout             int64       `json:"timeout,omitempty"`
	CombineInstallments bool        `json:"combineInstallments"`
	Credentials         Credentials `json:"credentials"`
}

// CommandAdapter runs an external scraper process per fetch.
//
// The process receives one JSON request on stdin and must print one
// israeli-bank-scrapers result document on stdout. Stderr is kept for
// error messages only.
type CommandAdapter struct {
	argv []string
	env  []string
}

// NewCommandAdapter creates an adapter running argv. Extra environment
// entries in KEY=VALUE form are appended to the current environment.
func NewCommandAdapter(argv []string, env ...string) (*CommandAdapter, error) {
	if len(argv) == 0 || argv[0] == "" {
		return nil, errors.New("scraper command is empty")
	}
	return &CommandAdapter{argv: argv, env: env}, nil
}

// Fetch implements Adapter.
func (a *CommandAdapter) Fetch(ctx context.Context, acct Account, since time.Time) ([]record.RawObservation, error) {
	req := scrapeRequest{
		CompanyID:   acct.Kind,
		StartDate:   since.UTC(),
		Credentials: acct.Credentials,
	}
	if deadline, ok := ctx.Deadline(); ok {
		req.Timeout = time.Until(deadline).Milliseconds()
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, &FetchError{Kind: FailureCommand, Account: acct.Name(), Err: err}
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, a.argv[0], a.argv[1:]...)
	cmd.Stdin = bytes.NewReader(body)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	cmd.WaitDelay = time.Second
	if len(a.env) > 0 {
		cmd.Env = append(os.Environ(), a.env...)
	}

	runErr := cmd.Run()
	if fe := contextFailure(ctx, acct); fe != nil {
		return nil, fe
	}
	if runErr != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg != "" {
			runErr = fmt.Errorf("%w: %s", runErr, msg)
		}
		return nil, &FetchError{Kind: FailureCommand, Account: acct.Name(), Err: runErr}
	}

	var res scrapeResult
	if err := json.Unmarshal(stdout.Bytes(), &res); err != nil {
		return nil, &FetchError{Kind: FailureBadOutput, Account: acct.Name(), Err: err}
	}
	return res.observations(acct)
}
