package notify

import (
	"context"

	"github.com/roach88/bankwatch/internal/record"
)

// Payload holds the display strings of one notification.
type Payload struct {
	Account        string `json:"account"`
	Date           string `json:"date"`
	Description    string `json:"description"`
	OriginalAmount string `json:"original_amount"`
	ChargedAmount  string `json:"charged_amount"`
	Status         string `json:"status"`
	Memo           string `json:"memo"`
}

// Message is a rendered notification for one record.
type Message struct {
	Identity string
	Subject  string
	HTML     string
	Text     string
	Payload  Payload

	// Record is the source record, for channels that store typed values.
	Record record.Record
}

// Receipt confirms a delivery.
type Receipt struct {
	// ID is the channel's delivery id: a Message-ID, a page id.
	ID string

	// Duplicate is set when the channel found an earlier delivery of the
	// same record and did not deliver again.
	Duplicate bool
}

// Channel delivers rendered messages.
//
// Send must return an error unless the message was delivered (or is known
// to have been delivered before); the caller marks the record notified only
// on success.
type Channel interface {
	Name() string
	Send(ctx context.Context, msg Message) (Receipt, error)
}
