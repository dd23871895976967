package notify

import (
	"context"
	"errors"
	"fmt"

	"github.com/jomei/notionapi"
)

// Notion property names of the transactions database.
const (
	notionPropDescription = "Description"
	notionPropAccount     = "Account"
	notionPropDate        = "Date"
	notionPropOriginal    = "Original Amount"
	notionPropCharged     = "Charged Amount"
	notionPropCurrency    = "Currency"
	notionPropStatus      = "Status"
	notionPropMemo        = "Memo"
	notionPropIdentity    = "Identity"
)

// NotionPages is the subset of the Notion API the channel needs.
// This interface enables mocking and testing of Notion operations.
type NotionPages interface {
	// CreatePage creates a new page in a Notion database with the given properties.
	CreatePage(ctx context.Context, databaseID string, properties notionapi.Properties) (*notionapi.Page, error)

	// QueryDatabase queries a Notion database with the given filter.
	QueryDatabase(ctx context.Context, databaseID string, req *notionapi.DatabaseQueryRequest) (*notionapi.DatabaseQueryResponse, error)
}

// NotionClient implements NotionPages with the Notion SDK.
type NotionClient struct {
	client *notionapi.Client
}

// NewNotionClient creates a new NotionClient with the provided API token.
func NewNotionClient(token string) *NotionClient {
	return &NotionClient{
		client: notionapi.NewClient(notionapi.Token(token)),
	}
}

// CreatePage creates a new page in a Notion database with the given properties.
func (n *NotionClient) CreatePage(ctx context.Context, databaseID string, properties notionapi.Properties) (*notionapi.Page, error) {
	req := &notionapi.PageCreateRequest{
		Parent: notionapi.Parent{
			Type:       notionapi.ParentTypeDatabaseID,
			DatabaseID: notionapi.DatabaseID(databaseID),
		},
		Properties: properties,
	}

	page, err := n.client.Page.Create(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("CreatePage: %w", err)
	}

	return page, nil
}

// QueryDatabase queries a Notion database with the given filter.
func (n *NotionClient) QueryDatabase(ctx context.Context, databaseID string, req *notionapi.DatabaseQueryRequest) (*notionapi.DatabaseQueryResponse, error) {
	resp, err := n.client.Database.Query(ctx, notionapi.DatabaseID(databaseID), req)
	if err != nil {
		return nil, fmt.Errorf("QueryDatabase: %w", err)
	}

	return resp, nil
}

// NotionChannel records each message as a page in a Notion database.
//
// Pages carry the record identity, so a re-delivery after a crash finds the
// existing page instead of creating a second one.
type NotionChannel struct {
	pages      NotionPages
	databaseID string
}

// NewNotionChannel creates the channel.
func NewNotionChannel(pages NotionPages, databaseID string) (*NotionChannel, error) {
	if databaseID == "" {
		return nil, errors.New("notion: database id is required")
	}
	return &NotionChannel{pages: pages, databaseID: databaseID}, nil
}

// Name implements Channel.
func (c *NotionChannel) Name() string { return "notion" }

// Send implements Channel. The receipt id is the page id.
func (c *NotionChannel) Send(ctx context.Context, msg Message) (Receipt, error) {
	existing, err := c.pages.QueryDatabase(ctx, c.databaseID, &notionapi.DatabaseQueryRequest{
		Filter: notionapi.PropertyFilter{
			Property: notionPropIdentity,
			RichText: &notionapi.TextFilterCondition{Equals: msg.Identity},
		},
		PageSize: 1,
	})
	if err != nil {
		return Receipt{}, fmt.Errorf("notion lookup %s: %w", msg.Identity, err)
	}
	if len(existing.Results) > 0 {
		return Receipt{ID: existing.Results[0].ID.String(), Duplicate: true}, nil
	}

	page, err := c.pages.CreatePage(ctx, c.databaseID, messageToNotionProperties(msg))
	if err != nil {
		return Receipt{}, fmt.Errorf("notion create %s: %w", msg.Identity, err)
	}
	return Receipt{ID: page.ID.String()}, nil
}

// messageToNotionProperties maps a message to page properties. Amounts are
// stored sign-flipped like the rendered payload.
func messageToNotionProperties(msg Message) notionapi.Properties {
	rec := msg.Record
	date := notionapi.Date(rec.Date)

	props := notionapi.Properties{
		notionPropDescription: notionapi.TitleProperty{
			Title: []notionapi.RichText{
				{
					Type: notionapi.ObjectTypeText,
					Text: &notionapi.Text{Content: msg.Payload.Description},
				},
			},
		},
		notionPropAccount: notionapi.SelectProperty{
			Select: notionapi.Option{Name: msg.Payload.Account},
		},
		notionPropDate: notionapi.DateProperty{
			Date: &notionapi.DateObject{Start: &date},
		},
		notionPropOriginal: notionapi.NumberProperty{
			Number: rec.OriginalAmount.Neg().InexactFloat64(),
		},
		notionPropCharged: notionapi.NumberProperty{
			Number: rec.ChargedAmount.Neg().InexactFloat64(),
		},
		notionPropStatus: notionapi.SelectProperty{
			Select: notionapi.Option{Name: msg.Payload.Status},
		},
		notionPropIdentity: richText(msg.Identity),
	}

	if rec.OriginalCurrency != "" {
		props[notionPropCurrency] = notionapi.SelectProperty{
			Select: notionapi.Option{Name: rec.OriginalCurrency},
		}
	}

	if msg.Payload.Memo != "" {
		props[notionPropMemo] = richText(msg.Payload.Memo)
	}

	return props
}

func richText(content string) notionapi.RichTextProperty {
	return notionapi.RichTextProperty{
		RichText: []notionapi.RichText{
			{
				Type: notionapi.ObjectTypeText,
				Text: &notionapi.Text{Content: content},
			},
		},
	}
}
