// Package notion stores expense records as pages of a Notion database.
//
// The database is expected to carry four properties: a title, a date, a
// select holding the category and a number holding the amount. Property
// names are configurable.
package notion

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/jomei/notionapi"

	"catat/internal/core"
	"catat/internal/records"
)

const defaultPageSize = 100

// Properties names the database columns holding each expense field.
type Properties struct {
	Title    string
	Date     string
	Category string
	Amount   string
}

// DefaultProperties matches the column names of a freshly created expense
// database.
func DefaultProperties() Properties {
	return Properties{Title: "Title", Date: "Date", Category: "Category", Amount: "Amount"}
}

type Client struct {
	api        *notionapi.Client
	databaseID notionapi.DatabaseID
	props      Properties
	pageSize   int
}

var _ records.Store = (*Client)(nil)

// New creates a Notion gateway for one database. Extra options are passed
// to the underlying API client (HTTP client, retries).
func New(token, databaseID string, props Properties, opts ...notionapi.ClientOption) (*Client, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, errors.New("missing NOTION_TOKEN")
	}
	databaseID = strings.TrimSpace(databaseID)
	if databaseID == "" {
		return nil, errors.New("missing NOTION_DB_ID")
	}
	def := DefaultProperties()
	if props.Title == "" {
		props.Title = def.Title
	}
	if props.Date == "" {
		props.Date = def.Date
	}
	if props.Category == "" {
		props.Category = def.Category
	}
	if props.Amount == "" {
		props.Amount = def.Amount
	}
	return &Client{
		api:        notionapi.NewClient(notionapi.Token(token), opts...),
		databaseID: notionapi.DatabaseID(databaseID),
		props:      props,
		pageSize:   defaultPageSize,
	}, nil
}

// CreateRecord creates one page in the database. Not retried.
func (c *Client) CreateRecord(ctx context.Context, e core.Expense) (string, error) {
	if err := e.Validate(); err != nil {
		return "", fmt.Errorf("validation failed: %w", err)
	}
	date := notionapi.Date(e.Date.UTC())
	req := &notionapi.PageCreateRequest{
		Parent: notionapi.Parent{
			Type:       notionapi.ParentTypeDatabaseID,
			DatabaseID: c.databaseID,
		},
		Properties: notionapi.Properties{
			c.props.Title: notionapi.TitleProperty{
				Title: []notionapi.RichText{{Text: &notionapi.Text{Content: e.Title}}},
			},
			c.props.Date: notionapi.DateProperty{
				Date: &notionapi.DateObject{Start: &date},
			},
			c.props.Category: notionapi.SelectProperty{
				Select: notionapi.Option{Name: e.Category},
			},
			c.props.Amount: notionapi.NumberProperty{
				Number: float64(e.Amount),
			},
		},
	}
	page, err := c.api.Page.Create(ctx, req)
	if err != nil {
		return "", fmt.Errorf("create page in database %s: %w", c.databaseID, err)
	}
	return string(page.ID), nil
}

// ListCategoryOptions reads the options of the category select from the
// database schema. A missing property or a property of another type yields
// no options.
func (c *Client) ListCategoryOptions(ctx context.Context) ([]string, error) {
	db, err := c.api.Database.Get(ctx, c.databaseID)
	if err != nil {
		return nil, fmt.Errorf("read database %s: %w", c.databaseID, err)
	}
	var options []notionapi.Option
	switch cfg := db.Properties[c.props.Category].(type) {
	case *notionapi.SelectPropertyConfig:
		options = cfg.Select.Options
	case notionapi.SelectPropertyConfig:
		options = cfg.Select.Options
	default:
		slog.WarnContext(ctx, "Category property is not a select, no options available",
			"component", "notion", "property", c.props.Category)
	}
	names := make([]string, 0, len(options))
	for _, o := range options {
		if name := strings.TrimSpace(o.Name); name != "" {
			names = append(names, name)
		}
	}
	return names, nil
}

// QueryByDateRange queries pages with on_or_after start and on_or_before end
// on the date property, following pagination cursors.
func (c *Client) QueryByDateRange(ctx context.Context, r core.DateRange) ([]core.RawRecord, error) {
	start := notionapi.Date(r.Start.UTC())
	end := notionapi.Date(r.End.UTC())
	filter := notionapi.AndCompoundFilter{
		notionapi.PropertyFilter{
			Property: c.props.Date,
			Date:     &notionapi.DateFilterCondition{OnOrAfter: &start},
		},
		notionapi.PropertyFilter{
			Property: c.props.Date,
			Date:     &notionapi.DateFilterCondition{OnOrBefore: &end},
		},
	}

	var (
		out    []core.RawRecord
		cursor notionapi.Cursor
		pages  int
	)
	for {
		resp, err := c.api.Database.Query(ctx, c.databaseID, &notionapi.DatabaseQueryRequest{
			Filter:      filter,
			StartCursor: cursor,
			PageSize:    c.pageSize,
		})
		if err != nil {
			return nil, fmt.Errorf("query database %s: %w", c.databaseID, err)
		}
		pages++
		for _, p := range resp.Results {
			out = append(out, c.decodePage(p))
		}
		if !resp.HasMore || resp.NextCursor == "" {
			break
		}
		cursor = resp.NextCursor
	}
	slog.DebugContext(ctx, "Queried Notion database",
		"component", "notion", "records", len(out), "pages", pages)
	return out, nil
}

// decodePage extracts the four expense fields. Absent or mistyped
// properties stay nil.
func (c *Client) decodePage(p notionapi.Page) core.RawRecord {
	var rec core.RawRecord
	if title, ok := titleText(p.Properties[c.props.Title]); ok {
		rec.Title = &title
	}
	if date, ok := dateStart(p.Properties[c.props.Date]); ok {
		rec.Date = &date
	}
	if cat, ok := selectName(p.Properties[c.props.Category]); ok {
		rec.Category = &cat
	}
	if amount, ok := numberValue(p.Properties[c.props.Amount]); ok {
		rec.Amount = &amount
	}
	return rec
}

func titleText(prop notionapi.Property) (string, bool) {
	var parts []notionapi.RichText
	switch v := prop.(type) {
	case *notionapi.TitleProperty:
		parts = v.Title
	case notionapi.TitleProperty:
		parts = v.Title
	default:
		return "", false
	}
	var b strings.Builder
	for _, rt := range parts {
		switch {
		case rt.PlainText != "":
			b.WriteString(rt.PlainText)
		case rt.Text != nil:
			b.WriteString(rt.Text.Content)
		}
	}
	s := strings.TrimSpace(b.String())
	return s, s != ""
}

func dateStart(prop notionapi.Property) (time.Time, bool) {
	var obj *notionapi.DateObject
	switch v := prop.(type) {
	case *notionapi.DateProperty:
		obj = v.Date
	case notionapi.DateProperty:
		obj = v.Date
	}
	if obj == nil || obj.Start == nil {
		return time.Time{}, false
	}
	return time.Time(*obj.Start).UTC(), true
}

func selectName(prop notionapi.Property) (string, bool) {
	var name string
	switch v := prop.(type) {
	case *notionapi.SelectProperty:
		name = v.Select.Name
	case notionapi.SelectProperty:
		name = v.Select.Name
	}
	name = strings.TrimSpace(name)
	return name, name != ""
}

func numberValue(prop notionapi.Property) (int64, bool) {
	switch v := prop.(type) {
	case *notionapi.NumberProperty:
		return int64(math.Round(v.Number)), true
	case notionapi.NumberProperty:
		return int64(math.Round(v.Number)), true
	}
	return 0, false
}
