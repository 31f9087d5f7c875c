package notion

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jomei/notionapi"

	"catat/internal/core"
)

// rewriteTransport sends every API call to the test server.
type rewriteTransport struct{ target *url.URL }

func (t rewriteTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	req.URL.Scheme = t.target.Scheme
	req.URL.Host = t.target.Host
	return http.DefaultTransport.RoundTrip(req)
}

type recordedRequest struct {
	method string
	path   string
	body   map[string]any
}

type fakeNotion struct {
	mu       sync.Mutex
	requests []recordedRequest
	handler  func(w http.ResponseWriter, r *http.Request, n int)
}

func newTestClient(t *testing.T, f *fakeNotion) *Client {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		var body map[string]any
		_ = json.Unmarshal(raw, &body)
		f.mu.Lock()
		f.requests = append(f.requests, recordedRequest{method: r.Method, path: r.URL.Path, body: body})
		n := len(f.requests)
		f.mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		f.handler(w, r, n)
	}))
	t.Cleanup(srv.Close)

	target, _ := url.Parse(srv.URL)
	httpClient := &http.Client{Transport: rewriteTransport{target: target}, Timeout: 5 * time.Second}
	c, err := New("secret", "db1", Properties{}, notionapi.WithHTTPClient(httpClient))
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return c
}

func TestNewRequiresCredentials(t *testing.T) {
	if _, err := New("", "db1", Properties{}); err == nil || err.Error() != "missing NOTION_TOKEN" {
		t.Fatalf("expected missing token error, got %v", err)
	}
	if _, err := New("tok", " ", Properties{}); err == nil || err.Error() != "missing NOTION_DB_ID" {
		t.Fatalf("expected missing database error, got %v", err)
	}
	c, err := New("tok", "db1", Properties{Amount: "Jumlah"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.props.Amount != "Jumlah" || c.props.Title != "Title" {
		t.Fatalf("unexpected property names: %+v", c.props)
	}
}

func TestCreateRecordWritesFourProperties(t *testing.T) {
	f := &fakeNotion{handler: func(w http.ResponseWriter, r *http.Request, _ int) {
		io.WriteString(w, `{"object":"page","id":"page-1","properties":{}}`)
	}}
	c := newTestClient(t, f)

	ref, err := c.CreateRecord(context.Background(), core.Expense{
		Title:    "Coffee",
		Date:     time.Date(2025, 5, 3, 12, 0, 0, 0, time.UTC),
		Category: "Food",
		Amount:   20000,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if ref != "page-1" {
		t.Fatalf("ref = %q", ref)
	}
	if len(f.requests) != 1 {
		t.Fatalf("expected one request, got %d", len(f.requests))
	}
	req := f.requests[0]
	if req.method != http.MethodPost || !strings.HasSuffix(req.path, "/pages") {
		t.Fatalf("unexpected request %s %s", req.method, req.path)
	}
	parent, _ := req.body["parent"].(map[string]any)
	if parent["database_id"] != "db1" {
		t.Fatalf("unexpected parent: %v", parent)
	}
	props, _ := req.body["properties"].(map[string]any)
	for _, name := range []string{"Title", "Date", "Category", "Amount"} {
		if _, ok := props[name]; !ok {
			t.Fatalf("missing property %s in %v", name, props)
		}
	}
	amount, _ := props["Amount"].(map[string]any)
	if amount["number"] != float64(20000) {
		t.Fatalf("unexpected amount: %v", amount)
	}
	sel, _ := props["Category"].(map[string]any)["select"].(map[string]any)
	if sel["name"] != "Food" {
		t.Fatalf("unexpected select: %v", sel)
	}
}

func TestCreateRecordPropagatesFailure(t *testing.T) {
	f := &fakeNotion{handler: func(w http.ResponseWriter, r *http.Request, _ int) {
		w.WriteHeader(http.StatusBadRequest)
		io.WriteString(w, `{"object":"error","status":400,"code":"validation_error","message":"Category is not a property"}`)
	}}
	c := newTestClient(t, f)
	_, err := c.CreateRecord(context.Background(), core.Expense{
		Title: "Coffee", Date: time.Now(), Category: "Food", Amount: 1,
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if len(f.requests) != 1 {
		t.Fatalf("create must not retry, got %d requests", len(f.requests))
	}
}

func TestListCategoryOptions(t *testing.T) {
	f := &fakeNotion{handler: func(w http.ResponseWriter, r *http.Request, _ int) {
		io.WriteString(w, `{"object":"database","id":"db1","properties":{
			"Category":{"id":"c","name":"Category","type":"select","select":{"options":[
				{"id":"1","name":"Food","color":"red"},{"id":"2","name":"Transport","color":"blue"}]}}}}`)
	}}
	c := newTestClient(t, f)
	opts, err := c.ListCategoryOptions(context.Background())
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(opts) != 2 || opts[0] != "Food" || opts[1] != "Transport" {
		t.Fatalf("unexpected options: %v", opts)
	}
	if f.requests[0].method != http.MethodGet || !strings.HasSuffix(f.requests[0].path, "/databases/db1") {
		t.Fatalf("unexpected request %+v", f.requests[0])
	}
}

func TestListCategoryOptionsMissingProperty(t *testing.T) {
	f := &fakeNotion{handler: func(w http.ResponseWriter, r *http.Request, _ int) {
		io.WriteString(w, `{"object":"database","id":"db1","properties":{
			"Amount":{"id":"a","name":"Amount","type":"number","number":{"format":"number"}}}}`)
	}}
	c := newTestClient(t, f)
	opts, err := c.ListCategoryOptions(context.Background())
	if err != nil {
		t.Fatalf("shape mismatch must not error: %v", err)
	}
	if len(opts) != 0 {
		t.Fatalf("expected no options, got %v", opts)
	}
}

func TestQueryByDateRangeFollowsCursor(t *testing.T) {
	const first = `{"object":"list","has_more":true,"next_cursor":"cur-2","results":[
		{"object":"page","id":"p1","properties":{
			"Title":{"id":"title","type":"title","title":[{"type":"text","text":{"content":"Coffee"},"plain_text":"Coffee"}]},
			"Date":{"id":"d","type":"date","date":{"start":"2025-05-03T12:00:00.000Z"}},
			"Category":{"id":"c","type":"select","select":{"id":"o1","name":"Food","color":"red"}},
			"Amount":{"id":"a","type":"number","number":20000}}}]}`
	const second = `{"object":"list","has_more":false,"next_cursor":null,"results":[
		{"object":"page","id":"p2","properties":{
			"Title":{"id":"title","type":"title","title":[]},
			"Amount":{"id":"a","type":"number","number":1500}}}]}`
	f := &fakeNotion{handler: func(w http.ResponseWriter, r *http.Request, n int) {
		if n == 1 {
			io.WriteString(w, first)
			return
		}
		io.WriteString(w, second)
	}}
	c := newTestClient(t, f)

	now := time.Date(2025, 5, 14, 0, 0, 0, 0, time.UTC)
	recs, err := c.QueryByDateRange(context.Background(), core.MonthRange(now))
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(recs) != 2 || len(f.requests) != 2 {
		t.Fatalf("expected 2 records over 2 requests, got %d over %d", len(recs), len(f.requests))
	}
	if f.requests[1].body["start_cursor"] != "cur-2" {
		t.Fatalf("second request should carry the cursor: %v", f.requests[1].body)
	}
	filter, _ := f.requests[0].body["filter"].(map[string]any)
	if and, _ := filter["and"].([]any); len(and) != 2 {
		t.Fatalf("expected two date conditions, got %v", filter)
	}

	got := recs[0].Normalize()
	if got.Title != "Coffee" || got.Category != "Food" || got.Amount != 20000 {
		t.Fatalf("unexpected first record: %+v", got)
	}
	if !got.Date.Equal(time.Date(2025, 5, 3, 12, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected date: %v", got.Date)
	}
	partial := recs[1]
	if partial.Title != nil || partial.Category != nil || partial.Date != nil {
		t.Fatalf("absent fields should stay nil: %+v", partial)
	}
	if partial.Amount == nil || *partial.Amount != 1500 {
		t.Fatalf("unexpected amount: %v", partial.Amount)
	}
}
