package notion

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/dgallion1/notioncms/internal/content"
)

func newTestClient(t *testing.T, h http.Handler, opts ...Option) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	base := []Option{
		WithBaseURL(srv.URL),
		WithRateLimit(0),
		WithBackoff(func(int) time.Duration { return 0 }),
	}
	c, err := NewClient("secret-token", append(base, opts...)...)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return c
}

func TestNewClient_MissingToken(t *testing.T) {
	_, err := NewClient("")
	if !errors.Is(err, ErrMissingToken) {
		t.Fatalf("expected ErrMissingToken, got %v", err)
	}
}

func TestClient_SendsCredentialAndVersion(t *testing.T) {
	var gotAuth, gotVersion string
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotVersion = r.Header.Get("Notion-Version")
		fmt.Fprint(w, `{"id":"db1","data_sources":[{"id":"ds1","name":"FAQ"}]}`)
	}), WithVersion("2025-09-03"))

	if _, err := c.ResolveCollection(context.Background(), "db1"); err != nil {
		t.Fatalf("ResolveCollection: %v", err)
	}
	if gotAuth != "Bearer secret-token" {
		t.Errorf("expected %q, got %q", "Bearer secret-token", gotAuth)
	}
	if gotVersion != "2025-09-03" {
		t.Errorf("expected %q, got %q", "2025-09-03", gotVersion)
	}
}

func TestResolveCollection_Idempotent(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		if r.URL.Path != "/v1/databases/db1" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		fmt.Fprint(w, `{"id":"db1","data_sources":[{"id":"ds1"},{"id":"ds2"}]}`)
	}))

	for i := 0; i < 3; i++ {
		id, err := c.ResolveCollection(context.Background(), "db1")
		if err != nil {
			t.Fatalf("ResolveCollection: %v", err)
		}
		if id != "ds1" {
			t.Errorf("expected %q, got %q", "ds1", id)
		}
	}
	if n := calls.Load(); n != 1 {
		t.Errorf("expected 1 lookup, got %d", n)
	}
}

func TestResolveCollection_ConcurrentSingleLookup(t *testing.T) {
	var calls atomic.Int32
	release := make(chan struct{})
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		<-release
		fmt.Fprint(w, `{"data_sources":[{"id":"ds1"}]}`)
	}))

	const n = 8
	var wg sync.WaitGroup
	ids := make([]string, n)
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			ids[i], errs[i] = c.ResolveCollection(context.Background(), "db1")
		}(i)
	}
	// Give the goroutines time to join the in-flight lookup.
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	for i := 0; i < n; i++ {
		if errs[i] != nil {
			t.Fatalf("goroutine %d: %v", i, errs[i])
		}
		if ids[i] != "ds1" {
			t.Errorf("goroutine %d: expected %q, got %q", i, "ds1", ids[i])
		}
	}
	if got := calls.Load(); got != 1 {
		t.Errorf("expected 1 lookup, got %d", got)
	}
}

func TestResolveCollection_CancelledCallerDoesNotFailOthers(t *testing.T) {
	var calls atomic.Int32
	arrived := make(chan struct{}, 1)
	release := make(chan struct{})
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		arrived <- struct{}{}
		<-release
		fmt.Fprint(w, `{"data_sources":[{"id":"ds1"}]}`)
	}))

	ctxA, cancelA := context.WithCancel(context.Background())
	errA := make(chan error, 1)
	go func() {
		_, err := c.ResolveCollection(ctxA, "db1")
		errA <- err
	}()
	<-arrived

	type result struct {
		id  string
		err error
	}
	resB := make(chan result, 1)
	go func() {
		id, err := c.ResolveCollection(context.Background(), "db1")
		resB <- result{id, err}
	}()
	// Let the second caller join the in-flight lookup.
	time.Sleep(50 * time.Millisecond)

	cancelA()
	if err := <-errA; !errors.Is(err, context.Canceled) {
		t.Errorf("expected cancelled caller to get context.Canceled, got %v", err)
	}
	close(release)

	got := <-resB
	if got.err != nil {
		t.Fatalf("live caller failed: %v", got.err)
	}
	if got.id != "ds1" {
		t.Errorf("expected %q, got %q", "ds1", got.id)
	}
	if n := calls.Load(); n != 1 {
		t.Errorf("expected 1 lookup, got %d", n)
	}
	if id, ok := c.Cache().Get("db1"); !ok || id != "ds1" {
		t.Errorf("expected cached %q, got %q (ok=%v)", "ds1", id, ok)
	}
}

func TestResolveCollection_NoDataSources(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		fmt.Fprint(w, `{"id":"db1","data_sources":[]}`)
	}))

	_, err := c.ResolveCollection(context.Background(), "db1")
	if !errors.Is(err, ErrNoDataSources) {
		t.Fatalf("expected ErrNoDataSources, got %v", err)
	}
	if !strings.Contains(err.Error(), "db1") {
		t.Errorf("expected error to name the database, got %q", err)
	}

	// Failures are not memoized.
	_, _ = c.ResolveCollection(context.Background(), "db1")
	if got := calls.Load(); got != 2 {
		t.Errorf("expected 2 lookups, got %d", got)
	}
	if c.Cache().Len() != 0 {
		t.Errorf("expected empty cache, got %d entries", c.Cache().Len())
	}
}

func TestQueryPages_SendsQueryAndDecodesProperties(t *testing.T) {
	var body map[string]any
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/v1/data_sources/ds1/query" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		raw, _ := io.ReadAll(r.Body)
		if err := json.Unmarshal(raw, &body); err != nil {
			t.Errorf("decode body: %v", err)
		}
		fmt.Fprint(w, `{
			"results": [{
				"id": "p1",
				"url": "https://notion.so/p1",
				"created_time": "2025-01-01T00:00:00.000Z",
				"last_edited_time": "2025-01-02T00:00:00.000Z",
				"properties": {
					"Title": {"type": "title", "title": [{"type":"text","plain_text":"Hello ","annotations":{}}, {"type":"text","plain_text":"world","annotations":{"bold":true}}]},
					"Title_ES": {"type": "rich_text", "rich_text": [{"type":"text","plain_text":"Hola","annotations":{}}]},
					"RegistrationType": {"type": "select", "select": {"name": "WhatsApp"}},
					"Empty": {"type": "select", "select": null},
					"Capacity": {"type": "number", "number": 40},
					"Date": {"type": "date", "date": {"start": "2025-03-01", "end": null}},
					"Link": {"type": "url", "url": "https://forms.test"},
					"Image": {"type": "files", "files": [{"type":"external","name":"x","external":{"url":"https://cdn.test/x.png"}}]},
					"Published": {"type": "checkbox", "checkbox": true},
					"Owner": {"type": "people", "people": []}
				}
			}],
			"has_more": true,
			"next_cursor": "c2"
		}`)
	}))

	q := Query{
		Filter:   &Filter{And: []Filter{CheckboxEquals("Published", true), RichTextEquals("Slug", "hello")}},
		Sorts:    []Sort{{Property: "PublishedAt", Direction: Descending}},
		PageSize: 500,
	}
	res, err := c.QueryResult(context.Background(), "ds1", q)
	if err != nil {
		t.Fatalf("QueryResult: %v", err)
	}

	if got := body["page_size"]; got != float64(MaxPageSize) {
		t.Errorf("expected page_size %d, got %v", MaxPageSize, got)
	}
	filter, _ := body["filter"].(map[string]any)
	and, _ := filter["and"].([]any)
	if len(and) != 2 {
		t.Fatalf("expected 2 filter clauses, got %v", filter)
	}
	first, _ := and[0].(map[string]any)
	if first["property"] != "Published" {
		t.Errorf("expected first clause on Published, got %v", first)
	}

	if !res.HasMore || res.NextCursor != "c2" {
		t.Errorf("expected has_more with cursor c2, got %v %q", res.HasMore, res.NextCursor)
	}
	if len(res.Pages) != 1 {
		t.Fatalf("expected 1 page, got %d", len(res.Pages))
	}
	p := res.Pages[0]
	if p.ID != "p1" || p.URL != "https://notion.so/p1" {
		t.Errorf("unexpected page header %+v", p)
	}
	props := p.Properties
	if got := props.Title("Title"); got != "Hello world" {
		t.Errorf("expected %q, got %q", "Hello world", got)
	}
	if got := content.Localized(props, "Title", "es"); got != "Hola" {
		t.Errorf("expected %q, got %q", "Hola", got)
	}
	if v, ok := props.Select("RegistrationType"); !ok || v != "WhatsApp" {
		t.Errorf("expected WhatsApp, got %q (%v)", v, ok)
	}
	if _, ok := props.Select("Empty"); ok {
		t.Error("expected null select to be absent")
	}
	if v, ok := props.Number("Capacity"); !ok || v != 40 {
		t.Errorf("expected 40, got %v (%v)", v, ok)
	}
	if v, ok := props.Date("Date"); !ok || v != "2025-03-01" {
		t.Errorf("expected 2025-03-01, got %q (%v)", v, ok)
	}
	if v, ok := props.URL("Link"); !ok || v != "https://forms.test" {
		t.Errorf("expected url, got %q (%v)", v, ok)
	}
	if v, ok := props.FileURL("Image"); !ok || v != "https://cdn.test/x.png" {
		t.Errorf("expected file url, got %q (%v)", v, ok)
	}
	if !props.Checkbox("Published") {
		t.Error("expected Published to be checked")
	}
	if k := props["Owner"].Kind(); k != "people" {
		t.Errorf("expected unsupported kind %q, got %q", "people", k)
	}
}

func blockPage(ids []string, more bool, cursor string) string {
	results := make([]string, len(ids))
	for i, id := range ids {
		results[i] = fmt.Sprintf(`{"id":%q,"type":"paragraph","has_children":false,"paragraph":{"rich_text":[{"type":"text","plain_text":%q,"annotations":{}}]}}`, id, "text "+id)
	}
	next := "null"
	if cursor != "" {
		next = fmt.Sprintf("%q", cursor)
	}
	return fmt.Sprintf(`{"results":[%s],"has_more":%v,"next_cursor":%s}`, strings.Join(results, ","), more, next)
}

func TestFetchBlocks_FollowsCursors(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		if r.URL.Path != "/v1/blocks/page1/children" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		if got := r.URL.Query().Get("page_size"); got != "100" {
			t.Errorf("expected page_size 100, got %q", got)
		}
		switch r.URL.Query().Get("start_cursor") {
		case "":
			fmt.Fprint(w, blockPage([]string{"a", "b"}, true, "c1"))
		case "c1":
			fmt.Fprint(w, blockPage([]string{"c"}, true, "c2"))
		case "c2":
			fmt.Fprint(w, blockPage([]string{"d", "e"}, false, ""))
		default:
			t.Errorf("unexpected cursor %q", r.URL.Query().Get("start_cursor"))
		}
	}))

	blocks, err := c.FetchBlocks(context.Background(), "page1")
	if err != nil {
		t.Fatalf("FetchBlocks: %v", err)
	}
	want := []string{"a", "b", "c", "d", "e"}
	if len(blocks) != len(want) {
		t.Fatalf("expected %d blocks, got %d", len(want), len(blocks))
	}
	for i, id := range want {
		if blocks[i].ID != id {
			t.Errorf("block %d: expected %q, got %q", i, id, blocks[i].ID)
		}
	}
	if got := content.PlainText(blocks[2].RichText); got != "text c" {
		t.Errorf("expected %q, got %q", "text c", got)
	}
	if n := calls.Load(); n != 3 {
		t.Errorf("expected 3 requests, got %d", n)
	}
}

func TestFetchBlocks_CursorLoop(t *testing.T) {
	tests := []struct {
		name   string
		cursor string
	}{
		{"repeated cursor", "same"},
		{"empty cursor", ""},
	}
	for _, tt := range tests {
		var calls atomic.Int32
		c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if calls.Add(1) > 5 {
				t.Errorf("%s: loop did not terminate", tt.name)
				fmt.Fprint(w, blockPage(nil, false, ""))
				return
			}
			fmt.Fprint(w, blockPage([]string{"x"}, true, tt.cursor))
		}))

		_, err := c.FetchBlocks(context.Background(), "page1")
		if !errors.Is(err, ErrCursorLoop) {
			t.Errorf("%s: expected ErrCursorLoop, got %v", tt.name, err)
		}
	}
}

func TestFetchBlocks_DecodesPayloads(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"results":[
			{"id":"1","type":"callout","callout":{"rich_text":[{"plain_text":"Note","annotations":{}}],"icon":{"type":"emoji","emoji":"⚠️"}}},
			{"id":"2","type":"code","code":{"rich_text":[{"plain_text":"fmt.Println()","annotations":{}}],"language":"go"}},
			{"id":"3","type":"image","image":{"type":"file","file":{"url":"https://s3.test/i.png","expiry_time":"2025-01-01T00:00:00Z"},"caption":[{"plain_text":"Cap","annotations":{}}]}},
			{"id":"4","type":"divider","divider":{}},
			{"id":"5","type":"toggle","toggle":{"rich_text":[]},"has_children":true},
			{"id":"6","type":"paragraph","paragraph":{"rich_text":[{"plain_text":"go","href":"https://go.dev","annotations":{"italic":true}}]}}
		],"has_more":false,"next_cursor":null}`)
	}))

	blocks, err := c.FetchBlocks(context.Background(), "page1")
	if err != nil {
		t.Fatalf("FetchBlocks: %v", err)
	}
	if len(blocks) != 6 {
		t.Fatalf("expected 6 blocks, got %d", len(blocks))
	}
	if blocks[0].Icon != "⚠️" {
		t.Errorf("expected callout icon, got %q", blocks[0].Icon)
	}
	if blocks[1].Language != "go" {
		t.Errorf("expected language go, got %q", blocks[1].Language)
	}
	img := blocks[2].Image
	if img == nil || img.URL != "https://s3.test/i.png" || img.External {
		t.Fatalf("unexpected image %+v", img)
	}
	if content.PlainText(img.Caption) != "Cap" {
		t.Errorf("expected caption %q, got %q", "Cap", content.PlainText(img.Caption))
	}
	if blocks[4].Type != "toggle" || !blocks[4].HasChildren {
		t.Errorf("expected unsupported toggle preserved, got %+v", blocks[4])
	}
	span := blocks[5].RichText[0]
	if span.Href != "https://go.dev" || !span.Annotations.Italic {
		t.Errorf("unexpected span %+v", span)
	}
}

func TestClient_RetriesTransientFailures(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch calls.Add(1) {
		case 1:
			w.Header().Set("Retry-After", "0")
			w.WriteHeader(http.StatusTooManyRequests)
			fmt.Fprint(w, `{"object":"error","status":429,"code":"rate_limited","message":"slow down"}`)
		case 2:
			w.WriteHeader(http.StatusBadGateway)
		default:
			fmt.Fprint(w, `{"data_sources":[{"id":"ds1"}]}`)
		}
	}))

	id, err := c.ResolveCollection(context.Background(), "db1")
	if err != nil {
		t.Fatalf("ResolveCollection: %v", err)
	}
	if id != "ds1" {
		t.Errorf("expected %q, got %q", "ds1", id)
	}
	if n := calls.Load(); n != 3 {
		t.Errorf("expected 3 attempts, got %d", n)
	}
	snap := c.Stats().Snapshot()
	if snap.Count != 3 || snap.Errors != 2 || snap.Retries != 2 {
		t.Errorf("unexpected stats %+v", snap)
	}
}

func TestClient_GivesUpAfterMaxRetries(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}), WithMaxRetries(2))

	_, err := c.QueryPages(context.Background(), "ds1", Query{})
	if !IsRetryable(err) {
		t.Fatalf("expected retryable error, got %v", err)
	}
	if n := calls.Load(); n != 3 {
		t.Errorf("expected 3 attempts, got %d", n)
	}
}

func TestClient_APIError(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprint(w, `{"object":"error","status":404,"code":"object_not_found","message":"Could not find block"}`)
	}))

	_, err := c.FetchBlocks(context.Background(), "missing")
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *APIError, got %v", err)
	}
	if apiErr.Code != "object_not_found" || apiErr.Status != http.StatusNotFound {
		t.Errorf("unexpected api error %+v", apiErr)
	}
	if !IsNotFound(err) {
		t.Error("expected IsNotFound to be true")
	}
	if IsRetryable(err) {
		t.Error("expected 404 not to be retryable")
	}
}

func TestParseRetryAfter(t *testing.T) {
	tests := []struct {
		in   string
		want time.Duration
	}{
		{"", 0},
		{"0", 0},
		{"2", 2 * time.Second},
		{"soon", 0},
	}
	for _, tt := range tests {
		if got := parseRetryAfter(tt.in); got != tt.want {
			t.Errorf("parseRetryAfter(%q): expected %v, got %v", tt.in, tt.want, got)
		}
	}
}

func TestDateOnOrAfter(t *testing.T) {
	now := time.Date(2025, 3, 1, 18, 30, 0, 0, time.FixedZone("CET", 3600))
	f := DateOnOrAfter("Date", now)
	raw, err := json.Marshal(f)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	want := `{"property":"Date","date":{"on_or_after":"2025-03-01T17:30:00Z"}}`
	if string(raw) != want {
		t.Errorf("expected %s, got %s", want, raw)
	}
	if got := And(f); got.Property != "Date" {
		t.Errorf("expected single filter passthrough, got %+v", got)
	}
}

type recordingTracer struct {
	noop.Tracer
	mu    sync.Mutex
	names []string
}

func (r *recordingTracer) Start(ctx context.Context, name string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
	r.mu.Lock()
	r.names = append(r.names, name)
	r.mu.Unlock()
	return r.Tracer.Start(ctx, name, opts...)
}

func TestClient_SpanPerCall(t *testing.T) {
	tr := &recordingTracer{}
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v1/databases/db1":
			fmt.Fprint(w, `{"data_sources":[{"id":"ds1"}]}`)
		default:
			fmt.Fprint(w, `{"results":[],"has_more":false,"next_cursor":null}`)
		}
	}), WithTracer(tr))

	if _, err := c.ResolveCollection(context.Background(), "db1"); err != nil {
		t.Fatalf("ResolveCollection: %v", err)
	}
	if _, err := c.QueryPages(context.Background(), "ds1", Query{}); err != nil {
		t.Fatalf("QueryPages: %v", err)
	}

	want := []string{"notion.databases.retrieve", "notion.data_sources.query"}
	if len(tr.names) != len(want) {
		t.Fatalf("expected spans %v, got %v", want, tr.names)
	}
	for i := range want {
		if tr.names[i] != want[i] {
			t.Errorf("span %d: expected %q, got %q", i, want[i], tr.names[i])
		}
	}
}

func TestRetrievePage(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || r.URL.Path != "/v1/pages/p1" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		fmt.Fprint(w, `{"id":"p1","properties":{"Name":{"type":"title","title":[{"plain_text":"Launch notes"}]}}}`)
	}))

	page, err := c.RetrievePage(context.Background(), "p1")
	if err != nil {
		t.Fatalf("RetrievePage: %v", err)
	}
	if page.ID != "p1" {
		t.Errorf("expected %q, got %q", "p1", page.ID)
	}
	if got := page.Properties.PageTitle(); got != "Launch notes" {
		t.Errorf("expected %q, got %q", "Launch notes", got)
	}
}
