package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/dgallion1/notioncms/internal/config"
	"github.com/dgallion1/notioncms/internal/content"
	"github.com/dgallion1/notioncms/internal/doctree"
	"github.com/dgallion1/notioncms/internal/entity"
	"github.com/dgallion1/notioncms/internal/notion"
)

const pageID = "1f2e3d4c-5b6a-4978-8877-665544332211"

type fakeContent struct {
	locales []content.Locale
	limit   int
	err     error
	posts   map[string]*entity.BlogPost
}

func (f *fakeContent) FAQs(_ context.Context, locale content.Locale) ([]entity.FAQ, error) {
	f.locales = append(f.locales, locale)
	if f.err != nil {
		return nil, f.err
	}
	return []entity.FAQ{{ID: "f1", Question: "Why?", Answer: "Because.", Category: "general"}}, nil
}

func (f *fakeContent) TeamMembers(_ context.Context, locale content.Locale) ([]entity.TeamMember, error) {
	f.locales = append(f.locales, locale)
	return []entity.TeamMember{{ID: "t1", Name: "Ana"}}, f.err
}

func (f *fakeContent) UpcomingEvents(_ context.Context, locale content.Locale) ([]entity.Event, error) {
	f.locales = append(f.locales, locale)
	return []entity.Event{}, f.err
}

func (f *fakeContent) Posts(_ context.Context, locale content.Locale, limit int) ([]entity.BlogPost, error) {
	f.locales = append(f.locales, locale)
	f.limit = limit
	return []entity.BlogPost{}, f.err
}

func (f *fakeContent) PostBySlug(_ context.Context, slug string, locale content.Locale) (*entity.BlogPost, error) {
	f.locales = append(f.locales, locale)
	if f.err != nil {
		return nil, f.err
	}
	return f.posts[slug], nil
}

func (f *fakeContent) PageDocument(_ context.Context, id string) (doctree.Document, error) {
	if f.err != nil {
		return doctree.Document{}, f.err
	}
	doc := doctree.Normalize([]content.Block{
		{ID: "1", Type: content.BlockHeading1, RichText: []content.Span{{Text: "Hello"}}},
		{ID: "2", Type: content.BlockBulletedListItem, RichText: []content.Span{{Text: "a"}}},
		{ID: "3", Type: content.BlockBulletedListItem, RichText: []content.Span{{Text: "b"}}},
	})
	doc.Title = "Page " + id
	return doc, nil
}

func newTestServer(t *testing.T, svc ContentService, apiKey string) *Server {
	t.Helper()
	log := slog.New(slog.NewJSONHandler(io.Discard, nil))
	cfg := config.Config{APIKey: apiKey, MaxUploadBytes: 1 << 20, NotionAPIURL: "https://api.notion.com"}
	return NewServer(svc, notion.NewStats(time.Hour), log, cfg)
}

func get(t *testing.T, srv http.Handler, path string, header ...string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	rec := get(t, newTestServer(t, &fakeContent{}, "secret"), "/health")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if got := strings.TrimSpace(rec.Body.String()); got != `{"status":"ok"}` {
		t.Errorf("unexpected body %q", got)
	}
}

func TestAuth(t *testing.T) {
	srv := newTestServer(t, &fakeContent{}, "secret")

	tests := []struct {
		name   string
		header []string
		want   int
	}{
		{"missing", nil, http.StatusUnauthorized},
		{"wrong key", []string{"Authorization", "Bearer nope"}, http.StatusUnauthorized},
		{"valid", []string{"Authorization", "Bearer secret"}, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := get(t, srv, "/api/en/faqs", tt.header...)
			if rec.Code != tt.want {
				t.Errorf("expected %d, got %d", tt.want, rec.Code)
			}
		})
	}

	if rec := get(t, newTestServer(t, &fakeContent{}, ""), "/api/en/faqs"); rec.Code != http.StatusOK {
		t.Errorf("expected open access without a key, got %d", rec.Code)
	}
}

func TestFAQs_PassesLocale(t *testing.T) {
	svc := &fakeContent{}
	rec := get(t, newTestServer(t, svc, ""), "/api/ES/faqs")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if len(svc.locales) != 1 || svc.locales[0] != "es" {
		t.Errorf("expected locale es, got %v", svc.locales)
	}
	var body struct {
		FAQs []entity.FAQ `json:"faqs"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(body.FAQs) != 1 || body.FAQs[0].Question != "Why?" {
		t.Errorf("unexpected faqs %+v", body.FAQs)
	}
}

func TestInvalidLocale(t *testing.T) {
	rec := get(t, newTestServer(t, &fakeContent{}, ""), "/api/not_a_locale!!/faqs")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}

func TestPosts_Limit(t *testing.T) {
	svc := &fakeContent{}
	srv := newTestServer(t, svc, "")

	if rec := get(t, srv, "/api/en/posts"); rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if svc.limit != defaultPostLimit {
		t.Errorf("expected default limit %d, got %d", defaultPostLimit, svc.limit)
	}
	if rec := get(t, srv, "/api/en/posts?limit=3"); rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if svc.limit != 3 {
		t.Errorf("expected limit 3, got %d", svc.limit)
	}
	for _, bad := range []string{"0", "-1", "x"} {
		if rec := get(t, srv, "/api/en/posts?limit="+bad); rec.Code != http.StatusBadRequest {
			t.Errorf("limit=%s: expected 400, got %d", bad, rec.Code)
		}
	}
}

func TestPostBySlug(t *testing.T) {
	svc := &fakeContent{posts: map[string]*entity.BlogPost{
		"hello": {ID: "p1", Slug: "hello", Title: "Hello"},
	}}
	srv := newTestServer(t, svc, "")

	rec := get(t, srv, "/api/en/posts/hello")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var post entity.BlogPost
	if err := json.NewDecoder(rec.Body).Decode(&post); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if post.Title != "Hello" {
		t.Errorf("expected title %q, got %q", "Hello", post.Title)
	}

	if rec := get(t, srv, "/api/en/posts/missing"); rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}
}

func TestUpstreamErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"not found", fmt.Errorf("query: %w", &notion.APIError{Status: http.StatusNotFound}), http.StatusNotFound},
		{"no data sources", fmt.Errorf("resolve: %w", notion.ErrNoDataSources), http.StatusBadGateway},
		{"other", fmt.Errorf("boom"), http.StatusBadGateway},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := get(t, newTestServer(t, &fakeContent{err: tt.err}, ""), "/api/en/faqs")
			if rec.Code != tt.want {
				t.Errorf("expected %d, got %d", tt.want, rec.Code)
			}
			var body map[string]string
			if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
				t.Fatalf("decode error body: %v", err)
			}
			if body["error"] == "" {
				t.Error("expected error message in body")
			}
		})
	}
}

func TestPageRoutes(t *testing.T) {
	srv := newTestServer(t, &fakeContent{}, "")

	if rec := get(t, srv, "/api/pages/not-a-uuid/document"); rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for invalid id, got %d", rec.Code)
	}

	rec := get(t, srv, "/api/pages/"+pageID+"/document")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var doc doctree.Document
	if err := json.NewDecoder(rec.Body).Decode(&doc); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(doc.Nodes) != 2 || doc.Nodes[1].Kind != doctree.KindBulletedList {
		t.Errorf("unexpected document %+v", doc)
	}

	// Dashless ids are accepted too.
	rec = get(t, srv, "/api/pages/"+strings.ReplaceAll(pageID, "-", "")+"/html")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Errorf("expected html content type, got %q", ct)
	}
	d, err := goquery.NewDocumentFromReader(rec.Body)
	if err != nil {
		t.Fatalf("parse html: %v", err)
	}
	if got := d.Find("article h1").Text(); got != "Hello" {
		t.Errorf("expected heading %q, got %q", "Hello", got)
	}
	if n := d.Find("article ul li").Length(); n != 2 {
		t.Errorf("expected 2 list items, got %d", n)
	}

	rec = get(t, srv, "/api/pages/"+pageID+"/docx")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != docxContentType {
		t.Errorf("expected docx content type, got %q", ct)
	}
	if !bytes.HasPrefix(rec.Body.Bytes(), []byte("PK")) {
		t.Error("expected a zip container")
	}
}

func TestPreview(t *testing.T) {
	srv := newTestServer(t, &fakeContent{}, "")

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("file", "notes.md")
	if err != nil {
		t.Fatal(err)
	}
	fw.Write([]byte("---\ntitle: Notes\n---\n\n# Heading\n\n- one\n- two\n"))
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/preview?format=json", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var doc doctree.Document
	if err := json.NewDecoder(rec.Body).Decode(&doc); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if doc.Title != "Notes" {
		t.Errorf("expected title %q, got %q", "Notes", doc.Title)
	}
	if len(doc.Nodes) != 2 {
		t.Errorf("expected heading and list, got %+v", doc.Nodes)
	}
}

func TestPreview_UnsupportedType(t *testing.T) {
	srv := newTestServer(t, &fakeContent{}, "")

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, _ := mw.CreateFormFile("file", "data.csv")
	fw.Write([]byte("a,b\n"))
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/preview", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}

func TestNotionStats(t *testing.T) {
	rec := get(t, newTestServer(t, &fakeContent{}, ""), "/api/stats/notion")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var body struct {
		Stats notion.StatsSnapshot `json:"stats"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Stats.Count != 0 {
		t.Errorf("expected empty stats, got %+v", body.Stats)
	}
}
