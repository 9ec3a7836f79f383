package entity

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/dgallion1/notioncms/internal/content"
	"github.com/dgallion1/notioncms/internal/doctree"
	"github.com/dgallion1/notioncms/internal/notion"
)

// Store is the remote content source. *notion.Client implements it.
type Store interface {
	ResolveCollection(ctx context.Context, databaseID string) (string, error)
	QueryPages(ctx context.Context, dataSourceID string, q notion.Query) ([]content.Page, error)
	RetrievePage(ctx context.Context, pageID string) (content.Page, error)
	FetchBlocks(ctx context.Context, pageID string) ([]content.Block, error)
}

// Collection is a logical collection name.
type Collection string

const (
	CollectionFAQs   Collection = "faqs"
	CollectionTeam   Collection = "team"
	CollectionEvents Collection = "events"
	CollectionBlog   Collection = "blog"
)

// Collections maps logical collections to database ids. Missing or empty
// entries are treated as empty collections.
type Collections map[Collection]string

// NewCollections converts a name to id map, such as one loaded from
// configuration. Unknown names are kept and simply never queried.
func NewCollections(m map[string]string) Collections {
	c := make(Collections, len(m))
	for name, id := range m {
		c[Collection(name)] = id
	}
	return c
}

// Service lists entities from a Store.
type Service struct {
	store       Store
	collections Collections
	log         *slog.Logger
	now         func() time.Time
}

func NewService(store Store, collections Collections, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{
		store:       store,
		collections: collections,
		log:         log,
		now:         time.Now,
	}
}

// query resolves a collection and runs q against it. An unconfigured
// collection yields no pages and no error.
func (s *Service) query(ctx context.Context, c Collection, q notion.Query) ([]content.Page, error) {
	databaseID := s.collections[c]
	if databaseID == "" {
		s.log.Warn("collection not configured", "collection", c)
		return nil, nil
	}
	dataSourceID, err := s.store.ResolveCollection(ctx, databaseID)
	if err != nil {
		return nil, fmt.Errorf("resolve %s collection: %w", c, err)
	}
	pages, err := s.store.QueryPages(ctx, dataSourceID, q)
	if err != nil {
		return nil, fmt.Errorf("query %s collection: %w", c, err)
	}
	return pages, nil
}

// keyed pairs a mapped entity with its sort key read from the page.
type keyed[T any] struct {
	v   T
	key float64
	ok  bool
}

// byOrder sorts ascending by key, stable, with keyless items last.
func byOrder[T any](items []keyed[T]) []T {
	slices.SortStableFunc(items, func(a, b keyed[T]) int {
		switch {
		case a.ok && !b.ok:
			return -1
		case !a.ok && b.ok:
			return 1
		case !a.ok && !b.ok:
			return 0
		}
		return cmp.Compare(a.key, b.key)
	})
	out := make([]T, len(items))
	for i, it := range items {
		out[i] = it.v
	}
	return out
}

var orderSort = []notion.Sort{{Property: "Order", Direction: notion.Ascending}}

// FAQs returns all FAQs sorted by Order.
func (s *Service) FAQs(ctx context.Context, locale content.Locale) ([]FAQ, error) {
	pages, err := s.query(ctx, CollectionFAQs, notion.Query{Sorts: orderSort})
	if err != nil {
		return nil, err
	}
	items := make([]keyed[FAQ], len(pages))
	for i, p := range pages {
		order, ok := p.Properties.Number(faqFields.Order.Name)
		items[i] = keyed[FAQ]{v: MapFAQ(p, locale), key: order, ok: ok}
	}
	return byOrder(items), nil
}

// TeamMembers returns all team members sorted by Order.
func (s *Service) TeamMembers(ctx context.Context, locale content.Locale) ([]TeamMember, error) {
	pages, err := s.query(ctx, CollectionTeam, notion.Query{Sorts: orderSort})
	if err != nil {
		return nil, err
	}
	items := make([]keyed[TeamMember], len(pages))
	for i, p := range pages {
		order, ok := p.Properties.Number(teamFields.Order.Name)
		items[i] = keyed[TeamMember]{v: MapTeamMember(p, locale), key: order, ok: ok}
	}
	return byOrder(items), nil
}

// UpcomingEvents returns events dated now or later, soonest first.
func (s *Service) UpcomingEvents(ctx context.Context, locale content.Locale) ([]Event, error) {
	now := s.now()
	pages, err := s.query(ctx, CollectionEvents, notion.Query{
		Filter: ptr(notion.DateOnOrAfter(eventFields.Date.Name, now)),
		Sorts:  []notion.Sort{{Property: eventFields.Date.Name, Direction: notion.Ascending}},
	})
	if err != nil {
		return nil, err
	}

	events := make([]Event, 0, len(pages))
	for _, p := range pages {
		raw, _ := p.Properties.Date(eventFields.Date.Name)
		if !upcoming(raw, now) {
			continue
		}
		events = append(events, MapEvent(p, locale))
	}
	slices.SortStableFunc(events, func(a, b Event) int { return a.Date.Compare(b.Date) })
	return events, nil
}

// upcoming reports whether a raw date is at or after now. Date-only values
// count for the whole day.
func upcoming(raw string, now time.Time) bool {
	t := content.ParseDate(raw)
	if t.IsZero() {
		return false
	}
	if len(raw) == len(time.DateOnly) {
		y, m, d := now.UTC().Date()
		return !t.Before(time.Date(y, m, d, 0, 0, 0, 0, time.UTC))
	}
	return !t.Before(now)
}

// Posts returns published posts, newest first. limit <= 0 means the
// upstream default page size.
func (s *Service) Posts(ctx context.Context, locale content.Locale, limit int) ([]BlogPost, error) {
	q := notion.Query{
		Filter: ptr(notion.CheckboxEquals(postFields.Published.Name, true)),
		Sorts:  []notion.Sort{{Property: postFields.PublishedAt.Name, Direction: notion.Descending}},
	}
	if limit > 0 {
		q.PageSize = limit
	}
	pages, err := s.query(ctx, CollectionBlog, q)
	if err != nil {
		return nil, err
	}

	posts := make([]BlogPost, 0, len(pages))
	for _, p := range pages {
		if !p.Properties.Checkbox(postFields.Published.Name) {
			continue
		}
		posts = append(posts, MapBlogPost(p, locale))
	}
	slices.SortStableFunc(posts, func(a, b BlogPost) int { return b.PublishedAt.Compare(a.PublishedAt) })
	if limit > 0 && len(posts) > limit {
		posts = posts[:limit]
	}
	return posts, nil
}

// PostBySlug returns the published post with the given slug, or nil when
// there is none.
func (s *Service) PostBySlug(ctx context.Context, slug string, locale content.Locale) (*BlogPost, error) {
	if slug == "" {
		return nil, nil
	}
	pages, err := s.query(ctx, CollectionBlog, notion.Query{
		Filter: ptr(notion.And(
			notion.RichTextEquals(postFields.Slug.Name, slug),
			notion.CheckboxEquals(postFields.Published.Name, true),
		)),
		PageSize: 1,
	})
	if err != nil {
		return nil, err
	}
	for _, p := range pages {
		if !p.Properties.Checkbox(postFields.Published.Name) {
			continue
		}
		post := MapBlogPost(p, locale)
		if post.Slug != slug {
			continue
		}
		return &post, nil
	}
	return nil, nil
}

// PageBlocks returns the raw block list of a page.
func (s *Service) PageBlocks(ctx context.Context, pageID string) ([]content.Block, error) {
	blocks, err := s.store.FetchBlocks(ctx, pageID)
	if err != nil {
		return nil, fmt.Errorf("page blocks: %w", err)
	}
	return blocks, nil
}

// PageDocument fetches a page body and normalizes it for rendering. The
// document carries the page's title.
func (s *Service) PageDocument(ctx context.Context, pageID string) (doctree.Document, error) {
	page, err := s.store.RetrievePage(ctx, pageID)
	if err != nil {
		return doctree.Document{}, fmt.Errorf("page document: %w", err)
	}
	blocks, err := s.PageBlocks(ctx, pageID)
	if err != nil {
		return doctree.Document{}, err
	}
	doc := doctree.Normalize(blocks)
	doc.Title = page.Properties.PageTitle()
	if dropped := len(blocks) - len(doc.Flatten()); dropped > 0 {
		s.log.Debug("dropped unsupported blocks", "page_id", pageID, "count", dropped)
	}
	return doc, nil
}

func ptr[T any](v T) *T { return &v }
