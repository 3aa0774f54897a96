package service

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/literexia/assignment-engine/internal/model"
)

// resolveConcurrency bounds parallel resolution calls on advance.
const resolveConcurrency = 8

// ContentService reads the five content collections. Every method is
// fail-soft: a failed listing is an empty slice, a failed resolution is nil.
type ContentService struct {
	source ContentSource
	cache  ContentCache
	log    zerolog.Logger
}

// NewContentService creates a ContentService. cache may be nil.
func NewContentService(source ContentSource, cache ContentCache, log zerolog.Logger) *ContentService {
	return &ContentService{
		source: source,
		cache:  cache,
		log:    log.With().Str("component", "content_service").Logger(),
	}
}

// ListContent returns every item of one kind.
func (s *ContentService) ListContent(ctx context.Context, kind model.ContentKind) []model.ContentItem {
	items, err := s.source.ListContent(ctx, kind)
	if err != nil {
		s.log.Warn().Err(err).Str("kind", string(kind)).Msg("Content listing failed, treating as empty")
		return []model.ContentItem{}
	}
	if items == nil {
		items = []model.ContentItem{}
	}
	return items
}

// ListAll fetches all five kinds in parallel; each kind fails independently.
func (s *ContentService) ListAll(ctx context.Context) map[model.ContentKind][]model.ContentItem {
	out := make(map[model.ContentKind][]model.ContentItem, len(model.ContentKinds))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	for _, kind := range model.ContentKinds {
		g.Go(func() error {
			items := s.ListContent(gctx, kind)
			mu.Lock()
			out[kind] = items
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
	return out
}

// ResolveContentReference returns the item a reference points at, or nil.
func (s *ContentService) ResolveContentReference(ctx context.Context, ref model.ContentRef) model.ContentItem {
	kind, err := ref.Kind()
	if err != nil || ref.ContentID == "" {
		s.log.Warn().Str("collection", ref.Collection).Str("content_id", ref.ContentID).Msg("Unresolvable content reference")
		return nil
	}
	ref.Collection = string(kind)

	if s.cache != nil {
		item, ok, err := s.cache.Get(ctx, ref)
		if err != nil {
			s.log.Debug().Err(err).Msg("Content cache read failed")
		}
		if ok {
			return item
		}
	}

	item, err := s.source.ResolveContent(ctx, ref)
	if errors.Is(err, model.ErrContentNotFound) {
		s.log.Debug().Str("collection", ref.Collection).Str("content_id", ref.ContentID).Msg("Content reference points at a missing item")
		return nil
	}
	if err != nil || item == nil {
		s.log.Warn().Err(err).
			Str("collection", ref.Collection).
			Str("content_id", ref.ContentID).
			Msg("Content resolution failed")
		return nil
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, ref, item); err != nil {
			s.log.Debug().Err(err).Msg("Content cache write failed")
		}
	}
	return item
}

// ResolveMany resolves a set of keyed references concurrently. Every key is
// present in the result; failures map to nil.
func (s *ContentService) ResolveMany(ctx context.Context, refs map[string]model.ContentRef) map[string]model.ContentItem {
	out := make(map[string]model.ContentItem, len(refs))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(resolveConcurrency)
	for key, ref := range refs {
		g.Go(func() error {
			item := s.ResolveContentReference(gctx, ref)
			mu.Lock()
			out[key] = item
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
	return out
}

// Search filters items by a case-insensitive substring over each kind's
// search fields, preserving order. An empty query returns items unchanged.
func Search(items []model.ContentItem, query string) []model.ContentItem {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return items
	}

	out := make([]model.ContentItem, 0, len(items))
	for _, item := range items {
		for _, field := range model.SearchFields(item) {
			if strings.Contains(strings.ToLower(field), q) {
				out = append(out, item)
				break
			}
		}
	}
	return out
}
