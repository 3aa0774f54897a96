package service

import (
	"context"
	"fmt"
	"sort"

	"github.com/rs/zerolog"

	"github.com/literexia/assignment-engine/internal/model"
	"github.com/literexia/assignment-engine/internal/policy"
	"github.com/literexia/assignment-engine/internal/workflow"
)

// CatalogService lists categories and assessments. Source failures are never
// returned: categories degrade to the policy's fallback list and assessments
// to an empty list, with a warning logged.
type CatalogService struct {
	source   CatalogSource
	progress *ProgressService
	policy   *policy.Policy
	log      zerolog.Logger
}

func NewCatalogService(source CatalogSource, progress *ProgressService, pol *policy.Policy, log zerolog.Logger) *CatalogService {
	return &CatalogService{
		source:   source,
		progress: progress,
		policy:   pol,
		log:      log.With().Str("component", "catalog_service").Logger(),
	}
}

// ListCategories returns the categories for a level. The bool reports
// whether the fallback list was used.
func (s *CatalogService) ListCategories(ctx context.Context, level model.ReadingLevel) ([]model.Category, bool) {
	cats, err := s.source.ListCategories(ctx, level)
	if err != nil {
		s.log.Warn().Err(err).Str("level", string(level)).Msg("Category listing failed, using fallback catalog")
		return s.policy.Fallback(), true
	}
	if cats == nil {
		cats = []model.Category{}
	}
	return cats, false
}

// ListPublishedAssessments returns published assessments targeting exactly
// level, optionally limited to one category, in source order.
func (s *CatalogService) ListPublishedAssessments(ctx context.Context, categoryID *int, level model.ReadingLevel) []model.Assessment {
	list, err := s.source.ListAssessments(ctx, categoryID, level)
	if err != nil {
		ev := s.log.Warn().Err(err).Str("level", string(level))
		if categoryID != nil {
			ev = ev.Int("category_id", *categoryID)
		}
		ev.Msg("Assessment listing failed, treating as empty")
		return []model.Assessment{}
	}

	out := make([]model.Assessment, 0, len(list))
	for _, a := range list {
		if !a.IsPublished() || a.TargetLevel != level {
			continue
		}
		if categoryID != nil && a.CategoryID != *categoryID {
			continue
		}
		a.Normalize()
		out = append(out, a)
	}
	return out
}

// Catalog returns the categories for a level annotated for one student,
// ordered assessable first, then recommended first, then by id.
func (s *CatalogService) Catalog(ctx context.Context, level model.ReadingLevel, studentID string) ([]model.CatalogEntry, []workflow.Notice) {
	var notices []workflow.Notice

	cats, fallback := s.ListCategories(ctx, level)
	if fallback {
		notices = append(notices, workflow.Notice{
			Code:    workflow.NoticeCatalogUnavailable,
			Message: "the category list could not be loaded; showing the default categories",
		})
	}

	counts := make(map[int]int)
	for _, a := range s.ListPublishedAssessments(ctx, nil, level) {
		counts[a.CategoryID]++
	}

	assigned := map[int]bool{}
	if studentID != "" && s.progress != nil {
		var n *workflow.Notice
		assigned, n = s.progress.AssignedCategories(ctx, studentID)
		if n != nil {
			notices = append(notices, *n)
		}
	}

	entries := make([]model.CatalogEntry, 0, len(cats))
	for _, c := range cats {
		entries = append(entries, model.CatalogEntry{
			Category:                c,
			IsRecommended:           s.policy.IsRecommended(level, c.CategoryID),
			HasAvailableAssessments: counts[c.CategoryID] > 0,
			AssessmentCount:         counts[c.CategoryID],
			IsAssigned:              assigned[c.CategoryID],
		})
	}
	SortCatalog(entries)
	return entries, notices
}

// FindEntry looks up one annotated entry of the catalog.
func (s *CatalogService) FindEntry(ctx context.Context, level model.ReadingLevel, studentID string, categoryID int) (model.CatalogEntry, []workflow.Notice, error) {
	entries, notices := s.Catalog(ctx, level, studentID)
	for _, e := range entries {
		if e.CategoryID == categoryID {
			return e, notices, nil
		}
	}
	return model.CatalogEntry{}, notices, fmt.Errorf("%w: category %d", ErrCategoryNotFound, categoryID)
}

// SortCatalog orders entries by three stable keys: categories with
// assessments first, recommended first, ascending id.
func SortCatalog(entries []model.CatalogEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if a.HasAvailableAssessments != b.HasAvailableAssessments {
			return a.HasAvailableAssessments
		}
		if a.IsRecommended != b.IsRecommended {
			return a.IsRecommended
		}
		return a.CategoryID < b.CategoryID
	})
}
