package search

import (
	"context"
	"log"
	"strings"
)

// Service is the facade that tries Meilisearch first and falls back to the
// local scanner.
type Service struct {
	meili *Meili
	local *Local
}

// NewService creates a search service. meili may be nil if Meilisearch is not configured.
func NewService(meili *Meili, local *Local) *Service {
	return &Service{meili: meili, local: local}
}

// Search tries Meilisearch if healthy, otherwise falls back to the local scan.
// A blank query matches nothing.
func (s *Service) Search(ctx context.Context, q Query) Response {
	q.Text = strings.TrimSpace(q.Text)
	if q.Text == "" {
		return Response{Results: []Result{}, Total: 0, Query: q.Text}
	}

	if s.meiliReady() {
		results, total, err := s.meili.Search(ctx, q)
		if err == nil {
			return Response{Results: nonNil(results), Total: total, Query: q.Text}
		}
		log.Printf("search: meilisearch error, falling back to local scan: %v", err)
	}

	if s.local == nil {
		return Response{Results: []Result{}, Total: 0, Query: q.Text}
	}
	results, total, err := s.local.Search(ctx, q)
	if err != nil {
		log.Printf("search: local scan error: %v", err)
		return Response{Results: []Result{}, Total: 0, Query: q.Text}
	}
	return Response{Results: nonNil(results), Total: total, Query: q.Text}
}

func (s *Service) meiliReady() bool {
	return s != nil && s.meili != nil && s.meili.Healthy()
}

// IndexGuide indexes a guide (fire-and-forget to Meilisearch).
func (s *Service) IndexGuide(g GuideRecord) {
	if !s.meiliReady() {
		return
	}
	go func() {
		if err := s.meili.IndexGuides([]GuideRecord{g}); err != nil {
			log.Printf("search: index guide %d: %v", g.ID, err)
		}
	}()
}

// IndexActivity indexes an activity (fire-and-forget to Meilisearch).
func (s *Service) IndexActivity(a ActivityRecord) {
	if !s.meiliReady() {
		return
	}
	go func() {
		if err := s.meili.IndexActivities([]ActivityRecord{a}); err != nil {
			log.Printf("search: index activity %d: %v", a.ID, err)
		}
	}()
}

// DeleteGuide removes a guide and the given activities from the index
// (fire-and-forget).
func (s *Service) DeleteGuide(id int64, activityIDs []int64) {
	if !s.meiliReady() {
		return
	}
	go func() {
		if err := s.meili.DeleteGuide(id); err != nil {
			log.Printf("search: delete guide %d: %v", id, err)
		}
		for _, activityID := range activityIDs {
			if err := s.meili.DeleteActivity(activityID); err != nil {
				log.Printf("search: delete activity %d: %v", activityID, err)
			}
		}
	}()
}

// DeleteActivities removes activities from the index (fire-and-forget).
func (s *Service) DeleteActivities(ids []int64) {
	if !s.meiliReady() || len(ids) == 0 {
		return
	}
	go func() {
		for _, id := range ids {
			if err := s.meili.DeleteActivity(id); err != nil {
				log.Printf("search: delete activity %d: %v", id, err)
			}
		}
	}()
}

// ReindexAll pushes every record of source into Meilisearch. Called during
// Bootstrap.
func (s *Service) ReindexAll(ctx context.Context, source Source) {
	if !s.meiliReady() || source == nil {
		return
	}
	guides, activities, err := source.SearchRecords(ctx)
	if err != nil {
		log.Printf("search: reindex load failed: %v", err)
		return
	}
	if err := s.meili.IndexGuides(guides); err != nil {
		log.Printf("search: reindex guides: %v", err)
	}
	if err := s.meili.IndexActivities(activities); err != nil {
		log.Printf("search: reindex activities: %v", err)
	}
}

// Close stops the Meilisearch health monitor, if any.
func (s *Service) Close() {
	if s != nil && s.meili != nil {
		s.meili.Close()
	}
}

func nonNil(r []Result) []Result {
	if r == nil {
		return []Result{}
	}
	return r
}
