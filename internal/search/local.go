package search

import (
	"context"
	"fmt"
	"strings"
)

// Local answers queries by scanning the records of a Source with
// case-insensitive substring matching.
type Local struct {
	source Source
}

func NewLocal(source Source) *Local {
	return &Local{source: source}
}

func (l *Local) Search(ctx context.Context, q Query) ([]Result, int, error) {
	term := strings.ToLower(strings.TrimSpace(q.Text))
	guides, activities, err := l.source.SearchRecords(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("load search records: %w", err)
	}

	allowed := allowedSet(q)
	var results []Result
	for _, g := range guides {
		if !allowed(g.GuideID) || !containsAny(term, g.Title, g.Description, g.Destination) {
			continue
		}
		results = append(results, Result{Type: ResultGuide, ID: g.ID, GuideID: g.GuideID, Title: g.Title, Snippet: snippet(g.Description)})
	}
	for _, a := range activities {
		if !allowed(a.GuideID) || !containsAny(term, a.Title, a.Description, a.Address) {
			continue
		}
		results = append(results, Result{Type: ResultActivity, ID: a.ID, GuideID: a.GuideID, Title: a.Title, Snippet: snippet(a.Description)})
	}

	total := len(results)
	if limit := effectiveLimit(q.Limit); len(results) > limit {
		results = results[:limit]
	}
	return results, total, nil
}

func allowedSet(q Query) func(int64) bool {
	if !q.Scoped {
		return func(int64) bool { return true }
	}
	set := make(map[int64]struct{}, len(q.GuideIDs))
	for _, id := range q.GuideIDs {
		set[id] = struct{}{}
	}
	return func(id int64) bool {
		_, ok := set[id]
		return ok
	}
}

func containsAny(term string, fields ...string) bool {
	for _, field := range fields {
		if strings.Contains(strings.ToLower(field), term) {
			return true
		}
	}
	return false
}

func snippet(text string) string {
	runes := []rune(strings.TrimSpace(text))
	if len(runes) <= 160 {
		return string(runes)
	}
	return string(runes[:160]) + "…"
}
