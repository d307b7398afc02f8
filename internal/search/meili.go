package search

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	meili "github.com/meilisearch/meilisearch-go"
)

const (
	idxGuides     = "henritrip_guides"
	idxActivities = "henritrip_activities"
)

// Meili implements Searcher via Meilisearch.
type Meili struct {
	client  meili.ServiceManager
	healthy atomic.Bool
	done    chan struct{}
}

// NewMeili creates a Meilisearch client and configures indexes. When the
// first health check fails the client starts unhealthy and a background loop
// keeps probing.
func NewMeili(url, apiKey string) *Meili {
	client := meili.New(url, meili.WithAPIKey(apiKey))

	m := &Meili{
		client: client,
		done:   make(chan struct{}),
	}

	if _, err := client.Health(); err != nil {
		log.Printf("search: meilisearch unavailable at %s: %v", url, err)
		m.healthy.Store(false)
	} else {
		m.healthy.Store(true)
		m.configureIndexes()
	}

	go m.healthLoop()
	return m
}

func (m *Meili) configureIndexes() {
	indexes := []struct {
		uid        string
		filterable []string
		searchable []string
	}{
		{
			uid:        idxGuides,
			filterable: []string{"guideId"},
			searchable: []string{"title", "description", "destination"},
		},
		{
			uid:        idxActivities,
			filterable: []string{"guideId", "dayId"},
			searchable: []string{"title", "description", "address"},
		},
	}

	for _, idx := range indexes {
		if _, err := m.client.CreateIndex(&meili.IndexConfig{
			Uid:        idx.uid,
			PrimaryKey: "id",
		}); err != nil {
			log.Printf("search: create index %s (may already exist): %v", idx.uid, err)
		}

		index := m.client.Index(idx.uid)
		filterableInterface := make([]interface{}, len(idx.filterable))
		for i, v := range idx.filterable {
			filterableInterface[i] = v
		}
		if _, err := index.UpdateFilterableAttributes(&filterableInterface); err != nil {
			log.Printf("search: update filterable attrs for %s: %v", idx.uid, err)
		}
		if _, err := index.UpdateSearchableAttributes(&idx.searchable); err != nil {
			log.Printf("search: update searchable attrs for %s: %v", idx.uid, err)
		}
	}
}

func (m *Meili) healthLoop() {
	ticker := time.NewTicker(10 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-m.done:
			return
		case <-ticker.C:
			_, err := m.client.Health()
			wasHealthy := m.healthy.Load()
			m.healthy.Store(err == nil)
			if err == nil && !wasHealthy {
				log.Println("search: meilisearch recovered, reconfiguring indexes")
				m.configureIndexes()
			}
		}
	}
}

// Close stops the background health monitor.
func (m *Meili) Close() {
	close(m.done)
}

// Healthy reports whether Meilisearch is reachable.
func (m *Meili) Healthy() bool {
	return m.healthy.Load()
}

// Search queries both indexes and merges the hits, guides first.
func (m *Meili) Search(_ context.Context, q Query) ([]Result, int, error) {
	if !m.healthy.Load() {
		return nil, 0, fmt.Errorf("meilisearch unhealthy")
	}
	if q.Scoped && len(q.GuideIDs) == 0 {
		return nil, 0, nil
	}

	resp, err := m.client.MultiSearch(&meili.MultiSearchRequest{
		Queries: buildRequests(q),
	})
	if err != nil {
		m.healthy.Store(false)
		return nil, 0, fmt.Errorf("meilisearch multi-search: %w", err)
	}

	var results []Result
	total := 0
	for _, sr := range resp.Results {
		total += int(sr.EstimatedTotalHits)
		rtyp := indexToResultType(sr.IndexUID)
		for _, hit := range sr.Hits {
			results = append(results, hitToResult(hit, rtyp))
		}
	}
	if limit := effectiveLimit(q.Limit); len(results) > limit {
		results = results[:limit]
	}
	return results, total, nil
}

func buildRequests(q Query) []*meili.SearchRequest {
	limit := int64(effectiveLimit(q.Limit))
	filter := scopeFilter(q)

	var queries []*meili.SearchRequest
	for _, uid := range []string{idxGuides, idxActivities} {
		sr := &meili.SearchRequest{
			IndexUID:              uid,
			Query:                 q.Text,
			Limit:                 limit,
			AttributesToHighlight: []string{"title", "description"},
			HighlightPreTag:       "<mark>",
			HighlightPostTag:      "</mark>",
		}
		if filter != "" {
			sr.Filter = filter
		}
		queries = append(queries, sr)
	}
	return queries
}

// scopeFilter restricts hits to the guides a non-admin caller was invited to.
func scopeFilter(q Query) string {
	if !q.Scoped {
		return ""
	}
	ids := make([]string, len(q.GuideIDs))
	for i, id := range q.GuideIDs {
		ids[i] = strconv.FormatInt(id, 10)
	}
	return "guideId IN [" + strings.Join(ids, ", ") + "]"
}

func indexToResultType(uid string) ResultType {
	switch uid {
	case idxGuides:
		return ResultGuide
	case idxActivities:
		return ResultActivity
	default:
		return ""
	}
}

func hitToResult(hit meili.Hit, rtyp ResultType) Result {
	return Result{
		Type:    rtyp,
		ID:      decodeInt(hit, "id"),
		GuideID: decodeInt(hit, "guideId"),
		Title:   firstNonBlank(decodeFormattedString(hit, "title"), decodeString(hit, "title")),
		Snippet: firstNonBlank(decodeFormattedString(hit, "description"), decodeString(hit, "description")),
	}
}

func decodeString(hit meili.Hit, key string) string {
	raw, ok := hit[key]
	if !ok {
		return ""
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return ""
}

func decodeInt(hit meili.Hit, key string) int64 {
	raw, ok := hit[key]
	if !ok {
		return 0
	}
	var n int64
	if err := json.Unmarshal(raw, &n); err == nil {
		return n
	}
	// ids sent back as strings
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		n, _ = strconv.ParseInt(s, 10, 64)
	}
	return n
}

func decodeFormattedString(hit meili.Hit, key string) string {
	raw, ok := hit["_formatted"]
	if !ok {
		return ""
	}
	var formatted map[string]any
	if err := json.Unmarshal(raw, &formatted); err != nil {
		return ""
	}
	value, _ := formatted[key].(string)
	return strings.TrimSpace(value)
}

func firstNonBlank(values ...string) string {
	for _, value := range values {
		if strings.TrimSpace(value) != "" {
			return value
		}
	}
	return ""
}

// IndexGuides adds or updates guides in the search index.
func (m *Meili) IndexGuides(guides []GuideRecord) error {
	if len(guides) == 0 {
		return nil
	}
	_, err := m.client.Index(idxGuides).AddDocuments(guides, nil)
	return err
}

// IndexActivities adds or updates activities in the search index.
func (m *Meili) IndexActivities(activities []ActivityRecord) error {
	if len(activities) == 0 {
		return nil
	}
	_, err := m.client.Index(idxActivities).AddDocuments(activities, nil)
	return err
}

// DeleteGuide removes a guide from the search index.
func (m *Meili) DeleteGuide(id int64) error {
	_, err := m.client.Index(idxGuides).DeleteDocument(strconv.FormatInt(id, 10), nil)
	return err
}

// DeleteActivity removes an activity from the search index.
func (m *Meili) DeleteActivity(id int64) error {
	_, err := m.client.Index(idxActivities).DeleteDocument(strconv.FormatInt(id, 10), nil)
	return err
}
