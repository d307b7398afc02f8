package search

import "context"

// ResultType identifies the kind of entity in a search result.
type ResultType string

const (
	ResultGuide    ResultType = "guide"
	ResultActivity ResultType = "activity"
)

// Result is a single search hit returned to the caller.
type Result struct {
	Type    ResultType `json:"type"`
	ID      int64      `json:"id"`
	GuideID int64      `json:"guideId"`
	Title   string     `json:"title"`
	Snippet string     `json:"snippet"`
}

// Query describes a search request. When Scoped is set only hits belonging to
// GuideIDs are returned; an empty GuideIDs then matches nothing.
type Query struct {
	Text     string
	Limit    int
	Scoped   bool
	GuideIDs []int64
}

// Response is the envelope returned by the search endpoint.
type Response struct {
	Results []Result `json:"results"`
	Total   int      `json:"total"`
	Query   string   `json:"query"`
}

// Searcher can execute a full-text search.
type Searcher interface {
	Search(ctx context.Context, q Query) ([]Result, int, error)
}

// Source loads every searchable record. It backs the local scanner and full
// reindexing.
type Source interface {
	SearchRecords(ctx context.Context) ([]GuideRecord, []ActivityRecord, error)
}

// GuideRecord is the data we index for a guide.
type GuideRecord struct {
	ID          int64  `json:"id"`
	GuideID     int64  `json:"guideId"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Destination string `json:"destination"`
}

// ActivityRecord is the data we index for an activity.
type ActivityRecord struct {
	ID          int64  `json:"id"`
	GuideID     int64  `json:"guideId"`
	DayID       int64  `json:"dayId"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Address     string `json:"address"`
}

const defaultLimit = 20

func effectiveLimit(limit int) int {
	if limit <= 0 {
		return defaultLimit
	}
	if limit > 100 {
		return 100
	}
	return limit
}
