package app

import (
	"henritrip/api/internal/store"
)

// renumber returns the visit orders that make activities dense: sorted by
// (visitOrder, id) they become 1..n. Entries already in place are omitted.
func renumber(activities []store.Activity) []store.VisitOrder {
	sorted := append([]store.Activity(nil), activities...)
	store.SortActivities(sorted)

	var changes []store.VisitOrder
	for i, activity := range sorted {
		if activity.VisitOrder != i+1 {
			changes = append(changes, store.VisitOrder{ActivityID: activity.ID, VisitOrder: i + 1})
		}
	}
	return changes
}

// nextVisitOrder is one past the highest visit order, ignoring exclude.
func nextVisitOrder(activities []store.Activity, exclude int64) int {
	highest := 0
	for _, activity := range activities {
		if activity.ID != exclude && activity.VisitOrder > highest {
			highest = activity.VisitOrder
		}
	}
	return highest + 1
}

// orderHint picks the requested position when it is positive.
func orderHint(requested *int, fallback int) int {
	if requested != nil && *requested > 0 {
		return *requested
	}
	return fallback
}
