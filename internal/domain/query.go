package domain

import (
	"fmt"
	"slices"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// SortOrder selects how an activity list is ordered.
type SortOrder string

const (
	SortDateAsc  SortOrder = "date_asc"
	SortDateDesc SortOrder = "date_desc"
	SortNameAsc  SortOrder = "name_asc"
	SortNameDesc SortOrder = "name_desc"
	SortCategory SortOrder = "category"
)

// ParseSortOrder converts s into a SortOrder. An empty string means date_asc.
func ParseSortOrder(s string) (SortOrder, error) {
	switch o := SortOrder(s); o {
	case "":
		return SortDateAsc, nil
	case SortDateAsc, SortDateDesc, SortNameAsc, SortNameDesc, SortCategory:
		return o, nil
	}
	return "", fmt.Errorf("%w: unknown sort order %q", ErrValidation, s)
}

// ActivityQuery describes a filtered, sorted view of a trip's activities.
// Zero-valued Status and Category match everything.
type ActivityQuery struct {
	Search   string
	Status   Status
	Category Category
	Sort     SortOrder
}

// Apply returns the activities matching q, ordered by q.Sort.
// It never modifies acts and always recomputes from scratch.
func (q ActivityQuery) Apply(acts []Activity) []Activity {
	needle := strings.ToLower(strings.TrimSpace(q.Search))

	out := make([]Activity, 0, len(acts))
	for _, a := range acts {
		if needle != "" && !matchesSearch(a, needle) {
			continue
		}
		if q.Status != "" && a.Status != q.Status {
			continue
		}
		if q.Category != "" && a.Category != q.Category {
			continue
		}
		out = append(out, a)
	}

	sortActivities(out, q.Sort)
	return out
}

func matchesSearch(a Activity, needle string) bool {
	return strings.Contains(strings.ToLower(a.Title), needle) ||
		strings.Contains(strings.ToLower(a.Description), needle) ||
		strings.Contains(strings.ToLower(a.Location), needle)
}

// sortActivities orders acts in place. Undated activities sort last for both
// date orders. All sorts are stable so equal keys keep their fetch order.
func sortActivities(acts []Activity, order SortOrder) {
	switch order {
	case SortDateAsc, "":
		slices.SortStableFunc(acts, func(a, b Activity) int { return compareDates(a, b, false) })
	case SortDateDesc:
		slices.SortStableFunc(acts, func(a, b Activity) int { return compareDates(a, b, true) })
	case SortNameAsc:
		c := collate.New(language.English)
		slices.SortStableFunc(acts, func(a, b Activity) int { return c.CompareString(a.Title, b.Title) })
	case SortNameDesc:
		c := collate.New(language.English)
		slices.SortStableFunc(acts, func(a, b Activity) int { return c.CompareString(b.Title, a.Title) })
	case SortCategory:
		slices.SortStableFunc(acts, func(a, b Activity) int { return strings.Compare(string(a.Category), string(b.Category)) })
	}
}

func compareDates(a, b Activity, desc bool) int {
	switch {
	case a.Date == nil && b.Date == nil:
		return 0
	case a.Date == nil:
		return 1
	case b.Date == nil:
		return -1
	}
	c := a.Date.Compare(*b.Date)
	if desc {
		return -c
	}
	return c
}

// UnscheduledKey is the GroupByDate key for activities without a date.
const UnscheduledKey = "unscheduled"

// DateGroup is a run of activities sharing the same calendar date.
type DateGroup struct {
	Key        string     `json:"key"` // "2006-01-02" or UnscheduledKey
	Activities []Activity `json:"activities"`
}

// GroupByDate buckets acts by calendar date, preserving the order of first
// appearance of each date and the order of activities within a bucket.
func GroupByDate(acts []Activity) []DateGroup {
	var groups []DateGroup
	index := make(map[string]int)
	for _, a := range acts {
		key := UnscheduledKey
		if a.Date != nil {
			key = a.Date.Format("2006-01-02")
		}
		i, ok := index[key]
		if !ok {
			i = len(groups)
			index[key] = i
			groups = append(groups, DateGroup{Key: key})
		}
		groups[i].Activities = append(groups[i].Activities, a)
	}
	return groups
}
