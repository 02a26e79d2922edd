package library

import (
	"context"
	"sort"
	"strings"

	"github.com/starford/shelf/internal/models"
)

// Sort orders for ListWorks.
const (
	SortTitle    = "title"
	SortYear     = "year"
	SortDateRead = "dateRead"
)

// Filter selects works. Zero fields match everything.
type Filter struct {
	Type   models.WorkType
	Status models.WorkStatus
	// Query matches Title or OtherTitle, case-insensitively.
	Query string
}

// Match reports whether w passes the filter.
func (f Filter) Match(w models.Work) bool {
	if f.Type != "" && w.Type != f.Type {
		return false
	}
	if f.Status != "" && w.Status != f.Status {
		return false
	}
	q := strings.ToLower(strings.TrimSpace(f.Query))
	if q == "" {
		return true
	}
	if strings.Contains(strings.ToLower(w.Title), q) {
		return true
	}
	return w.OtherTitle != nil && strings.Contains(strings.ToLower(*w.OtherTitle), q)
}

// ListWorks returns the works passing f in the requested order.
func (s *Service) ListWorks(_ context.Context, f Filter, order string) ([]models.Work, error) {
	all, err := s.works.List()
	if err != nil {
		return nil, err
	}
	out := make([]models.Work, 0, len(all))
	for _, w := range all {
		if f.Match(w) {
			out = append(out, w)
		}
	}
	SortWorks(out, order)
	return out, nil
}

// SortWorks orders works in place. Year and dateRead put the most recent
// first and works without a value last; every order breaks ties by title
// and then id. Unknown orders sort by title.
func SortWorks(works []models.Work, order string) {
	byTitle := func(a, b models.Work) bool {
		ta, tb := strings.ToLower(a.Title), strings.ToLower(b.Title)
		if ta != tb {
			return ta < tb
		}
		return a.ID < b.ID
	}

	var less func(a, b models.Work) bool
	switch order {
	case SortYear:
		less = func(a, b models.Work) bool {
			switch {
			case a.Year == nil && b.Year == nil:
				return byTitle(a, b)
			case a.Year == nil:
				return false
			case b.Year == nil:
				return true
			case *a.Year != *b.Year:
				return *a.Year > *b.Year
			}
			return byTitle(a, b)
		}
	case SortDateRead:
		less = func(a, b models.Work) bool {
			da, db := deref(a.DateRead), deref(b.DateRead)
			switch {
			case da == "" && db == "":
				return byTitle(a, b)
			case da == "":
				return false
			case db == "":
				return true
			case da != db:
				// YYYY-MM-DD compares chronologically as a string.
				return da > db
			}
			return byTitle(a, b)
		}
	default:
		less = byTitle
	}
	sort.SliceStable(works, func(i, j int) bool { return less(works[i], works[j]) })
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// Stats summarises the library.
type Stats struct {
	// Total counts every work.
	Total int `json:"total"`
	// ByType counts every work per type, regardless of the type filter.
	ByType map[models.WorkType]int `json:"byType"`
	// TypeFilter is the type the status counts are restricted to, if any.
	TypeFilter models.WorkType `json:"typeFilter,omitempty"`
	// StatusTotal counts the works the status breakdown covers.
	StatusTotal int                       `json:"statusTotal"`
	ByStatus    map[models.WorkStatus]int `json:"byStatus"`
	// Active merges READING and WATCHING; Completed merges READ and WATCHED.
	Active    int `json:"active"`
	Completed int `json:"completed"`
	Notes     int `json:"notes"`
}

// Stats counts works by type and status. When typeFilter is non-empty the
// status breakdown only covers works of that type.
func (s *Service) Stats(_ context.Context, typeFilter models.WorkType) (*Stats, error) {
	works, err := s.works.List()
	if err != nil {
		return nil, err
	}
	notes, err := s.notes.Store.List()
	if err != nil {
		return nil, err
	}
	return ComputeStats(works, typeFilter, len(notes)), nil
}

// ComputeStats builds Stats from a list of works.
func ComputeStats(works []models.Work, typeFilter models.WorkType, notes int) *Stats {
	st := &Stats{
		Total:      len(works),
		ByType:     make(map[models.WorkType]int, len(models.WorkTypes)),
		TypeFilter: typeFilter,
		ByStatus:   make(map[models.WorkStatus]int, len(models.WorkStatuses)),
		Notes:      notes,
	}
	for _, t := range models.WorkTypes {
		st.ByType[t] = 0
	}
	for _, s := range models.WorkStatuses {
		st.ByStatus[s] = 0
	}
	for _, w := range works {
		st.ByType[w.Type]++
		if typeFilter != "" && w.Type != typeFilter {
			continue
		}
		st.StatusTotal++
		st.ByStatus[w.Status]++
		switch w.Status {
		case models.StatusReading, models.StatusWatching:
			st.Active++
		case models.StatusRead, models.StatusWatched:
			st.Completed++
		}
	}
	return st
}
