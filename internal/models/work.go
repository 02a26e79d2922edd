// Package models defines the domain types for the library.
package models

import (
	"regexp"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
)

// WorkType is the kind of catalogued work.
type WorkType string

const (
	WorkTypeAnime  WorkType = "ANIME"
	WorkTypeBook   WorkType = "BOOK"
	WorkTypeManga  WorkType = "MANGA"
	WorkTypeSeries WorkType = "SERIES"
)

// WorkTypes lists every WorkType in display order.
var WorkTypes = []WorkType{WorkTypeAnime, WorkTypeBook, WorkTypeManga, WorkTypeSeries}

// WorkStatus is the reading/watching state of a work.
type WorkStatus string

const (
	StatusRead      WorkStatus = "READ"
	StatusReading   WorkStatus = "READING"
	StatusWatching  WorkStatus = "WATCHING"
	StatusWatched   WorkStatus = "WATCHED"
	StatusInPlans   WorkStatus = "IN_PLANS"
	StatusAbandoned WorkStatus = "ABANDONED"
)

// WorkStatuses lists every WorkStatus in display order.
var WorkStatuses = []WorkStatus{StatusRead, StatusReading, StatusWatching, StatusWatched, StatusInPlans, StatusAbandoned}

// SeriesType refines a SERIES work.
type SeriesType string

const (
	SeriesTypeTV      SeriesType = "TV_SERIES"
	SeriesTypeFilm    SeriesType = "FILM"
	SeriesTypeCartoon SeriesType = "CARTOON"
	SeriesTypeDrama   SeriesType = "DRAMA"
)

// SeriesTypes lists every SeriesType.
var SeriesTypes = []SeriesType{SeriesTypeTV, SeriesTypeFilm, SeriesTypeCartoon, SeriesTypeDrama}

// MangaType refines a MANGA work.
type MangaType string

const (
	MangaTypeManga  MangaType = "MANGA"
	MangaTypeManhwa MangaType = "MANHWA"
	MangaTypeManhua MangaType = "MANHUA"
)

// MangaTypes lists every MangaType.
var MangaTypes = []MangaType{MangaTypeManga, MangaTypeManhwa, MangaTypeManhua}

// ParseWorkType matches s against the known symbols.
func ParseWorkType(s string) (WorkType, bool) { return parseSymbol(s, WorkTypes) }

// ParseWorkStatus matches s against the known symbols.
func ParseWorkStatus(s string) (WorkStatus, bool) { return parseSymbol(s, WorkStatuses) }

// ParseSeriesType matches s against the known symbols.
func ParseSeriesType(s string) (SeriesType, bool) { return parseSymbol(s, SeriesTypes) }

// ParseMangaType matches s against the known symbols.
func ParseMangaType(s string) (MangaType, bool) { return parseSymbol(s, MangaTypes) }

func parseSymbol[T ~string](s string, known []T) (T, bool) {
	for _, k := range known {
		if string(k) == s {
			return k, true
		}
	}
	var zero T
	return zero, false
}

// Work is a catalogue entry. Optional fields are nil when unset; which of
// them are meaningful depends on Type.
type Work struct {
	ID           string      `json:"id"`
	Title        string      `json:"title"`
	Description  string      `json:"description"`
	Type         WorkType    `json:"type"`
	Status       WorkStatus  `json:"status"`
	CoverPath    *string     `json:"coverPath,omitempty"`
	Chapters     *int        `json:"chapters,omitempty"`
	BookChapters *int        `json:"bookChapters,omitempty"`
	Episodes     *int        `json:"episodes,omitempty"`
	Seasons      *int        `json:"seasons,omitempty"`
	DateRead     *string     `json:"dateRead,omitempty"`
	Year         *int        `json:"year,omitempty"`
	Country      *string     `json:"country,omitempty"`
	SeriesType   *SeriesType `json:"seriesType,omitempty"`
	MangaType    *MangaType  `json:"mangaType,omitempty"`
	OtherTitle   *string     `json:"otherTitle,omitempty"`
	Link         *string     `json:"link,omitempty"`
}

// OtherTitles splits OtherTitle on semicolons.
func (w Work) OtherTitles() []string {
	if w.OtherTitle == nil {
		return nil
	}
	var out []string
	for _, part := range strings.Split(*w.OtherTitle, ";") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

var dateReadRe = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// Validate checks the fields a caller must supply before saving.
func (w Work) Validate() error {
	return validation.ValidateStruct(&w,
		validation.Field(&w.Title, validation.Required),
		validation.Field(&w.Type, validation.Required, validation.In(toAny(WorkTypes)...)),
		validation.Field(&w.Status, validation.Required, validation.In(toAny(WorkStatuses)...)),
		validation.Field(&w.Chapters, validation.Min(0)),
		validation.Field(&w.BookChapters, validation.Min(0)),
		validation.Field(&w.Episodes, validation.Min(0)),
		validation.Field(&w.Seasons, validation.Min(0)),
		validation.Field(&w.Year, validation.Min(0), validation.Max(9999)),
		validation.Field(&w.DateRead, validation.Match(dateReadRe)),
		validation.Field(&w.SeriesType, validation.In(toAny(SeriesTypes)...)),
		validation.Field(&w.MangaType, validation.In(toAny(MangaTypes)...)),
		validation.Field(&w.Link, is.URL),
	)
}

func toAny[T any](in []T) []any {
	out := make([]any, len(in))
	for i, v := range in {
		out[i] = v
	}
	return out
}

// Ptr returns a pointer to v.
func Ptr[T any](v T) *T { return &v }
