package workstore

import (
	"strconv"

	"github.com/starford/shelf/internal/apperr"
	"github.com/starford/shelf/internal/frontmatter"
	"github.com/starford/shelf/internal/models"
)

// Front-matter keys, in the order they are written.
const (
	keyID           = "id"
	keyTitle        = "title"
	keyType         = "type"
	keyStatus       = "status"
	keyCover        = "cover"
	keyChapters     = "chapters"
	keyBookChapters = "bookChapters"
	keyEpisodes     = "episodes"
	keySeasons      = "seasons"
	keyDateRead     = "dateRead"
	keyYear         = "year"
	keyCountry      = "country"
	keySeriesType   = "seriesType"
	keyMangaType    = "mangaType"
	keyOtherTitle   = "otherTitle"
	keyLink         = "link"
)

// Values used when a stored enum name is missing or unknown.
const (
	DefaultType   = models.WorkTypeBook
	DefaultStatus = models.StatusInPlans
)

// Codec maps works to record files. The id lives in the front matter.
type Codec struct{}

// ID returns the work id.
func (Codec) ID(w models.Work) string { return w.ID }

// Encode renders w with a stable key order and a blank line before the
// description.
func (Codec) Encode(w models.Work) []byte {
	fields := []frontmatter.Field{
		{Key: keyID, Value: w.ID},
		{Key: keyTitle, Value: w.Title},
		{Key: keyType, Value: string(w.Type)},
		{Key: keyStatus, Value: string(w.Status)},
	}
	addString := func(key string, v *string) {
		if v != nil {
			fields = append(fields, frontmatter.Field{Key: key, Value: *v})
		}
	}
	addInt := func(key string, v *int) {
		if v != nil {
			fields = append(fields, frontmatter.Field{Key: key, Value: strconv.Itoa(*v)})
		}
	}

	addString(keyCover, w.CoverPath)
	addInt(keyChapters, w.Chapters)
	addInt(keyBookChapters, w.BookChapters)
	addInt(keyEpisodes, w.Episodes)
	addInt(keySeasons, w.Seasons)
	addString(keyDateRead, w.DateRead)
	addInt(keyYear, w.Year)
	addString(keyCountry, w.Country)
	if w.SeriesType != nil {
		fields = append(fields, frontmatter.Field{Key: keySeriesType, Value: string(*w.SeriesType)})
	}
	if w.MangaType != nil {
		fields = append(fields, frontmatter.Field{Key: keyMangaType, Value: string(*w.MangaType)})
	}
	addString(keyOtherTitle, w.OtherTitle)
	addString(keyLink, w.Link)

	return frontmatter.Encode(fields, w.Description, frontmatter.WithBlankLine())
}

// Decode parses a work file. A file without front matter or without an id
// is rejected; bad enum names and numbers fall back instead of failing.
func (Codec) Decode(_ models.FileMeta, data []byte) (models.Work, error) {
	doc, err := frontmatter.Decode(data)
	if err != nil {
		return models.Work{}, err
	}
	id, ok := doc.String(keyID)
	if !ok || id == "" {
		return models.Work{}, apperr.ErrMissingID
	}

	w := models.Work{
		ID:          id,
		Description: doc.Body,
		Type:        DefaultType,
		Status:      DefaultStatus,
	}
	w.Title, _ = doc.String(keyTitle)
	if s, ok := doc.String(keyType); ok {
		if t, known := models.ParseWorkType(s); known {
			w.Type = t
		}
	}
	if s, ok := doc.String(keyStatus); ok {
		if st, known := models.ParseWorkStatus(s); known {
			w.Status = st
		}
	}
	if s, ok := doc.String(keySeriesType); ok {
		if st, known := models.ParseSeriesType(s); known {
			w.SeriesType = &st
		}
	}
	if s, ok := doc.String(keyMangaType); ok {
		if mt, known := models.ParseMangaType(s); known {
			w.MangaType = &mt
		}
	}

	w.CoverPath = optString(doc, keyCover)
	w.Chapters = optInt(doc, keyChapters)
	w.BookChapters = optInt(doc, keyBookChapters)
	w.Episodes = optInt(doc, keyEpisodes)
	w.Seasons = optInt(doc, keySeasons)
	w.DateRead = optString(doc, keyDateRead)
	w.Year = optInt(doc, keyYear)
	w.Country = optString(doc, keyCountry)
	w.OtherTitle = optString(doc, keyOtherTitle)
	w.Link = optString(doc, keyLink)
	return w, nil
}

func optString(doc *frontmatter.Document, key string) *string {
	if v, ok := doc.String(key); ok {
		return &v
	}
	return nil
}

func optInt(doc *frontmatter.Document, key string) *int {
	if v, ok := doc.Int(key); ok {
		return &v
	}
	return nil
}
