package mcpserver

// RecordFormatContract describes the on-disk record format so that LLM
// consumers know which fields a work or note carries.
const RecordFormatContract = `# Shelf Record Format

Shelf keeps two collections of plain-text records: works (books, manga,
anime and series) and notes. Each record is one ` + "`" + `.md` + "`" + ` file made of a
front-matter block and a free-text body.

## Works

` + "```" + `
---
id: w1
title: Attack on Titan
type: ANIME
status: WATCHED
episodes: 25
dateRead: 2023-07-14
otherTitle: Shingeki no Kyojin; 進撃の巨人
---

Humanity fights the titans.
` + "```" + `

- ` + "`" + `title` + "`" + `, ` + "`" + `type` + "`" + ` and ` + "`" + `status` + "`" + ` are required.
- ` + "`" + `type` + "`" + `: ANIME, BOOK, MANGA or SERIES.
- ` + "`" + `status` + "`" + `: READ, READING, WATCHING, WATCHED, IN_PLANS or ABANDONED.
- Optional: ` + "`" + `cover` + "`" + `, ` + "`" + `chapters` + "`" + `, ` + "`" + `bookChapters` + "`" + `, ` + "`" + `episodes` + "`" + `,
  ` + "`" + `seasons` + "`" + `, ` + "`" + `dateRead` + "`" + ` (YYYY-MM-DD), ` + "`" + `year` + "`" + `, ` + "`" + `country` + "`" + `,
  ` + "`" + `seriesType` + "`" + ` (TV_SERIES, FILM, CARTOON, DRAMA), ` + "`" + `mangaType` + "`" + `
  (MANGA, MANHWA, MANHUA), ` + "`" + `otherTitle` + "`" + ` (alternative titles joined by "; ")
  and ` + "`" + `link` + "`" + ` (URL).
- The body after the blank line is the description.

When calling ` + "`" + `save_work` + "`" + ` pass the work as a JSON object using the same
names (the cover field is ` + "`" + `coverPath` + "`" + ` in JSON), for example:

` + "```" + `json
{"id": "w1", "title": "Attack on Titan", "type": "ANIME", "status": "WATCHED", "episodes": 25}
` + "```" + `

Omit ` + "`" + `id` + "`" + ` to create a new work with a generated id.

## Notes

` + "```" + `
---
title: My Trip
createdAt: 1700000000000
updatedAt: 1700000000000
---
Packed bags.
` + "```" + `

- The note id is the file name and is not stored in the file.
- Timestamps are milliseconds since the Unix epoch.
- A file without front matter is read as a note whose title is the file name.

## Values

Values are single-line. A backslash, a colon, a newline and a carriage
return are written as ` + "`" + `\\` + "`" + `, ` + "`" + `\:` + "`" + `, ` + "`" + `\n` + "`" + ` and ` + "`" + `\r` + "`" + `. The tools handle
this escaping; never escape values yourself. Spaces and tabs at either end
of a value are written as ` + "`" + `\s` + "`" + ` and ` + "`" + `\t` + "`" + ` so they survive.

## Covers

Use ` + "`" + `set_cover` + "`" + ` with an http(s) URL or a base64 data URI. Supported formats:
png, jpg, jpeg, gif, webp, up to 10 MB.
`
