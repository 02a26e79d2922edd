package models

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Note is a free-text note. Timestamps are milliseconds since the Unix epoch.
type Note struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Content   string `json:"content"`
	CreatedAt int64  `json:"createdAt"`
	UpdatedAt int64  `json:"updatedAt"`
}

// Created returns CreatedAt as a time.Time.
func (n Note) Created() time.Time { return time.UnixMilli(n.CreatedAt) }

// Updated returns UpdatedAt as a time.Time.
func (n Note) Updated() time.Time { return time.UnixMilli(n.UpdatedAt) }

// Validate checks the fields a caller must supply before saving.
func (n Note) Validate() error {
	return validation.ValidateStruct(&n,
		validation.Field(&n.Title, validation.Required),
		validation.Field(&n.CreatedAt, validation.Min(int64(0))),
		validation.Field(&n.UpdatedAt, validation.Min(int64(0))),
	)
}

// FileMeta describes one record file in a store directory.
type FileMeta struct {
	Name     string    `json:"name"`
	ID       string    `json:"id"`
	Checksum string    `json:"checksum"`
	ModTime  time.Time `json:"modTime"`
}

// NowMillis returns the current time in milliseconds since the epoch.
func NowMillis() int64 { return time.Now().UnixMilli() }
