// Package models defines the persisted record types for Shopfront.
package models

import "time"

// StatusRecord is the singleton open/closed indicator shown on the site.
// Notice is always a string; an absent notice is the empty string.
type StatusRecord struct {
	Status      bool      `json:"status"`
	Notice      string    `json:"notice"`
	LastUpdated time.Time `json:"lastUpdated"`
}

// ImageEntry is the metadata for one uploaded image.
// Filename is server-generated and uniquely identifies a file in the
// matching upload directory.
type ImageEntry struct {
	Filename     string    `json:"filename"`
	OriginalName string    `json:"originalName"`
	UploadedAt   time.Time `json:"uploadedAt"`
	Size         int64     `json:"size"`
	Mimetype     string    `json:"mimetype"`
	Checksum     string    `json:"checksum"`
}

// GalleryRecord holds the ordered gallery images. Append-only except for
// explicit deletion, which removes both the entry and the file on disk.
type GalleryRecord struct {
	Images []ImageEntry `json:"images"`
}

// HeroRecord describes the single hero background image. An empty
// Filename means no hero image is set.
type HeroRecord struct {
	Filename     string    `json:"filename"`
	OriginalName string    `json:"originalName"`
	UploadedAt   time.Time `json:"uploadedAt"`
	Size         int64     `json:"size"`
	Mimetype     string    `json:"mimetype"`
	Checksum     string    `json:"checksum"`
}

// IsSet reports whether a hero image is currently configured.
func (h HeroRecord) IsSet() bool {
	return h.Filename != ""
}
