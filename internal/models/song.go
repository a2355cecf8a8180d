package models

import "time"

// Song is a single track. Duration is in seconds.
type Song struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	Artist    string    `json:"artist"`
	ArtistID  *int64    `json:"artist_id,omitempty"`
	Album     string    `json:"album,omitempty"`
	Genre     string    `json:"genre,omitempty"`
	Year      int       `json:"year"`
	Duration  int       `json:"duration"`
	FilePath  string    `json:"file_path,omitempty"`
	UserID    string    `json:"user_id"`
	AlbumID   *int64    `json:"album_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// SongFilter narrows Search results. Empty fields are ignored.
type SongFilter struct {
	UserID string
	Title  string
	Artist string
	Genre  string
	Limit  int
}
