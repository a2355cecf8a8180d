package models

import "time"

// Album groups the songs whose album_id points at it.
type Album struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	Artist    string    `json:"artist"`
	ArtistID  *int64    `json:"artist_id,omitempty"`
	Year      int       `json:"year"`
	Genre     string    `json:"genre,omitempty"`
	UserID    string    `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
	Songs     []Song    `json:"songs,omitempty"`
}
