package models

import "time"

// Playlist represents an ordered, user-owned list of songs.
type Playlist struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	UserID      string    `json:"user_id"`
	CreatedAt   time.Time `json:"created_at"`
	Songs       []Song    `json:"songs,omitempty"`
}

// SongIDs returns the ids of the playlist members in order.
func (p Playlist) SongIDs() []int64 {
	ids := make([]int64, 0, len(p.Songs))
	for _, song := range p.Songs {
		ids = append(ids, song.ID)
	}
	return ids
}
