package models

import "time"

// Artist is a performer owned by one user. Albums and Songs are derived on read.
type Artist struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Biography string    `json:"biography,omitempty"`
	UserID    string    `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
	Albums    []Album   `json:"albums,omitempty"`
	Songs     []Song    `json:"songs,omitempty"`
}
