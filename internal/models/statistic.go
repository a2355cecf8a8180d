package models

import "time"

// UserSongStatistic tracks plays and the favorite flag for one (user, song) pair.
type UserSongStatistic struct {
	ID         int64      `json:"id"`
	UserID     string     `json:"user_id"`
	SongID     int64      `json:"song_id"`
	PlayCount  int        `json:"play_count"`
	LastPlayed *time.Time `json:"last_played,omitempty"`
	Favorite   bool       `json:"favorite"`
	CreatedAt  time.Time  `json:"created_at"`
	Song       *Song      `json:"song,omitempty"`
}

// StatisticsSummary aggregates a user's listening history.
type StatisticsSummary struct {
	UserID        string     `json:"user_id"`
	TotalPlays    int        `json:"total_plays"`
	DistinctSongs int        `json:"distinct_songs"`
	Favorites     int        `json:"favorites"`
	LastPlayed    *time.Time `json:"last_played,omitempty"`
}
