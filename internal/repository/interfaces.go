package repository

import (
	"context"

	"musiccrate/internal/models"
)

// Public repository methods never return store faults. Faults are logged and
// surface as false, nil or an empty slice.

// SongRepository defines the interface for song data operations
type SongRepository interface {
	Create(ctx context.Context, song *models.Song) (*models.Song, bool)
	FindByID(ctx context.Context, id int64) (*models.Song, bool)
	FindAll(ctx context.Context) []models.Song
	FindByUser(ctx context.Context, userID string) []models.Song
	FindByArtist(ctx context.Context, artist string) []models.Song
	FindByAlbum(ctx context.Context, albumID int64) []models.Song
	FindByPlaylist(ctx context.Context, playlistID int64) []models.Song
	FindForArtist(ctx context.Context, artist models.Artist) []models.Song
	Search(ctx context.Context, filter models.SongFilter) []models.Song
	Update(ctx context.Context, song *models.Song) bool
	Delete(ctx context.Context, id int64) bool
}

// AlbumRepository defines the interface for album data operations
type AlbumRepository interface {
	Create(ctx context.Context, album *models.Album) (*models.Album, bool)
	FindByID(ctx context.Context, id int64) (*models.Album, bool)
	FindAll(ctx context.Context) []models.Album
	FindByUser(ctx context.Context, userID string) []models.Album
	FindByArtist(ctx context.Context, artist string) []models.Album
	FindForArtist(ctx context.Context, artist models.Artist) []models.Album
	Update(ctx context.Context, album *models.Album) bool
	Delete(ctx context.Context, id int64) bool
	AddSongs(ctx context.Context, albumID int64, songIDs []int64) bool
	RemoveSongs(ctx context.Context, albumID int64) bool
}

// PlaylistRepository defines the interface for playlist data operations
type PlaylistRepository interface {
	Create(ctx context.Context, playlist *models.Playlist) (*models.Playlist, bool)
	FindByID(ctx context.Context, id int64) (*models.Playlist, bool)
	FindAll(ctx context.Context) []models.Playlist
	FindByUser(ctx context.Context, userID string) []models.Playlist
	Update(ctx context.Context, playlist *models.Playlist) bool
	Delete(ctx context.Context, id int64) bool
	AddSongs(ctx context.Context, playlistID int64, songIDs []int64) bool
	RemoveSongs(ctx context.Context, playlistID int64) bool
	RemoveSong(ctx context.Context, playlistID, songID int64) bool
}

// ArtistRepository defines the interface for artist data operations
type ArtistRepository interface {
	Create(ctx context.Context, artist *models.Artist) (*models.Artist, bool)
	FindOrCreate(ctx context.Context, name, userID string) (*models.Artist, bool)
	FindByID(ctx context.Context, id int64) (*models.Artist, bool)
	FindAll(ctx context.Context) []models.Artist
	FindByName(ctx context.Context, name string) []models.Artist
	FindByUser(ctx context.Context, userID string) []models.Artist
	Update(ctx context.Context, artist *models.Artist) bool
	Delete(ctx context.Context, id int64) bool
	ArtistExists(ctx context.Context, name, userID string) bool
	MergeArtists(ctx context.Context, primaryID, duplicateID int64) MergeResult
	RemoveDuplicateArtists(ctx context.Context) (int, bool)
}

// UserRepository defines the interface for user data operations
type UserRepository interface {
	Create(ctx context.Context, user *models.User) (*models.User, bool)
	FindByUsername(ctx context.Context, username string) (*models.User, bool)
	FindAll(ctx context.Context) []models.User
	Update(ctx context.Context, user *models.User) bool
	Delete(ctx context.Context, username string) bool
	Authenticate(ctx context.Context, username, password string) (*models.User, bool)
}

// StatisticRepository defines the interface for per-user song statistics
type StatisticRepository interface {
	IncrementPlayCount(ctx context.Context, userID string, songID int64) bool
	SetFavorite(ctx context.Context, userID string, songID int64, favorite bool) bool
	Get(ctx context.Context, userID string, songID int64) (*models.UserSongStatistic, bool)
	GetUserStatistics(ctx context.Context, userID string) []models.UserSongStatistic
	MostPlayed(ctx context.Context, userID string, limit int) []models.UserSongStatistic
	Favorites(ctx context.Context, userID string) []models.UserSongStatistic
	RecentlyPlayed(ctx context.Context, userID string, limit int) []models.UserSongStatistic
	Summary(ctx context.Context, userID string) (*models.StatisticsSummary, bool)
}
