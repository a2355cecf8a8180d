package repository

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"musiccrate/internal/database"
	"musiccrate/internal/models"
)

// newTestDB returns a migrated SQLite store in a temporary directory.
func newTestDB(t *testing.T) *sql.DB {
	t.Helper()

	path := filepath.Join(t.TempDir(), "crate.db")
	require.NoError(t, database.Migrate(database.DriverSQLite, path, database.Up))

	db, err := database.Open(context.Background(), database.DriverSQLite, path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

type fixture struct {
	db        *sql.DB
	cache     *ArtistCache
	songs     SongRepository
	albums    AlbumRepository
	playlists PlaylistRepository
	artists   ArtistRepository
	stats     StatisticRepository
	users     UserRepository
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db := newTestDB(t)
	cache := NewArtistCache()
	songs := NewSongRepository(db, nil)
	albums := NewAlbumRepository(db, songs, nil)
	return &fixture{
		db:        db,
		cache:     cache,
		songs:     songs,
		albums:    albums,
		playlists: NewPlaylistRepository(db, songs, nil),
		artists:   NewArtistRepository(db, cache, albums, songs, nil),
		stats:     NewStatisticRepository(db, nil),
		users:     NewUserRepository(db, nil),
	}
}

func (f *fixture) song(t *testing.T, title string) models.Song {
	t.Helper()
	song, ok := f.songs.Create(context.Background(), &models.Song{
		Title:    title,
		Artist:   "Various",
		Duration: 180,
		UserID:   "1",
	})
	require.True(t, ok, "create song %q", title)
	return *song
}

func (f *fixture) count(t *testing.T, query string, args ...any) int {
	t.Helper()
	var n int
	require.NoError(t, f.db.QueryRowContext(context.Background(), query, args...).Scan(&n))
	return n
}

func titles(songs []models.Song) []string {
	out := make([]string, 0, len(songs))
	for _, song := range songs {
		out = append(out, song.Title)
	}
	return out
}
