package repository

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"musiccrate/internal/models"
)

func TestMergeResultString(t *testing.T) {
	tests := map[MergeResult]string{
		MergeApplied:  "applied",
		MergeNoEffect: "no effect",
		MergeRejected: "rejected",
		MergeFailed:   "failed",
	}
	for result, want := range tests {
		if got := result.String(); got != want {
			t.Errorf("MergeResult(%d).String() = %q, want %q", int(result), got, want)
		}
	}
}

func TestMergeFaultLeavesCacheUntouched(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta(`FROM artists`)).
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "biography", "user_id", "created_at"}).
			AddRow(int64(1), "Primary", "", "1", now))
	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT name, user_id FROM artists WHERE id = $1`)).
		WithArgs(int64(2)).
		WillReturnRows(sqlmock.NewRows([]string{"name", "user_id"}).AddRow("Duplicate", "1"))
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE albums`)).
		WillReturnError(errors.New("disk I/O error"))
	mock.ExpectRollback()

	cache := NewArtistCache()
	cache.Put(models.Artist{ID: 2, Name: "Duplicate", UserID: "1"})

	repo := NewArtistRepository(db, cache, nil, nil, nil)
	if got := repo.MergeArtists(context.Background(), 1, 2); got != MergeFailed {
		t.Fatalf("expected MergeFailed, got %s", got)
	}
	if !cache.Contains(2) {
		t.Fatalf("failed merge must not evict the duplicate")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestMergeRejectsInvalidPairs(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	repo := NewArtistRepository(db, nil, nil, nil, nil)
	for _, pair := range [][2]int64{{1, 1}, {0, 2}, {2, -1}} {
		if got := repo.MergeArtists(context.Background(), pair[0], pair[1]); got != MergeRejected {
			t.Errorf("merge %d into %d: expected rejected, got %s", pair[1], pair[0], got)
		}
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unexpected store access: %v", err)
	}
}

func TestArtistCreateRejectsDuplicateName(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	created, ok := f.artists.Create(ctx, &models.Artist{Name: "Radiohead", UserID: "1"})
	require.True(t, ok)
	require.True(t, f.cache.Contains(created.ID))

	_, ok = f.artists.Create(ctx, &models.Artist{Name: " radiohead ", UserID: "1"})
	require.False(t, ok)

	_, ok = f.artists.Create(ctx, &models.Artist{Name: "Radiohead", UserID: "2"})
	require.True(t, ok, "names are unique per user only")

	require.True(t, f.artists.ArtistExists(ctx, "RADIOHEAD", "1"))
	require.False(t, f.artists.ArtistExists(ctx, "Radiohead", "3"))

	_, ok = f.artists.Create(ctx, &models.Artist{Name: ""})
	require.False(t, ok)
}

func TestArtistFindOrCreate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first, ok := f.artists.FindOrCreate(ctx, "Portishead", "1")
	require.True(t, ok)
	again, ok := f.artists.FindOrCreate(ctx, "portishead ", "1")
	require.True(t, ok)
	require.Equal(t, first.ID, again.ID)
	require.Equal(t, 1, f.count(t, `SELECT COUNT(*) FROM artists`))
}

func TestArtistCacheCoherence(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	created, ok := f.artists.Create(ctx, &models.Artist{Name: "Björk", UserID: "1"})
	require.True(t, ok)
	f.cache.Clear()

	found, ok := f.artists.FindByID(ctx, created.ID)
	require.True(t, ok)
	require.Equal(t, "Björk", found.Name)
	require.True(t, f.cache.Contains(created.ID))

	require.True(t, f.artists.Delete(ctx, created.ID))
	require.False(t, f.cache.Contains(created.ID))

	_, ok = f.artists.FindByID(ctx, created.ID)
	require.False(t, ok)
	require.False(t, f.artists.Delete(ctx, created.ID))
}

func TestArtistFindAllReplacesCache(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	created, ok := f.artists.Create(ctx, &models.Artist{Name: "Air", UserID: "1"})
	require.True(t, ok)
	f.cache.Put(models.Artist{ID: 99, Name: "stale"})

	all := f.artists.FindAll(ctx)
	require.Len(t, all, 1)
	require.Equal(t, []int64{created.ID}, f.cache.IDs())
}

func TestArtistDerivedLists(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	artist, ok := f.artists.Create(ctx, &models.Artist{Name: "Can", UserID: "1"})
	require.True(t, ok)

	_, ok = f.albums.Create(ctx, &models.Album{Title: "Tago Mago", Artist: "Can", ArtistID: &artist.ID, UserID: "1"})
	require.True(t, ok)
	_, ok = f.songs.Create(ctx, &models.Song{Title: "Vitamin C", Artist: "Can", UserID: "1"})
	require.True(t, ok)
	_, ok = f.songs.Create(ctx, &models.Song{Title: "Other", Artist: "Can", UserID: "2"})
	require.True(t, ok)

	found, ok := f.artists.FindByID(ctx, artist.ID)
	require.True(t, ok)
	require.Len(t, found.Albums, 1)
	require.Equal(t, []string{"Vitamin C"}, titles(found.Songs))

	cached, ok := f.cache.Get(artist.ID)
	require.True(t, ok)
	require.Nil(t, cached.Albums)
}

func TestArtistUpdateRenamesLinkedRows(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	artist, ok := f.artists.Create(ctx, &models.Artist{Name: "Prince", UserID: "1"})
	require.True(t, ok)
	other, ok := f.artists.Create(ctx, &models.Artist{Name: "Madonna", UserID: "1"})
	require.True(t, ok)

	album, ok := f.albums.Create(ctx, &models.Album{Title: "1999", Artist: "Prince", ArtistID: &artist.ID, UserID: "1"})
	require.True(t, ok)
	song, ok := f.songs.Create(ctx, &models.Song{Title: "Kiss", Artist: "Prince", ArtistID: &artist.ID, UserID: "1"})
	require.True(t, ok)

	artist.Name = "The Artist"
	artist.Biography = "Minneapolis"
	require.True(t, f.artists.Update(ctx, artist))

	cached, ok := f.cache.Get(artist.ID)
	require.True(t, ok)
	require.Equal(t, "The Artist", cached.Name)

	gotAlbum, ok := f.albums.FindByID(ctx, album.ID)
	require.True(t, ok)
	require.Equal(t, "The Artist", gotAlbum.Artist)
	gotSong, ok := f.songs.FindByID(ctx, song.ID)
	require.True(t, ok)
	require.Equal(t, "The Artist", gotSong.Artist)

	other.Name = "the artist"
	require.False(t, f.artists.Update(ctx, other))
}

func TestArtistUpdateRenamesUnlinkedRows(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	artist, ok := f.artists.Create(ctx, &models.Artist{Name: "Stereolab", UserID: "1"})
	require.True(t, ok)
	_, ok = f.albums.Create(ctx, &models.Album{Title: "Dots and Loops", Artist: "Stereolab", UserID: "1"})
	require.True(t, ok)
	_, ok = f.songs.Create(ctx, &models.Song{Title: "Miss Modular", Artist: "Stereolab", UserID: "1"})
	require.True(t, ok)
	other, ok := f.songs.Create(ctx, &models.Song{Title: "French Disko", Artist: "Stereolab", UserID: "2"})
	require.True(t, ok)

	artist.Name = "Stereolab Group"
	require.True(t, f.artists.Update(ctx, artist))

	found, ok := f.artists.FindByID(ctx, artist.ID)
	require.True(t, ok)
	require.Len(t, found.Albums, 1)
	require.Equal(t, "Stereolab Group", found.Albums[0].Artist)
	require.Equal(t, []string{"Miss Modular"}, titles(found.Songs))
	require.Equal(t, "Stereolab Group", found.Songs[0].Artist)

	untouched, ok := f.songs.FindByID(ctx, other.ID)
	require.True(t, ok)
	require.Equal(t, "Stereolab", untouched.Artist, "another user's songs keep their name")

	require.False(t, f.artists.Update(ctx, &models.Artist{ID: 999, Name: "Ghost"}))
}

func TestMergeArtists(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	primary, ok := f.artists.Create(ctx, &models.Artist{Name: "Artist A", UserID: "1"})
	require.True(t, ok)
	duplicate, ok := f.artists.Create(ctx, &models.Artist{Name: "Artist B", UserID: "1"})
	require.True(t, ok)

	album, ok := f.albums.Create(ctx, &models.Album{Title: "X", Artist: "Artist B", ArtistID: &duplicate.ID, UserID: "1"})
	require.True(t, ok)
	song, ok := f.songs.Create(ctx, &models.Song{Title: "Y", Artist: "Artist B", ArtistID: &duplicate.ID, UserID: "1"})
	require.True(t, ok)

	require.Equal(t, MergeApplied, f.artists.MergeArtists(ctx, primary.ID, duplicate.ID))

	gotAlbum, ok := f.albums.FindByID(ctx, album.ID)
	require.True(t, ok)
	require.Equal(t, primary.ID, *gotAlbum.ArtistID)
	require.Equal(t, "Artist A", gotAlbum.Artist)

	gotSong, ok := f.songs.FindByID(ctx, song.ID)
	require.True(t, ok)
	require.Equal(t, primary.ID, *gotSong.ArtistID)

	_, ok = f.artists.FindByID(ctx, duplicate.ID)
	require.False(t, ok)
	require.False(t, f.cache.Contains(duplicate.ID))

	require.Equal(t, MergeNoEffect, f.artists.MergeArtists(ctx, primary.ID, duplicate.ID))
	require.Equal(t, MergeRejected, f.artists.MergeArtists(ctx, 999, primary.ID))
}

func TestRemoveDuplicateArtistsIsIdempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	now := time.Now().UTC()

	insert := func(name, user string) int64 {
		var id int64
		require.NoError(t, f.db.QueryRowContext(ctx, `
			INSERT INTO artists (name, biography, user_id, created_at)
			VALUES ($1, '', $2, $3)
			RETURNING id`, name, user, now).Scan(&id))
		return id
	}
	keep := insert("Muse", "1")
	dup := insert("Muse", "1")
	insert("Muse", "2")
	insert("Blur", "1")

	_, ok := f.albums.Create(ctx, &models.Album{Title: "Absolution", Artist: "Muse", ArtistID: &dup, UserID: "1"})
	require.True(t, ok)
	song, ok := f.songs.Create(ctx, &models.Song{Title: "Hysteria", Artist: "Muse", ArtistID: &dup, UserID: "1"})
	require.True(t, ok)
	f.cache.Put(models.Artist{ID: keep, Name: "Muse", UserID: "1"})

	removed, ok := f.artists.RemoveDuplicateArtists(ctx)
	require.True(t, ok)
	require.Equal(t, 1, removed)
	require.Zero(t, f.cache.Len())
	require.Equal(t, 1, f.count(t, `SELECT COUNT(*) FROM albums WHERE artist_id = $1`, keep))
	moved, ok := f.songs.FindByID(ctx, song.ID)
	require.True(t, ok)
	require.NotNil(t, moved.ArtistID)
	require.Equal(t, keep, *moved.ArtistID)
	require.Zero(t, f.count(t, `SELECT COUNT(*) FROM songs WHERE artist_id = $1`, dup))

	before := snapshot(t, f)
	removed, ok = f.artists.RemoveDuplicateArtists(ctx)
	require.True(t, ok)
	require.Zero(t, removed)
	require.Equal(t, before, snapshot(t, f))
}

func snapshot(t *testing.T, f *fixture) []string {
	t.Helper()

	var out []string
	for _, query := range []string{
		`SELECT id, name, user_id FROM artists ORDER BY id`,
		`SELECT id, title, COALESCE(artist_id, 0) FROM albums ORDER BY id`,
		`SELECT id, title, COALESCE(artist_id, 0) FROM songs ORDER BY id`,
	} {
		rows, err := f.db.QueryContext(context.Background(), query)
		require.NoError(t, err)
		for rows.Next() {
			var (
				id    int64
				label string
				owner any
			)
			require.NoError(t, rows.Scan(&id, &label, &owner))
			out = append(out, fmt.Sprintf("%s|%d|%s|%v", query, id, label, owner))
		}
		require.NoError(t, rows.Err())
		require.NoError(t, rows.Close())
	}
	return out
}
