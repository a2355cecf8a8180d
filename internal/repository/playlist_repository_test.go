package repository

import (
	"context"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"musiccrate/internal/models"
)

func TestPlaylistUpdateRollsBackMembershipOnFailure(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE playlists`)).
		WithArgs("Mix", "", "1", int64(4)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM playlist_songs WHERE playlist_id = $1`)).
		WithArgs(int64(4)).
		WillReturnResult(sqlmock.NewResult(0, 2))
	prep := mock.ExpectPrepare(regexp.QuoteMeta(insertMemberQuery))
	prep.ExpectExec().WithArgs(int64(4), int64(3), 0).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	repo := NewPlaylistRepository(db, NewSongRepository(db, nil), nil)
	ok := repo.Update(context.Background(), &models.Playlist{
		ID:     4,
		Name:   "Mix",
		UserID: "1",
		Songs:  []models.Song{{ID: 3}},
	})
	if ok {
		t.Fatalf("expected update to fail")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestPlaylistUpdateMissingPlaylistSkipsMembership(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE playlists`)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	repo := NewPlaylistRepository(db, NewSongRepository(db, nil), nil)
	if repo.Update(context.Background(), &models.Playlist{ID: 9, Name: "Gone"}) {
		t.Fatalf("expected update of a missing playlist to fail")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestPlaylistUpdateReplacesMembership(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	one, two, three := f.song(t, "one"), f.song(t, "two"), f.song(t, "three")

	playlist, ok := f.playlists.Create(ctx, &models.Playlist{
		Name:   "Road",
		UserID: "1",
		Songs:  []models.Song{one, two},
	})
	require.True(t, ok)
	require.Equal(t, []string{"one", "two"}, titles(playlist.Songs))

	playlist.Songs = []models.Song{three}
	require.True(t, f.playlists.Update(ctx, playlist))

	found, ok := f.playlists.FindByID(ctx, playlist.ID)
	require.True(t, ok)
	require.Equal(t, []string{"three"}, titles(found.Songs))
	require.Equal(t, 1, f.count(t, `SELECT COUNT(*) FROM playlist_songs WHERE playlist_id = $1`, playlist.ID))
}

func TestPlaylistCreateWithMissingSongFails(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	one := f.song(t, "one")

	_, ok := f.playlists.Create(ctx, &models.Playlist{
		Name:   "Broken",
		UserID: "1",
		Songs:  []models.Song{one, {ID: 999}},
	})
	require.False(t, ok)
	require.Zero(t, f.count(t, `SELECT COUNT(*) FROM playlists`))
	require.Zero(t, f.count(t, `SELECT COUNT(*) FROM playlist_songs`))
}

func TestPlaylistAddSongsAppends(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	one, two, three := f.song(t, "one"), f.song(t, "two"), f.song(t, "three")

	playlist, ok := f.playlists.Create(ctx, &models.Playlist{Name: "Road", UserID: "1", Songs: []models.Song{two}})
	require.True(t, ok)

	require.True(t, f.playlists.AddSongs(ctx, playlist.ID, []int64{three.ID, one.ID, three.ID}))
	require.True(t, f.playlists.AddSongs(ctx, playlist.ID, nil))
	require.Equal(t, []string{"two", "three", "one"}, titles(f.songs.FindByPlaylist(ctx, playlist.ID)))

	// already a member
	require.False(t, f.playlists.AddSongs(ctx, playlist.ID, []int64{one.ID}))
	require.Len(t, f.songs.FindByPlaylist(ctx, playlist.ID), 3)
}

func TestPlaylistRemoveSong(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	one, two := f.song(t, "one"), f.song(t, "two")

	playlist, ok := f.playlists.Create(ctx, &models.Playlist{Name: "Road", UserID: "1", Songs: []models.Song{one, two}})
	require.True(t, ok)

	require.True(t, f.playlists.RemoveSong(ctx, playlist.ID, one.ID))
	require.False(t, f.playlists.RemoveSong(ctx, playlist.ID, one.ID))
	require.Equal(t, []string{"two"}, titles(f.songs.FindByPlaylist(ctx, playlist.ID)))

	require.True(t, f.playlists.RemoveSongs(ctx, playlist.ID))
	require.Empty(t, f.songs.FindByPlaylist(ctx, playlist.ID))

	_, ok = f.songs.FindByID(ctx, two.ID)
	require.True(t, ok, "removing a member must keep the song")
}

func TestPlaylistDelete(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	one := f.song(t, "one")

	playlist, ok := f.playlists.Create(ctx, &models.Playlist{Name: "Road", UserID: "1", Songs: []models.Song{one}})
	require.True(t, ok)

	require.True(t, f.playlists.Delete(ctx, playlist.ID))
	_, ok = f.playlists.FindByID(ctx, playlist.ID)
	require.False(t, ok)
	require.Zero(t, f.count(t, `SELECT COUNT(*) FROM playlist_songs`))
	require.False(t, f.playlists.Delete(ctx, playlist.ID))
}

func TestPlaylistFindByUser(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	one := f.song(t, "one")

	_, ok := f.playlists.Create(ctx, &models.Playlist{Name: "A", UserID: "alice", Songs: []models.Song{one}})
	require.True(t, ok)
	_, ok = f.playlists.Create(ctx, &models.Playlist{Name: "B", UserID: "bob"})
	require.True(t, ok)

	mine := f.playlists.FindByUser(ctx, "alice")
	require.Len(t, mine, 1)
	require.Equal(t, []string{"one"}, titles(mine[0].Songs))
	require.Len(t, f.playlists.FindAll(ctx), 2)

	_, ok = f.playlists.Create(ctx, &models.Playlist{Name: "  "})
	require.False(t, ok)
}

func TestPlaylistRejectsUnsavedMembers(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	saved := f.song(t, "saved")

	_, ok := f.playlists.Create(ctx, &models.Playlist{Name: "Road", UserID: "1", Songs: []models.Song{{Title: "B"}}})
	require.False(t, ok)
	require.Zero(t, f.count(t, `SELECT COUNT(*) FROM playlists`))

	playlist, ok := f.playlists.Create(ctx, &models.Playlist{Name: "Road", UserID: "1", Songs: []models.Song{saved}})
	require.True(t, ok)

	playlist.Songs = []models.Song{{Title: "B"}}
	require.False(t, f.playlists.Update(ctx, playlist))
	require.False(t, f.playlists.AddSongs(ctx, playlist.ID, []int64{0}))
	require.Equal(t, []string{"saved"}, titles(f.songs.FindByPlaylist(ctx, playlist.ID)))
}
