package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"musiccrate/internal/library"
	"musiccrate/internal/models"
	"musiccrate/internal/repository"
)

func songRefs(ids []int64) []models.Song {
	songs := make([]models.Song, 0, len(ids))
	for _, id := range ids {
		songs = append(songs, models.Song{ID: id})
	}
	return songs
}

// ArtistsList prints artists, optionally filtered by user or name.
func (r *Runner) ArtistsList(ctx context.Context, cmd *cli.Command) error {
	lib, err := r.open(ctx)
	if err != nil {
		return err
	}
	switch {
	case cmd.String("name") != "":
		return r.writeJSON(lib.Artists.FindByName(ctx, cmd.String("name")))
	case cmd.String("user") != "":
		return r.writeJSON(lib.Artists.FindByUser(ctx, cmd.String("user")))
	default:
		return r.writeJSON(lib.Artists.FindAll(ctx))
	}
}

// ArtistsShow prints one artist with albums and songs.
func (r *Runner) ArtistsShow(ctx context.Context, cmd *cli.Command) error {
	lib, err := r.open(ctx)
	if err != nil {
		return err
	}
	artist, ok := lib.Artists.FindByID(ctx, cmd.Int64("id"))
	if !ok {
		return fmt.Errorf("%w: artist %d", library.ErrNotFound, cmd.Int64("id"))
	}
	return r.writeJSON(artist)
}

// ArtistsAdd creates an artist.
func (r *Runner) ArtistsAdd(ctx context.Context, cmd *cli.Command) error {
	lib, err := r.open(ctx)
	if err != nil {
		return err
	}
	artist, ok := lib.Artists.Create(ctx, &models.Artist{
		Name:      cmd.String("name"),
		Biography: cmd.String("bio"),
		UserID:    cmd.String("user"),
	})
	if !ok {
		return fmt.Errorf("%w: create artist %q", library.ErrFailed, cmd.String("name"))
	}
	return r.writePlain("created artist %d\n", artist.ID)
}

// ArtistsDelete removes an artist.
func (r *Runner) ArtistsDelete(ctx context.Context, cmd *cli.Command) error {
	lib, err := r.open(ctx)
	if err != nil {
		return err
	}
	if !lib.Artists.Delete(ctx, cmd.Int64("id")) {
		return fmt.Errorf("%w: delete artist %d", library.ErrFailed, cmd.Int64("id"))
	}
	return nil
}

// ArtistsMerge merges the duplicate artist into the primary one.
func (r *Runner) ArtistsMerge(ctx context.Context, cmd *cli.Command) error {
	lib, err := r.open(ctx)
	if err != nil {
		return err
	}
	primary, duplicate := cmd.Int64("primary"), cmd.Int64("duplicate")
	result := lib.Artists.MergeArtists(ctx, primary, duplicate)
	if result == repository.MergeFailed || result == repository.MergeRejected {
		return fmt.Errorf("%w: merge %d into %d: %s", library.ErrFailed, duplicate, primary, result)
	}
	return r.writePlain("merge %d into %d: %s\n", duplicate, primary, result)
}

// ArtistsDedupe merges artists sharing a name.
func (r *Runner) ArtistsDedupe(ctx context.Context, cmd *cli.Command) error {
	lib, err := r.open(ctx)
	if err != nil {
		return err
	}
	removed, ok := lib.Artists.RemoveDuplicateArtists(ctx)
	if !ok {
		return fmt.Errorf("%w: remove duplicate artists (%d removed before the failure)", library.ErrFailed, removed)
	}
	return r.writePlain("removed %d duplicate artists\n", removed)
}

// AlbumsList prints albums, optionally for one user.
func (r *Runner) AlbumsList(ctx context.Context, cmd *cli.Command) error {
	lib, err := r.open(ctx)
	if err != nil {
		return err
	}
	if user := cmd.String("user"); user != "" {
		return r.writeJSON(lib.Albums.FindByUser(ctx, user))
	}
	return r.writeJSON(lib.Albums.FindAll(ctx))
}

// AlbumsShow prints one album with its songs.
func (r *Runner) AlbumsShow(ctx context.Context, cmd *cli.Command) error {
	lib, err := r.open(ctx)
	if err != nil {
		return err
	}
	album, ok := lib.Albums.FindByID(ctx, cmd.Int64("id"))
	if !ok {
		return fmt.Errorf("%w: album %d", library.ErrNotFound, cmd.Int64("id"))
	}
	return r.writeJSON(album)
}

// AlbumsAdd creates an album linked to its artist, attaching existing songs.
func (r *Runner) AlbumsAdd(ctx context.Context, cmd *cli.Command) error {
	lib, err := r.open(ctx)
	if err != nil {
		return err
	}
	user := cmd.String("user")
	artist, ok := lib.Artists.FindOrCreate(ctx, cmd.String("artist"), user)
	if !ok {
		return fmt.Errorf("%w: resolve artist %q", library.ErrFailed, cmd.String("artist"))
	}

	album, ok := lib.Albums.Create(ctx, &models.Album{
		Title:    cmd.String("title"),
		Artist:   artist.Name,
		ArtistID: &artist.ID,
		Year:     cmd.Int("year"),
		Genre:    cmd.String("genre"),
		UserID:   user,
		Songs:    songRefs(cmd.Int64Slice("song")),
	})
	if !ok {
		return fmt.Errorf("%w: create album %q", library.ErrFailed, cmd.String("title"))
	}
	return r.writePlain("created album %d with %d songs\n", album.ID, len(album.Songs))
}

// AlbumsDelete removes an album and detaches its songs.
func (r *Runner) AlbumsDelete(ctx context.Context, cmd *cli.Command) error {
	lib, err := r.open(ctx)
	if err != nil {
		return err
	}
	if !lib.Albums.Delete(ctx, cmd.Int64("id")) {
		return fmt.Errorf("%w: delete album %d", library.ErrFailed, cmd.Int64("id"))
	}
	return nil
}

// SongsList prints songs, optionally for one user.
func (r *Runner) SongsList(ctx context.Context, cmd *cli.Command) error {
	lib, err := r.open(ctx)
	if err != nil {
		return err
	}
	if user := cmd.String("user"); user != "" {
		return r.writeJSON(lib.Songs.FindByUser(ctx, user))
	}
	return r.writeJSON(lib.Songs.FindAll(ctx))
}

// SongsAdd creates a song.
func (r *Runner) SongsAdd(ctx context.Context, cmd *cli.Command) error {
	lib, err := r.open(ctx)
	if err != nil {
		return err
	}
	song := &models.Song{
		Title:    cmd.String("title"),
		Artist:   cmd.String("artist"),
		Genre:    cmd.String("genre"),
		Year:     cmd.Int("year"),
		Duration: cmd.Int("duration"),
		FilePath: cmd.String("file"),
		UserID:   cmd.String("user"),
	}
	if song.Artist != "" {
		if artist, ok := lib.Artists.FindOrCreate(ctx, song.Artist, song.UserID); ok {
			song.Artist = artist.Name
			song.ArtistID = &artist.ID
		}
	}

	created, ok := lib.Songs.Create(ctx, song)
	if !ok {
		return fmt.Errorf("%w: create song %q", library.ErrFailed, song.Title)
	}
	return r.writePlain("created song %d\n", created.ID)
}

// SongsDelete removes a song.
func (r *Runner) SongsDelete(ctx context.Context, cmd *cli.Command) error {
	lib, err := r.open(ctx)
	if err != nil {
		return err
	}
	if !lib.Songs.Delete(ctx, cmd.Int64("id")) {
		return fmt.Errorf("%w: delete song %d", library.ErrFailed, cmd.Int64("id"))
	}
	return nil
}

// SongsSearch prints songs matching the filter.
func (r *Runner) SongsSearch(ctx context.Context, cmd *cli.Command) error {
	lib, err := r.open(ctx)
	if err != nil {
		return err
	}
	return r.writeJSON(lib.Songs.Search(ctx, models.SongFilter{
		UserID: cmd.String("user"),
		Title:  cmd.String("title"),
		Artist: cmd.String("artist"),
		Genre:  cmd.String("genre"),
		Limit:  cmd.Int("limit"),
	}))
}

// PlaylistsList prints playlists, optionally for one user.
func (r *Runner) PlaylistsList(ctx context.Context, cmd *cli.Command) error {
	lib, err := r.open(ctx)
	if err != nil {
		return err
	}
	if user := cmd.String("user"); user != "" {
		return r.writeJSON(lib.Playlists.FindByUser(ctx, user))
	}
	return r.writeJSON(lib.Playlists.FindAll(ctx))
}

// PlaylistsShow prints one playlist with its songs.
func (r *Runner) PlaylistsShow(ctx context.Context, cmd *cli.Command) error {
	lib, err := r.open(ctx)
	if err != nil {
		return err
	}
	playlist, ok := lib.Playlists.FindByID(ctx, cmd.Int64("id"))
	if !ok {
		return fmt.Errorf("%w: playlist %d", library.ErrNotFound, cmd.Int64("id"))
	}
	return r.writeJSON(playlist)
}

// PlaylistsAdd creates a playlist.
func (r *Runner) PlaylistsAdd(ctx context.Context, cmd *cli.Command) error {
	lib, err := r.open(ctx)
	if err != nil {
		return err
	}
	playlist, ok := lib.Playlists.Create(ctx, &models.Playlist{
		Name:        cmd.String("name"),
		Description: cmd.String("description"),
		UserID:      cmd.String("user"),
		Songs:       songRefs(cmd.Int64Slice("song")),
	})
	if !ok {
		return fmt.Errorf("%w: create playlist %q", library.ErrFailed, cmd.String("name"))
	}
	return r.writePlain("created playlist %d with %d songs\n", playlist.ID, len(playlist.Songs))
}

// PlaylistsSetSongs replaces the membership of a playlist.
func (r *Runner) PlaylistsSetSongs(ctx context.Context, cmd *cli.Command) error {
	lib, err := r.open(ctx)
	if err != nil {
		return err
	}
	playlist, ok := lib.Playlists.FindByID(ctx, cmd.Int64("id"))
	if !ok {
		return fmt.Errorf("%w: playlist %d", library.ErrNotFound, cmd.Int64("id"))
	}
	playlist.Songs = songRefs(cmd.Int64Slice("song"))
	if !lib.Playlists.Update(ctx, playlist) {
		return fmt.Errorf("%w: update playlist %d", library.ErrFailed, playlist.ID)
	}
	return nil
}

// PlaylistsDelete removes a playlist.
func (r *Runner) PlaylistsDelete(ctx context.Context, cmd *cli.Command) error {
	lib, err := r.open(ctx)
	if err != nil {
		return err
	}
	if !lib.Playlists.Delete(ctx, cmd.Int64("id")) {
		return fmt.Errorf("%w: delete playlist %d", library.ErrFailed, cmd.Int64("id"))
	}
	return nil
}
