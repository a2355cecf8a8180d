package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"musiccrate/internal/logging"
	"musiccrate/internal/models"
)

const albumColumns = `id, title, artist, artist_id, year, genre, user_id, created_at`

const (
	attachSongQuery  = `UPDATE songs SET album_id = $1, album = $2 WHERE id = $3`
	detachSongsQuery = `UPDATE songs SET album_id = NULL, album = '' WHERE album_id = $1`
)

func scanAlbum(row scanner) (models.Album, error) {
	var (
		album    models.Album
		artistID sql.NullInt64
	)
	if err := row.Scan(&album.ID, &album.Title, &album.Artist, &artistID, &album.Year,
		&album.Genre, &album.UserID, &album.CreatedAt); err != nil {
		return models.Album{}, err
	}
	album.ArtistID = int64Ptr(artistID)
	return album, nil
}

func validateAlbum(album *models.Album) error {
	if album == nil {
		return fmt.Errorf("%w: album is required", ErrInvalidAlbum)
	}
	if strings.TrimSpace(album.Title) == "" {
		return fmt.Errorf("%w: title is required", ErrInvalidAlbum)
	}
	if album.Year < 0 {
		return fmt.Errorf("%w: year must not be negative", ErrInvalidAlbum)
	}
	if i, ok := unsavedMember(album.Songs); ok {
		return fmt.Errorf("%w: song %d has no id", ErrInvalidAlbum, i)
	}
	return nil
}

type albumRepository struct {
	db     *sql.DB
	songs  SongRepository
	logger *logging.Logger
}

// NewAlbumRepository creates an album repository that resolves members through songs.
func NewAlbumRepository(db *sql.DB, songs SongRepository, logger *logging.Logger) AlbumRepository {
	if logger == nil {
		logger = logging.Nop()
	}
	return &albumRepository{db: db, songs: songs, logger: logger.Component("albums")}
}

// Create inserts the album and attaches album.Songs in the same transaction.
// If any song cannot be attached the insert is rolled back too.
func (r *albumRepository) Create(ctx context.Context, album *models.Album) (*models.Album, bool) {
	if err := validateAlbum(album); err != nil {
		report(r.logger, "create", err)
		return nil, false
	}

	created := *album
	created.Title = strings.TrimSpace(created.Title)
	if created.CreatedAt.IsZero() {
		created.CreatedAt = time.Now().UTC()
	}
	members := songIDs(album.Songs)

	err := WithTx(ctx, r.db, r.logger, "create album", func(tx *sql.Tx) error {
		if err := tx.QueryRowContext(ctx, `
			INSERT INTO albums (title, artist, artist_id, year, genre, user_id, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			RETURNING id`,
			created.Title, created.Artist, nullIfZero(created.ArtistID), created.Year,
			created.Genre, created.UserID, created.CreatedAt,
		).Scan(&created.ID); err != nil {
			return fmt.Errorf("insert album: %w", err)
		}
		return attachSongsTx(ctx, tx, created.ID, created.Title, members)
	})
	if err != nil {
		report(r.logger, "create", err)
		return nil, false
	}

	created.Songs = r.songs.FindByAlbum(ctx, created.ID)
	return &created, true
}

func (r *albumRepository) FindByID(ctx context.Context, id int64) (*models.Album, bool) {
	album, err := scanAlbum(r.db.QueryRowContext(ctx, `
		SELECT `+albumColumns+`
		FROM albums
		WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false
	}
	if err != nil {
		report(r.logger, "find by id", fmt.Errorf("get album %d: %w", id, err))
		return nil, false
	}
	album.Songs = r.songs.FindByAlbum(ctx, album.ID)
	return &album, true
}

func (r *albumRepository) FindAll(ctx context.Context) []models.Album {
	return r.withSongs(ctx, r.list(ctx, "find all", `
		SELECT `+albumColumns+`
		FROM albums
		ORDER BY id`))
}

func (r *albumRepository) FindByUser(ctx context.Context, userID string) []models.Album {
	return r.withSongs(ctx, r.list(ctx, "find by user", `
		SELECT `+albumColumns+`
		FROM albums
		WHERE user_id = $1
		ORDER BY id`, userID))
}

func (r *albumRepository) FindByArtist(ctx context.Context, artist string) []models.Album {
	return r.withSongs(ctx, r.list(ctx, "find by artist", `
		SELECT `+albumColumns+`
		FROM albums
		WHERE LOWER(TRIM(artist)) = $1
		ORDER BY id`, normalizeName(artist)))
}

// FindForArtist returns the artist's albums without their members.
func (r *albumRepository) FindForArtist(ctx context.Context, artist models.Artist) []models.Album {
	return r.list(ctx, "find for artist", `
		SELECT `+albumColumns+`
		FROM albums
		WHERE artist_id = $1
		   OR (artist_id IS NULL AND artist = $2 AND user_id = $3)
		ORDER BY id`, artist.ID, artist.Name, artist.UserID)
}

// list reads every row before returning so member lookups never overlap an
// open result set on the shared connection.
func (r *albumRepository) list(ctx context.Context, op, query string, args ...any) []models.Album {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		report(r.logger, op, fmt.Errorf("query albums: %w", err))
		return []models.Album{}
	}
	defer rows.Close()

	albums := []models.Album{}
	for rows.Next() {
		album, err := scanAlbum(rows)
		if err != nil {
			report(r.logger, op, fmt.Errorf("scan album: %w", err))
			return []models.Album{}
		}
		albums = append(albums, album)
	}
	if err := rows.Err(); err != nil {
		report(r.logger, op, fmt.Errorf("iterate albums: %w", err))
		return []models.Album{}
	}
	return albums
}

func (r *albumRepository) withSongs(ctx context.Context, albums []models.Album) []models.Album {
	for i := range albums {
		albums[i].Songs = r.songs.FindByAlbum(ctx, albums[i].ID)
	}
	return albums
}

// Update replaces the scalar fields and the member list in one transaction.
func (r *albumRepository) Update(ctx context.Context, album *models.Album) bool {
	if err := validateAlbum(album); err != nil {
		report(r.logger, "update", err)
		return false
	}

	title := strings.TrimSpace(album.Title)
	err := WithTx(ctx, r.db, r.logger, "update album", func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
			UPDATE albums
			SET title = $1, artist = $2, artist_id = $3, year = $4, genre = $5, user_id = $6
			WHERE id = $7`,
			title, album.Artist, nullIfZero(album.ArtistID), album.Year, album.Genre, album.UserID, album.ID,
		)
		if err := expectRows(res, err, fmt.Sprintf("update album %d", album.ID)); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, detachSongsQuery, album.ID); err != nil {
			return fmt.Errorf("detach songs: %w", err)
		}
		return attachSongsTx(ctx, tx, album.ID, title, songIDs(album.Songs))
	})
	if err != nil {
		report(r.logger, "update", err)
		return false
	}
	return true
}

// Delete detaches the album's songs and removes the album row.
func (r *albumRepository) Delete(ctx context.Context, id int64) bool {
	err := WithTx(ctx, r.db, r.logger, "delete album", func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, detachSongsQuery, id); err != nil {
			return fmt.Errorf("detach songs: %w", err)
		}
		res, err := tx.ExecContext(ctx, `DELETE FROM albums WHERE id = $1`, id)
		return expectRows(res, err, fmt.Sprintf("delete album %d", id))
	})
	if err != nil {
		report(r.logger, "delete", err)
		return false
	}
	return true
}

// AddSongs attaches songIDs to the album as one batch. Adding nothing
// succeeds without opening a transaction.
func (r *albumRepository) AddSongs(ctx context.Context, albumID int64, ids []int64) bool {
	ids = uniqueIDs(ids)
	if len(ids) == 0 {
		return true
	}

	err := WithTx(ctx, r.db, r.logger, "add album songs", func(tx *sql.Tx) error {
		var title string
		err := tx.QueryRowContext(ctx, `SELECT title FROM albums WHERE id = $1`, albumID).Scan(&title)
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("album %d: %w", albumID, ErrNotFound)
		}
		if err != nil {
			return fmt.Errorf("lookup album: %w", err)
		}
		return attachSongsTx(ctx, tx, albumID, title, ids)
	})
	if err != nil {
		report(r.logger, "add songs", err)
		return false
	}
	return true
}

// RemoveSongs detaches every member of the album.
func (r *albumRepository) RemoveSongs(ctx context.Context, albumID int64) bool {
	err := WithTx(ctx, r.db, r.logger, "remove album songs", func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, detachSongsQuery, albumID); err != nil {
			return fmt.Errorf("detach songs: %w", err)
		}
		return nil
	})
	if err != nil {
		report(r.logger, "remove songs", err)
		return false
	}
	return true
}

func attachSongsTx(ctx context.Context, tx *sql.Tx, albumID int64, title string, ids []int64) error {
	ids = uniqueIDs(ids)
	argSets := make([][]any, 0, len(ids))
	for _, id := range ids {
		argSets = append(argSets, []any{albumID, title, id})
	}
	if err := execBatch(ctx, tx, attachSongQuery, argSets); err != nil {
		return fmt.Errorf("attach songs to album %d: %w", albumID, err)
	}
	return nil
}

func songIDs(songs []models.Song) []int64 {
	ids := make([]int64, 0, len(songs))
	for _, song := range songs {
		ids = append(ids, song.ID)
	}
	return ids
}
