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

const (
	songColumns = `id, title, artist, artist_id, album, genre, year, duration, file_path, user_id, album_id, created_at`
	// songColumnsJoined is songColumns qualified with the "s" alias for joins.
	songColumnsJoined = `s.id, s.title, s.artist, s.artist_id, s.album, s.genre, s.year, s.duration, s.file_path, s.user_id, s.album_id, s.created_at`
)

type scanner interface {
	Scan(dest ...any) error
}

// songRow is the single row-to-Song mapping shared by every repository that
// reads songs, directly or through a join.
type songRow struct {
	song     models.Song
	artistID sql.NullInt64
	albumID  sql.NullInt64
}

func (r *songRow) targets() []any {
	return []any{
		&r.song.ID, &r.song.Title, &r.song.Artist, &r.artistID, &r.song.Album, &r.song.Genre,
		&r.song.Year, &r.song.Duration, &r.song.FilePath, &r.song.UserID, &r.albumID, &r.song.CreatedAt,
	}
}

func (r *songRow) value() models.Song {
	song := r.song
	song.ArtistID = int64Ptr(r.artistID)
	song.AlbumID = int64Ptr(r.albumID)
	return song
}

func scanSong(row scanner) (models.Song, error) {
	var r songRow
	if err := row.Scan(r.targets()...); err != nil {
		return models.Song{}, err
	}
	return r.value(), nil
}

type songRepository struct {
	db     *sql.DB
	logger *logging.Logger
}

// NewSongRepository creates a new song repository
func NewSongRepository(db *sql.DB, logger *logging.Logger) SongRepository {
	if logger == nil {
		logger = logging.Nop()
	}
	return &songRepository{db: db, logger: logger.Component("songs")}
}

func validateSong(song *models.Song) error {
	if song == nil {
		return fmt.Errorf("%w: song is required", ErrInvalidSong)
	}
	if strings.TrimSpace(song.Title) == "" {
		return fmt.Errorf("%w: title is required", ErrInvalidSong)
	}
	if song.Duration < 0 {
		return fmt.Errorf("%w: duration must not be negative", ErrInvalidSong)
	}
	if song.Year < 0 {
		return fmt.Errorf("%w: year must not be negative", ErrInvalidSong)
	}
	return nil
}

func (r *songRepository) Create(ctx context.Context, song *models.Song) (*models.Song, bool) {
	created, err := r.create(ctx, song)
	if err != nil {
		report(r.logger, "create", err)
		return nil, false
	}
	return created, true
}

func (r *songRepository) create(ctx context.Context, song *models.Song) (*models.Song, error) {
	if err := validateSong(song); err != nil {
		return nil, err
	}

	created := *song
	created.Title = strings.TrimSpace(created.Title)
	if created.CreatedAt.IsZero() {
		created.CreatedAt = time.Now().UTC()
	}

	err := r.db.QueryRowContext(ctx, `
		INSERT INTO songs (title, artist, artist_id, album, genre, year, duration, file_path, user_id, album_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id`,
		created.Title, created.Artist, nullIfZero(created.ArtistID), created.Album, created.Genre,
		created.Year, created.Duration, created.FilePath, created.UserID, nullIfZero(created.AlbumID), created.CreatedAt,
	).Scan(&created.ID)
	if err != nil {
		return nil, fmt.Errorf("insert song: %w", err)
	}
	return &created, nil
}

func (r *songRepository) FindByID(ctx context.Context, id int64) (*models.Song, bool) {
	song, err := scanSong(r.db.QueryRowContext(ctx, `
		SELECT `+songColumns+`
		FROM songs
		WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false
	}
	if err != nil {
		report(r.logger, "find by id", fmt.Errorf("get song %d: %w", id, err))
		return nil, false
	}
	return &song, true
}

func (r *songRepository) FindAll(ctx context.Context) []models.Song {
	return r.list(ctx, "find all", `
		SELECT `+songColumns+`
		FROM songs
		ORDER BY id`)
}

func (r *songRepository) FindByUser(ctx context.Context, userID string) []models.Song {
	return r.list(ctx, "find by user", `
		SELECT `+songColumns+`
		FROM songs
		WHERE user_id = $1
		ORDER BY id`, userID)
}

func (r *songRepository) FindByArtist(ctx context.Context, artist string) []models.Song {
	return r.list(ctx, "find by artist", `
		SELECT `+songColumns+`
		FROM songs
		WHERE LOWER(TRIM(artist)) = $1
		ORDER BY id`, normalizeName(artist))
}

func (r *songRepository) FindByAlbum(ctx context.Context, albumID int64) []models.Song {
	return r.list(ctx, "find by album", `
		SELECT `+songColumns+`
		FROM songs
		WHERE album_id = $1
		ORDER BY id`, albumID)
}

func (r *songRepository) FindByPlaylist(ctx context.Context, playlistID int64) []models.Song {
	return r.list(ctx, "find by playlist", `
		SELECT `+songColumnsJoined+`
		FROM songs s
		JOIN playlist_songs ps ON ps.song_id = s.id
		WHERE ps.playlist_id = $1
		ORDER BY ps.position, s.id`, playlistID)
}

// FindForArtist returns songs linked to the artist by id, plus unlinked songs
// of the same user carrying the artist's name.
func (r *songRepository) FindForArtist(ctx context.Context, artist models.Artist) []models.Song {
	return r.list(ctx, "find for artist", `
		SELECT `+songColumns+`
		FROM songs
		WHERE artist_id = $1
		   OR (artist_id IS NULL AND artist = $2 AND user_id = $3)
		ORDER BY id`, artist.ID, artist.Name, artist.UserID)
}

func (r *songRepository) Search(ctx context.Context, filter models.SongFilter) []models.Song {
	query := `
		SELECT ` + songColumns + `
		FROM songs
		WHERE 1=1`
	args := []any{}
	argIdx := 1

	if filter.UserID != "" {
		query += fmt.Sprintf(" AND user_id = $%d", argIdx)
		args = append(args, filter.UserID)
		argIdx++
	}
	if filter.Title != "" {
		query += fmt.Sprintf(" AND LOWER(title) LIKE $%d", argIdx)
		args = append(args, "%"+strings.ToLower(filter.Title)+"%")
		argIdx++
	}
	if filter.Artist != "" {
		query += fmt.Sprintf(" AND LOWER(artist) LIKE $%d", argIdx)
		args = append(args, "%"+strings.ToLower(filter.Artist)+"%")
		argIdx++
	}
	if filter.Genre != "" {
		query += fmt.Sprintf(" AND LOWER(genre) = $%d", argIdx)
		args = append(args, strings.ToLower(filter.Genre))
		argIdx++
	}

	query += " ORDER BY id"
	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argIdx)
		args = append(args, filter.Limit)
	}

	return r.list(ctx, "search", query, args...)
}

func (r *songRepository) list(ctx context.Context, op, query string, args ...any) []models.Song {
	songs, err := querySongs(ctx, r.db, query, args...)
	if err != nil {
		report(r.logger, op, err)
		return []models.Song{}
	}
	return songs
}

type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func querySongs(ctx context.Context, q queryer, query string, args ...any) ([]models.Song, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query songs: %w", err)
	}
	defer rows.Close()

	songs := []models.Song{}
	for rows.Next() {
		song, err := scanSong(rows)
		if err != nil {
			return nil, fmt.Errorf("scan song: %w", err)
		}
		songs = append(songs, song)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate songs: %w", err)
	}
	return songs, nil
}

func (r *songRepository) Update(ctx context.Context, song *models.Song) bool {
	if err := r.update(ctx, song); err != nil {
		report(r.logger, "update", err)
		return false
	}
	return true
}

func (r *songRepository) update(ctx context.Context, song *models.Song) error {
	if err := validateSong(song); err != nil {
		return err
	}

	res, err := r.db.ExecContext(ctx, `
		UPDATE songs
		SET title = $1, artist = $2, artist_id = $3, album = $4, genre = $5, year = $6,
		    duration = $7, file_path = $8, user_id = $9, album_id = $10
		WHERE id = $11`,
		strings.TrimSpace(song.Title), song.Artist, nullIfZero(song.ArtistID), song.Album, song.Genre, song.Year,
		song.Duration, song.FilePath, song.UserID, nullIfZero(song.AlbumID), song.ID,
	)
	return expectRows(res, err, fmt.Sprintf("update song %d", song.ID))
}

// Delete removes the song together with its playlist memberships and statistics.
func (r *songRepository) Delete(ctx context.Context, id int64) bool {
	err := WithTx(ctx, r.db, r.logger, "delete song", func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM playlist_songs WHERE song_id = $1`, id); err != nil {
			return fmt.Errorf("delete playlist memberships: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM user_song_statistics WHERE song_id = $1`, id); err != nil {
			return fmt.Errorf("delete statistics: %w", err)
		}
		res, err := tx.ExecContext(ctx, `DELETE FROM songs WHERE id = $1`, id)
		return expectRows(res, err, fmt.Sprintf("delete song %d", id))
	})
	if err != nil {
		report(r.logger, "delete", err)
		return false
	}
	return true
}
