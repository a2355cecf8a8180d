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

const playlistColumns = `id, name, description, user_id, created_at`

const insertMemberQuery = `INSERT INTO playlist_songs (playlist_id, song_id, position) VALUES ($1, $2, $3)`

func scanPlaylist(row scanner) (models.Playlist, error) {
	var playlist models.Playlist
	if err := row.Scan(&playlist.ID, &playlist.Name, &playlist.Description, &playlist.UserID, &playlist.CreatedAt); err != nil {
		return models.Playlist{}, err
	}
	return playlist, nil
}

func validatePlaylist(playlist *models.Playlist) error {
	if playlist == nil {
		return fmt.Errorf("%w: playlist is required", ErrInvalidPlaylist)
	}
	if strings.TrimSpace(playlist.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidPlaylist)
	}
	if i, ok := unsavedMember(playlist.Songs); ok {
		return fmt.Errorf("%w: song %d has no id", ErrInvalidPlaylist, i)
	}
	return nil
}

type playlistRepository struct {
	db     *sql.DB
	songs  SongRepository
	logger *logging.Logger
}

// NewPlaylistRepository creates a playlist repository that resolves members through songs.
func NewPlaylistRepository(db *sql.DB, songs SongRepository, logger *logging.Logger) PlaylistRepository {
	if logger == nil {
		logger = logging.Nop()
	}
	return &playlistRepository{db: db, songs: songs, logger: logger.Component("playlists")}
}

// Create inserts the playlist and its memberships in one transaction.
func (r *playlistRepository) Create(ctx context.Context, playlist *models.Playlist) (*models.Playlist, bool) {
	if err := validatePlaylist(playlist); err != nil {
		report(r.logger, "create", err)
		return nil, false
	}

	created := *playlist
	created.Name = strings.TrimSpace(created.Name)
	if created.CreatedAt.IsZero() {
		created.CreatedAt = time.Now().UTC()
	}

	err := WithTx(ctx, r.db, r.logger, "create playlist", func(tx *sql.Tx) error {
		if err := tx.QueryRowContext(ctx, `
			INSERT INTO playlists (name, description, user_id, created_at)
			VALUES ($1, $2, $3, $4)
			RETURNING id`,
			created.Name, created.Description, created.UserID, created.CreatedAt,
		).Scan(&created.ID); err != nil {
			return fmt.Errorf("insert playlist: %w", err)
		}
		return insertMembersTx(ctx, tx, created.ID, playlist.SongIDs(), 0)
	})
	if err != nil {
		report(r.logger, "create", err)
		return nil, false
	}

	created.Songs = r.songs.FindByPlaylist(ctx, created.ID)
	return &created, true
}

func (r *playlistRepository) FindByID(ctx context.Context, id int64) (*models.Playlist, bool) {
	playlist, err := scanPlaylist(r.db.QueryRowContext(ctx, `
		SELECT `+playlistColumns+`
		FROM playlists
		WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false
	}
	if err != nil {
		report(r.logger, "find by id", fmt.Errorf("get playlist %d: %w", id, err))
		return nil, false
	}
	playlist.Songs = r.songs.FindByPlaylist(ctx, playlist.ID)
	return &playlist, true
}

func (r *playlistRepository) FindAll(ctx context.Context) []models.Playlist {
	return r.list(ctx, "find all", `
		SELECT `+playlistColumns+`
		FROM playlists
		ORDER BY id`)
}

func (r *playlistRepository) FindByUser(ctx context.Context, userID string) []models.Playlist {
	return r.list(ctx, "find by user", `
		SELECT `+playlistColumns+`
		FROM playlists
		WHERE user_id = $1
		ORDER BY id`, userID)
}

func (r *playlistRepository) list(ctx context.Context, op, query string, args ...any) []models.Playlist {
	playlists, err := r.query(ctx, query, args...)
	if err != nil {
		report(r.logger, op, err)
		return []models.Playlist{}
	}
	for i := range playlists {
		playlists[i].Songs = r.songs.FindByPlaylist(ctx, playlists[i].ID)
	}
	return playlists
}

func (r *playlistRepository) query(ctx context.Context, query string, args ...any) ([]models.Playlist, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list playlists: %w", err)
	}
	defer rows.Close()

	playlists := []models.Playlist{}
	for rows.Next() {
		playlist, err := scanPlaylist(rows)
		if err != nil {
			return nil, fmt.Errorf("scan playlist: %w", err)
		}
		playlists = append(playlists, playlist)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate playlists: %w", err)
	}
	return playlists, nil
}

// Update replaces the scalar fields and the full membership in one
// transaction: existing rows are deleted and the current list is inserted.
func (r *playlistRepository) Update(ctx context.Context, playlist *models.Playlist) bool {
	if err := validatePlaylist(playlist); err != nil {
		report(r.logger, "update", err)
		return false
	}

	err := WithTx(ctx, r.db, r.logger, "update playlist", func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
			UPDATE playlists
			SET name = $1, description = $2, user_id = $3
			WHERE id = $4`,
			strings.TrimSpace(playlist.Name), playlist.Description, playlist.UserID, playlist.ID,
		)
		if err := expectRows(res, err, fmt.Sprintf("update playlist %d", playlist.ID)); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM playlist_songs WHERE playlist_id = $1`, playlist.ID); err != nil {
			return fmt.Errorf("clear playlist songs: %w", err)
		}
		return insertMembersTx(ctx, tx, playlist.ID, playlist.SongIDs(), 0)
	})
	if err != nil {
		report(r.logger, "update", err)
		return false
	}
	return true
}

// Delete removes the playlist's memberships and then the playlist row.
func (r *playlistRepository) Delete(ctx context.Context, id int64) bool {
	err := WithTx(ctx, r.db, r.logger, "delete playlist", func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM playlist_songs WHERE playlist_id = $1`, id); err != nil {
			return fmt.Errorf("clear playlist songs: %w", err)
		}
		res, err := tx.ExecContext(ctx, `DELETE FROM playlists WHERE id = $1`, id)
		return expectRows(res, err, fmt.Sprintf("delete playlist %d", id))
	})
	if err != nil {
		report(r.logger, "delete", err)
		return false
	}
	return true
}

// AddSongs appends songIDs after the current last position as one batch.
// Adding nothing succeeds without opening a transaction.
func (r *playlistRepository) AddSongs(ctx context.Context, playlistID int64, ids []int64) bool {
	ids = uniqueIDs(ids)
	if len(ids) == 0 {
		return true
	}

	err := WithTx(ctx, r.db, r.logger, "add playlist songs", func(tx *sql.Tx) error {
		var next int
		if err := tx.QueryRowContext(ctx, `
			SELECT COALESCE(MAX(position) + 1, 0)
			FROM playlist_songs
			WHERE playlist_id = $1`, playlistID).Scan(&next); err != nil {
			return fmt.Errorf("next position: %w", err)
		}
		return insertMembersTx(ctx, tx, playlistID, ids, next)
	})
	if err != nil {
		report(r.logger, "add songs", err)
		return false
	}
	return true
}

// RemoveSongs deletes every membership of the playlist.
func (r *playlistRepository) RemoveSongs(ctx context.Context, playlistID int64) bool {
	err := WithTx(ctx, r.db, r.logger, "remove playlist songs", func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM playlist_songs WHERE playlist_id = $1`, playlistID); err != nil {
			return fmt.Errorf("clear playlist songs: %w", err)
		}
		return nil
	})
	if err != nil {
		report(r.logger, "remove songs", err)
		return false
	}
	return true
}

func (r *playlistRepository) RemoveSong(ctx context.Context, playlistID, songID int64) bool {
	res, err := r.db.ExecContext(ctx, `
		DELETE FROM playlist_songs
		WHERE playlist_id = $1 AND song_id = $2`, playlistID, songID)
	if err := expectRows(res, err, fmt.Sprintf("remove song %d from playlist %d", songID, playlistID)); err != nil {
		report(r.logger, "remove song", err)
		return false
	}
	return true
}

func insertMembersTx(ctx context.Context, tx *sql.Tx, playlistID int64, ids []int64, start int) error {
	ids = uniqueIDs(ids)
	argSets := make([][]any, 0, len(ids))
	for idx, id := range ids {
		argSets = append(argSets, []any{playlistID, id, start + idx})
	}
	if err := execBatch(ctx, tx, insertMemberQuery, argSets); err != nil {
		return fmt.Errorf("insert playlist songs: %w", err)
	}
	return nil
}
