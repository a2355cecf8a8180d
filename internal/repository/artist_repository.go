package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"musiccrate/internal/logging"
	"musiccrate/internal/models"
)

const artistColumns = `id, name, biography, user_id, created_at`

// MergeResult is the caller-visible outcome of merging one artist into another.
type MergeResult int

const (
	// MergeFailed means a store fault rolled the merge back.
	MergeFailed MergeResult = iota
	// MergeApplied means references moved and the duplicate row is gone.
	MergeApplied
	// MergeNoEffect means the duplicate did not exist; nothing changed.
	MergeNoEffect
	// MergeRejected means the pair was refused before touching the store.
	MergeRejected
)

func (m MergeResult) String() string {
	switch m {
	case MergeApplied:
		return "applied"
	case MergeNoEffect:
		return "no effect"
	case MergeRejected:
		return "rejected"
	default:
		return "failed"
	}
}

func scanArtist(row scanner) (models.Artist, error) {
	var artist models.Artist
	if err := row.Scan(&artist.ID, &artist.Name, &artist.Biography, &artist.UserID, &artist.CreatedAt); err != nil {
		return models.Artist{}, err
	}
	return artist, nil
}

func validateArtist(artist *models.Artist) error {
	if artist == nil {
		return fmt.Errorf("%w: artist is required", ErrInvalidArtist)
	}
	if strings.TrimSpace(artist.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidArtist)
	}
	return nil
}

// artistRepository serializes every operation behind mu, covering both the
// cache and the store round trips.
type artistRepository struct {
	mu     sync.Mutex
	db     *sql.DB
	cache  *ArtistCache
	albums AlbumRepository
	songs  SongRepository
	logger *logging.Logger
}

// NewArtistRepository creates an artist repository backed by cache. Derived
// album and song lists are read through albums and songs.
func NewArtistRepository(db *sql.DB, cache *ArtistCache, albums AlbumRepository, songs SongRepository, logger *logging.Logger) ArtistRepository {
	if logger == nil {
		logger = logging.Nop()
	}
	if cache == nil {
		cache = NewArtistCache()
	}
	return &artistRepository{
		db:     db,
		cache:  cache,
		albums: albums,
		songs:  songs,
		logger: logger.Component("artists"),
	}
}

func (r *artistRepository) Create(ctx context.Context, artist *models.Artist) (*models.Artist, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	created, err := r.create(ctx, artist)
	if err != nil {
		report(r.logger, "create", err)
		return nil, false
	}
	return created, true
}

func (r *artistRepository) create(ctx context.Context, artist *models.Artist) (*models.Artist, error) {
	if err := validateArtist(artist); err != nil {
		return nil, err
	}

	created := scalar(*artist)
	created.Name = strings.TrimSpace(created.Name)
	if created.CreatedAt.IsZero() {
		created.CreatedAt = time.Now().UTC()
	}

	taken, err := r.nameTaken(ctx, created.Name, created.UserID, 0)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, fmt.Errorf("%w: %q", ErrArtistExists, created.Name)
	}

	if err := r.db.QueryRowContext(ctx, `
		INSERT INTO artists (name, biography, user_id, created_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id`,
		created.Name, created.Biography, created.UserID, created.CreatedAt,
	).Scan(&created.ID); err != nil {
		return nil, fmt.Errorf("insert artist: %w", err)
	}

	r.cache.Put(created)
	return &created, nil
}

// FindOrCreate returns the user's artist with the given name, creating it if needed.
func (r *artistRepository) FindOrCreate(ctx context.Context, name, userID string) (*models.Artist, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, err := r.query(ctx, `
		SELECT `+artistColumns+`
		FROM artists
		WHERE LOWER(TRIM(name)) = $1 AND user_id = $2
		ORDER BY id
		LIMIT 1`, normalizeName(name), userID)
	if err != nil {
		report(r.logger, "find or create", err)
		return nil, false
	}
	if len(existing) > 0 {
		r.cache.Put(existing[0])
		artist := r.populate(ctx, existing[0])
		return &artist, true
	}

	created, err := r.create(ctx, &models.Artist{Name: name, UserID: userID})
	if err != nil {
		report(r.logger, "find or create", err)
		return nil, false
	}
	return created, true
}

// FindByID serves the scalar fields from the cache when present.
func (r *artistRepository) FindByID(ctx context.Context, id int64) (*models.Artist, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	artist, ok := r.cache.Get(id)
	if !ok {
		loaded, err := r.load(ctx, id)
		if err != nil {
			report(r.logger, "find by id", err)
			return nil, false
		}
		r.cache.Put(loaded)
		artist = loaded
	}

	artist = r.populate(ctx, artist)
	return &artist, true
}

// FindAll always reads the store and replaces the whole cache with the result.
func (r *artistRepository) FindAll(ctx context.Context) []models.Artist {
	r.mu.Lock()
	defer r.mu.Unlock()

	artists, err := r.query(ctx, `
		SELECT `+artistColumns+`
		FROM artists
		ORDER BY id`)
	if err != nil {
		report(r.logger, "find all", err)
		return []models.Artist{}
	}

	r.cache.ReplaceAll(artists)
	return r.populateAll(ctx, artists)
}

// FindByName matches names case-insensitively after trimming.
func (r *artistRepository) FindByName(ctx context.Context, name string) []models.Artist {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.findCached(ctx, "find by name", `
		SELECT `+artistColumns+`
		FROM artists
		WHERE LOWER(TRIM(name)) = $1
		ORDER BY id`, normalizeName(name))
}

func (r *artistRepository) FindByUser(ctx context.Context, userID string) []models.Artist {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.findCached(ctx, "find by user", `
		SELECT `+artistColumns+`
		FROM artists
		WHERE user_id = $1
		ORDER BY id`, userID)
}

func (r *artistRepository) findCached(ctx context.Context, op, query string, args ...any) []models.Artist {
	artists, err := r.query(ctx, query, args...)
	if err != nil {
		report(r.logger, op, err)
		return []models.Artist{}
	}
	for _, artist := range artists {
		r.cache.Put(artist)
	}
	return r.populateAll(ctx, artists)
}

// Update writes the artist and renames the denormalized artist name on its
// albums and songs, both the ones linked by id and the unlinked ones still
// carrying the old name, then refreshes the cache entry.
func (r *artistRepository) Update(ctx context.Context, artist *models.Artist) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.update(ctx, artist); err != nil {
		report(r.logger, "update", err)
		return false
	}
	return true
}

func (r *artistRepository) update(ctx context.Context, artist *models.Artist) error {
	if err := validateArtist(artist); err != nil {
		return err
	}
	name := strings.TrimSpace(artist.Name)

	taken, err := r.nameTaken(ctx, name, artist.UserID, artist.ID)
	if err != nil {
		return err
	}
	if taken {
		return fmt.Errorf("%w: %q", ErrArtistExists, name)
	}

	err = WithTx(ctx, r.db, r.logger, "update artist", func(tx *sql.Tx) error {
		var oldName, oldUser string
		err := tx.QueryRowContext(ctx, `SELECT name, user_id FROM artists WHERE id = $1`, artist.ID).Scan(&oldName, &oldUser)
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("update artist %d: %w", artist.ID, ErrNoRowsAffected)
		}
		if err != nil {
			return fmt.Errorf("lookup artist: %w", err)
		}

		res, err := tx.ExecContext(ctx, `
			UPDATE artists
			SET name = $1, biography = $2, user_id = $3
			WHERE id = $4`, name, artist.Biography, artist.UserID, artist.ID)
		if err := expectRows(res, err, fmt.Sprintf("update artist %d", artist.ID)); err != nil {
			return err
		}
		for _, table := range []string{"albums", "songs"} {
			if _, err := tx.ExecContext(ctx, `
				UPDATE `+table+`
				SET artist = $1
				WHERE artist_id = $2
				   OR (artist_id IS NULL AND artist = $3 AND user_id = $4)`,
				name, artist.ID, oldName, oldUser); err != nil {
				return fmt.Errorf("rename %s artist: %w", table, err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	refreshed, err := r.load(ctx, artist.ID)
	if err != nil {
		r.cache.Remove(artist.ID)
		return fmt.Errorf("reload artist %d: %w", artist.ID, err)
	}
	r.cache.Put(refreshed)
	return nil
}

// Delete unlinks albums and songs from the artist, removes the row and then
// evicts the cache entry.
func (r *artistRepository) Delete(ctx context.Context, id int64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	err := WithTx(ctx, r.db, r.logger, "delete artist", func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `UPDATE albums SET artist_id = NULL WHERE artist_id = $1`, id); err != nil {
			return fmt.Errorf("unlink albums: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `UPDATE songs SET artist_id = NULL WHERE artist_id = $1`, id); err != nil {
			return fmt.Errorf("unlink songs: %w", err)
		}
		res, err := tx.ExecContext(ctx, `DELETE FROM artists WHERE id = $1`, id)
		return expectRows(res, err, fmt.Sprintf("delete artist %d", id))
	})
	if err != nil {
		report(r.logger, "delete", err)
		return false
	}

	r.cache.Remove(id)
	return true
}

// ArtistExists compares trimmed names case-insensitively within one user.
func (r *artistRepository) ArtistExists(ctx context.Context, name, userID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	taken, err := r.nameTaken(ctx, name, userID, 0)
	if err != nil {
		report(r.logger, "exists", err)
		return false
	}
	return taken
}

// MergeArtists moves every album and song of duplicateID to primaryID and
// deletes duplicateID, all in one transaction.
func (r *artistRepository) MergeArtists(ctx context.Context, primaryID, duplicateID int64) MergeResult {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.merge(ctx, primaryID, duplicateID)
}

func (r *artistRepository) merge(ctx context.Context, primaryID, duplicateID int64) MergeResult {
	if primaryID == duplicateID || primaryID <= 0 || duplicateID <= 0 {
		r.logger.Warn(fmt.Sprintf("merge %d into %d rejected", duplicateID, primaryID))
		return MergeRejected
	}

	primary, err := r.load(ctx, primaryID)
	if errors.Is(err, ErrNotFound) {
		r.logger.Warn(fmt.Sprintf("merge into missing artist %d rejected", primaryID))
		return MergeRejected
	}
	if err != nil {
		report(r.logger, "merge", err)
		return MergeFailed
	}

	err = WithTx(ctx, r.db, r.logger, "merge artists", func(tx *sql.Tx) error {
		var dupName, dupUser string
		err := tx.QueryRowContext(ctx, `SELECT name, user_id FROM artists WHERE id = $1`, duplicateID).Scan(&dupName, &dupUser)
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("duplicate artist %d: %w", duplicateID, ErrNoRowsAffected)
		}
		if err != nil {
			return fmt.Errorf("lookup duplicate artist: %w", err)
		}

		if _, err := tx.ExecContext(ctx, `
			UPDATE albums
			SET artist_id = $1, artist = $2
			WHERE artist_id = $3
			   OR (artist_id IS NULL AND artist = $4 AND user_id = $5)`,
			primary.ID, primary.Name, duplicateID, dupName, dupUser); err != nil {
			return fmt.Errorf("reassign albums: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `
			UPDATE songs
			SET artist_id = $1, artist = $2
			WHERE artist_id = $3
			   OR (artist_id IS NULL AND artist = $4 AND user_id = $5)`,
			primary.ID, primary.Name, duplicateID, dupName, dupUser); err != nil {
			return fmt.Errorf("reassign songs: %w", err)
		}

		res, err := tx.ExecContext(ctx, `DELETE FROM artists WHERE id = $1`, duplicateID)
		return expectRows(res, err, fmt.Sprintf("delete artist %d", duplicateID))
	})
	switch {
	case err == nil:
		r.cache.Remove(duplicateID)
		return MergeApplied
	case errors.Is(err, ErrNoRowsAffected):
		r.logger.Info(fmt.Sprintf("merge of missing artist %d had no effect", duplicateID))
		return MergeNoEffect
	default:
		report(r.logger, "merge", err)
		return MergeFailed
	}
}

// RemoveDuplicateArtists keeps the lowest id of every (user, exact name)
// group, merges the rest into it and clears the cache. It returns the number
// of rows removed; a second run removes nothing.
func (r *artistRepository) RemoveDuplicateArtists(ctx context.Context) (int, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	defer r.cache.Clear()

	artists, err := r.query(ctx, `
		SELECT `+artistColumns+`
		FROM artists
		ORDER BY id`)
	if err != nil {
		report(r.logger, "remove duplicates", err)
		return 0, false
	}

	canonical := make(map[string]int64, len(artists))
	removed := 0
	for _, artist := range artists {
		key := artist.UserID + "\x00" + artist.Name
		keep, seen := canonical[key]
		if !seen {
			canonical[key] = artist.ID
			continue
		}

		switch r.merge(ctx, keep, artist.ID) {
		case MergeApplied:
			removed++
		case MergeNoEffect:
		default:
			return removed, false
		}
	}

	if removed > 0 {
		r.logger.Info(fmt.Sprintf("removed %d duplicate artists", removed))
	}
	return removed, true
}

func (r *artistRepository) load(ctx context.Context, id int64) (models.Artist, error) {
	artist, err := scanArtist(r.db.QueryRowContext(ctx, `
		SELECT `+artistColumns+`
		FROM artists
		WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return models.Artist{}, fmt.Errorf("artist %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return models.Artist{}, fmt.Errorf("get artist %d: %w", id, err)
	}
	return artist, nil
}

func (r *artistRepository) query(ctx context.Context, query string, args ...any) ([]models.Artist, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query artists: %w", err)
	}
	defer rows.Close()

	artists := []models.Artist{}
	for rows.Next() {
		artist, err := scanArtist(rows)
		if err != nil {
			return nil, fmt.Errorf("scan artist: %w", err)
		}
		artists = append(artists, artist)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate artists: %w", err)
	}
	return artists, nil
}

func (r *artistRepository) nameTaken(ctx context.Context, name, userID string, excludeID int64) (bool, error) {
	var count int
	if err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*)
		FROM artists
		WHERE LOWER(TRIM(name)) = $1 AND user_id = $2 AND id <> $3`,
		normalizeName(name), userID, excludeID,
	).Scan(&count); err != nil {
		return false, fmt.Errorf("check artist name: %w", err)
	}
	return count > 0, nil
}

func (r *artistRepository) populate(ctx context.Context, artist models.Artist) models.Artist {
	if r.albums != nil {
		artist.Albums = r.albums.FindForArtist(ctx, artist)
	}
	if r.songs != nil {
		artist.Songs = r.songs.FindForArtist(ctx, artist)
	}
	return artist
}

func (r *artistRepository) populateAll(ctx context.Context, artists []models.Artist) []models.Artist {
	for i := range artists {
		artists[i] = r.populate(ctx, artists[i])
	}
	return artists
}
