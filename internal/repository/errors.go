package repository

import (
	"database/sql"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"musiccrate/internal/logging"
	"musiccrate/internal/models"
)

var (
	// ErrNotFound marks a lookup miss. Public methods surface it as a false result.
	ErrNotFound = errors.New("not found")
	// ErrNoRowsAffected marks a write that matched nothing.
	ErrNoRowsAffected = errors.New("no rows affected")
	// ErrPartialBatch marks a batch in which at least one write matched nothing.
	ErrPartialBatch = errors.New("partial batch failure")

	ErrInvalidArtist   = errors.New("invalid artist")
	ErrInvalidAlbum    = errors.New("invalid album")
	ErrInvalidSong     = errors.New("invalid song")
	ErrInvalidPlaylist = errors.New("invalid playlist")
	ErrInvalidUser     = errors.New("invalid user")
	ErrInvalidStat     = errors.New("invalid statistic")

	// ErrArtistExists signals a name already used by another artist of the same user.
	ErrArtistExists = errors.New("artist already exists")
	// ErrUserExists signals the username is already taken.
	ErrUserExists = errors.New("user already exists")
)

// isValidation reports whether err was produced before touching the store.
func isValidation(err error) bool {
	for _, target := range []error{
		ErrInvalidArtist, ErrInvalidAlbum, ErrInvalidSong, ErrInvalidPlaylist,
		ErrInvalidUser, ErrInvalidStat, ErrArtistExists, ErrUserExists,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// isUniqueViolation recognizes unique-constraint failures from every supported driver.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		switch liteErr.Code() {
		case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
			return true
		case sqlite3.SQLITE_CONSTRAINT:
			return strings.Contains(liteErr.Error(), "UNIQUE")
		}
	}
	return false
}

func nullIfZero(id *int64) sql.NullInt64 {
	if id == nil || *id == 0 {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *id, Valid: true}
}

func int64Ptr(v sql.NullInt64) *int64 {
	if !v.Valid {
		return nil
	}
	id := v.Int64
	return &id
}

// uniqueIDs drops repeated ids while keeping the first-seen order. Unsaved
// (non-positive) ids are kept so the batch that writes them fails.
func uniqueIDs(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// unsavedMember returns the position of the first song without a store id.
func unsavedMember(songs []models.Song) (int, bool) {
	for i, song := range songs {
		if song.ID <= 0 {
			return i, true
		}
	}
	return 0, false
}

func normalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// report logs err at the repository boundary: validation as a rejection,
// misses at debug level, everything else as a store fault.
func report(logger *logging.Logger, op string, err error) {
	switch {
	case isValidation(err):
		logger.Rejected(op, err)
	case errors.Is(err, ErrNotFound):
		logger.Debug(op + ": not found")
	default:
		logger.Fault(op, err)
	}
}
