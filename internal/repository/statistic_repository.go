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

const statisticColumnsJoined = `st.id, st.user_id, st.song_id, st.play_count, st.last_played, st.favorite, st.created_at`

type statisticRow struct {
	stat       models.UserSongStatistic
	lastPlayed sql.NullTime
}

func (r *statisticRow) targets() []any {
	return []any{
		&r.stat.ID, &r.stat.UserID, &r.stat.SongID, &r.stat.PlayCount,
		&r.lastPlayed, &r.stat.Favorite, &r.stat.CreatedAt,
	}
}

func (r *statisticRow) value() models.UserSongStatistic {
	stat := r.stat
	if r.lastPlayed.Valid {
		played := r.lastPlayed.Time
		stat.LastPlayed = &played
	}
	return stat
}

// scanStatisticWithSong maps a statistics row joined with its song.
func scanStatisticWithSong(row scanner) (models.UserSongStatistic, error) {
	var (
		st   statisticRow
		song songRow
	)
	if err := row.Scan(append(st.targets(), song.targets()...)...); err != nil {
		return models.UserSongStatistic{}, err
	}
	stat := st.value()
	joined := song.value()
	stat.Song = &joined
	return stat, nil
}

func validateStatKey(userID string, songID int64) error {
	if strings.TrimSpace(userID) == "" {
		return fmt.Errorf("%w: user id is required", ErrInvalidStat)
	}
	if songID <= 0 {
		return fmt.Errorf("%w: song id must be positive", ErrInvalidStat)
	}
	return nil
}

type statisticRepository struct {
	db     *sql.DB
	logger *logging.Logger
	now    func() time.Time
}

// NewStatisticRepository creates a repository for per-user song counters.
func NewStatisticRepository(db *sql.DB, logger *logging.Logger) StatisticRepository {
	if logger == nil {
		logger = logging.Nop()
	}
	return &statisticRepository{
		db:     db,
		logger: logger.Component("statistics"),
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// IncrementPlayCount records one play as a single upsert.
func (r *statisticRepository) IncrementPlayCount(ctx context.Context, userID string, songID int64) bool {
	if err := validateStatKey(userID, songID); err != nil {
		report(r.logger, "increment play count", err)
		return false
	}

	res, err := r.db.ExecContext(ctx, `
		INSERT INTO user_song_statistics (user_id, song_id, play_count, last_played, favorite, created_at)
		VALUES ($1, $2, 1, $3, FALSE, $3)
		ON CONFLICT (user_id, song_id) DO UPDATE
		SET play_count = user_song_statistics.play_count + 1,
		    last_played = EXCLUDED.last_played`,
		userID, songID, r.now())
	if err := expectRows(res, err, "upsert play count"); err != nil {
		report(r.logger, "increment play count", err)
		return false
	}
	return true
}

// SetFavorite sets the flag as a single upsert, creating the row when needed.
func (r *statisticRepository) SetFavorite(ctx context.Context, userID string, songID int64, favorite bool) bool {
	if err := validateStatKey(userID, songID); err != nil {
		report(r.logger, "set favorite", err)
		return false
	}

	res, err := r.db.ExecContext(ctx, `
		INSERT INTO user_song_statistics (user_id, song_id, play_count, favorite, created_at)
		VALUES ($1, $2, 0, $3, $4)
		ON CONFLICT (user_id, song_id) DO UPDATE
		SET favorite = EXCLUDED.favorite`,
		userID, songID, favorite, r.now())
	if err := expectRows(res, err, "upsert favorite"); err != nil {
		report(r.logger, "set favorite", err)
		return false
	}
	return true
}

func (r *statisticRepository) Get(ctx context.Context, userID string, songID int64) (*models.UserSongStatistic, bool) {
	var row statisticRow
	err := r.db.QueryRowContext(ctx, `
		SELECT `+statisticColumnsJoined+`
		FROM user_song_statistics st
		WHERE st.user_id = $1 AND st.song_id = $2`, userID, songID).Scan(row.targets()...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false
	}
	if err != nil {
		report(r.logger, "get", fmt.Errorf("get statistic: %w", err))
		return nil, false
	}
	stat := row.value()
	return &stat, true
}

func (r *statisticRepository) GetUserStatistics(ctx context.Context, userID string) []models.UserSongStatistic {
	return r.list(ctx, "user statistics", `
		SELECT `+statisticColumnsJoined+`, `+songColumnsJoined+`
		FROM user_song_statistics st
		JOIN songs s ON s.id = st.song_id
		WHERE st.user_id = $1
		ORDER BY st.id`, userID)
}

func (r *statisticRepository) MostPlayed(ctx context.Context, userID string, limit int) []models.UserSongStatistic {
	return r.list(ctx, "most played", `
		SELECT `+statisticColumnsJoined+`, `+songColumnsJoined+`
		FROM user_song_statistics st
		JOIN songs s ON s.id = st.song_id
		WHERE st.user_id = $1 AND st.play_count > 0
		ORDER BY st.play_count DESC, st.last_played DESC, st.id
		LIMIT $2`, userID, positiveLimit(limit))
}

func (r *statisticRepository) Favorites(ctx context.Context, userID string) []models.UserSongStatistic {
	return r.list(ctx, "favorites", `
		SELECT `+statisticColumnsJoined+`, `+songColumnsJoined+`
		FROM user_song_statistics st
		JOIN songs s ON s.id = st.song_id
		WHERE st.user_id = $1 AND st.favorite = $2
		ORDER BY st.id`, userID, true)
}

func (r *statisticRepository) RecentlyPlayed(ctx context.Context, userID string, limit int) []models.UserSongStatistic {
	return r.list(ctx, "recently played", `
		SELECT `+statisticColumnsJoined+`, `+songColumnsJoined+`
		FROM user_song_statistics st
		JOIN songs s ON s.id = st.song_id
		WHERE st.user_id = $1 AND st.last_played IS NOT NULL
		ORDER BY st.last_played DESC, st.id DESC
		LIMIT $2`, userID, positiveLimit(limit))
}

func (r *statisticRepository) list(ctx context.Context, op, query string, args ...any) []models.UserSongStatistic {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		report(r.logger, op, fmt.Errorf("query statistics: %w", err))
		return []models.UserSongStatistic{}
	}
	defer rows.Close()

	stats := []models.UserSongStatistic{}
	for rows.Next() {
		stat, err := scanStatisticWithSong(rows)
		if err != nil {
			report(r.logger, op, fmt.Errorf("scan statistic: %w", err))
			return []models.UserSongStatistic{}
		}
		stats = append(stats, stat)
	}
	if err := rows.Err(); err != nil {
		report(r.logger, op, fmt.Errorf("iterate statistics: %w", err))
		return []models.UserSongStatistic{}
	}
	return stats
}

// Summary aggregates the user's counters. A user without statistics gets a
// zero summary.
func (r *statisticRepository) Summary(ctx context.Context, userID string) (*models.StatisticsSummary, bool) {
	summary := models.StatisticsSummary{UserID: userID}

	var total, distinct, favorites int64
	if err := r.db.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(play_count), 0),
		       COUNT(CASE WHEN play_count > 0 THEN 1 END),
		       COUNT(CASE WHEN favorite THEN 1 END)
		FROM user_song_statistics
		WHERE user_id = $1`, userID).Scan(&total, &distinct, &favorites); err != nil {
		report(r.logger, "summary", fmt.Errorf("aggregate statistics: %w", err))
		return nil, false
	}
	summary.TotalPlays = int(total)
	summary.DistinctSongs = int(distinct)
	summary.Favorites = int(favorites)

	var last sql.NullTime
	err := r.db.QueryRowContext(ctx, `
		SELECT last_played
		FROM user_song_statistics
		WHERE user_id = $1 AND last_played IS NOT NULL
		ORDER BY last_played DESC
		LIMIT 1`, userID).Scan(&last)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		report(r.logger, "summary", fmt.Errorf("last played: %w", err))
		return nil, false
	}
	if last.Valid {
		played := last.Time
		summary.LastPlayed = &played
	}
	return &summary, true
}

func positiveLimit(limit int) int {
	if limit <= 0 {
		return 10
	}
	return limit
}
