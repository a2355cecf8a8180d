package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"musiccrate/internal/library"
	"musiccrate/internal/models"
)

// Play records a play of a song.
func (r *Runner) Play(ctx context.Context, cmd *cli.Command) error {
	lib, err := r.open(ctx)
	if err != nil {
		return err
	}
	user, songID := cmd.String("user"), cmd.Int64("song")
	if err := lib.RecordPlay(ctx, user, songID); err != nil {
		return err
	}
	stat, _ := lib.Statistics.Get(ctx, user, songID)
	if stat == nil {
		return nil
	}
	return r.writePlain("song %d played %d times\n", songID, stat.PlayCount)
}

// Favorite sets or clears the favorite flag.
func (r *Runner) Favorite(ctx context.Context, cmd *cli.Command) error {
	lib, err := r.open(ctx)
	if err != nil {
		return err
	}
	user, songID := cmd.String("user"), cmd.Int64("song")
	if _, ok := lib.Songs.FindByID(ctx, songID); !ok {
		return fmt.Errorf("%w: song %d", library.ErrNotFound, songID)
	}
	if !lib.Statistics.SetFavorite(ctx, user, songID, !cmd.Bool("off")) {
		return fmt.Errorf("%w: set favorite", library.ErrFailed)
	}
	return nil
}

type statsReport struct {
	Summary        *models.StatisticsSummary  `json:"summary"`
	MostPlayed     []models.UserSongStatistic `json:"most_played"`
	RecentlyPlayed []models.UserSongStatistic `json:"recently_played"`
	Favorites      []models.UserSongStatistic `json:"favorites"`
}

// Stats prints the user's listening statistics.
func (r *Runner) Stats(ctx context.Context, cmd *cli.Command) error {
	lib, err := r.open(ctx)
	if err != nil {
		return err
	}
	user, limit := cmd.String("user"), cmd.Int("limit")

	summary, ok := lib.Statistics.Summary(ctx, user)
	if !ok {
		return fmt.Errorf("%w: statistics summary", library.ErrFailed)
	}
	return r.writeJSON(statsReport{
		Summary:        summary,
		MostPlayed:     lib.Statistics.MostPlayed(ctx, user, limit),
		RecentlyPlayed: lib.Statistics.RecentlyPlayed(ctx, user, limit),
		Favorites:      lib.Statistics.Favorites(ctx, user),
	})
}
