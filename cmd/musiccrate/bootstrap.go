package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"musiccrate/internal/library"
	"musiccrate/internal/models"
)

const demoUsername = "demo"

var demoAlbums = []library.AlbumImport{
	{
		Title:  "Selected Ambient Works 85-92",
		Artist: "Aphex Twin",
		Year:   1992,
		Genre:  "Ambient",
		Tracks: []library.Track{
			{Title: "Xtal", Duration: 291},
			{Title: "Tha", Duration: 541},
			{Title: "Pulsewidth", Duration: 227},
		},
	},
	{
		Title:  "Kind of Blue",
		Artist: "Miles Davis",
		Year:   1959,
		Genre:  "Jazz",
		Tracks: []library.Track{
			{Title: "So What", Duration: 562},
			{Title: "Freddie Freeloader", Duration: 589},
			{Title: "Blue in Green", Duration: 337},
		},
	},
}

// Seed creates the demo user and demo albums if they are missing.
func (r *Runner) Seed(ctx context.Context, cmd *cli.Command) error {
	lib, err := r.open(ctx)
	if err != nil {
		return err
	}
	if err := ensureDemoUser(ctx, lib); err != nil {
		return err
	}
	if err := ensureDemoAlbums(ctx, lib); err != nil {
		return err
	}
	return r.writePlain("demo data ready (user %q, password %q)\n", demoUsername, "demo123")
}

func ensureDemoUser(ctx context.Context, lib *library.Library) error {
	if _, ok := lib.Users.FindByUsername(ctx, demoUsername); ok {
		return nil
	}
	if _, ok := lib.Users.Create(ctx, &models.User{
		Username: demoUsername,
		Password: "demo123",
		Email:    "demo@example.com",
	}); !ok {
		return fmt.Errorf("bootstrap demo user: %w", library.ErrFailed)
	}
	return nil
}

func ensureDemoAlbums(ctx context.Context, lib *library.Library) error {
	if len(lib.Albums.FindByUser(ctx, demoUsername)) > 0 {
		return nil
	}

	for _, album := range demoAlbums {
		album.UserID = demoUsername
		if _, err := lib.ImportAlbum(ctx, album); err != nil {
			return fmt.Errorf("bootstrap album %q: %w", album.Title, err)
		}
	}
	return nil
}
