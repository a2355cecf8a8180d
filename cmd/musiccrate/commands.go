package main

import "github.com/urfave/cli/v3"

func userFlag(required bool) cli.Flag {
	return &cli.StringFlag{
		Name:     "user",
		Aliases:  []string{"u"},
		Usage:    "Owning username",
		Required: required,
	}
}

func idFlag(usage string) cli.Flag {
	return &cli.Int64Flag{
		Name:     "id",
		Usage:    usage,
		Required: true,
	}
}

func songsFlag() cli.Flag {
	return &cli.Int64SliceFlag{
		Name:  "song",
		Usage: "Song id (repeatable)",
	}
}

func migrateCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "migrate",
		Usage: "Apply or roll back the schema",
		Commands: []*cli.Command{
			{Name: "up", Usage: "Apply all migrations", Action: r.MigrateUp},
			{Name: "down", Usage: "Roll back all migrations", Action: r.MigrateDown},
			{Name: "version", Usage: "Show the applied schema version", Action: r.MigrateVersion},
		},
	}
}

func seedCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "seed",
		Usage:  "Create the demo user and demo albums when missing",
		Action: r.Seed,
	}
}

func usersCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "users",
		Usage: "Manage users",
		Commands: []*cli.Command{
			{
				Name:  "add",
				Usage: "Register a user",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "username", Required: true},
					&cli.StringFlag{Name: "password", Required: true},
					&cli.StringFlag{Name: "email"},
				},
				Action: r.UsersAdd,
			},
			{Name: "list", Usage: "List users", Action: r.UsersList},
			{
				Name:   "delete",
				Usage:  "Delete a user and their statistics",
				Flags:  []cli.Flag{&cli.StringFlag{Name: "username", Required: true}},
				Action: r.UsersDelete,
			},
		},
	}
}

func loginCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "login",
		Usage: "Check credentials and print a session token",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "username", Required: true},
			&cli.StringFlag{Name: "password", Required: true},
		},
		Action: r.Login,
	}
}

func whoamiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "whoami",
		Usage:  "Show the user a session token belongs to",
		Flags:  []cli.Flag{&cli.StringFlag{Name: "token", Required: true}},
		Action: r.WhoAmI,
	}
}

func artistsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "artists",
		Usage: "Manage artists",
		Commands: []*cli.Command{
			{
				Name:   "list",
				Usage:  "List artists",
				Flags:  []cli.Flag{userFlag(false), &cli.StringFlag{Name: "name", Usage: "Exact name, case-insensitive"}},
				Action: r.ArtistsList,
			},
			{
				Name:   "show",
				Usage:  "Show an artist with albums and songs",
				Flags:  []cli.Flag{idFlag("Artist id")},
				Action: r.ArtistsShow,
			},
			{
				Name:  "add",
				Usage: "Create an artist",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "name", Required: true},
					&cli.StringFlag{Name: "bio"},
					userFlag(true),
				},
				Action: r.ArtistsAdd,
			},
			{
				Name:   "delete",
				Usage:  "Delete an artist and unlink its albums and songs",
				Flags:  []cli.Flag{idFlag("Artist id")},
				Action: r.ArtistsDelete,
			},
			{
				Name:  "merge",
				Usage: "Move everything of one artist to another and delete it",
				Flags: []cli.Flag{
					&cli.Int64Flag{Name: "primary", Usage: "Artist to keep", Required: true},
					&cli.Int64Flag{Name: "duplicate", Usage: "Artist to remove", Required: true},
				},
				Action: r.ArtistsMerge,
			},
			{
				Name:   "dedupe",
				Usage:  "Merge artists sharing the same name",
				Action: r.ArtistsDedupe,
			},
		},
	}
}

func albumsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "albums",
		Usage: "Manage albums",
		Commands: []*cli.Command{
			{
				Name:   "list",
				Usage:  "List albums",
				Flags:  []cli.Flag{userFlag(false)},
				Action: r.AlbumsList,
			},
			{
				Name:   "show",
				Usage:  "Show an album with its songs",
				Flags:  []cli.Flag{idFlag("Album id")},
				Action: r.AlbumsShow,
			},
			{
				Name:  "add",
				Usage: "Create an album and attach existing songs",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "title", Required: true},
					&cli.StringFlag{Name: "artist", Required: true},
					&cli.IntFlag{Name: "year"},
					&cli.StringFlag{Name: "genre"},
					userFlag(true),
					songsFlag(),
				},
				Action: r.AlbumsAdd,
			},
			{
				Name:   "delete",
				Usage:  "Delete an album, keeping its songs",
				Flags:  []cli.Flag{idFlag("Album id")},
				Action: r.AlbumsDelete,
			},
		},
	}
}

func songsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "songs",
		Usage: "Manage songs",
		Commands: []*cli.Command{
			{
				Name:   "list",
				Usage:  "List songs",
				Flags:  []cli.Flag{userFlag(false)},
				Action: r.SongsList,
			},
			{
				Name:  "add",
				Usage: "Create a song",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "title", Required: true},
					&cli.StringFlag{Name: "artist"},
					&cli.StringFlag{Name: "genre"},
					&cli.IntFlag{Name: "year"},
					&cli.IntFlag{Name: "duration", Usage: "Length in seconds"},
					&cli.StringFlag{Name: "file"},
					userFlag(true),
				},
				Action: r.SongsAdd,
			},
			{
				Name:   "delete",
				Usage:  "Delete a song",
				Flags:  []cli.Flag{idFlag("Song id")},
				Action: r.SongsDelete,
			},
			{
				Name:  "search",
				Usage: "Search songs by title, artist or genre",
				Flags: []cli.Flag{
					userFlag(false),
					&cli.StringFlag{Name: "title"},
					&cli.StringFlag{Name: "artist"},
					&cli.StringFlag{Name: "genre"},
					&cli.IntFlag{Name: "limit", Value: 50},
				},
				Action: r.SongsSearch,
			},
		},
	}
}

func playlistsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "playlists",
		Usage: "Manage playlists",
		Commands: []*cli.Command{
			{
				Name:   "list",
				Usage:  "List playlists",
				Flags:  []cli.Flag{userFlag(false)},
				Action: r.PlaylistsList,
			},
			{
				Name:   "show",
				Usage:  "Show a playlist with its songs",
				Flags:  []cli.Flag{idFlag("Playlist id")},
				Action: r.PlaylistsShow,
			},
			{
				Name:  "add",
				Usage: "Create a playlist",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "name", Required: true},
					&cli.StringFlag{Name: "description"},
					userFlag(true),
					songsFlag(),
				},
				Action: r.PlaylistsAdd,
			},
			{
				Name:   "set-songs",
				Usage:  "Replace the songs of a playlist",
				Flags:  []cli.Flag{idFlag("Playlist id"), songsFlag()},
				Action: r.PlaylistsSetSongs,
			},
			{
				Name:   "delete",
				Usage:  "Delete a playlist",
				Flags:  []cli.Flag{idFlag("Playlist id")},
				Action: r.PlaylistsDelete,
			},
		},
	}
}

func playCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "play",
		Usage: "Record a play of a song",
		Flags: []cli.Flag{
			userFlag(true),
			&cli.Int64Flag{Name: "song", Required: true},
		},
		Action: r.Play,
	}
}

func favoriteCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "favorite",
		Usage: "Mark or unmark a song as favorite",
		Flags: []cli.Flag{
			userFlag(true),
			&cli.Int64Flag{Name: "song", Required: true},
			&cli.BoolFlag{Name: "off", Usage: "Remove the favorite mark"},
		},
		Action: r.Favorite,
	}
}

func statsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "stats",
		Usage: "Show listening statistics",
		Flags: []cli.Flag{
			userFlag(true),
			&cli.IntFlag{Name: "limit", Value: 10},
		},
		Action: r.Stats,
	}
}
