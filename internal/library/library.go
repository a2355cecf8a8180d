package library

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"musiccrate/internal/auth"
	"musiccrate/internal/logging"
	"musiccrate/internal/models"
	"musiccrate/internal/repository"
)

var (
	// ErrNotFound signals that a referenced entity does not exist.
	ErrNotFound = errors.New("not found")
	// ErrFailed signals that a repository reported failure; details are in the log.
	ErrFailed = errors.New("operation failed")
	// ErrUnauthorized indicates an invalid or missing session.
	ErrUnauthorized = errors.New("unauthorized")
)

// Library wires the repositories around one shared connection, one song
// repository and one artist cache.
type Library struct {
	Cache      *repository.ArtistCache
	Songs      repository.SongRepository
	Albums     repository.AlbumRepository
	Playlists  repository.PlaylistRepository
	Artists    repository.ArtistRepository
	Users      repository.UserRepository
	Statistics repository.StatisticRepository

	sessions *auth.Sessions
	logger   *logging.Logger
}

// New builds a Library over db. sessions may be nil when logins are not needed.
func New(db *sql.DB, logger *logging.Logger, sessions *auth.Sessions) *Library {
	if logger == nil {
		logger = logging.Nop()
	}

	cache := repository.NewArtistCache()
	songs := repository.NewSongRepository(db, logger)
	albums := repository.NewAlbumRepository(db, songs, logger)

	return &Library{
		Cache:      cache,
		Songs:      songs,
		Albums:     albums,
		Playlists:  repository.NewPlaylistRepository(db, songs, logger),
		Artists:    repository.NewArtistRepository(db, cache, albums, songs, logger),
		Users:      repository.NewUserRepository(db, logger),
		Statistics: repository.NewStatisticRepository(db, logger),
		sessions:   sessions,
		logger:     logger.Component("library"),
	}
}

// RecordPlay counts one play of songID for userID.
func (l *Library) RecordPlay(ctx context.Context, userID string, songID int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if _, ok := l.Songs.FindByID(ctx, songID); !ok {
		return fmt.Errorf("%w: song %d", ErrNotFound, songID)
	}
	if !l.Statistics.IncrementPlayCount(ctx, userID, songID) {
		return fmt.Errorf("%w: record play", ErrFailed)
	}
	return nil
}

// Track is one song of an imported album.
type Track struct {
	Title    string
	Duration int
	FilePath string
}

// AlbumImport describes an album together with its tracks.
type AlbumImport struct {
	Title  string
	Artist string
	Year   int
	Genre  string
	UserID string
	Tracks []Track
}

// ImportAlbum finds or creates the artist, creates the tracks and then the
// album owning them. Tracks created before a failure are deleted again.
func (l *Library) ImportAlbum(ctx context.Context, req AlbumImport) (*models.Album, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if strings.TrimSpace(req.Artist) == "" || strings.TrimSpace(req.Title) == "" {
		return nil, fmt.Errorf("%w: artist and title are required", ErrFailed)
	}

	artist, ok := l.Artists.FindOrCreate(ctx, req.Artist, req.UserID)
	if !ok {
		return nil, fmt.Errorf("%w: resolve artist %q", ErrFailed, req.Artist)
	}

	created := make([]models.Song, 0, len(req.Tracks))
	rollback := func() {
		for _, song := range created {
			if !l.Songs.Delete(ctx, song.ID) {
				l.logger.Warn(fmt.Sprintf("import cleanup: song %d left behind", song.ID))
			}
		}
	}

	for _, track := range req.Tracks {
		song, ok := l.Songs.Create(ctx, &models.Song{
			Title:    track.Title,
			Artist:   artist.Name,
			ArtistID: &artist.ID,
			Genre:    req.Genre,
			Year:     req.Year,
			Duration: track.Duration,
			FilePath: track.FilePath,
			UserID:   req.UserID,
		})
		if !ok {
			rollback()
			return nil, fmt.Errorf("%w: create track %q", ErrFailed, track.Title)
		}
		created = append(created, *song)
	}

	album, ok := l.Albums.Create(ctx, &models.Album{
		Title:    req.Title,
		Artist:   artist.Name,
		ArtistID: &artist.ID,
		Year:     req.Year,
		Genre:    req.Genre,
		UserID:   req.UserID,
		Songs:    created,
	})
	if !ok {
		rollback()
		return nil, fmt.Errorf("%w: create album %q", ErrFailed, req.Title)
	}
	return album, nil
}

// Login checks the credentials and returns a session token.
func (l *Library) Login(ctx context.Context, username, password string) (string, error) {
	if l.sessions == nil {
		return "", fmt.Errorf("%w: sessions are not configured", ErrFailed)
	}
	user, ok := l.Users.Authenticate(ctx, username, password)
	if !ok {
		return "", auth.ErrInvalidCredentials
	}
	token, err := l.sessions.Issue(user.Username)
	if err != nil {
		return "", fmt.Errorf("create token: %w", err)
	}
	return token, nil
}

// CurrentUser resolves a session token to its user.
func (l *Library) CurrentUser(ctx context.Context, token string) (*models.User, error) {
	if l.sessions == nil {
		return nil, fmt.Errorf("%w: sessions are not configured", ErrFailed)
	}
	username, err := l.sessions.Verify(token)
	if err != nil {
		return nil, ErrUnauthorized
	}
	user, ok := l.Users.FindByUsername(ctx, username)
	if !ok {
		return nil, ErrUnauthorized
	}
	return user, nil
}
