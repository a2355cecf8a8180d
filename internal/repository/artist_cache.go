package repository

import (
	"sort"
	"sync"

	"musiccrate/internal/models"
)

// ArtistCache maps artist ids to the last value read from or written to the
// store. It keeps only scalar fields; derived album and song lists are never
// cached. One cache is shared by the artist repository that owns it.
type ArtistCache struct {
	mu      sync.Mutex
	artists map[int64]models.Artist
}

// NewArtistCache returns an empty cache.
func NewArtistCache() *ArtistCache {
	return &ArtistCache{artists: make(map[int64]models.Artist)}
}

func (c *ArtistCache) Get(id int64) (models.Artist, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	artist, ok := c.artists[id]
	return artist, ok
}

// Put stores artist under its id, replacing any previous value.
func (c *ArtistCache) Put(artist models.Artist) {
	if artist.ID == 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.artists[artist.ID] = scalar(artist)
}

func (c *ArtistCache) Remove(id int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.artists, id)
}

// ReplaceAll discards every entry and stores artists instead.
func (c *ArtistCache) ReplaceAll(artists []models.Artist) {
	fresh := make(map[int64]models.Artist, len(artists))
	for _, artist := range artists {
		if artist.ID != 0 {
			fresh[artist.ID] = scalar(artist)
		}
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.artists = fresh
}

func (c *ArtistCache) Clear() {
	c.ReplaceAll(nil)
}

func (c *ArtistCache) Contains(id int64) bool {
	_, ok := c.Get(id)
	return ok
}

func (c *ArtistCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.artists)
}

// IDs returns the cached ids in ascending order.
func (c *ArtistCache) IDs() []int64 {
	c.mu.Lock()
	ids := make([]int64, 0, len(c.artists))
	for id := range c.artists {
		ids = append(ids, id)
	}
	c.mu.Unlock()

	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func scalar(artist models.Artist) models.Artist {
	artist.Albums = nil
	artist.Songs = nil
	return artist
}
