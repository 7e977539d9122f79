package uploader

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/melofy/uploads/internal/upload"
)

// Song is one manifest entry. Order in the Songs slice is the album's track
// order.
type Song struct {
	Title string `json:"title"`
	URL   string `json:"url"`
}

// Manifest is the album's commit marker: a JSON object written last, after
// every referenced object has been uploaded. A reader that finds a manifest
// may assume all referenced objects exist.
type Manifest struct {
	Title  string `json:"title"`
	Artist string `json:"artist"`
	Cover  string `json:"cover"`
	Songs  []Song `json:"songs"`
}

// Album is the input to a structured multi-file upload.
type Album struct {
	Title  string
	Artist string
	Cover  File
	Tracks []File // caller-supplied order defines 1-based track numbering
}

// UploadAlbum uploads the cover, then each track strictly in order, then the
// manifest. Keys are deterministic: music/{slug}/cover.{ext},
// music/{slug}/{NN}. {name}, music/{slug}/metadata.json. Any individual
// failure aborts the whole operation before the manifest is written;
// already-uploaded objects remain in storage as unreferenced orphans.
func (c *Client) UploadAlbum(ctx context.Context, album Album, progress ProgressFunc) (*Manifest, error) {
	if album.Title == "" {
		return nil, fmt.Errorf("%w: album title is required", upload.ErrInvalidArgument)
	}
	if len(album.Tracks) == 0 {
		return nil, fmt.Errorf("%w: album has no tracks", upload.ErrInvalidArgument)
	}

	slug := upload.Slugify(album.Title)
	if slug == "" {
		return nil, fmt.Errorf("%w: album title %q yields an empty slug", upload.ErrInvalidArgument, album.Title)
	}
	prefix := "music/" + slug

	cover := album.Cover
	cover.Key = prefix + "/cover" + strings.ToLower(upload.SanitizeFileName(filepath.Ext(cover.Name)))
	coverRec, err := c.UploadSingle(ctx, cover, progress)
	if err != nil {
		return nil, fmt.Errorf("cover (%s): %w", cover.Name, err)
	}

	songs := make([]Song, 0, len(album.Tracks))
	for i, track := range album.Tracks {
		// File names carry characters object keys may not (parentheses,
		// apostrophes, unicode); the key segment is sanitized while the
		// manifest keeps the original name for display.
		track.Key = fmt.Sprintf("%s/%02d. %s", prefix, i+1, upload.SanitizeFileName(track.Name))
		rec, err := c.UploadSingle(ctx, track, progress)
		if err != nil {
			return nil, fmt.Errorf("track %d (%s): %w", i+1, track.Name, err)
		}
		songs = append(songs, Song{Title: upload.TitleFromFileName(track.Name), URL: rec.URL})
	}

	manifest := &Manifest{
		Title:  album.Title,
		Artist: album.Artist,
		Cover:  coverRec.URL,
		Songs:  songs,
	}

	data, err := json.Marshal(manifest)
	if err != nil {
		return nil, fmt.Errorf("encode manifest: %w", err)
	}

	_, err = c.UploadSingle(ctx, File{
		Name:        "metadata.json",
		ContentType: "application/json",
		Size:        int64(len(data)),
		Reader:      bytes.NewReader(data),
		Key:         prefix + "/metadata.json",
	}, nil)
	if err != nil {
		return nil, fmt.Errorf("manifest: %w", err)
	}

	return manifest, nil
}
