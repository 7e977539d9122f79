package upload

import (
	"fmt"
	"path/filepath"
	"strings"
)

// extensionTypes maps file extensions to their canonical content type.
// Used as the fallback when a caller sends a generic or empty type — both
// the client and the server resolve through this same table, because the
// granted type and the PUT header must agree for the transfer to succeed.
var extensionTypes = map[string]string{
	".mp3":  "audio/mpeg",
	".m4a":  "audio/mp4",
	".mp4":  "audio/mp4",
	".wav":  "audio/wav",
	".aac":  "audio/aac",
	".ogg":  "audio/ogg",
	".oga":  "audio/ogg",
	".flac": "audio/flac",
	".webm": "audio/webm",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".webp": "image/webp",
	".json": "application/json",
}

// allowedTypes is the closed set of content types the service will grant
// uploads for: audio formats, cover art images, and the album manifest.
var allowedTypes = map[string]bool{
	"audio/mpeg":       true,
	"audio/mp4":        true,
	"audio/wav":        true,
	"audio/x-wav":      true,
	"audio/aac":        true,
	"audio/ogg":        true,
	"audio/flac":       true,
	"audio/webm":       true,
	"image/jpeg":       true,
	"image/png":        true,
	"image/webp":       true,
	"application/json": true,
}

// ResolveContentType validates a declared content type against the allow-list.
// A generic or absent type falls back to extension sniffing; a type that is
// neither allow-listed nor inferable is rejected rather than guessed.
func ResolveContentType(fileName, declared string) (string, error) {
	declared = strings.ToLower(strings.TrimSpace(declared))

	if declared != "" && declared != "application/octet-stream" {
		if !allowedTypes[declared] {
			return "", fmt.Errorf("%w: unsupported file type %q", ErrInvalidArgument, declared)
		}
		return declared, nil
	}

	ext := strings.ToLower(filepath.Ext(fileName))
	if ct, ok := extensionTypes[ext]; ok {
		return ct, nil
	}
	return "", fmt.Errorf("%w: unsupported file type for %q", ErrInvalidArgument, fileName)
}

// TitleFromFileName derives a human-readable title: the base name with its
// extension stripped, and any "NN. " track-number prefix removed.
func TitleFromFileName(fileName string) string {
	base := filepath.Base(fileName)
	title := strings.TrimSuffix(base, filepath.Ext(base))
	if i := strings.Index(title, ". "); i > 0 && isDigits(title[:i]) {
		title = title[i+2:]
	}
	return title
}

// SplitArtistTitle splits a "Artist - Title" shaped name into its parts.
// Names without the separator yield an empty artist.
func SplitArtistTitle(title string) (artist, trackTitle string) {
	if i := strings.Index(title, " - "); i > 0 {
		return strings.TrimSpace(title[:i]), strings.TrimSpace(title[i+3:])
	}
	return "", title
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
