package upload

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizeFileName(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"track.mp3", "track.mp3"},
		{"my song.mp3", "my_song.mp3"},
		{"weird/../name?.mp3", "weird_.._name_.mp3"},
		{"ünïcödé.flac", "_n_c_d_.flac"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, SanitizeFileName(tt.in))
	}
}

func TestSlugify(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"My Album", "my-album"},
		{"  Greatest   Hits!! ", "greatest-hits"},
		{"Vol. 2 (Remastered)", "vol-2-remastered"},
		{"already-slugged", "already-slugged"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Slugify(tt.in))
	}
}

func TestNewObjectKey(t *testing.T) {
	key := NewObjectKey("42", "track.mp3")
	assert.True(t, strings.HasPrefix(key, "music/42/"), "key %q should be in the owner's namespace", key)
	assert.True(t, strings.HasSuffix(key, "-track.mp3"), "key %q should end with the sanitized name", key)

	// Requesting a second key for the same file must not collide with the first.
	other := NewObjectKey("42", "track.mp3")
	assert.NotEqual(t, key, other)
}

func TestValidateExplicitKey(t *testing.T) {
	tests := []struct {
		name    string
		key     string
		ownerID string
		wantErr bool
	}{
		{"album track", "music/my-album/01. a.mp3", "42", false},
		{"album manifest", "music/my-album/metadata.json", "42", false},
		{"own numeric namespace", "music/42/song.mp3", "42", false},
		{"other numeric namespace", "music/7/song.mp3", "42", true},
		{"other uuid namespace", "music/0f8fad5b-d9cb-469f-a165-70867728950e/x.mp3", "42", true},
		{"outside music root", "images/cover.jpg", "42", true},
		{"traversal", "music/../secrets/x.mp3", "42", true},
		{"empty segment", "music//x.mp3", "42", true},
		{"too shallow", "music/x.mp3", "42", true},
		{"bad characters", "music/my-album/a\x00b.mp3", "42", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateExplicitKey(tt.key, tt.ownerID)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrInvalidArgument)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
