package upload

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

const keyPrefix = "music/"

var (
	unsafeKeyChars = regexp.MustCompile(`[^A-Za-z0-9._-]`)
	slugSeparators = regexp.MustCompile(`[^a-z0-9]+`)
	// keySegment allows the characters object keys are built from, including
	// the space in "01. track.mp3" style names.
	keySegment = regexp.MustCompile(`^[A-Za-z0-9 ._-]+$`)
	uuidShaped = regexp.MustCompile(`^[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}$`)
)

// SanitizeFileName replaces any character outside [A-Za-z0-9._-] with "_"
// to guarantee a storage-safe key component.
func SanitizeFileName(name string) string {
	return unsafeKeyChars.ReplaceAllString(name, "_")
}

// Slugify lowercases a title and collapses non-alphanumeric runs to "-",
// producing a deterministic, human-browsable key prefix component.
func Slugify(title string) string {
	slug := slugSeparators.ReplaceAllString(strings.ToLower(title), "-")
	return strings.Trim(slug, "-")
}

// NewObjectKey derives a fresh ad hoc key inside the owner's namespace:
// music/{ownerID}/{timestamp}-{random}-{sanitizedFileName}. Requesting a
// second grant for the same file always yields a different key.
func NewObjectKey(ownerID, fileName string) string {
	suffix := uuid.NewString()[:8]
	return fmt.Sprintf("%s%s/%d-%s-%s", keyPrefix, ownerID, time.Now().Unix(), suffix, SanitizeFileName(fileName))
}

// ValidateExplicitKey checks a caller-supplied destination key against the
// caller's permitted namespace. Explicit keys exist for deterministic album
// layouts (music/{albumSlug}/...); they must stay under the music/ root,
// contain only safe path segments, and may not target another user's
// personal namespace. Ad hoc namespaces are keyed by user ID, so a first
// segment shaped like an ID (all digits or a UUID) is only allowed when it
// matches the verified caller.
func ValidateExplicitKey(key, ownerID string) error {
	if !strings.HasPrefix(key, keyPrefix) {
		return fmt.Errorf("%w: explicit key must start with %q", ErrInvalidArgument, keyPrefix)
	}

	segments := strings.Split(strings.TrimPrefix(key, keyPrefix), "/")
	if len(segments) < 2 {
		return fmt.Errorf("%w: explicit key too shallow", ErrInvalidArgument)
	}
	for _, seg := range segments {
		if seg == "" || seg == "." || seg == ".." || !keySegment.MatchString(seg) {
			return fmt.Errorf("%w: invalid key segment %q", ErrInvalidArgument, seg)
		}
	}

	ns := segments[0]
	if (isDigits(ns) || uuidShaped.MatchString(ns)) && ns != ownerID {
		return fmt.Errorf("%w: key targets another user's namespace", ErrInvalidArgument)
	}
	return nil
}
