package upload

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/melofy/uploads/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeStore is an in-memory ObjectStore recording presign calls and serving
// Stat from a seeded object map.
type fakeStore struct {
	objects map[string]*storage.ObjectInfo

	presignErr      error
	lastPresignKey  string
	lastPresignType string
	lastExpiry      time.Duration
}

func newFakeStore() *fakeStore {
	return &fakeStore{objects: map[string]*storage.ObjectInfo{}}
}

func (f *fakeStore) PresignPut(_ context.Context, key, contentType string, expiry time.Duration) (string, error) {
	if f.presignErr != nil {
		return "", f.presignErr
	}
	f.lastPresignKey = key
	f.lastPresignType = contentType
	f.lastExpiry = expiry
	return "https://storage.local/" + key + "?sig=test", nil
}

func (f *fakeStore) Put(_ context.Context, key string, reader io.Reader, size int64, contentType string) error {
	f.objects[key] = &storage.ObjectInfo{Key: key, Size: size, ContentType: contentType}
	return nil
}

func (f *fakeStore) Stat(_ context.Context, key string) (*storage.ObjectInfo, error) {
	info, ok := f.objects[key]
	if !ok {
		return nil, storage.ErrObjectNotFound
	}
	return info, nil
}

func (f *fakeStore) PublicURL(key string) string {
	return "https://cdn.melofy.test/" + key
}

func testPolicy() Policy {
	return Policy{MaxFileSizeBytes: 100 << 20, GrantLifetime: 15 * time.Minute}
}

func TestGrantAdHocKey(t *testing.T) {
	store := newFakeStore()
	svc := NewService(store, NewMemoryRecorder(), testPolicy())

	grant, err := svc.Grant(context.Background(), "42", GrantRequest{
		FileName: "track.mp3",
		FileType: "audio/mpeg",
		FileSize: 4_000_000,
	})
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(grant.Key, "music/42/"), "key %q", grant.Key)
	assert.True(t, strings.HasSuffix(grant.Key, "track.mp3"), "key %q", grant.Key)
	assert.Equal(t, int64(900), grant.ExpiresIn)
	assert.Contains(t, grant.UploadURL, grant.Key)

	// The signature pins the declared content type.
	assert.Equal(t, "audio/mpeg", store.lastPresignType)
	assert.Equal(t, 15*time.Minute, store.lastExpiry)
}

func TestGrantRejectsUnsupportedType(t *testing.T) {
	svc := NewService(newFakeStore(), NewMemoryRecorder(), testPolicy())

	_, err := svc.Grant(context.Background(), "42", GrantRequest{
		FileName: "x.exe",
		FileType: "application/octet-stream",
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidArgument)
	assert.Contains(t, err.Error(), "unsupported file type")
}

func TestGrantRejectsOversizedFile(t *testing.T) {
	svc := NewService(newFakeStore(), NewMemoryRecorder(), testPolicy())

	_, err := svc.Grant(context.Background(), "42", GrantRequest{
		FileName: "big.mp3",
		FileType: "audio/mpeg",
		FileSize: 101 << 20,
	})
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestGrantRejectsMissingFileName(t *testing.T) {
	svc := NewService(newFakeStore(), NewMemoryRecorder(), testPolicy())

	_, err := svc.Grant(context.Background(), "42", GrantRequest{FileType: "audio/mpeg"})
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestGrantExplicitKeyValidation(t *testing.T) {
	store := newFakeStore()
	svc := NewService(store, NewMemoryRecorder(), testPolicy())

	grant, err := svc.Grant(context.Background(), "42", GrantRequest{
		FileName: "a.mp3",
		FileType: "audio/mpeg",
		Key:      "music/my-album/01. a.mp3",
	})
	require.NoError(t, err)
	assert.Equal(t, "music/my-album/01. a.mp3", grant.Key)

	_, err = svc.Grant(context.Background(), "42", GrantRequest{
		FileName: "a.mp3",
		FileType: "audio/mpeg",
		Key:      "music/7/steal.mp3",
	})
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestGrantInfrastructureFailure(t *testing.T) {
	store := newFakeStore()
	store.presignErr = errors.New("signer unavailable")
	svc := NewService(store, NewMemoryRecorder(), testPolicy())

	_, err := svc.Grant(context.Background(), "42", GrantRequest{
		FileName: "a.mp3",
		FileType: "audio/mpeg",
	})
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrInvalidArgument)
	assert.NotErrorIs(t, err, ErrNotFound)
}

func TestConfirmRejectsMissingObject(t *testing.T) {
	repo := NewMemoryRecorder()
	svc := NewService(newFakeStore(), repo, testPolicy())

	_, err := svc.Confirm(context.Background(), "42", ConfirmRequest{Key: "music/42/never-uploaded.mp3"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotFound)

	// A failed confirmation must not leave a record behind.
	assert.Empty(t, repo.All())
}

func TestConfirmPersistsAuthoritativeMetadata(t *testing.T) {
	store := newFakeStore()
	store.objects["music/42/123-abcd-track.mp3"] = &storage.ObjectInfo{
		Key:         "music/42/123-abcd-track.mp3",
		Size:        4_000_000,
		ContentType: "audio/mpeg",
	}
	repo := NewMemoryRecorder()
	svc := NewService(store, repo, testPolicy())

	track, err := svc.Confirm(context.Background(), "42", ConfirmRequest{
		Key:      "music/42/123-abcd-track.mp3",
		FileName: "track.mp3",
		FileSize: 999, // client lies about the size; storage wins
	})
	require.NoError(t, err)

	assert.Equal(t, "42", track.OwnerID)
	assert.Equal(t, "track", track.Title)
	assert.Equal(t, int64(4_000_000), track.SizeBytes)
	assert.Equal(t, "audio/mpeg", track.ContentType)
	assert.Equal(t, "https://cdn.melofy.test/music/42/123-abcd-track.mp3", track.URL)
	assert.NotEmpty(t, track.ID)
	assert.False(t, track.UploadedAt.IsZero())

	records := repo.All()
	require.Len(t, records, 1)
	assert.Equal(t, track.ID, records[0].ID)
}

func TestConfirmOwnerFromCredentialOnly(t *testing.T) {
	store := newFakeStore()
	store.objects["music/42/x.mp3"] = &storage.ObjectInfo{Key: "music/42/x.mp3", Size: 10, ContentType: "audio/mpeg"}
	repo := NewMemoryRecorder()
	svc := NewService(store, repo, testPolicy())

	// ConfirmRequest carries no owner field at all; the record's owner is
	// whatever identity the verified credential established.
	track, err := svc.Confirm(context.Background(), "99", ConfirmRequest{Key: "music/42/x.mp3"})
	require.NoError(t, err)
	assert.Equal(t, "99", track.OwnerID)
}

func TestConfirmDerivesArtistFromFileName(t *testing.T) {
	store := newFakeStore()
	store.objects["music/42/y.mp3"] = &storage.ObjectInfo{Key: "music/42/y.mp3", Size: 10, ContentType: "audio/mpeg"}
	svc := NewService(store, NewMemoryRecorder(), testPolicy())

	track, err := svc.Confirm(context.Background(), "42", ConfirmRequest{
		Key:      "music/42/y.mp3",
		FileName: "Jane - My Song.mp3",
	})
	require.NoError(t, err)
	assert.Equal(t, "Jane", track.Artist)
	assert.Equal(t, "My Song", track.Title)
}

func TestDirectUpload(t *testing.T) {
	store := newFakeStore()
	repo := NewMemoryRecorder()
	svc := NewService(store, repo, testPolicy())

	track, err := svc.Direct(context.Background(), "42", "song.mp3", "",
		int64(len("bytes")), strings.NewReader("bytes"))
	require.NoError(t, err)

	assert.Equal(t, "42", track.OwnerID)
	assert.Equal(t, "song", track.Title)
	assert.Equal(t, "audio/mpeg", track.ContentType)
	assert.True(t, strings.HasPrefix(track.ObjectKey, "music/42/"))
	require.Len(t, repo.All(), 1)
}

func TestListByOwner(t *testing.T) {
	store := newFakeStore()
	store.objects["music/42/a.mp3"] = &storage.ObjectInfo{Key: "music/42/a.mp3", Size: 1, ContentType: "audio/mpeg"}
	repo := NewMemoryRecorder()
	svc := NewService(store, repo, testPolicy())

	_, err := svc.Confirm(context.Background(), "42", ConfirmRequest{Key: "music/42/a.mp3"})
	require.NoError(t, err)

	mine, err := svc.ListByOwner(context.Background(), "42")
	require.NoError(t, err)
	assert.Len(t, mine, 1)

	theirs, err := svc.ListByOwner(context.Background(), "7")
	require.NoError(t, err)
	assert.Empty(t, theirs)
}
