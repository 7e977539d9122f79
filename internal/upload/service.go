package upload

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"time"

	"github.com/google/uuid"
	"github.com/melofy/uploads/internal/storage"
)

// Policy holds the upload limits injected at construction time.
type Policy struct {
	MaxFileSizeBytes int64
	GrantLifetime    time.Duration
}

// Service contains the business logic of the upload coordination protocol.
// It holds no per-request state: every grant and confirmation is independently
// authorized and independently keyed.
type Service struct {
	store  storage.ObjectStore
	repo   Recorder
	policy Policy
}

// NewService creates a new upload Service.
func NewService(store storage.ObjectStore, repo Recorder, policy Policy) *Service {
	return &Service{store: store, repo: repo, policy: policy}
}

// Grant validates the proposed upload and returns a time-limited authorization
// for exactly one write of exactly one object. Nothing is persisted — this is
// a pure derivation and signing operation.
func (s *Service) Grant(ctx context.Context, ownerID string, req GrantRequest) (*Grant, error) {
	if ownerID == "" {
		return nil, ErrUnauthorized
	}
	if req.FileName == "" {
		return nil, fmt.Errorf("%w: fileName is required", ErrInvalidArgument)
	}

	contentType, err := ResolveContentType(req.FileName, req.FileType)
	if err != nil {
		return nil, err
	}

	if req.FileSize > 0 && req.FileSize > s.policy.MaxFileSizeBytes {
		return nil, fmt.Errorf("%w: file size %d exceeds limit of %d bytes",
			ErrInvalidArgument, req.FileSize, s.policy.MaxFileSizeBytes)
	}

	key := req.Key
	if key != "" {
		if err := ValidateExplicitKey(key, ownerID); err != nil {
			return nil, err
		}
	} else {
		key = NewObjectKey(ownerID, req.FileName)
	}

	url, err := s.store.PresignPut(ctx, key, contentType, s.policy.GrantLifetime)
	if err != nil {
		return nil, fmt.Errorf("presign upload: %w", err)
	}

	return &Grant{
		Key:       key,
		UploadURL: url,
		ExpiresIn: int64(s.policy.GrantLifetime.Seconds()),
	}, nil
}

// Confirm verifies that the object actually exists in storage, derives
// descriptive metadata, and persists the durable record. The retrieval URL
// and the size/content-type are always recomputed server-side — a client
// cannot fabricate a record for bytes it never wrote, nor lie about what
// it uploaded.
func (s *Service) Confirm(ctx context.Context, ownerID string, req ConfirmRequest) (*Track, error) {
	if ownerID == "" {
		return nil, ErrUnauthorized
	}
	if req.Key == "" {
		return nil, fmt.Errorf("%w: key is required", ErrInvalidArgument)
	}

	info, err := s.store.Stat(ctx, req.Key)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			return nil, fmt.Errorf("%w: no object under key %q", ErrNotFound, req.Key)
		}
		return nil, fmt.Errorf("stat object: %w", err)
	}

	fileName := req.FileName
	if fileName == "" {
		fileName = path.Base(req.Key)
	}
	artist, title := SplitArtistTitle(TitleFromFileName(fileName))

	contentType := info.ContentType
	if contentType == "" || contentType == "application/octet-stream" {
		// Some stores report a generic type; fall back to the same
		// extension table used at grant time.
		if ct, ctErr := ResolveContentType(fileName, ""); ctErr == nil {
			contentType = ct
		}
	}

	track := &Track{
		ID:          uuid.NewString(),
		OwnerID:     ownerID,
		Title:       title,
		Artist:      artist,
		ObjectKey:   req.Key,
		URL:         s.store.PublicURL(req.Key),
		SizeBytes:   info.Size,
		ContentType: contentType,
		UploadedAt:  time.Now().UTC(),
	}

	if err := s.repo.Create(ctx, track); err != nil {
		return nil, fmt.Errorf("persist upload record: %w", err)
	}
	return track, nil
}

// Direct performs a full server-side upload: the bytes stream through the API
// into storage and the record is persisted in the same shape Confirm produces.
// This is the fallback path for deployments without presigned uploads.
func (s *Service) Direct(ctx context.Context, ownerID, fileName, declaredType string, size int64, r io.Reader) (*Track, error) {
	if ownerID == "" {
		return nil, ErrUnauthorized
	}
	if fileName == "" {
		return nil, fmt.Errorf("%w: fileName is required", ErrInvalidArgument)
	}

	contentType, err := ResolveContentType(fileName, declaredType)
	if err != nil {
		return nil, err
	}
	if size > 0 && size > s.policy.MaxFileSizeBytes {
		return nil, fmt.Errorf("%w: file size %d exceeds limit of %d bytes",
			ErrInvalidArgument, size, s.policy.MaxFileSizeBytes)
	}

	key := NewObjectKey(ownerID, fileName)
	if err := s.store.Put(ctx, key, r, size, contentType); err != nil {
		return nil, fmt.Errorf("store object: %w", err)
	}

	return s.Confirm(ctx, ownerID, ConfirmRequest{Key: key, FileName: fileName})
}

// ListByOwner returns the caller's confirmed uploads, newest first.
func (s *Service) ListByOwner(ctx context.Context, ownerID string) ([]Track, error) {
	if ownerID == "" {
		return nil, ErrUnauthorized
	}
	tracks, err := s.repo.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list uploads: %w", err)
	}
	return tracks, nil
}
