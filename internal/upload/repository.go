package upload

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Recorder persists confirmed upload records. Records are immutable once
// created; there are no update or merge semantics.
type Recorder interface {
	Create(ctx context.Context, t *Track) error
	ListByOwner(ctx context.Context, ownerID string) ([]Track, error)
}

// Repository is the Postgres-backed Recorder.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository creates a new Repository with the given connection pool.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// Create inserts a confirmed upload record.
func (r *Repository) Create(ctx context.Context, t *Track) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO uploads (id, owner_id, title, artist, object_key, url, size_bytes, content_type, uploaded_at)
		 VALUES ($1, $2, $3, NULLIF($4, ''), $5, $6, $7, $8, $9)`,
		t.ID, t.OwnerID, t.Title, t.Artist, t.ObjectKey, t.URL, t.SizeBytes, t.ContentType, t.UploadedAt,
	)
	if err != nil {
		return fmt.Errorf("insert upload: %w", err)
	}
	return nil
}

// ListByOwner returns all uploads belonging to ownerID, newest first.
func (r *Repository) ListByOwner(ctx context.Context, ownerID string) ([]Track, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, owner_id, title, COALESCE(artist, ''), object_key, url, size_bytes, content_type, uploaded_at
		 FROM uploads WHERE owner_id = $1 ORDER BY uploaded_at DESC`,
		ownerID,
	)
	if err != nil {
		return nil, fmt.Errorf("query uploads: %w", err)
	}
	defer rows.Close()

	var tracks []Track
	for rows.Next() {
		var t Track
		if err := rows.Scan(&t.ID, &t.OwnerID, &t.Title, &t.Artist, &t.ObjectKey,
			&t.URL, &t.SizeBytes, &t.ContentType, &t.UploadedAt); err != nil {
			return nil, fmt.Errorf("scan upload: %w", err)
		}
		tracks = append(tracks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate uploads: %w", err)
	}
	return tracks, nil
}
