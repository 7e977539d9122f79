// Package upload implements the presigned-upload coordination protocol:
// issuing time-limited grants for direct-to-storage writes and recording
// authoritative metadata once a transfer is confirmed.
package upload

import "time"

// GrantRequest is the caller's proposal for an upload, validated before any
// grant is issued.
type GrantRequest struct {
	FileName string `json:"fileName"`
	FileType string `json:"fileType"`
	FileSize int64  `json:"fileSize,omitempty"`
	// Key, when set, requests a deterministic destination (album/track
	// placement). It is validated against the caller's namespace before use.
	Key string `json:"explicitKey,omitempty"`
}

// Grant authorizes exactly one write of exactly one object. It is never
// persisted; once expired or consumed it is simply abandoned.
type Grant struct {
	Key       string `json:"key"`
	UploadURL string `json:"uploadUrl"`
	ExpiresIn int64  `json:"expiresIn"` // seconds of validity from issue time
}

// ConfirmRequest is the client's post-transfer notification. Every field
// except Key is advisory: storage-side metadata wins over client claims.
type ConfirmRequest struct {
	Key      string `json:"key"`
	FileName string `json:"fileName,omitempty"`
	FileSize int64  `json:"fileSize,omitempty"`
	FileType string `json:"fileType,omitempty"`
}

// Track is the durable record of a confirmed upload.
type Track struct {
	ID          string    `json:"id"`
	OwnerID     string    `json:"-"`
	Title       string    `json:"title"`
	Artist      string    `json:"artist,omitempty"`
	ObjectKey   string    `json:"-"`
	URL         string    `json:"url"`
	SizeBytes   int64     `json:"sizeBytes"`
	ContentType string    `json:"contentType"`
	UploadedAt  time.Time `json:"uploadedAt"`
}
