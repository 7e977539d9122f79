package upload

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/melofy/uploads/internal/middleware"
	"github.com/melofy/uploads/internal/response"
)

// Handler holds HTTP handlers for upload endpoints.
type Handler struct {
	svc *Service
	// maxBodyBytes caps the direct-upload request body.
	maxBodyBytes int64
}

// NewHandler creates a new upload Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc, maxBodyBytes: svc.policy.MaxFileSizeBytes + 1<<20}
}

type confirmResponse struct {
	Success bool   `json:"success"`
	Music   *Track `json:"music"`
}

// RequestGrant godoc
//
//	@Summary		Request an upload grant
//	@Description	Validates the proposed upload and returns a time-limited presigned URL for a single direct-to-storage PUT.
//	@Tags			uploads
//	@Accept			json
//	@Produce		json
//	@Security		BearerAuth
//	@Param			request	body		GrantRequest	true	"proposed upload"
//	@Success		200		{object}	Grant
//	@Failure		400		{object}	map[string]string
//	@Failure		401		{object}	map[string]string
//	@Failure		500		{object}	map[string]string
//	@Router			/uploads/grant [post]
func (h *Handler) RequestGrant(w http.ResponseWriter, r *http.Request) {
	var req GrantRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}

	grant, err := h.svc.Grant(r.Context(), middleware.UserID(r.Context()), req)
	if err != nil {
		h.writeError(w, err)
		return
	}
	response.OK(w, grant)
}

// Confirm godoc
//
//	@Summary		Confirm a completed upload
//	@Description	Verifies the object exists in storage and persists the authoritative upload record.
//	@Tags			uploads
//	@Accept			json
//	@Produce		json
//	@Security		BearerAuth
//	@Param			request	body		ConfirmRequest	true	"completed upload"
//	@Success		200		{object}	confirmResponse
//	@Failure		400		{object}	map[string]string
//	@Failure		401		{object}	map[string]string
//	@Failure		404		{object}	map[string]string
//	@Failure		500		{object}	map[string]string
//	@Router			/uploads/confirm [post]
func (h *Handler) Confirm(w http.ResponseWriter, r *http.Request) {
	var req ConfirmRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}

	track, err := h.svc.Confirm(r.Context(), middleware.UserID(r.Context()), req)
	if err != nil {
		h.writeError(w, err)
		return
	}
	response.OK(w, confirmResponse{Success: true, Music: track})
}

// DirectUpload godoc
//
//	@Summary		Upload a file through the API
//	@Description	Multipart fallback for deployments without presigned uploads. The bytes stream through the API into storage.
//	@Tags			uploads
//	@Accept			multipart/form-data
//	@Produce		json
//	@Security		BearerAuth
//	@Param			file	formData	file	true	"audio or image file"
//	@Success		200		{object}	confirmResponse
//	@Failure		400		{object}	map[string]string
//	@Failure		401		{object}	map[string]string
//	@Failure		500		{object}	map[string]string
//	@Router			/uploads/direct [post]
func (h *Handler) DirectUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBodyBytes)

	file, header, err := r.FormFile("file")
	if err != nil {
		response.BadRequest(w, "missing file field")
		return
	}
	defer file.Close()

	track, err := h.svc.Direct(r.Context(), middleware.UserID(r.Context()),
		header.Filename, header.Header.Get("Content-Type"), header.Size, file)
	if err != nil {
		h.writeError(w, err)
		return
	}
	response.OK(w, confirmResponse{Success: true, Music: track})
}

// List godoc
//
//	@Summary		List the caller's uploads
//	@Tags			uploads
//	@Produce		json
//	@Security		BearerAuth
//	@Success		200	{array}		Track
//	@Failure		401	{object}	map[string]string
//	@Failure		500	{object}	map[string]string
//	@Router			/uploads [get]
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	tracks, err := h.svc.ListByOwner(r.Context(), middleware.UserID(r.Context()))
	if err != nil {
		h.writeError(w, err)
		return
	}
	if tracks == nil {
		tracks = []Track{}
	}
	response.OK(w, tracks)
}

// writeError maps the failure taxonomy onto HTTP statuses. Infrastructure
// errors are logged server-side and leave only a generic message.
func (h *Handler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrUnauthorized):
		response.Unauthorized(w, "unauthorized")
	case errors.Is(err, ErrInvalidArgument):
		response.BadRequest(w, err.Error())
	case errors.Is(err, ErrNotFound):
		response.NotFound(w, err.Error())
	default:
		log.Printf("upload: %v", err)
		response.InternalError(w)
	}
}
