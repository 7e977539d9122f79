package uploader

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"

	"github.com/melofy/uploads/internal/upload"
)

// apiClient speaks to the upload authorization endpoints.
type apiClient struct {
	baseURL string
	token   string
	httpc   *http.Client
}

func (a *apiClient) requestGrant(ctx context.Context, req upload.GrantRequest) (*upload.Grant, error) {
	var grant upload.Grant
	if err := a.postJSON(ctx, "/api/v1/uploads/grant", req, &grant); err != nil {
		return nil, err
	}
	return &grant, nil
}

type confirmResponse struct {
	Success bool          `json:"success"`
	Music   *upload.Track `json:"music"`
}

func (a *apiClient) confirm(ctx context.Context, req upload.ConfirmRequest) (*upload.Track, error) {
	var resp confirmResponse
	if err := a.postJSON(ctx, "/api/v1/uploads/confirm", req, &resp); err != nil {
		return nil, err
	}
	if resp.Music == nil {
		return nil, fmt.Errorf("%w: confirmation returned no record", upload.ErrInternal)
	}
	return resp.Music, nil
}

// uploadDirect streams the file as multipart form data through the API,
// which performs the storage write itself and returns the persisted record.
func (a *apiClient) uploadDirect(ctx context.Context, name, contentType string, body io.Reader) (*upload.Track, error) {
	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)
	go func() {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, name))
		h.Set("Content-Type", contentType)
		part, err := mw.CreatePart(h)
		if err == nil {
			_, err = io.Copy(part, body)
		}
		if cerr := mw.Close(); err == nil {
			err = cerr
		}
		pw.CloseWithError(err)
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		strings.TrimRight(a.baseURL, "/")+"/api/v1/uploads/direct", pr)
	if err != nil {
		return nil, fmt.Errorf("build direct upload request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+a.token)

	resp, err := a.httpc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("direct upload: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, apiError(resp)
	}

	var out confirmResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if out.Music == nil {
		return nil, fmt.Errorf("%w: upload returned no record", upload.ErrInternal)
	}
	return out.Music, nil
}

func (a *apiClient) postJSON(ctx context.Context, path string, body, out interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		strings.TrimRight(a.baseURL, "/")+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+a.token)

	resp, err := a.httpc.Do(req)
	if err != nil {
		return fmt.Errorf("call %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return apiError(resp)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// apiError maps an error response onto the shared failure taxonomy, keeping
// the server's reason string intact for the caller.
func apiError(resp *http.Response) error {
	var body struct {
		Error string `json:"error"`
	}
	_ = json.NewDecoder(resp.Body).Decode(&body)
	if body.Error == "" {
		body.Error = resp.Status
	}

	var sentinel error
	switch resp.StatusCode {
	case http.StatusUnauthorized:
		sentinel = upload.ErrUnauthorized
	case http.StatusBadRequest:
		sentinel = upload.ErrInvalidArgument
	case http.StatusNotFound:
		sentinel = upload.ErrNotFound
	default:
		sentinel = upload.ErrInternal
	}
	return fmt.Errorf("%w: %s", sentinel, body.Error)
}
