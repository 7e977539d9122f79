// Package uploader orchestrates the three-step upload protocol from the
// client side: request a grant, PUT the bytes to storage, confirm completion.
package uploader

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/melofy/uploads/internal/upload"
)

// State names the phases of a single upload.
type State string

const (
	StateIdle            State = "idle"
	StateRequestingGrant State = "requesting_grant"
	StateTransferring    State = "transferring"
	StateConfirming      State = "confirming"
	StateSucceeded       State = "succeeded"
	StateFailed          State = "failed"
)

// ErrCancelled marks a caller-initiated abort. It is a terminal outcome,
// not a failure to log as an error.
var ErrCancelled = errors.New("cancelled")

// ProgressFunc receives byte-level transfer progress.
type ProgressFunc func(sent, total int64)

// Config holds the orchestrator's construction-time settings.
type Config struct {
	ServerURL string
	Token     string
	// HTTPClient is used for both API calls and storage transfers.
	// Defaults to a client with no overall timeout — large transfers are
	// bounded by context cancellation instead.
	HTTPClient *http.Client
	// ConfirmRetries bounds re-confirmation attempts after a NotFound,
	// absorbing storage read-after-write lag. Defaults to 3.
	ConfirmRetries int
	// ConfirmBackoff is the initial retry delay, doubled per attempt.
	// Defaults to 500ms.
	ConfirmBackoff time.Duration
	// DirectUpload routes the bytes through the API instead of PUTting
	// them storage-direct with a presigned grant. For deployments where
	// presigned uploads are disabled.
	DirectUpload bool
	// OnState, when set, observes state transitions.
	OnState func(State)
}

// Client is the upload orchestrator.
type Client struct {
	api     *apiClient
	httpc   *http.Client
	retries int
	backoff time.Duration
	direct  bool
	onState func(State)
}

// New creates an upload Client from explicit configuration; nothing is read
// from ambient global state.
func New(cfg Config) *Client {
	httpc := cfg.HTTPClient
	if httpc == nil {
		httpc = &http.Client{}
	}
	retries := cfg.ConfirmRetries
	if retries == 0 {
		retries = 3
	}
	backoff := cfg.ConfirmBackoff
	if backoff == 0 {
		backoff = 500 * time.Millisecond
	}
	return &Client{
		api:     &apiClient{baseURL: cfg.ServerURL, token: cfg.Token, httpc: httpc},
		httpc:   httpc,
		retries: retries,
		backoff: backoff,
		direct:  cfg.DirectUpload,
		onState: cfg.OnState,
	}
}

// File is a local byte stream with known length and declared content type.
type File struct {
	Name        string
	ContentType string // may be empty or generic; resolved by extension
	Size        int64
	Reader      io.Reader
	// Key, when set, requests a deterministic destination (album layouts).
	Key string
}

func (c *Client) setState(s State) {
	if c.onState != nil {
		c.onState(s)
	}
}

// UploadSingle runs the full grant → transfer → confirm sequence for one file.
// Every terminal outcome is exactly one of: a returned record, or an error
// carrying the failure reason (ErrCancelled for caller-initiated aborts).
func (c *Client) UploadSingle(ctx context.Context, f File, progress ProgressFunc) (*upload.Track, error) {
	c.setState(StateIdle)

	var track *upload.Track
	var err error
	if c.direct {
		track, err = c.uploadDirect(ctx, f, progress)
	} else {
		track, err = c.uploadSingle(ctx, f, progress)
	}
	if err != nil {
		c.setState(StateFailed)
		if ctx.Err() != nil {
			return nil, fmt.Errorf("%w: %v", ErrCancelled, err)
		}
		return nil, err
	}
	c.setState(StateSucceeded)
	return track, nil
}

func (c *Client) uploadSingle(ctx context.Context, f File, progress ProgressFunc) (*upload.Track, error) {
	// Resolve the content type with the same table the server uses: the
	// granted type and the PUT header must agree or storage rejects the write.
	contentType, err := upload.ResolveContentType(f.Name, f.ContentType)
	if err != nil {
		return nil, err
	}

	c.setState(StateRequestingGrant)
	grant, err := c.api.requestGrant(ctx, upload.GrantRequest{
		FileName: f.Name,
		FileType: contentType,
		FileSize: f.Size,
		Key:      f.Key,
	})
	if err != nil {
		return nil, fmt.Errorf("request grant: %w", err)
	}

	c.setState(StateTransferring)
	if err := c.transfer(ctx, grant.UploadURL, contentType, f, progress); err != nil {
		return nil, err
	}

	c.setState(StateConfirming)
	track, err := c.confirmWithRetry(ctx, upload.ConfirmRequest{
		Key:      grant.Key,
		FileName: f.Name,
		FileSize: f.Size,
		FileType: contentType,
	})
	if err != nil {
		return nil, fmt.Errorf("confirm upload: %w", err)
	}
	return track, nil
}

// uploadDirect is the single-step fallback: no grant and no confirmation,
// the API receives the bytes and persists the record itself.
func (c *Client) uploadDirect(ctx context.Context, f File, progress ProgressFunc) (*upload.Track, error) {
	contentType, err := upload.ResolveContentType(f.Name, f.ContentType)
	if err != nil {
		return nil, err
	}

	c.setState(StateTransferring)
	body := io.Reader(f.Reader)
	if progress != nil {
		body = &progressReader{r: f.Reader, total: f.Size, fn: progress}
	}

	track, err := c.api.uploadDirect(ctx, f.Name, contentType, body)
	if err != nil {
		return nil, fmt.Errorf("direct upload: %w", err)
	}
	return track, nil
}

// transfer PUTs the byte stream to the granted URL. Any non-2xx response is
// a hard failure — an expired or mismatched grant is never retried.
func (c *Client) transfer(ctx context.Context, uploadURL, contentType string, f File, progress ProgressFunc) error {
	body := io.Reader(f.Reader)
	if progress != nil {
		body = &progressReader{r: f.Reader, total: f.Size, fn: progress}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, uploadURL, body)
	if err != nil {
		return fmt.Errorf("build transfer request: %w", err)
	}
	req.ContentLength = f.Size
	req.Header.Set("Content-Type", contentType)

	resp, err := c.httpc.Do(req)
	if err != nil {
		return fmt.Errorf("transfer: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("storage rejected upload (status %d): %s", resp.StatusCode, string(b))
	}
	return nil
}

// confirmWithRetry retries only NotFound responses, which can surface when
// storage is read-after-write laggy. Everything else is terminal.
func (c *Client) confirmWithRetry(ctx context.Context, req upload.ConfirmRequest) (*upload.Track, error) {
	backoff := c.backoff
	var lastErr error

	for attempt := 0; attempt <= c.retries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
			}
			backoff *= 2
		}

		track, err := c.api.confirm(ctx, req)
		if err == nil {
			return track, nil
		}
		if !errors.Is(err, upload.ErrNotFound) {
			return nil, err
		}
		lastErr = err
	}
	return nil, lastErr
}

// progressReader reports cumulative bytes read to a ProgressFunc.
type progressReader struct {
	r     io.Reader
	total int64
	sent  int64
	fn    ProgressFunc
}

func (p *progressReader) Read(b []byte) (int, error) {
	n, err := p.r.Read(b)
	if n > 0 {
		p.sent += int64(n)
		p.fn(p.sent, p.total)
	}
	return n, err
}
