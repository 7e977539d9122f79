package upload

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/melofy/uploads/internal/auth"
	"github.com/melofy/uploads/internal/middleware"
	"github.com/melofy/uploads/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func newTestServer(t *testing.T, store *fakeStore, repo Recorder) *httptest.Server {
	t.Helper()
	svc := NewService(store, repo, testPolicy())
	h := NewHandler(svc)

	r := chi.NewRouter()
	r.Route("/api/v1/uploads", func(r chi.Router) {
		r.Use(middleware.RequireAuth(testSecret))
		r.Get("/", h.List)
		r.Post("/grant", h.RequestGrant)
		r.Post("/confirm", h.Confirm)
		r.Post("/direct", h.DirectUpload)
	})

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func doJSON(t *testing.T, method, url, token string, body interface{}) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, url, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

func mintToken(t *testing.T, userID string) string {
	t.Helper()
	token, err := auth.IssueToken(testSecret, userID, time.Hour)
	require.NoError(t, err)
	return token
}

func TestGrantEndpointRequiresAuth(t *testing.T) {
	srv := newTestServer(t, newFakeStore(), NewMemoryRecorder())

	resp := doJSON(t, http.MethodPost, srv.URL+"/api/v1/uploads/grant", "",
		GrantRequest{FileName: "a.mp3", FileType: "audio/mpeg"})
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.NotEmpty(t, body["error"])
}

func TestGrantEndpointRejectsGarbageToken(t *testing.T) {
	srv := newTestServer(t, newFakeStore(), NewMemoryRecorder())

	resp := doJSON(t, http.MethodPost, srv.URL+"/api/v1/uploads/grant", "not-a-jwt",
		GrantRequest{FileName: "a.mp3", FileType: "audio/mpeg"})
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestGrantEndpointSuccess(t *testing.T) {
	srv := newTestServer(t, newFakeStore(), NewMemoryRecorder())
	token := mintToken(t, "42")

	resp := doJSON(t, http.MethodPost, srv.URL+"/api/v1/uploads/grant", token,
		GrantRequest{FileName: "track.mp3", FileType: "audio/mpeg", FileSize: 4_000_000})
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var grant Grant
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&grant))
	assert.Regexp(t, `^music/42/.*track\.mp3$`, grant.Key)
	assert.NotEmpty(t, grant.UploadURL)
	assert.Equal(t, int64(900), grant.ExpiresIn)
}

func TestGrantEndpointRejectsUnsupportedType(t *testing.T) {
	srv := newTestServer(t, newFakeStore(), NewMemoryRecorder())
	token := mintToken(t, "42")

	resp := doJSON(t, http.MethodPost, srv.URL+"/api/v1/uploads/grant", token,
		GrantRequest{FileName: "x.exe", FileType: "application/octet-stream"})
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Contains(t, body["error"], "unsupported")
}

func TestConfirmEndpointMissingObject(t *testing.T) {
	srv := newTestServer(t, newFakeStore(), NewMemoryRecorder())
	token := mintToken(t, "42")

	resp := doJSON(t, http.MethodPost, srv.URL+"/api/v1/uploads/confirm", token,
		ConfirmRequest{Key: "music/42/ghost.mp3"})
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestConfirmEndpointSuccess(t *testing.T) {
	store := newFakeStore()
	store.objects["music/42/abc-track.mp3"] = &storage.ObjectInfo{
		Key: "music/42/abc-track.mp3", Size: 1234, ContentType: "audio/mpeg",
	}
	srv := newTestServer(t, store, NewMemoryRecorder())
	token := mintToken(t, "42")

	resp := doJSON(t, http.MethodPost, srv.URL+"/api/v1/uploads/confirm", token,
		ConfirmRequest{Key: "music/42/abc-track.mp3", FileName: "track.mp3"})
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body confirmResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.True(t, body.Success)
	require.NotNil(t, body.Music)
	assert.Equal(t, "track", body.Music.Title)
	assert.Equal(t, int64(1234), body.Music.SizeBytes)
	assert.Contains(t, body.Music.URL, "music/42/abc-track.mp3")
}

func TestListEndpoint(t *testing.T) {
	store := newFakeStore()
	store.objects["music/42/a.mp3"] = &storage.ObjectInfo{Key: "music/42/a.mp3", Size: 1, ContentType: "audio/mpeg"}
	srv := newTestServer(t, store, NewMemoryRecorder())
	token := mintToken(t, "42")

	resp := doJSON(t, http.MethodPost, srv.URL+"/api/v1/uploads/confirm", token,
		ConfirmRequest{Key: "music/42/a.mp3"})
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = doJSON(t, http.MethodGet, srv.URL+"/api/v1/uploads/", token, nil)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var tracks []Track
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&tracks))
	assert.Len(t, tracks, 1)
}
