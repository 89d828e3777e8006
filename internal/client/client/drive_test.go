package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/dmitrijs2005/snaplog/internal/common"
)

type driveRequest struct {
	Method string
	Path   string
	Query  string
	Body   string
}

type fakeDrive struct {
	mu       sync.Mutex
	requests []driveRequest
	handler  func(w http.ResponseWriter, r *http.Request)
}

func (f *fakeDrive) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	f.mu.Lock()
	f.requests = append(f.requests, driveRequest{Method: r.Method, Path: r.URL.Path, Query: r.URL.Query().Get("q"), Body: string(body)})
	f.mu.Unlock()
	f.handler(w, r)
}

func newDriveClient(t *testing.T, h func(w http.ResponseWriter, r *http.Request)) (*DriveClient, *fakeDrive) {
	t.Helper()
	fake := &fakeDrive{handler: h}
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	c, err := NewDriveClient(context.Background(),
		option.WithEndpoint(srv.URL+"/"),
		option.WithHTTPClient(srv.Client()),
	)
	require.NoError(t, err)
	return c, fake
}

func writeJSON(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, body)
}

func TestDriveClient_List_PaginatesAndMaps(t *testing.T) {
	c, fake := newDriveClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.True(t, strings.HasSuffix(r.URL.Path, "/files"))
		if r.URL.Query().Get("pageToken") == "" {
			writeJSON(w, 200, `{"nextPageToken":"p2","files":[{"id":"a","name":"cup.jpg","mimeType":"image/jpeg","webContentLink":"https://dl/a"}]}`)
			return
		}
		writeJSON(w, 200, `{"files":[{"id":"b","name":"14_10_1_WED.json","mimeType":"application/json"}]}`)
	})

	objs, err := c.List(context.Background(), "inv-1")
	require.NoError(t, err)
	require.Len(t, objs, 2)
	assert.Equal(t, "a", objs[0].ID)
	assert.Equal(t, "cup.jpg", objs[0].Name)
	assert.Equal(t, "https://dl/a", objs[0].ContentLink)
	assert.Equal(t, "b", objs[1].ID)

	require.Len(t, fake.requests, 2)
	assert.Equal(t, "'inv-1' in parents and trashed=false", fake.requests[0].Query)
}

func TestDriveClient_ListFolders_FiltersByMimeType(t *testing.T) {
	c, fake := newDriveClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, 200, fmt.Sprintf(`{"files":[{"id":"f1","name":"Snaplog","mimeType":"%s"}]}`, common.FolderMimeType))
	})

	objs, err := c.ListFolders(context.Background(), common.RemoteRootID)
	require.NoError(t, err)
	require.Len(t, objs, 1)
	assert.True(t, objs[0].IsFolder())
	assert.Equal(t, "'root' in parents and trashed=false and mimeType='"+common.FolderMimeType+"'", fake.requests[0].Query)
}

func TestDriveClient_CreateFolderAndUpload(t *testing.T) {
	c, fake := newDriveClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		if strings.HasPrefix(r.URL.Path, "/upload/") {
			writeJSON(w, 200, `{"id":"file-1"}`)
			return
		}
		writeJSON(w, 200, `{"id":"folder-1"}`)
	})
	ctx := context.Background()

	id, err := c.CreateFolder(ctx, "Inventory", "root-1")
	require.NoError(t, err)
	assert.Equal(t, "folder-1", id)
	assert.Contains(t, fake.requests[0].Body, `"name":"Inventory"`)
	assert.Contains(t, fake.requests[0].Body, `"parents":["root-1"]`)

	id, err = c.Upload(ctx, strings.NewReader("jpeg-bytes"), "inv-1", "cup.jpg", "image/jpeg")
	require.NoError(t, err)
	assert.Equal(t, "file-1", id)
	assert.Contains(t, fake.requests[1].Path, "/upload/")
	assert.Contains(t, fake.requests[1].Body, "jpeg-bytes")
}

func TestDriveClient_DeleteDownloadPing(t *testing.T) {
	c, fake := newDriveClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodDelete && strings.HasSuffix(r.URL.Path, "/files/gone"):
			writeJSON(w, 404, `{"error":{"code":404,"message":"File not found: gone.","errors":[{"reason":"notFound","message":"File not found"}]}}`)
		case r.Method == http.MethodDelete:
			w.WriteHeader(http.StatusNoContent)
		case r.Method == http.MethodGet && strings.HasSuffix(r.URL.Path, "/files/img-1"):
			_, _ = io.WriteString(w, "raw-image")
		case strings.HasSuffix(r.URL.Path, "/about"):
			writeJSON(w, 200, `{"user":{"displayName":"x"}}`)
		default:
			w.WriteHeader(http.StatusTeapot)
		}
	})
	ctx := context.Background()

	require.NoError(t, c.Delete(ctx, "img-1"))

	err := c.Delete(ctx, "gone")
	require.ErrorIs(t, err, ErrNotFound)
	assert.False(t, IsTransient(err))

	data, err := c.Download(ctx, "img-1")
	require.NoError(t, err)
	assert.Equal(t, []byte("raw-image"), data)

	require.NoError(t, c.Ping(ctx))
	assert.NotEmpty(t, fake.requests)
}

func TestDriveClient_UnauthorizedIsAuthError(t *testing.T) {
	c, _ := newDriveClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, 401, `{"error":{"code":401,"message":"Invalid Credentials","errors":[{"reason":"authError"}]}}`)
	})

	_, err := c.List(context.Background(), "x")
	require.ErrorIs(t, err, ErrAuth)
	assert.False(t, IsTransient(err))
}

func TestDriveClient_ConnectionRefusedIsTransient(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c, err := NewDriveClient(context.Background(), option.WithEndpoint(url+"/"), option.WithHTTPClient(http.DefaultClient))
	require.NoError(t, err)

	err = c.Ping(context.Background())
	require.ErrorIs(t, err, ErrNetwork)
	assert.True(t, IsTransient(err))
}

func TestClassifyDriveError(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		target error
	}{
		{name: "5xx", err: &googleapi.Error{Code: 503}, target: ErrNetwork},
		{name: "429", err: &googleapi.Error{Code: 429}, target: ErrNetwork},
		{name: "403 rate limit", err: &googleapi.Error{Code: 403, Errors: []googleapi.ErrorItem{{Reason: "userRateLimitExceeded"}}}, target: ErrNetwork},
		{name: "403 forbidden", err: &googleapi.Error{Code: 403, Errors: []googleapi.ErrorItem{{Reason: "insufficientPermissions"}}}, target: ErrAuth},
		{name: "401", err: &googleapi.Error{Code: 401}, target: ErrAuth},
		{name: "404", err: &googleapi.Error{Code: 404}, target: ErrNotFound},
		{name: "token refresh", err: fmt.Errorf("transport: %w", &oauth2.RetrieveError{ErrorCode: "invalid_grant"}), target: ErrAuth},
		{name: "signed out token source", err: fmt.Errorf("Get: %w", ErrAuth), target: ErrAuth},
		{name: "transport", err: errors.New("connection reset by peer"), target: ErrNetwork},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := classifyDriveError("op", tt.err)
			require.ErrorIs(t, got, tt.target)
			require.ErrorIs(t, got, tt.err)
		})
	}

	t.Run("400 is permanent", func(t *testing.T) {
		got := classifyDriveError("op", &googleapi.Error{Code: 400})
		assert.False(t, IsTransient(got))
		assert.NotErrorIs(t, got, ErrAuth)
	})

	t.Run("context cancel is not transient", func(t *testing.T) {
		got := classifyDriveError("op", context.Canceled)
		require.ErrorIs(t, got, context.Canceled)
		assert.False(t, IsTransient(got))
	})
}

func TestEscapeQuery(t *testing.T) {
	assert.Equal(t, `it\'s`, escapeQuery("it's"))
	assert.Equal(t, `a\\b`, escapeQuery(`a\b`))
}
