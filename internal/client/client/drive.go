package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"golang.org/x/oauth2"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/dmitrijs2005/snaplog/internal/client/models"
	"github.com/dmitrijs2005/snaplog/internal/common"
)

const (
	listFields  = "nextPageToken, files(id, name, mimeType, webContentLink)"
	listPageMax = 1000
)

// DriveClient implements Client on top of the Google Drive v3 API.
type DriveClient struct {
	srv *drive.Service
}

// NewDriveClient builds the Drive service. Callers normally pass
// option.WithTokenSource; tests pass option.WithEndpoint and
// option.WithHTTPClient.
func NewDriveClient(ctx context.Context, opts ...option.ClientOption) (*DriveClient, error) {
	srv, err := drive.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create drive service: %w", err)
	}
	return &DriveClient{srv: srv}, nil
}

func (c *DriveClient) List(ctx context.Context, folderID string) ([]models.RemoteObject, error) {
	q := fmt.Sprintf("'%s' in parents and trashed=false", escapeQuery(folderID))
	return c.list(ctx, "list", q)
}

func (c *DriveClient) ListFolders(ctx context.Context, parentID string) ([]models.RemoteObject, error) {
	q := fmt.Sprintf("'%s' in parents and trashed=false and mimeType='%s'", escapeQuery(parentID), common.FolderMimeType)
	return c.list(ctx, "list folders", q)
}

func (c *DriveClient) list(ctx context.Context, op, q string) ([]models.RemoteObject, error) {
	result := make([]models.RemoteObject, 0)

	call := c.srv.Files.List().Q(q).Fields(listFields).PageSize(listPageMax).Context(ctx)
	for {
		files, err := call.Do()
		if err != nil {
			return nil, classifyDriveError(op, err)
		}
		for _, f := range files.Files {
			result = append(result, models.RemoteObject{
				ID:          f.Id,
				Name:        f.Name,
				MimeType:    f.MimeType,
				ContentLink: f.WebContentLink,
			})
		}
		if files.NextPageToken == "" {
			return result, nil
		}
		call.PageToken(files.NextPageToken)
	}
}

func (c *DriveClient) CreateFolder(ctx context.Context, name, parentID string) (string, error) {
	f := &drive.File{
		Name:     name,
		MimeType: common.FolderMimeType,
		Parents:  []string{parentID},
	}
	created, err := c.srv.Files.Create(f).Fields("id").Context(ctx).Do()
	if err != nil {
		return "", classifyDriveError("create folder", err)
	}
	return created.Id, nil
}

func (c *DriveClient) Upload(ctx context.Context, r io.Reader, parentID, name, mimeType string) (string, error) {
	f := &drive.File{
		Name:     name,
		MimeType: mimeType,
		Parents:  []string{parentID},
	}
	created, err := c.srv.Files.Create(f).
		Media(r, googleapi.ContentType(mimeType), googleapi.ChunkSize(0)).
		Fields("id").
		Context(ctx).
		Do()
	if err != nil {
		return "", classifyDriveError("upload", err)
	}
	return created.Id, nil
}

func (c *DriveClient) Delete(ctx context.Context, id string) error {
	if err := c.srv.Files.Delete(id).Context(ctx).Do(); err != nil {
		return classifyDriveError("delete", err)
	}
	return nil
}

func (c *DriveClient) Download(ctx context.Context, id string) ([]byte, error) {
	resp, err := c.srv.Files.Get(id).Context(ctx).Download()
	if err != nil {
		return nil, classifyDriveError("download", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, transientError("download", err)
	}
	return data, nil
}

func (c *DriveClient) Ping(ctx context.Context) error {
	if _, err := c.srv.About.Get().Fields("user").Context(ctx).Do(); err != nil {
		return classifyDriveError("ping", err)
	}
	return nil
}

// escapeQuery quotes a value for use inside a single-quoted Drive query
// literal.
func escapeQuery(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return strings.ReplaceAll(s, `'`, `\'`)
}

// classifyDriveError maps Drive failures onto ErrAuth, ErrNotFound and
// ErrNetwork. Context errors and unrecognised API errors are wrapped as
// they are.
func classifyDriveError(op string, err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%s: %w", op, err)
	}

	var rErr *oauth2.RetrieveError
	if errors.As(err, &rErr) || errors.Is(err, ErrAuth) {
		return authError(op, err)
	}

	var gErr *googleapi.Error
	if errors.As(err, &gErr) {
		switch {
		case gErr.Code >= 500 && gErr.Code < 600:
			return transientError(op, err)
		case gErr.Code == http.StatusTooManyRequests:
			return transientError(op, err)
		case isRateLimited(gErr):
			return transientError(op, err)
		case gErr.Code == http.StatusUnauthorized || gErr.Code == http.StatusForbidden:
			return authError(op, err)
		case gErr.Code == http.StatusNotFound:
			return notFoundError(op, err)
		default:
			return fmt.Errorf("%s: %w", op, err)
		}
	}

	// no API response at all: the request never completed
	return transientError(op, err)
}

func isRateLimited(gErr *googleapi.Error) bool {
	for _, item := range gErr.Errors {
		if item.Reason == "rateLimitExceeded" || item.Reason == "userRateLimitExceeded" {
			return true
		}
	}
	return false
}
