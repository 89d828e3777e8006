package client

import (
	"context"
	"io"

	"github.com/dmitrijs2005/snaplog/internal/client/models"
)

// Client is the remote object store contract. Implementations classify
// their failures with ErrAuth, ErrNotFound and ErrNetwork and perform a
// single attempt per call; retrying is left to the caller.
type Client interface {
	// List returns the non-trashed children of folderID.
	List(ctx context.Context, folderID string) ([]models.RemoteObject, error)
	// ListFolders returns only the folder children of parentID.
	ListFolders(ctx context.Context, parentID string) ([]models.RemoteObject, error)
	CreateFolder(ctx context.Context, name, parentID string) (string, error)
	// Upload stores the content of r as name under parentID and returns the
	// assigned id.
	Upload(ctx context.Context, r io.Reader, parentID, name, mimeType string) (string, error)
	Delete(ctx context.Context, id string) error
	Download(ctx context.Context, id string) ([]byte, error)
	Ping(ctx context.Context) error
}
