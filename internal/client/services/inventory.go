package services

import (
	"context"
	"fmt"
	"mime"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"github.com/dmitrijs2005/snaplog/internal/client/client"
	"github.com/dmitrijs2005/snaplog/internal/client/deletion"
	"github.com/dmitrijs2005/snaplog/internal/client/models"
	"github.com/dmitrijs2005/snaplog/internal/client/thumbnail"
	"github.com/dmitrijs2005/snaplog/internal/logging"
)

type UploadRequest struct {
	Name string
	// MimeType is detected from Data when empty.
	MimeType string
	Data     []byte
}

// UploadEvent is either a progress report or, when Done is set, the final
// outcome carrying ID or Err.
type UploadEvent struct {
	Progress float64
	Done     bool
	ID       string
	Err      error
}

type UploadResult struct {
	Name string
	ID   string
	Err  error
}

type InventoryService struct {
	remote        Remote
	cache         Cache
	folders       Folders
	conn          Connectivity
	verifier      Verifier
	verifyRetries int
	log           logging.Logger
}

func NewInventoryService(remote Remote, cache Cache, folders Folders, conn Connectivity, verifier Verifier, verifyRetries int, log logging.Logger) *InventoryService {
	if log == nil {
		log = logging.NewNop()
	}
	return &InventoryService{
		remote:        remote,
		cache:         cache,
		folders:       folders,
		conn:          conn,
		verifier:      verifier,
		verifyRetries: verifyRetries,
		log:           log.With("service", "inventory"),
	}
}

func (s *InventoryService) List(ctx context.Context) ([]models.InventoryItem, error) {
	if !s.conn.IsOnline() {
		items, err := s.cache.GetAllInventoryItems(ctx)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", client.ErrLocalDataNotAvailable, err)
		}
		return items, nil
	}

	ids, err := s.folders.Resolve(ctx)
	if err != nil {
		return nil, err
	}
	objs, err := s.remote.ListObjects(ctx, ids.InventoryID)
	if err != nil {
		return nil, err
	}

	out := make([]models.InventoryItem, 0, len(objs))
	for _, obj := range objs {
		if obj.IsFolder() {
			continue
		}
		out = append(out, models.ItemFromObject(obj))
	}
	return out, nil
}

// detectMimeType sniffs the content and falls back to the file extension
// when the content alone is inconclusive.
func detectMimeType(name string, data []byte) string {
	base, _, _ := strings.Cut(mimetype.Detect(data).String(), ";")
	base = strings.TrimSpace(base)
	if base != "application/octet-stream" {
		return base
	}
	if byExt := mime.TypeByExtension(filepath.Ext(name)); byExt != "" {
		base, _, _ = strings.Cut(byExt, ";")
		return strings.TrimSpace(base)
	}
	return base
}

// Upload sends one file to the inventory folder. The returned channel yields
// progress events and then exactly one Done event before it is closed.
func (s *InventoryService) Upload(ctx context.Context, req UploadRequest) <-chan UploadEvent {
	events := make(chan UploadEvent, 8)

	send := func(e UploadEvent) {
		select {
		case events <- e:
		case <-ctx.Done():
		}
	}

	go func() {
		defer close(events)

		id, err := s.upload(ctx, req, func(f float64) {
			send(UploadEvent{Progress: f})
		})
		done := UploadEvent{Done: true, ID: id, Err: err, Progress: finalProgress(err)}
		select {
		case events <- done:
		case <-ctx.Done():
			// a cancelled reader still gets the outcome if there is room
			select {
			case events <- done:
			default:
			}
		}
	}()

	return events
}

func finalProgress(err error) float64 {
	if err != nil {
		return 0
	}
	return 1
}

func (s *InventoryService) upload(ctx context.Context, req UploadRequest, onProgress func(float64)) (string, error) {
	if err := requireOnline(s.conn, "upload"); err != nil {
		return "", err
	}

	mimeType := req.MimeType
	if mimeType == "" {
		mimeType = detectMimeType(req.Name, req.Data)
	}

	ids, err := s.folders.Resolve(ctx)
	if err != nil {
		return "", err
	}

	id, err := s.remote.UploadObject(ctx, req.Data, ids.InventoryID, req.Name, mimeType, onProgress)
	if err != nil {
		return "", fmt.Errorf("failed to upload %s: %w", req.Name, err)
	}

	item := models.InventoryItem{ID: id, Name: req.Name, MimeType: mimeType}
	if err := s.cache.PutInventoryItem(ctx, item); err != nil {
		s.log.Warn(ctx, "item uploaded but not cached", "id", id, "error", err)
	}

	if thumbnail.IsImage(mimeType) {
		s.storeThumbnail(ctx, id, req.Data)
	}

	s.log.Info(ctx, "item uploaded", "id", id, "name", req.Name, "mime", mimeType, "bytes", len(req.Data))
	return id, nil
}

func (s *InventoryService) storeThumbnail(ctx context.Context, id string, data []byte) []byte {
	thumb, err := thumbnail.Generate(data)
	if err != nil {
		s.log.Warn(ctx, "thumbnail generation failed", "id", id, "error", err)
		return nil
	}
	if err := s.cache.PutThumbnail(ctx, models.Thumbnail{ID: id, Data: thumb}); err != nil {
		s.log.Warn(ctx, "thumbnail not cached", "id", id, "error", err)
	}
	return thumb
}

// UploadMany uploads reqs one after another. A failed file is reported in its
// result and does not stop the rest.
func (s *InventoryService) UploadMany(ctx context.Context, reqs []UploadRequest) []UploadResult {
	results := make([]UploadResult, 0, len(reqs))
	for _, req := range reqs {
		res := UploadResult{Name: req.Name}
		for e := range s.Upload(ctx, req) {
			if e.Done {
				res.ID, res.Err = e.ID, e.Err
			}
		}
		results = append(results, res)
	}
	return results
}

// Thumbnail returns the cached thumbnail of id, generating it from the
// downloaded original when online.
func (s *InventoryService) Thumbnail(ctx context.Context, id string) ([]byte, error) {
	cached, ok, err := s.cache.GetThumbnail(ctx, id)
	if err != nil {
		s.log.Warn(ctx, "thumbnail lookup failed", "id", id, "error", err)
	}
	if ok {
		return cached.Data, nil
	}

	if !s.conn.IsOnline() {
		return nil, fmt.Errorf("thumbnail %s: %w", id, client.ErrLocalDataNotAvailable)
	}

	data, err := s.remote.Download(ctx, id)
	if err != nil {
		return nil, err
	}
	thumb := s.storeThumbnail(ctx, id, data)
	if thumb == nil {
		return nil, fmt.Errorf("thumbnail %s: %w", id, thumbnail.ErrNotImage)
	}
	return thumb, nil
}

// DeleteAndVerify deletes the items remotely and confirms it against the
// listing. On confirmation the cached items and their thumbnails are
// removed; on false they are left stale.
func (s *InventoryService) DeleteAndVerify(ctx context.Context, ids ...string) (bool, error) {
	if err := requireOnline(s.conn, "delete items"); err != nil {
		return false, err
	}

	folders, err := s.folders.Resolve(ctx)
	if err != nil {
		return false, err
	}

	for _, id := range ids {
		if err := s.remote.DeleteObject(ctx, id); err != nil {
			return false, fmt.Errorf("failed to delete item %s: %w", id, err)
		}
	}

	verified := s.verifier.VerifyDeletions(ctx, folders.InventoryID, ids, s.verifyRetries)
	state := deletion.Outcome(verified)
	if !verified {
		s.log.Warn(ctx, "item deletion not confirmed, keeping cache records", "ids", ids, "state", state.String())
		return false, nil
	}

	for _, id := range ids {
		if err := s.cache.DeleteInventoryItem(ctx, id); err != nil {
			s.log.Warn(ctx, "removing cached item failed", "id", id, "error", err)
		}
		if err := s.cache.DeleteThumbnail(ctx, id); err != nil {
			s.log.Warn(ctx, "removing cached thumbnail failed", "id", id, "error", err)
		}
	}
	s.log.Debug(ctx, "item deletion confirmed", "ids", ids, "state", state.String())
	return true, nil
}
