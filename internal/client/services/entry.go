package services

import (
	"context"
	"fmt"
	"time"

	"github.com/dmitrijs2005/snaplog/internal/client/client"
	"github.com/dmitrijs2005/snaplog/internal/client/deletion"
	"github.com/dmitrijs2005/snaplog/internal/client/models"
	"github.com/dmitrijs2005/snaplog/internal/common"
	"github.com/dmitrijs2005/snaplog/internal/logging"
)

type EntryService struct {
	remote        Remote
	cache         Cache
	folders       Folders
	conn          Connectivity
	verifier      Verifier
	verifyRetries int
	log           logging.Logger
}

func NewEntryService(remote Remote, cache Cache, folders Folders, conn Connectivity, verifier Verifier, verifyRetries int, log logging.Logger) *EntryService {
	if log == nil {
		log = logging.NewNop()
	}
	return &EntryService{
		remote:        remote,
		cache:         cache,
		folders:       folders,
		conn:          conn,
		verifier:      verifier,
		verifyRetries: verifyRetries,
		log:           log.With("service", "entries"),
	}
}

// List returns the entries folder. Online, each listed object is replaced by
// its cached record when one exists so that dates and image ids survive.
func (s *EntryService) List(ctx context.Context) ([]models.Entry, error) {
	if !s.conn.IsOnline() {
		entries, err := s.cache.GetAllEntries(ctx)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", client.ErrLocalDataNotAvailable, err)
		}
		return entries, nil
	}

	ids, err := s.folders.Resolve(ctx)
	if err != nil {
		return nil, err
	}
	objs, err := s.remote.ListObjects(ctx, ids.EntriesID)
	if err != nil {
		return nil, err
	}

	out := make([]models.Entry, 0, len(objs))
	for _, obj := range objs {
		if obj.IsFolder() {
			continue
		}
		cached, ok, err := s.cache.GetEntry(ctx, obj.ID)
		if err != nil {
			s.log.Warn(ctx, "cache lookup failed, using listing", "id", obj.ID, "error", err)
		}
		if ok {
			if cached.ContentLink == "" {
				cached.ContentLink = obj.ContentLink
			}
			out = append(out, *cached)
			continue
		}
		out = append(out, models.EntryFromObject(obj))
	}
	return out, nil
}

// Create uploads the metadata of a new entry for date referencing items and
// caches it under the id the remote store assigned.
func (s *EntryService) Create(ctx context.Context, date time.Time, items []models.InventoryItem) (*models.Entry, error) {
	if err := requireOnline(s.conn, "create entry"); err != nil {
		return nil, err
	}

	ids, err := s.folders.Resolve(ctx)
	if err != nil {
		return nil, err
	}

	imageIDs := make([]string, 0, len(items))
	for _, it := range items {
		imageIDs = append(imageIDs, it.ID)
	}
	entry := models.NewEntry(date, imageIDs)

	data, err := entry.Marshal()
	if err != nil {
		return nil, fmt.Errorf("failed to encode entry: %w", err)
	}

	id, err := s.remote.UploadObject(ctx, data, ids.EntriesID, entry.FileName(), common.EntryMimeType, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to upload entry: %w", err)
	}
	entry.ID = id

	if err := s.cache.PutEntry(ctx, entry); err != nil {
		s.log.Warn(ctx, "entry uploaded but not cached", "id", id, "error", err)
	}
	s.log.Info(ctx, "entry created", "id", id, "label", entry.Label, "images", len(imageIDs))
	return &entry, nil
}

// Get returns the entry with id. A minimal record left by sync is completed
// from the uploaded metadata when online.
func (s *EntryService) Get(ctx context.Context, id string) (*models.Entry, error) {
	cached, ok, err := s.cache.GetEntry(ctx, id)
	if err != nil {
		s.log.Warn(ctx, "cache lookup failed", "id", id, "error", err)
	}
	if ok && cached.Date != "" {
		return cached, nil
	}

	if !s.conn.IsOnline() {
		if ok {
			return cached, nil
		}
		return nil, fmt.Errorf("entry %s: %w", id, client.ErrLocalDataNotAvailable)
	}

	data, err := s.remote.Download(ctx, id)
	if err != nil {
		return nil, err
	}
	entry, err := models.ParseEntry(data)
	if err != nil {
		return nil, err
	}
	entry.ID = id
	if ok {
		entry.ContentLink = cached.ContentLink
	}

	if err := s.cache.PutEntry(ctx, entry); err != nil {
		s.log.Warn(ctx, "entry not cached", "id", id, "error", err)
	}
	return &entry, nil
}

// DeleteAndVerify deletes the entries remotely and waits for the listing to
// confirm it. Cache records are removed only when every deletion is
// confirmed; false means they are stale.
func (s *EntryService) DeleteAndVerify(ctx context.Context, ids ...string) (bool, error) {
	if err := requireOnline(s.conn, "delete entries"); err != nil {
		return false, err
	}

	folders, err := s.folders.Resolve(ctx)
	if err != nil {
		return false, err
	}

	for _, id := range ids {
		if err := s.remote.DeleteObject(ctx, id); err != nil {
			return false, fmt.Errorf("failed to delete entry %s: %w", id, err)
		}
	}

	verified := s.verifier.VerifyDeletions(ctx, folders.EntriesID, ids, s.verifyRetries)
	state := deletion.Outcome(verified)
	if !verified {
		s.log.Warn(ctx, "entry deletion not confirmed, keeping cache records", "ids", ids, "state", state.String())
		return false, nil
	}

	for _, id := range ids {
		if err := s.cache.DeleteEntry(ctx, id); err != nil {
			s.log.Warn(ctx, "removing cached entry failed", "id", id, "error", err)
		}
	}
	s.log.Debug(ctx, "entry deletion confirmed", "ids", ids, "state", state.String())
	return true, nil
}
