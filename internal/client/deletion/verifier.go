// Package deletion confirms that deleted objects have disappeared from an
// eventually consistent listing.
package deletion

import (
	"context"
	"time"

	"github.com/dmitrijs2005/snaplog/internal/client/models"
	"github.com/dmitrijs2005/snaplog/internal/logging"
)

// DefaultPolls is used when a caller passes a non-positive poll budget.
const DefaultPolls = 3

type Lister interface {
	ListObjects(ctx context.Context, folderID string) ([]models.RemoteObject, error)
}

type Option func(*Verifier)

func WithDelay(d time.Duration) Option {
	return func(v *Verifier) { v.delay = d }
}

func WithLogger(l logging.Logger) Option {
	return func(v *Verifier) { v.log = l }
}

type Verifier struct {
	lister Lister
	delay  time.Duration
	log    logging.Logger
}

func NewVerifier(lister Lister, opts ...Option) *Verifier {
	v := &Verifier{lister: lister, delay: time.Second, log: logging.NewNop()}
	for _, opt := range opts {
		opt(v)
	}
	v.log = v.log.With("component", "deletion")
	return v
}

// VerifyDeletion reports whether id stopped appearing in folderID within
// maxRetries listings.
func (v *Verifier) VerifyDeletion(ctx context.Context, folderID, id string, maxRetries int) bool {
	return v.VerifyDeletions(ctx, folderID, []string{id}, maxRetries)
}

// VerifyDeletions reports whether every id is absent from one listing of
// folderID, polling up to maxRetries times with a fixed wait in between.
// A failed listing counts as a failed poll.
func (v *Verifier) VerifyDeletions(ctx context.Context, folderID string, ids []string, maxRetries int) bool {
	if len(ids) == 0 {
		return true
	}
	if maxRetries <= 0 {
		maxRetries = DefaultPolls
	}

	for poll := 1; poll <= maxRetries; poll++ {
		objs, err := v.lister.ListObjects(ctx, folderID)
		switch {
		case err != nil:
			v.log.Debug(ctx, "deletion poll failed", "folder", folderID, "poll", poll, "error", err)
		case noneOf(objs, ids):
			return true
		default:
			v.log.Debug(ctx, "deleted objects still listed", "folder", folderID, "poll", poll)
		}

		if poll == maxRetries {
			break
		}
		t := time.NewTimer(v.delay)
		select {
		case <-ctx.Done():
			t.Stop()
			return false
		case <-t.C:
		}
	}

	v.log.Warn(ctx, "deletion not confirmed", "folder", folderID, "ids", ids, "polls", maxRetries)
	return false
}

func noneOf(objs []models.RemoteObject, ids []string) bool {
	want := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		want[id] = struct{}{}
	}
	for _, o := range objs {
		if _, ok := want[o.ID]; ok {
			return false
		}
	}
	return true
}

// Outcome maps a verification result to the lifecycle state of the record.
func Outcome(verified bool) models.State {
	if verified {
		return models.Deleted
	}
	return models.StaleActive
}
