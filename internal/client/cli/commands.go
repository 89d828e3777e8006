package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/dustin/go-humanize/english"
	"github.com/google/uuid"

	"github.com/dmitrijs2005/snaplog/internal/client/client"
	"github.com/dmitrijs2005/snaplog/internal/client/config"
	"github.com/dmitrijs2005/snaplog/internal/client/models"
	"github.com/dmitrijs2005/snaplog/internal/client/services"
	"github.com/dmitrijs2005/snaplog/internal/filex"
)

var errNoCode = errors.New("no authorization code given")

func (a *App) Login(ctx context.Context, args []string) error {
	if a.isLoggedIn() {
		fmt.Fprintln(a.out, "Already logged in")
		return nil
	}
	if a.login == nil {
		fmt.Fprintln(a.out, "This backend uses configured credentials; restart to sign in again")
		return nil
	}

	var code string
	if len(args) > 0 {
		code = args[0]
	} else {
		fmt.Fprintln(a.out, "Open this URL in a browser and grant access:")
		fmt.Fprintln(a.out, a.login.AuthCodeURL(uuid.NewString()))
		if !interactive() {
			fmt.Fprintln(a.out, "Then run: login <code>")
			return nil
		}
		var err error
		if code, err = GetSecret(a.out, "Authorization code: "); err != nil {
			return fmt.Errorf("failed to read code: %w", err)
		}
	}
	if code == "" {
		return errNoCode
	}

	if err := a.login.Exchange(ctx, code); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Logged in")

	// signed out, pings fail and the watcher reports offline; the next
	// connectivity check brings the app online and syncs
	if a.coord.IsOnline() {
		a.coord.SyncOnce(ctx)
	}
	return nil
}

func (a *App) Logout(ctx context.Context) error {
	if err := a.session.SignOut(ctx); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Logged out, local data removed")
	return nil
}

func (a *App) Status(ctx context.Context) error {
	st := a.coord.Status(ctx)

	mode := "offline"
	if st.Online {
		mode = "online"
	}
	last := "never"
	if !st.LastSync.IsZero() {
		last = humanize.RelTime(st.LastSync, a.now(), "ago", "from now")
	}

	fmt.Fprintf(a.out, "Mode:      %s\n", mode)
	fmt.Fprintf(a.out, "Signed in: %t\n", a.isLoggedIn())
	fmt.Fprintf(a.out, "Last sync: %s\n", last)
	fmt.Fprintf(a.out, "Cached:    %s entries, %s items\n", humanize.Comma(int64(st.Entries)), humanize.Comma(int64(st.Items)))
	return nil
}

func (a *App) Folders(ctx context.Context) error {
	ids, ok := a.folders.Current()
	if !ok && a.coord.IsOnline() {
		var err error
		if ids, err = a.folders.Resolve(ctx); err != nil {
			return err
		}
		ok = true
	}
	if !ok {
		return fmt.Errorf("folders: %w", client.ErrLocalDataNotAvailable)
	}

	fmt.Fprintf(a.out, "%s: %s\n", a.cfg.RootFolderName, ids.RootID)
	fmt.Fprintf(a.out, "  %s: %s\n", a.cfg.InventoryFolderName, ids.InventoryID)
	fmt.Fprintf(a.out, "  %s: %s\n", a.cfg.EntriesFolderName, ids.EntriesID)

	objs, err := a.listing.List(ctx, ids.RootID)
	if err != nil {
		return err
	}
	for _, o := range objs {
		if !o.IsFolder() {
			fmt.Fprintf(a.out, "  %s (%s)\n", o.Name, o.ID)
		}
	}
	return nil
}

func (a *App) Items(ctx context.Context) error {
	items, err := a.inventory.List(ctx)
	if err != nil {
		return err
	}
	if len(items) == 0 {
		fmt.Fprintln(a.out, "No items")
		return nil
	}
	for _, it := range items {
		fmt.Fprintf(a.out, "%s\t%s\t%s%s\n", it.ID, it.Name, it.MimeType, a.linkColumn(it.ID))
	}
	return nil
}

func (a *App) Entries(ctx context.Context) error {
	entries, err := a.entries.List(ctx)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Fprintln(a.out, "No entries")
		return nil
	}
	for _, e := range entries {
		date, count := a.entrySummary(e)
		fmt.Fprintf(a.out, "%s\t%s\t%s\t%s%s\n", e.ID, e.Label, date, english.Plural(count, "image", "images"), a.linkColumn(e.ID))
	}
	return nil
}

// entrySummary falls back to the entry name for records sync stored from a
// listing, which carry neither a date nor image ids.
func (a *App) entrySummary(e models.Entry) (string, int) {
	count := len(e.ImageIDs)
	if count == 0 {
		if n, ok := models.ItemCountFromName(e.Label); ok {
			count = n
		}
	}
	if t, err := time.Parse(time.RFC3339, e.Date); err == nil {
		return t.Format(time.DateOnly), count
	}
	if t, ok := models.DateFromName(e.Label, a.now().Year()); ok {
		return t.Format(time.DateOnly), count
	}
	return "-", count
}

// linkColumn is empty for backends whose ids have no browser page.
func (a *App) linkColumn(id string) string {
	if a.cfg.Backend != config.BackendDrive {
		return ""
	}
	return "\t" + models.ViewURL(id)
}

// Upload sends the files one after another and reports each outcome.
// The first failure does not stop the remaining files.
func (a *App) Upload(ctx context.Context, paths []string) error {
	showProgress := isTerminal(int(os.Stdout.Fd()))
	var failed int

	for _, path := range paths {
		name, data, err := filex.ReadUpload(path)
		if err != nil {
			fmt.Fprintf(a.out, "%s: %v\n", path, err)
			failed++
			continue
		}

		for ev := range a.inventory.Upload(ctx, services.UploadRequest{Name: name, Data: data}) {
			if !ev.Done {
				if showProgress {
					fmt.Fprintf(a.out, "\r%s %3.0f%%", name, ev.Progress*100)
				}
				continue
			}
			if showProgress {
				fmt.Fprintln(a.out)
			}
			if ev.Err != nil {
				fmt.Fprintf(a.out, "%s: upload failed: %v\n", name, ev.Err)
				failed++
				continue
			}
			fmt.Fprintf(a.out, "%s (%s) uploaded as %s\n", name, humanize.Bytes(uint64(len(data))), ev.ID)
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d uploads failed", failed, len(paths))
	}
	return nil
}

// CreateEntry records an entry dated now. Ids that are not in the inventory
// are kept as given.
func (a *App) CreateEntry(ctx context.Context, itemIDs []string) error {
	known := map[string]models.InventoryItem{}
	if len(itemIDs) > 0 {
		items, err := a.inventory.List(ctx)
		if err != nil {
			return err
		}
		for _, it := range items {
			known[it.ID] = it
		}
	}

	selected := make([]models.InventoryItem, 0, len(itemIDs))
	for _, id := range itemIDs {
		it, ok := known[id]
		if !ok {
			a.log.Warn(ctx, "entry references an unknown item", "id", id)
			it = models.InventoryItem{ID: id}
		}
		selected = append(selected, it)
	}

	e, err := a.entries.Create(ctx, a.now(), selected)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Created entry %s (%s)\n", e.Label, e.ID)
	return nil
}

func (a *App) DeleteItems(ctx context.Context, ids []string) error {
	ok, err := a.inventory.DeleteAndVerify(ctx, ids...)
	if err != nil {
		return err
	}
	a.reportDeletion(ok, len(ids))
	return nil
}

func (a *App) DeleteEntries(ctx context.Context, ids []string) error {
	ok, err := a.entries.DeleteAndVerify(ctx, ids...)
	if err != nil {
		return err
	}
	a.reportDeletion(ok, len(ids))
	return nil
}

func (a *App) reportDeletion(verified bool, n int) {
	if verified {
		fmt.Fprintf(a.out, "Deleted %s\n", english.Plural(n, "object", "objects"))
		return
	}
	fmt.Fprintln(a.out, "Deletion requested but not yet visible remotely; local records kept")
}

func (a *App) Sync(ctx context.Context) error {
	if !a.coord.IsOnline() {
		return fmt.Errorf("sync: offline: %w", client.ErrNetwork)
	}
	a.coord.SyncOnce(ctx)
	return a.Status(ctx)
}
