package models

// FolderIDs identifies the three remote folders the application works in.
// A record may be partial while a bootstrap is in progress.
type FolderIDs struct {
	RootID      string `json:"rootId"`
	InventoryID string `json:"inventoryId"`
	EntriesID   string `json:"entriesId"`
}

// Complete reports whether all three ids are known.
func (f FolderIDs) Complete() bool {
	return f.RootID != "" && f.InventoryID != "" && f.EntriesID != ""
}
