// Package common contains constants shared by the Snaplog client packages.
package common

const (
	// FolderMimeType marks folder objects in remote listings.
	FolderMimeType = "application/vnd.google-apps.folder"

	// RemoteRootID is the alias the remote store accepts for the top of the
	// user's storage tree.
	RemoteRootID = "root"

	// FolderIDsKey is the singleton key of the folder-id record in the cache.
	FolderIDsKey = "folderIds"

	// EntryMimeType is the content type of uploaded entry metadata objects.
	EntryMimeType = "application/json"

	// EntryFileExt is appended to entry names when they are uploaded.
	EntryFileExt = ".json"
)
