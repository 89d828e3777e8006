package models

import (
	"github.com/dmitrijs2005/snaplog/internal/common"
)

// RemoteObject is a file or folder as returned by a remote listing.
type RemoteObject struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	MimeType    string `json:"mimeType"`
	ContentLink string `json:"contentLink"`
}

func (o RemoteObject) IsFolder() bool {
	return o.MimeType == common.FolderMimeType
}

// InventoryItem is an uploaded image or file.
type InventoryItem struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	MimeType    string `json:"mimeType"`
	ContentLink string `json:"contentLink"`
}

// ItemFromObject builds the cache record for a listed inventory object.
func ItemFromObject(o RemoteObject) InventoryItem {
	return InventoryItem{ID: o.ID, Name: o.Name, MimeType: o.MimeType, ContentLink: o.ContentLink}
}

func (i InventoryItem) Object() RemoteObject {
	return RemoteObject{ID: i.ID, Name: i.Name, MimeType: i.MimeType, ContentLink: i.ContentLink}
}

// Thumbnail is a reduced JPEG rendition keyed by the owning object id.
type Thumbnail struct {
	ID   string
	Data []byte
}

// ViewURL is the browser link for a Drive file.
func ViewURL(id string) string {
	return "https://drive.google.com/file/d/" + id + "/view"
}
