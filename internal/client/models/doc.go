// Package models defines the records the Snaplog client moves between the
// remote store and the local cache: folder ids, remote objects, entries,
// inventory items, thumbnails and the lifecycle states of cached records.
package models
