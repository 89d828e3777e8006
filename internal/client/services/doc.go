// Package services contains the application services the Snaplog CLI talks
// to.
//
// # Overview
//
//  1. ListingService: a merged folder view, served by the remote store when
//     online and by the local cache when offline.
//  2. EntryService: entry metadata records, created as JSON objects in the
//     entries folder.
//  3. InventoryService: uploaded files with progress reporting and JPEG
//     thumbnails.
//  4. AuthService: reacts to sign-out by clearing the local cache and the
//     memoized folder ids.
//
// # Offline behaviour
//
// When the connectivity source reports offline no remote call is made.
// Reads fall back to the cache and fail with client.ErrLocalDataNotAvailable
// when nothing usable is cached. Writes need the remote store.
//
// # Deletion
//
// Deletes are followed by a verification against the remote listing. Cache
// records are removed only after the deletion is confirmed; otherwise they
// stay and the caller is told the record is stale.
package services
