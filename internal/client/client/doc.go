// Package client contains the remote store building blocks of the Snaplog
// client.
//
// # Overview
//
//  1. A backend-agnostic contract (Client) for listing, creating folders,
//     uploading, deleting and downloading objects, plus a reachability Ping.
//  2. Two implementations: DriveClient over the Google Drive v3 API and
//     S3Client over an S3 compatible bucket.
//  3. Local store bootstrap (InitDatabase, RunMigrations) wiring SQLite and
//     the embedded goose migrations.
//
// # Error Handling
//
// Implementations classify failures so callers can decide what to retry:
//
//   - ErrAuth:     missing or rejected credentials, never retried
//   - ErrNotFound: the object or folder does not exist
//   - ErrNetwork:  transient transport or service failure
//
// *NetworkError is produced by the retry layer once attempts are exhausted.
// It matches ErrNetwork and the last underlying error with errors.Is.
// ErrCache and ErrLocalDataNotAvailable describe local store conditions.
//
// A Client performs exactly one attempt per call and honours ctx.
package client
