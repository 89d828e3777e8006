// Package migrations embeds the goose SQL migrations of the local cache.
// The goose version is the cache schema version: a newer binary adds the
// partitions it is missing and leaves existing data in place.
package migrations

import "embed"

//go:embed *.sql
var Migrations embed.FS
