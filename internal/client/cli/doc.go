// Package cli implements the interactive Snaplog client.
//
// NewApp wires the local cache, the auth provider, the remote backend
// (Google Drive or an S3 compatible bucket), the retrying RemoteStore, the
// folder resolver, the sync coordinator and the UI services. Run starts the
// background watchers and hands control to a small REPL.
//
// # Commands
//
//	help                    show available commands
//	login [code]            sign in (Drive: paste the authorization code)
//	logout                  sign out and wipe local data
//	status                  connectivity, last sync and cached counts
//	folders                 folder ids and the content of the app folder
//	items                   list inventory items
//	entries                 list entries
//	upload <path...>        upload local files to the inventory
//	entry <item-id...>      create an entry dated today
//	delete-items <id...>    delete inventory items and verify
//	delete-entries <id...>  delete entries and verify
//	sync                    reconcile the cache with the remote now
//	exit | quit             leave the program
//
// Offline, listing commands are answered from the cache and writes are
// refused.
package cli
