// Package entries provides the cache partition for entry records.
//
// # Overview
//
// Repository describes the operations the cache needs on entries: upsert by
// id, lookup, full listing, removal and counting. SQLiteRepository persists
// them through a dbx.DBTX, so the same code runs on *sql.DB or inside a
// transaction.
//
// # Data Model
//
// One row per entry keyed by the remote object id. Image ids are stored as a
// JSON array in a TEXT column; they are soft references and are not checked
// against the inventory partition.
//
// Typical Usage
//
//	repo := entries.NewSQLiteRepository(db)
//	_ = repo.Put(ctx, entry)
//	e, _ := repo.Get(ctx, id) // nil when absent
//	all, _ := repo.GetAll(ctx)
//	_ = repo.Delete(ctx, id)
package entries
