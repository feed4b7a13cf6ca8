// Package snapshots stores the last merged sequence of each feed collection
// in the local SQLite cache.
//
// A snapshot row keeps the collection key and save time; its entries are kept
// in snapshot_entries by position, each as a JSON payload, so Load returns
// them in the order they were saved. Save runs in a transaction and replaces
// any previous snapshot of the same collection.
package snapshots
