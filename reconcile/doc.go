// Package reconcile makes a bucket mirror a source snapshot.
//
// A run has three phases:
//  1. Inventory: list the source snapshot and the bucket keys
//  2. Planning: compute the uploads and deletes as set differences
//  3. Execution: fetch and put every upload, delete every stale key
//
// Listing failures abort before any mutation. A file whose content cannot
// be fetched is skipped and reported; the run still succeeds. Storage
// mutation failures abort the run.
package reconcile
