// Package sqlite provides SQLite-backed tag persistence for the store
// verifier backend.
package sqlite
