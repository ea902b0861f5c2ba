// Package storage defines persistence contracts for assigned RFID tags.
//
// The store-backed verifier depends on these interfaces only, so it can be
// exercised with in-memory fakes.
package storage
