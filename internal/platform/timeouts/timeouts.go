// Package timeouts defines the timeout constants shared by the hub process.
package timeouts

import "time"

// Verifier caps a single tag lookup against the verifier backend.
const Verifier = 5 * time.Second

// ReadHeader limits how long the HTTP server waits for request headers.
const ReadHeader = 5 * time.Second

// Shutdown limits how long the HTTP and gRPC servers wait for in-flight work
// during graceful shutdown.
const Shutdown = 5 * time.Second

// Telemetry bounds the final span flush when the process exits.
const Telemetry = 5 * time.Second

// Write bounds a single websocket frame write to one client.
const Write = 5 * time.Second
