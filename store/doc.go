// Package store persists the device record produced by pairing: the
// long-term key material, the signed identity blob, and the registration
// counters. The client reads it on startup and writes it once per pairing
// event.
//
// Two implementations are provided: MemoryStore for tests and single-run
// use, and SQLiteStore for durable storage.
package store
