// Package broadcast implements the live transcript hub.
//
// A Registry owns one Session per meeting id. Each Session serializes sequence
// assignment, its bounded replay ring and its connection set behind one mutex.
// Every Connection runs its own pump goroutine that reads the ring by cursor and
// hands events to the transport, so a slow subscriber only ever blocks itself.
// Connections refer to their session by id and look it up through the Registry.
package broadcast
