// Package app is the boundary between transports and the broadcast hub.
//
// Transcript sources (HTTP, Redis, NATS) and subscriber transports (WebSocket)
// only talk to Service. It validates raw input, creates sessions on first use
// and maps a lost race with session close into one retry.
package app
