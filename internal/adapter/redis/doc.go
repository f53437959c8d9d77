// Package redis consumes transcript segments published on Redis pub/sub channels
// and feeds them to the ingest boundary.
package redis
