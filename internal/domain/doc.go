// Package domain holds the transcript hub's shared types, sentinel errors and
// the small interfaces adapters depend on. It has no dependencies of its own.
package domain
