// Package memory provides in-memory implementations of the storage
// ports. Used by service tests and as a reference implementation of
// the port contracts; data does not survive a restart.
package memory
