// Package server implements the TCP listener that speaks the minimal
// streaming protocol, one goroutine per accepted connection, plus an
// optional HTTP admin API for monitoring. The accept loop is sequential
// and survives individual accept failures; connection handlers are
// fire-and-forget and always close their connection, panics included.
package server
