// Package stream copies file bytes to a connection in bounded chunks, with
// byte-offset resume for audio and BOM-skip handling for description files.
// A failed socket write aborts the stream immediately; the caller closes the
// connection, there is no retry.
package stream
