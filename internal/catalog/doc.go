// Package catalog maintains the in-memory track catalog and its on-disk
// source of truth. It scans a music directory for mp3 files, pairs each with
// a JSON description sidecar (creating missing sidecars, optionally seeded
// from ID3 tags), and serves the result through a store that is safe for
// concurrent readers while rebuilds hold an exclusive lock for the full
// duration of the scan.
package catalog
