// Package metadataio reads and writes the bag index file (metadata.yaml).
//
// The index is the catalog readers trust instead of scanning segments. Writes
// go to a temporary file in the bag folder and are renamed into place, so a
// reader never observes a half-written index.
package metadataio
