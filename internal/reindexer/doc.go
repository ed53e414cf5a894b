// Package reindexer rebuilds a bag's index from its raw segments.
//
// A Reindexer is opened against a bag URI. Open resolves the segment list,
// either from an existing index or by discovering segment files, and checks
// that the topics agree on one serialization format. Reindex then scans every
// record of every segment, in index order, and returns a freshly computed
// storage.BagMetadata. Nothing inherited from an existing index is trusted
// except the segment order.
//
// Persisting the result is left to the caller (see metadataio).
//
// A Reindexer is not safe for concurrent use.
package reindexer
