// Package genval is a compact, immutable, runtime tagged-value
// representation for arbitrary YAML/JSON data.
//
// Every value is a single 64-bit word: small scalars are stored inline
// in the word, everything else lives out of place in a builder arena
// addressed by (arena id, offset). Large documents are therefore held
// compactly, compared and traversed without heap walks, and
// deduplicated across a parse.
//
// Values are produced by a Builder — a scoped allocator with optional
// content deduplication and parent/child chaining — and queried or
// derived through a fixed algebra of operations (create, get/set at
// path, append, assoc, merge, unique, sort, slice, filter/map/reduce,
// convert), each reachable both as a typed method and through the
// uniform Op dispatcher. All values are immutable: operations produce
// new values that share storage with their inputs, and failure is the
// Invalid sentinel rather than an error.
//
// Parsing and emitting are delegated to a YAML back-end; the document
// iterator re-linearizes any value tree into the event stream a parser
// would have produced for it.
package genval
