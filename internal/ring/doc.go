// Package ring implements the bounded entry store.
//
// A Store is a fixed-capacity ring of variable-length entries. Inserting into
// a full ring evicts the oldest entry and hands it back to the caller. Live
// entries form one flat address space, as if they were concatenated in
// arrival order; FindByFlatOffset and ResolveSeek translate between flat
// offsets and (entry index, byte offset) pairs.
//
// A Store is not safe for concurrent use. Callers serialize access, normally
// through app.Coordinator.
package ring
