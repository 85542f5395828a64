// Package pipeline drives annotation in strict genomic order: read a position,
// preload the annotator when the chromosome changes, annotate, and hand the
// result to the indexed entry writer and any configured text mirrors.
//
// The driver is single-threaded by construction. The only collaborators are
// PositionReader, Annotator and EntryWriter, which keeps it testable with
// in-memory fakes.
package pipeline
