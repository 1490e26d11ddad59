// Package snapshot loads the JSON documents a diff runs on and archives its results.
//
// A snapshot reference is either a local file path or "s3://bucket/object".
// The Loader keeps raw bytes for a configurable TTL and collapses concurrent
// loads of the same reference, so repeated diffs against the same existing
// tree read it once. Decoding always produces fresh values because the diff
// engine mutates the existing tree in place.
//
// The Archiver writes one document per run (summary, operations and merged
// tree) to object storage under a prefix, and can list, fetch and delete them.
package snapshot
