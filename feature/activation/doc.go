// Package activation reconciles activation control records.
//
// An ActivationControl (one per day and contract) owns a Detail per quarter
// hour. Each detail owns timestamp measurements and per delivery point
// DpDetails, which own their own timestamp measurements. A validated control
// may carry a Settlement.
//
// NewRegistry declares the graph on the reconcile engine: all decimals are
// compared at 6 decimals, every record carries a PersistChange marker and
// Status is copied from the calculated control on update while comments and
// audit fields are left untouched.
//
// The Service diffs controls given inline, as collections or as snapshot
// references, writes the operation log to the changelog store and archives
// the merged tree to object storage. The Handler exposes it under /activation.
package activation
