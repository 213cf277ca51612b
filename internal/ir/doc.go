// Package ir provides the data shapes shared by every other taxflow package.
//
// This package contains type definitions and serialization only. All other
// internal packages import ir; ir imports nothing internal.
//
// Key types:
//   - [Node] is one step of a pipeline document (type tag, params, children)
//   - [IODescriptor] is the presentation shape of an input or output definition
//
// Canonical JSON ([MarshalCanonical]) is the only serialization used for
// content hashes and for JSON columns in the store.
package ir
