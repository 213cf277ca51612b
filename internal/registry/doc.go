// Package registry turns pipeline documents into executable step graphs.
//
// A [Registry] maps type tags to constructors. [Registry.Build] looks up the
// tag of each [ir.Node], invokes the constructor with the node's positional
// params, and recursively attaches children to steps that accept them.
//
// The registry is an explicit object owned by application start-up. Register
// every tag before the first Build; [NewDefault] returns a registry holding
// the built-in catalogue.
package registry
