// Package engine implements the taxflow computation pipeline.
//
// A pipeline is a tree of [Step] values. Leaves compute (arithmetic and table
// steps), validate (input and output definitions) or seed constants; the
// [CompositeStep] threads a [Record] through its children in order.
//
// ARCHITECTURE:
//
// Two Phases:
//  1. Preparation: the [ResourceLoader] visitor finds constant steps that
//     declare an external resource, fetches each distinct path once and
//     assigns payloads. Fetching is concurrent; assignment happens only after
//     every fetch succeeded.
//  2. Execution: Step.Execute runs once, top to bottom, single-threaded.
//
// Write-Once Record:
// A key is written at most once per run. A second write is a pipeline
// configuration bug and fails with KEY_ALREADY_DEFINED.
//
// Traversal:
// [Visitor] has one method per concrete step kind. Step.Accept dispatches to
// exactly one of them; the composite brackets its children with
// EnterComposite and ExitComposite.
//
// Errors:
// Every failure is an [*Error] carrying an [ErrorCode]. Composite execution
// returns the first child error unchanged.
package engine
