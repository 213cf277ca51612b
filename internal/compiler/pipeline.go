package compiler

import (
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"

	"github.com/roach88/taxflow/internal/ir"
)

// CompilePipeline converts a CUE value into a pipeline document.
// Uses the CUE SDK's Go API directly (not a CLI subprocess).
//
// The value must be a concrete node struct:
//
//	pipeline: {
//		type: "CompositeCommand"
//		params: []
//		children: [{type: "AddCommand", params: ["r", "a", "b"]}]
//	}
//
// Integers decode as float64 so CUE and JSON documents hash identically.
func CompilePipeline(v cue.Value) (*ir.Node, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}
	n, err := compileNode(v, "pipeline")
	if err != nil {
		return nil, err
	}
	return &n, nil
}

func compileNode(v cue.Value, field string) (ir.Node, error) {
	var n ir.Node

	if v.IncompleteKind() != cue.StructKind {
		return n, &CompileError{Field: field, Message: "node must be a struct", Pos: v.Pos()}
	}

	iter, err := v.Fields()
	if err != nil {
		return n, formatCUEError(err)
	}
	for iter.Next() {
		switch iter.Label() {
		case "type", "name", "params", "children":
		default:
			return n, &CompileError{
				Field:   field + "." + iter.Label(),
				Message: "unknown field",
				Pos:     iter.Value().Pos(),
			}
		}
	}

	typeVal := v.LookupPath(cue.ParsePath("type"))
	if !typeVal.Exists() {
		return n, &CompileError{Field: field + ".type", Message: "type is required", Pos: v.Pos()}
	}
	if n.Type, err = typeVal.String(); err != nil {
		return n, formatCUEError(err)
	}

	if nameVal := v.LookupPath(cue.ParsePath("name")); nameVal.Exists() {
		if n.Name, err = nameVal.String(); err != nil {
			return n, formatCUEError(err)
		}
	}

	n.Params = []any{}
	if paramsVal := v.LookupPath(cue.ParsePath("params")); paramsVal.Exists() {
		decoded, err := decodeValue(paramsVal, field+".params")
		if err != nil {
			return n, err
		}
		list, ok := decoded.([]any)
		if !ok {
			return n, &CompileError{Field: field + ".params", Message: "params must be a list", Pos: paramsVal.Pos()}
		}
		n.Params = list
	}

	if childrenVal := v.LookupPath(cue.ParsePath("children")); childrenVal.Exists() {
		list, err := childrenVal.List()
		if err != nil {
			return n, formatCUEError(err)
		}
		for i := 0; list.Next(); i++ {
			child, err := compileNode(list.Value(), fmt.Sprintf("%s.children[%d]", field, i))
			if err != nil {
				return n, err
			}
			n.Children = append(n.Children, child)
		}
	}

	return n, nil
}

// decodeValue converts a concrete CUE value into the JSON-shaped Go value
// constructors expect.
func decodeValue(v cue.Value, field string) (any, error) {
	if !v.IsConcrete() {
		return nil, &CompileError{
			Field:   field,
			Message: fmt.Sprintf("value must be concrete, got %v", v.IncompleteKind()),
			Pos:     v.Pos(),
		}
	}
	switch v.IncompleteKind() {
	case cue.NullKind:
		return nil, nil
	case cue.BoolKind:
		b, err := v.Bool()
		if err != nil {
			return nil, formatCUEError(err)
		}
		return b, nil
	case cue.IntKind, cue.FloatKind, cue.NumberKind:
		f, err := v.Float64()
		if err != nil {
			return nil, formatCUEError(err)
		}
		return f, nil
	case cue.StringKind:
		s, err := v.String()
		if err != nil {
			return nil, formatCUEError(err)
		}
		return s, nil
	case cue.ListKind:
		iter, err := v.List()
		if err != nil {
			return nil, formatCUEError(err)
		}
		out := []any{}
		for i := 0; iter.Next(); i++ {
			elem, err := decodeValue(iter.Value(), fmt.Sprintf("%s[%d]", field, i))
			if err != nil {
				return nil, err
			}
			out = append(out, elem)
		}
		return out, nil
	case cue.StructKind:
		iter, err := v.Fields()
		if err != nil {
			return nil, formatCUEError(err)
		}
		out := map[string]any{}
		for iter.Next() {
			label := iter.Label()
			elem, err := decodeValue(iter.Value(), field+"."+label)
			if err != nil {
				return nil, err
			}
			out[label] = elem
		}
		return out, nil
	default:
		return nil, &CompileError{
			Field:   field,
			Message: fmt.Sprintf("value must be concrete, got %v", v.IncompleteKind()),
			Pos:     v.Pos(),
		}
	}
}

// CompileError is a problem in a CUE pipeline document.
type CompileError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}

	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}

	firstErr := errs[0]
	positions := errors.Positions(firstErr)
	if len(positions) > 0 {
		return &CompileError{
			Field:   "cue",
			Message: firstErr.Error(),
			Pos:     positions[0],
		}
	}
	return err
}
