package compiler

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"

	"github.com/roach88/taxflow/internal/ir"
)

// PipelineField is the top-level CUE field holding the pipeline node.
const PipelineField = "pipeline"

// LoadFile reads a pipeline document from a .json or .cue file.
func LoadFile(path string) (*ir.Node, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read pipeline: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return ir.ParseNode(data)
	case ".cue":
		return CompileSource(path, data)
	default:
		return nil, fmt.Errorf("unsupported pipeline format %q (want .json or .cue)", filepath.Ext(path))
	}
}

// CompileSource compiles CUE source and extracts the pipeline field.
func CompileSource(filename string, src []byte) (*ir.Node, error) {
	ctx := cuecontext.New()
	v := ctx.CompileBytes(src, cue.Filename(filename))
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	pv := v.LookupPath(cue.ParsePath(PipelineField))
	if !pv.Exists() {
		return nil, &CompileError{
			Field:   PipelineField,
			Message: "pipeline field is required",
			Pos:     v.Pos(),
		}
	}

	n, err := CompilePipeline(pv)
	if err != nil {
		return nil, err
	}
	if err := n.Validate(); err != nil {
		return nil, err
	}
	return n, nil
}
