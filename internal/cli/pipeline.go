package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/roach88/taxflow/internal/compiler"
	"github.com/roach88/taxflow/internal/engine"
	"github.com/roach88/taxflow/internal/ir"
	"github.com/roach88/taxflow/internal/registry"
	"github.com/roach88/taxflow/internal/resource"
	"github.com/roach88/taxflow/internal/store"
)

// loadedGraph is a pipeline document and the step graph built from it.
type loadedGraph struct {
	Path string
	Node ir.Node
	Root engine.Step
	Hash string
}

// loadGraph reads a .json or .cue pipeline and builds its step graph.
// The returned error is an ExitError already reported through f.
func loadGraph(f *OutputFormatter, path string) (*loadedGraph, error) {
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return nil, f.Fail(ExitCommandError, ErrCodeNotFound, fmt.Sprintf("pipeline not found: %s", path), nil)
	}

	node, err := compiler.LoadFile(path)
	if err != nil {
		return nil, f.Fail(ExitCommandError, ErrCodeLoadFailed, "failed to load pipeline", err)
	}
	f.VerboseLog("Loaded %s (root %s)", path, node.Type)

	root, err := registry.NewDefault(registry.WithLogger(slog.Default())).Build(*node)
	if err != nil {
		return nil, f.Fail(ExitFailure, ErrCodeBuildFailed, "failed to build pipeline", err)
	}

	hash, err := ir.PipelineHash(*node)
	if err != nil {
		return nil, f.Fail(ExitCommandError, ErrCodeGeneric, "failed to hash pipeline", err)
	}

	return &loadedGraph{Path: path, Node: *node, Root: root, Hash: hash}, nil
}

// fetcher assembles the resource source chain from config: the store (when
// enabled and open), the resource directory, then HTTP. Results are cached.
func (o *RootOptions) fetcher(pipelinePath string, st *store.Store) (engine.Fetcher, error) {
	cfg := o.config().Resources

	var chain resource.Chain
	if st != nil && cfg.UseStore {
		chain = append(chain, st)
	}

	baseDir := cfg.BaseDir
	if baseDir == "" {
		baseDir = filepath.Dir(pipelinePath)
	}
	chain = append(chain, resource.NewDirFetcher(baseDir))

	if cfg.BaseURL != "" {
		hf, err := resource.NewHTTPFetcher(cfg.BaseURL, cfg.Timeout)
		if err != nil {
			return nil, err
		}
		chain = append(chain, hf)
	}

	return resource.NewCachedFetcher(chain), nil
}

// newPipeline wraps a built graph with the configured fetcher chain.
func (o *RootOptions) newPipeline(g *loadedGraph, st *store.Store) (*engine.Pipeline, error) {
	f, err := o.fetcher(g.Path, st)
	if err != nil {
		return nil, err
	}
	return engine.NewPipeline(g.Root,
		engine.WithFetcher(f),
		engine.WithLogger(slog.Default()),
		engine.WithFetchConcurrency(o.config().Resources.MaxConcurrency),
	), nil
}

// openStore opens the configured database.
func (o *RootOptions) openStore(f *OutputFormatter) (*store.Store, error) {
	path := o.config().Store.Path
	f.VerboseLog("Opening database %s", path)
	st, err := store.Open(path)
	if err != nil {
		return nil, f.Fail(ExitCommandError, ErrCodeStoreFailed, "failed to open database", err)
	}
	return st, nil
}

func closeStore(st *store.Store) {
	if st == nil {
		return
	}
	if err := st.Close(); err != nil {
		slog.Error("error closing database", "error", err)
	}
}

// parseInputs merges an inputs file with key=value assignments. Values
// in assignments are parsed as JSON when possible and kept as strings
// otherwise, so income=60000 is a number and status=single a string.
func parseInputs(file string, assignments []string) (map[string]any, error) {
	inputs := map[string]any{}

	if file != "" {
		data, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("read inputs: %w", err)
		}
		var raw map[string]any
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("parse inputs %s: %w", file, err)
		}
		decoded, err := jsonRoundTrip(raw)
		if err != nil {
			return nil, fmt.Errorf("parse inputs %s: %w", file, err)
		}
		for k, v := range decoded {
			inputs[k] = v
		}
	}

	for _, a := range assignments {
		key, value, ok := strings.Cut(a, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid input %q: want key=value", a)
		}
		var v any
		if err := json.Unmarshal([]byte(value), &v); err != nil {
			v = value
		}
		inputs[key] = v
	}

	return inputs, nil
}

// jsonRoundTrip converts YAML-decoded values to the JSON data model so
// integers become float64.
func jsonRoundTrip(m map[string]any) (map[string]any, error) {
	if m == nil {
		return map[string]any{}, nil
	}
	data, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	var out map[string]any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return out, nil
}
