package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/taxflow/internal/engine"
	"github.com/roach88/taxflow/internal/ir"
)

// ErrCodeInternal marks a failed run whose error carried no engine code.
const ErrCodeInternal = "INTERNAL"

// Run is one persisted pipeline execution.
//
// Record holds every key written before the run finished or failed, so a
// failed run still shows how far it got.
type Run struct {
	ID            string         `json:"id"`
	Seq           int64          `json:"seq"`
	PipelineHash  string         `json:"pipeline_hash"`
	Inputs        map[string]any `json:"inputs"`
	Record        map[string]any `json:"record"`
	RecordHash    string         `json:"record_hash"`
	Outputs       map[string]any `json:"outputs"`
	ErrorCode     string         `json:"error_code,omitempty"`
	ErrorKey      string         `json:"error_key,omitempty"`
	ErrorMessage  string         `json:"error_message,omitempty"`
	EngineVersion string         `json:"engine_version"`
}

// Failed reports whether the run ended in an error.
func (r Run) Failed() bool {
	return r.ErrorCode != ""
}

// NewRun assembles a Run from the result of engine.Pipeline.Run.
// rec may be nil when the pipeline failed before executing.
func NewRun(id, pipelineHash string, inputs map[string]any, rec *engine.Record, outputs map[string]any, runErr error) (Run, error) {
	run := Run{
		ID:            id,
		PipelineHash:  pipelineHash,
		Inputs:        inputs,
		Record:        map[string]any{},
		Outputs:       outputs,
		EngineVersion: ir.EngineVersion,
	}
	if run.Inputs == nil {
		run.Inputs = map[string]any{}
	}
	if run.Outputs == nil {
		run.Outputs = map[string]any{}
	}
	if rec != nil {
		run.Record = rec.Snapshot()
	}

	hash, err := ir.RecordHash(run.Record)
	if err != nil {
		return Run{}, fmt.Errorf("new run: %w", err)
	}
	run.RecordHash = hash

	if runErr != nil {
		run.ErrorCode = string(engine.CodeOf(runErr))
		if run.ErrorCode == "" {
			run.ErrorCode = ErrCodeInternal
		}
		run.ErrorKey = engine.KeyOf(runErr)
		run.ErrorMessage = runErr.Error()
	}
	return run, nil
}

// WriteRun inserts a run and returns it with its assigned seq.
// Uses ON CONFLICT(id) DO NOTHING for idempotency: rewriting an existing ID
// returns the stored run unchanged.
func (s *Store) WriteRun(ctx context.Context, run Run) (Run, error) {
	if run.ID == "" {
		return Run{}, fmt.Errorf("write run: id is required")
	}

	inputsJSON, err := marshalColumn("inputs", run.Inputs)
	if err != nil {
		return Run{}, fmt.Errorf("write run: %w", err)
	}
	recordJSON, err := marshalColumn("record", run.Record)
	if err != nil {
		return Run{}, fmt.Errorf("write run: %w", err)
	}
	outputsJSON, err := marshalColumn("outputs", run.Outputs)
	if err != nil {
		return Run{}, fmt.Errorf("write run: %w", err)
	}
	if run.EngineVersion == "" {
		run.EngineVersion = ir.EngineVersion
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Run{}, fmt.Errorf("write run: %w", err)
	}
	defer tx.Rollback()

	seq, err := nextSeq(ctx, tx, "runs")
	if err != nil {
		return Run{}, fmt.Errorf("write run: %w", err)
	}

	res, err := tx.ExecContext(ctx, `
		INSERT INTO runs
		(id, seq, pipeline_hash, inputs, record, record_hash, outputs,
		 error_code, error_key, error_message, engine_version)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		run.ID,
		seq,
		run.PipelineHash,
		inputsJSON,
		recordJSON,
		run.RecordHash,
		outputsJSON,
		run.ErrorCode,
		run.ErrorKey,
		run.ErrorMessage,
		run.EngineVersion,
	)
	if err != nil {
		return Run{}, fmt.Errorf("write run: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return Run{}, fmt.Errorf("write run: %w", err)
	}

	if n, _ := res.RowsAffected(); n == 0 {
		return s.ReadRun(ctx, run.ID)
	}
	run.Seq = seq
	return run, nil
}

// ReadRun retrieves a single run by ID.
// Returns ErrNotFound if no run has that ID.
func (s *Store) ReadRun(ctx context.Context, id string) (Run, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+runColumns+`
		FROM runs
		WHERE id = ?
	`, id)

	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, fmt.Errorf("run %q: %w", id, ErrNotFound)
	}
	return run, err
}

// RunFilter narrows ListRuns.
type RunFilter struct {
	// PipelineHash restricts results to runs of one pipeline document.
	PipelineHash string

	// FailedOnly restricts results to runs with an error code.
	FailedOnly bool

	// Limit caps the number of runs returned. Zero means no limit.
	Limit int
}

// ListRuns returns runs newest first: ORDER BY seq DESC, id ASC COLLATE BINARY.
// Returns an empty slice (not nil) if no runs match.
func (s *Store) ListRuns(ctx context.Context, filter RunFilter) ([]Run, error) {
	query := `SELECT ` + runColumns + ` FROM runs WHERE 1 = 1`
	var args []any
	if filter.PipelineHash != "" {
		query += ` AND pipeline_hash = ?`
		args = append(args, filter.PipelineHash)
	}
	if filter.FailedOnly {
		query += ` AND error_code != ''`
	}
	query += ` ORDER BY seq DESC, id COLLATE BINARY ASC`
	if filter.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	runs := []Run{}
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, run)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}

	return runs, nil
}

const runColumns = `id, seq, pipeline_hash, inputs, record, record_hash, outputs,
	error_code, error_key, error_message, engine_version`

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(sc scanner) (Run, error) {
	var run Run
	var inputsJSON, recordJSON, outputsJSON string

	if err := sc.Scan(
		&run.ID, &run.Seq, &run.PipelineHash, &inputsJSON, &recordJSON,
		&run.RecordHash, &outputsJSON, &run.ErrorCode, &run.ErrorKey,
		&run.ErrorMessage, &run.EngineVersion,
	); err != nil {
		return Run{}, err
	}

	var err error
	if run.Inputs, err = unmarshalObject("inputs", inputsJSON); err != nil {
		return Run{}, err
	}
	if run.Record, err = unmarshalObject("record", recordJSON); err != nil {
		return Run{}, err
	}
	if run.Outputs, err = unmarshalObject("outputs", outputsJSON); err != nil {
		return Run{}, err
	}
	return run, nil
}
