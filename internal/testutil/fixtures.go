// Package testutil holds deterministic fixtures shared by package tests.
package testutil

import (
	"io"
	"log/slog"

	"github.com/roach88/taxflow/internal/engine"
)

// BracketPipeline is a minimal pipeline document: one bounded input, a tier
// table loaded from "brackets.json", a marginal bracket step and one output.
const BracketPipeline = `{
  "type": "CompositeCommand",
  "name": "bracket",
  "params": [],
  "children": [
    {"type": "DefineInput", "params": ["income", "Income", "number", "value", {"min": 0}]},
    {"type": "LoadConstantsCommand", "params": ["brackets.json", "brackets"]},
    {"type": "TaxBracketCommand", "params": ["tax", "brackets", "income"]},
    {"type": "DefineOutput", "params": ["tax", "Tax", "number"]}
  ]
}`

// Brackets returns two tiers as they arrive from JSON: 10% up to 50000 and
// 20% above. Income of 60000 owes 7000.
func Brackets() []any {
	return []any{
		map[string]any{"boundary": float64(50000), "rate": float64(10)},
		map[string]any{"boundary": "Infinity", "rate": float64(20)},
	}
}

// BracketResources serves Brackets under the path BracketPipeline loads.
func BracketResources() engine.MapFetcher {
	return engine.MapFetcher{"brackets.json": Brackets()}
}

// DiscardLogger returns a logger that drops everything.
func DiscardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
