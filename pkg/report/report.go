// Package report persists run artifacts. Each run writes a JSON
// document for machine consumption and a text rendering for humans,
// both keyed by the run stamp.
package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/runwaylabs/runway/pkg/engine"
)

// Artifact is the JSON document written per run.
type Artifact struct {
	// RunStamp identifies the run.
	RunStamp string `json:"run_stamp"`

	// Plan is the plan the run applied.
	Plan *engine.Plan `json:"plan,omitempty"`

	// Result is the execution outcome.
	Result *engine.ExecutionResult `json:"result"`

	// WrittenAt is when the artifact was persisted.
	WrittenAt time.Time `json:"written_at"`
}

// Writer writes run artifacts into a directory.
type Writer struct {
	dir    string
	logger zerolog.Logger
}

// NewWriter creates a report writer for the given directory. The
// directory is created on first write.
func NewWriter(dir string, logger zerolog.Logger) *Writer {
	return &Writer{
		dir:    dir,
		logger: logger.With().Str("component", "report").Logger(),
	}
}

// NewRunStamp generates a unique, sortable run identifier.
func NewRunStamp(now time.Time) string {
	return fmt.Sprintf("%s-%s", now.UTC().Format("20060102T150405Z"), uuid.NewString()[:8])
}

// Write persists the run artifacts and returns the JSON and text file
// paths. A missing run stamp on the result is filled in.
func (w *Writer) Write(result *engine.ExecutionResult, plan *engine.Plan) (jsonPath, textPath string, err error) {
	if result == nil {
		return "", "", fmt.Errorf("nil execution result")
	}
	if result.RunStamp == "" {
		result.RunStamp = NewRunStamp(time.Now())
	}

	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return "", "", fmt.Errorf("failed to create report directory %s: %w", w.dir, err)
	}

	artifact := Artifact{
		RunStamp:  result.RunStamp,
		Plan:      plan,
		Result:    result,
		WrittenAt: time.Now().UTC(),
	}

	data, err := json.MarshalIndent(artifact, "", "  ")
	if err != nil {
		return "", "", fmt.Errorf("failed to encode report: %w", err)
	}

	jsonPath = filepath.Join(w.dir, result.RunStamp+".json")
	if err := os.WriteFile(jsonPath, data, 0o644); err != nil {
		return "", "", fmt.Errorf("failed to write report %s: %w", jsonPath, err)
	}

	text := engine.FormatResult(result)
	if plan != nil {
		text = engine.FormatPlan(plan) + "\n" + text
	}

	textPath = filepath.Join(w.dir, result.RunStamp+".txt")
	if err := os.WriteFile(textPath, []byte(text), 0o644); err != nil {
		return "", "", fmt.Errorf("failed to write report %s: %w", textPath, err)
	}

	w.logger.Info().
		Str("run", result.RunStamp).
		Str("json", jsonPath).
		Str("text", textPath).
		Msg("run report written")

	return jsonPath, textPath, nil
}
