package workflow

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/faasr/faasr-vm-tools/internal/ctxlog"
)

// Load reads and parses a workflow document from disk.
func Load(ctx context.Context, path string) (*Workflow, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Loading workflow document.", "path", path)

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading workflow document: %w", err)
	}
	var w Workflow
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, fmt.Errorf("parsing workflow document %s: %w", path, err)
	}

	logger.Debug("Workflow document loaded.", "actions", w.ActionCount(), "entry", w.Entry)
	return &w, nil
}

// Save writes the workflow document to disk, 4-space indented to match the
// format the documents are maintained in.
func Save(ctx context.Context, w *Workflow, path string) error {
	logger := ctxlog.FromContext(ctx)

	data, err := Encode(w)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing workflow document: %w", err)
	}

	logger.Debug("Workflow document saved.", "path", path, "actions", w.ActionCount())
	return nil
}

// Encode renders the document as indented JSON with a trailing newline.
func Encode(w *Workflow) ([]byte, error) {
	raw, err := json.Marshal(w)
	if err != nil {
		return nil, fmt.Errorf("encoding workflow document: %w", err)
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "    "); err != nil {
		return nil, fmt.Errorf("encoding workflow document: %w", err)
	}
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}
