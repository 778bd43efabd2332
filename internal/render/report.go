package render

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/sourceplane/foldbatch/internal/loader"
	"github.com/sourceplane/foldbatch/internal/model"
	"gopkg.in/yaml.v3"
)

// Renderer serializes batch reports
type Renderer struct{}

// NewRenderer creates a new renderer
func NewRenderer() *Renderer {
	return &Renderer{}
}

// RenderJSON renders report as JSON
func (r *Renderer) RenderJSON(report *model.BatchRunReport) ([]byte, error) {
	return json.MarshalIndent(report, "", "  ")
}

// RenderYAML renders report as YAML
func (r *Renderer) RenderYAML(report *model.BatchRunReport) ([]byte, error) {
	return yaml.Marshal(report)
}

// WriteReport writes report to file (JSON or YAML based on extension)
func (r *Renderer) WriteReport(report *model.BatchRunReport, path string) error {
	var data []byte
	var err error

	// Determine format from extension
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		data, err = r.RenderYAML(report)
	default:
		data, err = r.RenderJSON(report)
	}
	if err != nil {
		return fmt.Errorf("failed to render report: %w", err)
	}

	if err := loader.WriteFileAtomic(path, data); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}

// DebugDump outputs debug information about the report
func (r *Renderer) DebugDump(report *model.BatchRunReport) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Batch: %s\n", report.BatchID)
	fmt.Fprintf(&sb, "Submitted: %d\n", report.Submitted)
	fmt.Fprintf(&sb, "Succeeded: %d\n", report.Succeeded)
	fmt.Fprintf(&sb, "Failed: %d\n", len(report.Failures))
	if !report.StartedAt.IsZero() && !report.FinishedAt.IsZero() {
		fmt.Fprintf(&sb, "Duration: %s\n", report.FinishedAt.Sub(report.StartedAt).Round(time.Millisecond))
	}
	return sb.String()
}
