package tools

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/MimeLyc/sales-copilot/pkg/file"
	"github.com/MimeLyc/sales-copilot/pkg/log"
)

const (
	reportPrefix = "sales_report"
	reportExt    = ".md"
)

type SaveArgs struct {
	Content  string `json:"content" jsonschema_description:"Text to write, saved verbatim"`
	Filename string `json:"filename,omitempty" jsonschema_description:"Target file name, for example report.md. Defaults to sales_report_<timestamp>.md"`
}

type saveResult struct {
	Success bool   `json:"success"`
	Path    string `json:"path,omitempty"`
	Error   string `json:"error,omitempty"`
}

// SaveTool writes text to a file, overwriting it
type SaveTool struct {
	dir string
	now func() time.Time
}

// NewSaveTool resolves relative filenames against dir; an empty dir means the working directory
func NewSaveTool(dir string) *SaveTool {
	return &SaveTool{dir: dir, now: time.Now}
}

func (t *SaveTool) Name() string {
	return "save_file"
}

func (t *SaveTool) Description() string {
	return `Save text, such as a finished pre-call report, to a file. Existing files are overwritten.`
}

func (t *SaveTool) Parameters() json.RawMessage {
	return SchemaFor(SaveArgs{})
}

func (t *SaveTool) Execute(_ context.Context, args json.RawMessage) (ToolResult, error) {
	var in SaveArgs
	if err := json.Unmarshal(args, &in); err != nil {
		return errorPayload("failed to parse arguments: %v", err), nil
	}

	path, err := t.Save(in.Content, in.Filename)
	if err != nil {
		log.Warn("Save to %s failed: %v", path, err)
		return ToolResult{Content: mustJSON(saveResult{Success: false, Error: err.Error()}), IsError: true}, nil
	}
	return ToolResult{Content: mustJSON(saveResult{Success: true, Path: path})}, nil
}

// Save writes content verbatim and returns the path written
func (t *SaveTool) Save(content, filename string) (string, error) {
	filename = strings.TrimSpace(filename)
	if filename == "" {
		filename = file.TimestampedName(reportPrefix, reportExt, t.now())
	}
	path := filename
	if t.dir != "" && !filepath.IsAbs(path) {
		path = filepath.Join(t.dir, path)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return path, err
	}
	return path, nil
}
