// Package prompts loads the per-mode system prompts.
// Prompts are stored as JSON files ({"prompt": "..."}) embedded at compile
// time; an optional directory on disk takes precedence over the embedded set.
package prompts

import (
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/jonathan/cojournalist/internal/modes"
	"github.com/xeipuuv/gojsonschema"
	"go.uber.org/zap"
)

// DefaultPrompt is used whenever a mode's prompt file is missing or malformed.
const DefaultPrompt = "You are a helpful assistant."

//go:embed *_prompt.json
var promptFiles embed.FS

const promptSchema = `{
  "type": "object",
  "required": ["prompt"],
  "properties": {
    "prompt": {"type": "string", "minLength": 1}
  }
}`

var compiledSchema = sync.OnceValues(func() (*gojsonschema.Schema, error) {
	return gojsonschema.NewSchema(gojsonschema.NewStringLoader(promptSchema))
})

// FileName returns the prompt file name for a prompt key (data -> data_prompt.json).
func FileName(key string) string {
	return key + "_prompt.json"
}

// Loader resolves system prompts and caches parsed files.
type Loader struct {
	dir    string
	logger *zap.Logger

	mu    sync.RWMutex
	cache map[string]string
}

// NewLoader creates a loader. dir may be empty to use only the embedded prompts.
func NewLoader(dir string, logger *zap.Logger) *Loader {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Loader{
		dir:    dir,
		logger: logger,
		cache:  make(map[string]string),
	}
}

// SystemPrompt returns the prompt for m, falling back to DefaultPrompt when
// the configured prompt cannot be read. It never fails.
func (l *Loader) SystemPrompt(m modes.Mode) string {
	prompt, err := l.Get(m.PromptKey())
	if err != nil {
		l.logger.Warn("falling back to default system prompt",
			zap.String("mode", string(m)),
			zap.Error(err),
		)
		return DefaultPrompt
	}
	return prompt
}

// Get retrieves the prompt for a key.
// Returns an error if the file is missing, is not JSON, or does not match
// the prompt schema.
func (l *Loader) Get(key string) (string, error) {
	l.mu.RLock()
	if prompt, ok := l.cache[key]; ok {
		l.mu.RUnlock()
		return prompt, nil
	}
	l.mu.RUnlock()

	data, err := l.read(FileName(key))
	if err != nil {
		return "", err
	}

	prompt, err := parse(data)
	if err != nil {
		return "", fmt.Errorf("failed to parse prompt file %s: %w", FileName(key), err)
	}

	l.mu.Lock()
	l.cache[key] = prompt
	l.mu.Unlock()

	return prompt, nil
}

// ClearCache drops every cached prompt so files are re-read on next use.
func (l *Loader) ClearCache() {
	l.mu.Lock()
	l.cache = make(map[string]string)
	l.mu.Unlock()
}

// read looks in the override directory first, then in the embedded set.
func (l *Loader) read(filename string) ([]byte, error) {
	if l.dir != "" {
		data, err := os.ReadFile(filepath.Join(l.dir, filename))
		if err == nil {
			return data, nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to read prompt file %s: %w", filename, err)
		}
	}

	data, err := promptFiles.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read prompt file %s: %w", filename, err)
	}
	return data, nil
}

func parse(data []byte) (string, error) {
	schema, err := compiledSchema()
	if err != nil {
		return "", fmt.Errorf("invalid prompt schema: %w", err)
	}

	result, err := schema.Validate(gojsonschema.NewBytesLoader(data))
	if err != nil {
		return "", err
	}
	if !result.Valid() {
		msgs := make([]string, 0, len(result.Errors()))
		for _, e := range result.Errors() {
			msgs = append(msgs, e.String())
		}
		return "", fmt.Errorf("schema violation: %s", strings.Join(msgs, "; "))
	}

	var doc struct {
		Prompt string `json:"prompt"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return "", err
	}
	return doc.Prompt, nil
}
