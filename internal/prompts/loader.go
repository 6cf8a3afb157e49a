// Package prompts loads the LLM prompt templates embedded with the binary.
// Each JSON file maps prompt keys to template text.
package prompts

import (
	"embed"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
)

//go:embed *.json
var promptFiles embed.FS

var (
	cacheMu sync.Mutex
	cache   = make(map[string]map[string]string)
)

// Get returns the prompt stored under key in the named file. The filename is
// bare, without a path ("analysis.json").
func Get(filename, key string) (string, error) {
	file, err := load(filename)
	if err != nil {
		return "", err
	}
	prompt, ok := file[key]
	if !ok {
		return "", fmt.Errorf("prompt key %q not found in %s", key, filename)
	}
	return prompt, nil
}

// Format substitutes {{.Key}} placeholders in a template. Placeholders with
// no matching entry in data are left in place.
func Format(template string, data map[string]string) string {
	for key, value := range data {
		template = strings.ReplaceAll(template, "{{."+key+"}}", value)
	}
	return template
}

func load(filename string) (map[string]string, error) {
	cacheMu.Lock()
	defer cacheMu.Unlock()

	if file, ok := cache[filename]; ok {
		return file, nil
	}

	data, err := promptFiles.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read prompt file %s: %w", filename, err)
	}

	var file map[string]string
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse prompt file %s: %w", filename, err)
	}

	cache[filename] = file
	return file, nil
}

// ClearCache resets the parsed-file cache. Tests use it to force reloads.
func ClearCache() {
	cacheMu.Lock()
	defer cacheMu.Unlock()
	cache = make(map[string]map[string]string)
}
