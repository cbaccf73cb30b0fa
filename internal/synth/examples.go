package synth

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
)

//go:embed prompts/*.txt
var promptFS embed.FS

// DefaultExamples returns the built-in few-shot examples for d.
func DefaultExamples(d Dialect) string {
	data, err := promptFS.ReadFile(fmt.Sprintf("prompts/%s_examples.txt", d))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}

// LoadExamples reads few-shot examples from path. A missing file yields an
// empty string and no error.
func LoadExamples(path string) (string, error) {
	if path == "" {
		return "", nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", nil
		}
		return "", fmt.Errorf("failed to read examples file: %w", err)
	}
	return strings.TrimSpace(string(data)), nil
}
