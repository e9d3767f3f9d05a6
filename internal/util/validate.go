package util

import (
	"fmt"
	"path/filepath"
	"strings"
)

// IsConfigured reports whether all provided values are non-empty.
func IsConfigured(values ...string) bool {
	for _, v := range values {
		if v == "" {
			return false
		}
	}
	return true
}

// ValidatePath validates a file path for security. Rejects traversal
// components both before and after cleaning.
func ValidatePath(field, path string) error {
	if path == "" {
		return fmt.Errorf("%s: is required", field)
	}
	if strings.Contains(path, "..") {
		return fmt.Errorf("%s: path cannot contain '..'", field)
	}
	if strings.Contains(filepath.Clean(path), "..") {
		return fmt.Errorf("%s: invalid path", field)
	}
	return nil
}
