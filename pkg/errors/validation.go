package errors

import (
	"strings"
	"unicode"
)

// ValidateNodeID checks a device identifier before it is used as a render key
// or a cache key component.
//
// Rules:
//   - No empty IDs
//   - No control characters
//   - Maximum length of 128 characters
func ValidateNodeID(id string) error {
	if id == "" {
		return New(ErrCodeInvalidTopology, "node id cannot be empty")
	}
	if len(id) > 128 {
		return New(ErrCodeInvalidTopology, "node id too long (max 128 characters)")
	}
	for _, r := range id {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidTopology, "node id contains invalid control characters")
		}
	}
	return nil
}

// ValidatePath validates a topology file path supplied by a user.
//
// Validation rules:
//   - Path cannot be empty
//   - Maximum length of 500 characters
//   - No null bytes or control characters
func ValidatePath(path string) error {
	if path == "" {
		return New(ErrCodeInvalidPath, "path cannot be empty")
	}
	if len(path) > 500 {
		return New(ErrCodeInvalidPath, "path too long (max 500 characters)")
	}
	if strings.ContainsRune(path, 0) {
		return New(ErrCodeInvalidPath, "path contains null byte")
	}
	for _, r := range path {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidPath, "path contains invalid control characters")
		}
	}
	return nil
}
