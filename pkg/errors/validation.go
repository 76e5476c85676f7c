package errors

import (
	"strings"
	"unicode"
)

// ValidateOutputName validates an output base name before file names are
// derived from it.
//
// The validation rules are intentionally conservative:
//   - No empty names
//   - No control characters or null bytes
//   - Maximum length of 255 characters for the final path element
//
// Directory components are allowed; only the last element is checked for
// length.
func ValidateOutputName(name string) error {
	if strings.TrimSpace(name) == "" {
		return New(ErrCodeConfiguration, "output name cannot be empty")
	}

	for _, r := range name {
		if r == '\x00' || unicode.IsControl(r) {
			return New(ErrCodeConfiguration, "output name contains invalid control characters")
		}
	}

	const maxNameLength = 255
	base := name
	if i := strings.LastIndexAny(name, `/\`); i >= 0 {
		base = name[i+1:]
	}
	if base == "" {
		return New(ErrCodeConfiguration, "output name %q has no file name", name)
	}
	if len(base) > maxNameLength {
		return New(ErrCodeConfiguration, "output name too long (max %d characters)", maxNameLength)
	}

	return nil
}
