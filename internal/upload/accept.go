package upload

import (
	"errors"
	"fmt"
	"path"
	"strings"
)

var (
	ErrTooLarge    = errors.New("file too large")
	ErrInvalidType = errors.New("invalid file type")
)

// Accept is a list of accepted patterns in the HTML accept-attribute style:
// exact MIME types ("application/pdf"), wildcard MIME prefixes ("image/*")
// and file extensions (".pdf").
type Accept []string

// ParseAccept splits a comma-separated accept list.
func ParseAccept(s string) Accept {
	var out Accept
	for _, part := range strings.Split(s, ",") {
		part = strings.ToLower(strings.TrimSpace(part))
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

// Matches reports whether f satisfies at least one pattern.
func (a Accept) Matches(f File) bool {
	contentType := strings.ToLower(strings.TrimSpace(f.ContentType))
	if i := strings.IndexByte(contentType, ';'); i >= 0 {
		contentType = strings.TrimSpace(contentType[:i])
	}
	ext := strings.ToLower(path.Ext(f.Name))

	for _, pattern := range a {
		switch {
		case strings.HasPrefix(pattern, "."):
			if ext == pattern {
				return true
			}
		case strings.HasSuffix(pattern, "/*"):
			if contentType != "" && strings.HasPrefix(contentType, strings.TrimSuffix(pattern, "*")) {
				return true
			}
		default:
			if contentType == pattern {
				return true
			}
		}
	}
	return false
}

func (a Accept) String() string {
	return strings.Join(a, ", ")
}

// ValidationError is a field-scoped rejection of a selected file.
type ValidationError struct {
	Kind    error
	Size    int64
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

func (e *ValidationError) Unwrap() error { return e.Kind }

// Validate checks f against the size limit and the accepted patterns.
// Size is checked first so oversize files report their measured size.
func Validate(f File, accept Accept) error {
	if f.Size > MaxFileSize {
		return &ValidationError{
			Kind:    ErrTooLarge,
			Size:    f.Size,
			Message: fmt.Sprintf("File is too large (%s). Maximum size is %s.", FormatMB(f.Size), FormatMB(MaxFileSize)),
		}
	}
	if len(accept) > 0 && !accept.Matches(f) {
		return &ValidationError{
			Kind:    ErrInvalidType,
			Size:    f.Size,
			Message: fmt.Sprintf("Invalid file type. Accepted: %s", accept),
		}
	}
	return nil
}

// FormatMB renders a byte count in binary megabytes, dropping a zero fraction.
func FormatMB(n int64) string {
	mb := float64(n) / (1024 * 1024)
	s := fmt.Sprintf("%.1f", mb)
	s = strings.TrimSuffix(s, ".0")
	return s + "MB"
}
