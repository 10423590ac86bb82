package upload

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"
)

// MaxFileSize is the largest document accepted before transmission (25 MB).
const MaxFileSize int64 = 25 * 1024 * 1024

// File is an in-memory document selected by the merchant.
type File struct {
	Name        string
	ContentType string
	Size        int64
	ModTime     time.Time
	Data        []byte
}

// NewFile reads r fully and returns a File with Size taken from the content.
func NewFile(name, contentType string, r io.Reader) (File, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return File{}, &ReadError{Name: name, Err: err}
	}
	return File{
		Name:        name,
		ContentType: strings.ToLower(strings.TrimSpace(contentType)),
		Size:        int64(len(data)),
		ModTime:     time.Now(),
		Data:        data,
	}, nil
}

// IsImage reports whether the declared media type is an image type.
func (f File) IsImage() bool {
	return strings.HasPrefix(strings.ToLower(f.ContentType), "image/")
}

// Base64 returns the file content as standard base64 without any data-URL header.
func (f File) Base64() (string, error) {
	out, err := EncodeBase64(bytes.NewReader(f.Data))
	if err != nil {
		var rerr *ReadError
		if errors.As(err, &rerr) {
			rerr.Name = f.Name
		}
		return "", err
	}
	return out, nil
}

// EncodeBase64 streams r through a standard base64 encoder.
func EncodeBase64(r io.Reader) (string, error) {
	var buf strings.Builder
	enc := base64.NewEncoder(base64.StdEncoding, &buf)
	if _, err := io.Copy(enc, r); err != nil {
		return "", &ReadError{Err: err}
	}
	if err := enc.Close(); err != nil {
		return "", &ReadError{Err: err}
	}
	return buf.String(), nil
}

// ReadError reports that file content could not be read.
type ReadError struct {
	Name string
	Err  error
}

func (e *ReadError) Error() string {
	if e.Name == "" {
		return fmt.Sprintf("failed to read file: %v", e.Err)
	}
	return fmt.Sprintf("failed to read file %q: %v", e.Name, e.Err)
}

func (e *ReadError) Unwrap() error { return e.Err }
