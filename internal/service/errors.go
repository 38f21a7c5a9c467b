package service

import (
	"errors"
	"fmt"
)

var (
	// ErrUploadMissing means the upload request carried no file.
	ErrUploadMissing = errors.New("no file uploaded")
	// ErrNotReady means a question arrived before any document was ingested.
	ErrNotReady = errors.New("FAQ has not been uploaded yet")
	// ErrEmptyQuestion rejects blank questions before the provider is called.
	ErrEmptyQuestion = errors.New("message must not be empty")
)

// ProviderError wraps any failure of the completion provider.
type ProviderError struct {
	Provider string
	Err      error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s: %v", e.Provider, e.Err)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}
