// ABOUTME: Capability interfaces for generated notes and image analysis
// ABOUTME: Lets the editor use any note or vision service, including a test stub
package generate

import (
	"context"
	"errors"
	"sync"
)

// ErrUnavailable means no generation service is configured or it returned nothing
var ErrUnavailable = errors.New("generation service unavailable")

// NoteGenerator produces a stored note (base64 canonical PCM) for a described
// note on an instrument
type NoteGenerator interface {
	GenerateNote(ctx context.Context, instrument, description string) (string, error)
}

// ImageAnalyzer describes the playable parts of an instrument photo
type ImageAnalyzer interface {
	AnalyzeImage(ctx context.Context, image []byte, mimeType string) (string, error)
}

// NoteRequest records one GenerateNote call made to a Stub
type NoteRequest struct {
	Instrument  string
	Description string
}

// Stub is a canned NoteGenerator and ImageAnalyzer
type Stub struct {
	Note    string
	NoteErr error
	Text    string
	TextErr error

	mu       sync.Mutex
	requests []NoteRequest
	images   int
}

// GenerateNote returns the canned note or error
func (s *Stub) GenerateNote(ctx context.Context, instrument, description string) (string, error) {
	s.mu.Lock()
	s.requests = append(s.requests, NoteRequest{Instrument: instrument, Description: description})
	s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return "", err
	}
	if s.NoteErr != nil {
		return "", s.NoteErr
	}
	return s.Note, nil
}

// AnalyzeImage returns the canned text or error
func (s *Stub) AnalyzeImage(ctx context.Context, image []byte, mimeType string) (string, error) {
	s.mu.Lock()
	s.images++
	s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return "", err
	}
	if s.TextErr != nil {
		return "", s.TextErr
	}
	return s.Text, nil
}

// Requests returns the GenerateNote calls seen so far
func (s *Stub) Requests() []NoteRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]NoteRequest(nil), s.requests...)
}

// ImagesAnalyzed returns how many AnalyzeImage calls were made
func (s *Stub) ImagesAnalyzed() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.images
}
