// ABOUTME: Editor operations on one in-memory project
// ABOUTME: Image, hotspot, upload and generation edits with previews; saving is explicit
package project

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"

	"github.com/Sonicmapper/sonicmapper-go/internal/generate"
	"github.com/Sonicmapper/sonicmapper-go/pkg/audio"
	"github.com/Sonicmapper/sonicmapper-go/pkg/codec"
)

var (
	ErrNoImage          = errors.New("project has no image")
	ErrUnsupportedImage = errors.New("unsupported image type")
	ErrInvalidPosition  = errors.New("hotspot position out of range")
)

const noSuggestions = "No suggestions found."

// Player plays stored notes without blocking
type Player interface {
	Play(encoded string)
}

// EditorConfig holds the collaborators an editor may use. Any may be nil.
type EditorConfig struct {
	Codec  *codec.Codec
	Notes  generate.NoteGenerator
	Vision generate.ImageAnalyzer
	Player Player
	Logger *slog.Logger
}

// Editor edits one project. Failed operations leave the project unchanged
// apart from clearing the hotspot's loading flag.
type Editor struct {
	codec  *codec.Codec
	notes  generate.NoteGenerator
	vision generate.ImageAnalyzer
	player Player
	logger *slog.Logger

	mu      sync.Mutex
	project Project
}

// NewEditor starts editing a copy of p
func NewEditor(p Project, cfg EditorConfig) *Editor {
	c := cfg.Codec
	if c == nil {
		c = codec.New(nil)
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if p.Hotspots == nil {
		p.Hotspots = []Hotspot{}
	}

	return &Editor{
		codec:   c,
		notes:   cfg.Notes,
		vision:  cfg.Vision,
		player:  cfg.Player,
		logger:  logger.With("project", p.ID),
		project: p.Clone(),
	}
}

// Project returns a snapshot of the edited project
func (e *Editor) Project() Project {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.project.Clone()
}

// SetName renames the instrument
func (e *Editor) SetName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("%w: empty name", ErrInvalidProject)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.project.Name = name
	return nil
}

// SetImage stores image bytes as a data URL. An empty mimeType is sniffed.
func (e *Editor) SetImage(data []byte, mimeType string) error {
	if len(data) == 0 {
		return fmt.Errorf("%w: empty image", ErrUnsupportedImage)
	}
	if mimeType == "" {
		mimeType = http.DetectContentType(data)
	}
	mimeType, _, _ = strings.Cut(mimeType, ";")
	if !strings.HasPrefix(mimeType, "image/") {
		return fmt.Errorf("%w: %s", ErrUnsupportedImage, mimeType)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.project.Image = DataURL(mimeType, data)
	e.logger.Info("image set", "mime", mimeType, "bytes", len(data))
	return nil
}

// SuggestHotspots asks the image analyzer which parts of the instrument can be played
func (e *Editor) SuggestHotspots(ctx context.Context) (string, error) {
	if e.vision == nil {
		return "", generate.ErrUnavailable
	}

	e.mu.Lock()
	image := e.project.Image
	e.mu.Unlock()
	if image == "" {
		return "", ErrNoImage
	}

	mimeType, data, err := ParseDataURL(image)
	if err != nil {
		return "", fmt.Errorf("read project image: %w", err)
	}

	text, err := e.vision.AnalyzeImage(ctx, data, mimeType)
	if err != nil {
		return "", fmt.Errorf("analyze image: %w", err)
	}
	if strings.TrimSpace(text) == "" {
		return noSuggestions, nil
	}
	return text, nil
}

// AddHotspot places a new hotspot at x, y percent of the image
func (e *Editor) AddHotspot(x, y float64) (Hotspot, error) {
	if x < 0 || x > 100 || y < 0 || y > 100 {
		return Hotspot{}, fmt.Errorf("%w: (%.1f, %.1f)", ErrInvalidPosition, x, y)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.project.Image == "" {
		return Hotspot{}, ErrNoImage
	}

	h := Hotspot{
		ID:          NewID(),
		X:           x,
		Y:           y,
		Label:       DefaultLabel,
		Description: DefaultDescription,
	}
	e.project.Hotspots = append(e.project.Hotspots, h)
	return h, nil
}

// UpdateHotspot replaces a hotspot's label and description
func (e *Editor) UpdateHotspot(id, label, description string) error {
	return e.modify(id, func(h *Hotspot) {
		h.Label = label
		h.Description = description
	})
}

// RemoveHotspot deletes a hotspot
func (e *Editor) RemoveHotspot(id string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	for i, h := range e.project.Hotspots {
		if h.ID == id {
			e.project.Hotspots = append(e.project.Hotspots[:i:i], e.project.Hotspots[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("%w: %s", ErrHotspotNotFound, id)
}

// AssignAudio encodes an uploaded file as the hotspot's note and previews it.
// A hotspot still labelled "New Spot" takes the file name before its first dot.
func (e *Editor) AssignAudio(ctx context.Context, id string, data []byte, filename string) error {
	if _, err := e.begin(id); err != nil {
		return err
	}

	encoded, err := e.codec.EncodeFile(data, filename)
	if err == nil {
		err = ctx.Err()
	}
	if err != nil {
		e.finish(id)
		e.logger.Warn("audio upload failed", "hotspot", id, "file", filename, "error", err)
		return err
	}

	label, _, _ := strings.Cut(filename, ".")
	if err := e.complete(id, encoded, label); err != nil {
		return err
	}

	e.logger.Info("audio assigned", "hotspot", id, "file", filename)
	e.preview(encoded)
	return nil
}

// AssignBuffer encodes already decoded audio, such as a synthesized tone,
// as the hotspot's note and previews it
func (e *Editor) AssignBuffer(id string, buf *audio.Buffer, label string) error {
	if _, err := e.begin(id); err != nil {
		return err
	}

	encoded, err := e.codec.Encode(buf)
	if err == nil && encoded == "" {
		err = fmt.Errorf("%w: empty buffer", codec.ErrSourceDecode)
	}
	if err != nil {
		e.finish(id)
		e.logger.Warn("buffer encode failed", "hotspot", id, "error", err)
		return err
	}

	if err := e.complete(id, encoded, label); err != nil {
		return err
	}

	e.logger.Info("buffer assigned", "hotspot", id, "seconds", buf.Duration())
	e.preview(encoded)
	return nil
}

// GenerateSound asks the note generator for the hotspot's description played
// on this instrument and previews the result
func (e *Editor) GenerateSound(ctx context.Context, id string) error {
	if e.notes == nil {
		return generate.ErrUnavailable
	}

	h, err := e.begin(id)
	if err != nil {
		return err
	}

	e.mu.Lock()
	instrument := e.project.Name
	e.mu.Unlock()

	encoded, err := e.notes.GenerateNote(ctx, instrument, h.Description)
	if err == nil && encoded == "" {
		err = generate.ErrUnavailable
	}
	if err == nil {
		if verr := codec.Validate(encoded); verr != nil {
			err = fmt.Errorf("%w: generated note: %w", codec.ErrSourceDecode, verr)
		}
	}
	if err != nil {
		e.finish(id)
		e.logger.Warn("note generation failed", "hotspot", id, "error", err)
		return err
	}

	if err := e.complete(id, encoded, h.Description); err != nil {
		return err
	}

	e.logger.Info("note generated", "hotspot", id, "description", h.Description)
	e.preview(encoded)
	return nil
}

// Preview plays a hotspot's note. Unmapped hotspots are skipped.
func (e *Editor) Preview(id string) error {
	e.mu.Lock()
	h, ok := e.project.Hotspot(id)
	e.mu.Unlock()

	if !ok {
		return fmt.Errorf("%w: %s", ErrHotspotNotFound, id)
	}
	e.preview(h.AudioData)
	return nil
}

func (e *Editor) preview(encoded string) {
	if e.player == nil || encoded == "" {
		return
	}
	e.player.Play(encoded)
}

// begin marks a hotspot as loading and returns it
func (e *Editor) begin(id string) (Hotspot, error) {
	var snapshot Hotspot
	err := e.modify(id, func(h *Hotspot) {
		h.IsLoading = true
		snapshot = *h
	})
	return snapshot, err
}

// finish clears the loading flag after a failure
func (e *Editor) finish(id string) {
	_ = e.modify(id, func(h *Hotspot) {
		h.IsLoading = false
	})
}

// complete stores a note, clears loading and relabels a default-labelled hotspot
func (e *Editor) complete(id, encoded, label string) error {
	return e.modify(id, func(h *Hotspot) {
		h.AudioData = encoded
		h.IsLoading = false
		if h.Label == DefaultLabel && label != "" {
			h.Label = label
		}
	})
}

func (e *Editor) modify(id string, fn func(h *Hotspot)) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	for i := range e.project.Hotspots {
		if e.project.Hotspots[i].ID == id {
			fn(&e.project.Hotspots[i])
			return nil
		}
	}
	return fmt.Errorf("%w: %s", ErrHotspotNotFound, id)
}
