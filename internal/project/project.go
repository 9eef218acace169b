// ABOUTME: Project and hotspot data model
// ABOUTME: JSON shapes shared by the store, the editor and exported files
package project

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Sonicmapper/sonicmapper-go/pkg/codec"
	"github.com/google/uuid"
)

const (
	DefaultName        = "New Instrument"
	DefaultLabel       = "New Spot"
	DefaultDescription = "Standard note"
)

var (
	ErrInvalidProject  = errors.New("invalid project")
	ErrHotspotNotFound = errors.New("hotspot not found")
)

// Hotspot is a point on the instrument image mapped to a note
type Hotspot struct {
	ID          string  `json:"id"`
	X           float64 `json:"x"` // percent of image width, 0-100
	Y           float64 `json:"y"` // percent of image height, 0-100
	Label       string  `json:"label"`
	Description string  `json:"description"`
	AudioData   string  `json:"audioData,omitempty"`
	IsLoading   bool    `json:"isLoading,omitempty"`
}

// Mapped reports whether the hotspot has a note
func (h Hotspot) Mapped() bool {
	return h.AudioData != ""
}

// Project is one instrument: an image and its hotspots
type Project struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Image     string    `json:"image"` // data URL
	Hotspots  []Hotspot `json:"hotspots"`
	CreatedAt int64     `json:"createdAt"` // unix milliseconds
}

// NewID returns a fresh project or hotspot identifier
func NewID() string {
	return uuid.NewString()
}

// NewProject returns an empty project. An empty id gets a generated one.
func NewProject(id string) Project {
	if id == "" {
		id = NewID()
	}
	return Project{
		ID:        id,
		Name:      DefaultName,
		Hotspots:  []Hotspot{},
		CreatedAt: time.Now().UnixMilli(),
	}
}

// Clone returns a deep copy
func (p Project) Clone() Project {
	hotspots := make([]Hotspot, len(p.Hotspots))
	copy(hotspots, p.Hotspots)
	p.Hotspots = hotspots
	return p
}

// Hotspot returns the hotspot with id
func (p Project) Hotspot(id string) (Hotspot, bool) {
	for _, h := range p.Hotspots {
		if h.ID == id {
			return h, true
		}
	}
	return Hotspot{}, false
}

// Validate checks the fields an imported project must carry and that every
// mapped hotspot holds a decodable note
func (p Project) Validate() error {
	switch {
	case p.ID == "":
		return fmt.Errorf("%w: missing id", ErrInvalidProject)
	case p.Name == "":
		return fmt.Errorf("%w: missing name", ErrInvalidProject)
	case p.Image == "":
		return fmt.Errorf("%w: missing image", ErrInvalidProject)
	}

	for _, h := range p.Hotspots {
		if h.ID == "" {
			return fmt.Errorf("%w: hotspot without id", ErrInvalidProject)
		}
		if !h.Mapped() {
			continue
		}
		if err := codec.Validate(h.AudioData); err != nil {
			return fmt.Errorf("%w: hotspot %s: %w", ErrInvalidProject, h.ID, err)
		}
	}
	return nil
}

// ParseJSON reads a project exported as JSON and validates it
func ParseJSON(data []byte) (*Project, error) {
	var p Project
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidProject, err)
	}
	if p.Hotspots == nil {
		p.Hotspots = []Hotspot{}
	}
	for i := range p.Hotspots {
		p.Hotspots[i].IsLoading = false
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &p, nil
}

// DataURL encodes image bytes as a base64 data URL
func DataURL(mimeType string, data []byte) string {
	return "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(data)
}

// ParseDataURL splits a base64 data URL into its media type and payload
func ParseDataURL(url string) (string, []byte, error) {
	rest, ok := strings.CutPrefix(url, "data:")
	if !ok {
		return "", nil, fmt.Errorf("not a data URL")
	}
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return "", nil, fmt.Errorf("data URL has no payload")
	}
	mimeType, isBase64 := strings.CutSuffix(meta, ";base64")
	if !isBase64 {
		return "", nil, fmt.Errorf("data URL is not base64 encoded")
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", nil, fmt.Errorf("decode data URL: %w", err)
	}
	return mimeType, data, nil
}
