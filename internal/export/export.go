// ABOUTME: Project export as a shareable JSON file or a standalone HTML player
// ABOUTME: The HTML player embeds the project and decodes notes exactly like codec.Decode
package export

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"html/template"
	"io"
	"regexp"
	"strings"

	"github.com/Sonicmapper/sonicmapper-go/internal/project"
	"github.com/Sonicmapper/sonicmapper-go/internal/version"
	"github.com/Sonicmapper/sonicmapper-go/pkg/audio"
)

const (
	JSONExt = ".sonic.json"
	HTMLExt = ".html"

	// HighlightMs is how long a played hotspot stays highlighted
	HighlightMs = 350
)

//go:embed player.html.tmpl
var playerTemplate string

var (
	playerHTML = template.Must(template.New("player").Parse(playerTemplate))
	whitespace = regexp.MustCompile(`\s+`)
)

// FileName derives a download name from a project name: whitespace runs
// become underscores and the result is lower-cased
func FileName(name, ext string) string {
	return strings.ToLower(whitespace.ReplaceAllString(name, "_")) + ext
}

// JSON encodes a project as indented JSON for sharing
func JSON(p project.Project) ([]byte, error) {
	if p.Hotspots == nil {
		p.Hotspots = []project.Hotspot{}
	}
	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode project: %w", err)
	}
	return data, nil
}

type playerData struct {
	Project     project.Project
	SampleRate  int
	HighlightMs int
	Generator   string
}

// HTML writes a single self-contained player document for p
func HTML(w io.Writer, p project.Project) error {
	p = p.Clone()
	for i := range p.Hotspots {
		p.Hotspots[i].IsLoading = false
	}

	data := playerData{
		Project:     p,
		SampleRate:  audio.CanonicalSampleRate,
		HighlightMs: HighlightMs,
		Generator:   version.String(),
	}
	if err := playerHTML.Execute(w, data); err != nil {
		return fmt.Errorf("render player: %w", err)
	}
	return nil
}
