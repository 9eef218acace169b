// ABOUTME: Tests for project export
// ABOUTME: Checks file names, JSON round trips and the standalone player document
package export

import (
	"bytes"
	"regexp"
	"strings"
	"testing"

	"github.com/Sonicmapper/sonicmapper-go/internal/project"
)

func exportProject() project.Project {
	return project.Project{
		ID:    "harp-1",
		Name:  "Celtic Harp </script>",
		Image: project.DataURL("image/png", []byte("\x89PNG\r\n\x1a\n")),
		Hotspots: []project.Hotspot{
			{ID: "h1", X: 12.5, Y: 40, Label: "C4", Description: "middle C", AudioData: "AAAAAA==", IsLoading: true},
		},
		CreatedAt: 1700000000000,
	}
}

func TestFileName(t *testing.T) {
	tests := []struct {
		name     string
		ext      string
		expected string
	}{
		{"Celtic Harp", JSONExt, "celtic_harp.sonic.json"},
		{"My  Big\tDrum", HTMLExt, "my_big_drum.html"},
		{"Kalimba", HTMLExt, "kalimba.html"},
		{" padded ", JSONExt, "_padded_.sonic.json"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FileName(tt.name, tt.ext); got != tt.expected {
				t.Errorf("expected %q, got %q", tt.expected, got)
			}
		})
	}
}

func TestJSONRoundTrip(t *testing.T) {
	p := exportProject()
	p.Hotspots[0].IsLoading = false

	data, err := JSON(p)
	if err != nil {
		t.Fatalf("export failed: %v", err)
	}
	if !bytes.Contains(data, []byte("\n  \"id\": \"harp-1\"")) {
		t.Errorf("expected indented JSON, got %s", data)
	}

	parsed, err := project.ParseJSON(data)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if parsed.Name != p.Name || parsed.Hotspots[0].AudioData != p.Hotspots[0].AudioData {
		t.Errorf("round trip mismatch: %+v", parsed)
	}
}

func TestJSONEmptyHotspots(t *testing.T) {
	data, err := JSON(project.Project{ID: "p", Name: "n", Image: "data:image/png;base64,AA=="})
	if err != nil {
		t.Fatalf("export failed: %v", err)
	}
	if !bytes.Contains(data, []byte(`"hotspots": []`)) {
		t.Errorf("expected empty hotspot array, got %s", data)
	}
}

func TestHTML(t *testing.T) {
	var buf bytes.Buffer
	if err := HTML(&buf, exportProject()); err != nil {
		t.Fatalf("render failed: %v", err)
	}
	out := buf.String()

	mustContain := []string{
		"<!DOCTYPE html>",
		`"audioData":"AAAAAA=="`,
		`"x":12.5`,
		"getInt16(i * 2, true) / 32768",
		"atob(encoded)",
		"binary.length % 2 !== 0",
		"audioCtx.state === 'suspended'",
		"Celtic Harp &lt;/script&gt;",
	}
	for _, s := range mustContain {
		if !strings.Contains(out, s) {
			t.Errorf("expected output to contain %q", s)
		}
	}

	for _, re := range []*regexp.Regexp{
		regexp.MustCompile(`const SAMPLE_RATE =\s*24000\s*;`),
		regexp.MustCompile(`const HIGHLIGHT_MS =\s*350\s*;`),
	} {
		if !re.MatchString(out) {
			t.Errorf("expected output to match %s", re)
		}
	}

	// The project name must not close the script element early
	if strings.Count(out, "</script>") != 1 {
		t.Errorf("expected a single closing script tag, found %d", strings.Count(out, "</script>"))
	}
	if strings.Contains(out, `"isLoading"`) {
		t.Error("expected transient loading flag dropped from export")
	}
	for _, external := range []string{"https://", "http://", "<link"} {
		if strings.Contains(out, external) {
			t.Errorf("expected no external assets, found %q", external)
		}
	}
}
