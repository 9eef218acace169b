// ABOUTME: Tests for editor subcommands
// ABOUTME: Drives the CLI against an in-memory store and a silent audio device
package main

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Sonicmapper/sonicmapper-go/internal/app"
	"github.com/Sonicmapper/sonicmapper-go/internal/config"
	"github.com/Sonicmapper/sonicmapper-go/internal/generate"
	"github.com/Sonicmapper/sonicmapper-go/internal/project"
	"github.com/Sonicmapper/sonicmapper-go/pkg/audio"
	"github.com/Sonicmapper/sonicmapper-go/pkg/audio/output"
)

type silentDevice struct{}

func (silentDevice) Open(ctx context.Context, format audio.Format) (output.Context, error) {
	return silentDevice{}, nil
}
func (silentDevice) Suspend() error { return nil }
func (silentDevice) Resume() error  { return nil }
func (silentDevice) Start(r io.Reader) (output.Voice, error) {
	_, _ = io.Copy(io.Discard, r)
	return silentVoice{}, nil
}

type silentVoice struct{}

func (silentVoice) IsPlaying() bool { return false }
func (silentVoice) Close() error    { return nil }

var pngBytes = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

// wav16 builds a 16-bit PCM WAV file
func wav16(rate, channels int, samples ...int16) []byte {
	var buf bytes.Buffer
	buf.WriteString("RIFF")
	binary.Write(&buf, binary.LittleEndian, uint32(36+len(samples)*2))
	buf.WriteString("WAVEfmt ")
	binary.Write(&buf, binary.LittleEndian, uint32(16))
	binary.Write(&buf, binary.LittleEndian, uint16(1))
	binary.Write(&buf, binary.LittleEndian, uint16(channels))
	binary.Write(&buf, binary.LittleEndian, uint32(rate))
	binary.Write(&buf, binary.LittleEndian, uint32(rate*channels*2))
	binary.Write(&buf, binary.LittleEndian, uint16(channels*2))
	binary.Write(&buf, binary.LittleEndian, uint16(16))
	buf.WriteString("data")
	binary.Write(&buf, binary.LittleEndian, uint32(len(samples)*2))
	binary.Write(&buf, binary.LittleEndian, samples)
	return buf.Bytes()
}

type harness struct {
	t   *testing.T
	cli *cli
	out *bytes.Buffer
	dir string
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	dir := t.TempDir()
	cfg := &config.Config{}
	cfg.Store.Dir = dir
	cfg.Store.Namespace = project.DefaultNamespace
	cfg.Gemini.Timeout = "1s"

	a, err := app.New(cfg, app.Options{Backend: silentDevice{}, KV: project.NewMemoryKV()})
	if err != nil {
		t.Fatalf("app.New failed: %v", err)
	}
	out := &bytes.Buffer{}
	return &harness{t: t, cli: &cli{app: a, out: out, quiet: true}, out: out, dir: dir}
}

func (h *harness) file(name string, data []byte) string {
	h.t.Helper()
	path := filepath.Join(h.dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		h.t.Fatalf("write %s: %v", name, err)
	}
	return path
}

// run executes a command and returns its trimmed output
func (h *harness) run(args ...string) (string, error) {
	h.out.Reset()
	err := h.cli.run(context.Background(), args)
	return strings.TrimSpace(h.out.String()), err
}

func (h *harness) mustRun(args ...string) string {
	h.t.Helper()
	out, err := h.run(args...)
	if err != nil {
		h.t.Fatalf("%v failed: %v", args, err)
	}
	return out
}

func TestEditWorkflow(t *testing.T) {
	h := newHarness(t)
	image := h.file("harp.png", pngBytes)

	id := h.mustRun("new", "-name", "Celtic Harp", "-image", image)
	spot := h.mustRun("add", "-label", "Low C", "-description", "a deep plucked string", id, "25", "75")

	note := h.file("pluck.wav", wav16(24000, 1, 0, 16384, -16384, 32767))
	h.mustRun("assign", id, "1", note)

	p, err := h.cli.app.Projects.Get(id)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if p.Name != "Celtic Harp" || len(p.Hotspots) != 1 {
		t.Fatalf("unexpected project %+v", p)
	}
	got := p.Hotspots[0]
	if got.ID != spot || got.Label != "Low C" || got.Description != "a deep plucked string" {
		t.Errorf("unexpected hotspot %+v", got)
	}
	if !got.Mapped() {
		t.Error("expected hotspot to have a note")
	}

	show := h.mustRun("show", id)
	for _, s := range []string{"Celtic Harp", "image/png", "Low C", "mapped"} {
		if !strings.Contains(show, s) {
			t.Errorf("expected show output to contain %q, got:\n%s", s, show)
		}
	}

	h.mustRun("play", id, spot)
	h.mustRun("rename", id, "Harp")
	h.mustRun("edit", "-label", "C3", id, spot)

	list := h.mustRun("list")
	if !strings.Contains(list, id) || !strings.Contains(list, "Harp") {
		t.Errorf("unexpected list output %q", list)
	}

	h.mustRun("remove", id, spot)
	p, _ = h.cli.app.Projects.Get(id)
	if len(p.Hotspots) != 0 {
		t.Errorf("expected hotspot removed, got %d", len(p.Hotspots))
	}

	h.mustRun("delete", id)
	if _, err := h.cli.app.Projects.Get(id); !errors.Is(err, project.ErrProjectNotFound) {
		t.Errorf("expected project deleted, got %v", err)
	}
}

func TestExportImport(t *testing.T) {
	h := newHarness(t)
	id := h.mustRun("new", "-name", "Kalimba", "-image", h.file("k.png", pngBytes))
	h.mustRun("add", id, "50", "50")

	jsonPath := filepath.Join(h.dir, "out.sonic.json")
	if out := h.mustRun("export", "-o", jsonPath, id); out != jsonPath {
		t.Errorf("expected export path printed, got %q", out)
	}

	html := h.mustRun("export", "-format", "html", "-o", "-", id)
	if !strings.Contains(html, "<!DOCTYPE html>") || !strings.Contains(html, "Kalimba") {
		t.Error("expected standalone player document")
	}

	_, err := h.run("import", jsonPath)
	if !errors.Is(err, project.ErrProjectExists) {
		t.Errorf("expected ErrProjectExists, got %v", err)
	}
	if out := h.mustRun("import", "-overwrite", jsonPath); out != id {
		t.Errorf("expected imported id %s, got %q", id, out)
	}
}

func TestFailedAssignLeavesProjectUnchanged(t *testing.T) {
	h := newHarness(t)
	id := h.mustRun("new", "-image", h.file("i.png", pngBytes))
	h.mustRun("add", id, "10", "10")

	bad := h.file("noise.wav", []byte("RIFF not really"))
	if _, err := h.run("assign", id, "1", bad); err == nil {
		t.Fatal("expected assign to fail")
	}

	p, _ := h.cli.app.Projects.Get(id)
	if p.Hotspots[0].Mapped() || p.Hotspots[0].Label != project.DefaultLabel {
		t.Errorf("expected hotspot untouched, got %+v", p.Hotspots[0])
	}
}

func TestGenerateWithoutAPIKey(t *testing.T) {
	h := newHarness(t)
	id := h.mustRun("new", "-image", h.file("i.png", pngBytes))
	h.mustRun("add", id, "10", "10")

	if _, err := h.run("generate", id, "1"); !errors.Is(err, generate.ErrUnavailable) {
		t.Errorf("expected ErrUnavailable, got %v", err)
	}
	if _, err := h.run("suggest", id); !errors.Is(err, generate.ErrUnavailable) {
		t.Errorf("expected ErrUnavailable, got %v", err)
	}
}

func TestToneCommand(t *testing.T) {
	h := newHarness(t)
	id := h.mustRun("new", "-image", h.file("i.png", pngBytes))
	h.mustRun("add", id, "10", "10")
	h.mustRun("add", id, "20", "10")

	h.mustRun("tone", "-duration", "250ms", id, "1", "A4")
	h.mustRun("tone", id, "2", "261.63")

	p, _ := h.cli.app.Projects.Get(id)
	if p.Hotspots[0].Label != "A4" || !p.Hotspots[0].Mapped() {
		t.Errorf("unexpected first hotspot %+v", p.Hotspots[0])
	}
	if !p.Hotspots[1].Mapped() {
		t.Error("expected second hotspot mapped")
	}

	if _, err := h.run("tone", id, "1", "H9"); !errors.Is(err, errUsage) {
		t.Errorf("expected errUsage for bad note, got %v", err)
	}
}

func TestUsageErrors(t *testing.T) {
	h := newHarness(t)

	tests := []struct {
		name string
		args []string
	}{
		{"no command", nil},
		{"unknown command", []string{"bogus"}},
		{"new without image", []string{"new"}},
		{"show without project", []string{"show"}},
		{"add with bad position", []string{"add", "p", "left", "top"}},
		{"export bad format", []string{"export", "-format", "mp3", "p"}},
		{"unknown flag", []string{"list", "-x"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := h.run(tt.args...)
			if !errors.Is(err, errUsage) {
				t.Errorf("expected errUsage, got %v", err)
			}
		})
	}
}

func TestResolveHotspot(t *testing.T) {
	p := project.Project{Hotspots: []project.Hotspot{{ID: "a"}, {ID: "b"}}}

	tests := []struct {
		ref     string
		want    string
		wantErr bool
	}{
		{"a", "a", false},
		{"2", "b", false},
		{"0", "", true},
		{"3", "", true},
		{"zz", "", true},
	}
	for _, tt := range tests {
		h, err := resolveHotspot(p, tt.ref)
		if tt.wantErr {
			if !errors.Is(err, project.ErrHotspotNotFound) {
				t.Errorf("%s: expected ErrHotspotNotFound, got %v", tt.ref, err)
			}
			continue
		}
		if err != nil || h.ID != tt.want {
			t.Errorf("%s: expected %s, got %s (%v)", tt.ref, tt.want, h.ID, err)
		}
	}
}
