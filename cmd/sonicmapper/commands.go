// ABOUTME: Editor subcommand implementations
// ABOUTME: Each command loads a project, edits it and saves it back explicitly
package main

import (
	"bytes"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/Sonicmapper/sonicmapper-go/internal/app"
	"github.com/Sonicmapper/sonicmapper-go/internal/export"
	"github.com/Sonicmapper/sonicmapper-go/internal/project"
	"github.com/Sonicmapper/sonicmapper-go/internal/tone"
)

var errUsage = errors.New("invalid usage")

type cli struct {
	app   *app.App
	out   io.Writer
	quiet bool
}

type command func(ctx context.Context, args []string) error

func (c *cli) commands() map[string]command {
	return map[string]command{
		"new":         c.cmdNew,
		"list":        c.cmdList,
		"show":        c.cmdShow,
		"rename":      c.cmdRename,
		"image":       c.cmdImage,
		"suggest":     c.cmdSuggest,
		"add":         c.cmdAdd,
		"edit":        c.cmdEdit,
		"remove":      c.cmdRemove,
		"assign":      c.cmdAssign,
		"generate":    c.cmdGenerate,
		"tone":        c.cmdTone,
		"play":        c.cmdPlay,
		"delete":      c.cmdDelete,
		"export":      c.cmdExport,
		"import":      c.cmdImport,
		"cache-clear": c.cmdCacheClear,
	}
}

func (c *cli) run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("%w: missing command", errUsage)
	}
	cmd, ok := c.commands()[args[0]]
	if !ok {
		return fmt.Errorf("%w: unknown command %q", errUsage, args[0])
	}
	return cmd(ctx, args[1:])
}

func (c *cli) editor(p project.Project) *project.Editor {
	if c.quiet {
		return project.NewEditor(p, project.EditorConfig{
			Codec:  c.app.Codec,
			Notes:  c.app.Gemini,
			Vision: c.app.Gemini,
			Logger: c.app.Logger,
		})
	}
	return c.app.Editor(p)
}

// edit loads a project, applies fn through an editor and saves the result.
// Nothing is written when fn fails.
func (c *cli) edit(id string, fn func(ed *project.Editor) error) (project.Project, error) {
	p, err := c.app.Projects.Get(id)
	if err != nil {
		return project.Project{}, err
	}
	ed := c.editor(*p)
	if err := fn(ed); err != nil {
		return project.Project{}, err
	}
	updated := ed.Project()
	if err := c.app.Projects.Save(updated); err != nil {
		return project.Project{}, err
	}
	return updated, nil
}

func newFlags(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	return fs
}

func parse(fs *flag.FlagSet, args []string, positional int) ([]string, error) {
	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("%w: %v", errUsage, err)
	}
	if fs.NArg() != positional {
		return nil, fmt.Errorf("%w: %s expects %d argument(s), got %d", errUsage, fs.Name(), positional, fs.NArg())
	}
	return fs.Args(), nil
}

// resolveHotspot accepts a hotspot id or a 1-based position
func resolveHotspot(p project.Project, ref string) (project.Hotspot, error) {
	if h, ok := p.Hotspot(ref); ok {
		return h, nil
	}
	if n, err := strconv.Atoi(ref); err == nil && n >= 1 && n <= len(p.Hotspots) {
		return p.Hotspots[n-1], nil
	}
	return project.Hotspot{}, fmt.Errorf("%w: %s", project.ErrHotspotNotFound, ref)
}

func (c *cli) hotspotID(projectID, ref string) (string, error) {
	p, err := c.app.Projects.Get(projectID)
	if err != nil {
		return "", err
	}
	h, err := resolveHotspot(*p, ref)
	if err != nil {
		return "", err
	}
	return h.ID, nil
}

func (c *cli) cmdNew(ctx context.Context, args []string) error {
	fs := newFlags("new")
	name := fs.String("name", project.DefaultName, "Instrument name")
	image := fs.String("image", "", "Instrument image file or URL")
	if _, err := parse(fs, args, 0); err != nil {
		return err
	}
	if *image == "" {
		return fmt.Errorf("%w: new requires -image", errUsage)
	}

	src, err := c.app.Fetcher.Load(ctx, *image)
	if err != nil {
		return err
	}

	ed := c.editor(project.NewProject(""))
	if err := ed.SetName(*name); err != nil {
		return err
	}
	if err := ed.SetImage(src.Data, src.ContentType); err != nil {
		return err
	}

	p := ed.Project()
	if err := c.app.Projects.Save(p); err != nil {
		return err
	}
	fmt.Fprintln(c.out, p.ID)
	return nil
}

func (c *cli) cmdList(ctx context.Context, args []string) error {
	if _, err := parse(newFlags("list"), args, 0); err != nil {
		return err
	}
	projects, err := c.app.Projects.List()
	if err != nil {
		return err
	}
	for _, p := range projects {
		fmt.Fprintf(c.out, "%s  %-24s %d hotspot(s)\n", p.ID, p.Name, len(p.Hotspots))
	}
	return nil
}

func (c *cli) cmdShow(ctx context.Context, args []string) error {
	pos, err := parse(newFlags("show"), args, 1)
	if err != nil {
		return err
	}
	p, err := c.app.Projects.Get(pos[0])
	if err != nil {
		return err
	}

	mime, image, err := project.ParseDataURL(p.Image)
	if err != nil {
		mime = "invalid image"
	}
	fmt.Fprintf(c.out, "%s (%s)\nimage: %s, %d bytes\n", p.Name, p.ID, mime, len(image))
	for i, h := range p.Hotspots {
		note := "no note"
		if h.Mapped() {
			note = "mapped"
		}
		fmt.Fprintf(c.out, "%3d  %s  (%5.1f%%, %5.1f%%)  %-16s %-8s %s\n", i+1, h.ID, h.X, h.Y, h.Label, note, h.Description)
	}
	return nil
}

func (c *cli) cmdRename(ctx context.Context, args []string) error {
	pos, err := parse(newFlags("rename"), args, 2)
	if err != nil {
		return err
	}
	_, err = c.edit(pos[0], func(ed *project.Editor) error {
		return ed.SetName(pos[1])
	})
	return err
}

func (c *cli) cmdImage(ctx context.Context, args []string) error {
	pos, err := parse(newFlags("image"), args, 2)
	if err != nil {
		return err
	}
	src, err := c.app.Fetcher.Load(ctx, pos[1])
	if err != nil {
		return err
	}
	_, err = c.edit(pos[0], func(ed *project.Editor) error {
		return ed.SetImage(src.Data, src.ContentType)
	})
	return err
}

func (c *cli) cmdSuggest(ctx context.Context, args []string) error {
	pos, err := parse(newFlags("suggest"), args, 1)
	if err != nil {
		return err
	}
	p, err := c.app.Projects.Get(pos[0])
	if err != nil {
		return err
	}
	text, err := c.editor(*p).SuggestHotspots(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintln(c.out, text)
	return nil
}

func (c *cli) cmdAdd(ctx context.Context, args []string) error {
	fs := newFlags("add")
	label := fs.String("label", "", "Hotspot label")
	description := fs.String("description", "", "Sound description used for generation")
	pos, err := parse(fs, args, 3)
	if err != nil {
		return err
	}
	x, errX := strconv.ParseFloat(pos[1], 64)
	y, errY := strconv.ParseFloat(pos[2], 64)
	if errX != nil || errY != nil {
		return fmt.Errorf("%w: position must be numeric", errUsage)
	}

	var added project.Hotspot
	_, err = c.edit(pos[0], func(ed *project.Editor) error {
		h, err := ed.AddHotspot(x, y)
		if err != nil {
			return err
		}
		added = h
		if *label == "" && *description == "" {
			return nil
		}
		if *label != "" {
			h.Label = *label
		}
		if *description != "" {
			h.Description = *description
		}
		return ed.UpdateHotspot(h.ID, h.Label, h.Description)
	})
	if err != nil {
		return err
	}
	fmt.Fprintln(c.out, added.ID)
	return nil
}

func (c *cli) cmdEdit(ctx context.Context, args []string) error {
	fs := newFlags("edit")
	label := fs.String("label", "", "Hotspot label")
	description := fs.String("description", "", "Sound description used for generation")
	pos, err := parse(fs, args, 2)
	if err != nil {
		return err
	}

	p, err := c.app.Projects.Get(pos[0])
	if err != nil {
		return err
	}
	h, err := resolveHotspot(*p, pos[1])
	if err != nil {
		return err
	}
	if *label != "" {
		h.Label = *label
	}
	if *description != "" {
		h.Description = *description
	}

	_, err = c.edit(pos[0], func(ed *project.Editor) error {
		return ed.UpdateHotspot(h.ID, h.Label, h.Description)
	})
	return err
}

func (c *cli) cmdRemove(ctx context.Context, args []string) error {
	pos, err := parse(newFlags("remove"), args, 2)
	if err != nil {
		return err
	}
	id, err := c.hotspotID(pos[0], pos[1])
	if err != nil {
		return err
	}
	_, err = c.edit(pos[0], func(ed *project.Editor) error {
		return ed.RemoveHotspot(id)
	})
	return err
}

func (c *cli) cmdAssign(ctx context.Context, args []string) error {
	pos, err := parse(newFlags("assign"), args, 3)
	if err != nil {
		return err
	}
	id, err := c.hotspotID(pos[0], pos[1])
	if err != nil {
		return err
	}
	src, err := c.app.Fetcher.Load(ctx, pos[2])
	if err != nil {
		return err
	}
	_, err = c.edit(pos[0], func(ed *project.Editor) error {
		return ed.AssignAudio(ctx, id, src.Data, src.Name)
	})
	return err
}

func (c *cli) cmdGenerate(ctx context.Context, args []string) error {
	pos, err := parse(newFlags("generate"), args, 2)
	if err != nil {
		return err
	}
	id, err := c.hotspotID(pos[0], pos[1])
	if err != nil {
		return err
	}
	_, err = c.edit(pos[0], func(ed *project.Editor) error {
		return ed.GenerateSound(ctx, id)
	})
	return err
}

// cmdTone assigns a sine tone, given as a note name or a frequency in Hz
func (c *cli) cmdTone(ctx context.Context, args []string) error {
	fs := newFlags("tone")
	duration := fs.Duration("duration", tone.DefaultDuration, "Note length (at most 1m)")
	amplitude := fs.Float64("amplitude", tone.DefaultAmplitude, "Peak amplitude (0-1)")
	pos, err := parse(fs, args, 3)
	if err != nil {
		return err
	}

	freq, err := strconv.ParseFloat(pos[2], 64)
	if err != nil {
		if freq, err = tone.NoteFrequency(pos[2]); err != nil {
			return fmt.Errorf("%w: %v", errUsage, err)
		}
	}

	buf, err := tone.Generate(tone.Config{Frequency: freq, Duration: *duration, Amplitude: *amplitude})
	if err != nil {
		return err
	}

	id, err := c.hotspotID(pos[0], pos[1])
	if err != nil {
		return err
	}
	_, err = c.edit(pos[0], func(ed *project.Editor) error {
		return ed.AssignBuffer(id, buf, pos[2])
	})
	return err
}

func (c *cli) cmdPlay(ctx context.Context, args []string) error {
	pos, err := parse(newFlags("play"), args, 2)
	if err != nil {
		return err
	}
	p, err := c.app.Projects.Get(pos[0])
	if err != nil {
		return err
	}
	h, err := resolveHotspot(*p, pos[1])
	if err != nil {
		return err
	}
	if !h.Mapped() {
		return fmt.Errorf("%s has no note yet", h.Label)
	}
	if err := c.app.Engine.PlayContext(ctx, h.AudioData); err != nil {
		return err
	}
	return c.app.Engine.Wait(ctx)
}

func (c *cli) cmdDelete(ctx context.Context, args []string) error {
	pos, err := parse(newFlags("delete"), args, 1)
	if err != nil {
		return err
	}
	return c.app.Projects.Delete(pos[0])
}

func (c *cli) cmdExport(ctx context.Context, args []string) error {
	fs := newFlags("export")
	format := fs.String("format", "json", "Export format: json or html")
	outPath := fs.String("o", "", "Output path (default derived from the project name, - for stdout)")
	pos, err := parse(fs, args, 1)
	if err != nil {
		return err
	}
	kind := strings.ToLower(*format)
	if kind != "json" && kind != "html" {
		return fmt.Errorf("%w: unknown format %q", errUsage, *format)
	}
	p, err := c.app.Projects.Get(pos[0])
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	ext := export.JSONExt
	if kind == "html" {
		ext = export.HTMLExt
		err = export.HTML(&buf, *p)
	} else {
		var data []byte
		data, err = export.JSON(*p)
		buf.Write(data)
	}
	if err != nil {
		return err
	}

	if *outPath == "-" {
		_, err := buf.WriteTo(c.out)
		return err
	}
	path := *outPath
	if path == "" {
		path = export.FileName(p.Name, ext)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("writing export: %w", err)
	}
	fmt.Fprintln(c.out, path)
	return nil
}

func (c *cli) cmdImport(ctx context.Context, args []string) error {
	fs := newFlags("import")
	overwrite := fs.Bool("overwrite", false, "Replace a saved project with the same id")
	pos, err := parse(fs, args, 1)
	if err != nil {
		return err
	}
	src, err := c.app.Fetcher.Load(ctx, pos[0])
	if err != nil {
		return err
	}
	p, err := project.ParseJSON(src.Data)
	if err != nil {
		return err
	}
	if err := c.app.Projects.Import(*p, *overwrite); err != nil {
		return err
	}
	fmt.Fprintln(c.out, p.ID)
	return nil
}

func (c *cli) cmdCacheClear(ctx context.Context, args []string) error {
	if _, err := parse(newFlags("cache-clear"), args, 0); err != nil {
		return err
	}
	return c.app.Fetcher.Cleanup()
}
