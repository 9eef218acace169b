// ABOUTME: Entry point for the SonicMapper hotspot player
// ABOUTME: Loads a project and plays its notes from a TUI or the command line
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/Sonicmapper/sonicmapper-go/internal/app"
	"github.com/Sonicmapper/sonicmapper-go/internal/config"
	"github.com/Sonicmapper/sonicmapper-go/internal/project"
	"github.com/Sonicmapper/sonicmapper-go/internal/ui"
	"github.com/Sonicmapper/sonicmapper-go/internal/version"
	tea "github.com/charmbracelet/bubbletea"
)

var (
	configPath  = flag.String("config", "sonicmapper.yaml", "Config file path")
	projectRef  = flag.String("project", "", "Project id, or path to an exported .sonic.json file")
	volume      = flag.Int("volume", 100, "Initial volume (0-100)")
	logFile     = flag.String("log-file", "", "Log file path (overrides config)")
	metricsAddr = flag.String("metrics-addr", "", "Serve Prometheus metrics on this address (overrides config)")
	noTUI       = flag.Bool("no-tui", false, "Disable TUI, read hotspot numbers from stdin instead")
	streamLogs  = flag.Bool("stream-logs", false, "Alias for -no-tui")
	showVersion = flag.Bool("version", false, "Print version and exit")
)

func main() {
	flag.Parse()

	if *showVersion {
		fmt.Println(version.String())
		return
	}

	useTUI := !(*noTUI || *streamLogs)

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if *logFile != "" {
		cfg.Log.File = *logFile
	}
	if *metricsAddr != "" {
		cfg.Metrics.Addr = *metricsAddr
	}

	f, err := os.OpenFile(cfg.Log.File, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0666)
	if err != nil {
		log.Fatalf("error opening log file: %v", err)
	}
	defer func() { _ = f.Close() }()

	// TUI mode logs only to file; line mode streams to stdout as well
	var logOut io.Writer = f
	if !useTUI {
		logOut = io.MultiWriter(os.Stdout, f)
	}
	logger := cfg.Log.NewLogger(logOut)

	var tuiProg *tea.Program
	a, err := app.New(cfg, app.Options{
		Logger: logger,
		OnError: func(err error) {
			if tuiProg != nil {
				tuiProg.Send(ui.ErrorMsg{Err: err})
			}
		},
	})
	if err != nil {
		logger.Error("Failed to start", "error", err)
		os.Exit(1)
	}

	p, err := loadProject(a, *projectRef)
	if err != nil {
		logger.Error("Failed to load project", "error", err)
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	a.Engine.SetVolume(*volume)
	logger.Info("Starting SonicMapper player", "version", version.Version, "project", p.Name, "hotspots", len(p.Hotspots))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := a.ServeMetrics(ctx, cfg.Metrics.Addr); err != nil {
			logger.Error("Metrics endpoint failed", "error", err)
		}
	}()

	if useTUI {
		tuiProg = ui.Run(*p, a.Engine, *volume)
		go func() {
			<-ctx.Done()
			tuiProg.Quit()
		}()
		if _, err := tuiProg.Run(); err != nil {
			logger.Error("TUI failed", "error", err)
		}
	} else {
		runLines(ctx, a, *p, os.Stdin, os.Stdout)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	_ = a.Close(shutdownCtx)

	logger.Info("Player stopped")
}

// loadProject resolves ref as an exported file path or a stored project id
func loadProject(a *app.App, ref string) (*project.Project, error) {
	if ref == "" {
		projects, err := a.Projects.List()
		if err != nil {
			return nil, err
		}
		var b strings.Builder
		b.WriteString("no project given; use -project with one of:")
		for _, p := range projects {
			fmt.Fprintf(&b, "\n  %s  %s", p.ID, p.Name)
		}
		if len(projects) == 0 {
			b.WriteString("\n  (no saved projects)")
		}
		return nil, errors.New(b.String())
	}

	if strings.HasSuffix(ref, ".json") {
		data, err := os.ReadFile(ref)
		if err != nil {
			return nil, fmt.Errorf("reading project file: %w", err)
		}
		return project.ParseJSON(data)
	}

	return a.Projects.Get(ref)
}

// runLines plays hotspots by number read from in until EOF, "q" or ctx ends
func runLines(ctx context.Context, a *app.App, p project.Project, in io.Reader, out io.Writer) {
	printHotspots(out, p)

	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()

	for {
		fmt.Fprint(out, "> ")
		select {
		case <-ctx.Done():
			return
		case line, ok := <-lines:
			if !ok {
				return
			}
			if quit := handleLine(a, p, strings.TrimSpace(line), out); quit {
				return
			}
		}
	}
}

func handleLine(a *app.App, p project.Project, line string, out io.Writer) bool {
	switch line {
	case "":
		return false
	case "q", "quit":
		return true
	case "l", "list":
		printHotspots(out, p)
		return false
	}

	n, err := strconv.Atoi(line)
	if err != nil || n < 1 || n > len(p.Hotspots) {
		fmt.Fprintf(out, "enter a hotspot number 1-%d, l to list, q to quit\n", len(p.Hotspots))
		return false
	}

	h := p.Hotspots[n-1]
	if !h.Mapped() {
		fmt.Fprintf(out, "%s has no note yet\n", h.Label)
		return false
	}
	fmt.Fprintf(out, "♪ %s\n", h.Label)
	a.Engine.Play(h.AudioData)
	return false
}

func printHotspots(out io.Writer, p project.Project) {
	fmt.Fprintf(out, "%s\n", p.Name)
	for i, h := range p.Hotspots {
		mark := "♪"
		if !h.Mapped() {
			mark = "–"
		}
		fmt.Fprintf(out, "%3d %s %s (%.0f%%, %.0f%%)\n", i+1, mark, h.Label, h.X, h.Y)
	}
}
