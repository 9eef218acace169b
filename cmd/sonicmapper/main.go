// ABOUTME: Entry point for the SonicMapper instrument editor
// ABOUTME: Subcommands create, edit, import and export hotspot projects
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Sonicmapper/sonicmapper-go/internal/app"
	"github.com/Sonicmapper/sonicmapper-go/internal/config"
	"github.com/Sonicmapper/sonicmapper-go/internal/version"
)

var (
	configPath = flag.String("config", "sonicmapper.yaml", "Config file path")
	logFile    = flag.String("log-file", "", "Log file path (overrides config)")
	verbose    = flag.Bool("v", false, "Also stream logs to stderr")
	quiet      = flag.Bool("quiet", false, "Do not preview notes after assigning or generating them")
)

func main() {
	flag.Usage = usage
	flag.Parse()

	if flag.NArg() == 0 {
		usage()
		os.Exit(2)
	}
	if flag.Arg(0) == "version" {
		fmt.Println(version.String())
		return
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if *logFile != "" {
		cfg.Log.File = *logFile
	}

	f, err := os.OpenFile(cfg.Log.File, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0666)
	if err != nil {
		log.Fatalf("error opening log file: %v", err)
	}
	defer func() { _ = f.Close() }()

	var logOut io.Writer = f
	if *verbose {
		logOut = io.MultiWriter(os.Stderr, f)
	}
	logger := cfg.Log.NewLogger(logOut)

	a, err := app.New(cfg, app.Options{Logger: logger})
	if err != nil {
		log.Fatalf("Failed to start: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	c := &cli{app: a, out: os.Stdout, quiet: *quiet}
	runErr := c.run(ctx, flag.Args())

	// Let previews finish before exiting
	waitCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	_ = a.Close(waitCtx)

	if runErr != nil {
		logger.Error("Command failed", "command", flag.Arg(0), "error", runErr)
		fmt.Fprintf(os.Stderr, "sonicmapper %s: %v\n", flag.Arg(0), runErr)
		if errors.Is(runErr, errUsage) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintf(os.Stderr, `Usage: sonicmapper [flags] <command> [args]

Commands:
  new -image <file|url> [-name N]          create a project
  list                                     list saved projects
  show <project>                           show a project's hotspots
  rename <project> <name>                  rename a project
  image <project> <file|url>               replace the instrument image
  suggest <project>                        ask which parts can be played
  add [-label L] [-description D] <project> <x> <y>
                                           add a hotspot at x, y percent
  edit [-label L] [-description D] <project> <hotspot>
  remove <project> <hotspot>               remove a hotspot
  assign <project> <hotspot> <file|url>    encode an audio file as the note
  generate <project> <hotspot>             generate the note with Gemini
  tone [-duration D] [-amplitude A] <project> <hotspot> <note|Hz>
                                           assign a sine tone such as A4 or 440
  play <project> <hotspot>                 play a hotspot's note
  delete <project>                         delete a project
  export [-format json|html] [-o path] <project>
  import [-overwrite] <file>               import an exported project
  cache-clear                              remove downloaded files
  version                                  print the version

Hotspots may be given by id or by 1-based position.

Flags:
`)
	flag.PrintDefaults()
}
