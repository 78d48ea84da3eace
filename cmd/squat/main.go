// Command squat replays a recorded landmark stream through the squat
// analysis pipeline, writes annotated frames, and records the session.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/banshee-data/squat.report/internal/config"
	"github.com/banshee-data/squat.report/internal/monitoring"
	"github.com/banshee-data/squat.report/internal/pose/classify"
	"github.com/banshee-data/squat.report/internal/pose/pipeline"
	"github.com/banshee-data/squat.report/internal/version"
)

var (
	configPath    = flag.String("config", "", "Path to tuning config JSON (built-in defaults when empty)")
	landmarksPath = flag.String("landmarks", "", "Landmark stream as JSON Lines, or - for stdin")
	framesDir     = flag.String("frames", "", "Directory of source frames (blank canvases when empty)")
	width         = flag.Int("width", 640, "Canvas width when no frames directory is given")
	height        = flag.Int("height", 480, "Canvas height when no frames directory is given")
	outDir        = flag.String("out", "", "Directory for annotated PNG frames (optional)")
	dbPath        = flag.String("db", "", "SQLite database for session history (optional)")
	plotPath      = flag.String("plot", "", "Write knee-angle plot to this path (png/svg/pdf)")
	chartPath     = flag.String("chart", "", "Write probability chart HTML to this path")
	adminListen   = flag.String("admin-listen", "", "Serve debug routes on this address while running, e.g. localhost:8081")
	fps           = flag.Float64("fps", 0, "Pace playback at this frame rate (0 runs as fast as possible)")
	source        = flag.String("source", "", "Source label stored with the session (defaults to the landmarks path)")
	verbose       = flag.Bool("v", false, "Enable diagnostic logging")
	trace         = flag.Bool("trace", false, "Enable per-frame trace logging")
	showVersion   = flag.Bool("version", false, "Print version and exit")
)

func main() {
	flag.Parse()

	if *showVersion {
		fmt.Println(version.String())
		return
	}
	if *landmarksPath == "" {
		log.Fatal("-landmarks is required")
	}

	monitoring.SetLogWriter("[squat] ", os.Stderr)
	diag, tr := streamIf(*verbose), streamIf(*trace)
	pipeline.SetLogWriters(os.Stderr, diag, tr)
	classify.SetLogWriters(os.Stderr, diag, tr)

	tuning := config.DefaultTuningConfig()
	if *configPath != "" {
		var err error
		tuning, err = config.LoadTuningConfig(*configPath)
		if err != nil {
			log.Fatalf("failed to load tuning config: %v", err)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	opts := options{
		Tuning:      tuning,
		Landmarks:   *landmarksPath,
		Frames:      *framesDir,
		Width:       *width,
		Height:      *height,
		OutDir:      *outDir,
		DBPath:      *dbPath,
		PlotPath:    *plotPath,
		ChartPath:   *chartPath,
		AdminListen: *adminListen,
		FPS:         *fps,
		Source:      *source,
	}
	if err := run(ctx, opts, os.Stdin, os.Stdout); err != nil {
		log.Fatalf("squat: %v", err)
	}
}

// streamIf returns stderr when enabled and a nil writer (muted) otherwise.
func streamIf(enabled bool) io.Writer {
	if enabled {
		return os.Stderr
	}
	return nil
}
