package main

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/draw"
	"io"
	"net/http"
	"os"
	"time"

	"tailscale.com/tsweb"

	"github.com/banshee-data/squat.report/internal/config"
	"github.com/banshee-data/squat.report/internal/monitoring"
	"github.com/banshee-data/squat.report/internal/pose/landmarkio"
	"github.com/banshee-data/squat.report/internal/pose/monitor"
	"github.com/banshee-data/squat.report/internal/pose/overlay"
	"github.com/banshee-data/squat.report/internal/pose/pipeline"
	"github.com/banshee-data/squat.report/internal/pose/storage/sqlite"
	"github.com/banshee-data/squat.report/internal/timeutil"
)

// options is the resolved command line.
type options struct {
	Tuning      *config.TuningConfig
	Landmarks   string
	Frames      string
	Width       int
	Height      int
	OutDir      string
	DBPath      string
	PlotPath    string
	ChartPath   string
	AdminListen string
	FPS         float64
	Source      string

	// Clock drives pacing and timestamps; nil uses wall time.
	Clock timeutil.Clock
}

// storeSink records counted reps against one stored session.
type storeSink struct {
	store     *sqlite.SessionStore
	sessionID string
}

func (s *storeSink) RecordRep(ev pipeline.RepEvent) error {
	rep := &sqlite.Rep{
		SessionID:    s.sessionID,
		RepNumber:    ev.Rep,
		FrameIndex:   ev.FrameIndex,
		MinKneeDeg:   ev.MinKneeDeg,
		DepthReached: ev.DepthReached,
	}
	if ev.LabelReady {
		rep.Label = ev.Label.String()
	}
	return s.store.RecordRep(rep)
}

// blankCanvas returns an opaque canvas in the palette's blank colour.
func blankCanvas(w, h int) *image.RGBA {
	if w <= 0 || h <= 0 {
		w, h = overlay.DefaultWidth, overlay.DefaultHeight
	}
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), image.NewUniform(overlay.DefaultPalette().Blank), image.Point{}, draw.Src)
	return img
}

func openLandmarks(path string, stdin io.Reader) (io.ReadCloser, error) {
	if path == "-" {
		return io.NopCloser(stdin), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open landmark stream: %w", err)
	}
	return f, nil
}

// run replays the landmark stream through one session. Frames are processed
// strictly in order; an interrupt stops the replay but the session is still
// finished and summarised.
func run(ctx context.Context, o options, stdin io.Reader, stdout io.Writer) error {
	tuning := o.Tuning
	if tuning == nil {
		tuning = config.DefaultTuningConfig()
	}
	if err := tuning.Validate(); err != nil {
		return err
	}
	clock := o.Clock
	if clock == nil {
		clock = timeutil.RealClock{}
	}

	in, err := openLandmarks(o.Landmarks, stdin)
	if err != nil {
		return err
	}
	defer in.Close()

	var frames *landmarkio.FrameDir
	if o.Frames != "" {
		if frames, err = landmarkio.OpenFrameDir(o.Frames); err != nil {
			return err
		}
		monitoring.Logf("using %d source frames from %s", frames.Len(), o.Frames)
	}
	if o.OutDir != "" {
		if err := os.MkdirAll(o.OutDir, 0o755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	recorder := monitor.NewSeriesRecorder(tuning.GetKneeAngleDepth(), 0)

	var (
		db        *sqlite.DB
		store     *sqlite.SessionStore
		sessionID string
		sink      pipeline.RepSink
	)
	if o.DBPath != "" {
		if db, err = sqlite.Open(o.DBPath); err != nil {
			return err
		}
		defer db.Close()
		store = sqlite.NewSessionStore(db.DB, clock)
		src := o.Source
		if src == "" {
			src = o.Landmarks
		}
		if sessionID, err = store.StartSession(src, tuning); err != nil {
			return err
		}
		sink = &storeSink{store: store, sessionID: sessionID}
		monitoring.Logf("recording session %s to %s", sessionID, o.DBPath)
	}

	classifier, err := pipeline.NewClassifier(ctx, tuning)
	if err != nil {
		return err
	}
	sess, err := pipeline.NewSession(pipeline.SessionConfig{
		Tuning:     tuning,
		Classifier: classifier,
		RepSink:    sink,
		Observers:  []pipeline.FrameObserver{recorder},
		Clock:      clock,
	})
	if err != nil {
		if c, ok := classifier.(io.Closer); ok {
			c.Close()
		}
		return err
	}
	defer sess.Close()

	var server *http.Server
	if o.AdminListen != "" {
		server = startAdmin(o.AdminListen, db, recorder, sessionID)
	}

	blank := blankCanvas(o.Width, o.Height)
	pacer := timeutil.NewPacer(clock, o.FPS)
	defer pacer.Stop()

	reader := landmarkio.NewReader(in)
	interrupted := false
	for {
		if ctx.Err() != nil {
			interrupted = true
			break
		}
		frameNo, set, err := reader.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return err
		}

		frame := blank
		if frames != nil {
			src, err := frames.Frame(frameNo)
			if err != nil {
				monitoring.Logf("frame %d: %v; using blank canvas", frameNo, err)
			} else if src != nil {
				frame = src
			}
		}

		out, res := sess.ProcessFrame(frame, set)
		if o.OutDir != "" {
			if err := landmarkio.WriteFrame(landmarkio.FramePath(o.OutDir, res.Index), out); err != nil {
				return err
			}
		}

		if err := pacer.Wait(ctx); err != nil {
			interrupted = true
			break
		}
	}
	if interrupted {
		monitoring.Logf("interrupted; finishing session")
	}

	sum := sess.Summary()
	if store != nil {
		final := ""
		if sum.LabelReady {
			final = sum.LastLabel.String()
		}
		if err := store.FinishSession(sessionID, sqlite.SessionSummary{
			Frames:             sum.Frames,
			PersonFrames:       sum.PersonFrames,
			MissingJointFrames: sum.MissingJointFrames,
			Reps:               sum.Reps,
			DepthReachedReps:   sum.DepthReachedReps,
			ClassifierFailures: sum.ClassifierFailures,
			FinalLabel:         final,
		}); err != nil {
			return err
		}
	}

	if err := writeCharts(recorder, o.PlotPath, o.ChartPath); err != nil {
		return err
	}
	printSummary(stdout, sessionID, sum)

	if server != nil {
		if !interrupted {
			monitoring.Logf("replay finished; admin console still serving on %s until interrupted", o.AdminListen)
			<-ctx.Done()
		}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			monitoring.Logf("admin server shutdown error: %v", err)
		}
	}
	return nil
}

// startAdmin serves the debug console. The session database routes are only
// mounted when a database is open.
func startAdmin(addr string, db *sqlite.DB, recorder *monitor.SeriesRecorder, sessionID string) *http.Server {
	mux := http.NewServeMux()
	if db != nil {
		if err := db.AttachAdminRoutes(mux); err != nil {
			monitoring.Logf("failed to attach database admin routes: %v", err)
		}
	}
	debug := tsweb.Debugger(mux)
	debug.Handle("chart", "Form classification chart", recorder)
	if sessionID != "" {
		debug.KV("Session", sessionID)
	}

	server := &http.Server{Addr: addr, Handler: mux}
	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			monitoring.Logf("admin server failed: %v", err)
		}
	}()
	monitoring.Logf("admin console on http://%s/debug/", addr)
	return server
}

func writeCharts(recorder *monitor.SeriesRecorder, plotPath, chartPath string) error {
	if plotPath != "" {
		if err := recorder.WriteAnglePlot(plotPath); err != nil {
			if !errors.Is(err, monitor.ErrNoData) {
				return err
			}
			monitoring.Logf("no person frames; skipping %s", plotPath)
		}
	}
	if chartPath != "" {
		f, err := os.Create(chartPath)
		if err != nil {
			return fmt.Errorf("failed to create chart file: %w", err)
		}
		err = recorder.WriteProbabilityChart(f)
		if cerr := f.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			if !errors.Is(err, monitor.ErrNoData) {
				return err
			}
			monitoring.Logf("no person frames; %s is empty", chartPath)
		}
	}
	return nil
}

func printSummary(w io.Writer, sessionID string, sum pipeline.Summary) {
	if sessionID != "" {
		fmt.Fprintf(w, "session:             %s\n", sessionID)
	}
	fmt.Fprintf(w, "frames:              %d\n", sum.Frames)
	fmt.Fprintf(w, "person frames:       %d\n", sum.PersonFrames)
	fmt.Fprintf(w, "missing-joint:       %d\n", sum.MissingJointFrames)
	fmt.Fprintf(w, "reps:                %d\n", sum.Reps)
	fmt.Fprintf(w, "reps at depth:       %d\n", sum.DepthReachedReps)
	fmt.Fprintf(w, "classifier failures: %d\n", sum.ClassifierFailures)
	fmt.Fprintf(w, "final state:         %s\n", sum.State)
	if sum.LabelReady {
		fmt.Fprintf(w, "last label:          %s\n", sum.LastLabel)
	} else {
		fmt.Fprintf(w, "last label:          (warming up)\n")
	}
}
