// Package sim is the command-line harness shared by the simulation
// programs: profiling and tracing flags, an output file fed by a buffered
// writer goroutine, and a structured logger.
package sim

import (
	"bufio"
	"context"
	"encoding/binary"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"math"
	"os"
	"os/signal"
	"runtime"
	"runtime/pprof"
	"runtime/trace"
)

var (
	app = &App{}
)

// Main parses the command line and runs f with the application. It exits
// the program on error.
func Main(f func(ctx context.Context, app *App) error) {
	flag.Parse()

	err := app.run(f)
	if err != nil {
		log.Fatalf("error: %v\n", err)
	}
}

// Record is one binary record of the output file.
type Record struct {
	ID   int64
	Data []byte
}

type App struct {
	nprocs  int // number of concurrent goroutines
	fname   string
	verbose bool

	fprof  string
	ftrace string

	logger *slog.Logger
	resc   chan Record
}

func (app *App) run(f func(ctx context.Context, app *App) error) error {
	if app.fprof != "" {
		fprof, err := os.Create(app.fprof)
		if err != nil {
			return fmt.Errorf("error creating pprof output file [%s]: %w", app.fprof, err)
		}
		defer fprof.Close()
		err = pprof.StartCPUProfile(fprof)
		if err != nil {
			return fmt.Errorf("error starting CPU profile: %w", err)
		}
		defer pprof.StopCPUProfile()
	}

	if app.ftrace != "" {
		ftrace, err := os.Create(app.ftrace)
		if err != nil {
			return fmt.Errorf("error creating trace output file: %w", err)
		}
		defer ftrace.Close()
		err = trace.Start(ftrace)
		if err != nil {
			return fmt.Errorf("error starting tracer: %w", err)
		}
		defer trace.Stop()
	}

	level := slog.LevelInfo
	if app.verbose {
		level = slog.LevelDebug
	}
	app.logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	fout, err := os.Create(app.fname)
	if err != nil {
		return fmt.Errorf("error creating output file [%s]: %w", app.fname, err)
	}
	defer fout.Close()

	app.resc = make(chan Record, app.NumProcs())
	done := make(chan error, 1)
	go func() {
		done <- app.write(fout)
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	err = f(ctx, app)
	close(app.resc)
	werr := <-done
	if err != nil {
		return err
	}
	if werr != nil {
		return werr
	}

	err = fout.Close()
	if err != nil {
		return fmt.Errorf("error closing output file [%s]: %w", app.fname, err)
	}
	return nil
}

// Results returns the channel feeding the output file.
func (app *App) Results() chan<- Record {
	return app.resc
}

// NumProcs returns the number of concurrent goroutines requested on the
// command line.
func (app *App) NumProcs() int {
	if app.nprocs <= 0 {
		return runtime.NumCPU()
	}
	return app.nprocs
}

// Logger returns the application logger, writing to stderr.
func (app *App) Logger() *slog.Logger {
	return app.logger
}

func init() {
	flag.IntVar(&app.nprocs, "nprocs", 0, "number of concurrent goroutines (0: one per CPU)")
	flag.StringVar(&app.fname, "o", "iss.out", "path to output file to store results")
	flag.BoolVar(&app.verbose, "v", false, "enable debug logging")
	flag.StringVar(&app.fprof, "cpu-profile", "", "enable CPU profiling")
	flag.StringVar(&app.ftrace, "ftrace", "", "enable tracing")
}

// write drains the results into f. It keeps draining after a failure so
// that producers never block, and reports the first error.
func (app *App) write(f io.Writer) error {
	w := bufio.NewWriter(f)
	var err error
	for res := range app.resc {
		if err != nil {
			continue
		}
		_, err = w.Write(res.Data)
		if err != nil {
			err = fmt.Errorf("error writing result-id=%d: %w", res.ID, err)
		}
	}
	if err != nil {
		return err
	}
	return w.Flush()
}

// Float64s encodes vs as consecutive little-endian float64 values.
func Float64s(vs ...float64) []byte {
	buf := make([]byte, 8*len(vs))
	for i, v := range vs {
		binary.LittleEndian.PutUint64(buf[i*8:(i+1)*8], math.Float64bits(v))
	}
	return buf
}
