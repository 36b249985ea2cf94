package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"sync/atomic"

	"github.com/dustin/go-humanize"
	"github.com/rs/zerolog"

	"github.com/petems/go-s3etag/etag"
)

// Exit codes
const (
	Success = iota
	FileFailed
	CmdLineOptionError
	ConfigFailed
	ChecksumMismatch
)

// exitError carries an exit code out of the cobra command. A nil err means
// the failure has already been reported.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string {
	if e.err == nil {
		return fmt.Sprintf("exit status %d", e.code)
	}
	return e.err.Error()
}

func (e *exitError) Unwrap() error {
	return e.err
}

// signature of an ETag computation for one file
type computer func(ctx context.Context, fname string) (etag.Value, error)

// stdinName is the FILE argument naming standard input.
const stdinName = "-"

var errStdinReused = errors.New("standard input can only be read once")

// computeGen returns the computer used for every file of a run. Plans that S3
// would refuse are computed anyway, with a warning. The "-" file is hashed as
// a stream from stdin.
func computeGen(opts *options, digester etag.Digester, stdin io.Reader, logger zerolog.Logger) computer {
	policy := opts.policy()
	composeOpts := []etag.ComposeOption{
		etag.WithDigester(digester),
		etag.WithPartWorkers(opts.PartWorkers),
	}
	var stdinUsed atomic.Bool

	warnLimits := func(fname string, plan etag.Plan) {
		for _, w := range etag.CheckLimits(plan) {
			logger.Warn().Str("file", fname).Msg(w)
		}
	}
	logDone := func(fname string, plan etag.Plan, v etag.Value) {
		logger.Debug().
			Str("file", fname).
			Str("size", humanize.IBytes(uint64(plan.Length))).
			Int64("parts", plan.Parts()).
			Str("etag", v.String()).
			Msg("Computed ETag")
	}

	return func(ctx context.Context, fname string) (etag.Value, error) {
		if fname == stdinName {
			if stdin == nil || !stdinUsed.CompareAndSwap(false, true) {
				return etag.Value{}, errStdinReused
			}

			h, err := etag.NewHasher(policy, composeOpts...)
			if err != nil {
				return etag.Value{}, err
			}
			defer h.Close()

			if _, err := io.Copy(h, stdin); err != nil {
				return etag.Value{}, fmt.Errorf("read stdin: %w", err)
			}
			v, err := h.Sum()
			if err != nil {
				return etag.Value{}, err
			}

			plan, err := etag.NewPlan(h.Len(), policy)
			if err != nil {
				return etag.Value{}, err
			}
			warnLimits(fname, plan)
			logDone(fname, plan, v)
			return v, nil
		}

		f, err := etag.OpenFile(fname)
		if err != nil {
			return etag.Value{}, err
		}
		defer f.Close()

		plan, err := etag.NewPlan(f.Size(), policy)
		if err != nil {
			return etag.Value{}, err
		}
		warnLimits(fname, plan)

		v, err := etag.Compose(ctx, f, plan, composeOpts...)
		if err != nil {
			return etag.Value{}, err
		}

		logDone(fname, plan, v)
		return v, nil
	}
}

// compute fetches sourceFiles from jobs and computes their ETags. Failures are
// recorded on the sourceFile and in failed; nothing is retried.
func compute(ctx context.Context, fn computer, jobs <-chan *sourceFile, failed *syncedList, wg *sync.WaitGroup) {
	defer wg.Done()

	for src := range jobs {
		src.etag, src.err = fn(ctx, src.fname)
		if src.err != nil {
			failed.add(src.fname, src.err)
		}
	}
}

// computeAll runs fn over every source with the given number of workers and
// returns once all of them are done.
func computeAll(ctx context.Context, fn computer, sources []*sourceFile, workers int) *syncedList {
	jobs, failed := make(chan *sourceFile), &syncedList{}
	wg := new(sync.WaitGroup)

	if workers > len(sources) {
		workers = len(sources)
	}
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go compute(ctx, fn, jobs, failed, wg)
	}

	for _, src := range sources {
		jobs <- src
	}
	close(jobs)
	wg.Wait()

	return failed
}

// printETags writes one line per successful file to stdout and one ERROR line
// per failed file to stderr, in argument order.
func printETags(stdout, stderr io.Writer, sources []*sourceFile) {
	for _, src := range sources {
		if src.err != nil {
			fmt.Fprintf(stderr, "ERROR: %v\n", src.err)
			continue
		}
		fmt.Fprintf(stdout, "%-39s %s\n", src.etag, src.fname)
	}
}

func runFiles(ctx context.Context, opts *options, fn computer, args []string, stdout, stderr io.Writer, logger zerolog.Logger) error {
	fnames := expandArgs(args, logger)
	sources := make([]*sourceFile, 0, len(fnames))
	for _, fname := range fnames {
		sources = append(sources, newSourceFile(fname))
	}

	logger.Debug().
		Int("files", len(sources)).
		Str("threshold", humanize.IBytes(uint64(opts.Threshold))).
		Str("chunksize", humanize.IBytes(uint64(opts.ChunkSize))).
		Msg("Computing ETags")

	failed := computeAll(ctx, fn, sources, opts.WorkersCount)
	printETags(stdout, stderr, sources)

	if len(failed.list) > 0 {
		logger.Debug().Err(failed.err).Msg("Failed files")
		logger.Warn().Msgf("%d of %d files failed", len(failed.list), len(sources))
		return &exitError{code: FileFailed}
	}
	return nil
}

// run executes the command line and returns the process exit code.
func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	cmd := newRootCmd(defaultOptions(), stdout, stderr)
	cmd.SetIn(stdin)
	cmd.SetArgs(args)

	err := cmd.ExecuteContext(ctx)
	if err == nil {
		return Success
	}

	var exitErr *exitError
	if errors.As(err, &exitErr) {
		if exitErr.err != nil {
			fmt.Fprintf(stderr, "ERROR: %v\n", exitErr.err)
		}
		return exitErr.code
	}

	fmt.Fprintf(stderr, "ERROR: %v\n", err)
	return CmdLineOptionError
}

func main() {
	os.Exit(run(context.Background(), os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}
