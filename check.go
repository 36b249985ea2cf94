package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"

	"github.com/petems/go-s3etag/etag"
)

// checkLine is one line of a check list that could not be used.
type checkLine struct {
	line int
	err  error
}

// readCheckList parses a list in the format s3etag prints: an ETag, optionally
// quoted, then whitespace, then the path. Blank lines and lines starting with
// '#' are skipped.
func readCheckList(r io.Reader) ([]*sourceFile, []checkLine, error) {
	var (
		sources []*sourceFile
		bad     []checkLine
	)

	scanner := bufio.NewScanner(r)
	for n := 1; scanner.Scan(); n++ {
		line := strings.TrimRight(scanner.Text(), "\r")
		if trimmed := strings.TrimSpace(line); trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}
		line = strings.TrimLeft(line, " \t")

		i := strings.IndexAny(line, " \t")
		if i < 0 {
			bad = append(bad, checkLine{line: n, err: fmt.Errorf("want ETAG PATH, got %q", line)})
			continue
		}
		want, err := etag.ParseValue(line[:i])
		if err != nil {
			bad = append(bad, checkLine{line: n, err: err})
			continue
		}
		fname := strings.TrimLeft(line[i:], " \t")
		if fname == "" {
			bad = append(bad, checkLine{line: n, err: fmt.Errorf("missing path after %s", want)})
			continue
		}

		src := newSourceFile(fname)
		src.want = &want
		sources = append(sources, src)
	}
	if err := scanner.Err(); err != nil {
		return nil, nil, err
	}

	return sources, bad, nil
}

// runCheck verifies every entry of the check list against the ETag computed
// under the current options.
func runCheck(ctx context.Context, opts *options, fn computer, stdin io.Reader, stdout, stderr io.Writer, logger zerolog.Logger) error {
	r := stdin
	if opts.checkFile != stdinName {
		f, err := os.Open(opts.checkFile)
		if err != nil {
			return &exitError{code: FileFailed, err: err}
		}
		defer f.Close()
		r = f
	}

	sources, bad, err := readCheckList(r)
	if err != nil {
		return &exitError{code: FileFailed, err: fmt.Errorf("read %s: %w", opts.checkFile, err)}
	}
	for _, b := range bad {
		fmt.Fprintf(stderr, "ERROR: %s:%d: %v\n", opts.checkFile, b.line, b.err)
	}

	computeAll(ctx, fn, sources, opts.WorkersCount)

	mismatches, failures := 0, len(bad)
	for _, src := range sources {
		switch {
		case src.err != nil:
			failures++
			fmt.Fprintf(stderr, "ERROR: %v\n", src.err)
		case src.matches():
			fmt.Fprintf(stdout, "%s: OK\n", src.fname)
		default:
			mismatches++
			fmt.Fprintf(stdout, "%s: FAILED\n", src.fname)
			logger.Debug().Str("file", src.fname).Str("want", src.want.String()).Str("got", src.etag.String()).Msg("ETag mismatch")
		}
	}

	if mismatches > 0 {
		logger.Warn().Msgf("%d computed ETags did NOT match", mismatches)
	}
	if failures > 0 {
		logger.Warn().Msgf("%d listed files could not be checked", failures)
		return &exitError{code: FileFailed}
	}
	if mismatches > 0 {
		return &exitError{code: ChecksumMismatch}
	}
	return nil
}
