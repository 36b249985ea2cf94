package main

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/rs/zerolog"
)

// expandArgs replaces arguments holding glob patterns, including "doublestar"
// patterns such as `**/*.tar`, by the regular files they match. Patterns with
// no match are kept as is, so they fail like any other missing file.
func expandArgs(args []string, logger zerolog.Logger) []string {
	var fnames []string

	for _, arg := range args {
		if !strings.ContainsAny(arg, "*?[{") {
			fnames = append(fnames, arg)
			continue
		}

		base, pattern := doublestar.SplitPattern(filepath.ToSlash(arg))
		matches, err := doublestar.Glob(os.DirFS(base), pattern)
		if err != nil {
			logger.Warn().Err(err).Msgf("Error in pattern '%s'", arg)
			fnames = append(fnames, arg)
			continue
		}

		files := filterFilesOnly(base, matches)
		if len(files) == 0 {
			logger.Warn().Msgf("No match for pattern: %s", arg)
			fnames = append(fnames, arg)
			continue
		}
		fnames = append(fnames, files...)
	}

	return fnames
}

func filterFilesOnly(base string, matches []string) []string {
	var files []string
	for _, m := range matches {
		path := filepath.Join(filepath.FromSlash(base), filepath.FromSlash(m))
		info, err := os.Stat(path)
		if err != nil || info.IsDir() {
			continue
		}
		files = append(files, path)
	}
	sort.Strings(files)
	return files
}
