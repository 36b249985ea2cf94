package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/petems/go-s3etag/etag"
)

const sizeHelp = "in bytes or with a size suffix KB, MB, GB, or TB"

// newRootCmd builds the s3etag command around opts.
func newRootCmd(opts *options, stdout, stderr io.Writer) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "s3etag [flags] FILE...",
		Short: "Compute the Amazon S3 ETag of local files",
		Long: `s3etag prints the ETag Amazon S3 would assign to each FILE if it were uploaded
with the given multipart threshold and chunk size, without uploading anything.

Arguments containing glob patterns (including ** patterns) are expanded.
A FILE of - is read from standard input.`,
		Version:       GetVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runE(cmd, opts, args)
		},
	}
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	cmd.SetVersionTemplate("{{.Version}}\n")

	processCmdLineFlags(cmd.Flags(), opts)
	cmd.MarkFlagsMutuallyExclusive("verbose", "quiet")

	return cmd
}

// processCmdLineFlags wraps the command line flags handling.
func processCmdLineFlags(flags *pflag.FlagSet, opts *options) {
	flags.Var(&opts.Threshold, "threshold", "multipart_threshold used for upload "+sizeHelp)
	flags.Var(&opts.ChunkSize, "chunksize", "multipart_chunksize used for upload "+sizeHelp)
	flags.StringVar(&opts.Digest, "digest", opts.Digest, "MD5 implementation: md5 or simd")
	flags.IntVarP(&opts.WorkersCount, "workers", "w", opts.WorkersCount, "No. of files to process concurrently")
	flags.IntVar(&opts.PartWorkers, "part-workers", opts.PartWorkers, "No. of parts of a file to digest concurrently")
	flags.StringVarP(&opts.checkFile, "check", "c", opts.checkFile, "Read ETags and paths from FILE (- for stdin) and verify them")
	flags.StringVar(&opts.cfgFile, "cfgfile", opts.cfgFile, "Config file location")
	flags.BoolVar(&opts.saveCfg, "save", opts.saveCfg, "Saves the current options to the config file")
	flags.BoolVarP(&opts.verbose, "verbose", "v", opts.verbose, "Log every file as it is processed")
	flags.BoolVarP(&opts.quiet, "quiet", "q", opts.quiet, "Log only warnings and errors")
}

// validateCmdLineFlags validates the options once config file and flags are
// merged. Defers path validation to validateCmdLineFlag().
func validateCmdLineFlags(opts *options) error {
	if err := opts.policy().Validate(); err != nil {
		return err
	}
	if opts.WorkersCount < 1 {
		return fmt.Errorf("workers must be at least 1, got %d", opts.WorkersCount)
	}
	if opts.PartWorkers < 1 || opts.PartWorkers > etag.MaxPartWorkers {
		return fmt.Errorf("part-workers must be between 1 and %d, got %d", etag.MaxPartWorkers, opts.PartWorkers)
	}
	switch strings.ToLower(opts.Digest) {
	case etag.DigesterMD5, etag.DigesterSIMD:
	default:
		return fmt.Errorf("%w: unknown digest %q", etag.ErrInvalidConfiguration, opts.Digest)
	}

	flags := map[string]string{
		"Config file": opts.cfgFile,
		"Check file":  opts.checkFile,
	}
	for label, val := range flags {
		if err := validateCmdLineFlag(label, val); err != nil {
			return err
		}
	}
	return nil
}

// validateCmdLineFlag handles the actual validation of path flags.
func validateCmdLineFlag(label, val string) error {
	switch label {
	case "Config file":
		// Config file is allowed to not exist (will be created by --save)
		if _, err := os.Stat(val); err != nil && !os.IsNotExist(err) {
			return err
		}
	case "Check file":
		if val == "" || val == "-" {
			return nil
		}
		_, err := os.Stat(val)
		return err
	default:
		_, err := os.Stat(val)
		return err
	}
	return nil
}

func runE(cmd *cobra.Command, opts *options, args []string) error {
	if err := opts.restore(opts.cfgFile, cmd.Flags().Changed); err != nil {
		return &exitError{code: ConfigFailed, err: err}
	}
	if err := validateCmdLineFlags(opts); err != nil {
		return &exitError{code: CmdLineOptionError, err: err}
	}
	if opts.checkFile == "" && len(args) == 0 {
		return &exitError{code: CmdLineOptionError, err: fmt.Errorf("no FILE given\n\nUsage:\n  %s", cmd.UseLine())}
	}
	if opts.checkFile != "" && len(args) > 0 {
		return &exitError{code: CmdLineOptionError, err: errors.New("FILE arguments cannot be combined with --check")}
	}

	if opts.saveCfg {
		if err := opts.dump(opts.cfgFile); err != nil {
			return &exitError{code: ConfigFailed, err: err}
		}
	}

	logger := loggerGen(cmd.ErrOrStderr(), opts.verbose, opts.quiet)
	if opts.saveCfg {
		logger.Info().Str("file", opts.cfgFile).Msg("Saved options")
	}

	digester, release, err := etag.NewDigester(opts.Digest)
	if err != nil {
		return &exitError{code: CmdLineOptionError, err: err}
	}
	defer release()

	stdin := cmd.InOrStdin()
	if opts.checkFile == stdinName {
		// the check list consumes stdin
		stdin = nil
	}
	fn := computeGen(opts, digester, stdin, logger)
	if opts.checkFile != "" {
		return runCheck(cmd.Context(), opts, fn, cmd.InOrStdin(), cmd.OutOrStdout(), cmd.ErrOrStderr(), logger)
	}
	return runFiles(cmd.Context(), opts, fn, args, cmd.OutOrStdout(), cmd.ErrOrStderr(), logger)
}
