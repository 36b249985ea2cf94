package main

import (
	"encoding/json"
	"fmt"
	"os"
	"runtime"
	"strconv"
	"strings"

	"github.com/spf13/viper"

	"github.com/petems/go-s3etag/etag"
)

type options struct {
	Threshold    sizeFlag `json:"threshold,omitempty"`
	ChunkSize    sizeFlag `json:"chunksize,omitempty"`
	Digest       string   `json:"digest,omitempty"`
	WorkersCount int      `json:"workers_count,omitempty"`
	PartWorkers  int      `json:"part_workers,omitempty"`
	cfgFile      string
	checkFile    string

	verbose, quiet, saveCfg bool
}

func defaultOptions() *options {
	return &options{
		Threshold:    sizeFlag(etag.DefaultChunkSize),
		ChunkSize:    sizeFlag(etag.DefaultChunkSize),
		Digest:       etag.DigesterMD5,
		WorkersCount: runtime.NumCPU(),
		PartWorkers:  1,
		cfgFile:      ".s3etag.json",
	}
}

func (o *options) policy() etag.Policy {
	return etag.Policy{Threshold: int64(o.Threshold), ChunkSize: int64(o.ChunkSize)}
}

// envPrefix prefixes the environment variables that override the config file,
// e.g. S3ETAG_CHUNKSIZE=16MB.
const envPrefix = "S3ETAG"

// configKeys maps config file keys to the flags that take precedence over them.
var configKeys = map[string]string{
	"threshold":     "threshold",
	"chunksize":     "chunksize",
	"digest":        "digest",
	"workers_count": "workers",
	"part_workers":  "part-workers",
}

func (o *options) dump(fname string) (err error) {
	f, err := os.Create(fname) // #nosec G304 - file path from user config is expected
	if err != nil {
		return err
	}
	defer func() {
		err2 := f.Close()
		if err == nil {
			err = err2
		} else if err2 != nil {
			err = fmt.Errorf("%w; %w", err, err2)
		}
	}()

	buf, err := json.MarshalIndent(o, "", "  ")
	if err != nil {
		return err
	}
	buf = append(buf, "\n"[0])

	_, err = f.Write(buf)

	return err
}

// restore loads options from the config file fname, if it exists, and from
// S3ETAG_* environment variables, which win over the file. Options whose flag
// was given on the command line (changed reports true) are left alone.
func (o *options) restore(fname string, changed func(flag string) bool) error {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()

	if _, err := os.Stat(fname); err == nil {
		v.SetConfigFile(fname)
		v.SetConfigType("json")
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("read config %s: %w", fname, err)
		}
	} else if !os.IsNotExist(err) {
		return err
	}

	tmp := options{}
	for key, flag := range configKeys {
		if changed != nil && changed(flag) {
			continue
		}
		if !v.IsSet(key) {
			continue
		}

		var err error
		switch key {
		case "threshold":
			err = tmp.Threshold.Set(v.GetString(key))
		case "chunksize":
			err = tmp.ChunkSize.Set(v.GetString(key))
		case "digest":
			tmp.Digest = v.GetString(key)
		case "workers_count":
			tmp.WorkersCount, err = parseCount(v.GetString(key))
		case "part_workers":
			tmp.PartWorkers, err = parseCount(v.GetString(key))
		}
		if err != nil {
			return fmt.Errorf("config %s: %w", key, err)
		}
	}

	o.merge(&tmp)

	return nil
}

func parseCount(s string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("%q is not a number", s)
	}
	if n < 1 {
		return 0, fmt.Errorf("%d is not positive", n)
	}
	return n, nil
}

func (o *options) merge(other *options) {
	if x := other.Threshold; x != 0 {
		o.Threshold = x
	}
	if x := other.ChunkSize; x != 0 {
		o.ChunkSize = x
	}
	if x := other.Digest; x != "" {
		o.Digest = x
	}
	if x := other.WorkersCount; x != 0 {
		o.WorkersCount = x
	}
	if x := other.PartWorkers; x != 0 {
		o.PartWorkers = x
	}

	// skipping the rest of the fields, they can never come from a config file anyway.
}
