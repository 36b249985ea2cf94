package main

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/docker/go-units"

	"github.com/petems/go-s3etag/etag"
)

// sizeFlag is a byte count given either bare or with a binary size suffix
// (KB, MB, GB, TB, also K, MiB and the like), as accepted by the AWS CLI's
// multipart_threshold and multipart_chunksize settings.
type sizeFlag int64

// Set parses a size argument.
func (v *sizeFlag) Set(s string) error {
	n, err := units.RAMInBytes(s)
	if err != nil {
		return fmt.Errorf("%w: %v", etag.ErrInvalidConfiguration, err)
	}
	if n < 1 {
		return fmt.Errorf("%w: size %q is not positive", etag.ErrInvalidConfiguration, s)
	}

	*v = sizeFlag(n)
	return nil
}

// String prints the size, with a size suffix when it is a whole number of units.
func (v *sizeFlag) String() string {
	if v == nil {
		return "nil"
	}

	n := int64(*v)
	switch {
	case n == 0:
		return "0"
	case n%(1<<40) == 0:
		return fmt.Sprintf("%dTB", n>>40)
	case n%(1<<30) == 0:
		return fmt.Sprintf("%dGB", n>>30)
	case n%(1<<20) == 0:
		return fmt.Sprintf("%dMB", n>>20)
	case n%(1<<10) == 0:
		return fmt.Sprintf("%dKB", n>>10)
	default:
		return strconv.FormatInt(n, 10)
	}
}

func (v *sizeFlag) Type() string {
	return "SIZE"
}

func (v sizeFlag) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.String())
}

// UnmarshalJSON accepts both "8MB" and a plain number of bytes.
func (v *sizeFlag) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		var n int64
		if err := json.Unmarshal(b, &n); err != nil {
			return fmt.Errorf("size must be a string or an integer, got %s", b)
		}
		s = strconv.FormatInt(n, 10)
	}
	return v.Set(s)
}
