package etag

import (
	"errors"

	md5simd "github.com/minio/md5-simd"
)

var errHasherDone = errors.New("etag: write to a finished Hasher")

// Hasher computes an ETag in one pass over a stream of unknown length, such
// as a pipe. Parts are cut exactly like NewPlan cuts a file of the same
// length, so a Hasher and Compose agree on every input.
//
// A Hasher is not safe for concurrent use.
type Hasher struct {
	policy Policy
	n      int64

	// whole digests the stream while it still fits under the threshold.
	whole md5simd.Hasher

	part    md5simd.Hasher
	partLen int64

	// sums digests the completed part digests in order.
	sums  md5simd.Hasher
	first Digest
	parts int64

	done  bool
	value Value
	err   error
}

// NewHasher returns a Hasher for uploads made with policy p. Only the
// WithDigester option applies.
func NewHasher(p Policy, opts ...ComposeOption) (*Hasher, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	d := newComposeOptions(opts).digester
	return &Hasher{
		policy: p,
		whole:  d.NewHash(),
		part:   d.NewHash(),
		sums:   d.NewHash(),
	}, nil
}

// Write adds p to the stream. It never fails before Sum or Close.
func (h *Hasher) Write(p []byte) (int, error) {
	if h.done {
		return 0, errHasherDone
	}

	if h.whole != nil {
		if h.n+int64(len(p)) <= h.policy.Threshold {
			h.whole.Write(p)
		} else {
			h.whole.Close()
			h.whole = nil
		}
	}
	h.n += int64(len(p))

	for rest := p; len(rest) > 0; {
		k := len(rest)
		if room := h.policy.ChunkSize - h.partLen; int64(k) > room {
			k = int(room)
		}
		h.part.Write(rest[:k])
		h.partLen += int64(k)
		rest = rest[k:]

		if h.partLen == h.policy.ChunkSize {
			if err := h.endPart(); err != nil {
				return len(p) - len(rest), err
			}
		}
	}
	return len(p), nil
}

func (h *Hasher) endPart() error {
	sum, err := sumOf(h.part)
	if err != nil {
		return err
	}
	h.part.Reset()
	h.partLen = 0

	if h.parts == 0 {
		h.first = sum
	}
	h.sums.Write(sum[:])
	h.parts++
	return nil
}

// Len returns the number of bytes written so far.
func (h *Hasher) Len() int64 {
	return h.n
}

// Sum finishes the stream and returns its ETag. Later calls return the same
// value; later writes fail. Sum releases the hashes, so Close is not needed
// afterwards.
func (h *Hasher) Sum() (Value, error) {
	if !h.done {
		h.value, h.err = h.finish()
		h.release()
	}
	return h.value, h.err
}

func (h *Hasher) finish() (Value, error) {
	if h.whole != nil {
		sum, err := sumOf(h.whole)
		return Value{Sum: sum}, err
	}

	if h.partLen > 0 {
		if err := h.endPart(); err != nil {
			return Value{}, err
		}
	}
	if h.parts == 1 {
		return Value{Sum: h.first}, nil
	}

	sum, err := sumOf(h.sums)
	if err != nil {
		return Value{}, err
	}
	return Value{Sum: sum, Parts: h.parts}, nil
}

// Close releases the hashes without computing a value. Sum fails afterwards.
func (h *Hasher) Close() error {
	if !h.done {
		h.err = errHasherDone
		h.release()
	}
	return nil
}

func (h *Hasher) release() {
	h.done = true
	for _, x := range []*md5simd.Hasher{&h.whole, &h.part, &h.sums} {
		if *x != nil {
			(*x).Close()
			*x = nil
		}
	}
}
