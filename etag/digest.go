package etag

import (
	"bytes"
	"crypto/md5"
	"fmt"
	"hash"
	"io"
	"strings"
	"sync"

	md5simd "github.com/minio/md5-simd"
)

// DigestSize is the size of an MD5 checksum in bytes.
const DigestSize = md5.Size

// Digest is the binary MD5 of a part or of a whole object.
type Digest [DigestSize]byte

// Digester computes MD5 digests. Implementations must be safe for concurrent
// use; every call digests an independent stream.
type Digester interface {
	Digest(r io.Reader) (Digest, error)
	// NewHash returns a running MD5 for incremental hashing. Close releases
	// it once its sum has been taken.
	NewHash() md5simd.Hasher
}

// Sum digests an in-memory byte slice with d.
func Sum(d Digester, p []byte) Digest {
	sum, err := d.Digest(bytes.NewReader(p))
	if err != nil {
		// reading from a bytes.Reader cannot fail
		panic(err)
	}
	return sum
}

// Names accepted by NewDigester.
const (
	DigesterMD5  = "md5"
	DigesterSIMD = "simd"
)

// NewDigester returns the named digest backend and a function releasing its
// resources.
func NewDigester(name string) (Digester, func(), error) {
	switch strings.ToLower(name) {
	case "", DigesterMD5:
		return MD5, func() {}, nil
	case DigesterSIMD:
		s := NewSIMD()
		return s, s.Close, nil
	default:
		return nil, nil, invalidf("unknown digest %q, want %s or %s", name, DigesterMD5, DigesterSIMD)
	}
}

const copyBufferSize = 256 << 10

var (
	md5Pool = sync.Pool{
		New: func() any {
			return md5.New()
		},
	}
	bufPool = sync.Pool{
		New: func() any {
			b := make([]byte, copyBufferSize)
			return &b
		},
	}
)

func copyInto(h hash.Hash, r io.Reader) error {
	buf := bufPool.Get().(*[]byte)
	defer bufPool.Put(buf)

	_, err := io.CopyBuffer(h, r, *buf)
	return err
}

// digestWith reads r into h and returns the digest. h is closed.
func digestWith(h md5simd.Hasher, r io.Reader) (Digest, error) {
	defer h.Close()

	if err := copyInto(h, r); err != nil {
		return Digest{}, err
	}
	return sumOf(h)
}

func sumOf(h hash.Hash) (Digest, error) {
	var sum Digest
	if n := copy(sum[:], h.Sum(nil)); n != DigestSize {
		return sum, fmt.Errorf("md5: short digest of %d bytes", n)
	}
	return sum, nil
}

// pooledHash returns its crypto/md5 state to md5Pool on Close.
type pooledHash struct {
	hash.Hash
}

func (p *pooledHash) Close() {
	if p.Hash != nil {
		p.Reset()
		md5Pool.Put(p.Hash)
		p.Hash = nil
	}
}

type md5Digester struct{}

// MD5 is the software backend built on crypto/md5.
var MD5 Digester = md5Digester{}

func (md5Digester) NewHash() md5simd.Hasher {
	return &pooledHash{Hash: md5Pool.Get().(hash.Hash)}
}

func (d md5Digester) Digest(r io.Reader) (Digest, error) {
	return digestWith(d.NewHash(), r)
}

// SIMD is a backend hashing several streams in parallel lanes with AVX2 or
// AVX512 when the CPU has them. It pays off with --part-workers > 1.
type SIMD struct {
	server md5simd.Server
}

// NewSIMD starts a SIMD hashing server. Call Close when done with it.
func NewSIMD() *SIMD {
	return &SIMD{server: md5simd.NewServer()}
}

func (s *SIMD) NewHash() md5simd.Hasher {
	return s.server.NewHash()
}

func (s *SIMD) Digest(r io.Reader) (Digest, error) {
	return digestWith(s.server.NewHash(), r)
}

// Close stops the hashing server.
func (s *SIMD) Close() {
	s.server.Close()
}
