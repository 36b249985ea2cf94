package main

import "github.com/petems/go-s3etag/etag"

// sourceFile is one file of a run along with the outcome of its computation.
type sourceFile struct {
	fname string
	etag  etag.Value
	err   error

	// expected ETag in check mode
	want *etag.Value
}

func newSourceFile(fname string) *sourceFile {
	return &sourceFile{fname: fname}
}

// matches reports whether the computed ETag equals the expected one.
func (s *sourceFile) matches() bool {
	return s.err == nil && s.want != nil && *s.want == s.etag
}
