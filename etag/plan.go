package etag

import "fmt"

// DefaultChunkSize is the multipart_threshold and multipart_chunksize the AWS
// CLI uses unless configured otherwise: 8 MiB.
const DefaultChunkSize int64 = 8 << 20

// Policy is the multipart upload configuration an object was uploaded with.
type Policy struct {
	// Threshold is the largest size still uploaded in a single request.
	Threshold int64
	// ChunkSize is the size of every part but the last.
	ChunkSize int64
}

// DefaultPolicy returns the AWS CLI defaults.
func DefaultPolicy() Policy {
	return Policy{Threshold: DefaultChunkSize, ChunkSize: DefaultChunkSize}
}

// Validate reports whether p can be used to plan an upload.
func (p Policy) Validate() error {
	if p.Threshold <= 0 {
		return invalidf("threshold must be positive, got %d", p.Threshold)
	}
	if p.ChunkSize <= 0 {
		return invalidf("chunk size must be positive, got %d", p.ChunkSize)
	}
	return nil
}

// ByteRange is the half-open interval [Start, End) of a file.
type ByteRange struct {
	Start, End int64
}

// Len returns the number of bytes in the range.
func (r ByteRange) Len() int64 {
	return r.End - r.Start
}

func (r ByteRange) String() string {
	return fmt.Sprintf("[%d, %d)", r.Start, r.End)
}

// Plan is the partitioning of a file into upload parts. Ranges are computed
// on demand, so a plan for a huge file with a tiny chunk size stays small.
type Plan struct {
	Length    int64
	Policy    Policy
	Multipart bool

	parts int64
}

// NewPlan partitions a file of the given length according to p.
//
// Files no larger than the threshold get a single part, even when empty.
// Larger files are cut into ChunkSize parts with the remainder in the last
// one; a file that fits in one chunk still ends up with a single part.
func NewPlan(length int64, p Policy) (Plan, error) {
	if err := p.Validate(); err != nil {
		return Plan{}, err
	}
	if length < 0 {
		return Plan{}, invalidf("negative file length %d", length)
	}

	plan := Plan{Length: length, Policy: p, parts: 1}
	if length > p.Threshold {
		plan.parts = (length-1)/p.ChunkSize + 1
	}
	plan.Multipart = plan.parts > 1
	return plan, nil
}

// Parts returns the number of parts in the plan, always at least 1.
func (p Plan) Parts() int64 {
	return p.parts
}

// Range returns the byte range of the i-th part, counting from 0.
func (p Plan) Range(i int64) ByteRange {
	if i < 0 || i >= p.parts {
		panic(fmt.Sprintf("etag: part %d out of range [0, %d)", i, p.parts))
	}
	if !p.Multipart {
		return ByteRange{Start: 0, End: p.Length}
	}

	start := i * p.Policy.ChunkSize
	end := p.Length
	if p.Policy.ChunkSize < p.Length-start {
		end = start + p.Policy.ChunkSize
	}
	return ByteRange{Start: start, End: end}
}

// Ranges returns every part range in ascending order.
func (p Plan) Ranges() []ByteRange {
	ranges := make([]ByteRange, 0, p.parts)
	for i := int64(0); i < p.parts; i++ {
		ranges = append(ranges, p.Range(i))
	}
	return ranges
}
