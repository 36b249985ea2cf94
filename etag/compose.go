package etag

import (
	"context"
	"io"

	"golang.org/x/sync/errgroup"
)

// partsPerWorker bounds how many part digests are computed ahead of the final
// hash when parts are digested in parallel.
const partsPerWorker = 16

// MaxPartWorkers is the largest number of parts digested concurrently.
const MaxPartWorkers = 256

type composeOptions struct {
	digester Digester
	workers  int
}

// ComposeOption configures Compose.
type ComposeOption func(*composeOptions)

// WithDigester selects the MD5 backend. The default is MD5.
func WithDigester(d Digester) ComposeOption {
	return func(o *composeOptions) {
		if d != nil {
			o.digester = d
		}
	}
}

// WithPartWorkers digests up to n parts of a multipart plan concurrently.
// Values below 2 keep the digests sequential, values above MaxPartWorkers are
// lowered to it.
func WithPartWorkers(n int) ComposeOption {
	return func(o *composeOptions) {
		o.workers = min(n, MaxPartWorkers)
	}
}

func newComposeOptions(opts []ComposeOption) composeOptions {
	o := composeOptions{digester: MD5, workers: 1}
	for _, fn := range opts {
		fn(&o)
	}
	return o
}

// Compose computes the ETag of src under plan.
//
// A single-part plan yields the MD5 of the whole range. A multipart plan yields
// the MD5 of the part digests concatenated in part order, suffixed with the
// part count. Read failures are returned as *IOError and no value is produced.
func Compose(ctx context.Context, src Source, plan Plan, opts ...ComposeOption) (Value, error) {
	o := newComposeOptions(opts)
	if plan.Parts() < 1 {
		return Value{}, invalidf("empty plan")
	}
	if err := ctx.Err(); err != nil {
		return Value{}, err
	}

	if !plan.Multipart {
		sum, err := digestPart(ctx, o.digester, src, plan.Range(0))
		if err != nil {
			return Value{}, err
		}
		return Value{Sum: sum}, nil
	}

	parts := &partDigests{
		ctx:      ctx,
		src:      src,
		plan:     plan,
		digester: o.digester,
		workers:  o.workers,
	}
	sum, err := o.digester.Digest(parts)
	if err != nil {
		return Value{}, err
	}
	return Value{Sum: sum, Parts: plan.Parts()}, nil
}

func digestPart(ctx context.Context, d Digester, src Source, r ByteRange) (Digest, error) {
	sum, err := d.Digest(&exactReader{ctx: ctx, r: io.NewSectionReader(src, r.Start, r.Len()), n: r.Len()})
	if err != nil {
		return Digest{}, &IOError{Path: src.Name(), Range: r, Err: err}
	}
	return sum, nil
}

// partDigests reads as the concatenation of the binary digests of every part
// of plan, in part order. Digests are computed as they are read.
type partDigests struct {
	ctx      context.Context
	src      Source
	plan     Plan
	digester Digester
	workers  int

	next    int64
	pending []byte
}

func (p *partDigests) Read(b []byte) (int, error) {
	if len(p.pending) == 0 {
		if p.next >= p.plan.Parts() {
			return 0, io.EOF
		}
		if err := p.fill(); err != nil {
			return 0, err
		}
	}

	n := copy(b, p.pending)
	p.pending = p.pending[n:]
	return n, nil
}

func (p *partDigests) fill() error {
	if err := p.ctx.Err(); err != nil {
		return err
	}

	if p.workers < 2 {
		sum, err := digestPart(p.ctx, p.digester, p.src, p.plan.Range(p.next))
		if err != nil {
			return err
		}
		p.next++
		p.pending = sum[:]
		return nil
	}

	batch := p.plan.Parts() - p.next
	if limit := int64(p.workers) * partsPerWorker; batch > limit {
		batch = limit
	}

	sums := make([]Digest, batch)
	g, ctx := errgroup.WithContext(p.ctx)
	g.SetLimit(p.workers)
	for i := int64(0); i < batch; i++ {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			sum, err := digestPart(ctx, p.digester, p.src, p.plan.Range(p.next+i))
			if err != nil {
				return err
			}
			sums[i] = sum
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	p.pending = make([]byte, 0, batch*DigestSize)
	for _, sum := range sums {
		p.pending = append(p.pending, sum[:]...)
	}
	p.next += batch
	return nil
}
