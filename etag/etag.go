package etag

import "context"

// ComputeFile returns the ETag of the file at path under policy p.
//
// The policy is checked before the file is opened, so an unusable policy
// never causes any I/O.
func ComputeFile(ctx context.Context, path string, p Policy, opts ...ComposeOption) (Value, error) {
	if err := p.Validate(); err != nil {
		return Value{}, err
	}

	f, err := OpenFile(path)
	if err != nil {
		return Value{}, err
	}
	defer f.Close()

	plan, err := NewPlan(f.Size(), p)
	if err != nil {
		return Value{}, err
	}
	return Compose(ctx, f, plan, opts...)
}
