package etag

import (
	"errors"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPlan(t *testing.T) {
	tests := []struct {
		name      string
		length    int64
		policy    Policy
		want      []ByteRange
		multipart bool
	}{
		{
			name:   "empty file",
			length: 0,
			policy: DefaultPolicy(),
			want:   []ByteRange{{0, 0}},
		},
		{
			name:   "below threshold",
			length: 100,
			policy: Policy{Threshold: 1000, ChunkSize: 30},
			want:   []ByteRange{{0, 100}},
		},
		{
			name:   "equal to threshold",
			length: DefaultChunkSize,
			policy: DefaultPolicy(),
			want:   []ByteRange{{0, DefaultChunkSize}},
		},
		{
			name:      "one byte over threshold",
			length:    DefaultChunkSize + 1,
			policy:    DefaultPolicy(),
			want:      []ByteRange{{0, DefaultChunkSize}, {DefaultChunkSize, DefaultChunkSize + 1}},
			multipart: true,
		},
		{
			name:      "exact multiple of chunk size",
			length:    90,
			policy:    Policy{Threshold: 10, ChunkSize: 30},
			want:      []ByteRange{{0, 30}, {30, 60}, {60, 90}},
			multipart: true,
		},
		{
			name:      "remainder in last part",
			length:    100,
			policy:    Policy{Threshold: 30, ChunkSize: 30},
			want:      []ByteRange{{0, 30}, {30, 60}, {60, 90}, {90, 100}},
			multipart: true,
		},
		{
			name:   "chunk larger than file",
			length: 100,
			policy: Policy{Threshold: 10, ChunkSize: 500},
			want:   []ByteRange{{0, 100}},
		},
		{
			name:      "chunk larger than threshold",
			length:    100,
			policy:    Policy{Threshold: 10, ChunkSize: 60},
			want:      []ByteRange{{0, 60}, {60, 100}},
			multipart: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plan, err := NewPlan(tt.length, tt.policy)
			require.NoError(t, err)

			if diff := cmp.Diff(tt.want, plan.Ranges()); diff != "" {
				t.Errorf("ranges mismatch (-want +got):\n%s", diff)
			}
			assert.Equal(t, tt.multipart, plan.Multipart)
			assert.Equal(t, int64(len(tt.want)), plan.Parts())
		})
	}
}

func TestNewPlan_InvalidConfiguration(t *testing.T) {
	policies := []Policy{
		{Threshold: 0, ChunkSize: DefaultChunkSize},
		{Threshold: DefaultChunkSize, ChunkSize: 0},
		{Threshold: 0, ChunkSize: 0},
		{Threshold: -1, ChunkSize: DefaultChunkSize},
	}

	for _, p := range policies {
		for _, length := range []int64{0, 1, DefaultChunkSize, 10 * DefaultChunkSize} {
			_, err := NewPlan(length, p)
			assert.Truef(t, errors.Is(err, ErrInvalidConfiguration), "policy %+v length %d: got %v", p, length, err)
		}
	}

	_, err := NewPlan(-1, DefaultPolicy())
	assert.ErrorIs(t, err, ErrInvalidConfiguration)
}

// Every plan covers the file exactly once, in order, with full-size parts
// except possibly the last one.
func TestNewPlan_Coverage(t *testing.T) {
	for length := int64(0); length <= 40; length++ {
		for threshold := int64(1); threshold <= 12; threshold++ {
			for chunk := int64(1); chunk <= 12; chunk++ {
				plan, err := NewPlan(length, Policy{Threshold: threshold, ChunkSize: chunk})
				require.NoError(t, err)

				ranges := plan.Ranges()
				require.NotEmpty(t, ranges)
				require.Equal(t, plan.Multipart, len(ranges) > 1)

				if length <= threshold {
					require.False(t, plan.Multipart, "L=%d T=%d C=%d", length, threshold, chunk)
				}

				var next int64
				for i, r := range ranges {
					require.Equal(t, next, r.Start, "L=%d T=%d C=%d part %d", length, threshold, chunk, i)
					if length > 0 {
						require.Greater(t, r.Len(), int64(0))
					}
					if plan.Multipart && i < len(ranges)-1 {
						require.Equal(t, chunk, r.Len())
					}
					if plan.Multipart {
						require.LessOrEqual(t, r.Len(), chunk)
					}
					next = r.End
				}
				require.Equal(t, length, next)
			}
		}
	}
}

func TestNewPlan_HugeFile(t *testing.T) {
	plan, err := NewPlan(math.MaxInt64, Policy{Threshold: 1, ChunkSize: math.MaxInt64 / 2})
	require.NoError(t, err)
	require.Equal(t, int64(3), plan.Parts())

	last := plan.Range(2)
	assert.Equal(t, int64(math.MaxInt64), last.End)
	assert.Equal(t, int64(1), last.Len())

	plan, err = NewPlan(1<<40, Policy{Threshold: 1, ChunkSize: 1})
	require.NoError(t, err)
	assert.Equal(t, int64(1<<40), plan.Parts())
	assert.Equal(t, ByteRange{Start: 1<<40 - 1, End: 1 << 40}, plan.Range(plan.Parts()-1))
}

func TestPlan_RangeOutOfBounds(t *testing.T) {
	plan, err := NewPlan(10, DefaultPolicy())
	require.NoError(t, err)

	assert.Panics(t, func() { plan.Range(1) })
	assert.Panics(t, func() { plan.Range(-1) })
}
