package etag

import (
	"bytes"
	"context"
	"errors"
	"io"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func testData(n int) []byte {
	data := make([]byte, n)
	for i := range data {
		data[i] = byte(i % 251)
	}
	return data
}

func compose(t *testing.T, data []byte, p Policy, opts ...ComposeOption) Value {
	t.Helper()

	src := NewBytesSource("test.bin", data)
	plan, err := NewPlan(src.Size(), p)
	require.NoError(t, err)

	v, err := Compose(context.Background(), src, plan, opts...)
	require.NoError(t, err)
	return v
}

func TestCompose(t *testing.T) {
	tests := []struct {
		name   string
		data   []byte
		policy Policy
		want   string
	}{
		{
			name:   "empty file",
			data:   nil,
			policy: DefaultPolicy(),
			want:   "d41d8cd98f00b204e9800998ecf8427e",
		},
		{
			name:   "single part",
			data:   []byte("hello world"),
			policy: DefaultPolicy(),
			want:   "5eb63bbbe01eeed093cb22bb8f5acdc3",
		},
		{
			name:   "single part below threshold with small chunks",
			data:   testData(100),
			policy: Policy{Threshold: 100, ChunkSize: 30},
			want:   "7acedd1a84a4cfcb6e7a16003242945e",
		},
		{
			name:   "four parts",
			data:   testData(100),
			policy: Policy{Threshold: 30, ChunkSize: 30},
			want:   "c414a8bbfbf4c4e72b691a88f047ec50-4",
		},
		{
			name:   "one byte over threshold",
			data:   []byte("abcdefghi"),
			policy: Policy{Threshold: 8, ChunkSize: 8},
			want:   "b70366f8adef2f69476dd2f0ec3abcf9-2",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, compose(t, tt.data, tt.policy).String())
		})
	}
}

func TestCompose_TwoChunks(t *testing.T) {
	data := make([]byte, 2*DefaultChunkSize)
	for i := DefaultChunkSize; i < int64(len(data)); i++ {
		data[i] = 0xFF
	}

	v := compose(t, data, DefaultPolicy())
	assert.Equal(t, "136f6d58f8fb041e092bfb524af4cb1d-2", v.String())
	assert.Equal(t, int64(2), v.Parts)
}

func TestCompose_Idempotent(t *testing.T) {
	data := testData(1000)
	p := Policy{Threshold: 100, ChunkSize: 64}

	assert.Equal(t, compose(t, data, p), compose(t, data, p))
}

func TestCompose_OrderMatters(t *testing.T) {
	p := Policy{Threshold: 4, ChunkSize: 4}

	a := compose(t, []byte("aaaabbbb"), p)
	b := compose(t, []byte("bbbbaaaa"), p)
	assert.NotEqual(t, a, b)
}

func TestCompose_PartWorkers(t *testing.T) {
	defer goleak.VerifyNone(t)

	data := testData(10_000)
	for _, chunk := range []int64{1, 7, 100, 999, 5000} {
		p := Policy{Threshold: 1, ChunkSize: chunk}
		want := compose(t, data, p)

		for _, workers := range []int{2, 3, 8} {
			got := compose(t, data, p, WithPartWorkers(workers))
			assert.Equal(t, want, got, "chunk %d workers %d", chunk, workers)
		}
	}
}

// failingSource fails every read covering the byte at failAt.
type failingSource struct {
	Source
	failAt int64
}

var errDisk = errors.New("disk on fire")

func (f failingSource) ReadAt(p []byte, off int64) (int, error) {
	if off <= f.failAt && f.failAt < off+int64(len(p)) {
		return 0, errDisk
	}
	return f.Source.ReadAt(p, off)
}

func TestCompose_ReadFailure(t *testing.T) {
	defer goleak.VerifyNone(t)

	src := failingSource{Source: NewBytesSource("broken.bin", testData(100)), failAt: 65}
	plan, err := NewPlan(src.Size(), Policy{Threshold: 10, ChunkSize: 30})
	require.NoError(t, err)

	for _, workers := range []int{1, 4} {
		v, err := Compose(context.Background(), src, plan, WithPartWorkers(workers))
		require.Error(t, err)
		assert.Equal(t, Value{}, v)
		assert.ErrorIs(t, err, errDisk)

		var ioErr *IOError
		require.ErrorAs(t, err, &ioErr)
		assert.Equal(t, "broken.bin", ioErr.Path)
		assert.Equal(t, ByteRange{Start: 60, End: 90}, ioErr.Range)
		assert.Contains(t, err.Error(), "broken.bin")
	}
}

func TestCompose_ShortRead(t *testing.T) {
	// the plan claims more bytes than the source has
	src := NewBytesSource("short.bin", testData(50))
	plan, err := NewPlan(100, Policy{Threshold: 10, ChunkSize: 30})
	require.NoError(t, err)

	_, err = Compose(context.Background(), src, plan)
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)

	var ioErr *IOError
	require.ErrorAs(t, err, &ioErr)
	assert.Equal(t, ByteRange{Start: 30, End: 60}, ioErr.Range)
}

func TestCompose_Canceled(t *testing.T) {
	defer goleak.VerifyNone(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	src := NewBytesSource("test.bin", testData(100))
	plan, err := NewPlan(src.Size(), Policy{Threshold: 10, ChunkSize: 10})
	require.NoError(t, err)

	_, err = Compose(ctx, src, plan, WithPartWorkers(4))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestCompose_CanceledSinglePart(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	src := NewBytesSource("test.bin", testData(100))
	plan, err := NewPlan(src.Size(), DefaultPolicy())
	require.NoError(t, err)
	require.False(t, plan.Multipart)

	v, err := Compose(ctx, src, plan)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, Value{}, v)
}

func TestCompose_HugePartWorkers(t *testing.T) {
	defer goleak.VerifyNone(t)

	data := testData(100)
	p := Policy{Threshold: 10, ChunkSize: 30}
	want := compose(t, data, p)

	// products with partsPerWorker that wrap to negative and to zero
	for _, workers := range []int{math.MaxInt, math.MaxInt/partsPerWorker + 1, MaxPartWorkers + 1} {
		assert.Equal(t, want, compose(t, data, p, WithPartWorkers(workers)), "workers %d", workers)
	}
}

func TestCompose_ZeroPlan(t *testing.T) {
	_, err := Compose(context.Background(), NewBytesSource("x", nil), Plan{})
	assert.ErrorIs(t, err, ErrInvalidConfiguration)
}

func TestPartDigests_ReadsInPartOrder(t *testing.T) {
	data := []byte("0123456789")
	src := NewBytesSource("digits", data)
	plan, err := NewPlan(src.Size(), Policy{Threshold: 1, ChunkSize: 3})
	require.NoError(t, err)

	r := &partDigests{ctx: context.Background(), src: src, plan: plan, digester: MD5, workers: 2}
	got, err := io.ReadAll(r)
	require.NoError(t, err)

	var want []byte
	for _, part := range [][]byte{data[0:3], data[3:6], data[6:9], data[9:10]} {
		sum := Sum(MD5, part)
		want = append(want, sum[:]...)
	}
	assert.True(t, bytes.Equal(want, got))
}
