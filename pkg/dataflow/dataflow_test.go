package dataflow

import (
	"context"
	"errors"
	"sort"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMapWithWorkers(t *testing.T) {
	ctx := context.Background()
	src := From(ctx, 1, 2, 3, 4, 5, 6)
	squared := Map(ctx, src, func(msg interface{}) (interface{}, error) {
		n := msg.(int)
		return n * n, nil
	}, WithWorkers(3), WithBufferSize(2))

	var got []int
	err := ForEach(ctx, squared, func(msg interface{}) error {
		got = append(got, msg.(int))
		return nil
	})
	assert.NoError(t, err)
	sort.Ints(got)
	assert.Equal(t, []int{1, 4, 9, 16, 25, 36}, got)
}

func TestMapErrorHandler(t *testing.T) {
	ctx := context.Background()
	var failures int32

	src := From(ctx, "a", "bad", "c")
	res := Map(ctx, src, func(msg interface{}) (interface{}, error) {
		if msg.(string) == "bad" {
			return nil, errors.New("bad item")
		}
		return msg, nil
	}, WithErrorHandler(func(err error) bool {
		atomic.AddInt32(&failures, 1)
		return true
	}))

	var got []interface{}
	assert.NoError(t, ForEach(ctx, res, func(msg interface{}) error {
		got = append(got, msg)
		return nil
	}))
	assert.Equal(t, []interface{}{"a", "c"}, got)
	assert.Equal(t, int32(1), atomic.LoadInt32(&failures))
}

func TestMapErrorHandlerStopsStage(t *testing.T) {
	ctx := context.Background()
	src := From(ctx, "bad", "b", "c")
	res := Map(ctx, src, func(msg interface{}) (interface{}, error) {
		if msg.(string) == "bad" {
			return nil, errors.New("bad item")
		}
		return msg, nil
	}, WithErrorHandler(func(error) bool { return false }))

	var got []interface{}
	assert.NoError(t, ForEach(ctx, res, func(msg interface{}) error {
		got = append(got, msg)
		return nil
	}))
	assert.Empty(t, got)
}

func TestForEachReturnsFirstError(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	boom := errors.New("boom")
	err := ForEach(ctx, From(ctx, 1, 2, 3), func(msg interface{}) error {
		if msg.(int) == 2 {
			return boom
		}
		return nil
	})
	assert.ErrorIs(t, err, boom)
}

func TestForEachCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	never := make(chan interface{})
	assert.ErrorIs(t, ForEach(ctx, never, func(interface{}) error { return nil }), context.Canceled)
}
