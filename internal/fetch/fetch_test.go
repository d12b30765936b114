package fetch

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFetchRunsOnceUntilForced(t *testing.T) {
	calls := 0
	df := New(func(context.Context) (int, error) {
		calls++
		return calls * 10, nil
	})

	_, ok := df.Data()
	require.False(t, ok)

	v, err := df.Fetch(context.Background())
	require.NoError(t, err)
	require.Equal(t, 10, v)

	v, err = df.Fetch(context.Background())
	require.NoError(t, err)
	require.Equal(t, 10, v)
	require.Equal(t, 1, calls)

	v, err = df.ForceFetch(context.Background())
	require.NoError(t, err)
	require.Equal(t, 20, v)
	require.Equal(t, 2, calls)

	data, ok := df.Data()
	require.True(t, ok)
	require.Equal(t, 20, data)
	require.False(t, df.Loading())
}

func TestFetchErrorKeepsPreviousData(t *testing.T) {
	fail := false
	df := New(func(context.Context) (string, error) {
		if fail {
			return "", errors.New("boom")
		}
		return "ok", nil
	})

	_, err := df.Fetch(context.Background())
	require.NoError(t, err)

	fail = true
	v, err := df.ForceFetch(context.Background())
	require.EqualError(t, err, "boom")
	require.Equal(t, "ok", v)
	require.EqualError(t, df.Err(), "boom")

	data, ok := df.Data()
	require.True(t, ok)
	require.Equal(t, "ok", data)
}

func TestFetchWaitsForInFlightRequest(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{})
	df := New(func(context.Context) (string, error) {
		close(started)
		<-release
		return "loaded", nil
	})

	first := make(chan string, 1)
	go func() {
		v, _ := df.Fetch(context.Background())
		first <- v
	}()
	<-started
	require.True(t, df.Loading())

	second := make(chan string, 1)
	go func() {
		v, err := df.Fetch(context.Background())
		if err != nil {
			v = err.Error()
		}
		second <- v
	}()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := df.Fetch(ctx)
	require.ErrorIs(t, err, context.Canceled)

	close(release)
	require.Equal(t, "loaded", <-first)
	require.Equal(t, "loaded", <-second)
	require.False(t, df.Loading())
}
