package session

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStreamRegistryTracksActiveStream(t *testing.T) {
	reg := NewStreamRegistry()
	assert.False(t, reg.Active("sess-1"))

	_, cancel := context.WithCancel(context.Background())
	release := reg.Begin("sess-1", cancel)
	assert.True(t, reg.Active("sess-1"))
	assert.False(t, reg.Active("sess-2"))

	release()
	assert.False(t, reg.Active("sess-1"))
}

func TestStreamRegistryNewStreamCancelsPrevious(t *testing.T) {
	reg := NewStreamRegistry()

	ctx1, cancel1 := context.WithCancel(context.Background())
	reg.Begin("sess-1", cancel1)

	ctx2, cancel2 := context.WithCancel(context.Background())
	defer cancel2()
	reg.Begin("sess-1", cancel2)

	// 旧流的上下文被取消，新流保持活跃
	require.Error(t, ctx1.Err())
	require.NoError(t, ctx2.Err())
	assert.True(t, reg.Active("sess-1"))
}

func TestStreamRegistryStaleReleaseKeepsSuccessor(t *testing.T) {
	reg := NewStreamRegistry()

	_, cancel1 := context.WithCancel(context.Background())
	release1 := reg.Begin("sess-1", cancel1)

	_, cancel2 := context.WithCancel(context.Background())
	defer cancel2()
	reg.Begin("sess-1", cancel2)

	// 旧流收尾时不得摘掉后继流的登记
	release1()
	assert.True(t, reg.Active("sess-1"))
}

func TestStreamRegistryCancelActive(t *testing.T) {
	reg := NewStreamRegistry()

	ctx, cancel := context.WithCancel(context.Background())
	reg.Begin("sess-1", cancel)

	reg.CancelActive("sess-1")
	require.Error(t, ctx.Err())
	assert.False(t, reg.Active("sess-1"))

	// 无活跃流时为空操作
	reg.CancelActive("sess-1")
}

func TestStreamRegistrySessionsAreIndependent(t *testing.T) {
	reg := NewStreamRegistry()

	ctxA, cancelA := context.WithCancel(context.Background())
	defer cancelA()
	reg.Begin("sess-a", cancelA)

	_, cancelB := context.WithCancel(context.Background())
	defer cancelB()
	reg.Begin("sess-b", cancelB)

	reg.CancelActive("sess-b")
	require.NoError(t, ctxA.Err())
	assert.True(t, reg.Active("sess-a"))
	assert.False(t, reg.Active("sess-b"))
}
