package redis

import (
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// matchesPattern 与 InvalidatePattern 使用的 Redis glob 语义一致
// （本用例只含 * 通配，filepath.Match 等价）
func matchesPattern(t *testing.T, pattern, key string) bool {
	t.Helper()
	ok, err := filepath.Match(pattern, key)
	require.NoError(t, err)
	return ok
}

func TestProfileKeyOutsideSessionInvalidationScope(t *testing.T) {
	sid := "sess-42"
	pattern := fmt.Sprintf("session:%s:*", sid)

	// 画像不是派生缓存：会话失效绝不能波及画像键
	assert.False(t, matchesPattern(t, pattern, profileKey(sid)))
}

func TestReadThroughKeysInsideInvalidationScope(t *testing.T) {
	sid := "sess-42"
	sessionPattern := fmt.Sprintf("session:%s:*", sid)

	assert.True(t, matchesPattern(t, sessionPattern, SessionDetailKey(sid)))
	assert.True(t, matchesPattern(t, sessionPattern, SessionTurnsKey(sid, 1, 50)))

	projectPattern := fmt.Sprintf("project:%d:*", int64(7))
	assert.True(t, matchesPattern(t, projectPattern, ProjectDetailKey(7)))
}

func TestSessionKeysDoNotCrossSessions(t *testing.T) {
	pattern := fmt.Sprintf("session:%s:*", "sess-a")
	assert.False(t, matchesPattern(t, pattern, SessionDetailKey("sess-b")))
	assert.False(t, matchesPattern(t, pattern, profileKey("sess-a")))
}
