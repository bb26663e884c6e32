package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"brand-studio-api/internal/domain/entity"
	"brand-studio-api/pkg/errors"
)

func TestIdentityStartsAsDraft(t *testing.T) {
	sess := entity.NewConversationSession("user-1", entity.ConversationKindBrand)
	m := NewIdentityManager(entity.ConversationKindBrand, sess)

	id := m.Resolve()
	assert.Equal(t, ProjectRefDraft, id.Ref.Kind)
	assert.Empty(t, id.Token)

	_, err := m.RequirePersisted()
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.CodeMissingIdentity))
}

func TestIdentityMintTokenOnlyOnce(t *testing.T) {
	m := NewIdentityManager(entity.ConversationKindBrand, nil)

	m.MintToken("  ")
	assert.Empty(t, m.Resolve().Token)

	m.MintToken("tok-1")
	m.MintToken("tok-2")
	assert.Equal(t, "tok-1", m.Resolve().Token)
}

func TestIdentityPromoteIsMonotonic(t *testing.T) {
	m := NewIdentityManager(entity.ConversationKindBrand, nil)
	m.UpdateDraft("카페 브랜드", "동네 카페")

	require.NoError(t, m.Promote(42, ""))
	id := m.Resolve()
	assert.True(t, id.Ref.Persisted())
	assert.Equal(t, int64(42), id.Ref.ID)
	// 服务端未返回规范令牌时退回十进制 ID
	assert.Equal(t, "42", id.Token)

	// 同一 ID 幂等
	require.NoError(t, m.Promote(42, ""))

	// 不同 ID 违反单调身份
	err := m.Promote(43, "")
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.CodeInvalidState))

	pid, err := m.RequirePersisted()
	require.NoError(t, err)
	assert.Equal(t, int64(42), pid)
}

func TestIdentityPromotePrefersServerToken(t *testing.T) {
	m := NewIdentityManager(entity.ConversationKindBrand, nil)
	m.MintToken("draft-token")

	require.NoError(t, m.Promote(7, "canonical-7"))
	assert.Equal(t, "canonical-7", m.Resolve().Token)
}

func TestIdentityUpdateDraftNoopAfterPromote(t *testing.T) {
	m := NewIdentityManager(entity.ConversationKindBrand, nil)
	require.NoError(t, m.Promote(5, ""))

	m.UpdateDraft("새 이름", "새 설명")
	id := m.Resolve()
	assert.True(t, id.Ref.Persisted())
	assert.Empty(t, id.Ref.Name)
}

func TestIdentityFromPersistedSession(t *testing.T) {
	sess := entity.NewConversationSession("user-1", entity.ConversationKindLogo)
	sess.BindProject(99)
	sess.SessionToken = "99"

	m := NewIdentityManager(entity.ConversationKindLogo, sess)
	id := m.Resolve()
	assert.True(t, id.Ref.Persisted())
	assert.Equal(t, int64(99), id.Ref.ID)
	assert.Equal(t, "99", id.Token)
}

func TestIdentitySnapshotWritesBack(t *testing.T) {
	sess := entity.NewConversationSession("user-1", entity.ConversationKindBrand)
	m := NewIdentityManager(entity.ConversationKindBrand, sess)

	m.MintToken("tok")
	require.NoError(t, m.Promote(12, ""))
	m.Snapshot(sess)

	require.NotNil(t, sess.ProjectID)
	assert.Equal(t, int64(12), *sess.ProjectID)
	assert.Equal(t, "12", sess.SessionToken)
}
