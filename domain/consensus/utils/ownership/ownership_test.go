package ownership

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStandardHashLock(t *testing.T) {
	condition := NewHashLockCondition([]byte("miner secret"))
	require.Len(t, condition, hashLockConditionLength)
	require.False(t, IsUnspendable(condition))

	require.True(t, Standard.CheckOwnership(condition, []byte("miner secret")))
	require.False(t, Standard.CheckOwnership(condition, []byte("wrong secret")))
	require.False(t, Standard.CheckOwnership(condition, nil))
	require.False(t, Standard.CheckOwnership(condition[:10], []byte("miner secret")))
}

func TestStandardOtherConditions(t *testing.T) {
	require.True(t, Standard.CheckOwnership(nil, []byte("anything")))
	require.True(t, Standard.CheckOwnership([]byte{}, nil))

	unknown := []byte{0x7f, 1, 2}
	require.True(t, IsUnspendable(unknown))
	require.False(t, Standard.CheckOwnership(unknown, nil))
}

func TestAnyoneCanSpendAndFunc(t *testing.T) {
	require.True(t, AnyoneCanSpend.CheckOwnership([]byte{0x7f}, nil))

	rejectAll := CheckerFunc(func(_, _ []byte) bool { return false })
	require.False(t, rejectAll.CheckOwnership(nil, nil))
}
