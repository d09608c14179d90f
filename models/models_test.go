package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuestionsValueScan(t *testing.T) {
	in := Questions{{Prompt: "2+2?", Options: []string{"3", "4"}, Answer: 1}}
	v, err := in.Value()
	require.NoError(t, err)

	var out Questions
	require.NoError(t, out.Scan(v))
	assert.Equal(t, in, out)

	require.NoError(t, out.Scan(`[{"prompt":"p","options":["a","b"],"answer":0}]`))
	assert.Equal(t, "p", out[0].Prompt)

	require.NoError(t, out.Scan(nil))
	assert.Nil(t, out)

	assert.Error(t, out.Scan(42))
}

func TestBattleIsParticipant(t *testing.T) {
	b := &Battle{ChallengerID: "a", OpponentID: "b"}
	assert.True(t, b.IsParticipant("a"))
	assert.True(t, b.IsParticipant("b"))
	assert.False(t, b.IsParticipant("c"))
	assert.False(t, b.IsParticipant(""))
}

func TestUserWallet(t *testing.T) {
	u := &User{}
	assert.False(t, u.HasWallet())
	assert.Empty(t, u.Wallet())

	addr := "0x1111111111111111111111111111111111111111"
	u.WalletAddress = &addr
	assert.True(t, u.HasWallet())
	assert.Equal(t, addr, u.Wallet())
}

func TestDefaultAuraLevelsAscending(t *testing.T) {
	require.NotEmpty(t, DefaultAuraLevels)
	assert.Zero(t, DefaultAuraLevels[0].MinStreak)
	for i := 1; i < len(DefaultAuraLevels); i++ {
		assert.Greater(t, DefaultAuraLevels[i].MinStreak, DefaultAuraLevels[i-1].MinStreak)
		assert.Greater(t, DefaultAuraLevels[i].Multiplier, DefaultAuraLevels[i-1].Multiplier)
	}
}
