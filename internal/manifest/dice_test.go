package manifest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/suderio/turnflow/internal/engine"
)

func TestRollBasic(t *testing.T) {
	res, err := Roll(engine.NewRandom("basic"), "3d6")
	require.NoError(t, err)
	require.Len(t, res.RawRolls, 3)

	sum := 0
	for _, v := range res.RawRolls {
		assert.GreaterOrEqual(t, v, 1)
		assert.LessOrEqual(t, v, 6)
		sum += v
	}
	assert.Equal(t, sum, res.Total)
	assert.Empty(t, res.Dropped)
}

func TestRollAdvantageAndDisadvantage(t *testing.T) {
	res, err := Roll(engine.NewRandom("adv"), "1d20a")
	require.NoError(t, err)
	require.Len(t, res.RawRolls, 2)
	require.Len(t, res.Kept, 1)
	require.Len(t, res.Dropped, 1)
	assert.GreaterOrEqual(t, res.Kept[0], res.Dropped[0])

	res, err = Roll(engine.NewRandom("dis"), "d20d")
	require.NoError(t, err)
	require.Len(t, res.Kept, 1)
	assert.LessOrEqual(t, res.Kept[0], res.Dropped[0])
}

func TestRollKeepHighest(t *testing.T) {
	res, err := Roll(engine.NewRandom("stats"), "4d6kh3")
	require.NoError(t, err)
	require.Len(t, res.RawRolls, 4)
	require.Len(t, res.Kept, 3)
	require.Len(t, res.Dropped, 1)
	for _, k := range res.Kept {
		assert.GreaterOrEqual(t, k, res.Dropped[0])
	}
}

func TestRollModifier(t *testing.T) {
	res, err := Roll(engine.NewRandom("mod"), "1d1+5")
	require.NoError(t, err)
	assert.Equal(t, 6, res.Total)
	assert.Equal(t, 5, res.Modifier)

	res, err = Roll(engine.NewRandom("mod"), "2d1 - 3")
	require.NoError(t, err)
	assert.Equal(t, -1, res.Total)
}

func TestRollIsSeeded(t *testing.T) {
	a, err := Roll(engine.NewRandom("same"), "5d20")
	require.NoError(t, err)
	b, err := Roll(engine.NewRandom("same"), "5d20")
	require.NoError(t, err)
	assert.Equal(t, a.RawRolls, b.RawRolls)
}

func TestRollRejectsBadNotation(t *testing.T) {
	for _, notation := range []string{"", "d", "3x6", "2d0", "1d6+"} {
		_, err := Roll(engine.NewRandom("bad"), notation)
		assert.Error(t, err, notation)
	}
	_, err := Roll(nil, "1d6")
	assert.Error(t, err)
}

func TestRollFormula(t *testing.T) {
	ev, err := NewEvaluator()
	require.NoError(t, err)

	out, err := ev.Eval(`roll("2d1+1")`, Scope{Random: engine.NewRandom("cel")})
	require.NoError(t, err)
	assert.Equal(t, int64(3), out)

	_, err = ev.Eval(`roll("nope")`, Scope{Random: engine.NewRandom("cel")})
	assert.Error(t, err)
}
