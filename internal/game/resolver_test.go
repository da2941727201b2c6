package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func resolverFixture(pot int64) ([]*Player, *Round) {
	players := []*Player{
		{UID: "a", Chips: 1000},
		{UID: "b", Chips: 1000},
		{UID: "c", Chips: 1000},
	}
	r := newRound(1)
	r.Pot = pot
	return players, r
}

// Scenario: actual price 155.75, a predicted 156.50 (off by 0.75),
// b predicted 160.25 (off by 4.50). a takes the whole pot.
func TestResolveClosestPredictionWins(t *testing.T) {
	players, r := resolverFixture(100)
	r.Predictions["a"] = 15650
	r.Predictions["b"] = 16025
	r.Predictions["c"] = 17000

	res := Resolve(players, r, 15575)
	assert.Equal(t, []string{"a"}, res.Winners)
	assert.Equal(t, int64(100), res.Share)
	assert.Equal(t, int64(0), res.Remainder)
	assert.False(t, res.Degenerate)
}

// Scenario: two players tied at the same distance on a pot of 225; each
// receives floor(225/2) and the odd chip stays undistributed.
func TestResolveTieSplitsPotFloorDivision(t *testing.T) {
	players, r := resolverFixture(225)
	r.Predictions["a"] = 15650 // off by 75
	r.Predictions["b"] = 15500 // off by 75
	r.Predictions["c"] = 20000

	res := Resolve(players, r, 15575)
	assert.Equal(t, []string{"a", "b"}, res.Winners)
	assert.Equal(t, int64(112), res.Share)
	assert.Equal(t, int64(1), res.Remainder)
}

func TestResolveFoldedPlayerCannotWin(t *testing.T) {
	players, r := resolverFixture(90)
	r.Predictions["a"] = 15575 // exact, but folded
	r.Predictions["b"] = 15000
	r.Predictions["c"] = 14000
	r.bet("a").Folded = true

	res := Resolve(players, r, 15575)
	assert.Equal(t, []string{"b"}, res.Winners)
}

func TestResolveMissingPredictionExcluded(t *testing.T) {
	players, r := resolverFixture(60)
	// a never predicted; still contributes to the pot but cannot win.
	r.bet("a").Amount = 20
	r.Predictions["b"] = 15000
	r.Predictions["c"] = 14000

	res := Resolve(players, r, 15575)
	assert.Equal(t, []string{"b"}, res.Winners)
	assert.Equal(t, int64(60), res.Share)
}

func TestResolveSoleSurvivorSkipsComparison(t *testing.T) {
	players, r := resolverFixture(75)
	// b would win on prediction distance, but everyone except c folded.
	r.Predictions["b"] = 15575
	r.Predictions["c"] = 99999
	r.bet("a").Folded = true
	r.bet("b").Folded = true

	res := Resolve(players, r, 15575)
	assert.Equal(t, []string{"c"}, res.Winners)
	assert.Equal(t, int64(75), res.Share)
}

func TestResolveAllFoldedAwardsLastFolder(t *testing.T) {
	players, r := resolverFixture(120)
	r.bet("a").Folded = true
	r.bet("b").Folded = true
	r.bet("c").Folded = true
	r.LastFold = "c"

	res := resolveSurvivor(players, r)
	require.True(t, res.Degenerate)
	assert.Equal(t, []string{"c"}, res.Winners)
	assert.Equal(t, int64(120), res.Share)
}

func TestResolveDeterministic(t *testing.T) {
	players, r := resolverFixture(225)
	r.Predictions["a"] = 15650
	r.Predictions["b"] = 15500
	r.Predictions["c"] = 20000

	first := Resolve(players, r, 15575)
	for i := 0; i < 10; i++ {
		again := Resolve(players, r, 15575)
		assert.Equal(t, first.Winners, again.Winners)
		assert.Equal(t, first.Share, again.Share)
		assert.Equal(t, first.Remainder, again.Remainder)
	}
}
