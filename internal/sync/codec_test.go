package sync

import (
	"testing"

	"github.com/evanofslack/stockpoker/internal/game"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCodecRoundTrip(t *testing.T) {
	s := newBettingSession(t)
	require.NoError(t, s.PlaceBet("a", 50))
	require.NoError(t, s.Fold("b"))
	require.Equal(t, game.PhaseStockSelection, s.Phase, "sole survivor should resolve into the next round")

	fields, err := encodeSession(s)
	require.NoError(t, err)

	decoded, err := decodeSession(fields)
	require.NoError(t, err)

	assert.Equal(t, s.ID, decoded.ID)
	assert.Equal(t, s.CreatorID, decoded.CreatorID)
	assert.Equal(t, s.TotalRounds, decoded.TotalRounds)
	assert.Equal(t, s.CurrentRound, decoded.CurrentRound)
	assert.Equal(t, s.Phase, decoded.Phase)
	assert.Equal(t, s.TurnIndex, decoded.TurnIndex)
	assert.Equal(t, s.Started, decoded.Started)
	assert.Equal(t, s.Completed, decoded.Completed)
	assert.Equal(t, s.Version, decoded.Version)

	require.Len(t, decoded.Players, 2)
	assert.Equal(t, "alice", decoded.Players[0].Username)
	assert.Equal(t, s.GetPlayer("a").Chips, decoded.GetPlayer("a").Chips)
	assert.Equal(t, s.GetPlayer("b").Chips, decoded.GetPlayer("b").Chips)

	r := decoded.Round(1)
	require.NotNil(t, r)
	assert.Equal(t, "NASDAQ:AAPL", r.SelectedStock)
	assert.Equal(t, int64(15000), r.Predictions["a"])
	assert.Equal(t, int64(15100), r.Predictions["b"])
	assert.Equal(t, int64(50), r.Bets["a"].Amount)
	assert.True(t, r.Bets["b"].Folded)
	assert.Equal(t, "b", r.LastFold)
	assert.Equal(t, []string{"a"}, r.Winners)
	assert.Equal(t, int64(0), r.Pot, "resolved pot is paid out")

	r2 := decoded.Round(2)
	require.NotNil(t, r2)
	assert.Empty(t, r2.Predictions)
}

func TestCodecChipLeafOverridesPlayersSnapshot(t *testing.T) {
	s := newBettingSession(t)
	fields, err := encodeSession(s)
	require.NoError(t, err)

	// A competing writer committed a fresher chip balance for bob after our
	// players snapshot was taken.
	fields["players/b/chips"] = "925"

	decoded, err := decodeSession(fields)
	require.NoError(t, err)
	assert.Equal(t, int64(925), decoded.GetPlayer("b").Chips)
	assert.Equal(t, int64(1000), decoded.GetPlayer("a").Chips)
}

func TestCodecFinalPriceLeaf(t *testing.T) {
	s := newBettingSession(t)
	require.NoError(t, s.SetBetTotal("a", 50))
	require.NoError(t, s.SetBetTotal("b", 50))
	for _, phase := range []game.Phase{game.PhaseBetting2, game.PhaseBetting3, game.PhaseBetting4} {
		require.NoError(t, s.AdvanceInterlude("a"))
		require.Equal(t, phase, s.Phase)
		require.NoError(t, s.SetBetTotal("a", 50))
		require.NoError(t, s.SetBetTotal("b", 50))
	}
	require.Equal(t, game.PhaseWinnerAnnouncement, s.Phase)
	require.NoError(t, s.AnnouncePrice("a", 15040))

	fields, err := encodeSession(s)
	require.NoError(t, err)
	decoded, err := decodeSession(fields)
	require.NoError(t, err)

	r := decoded.Round(1)
	require.NotNil(t, r.FinalPrice)
	assert.Equal(t, int64(15040), *r.FinalPrice)
	assert.Equal(t, []string{"a"}, r.Winners)
}

func TestDecodeRejectsUnknownPath(t *testing.T) {
	s := newBettingSession(t)
	fields, err := encodeSession(s)
	require.NoError(t, err)
	fields["rounds/1/mystery"] = "42"

	_, err = decodeSession(fields)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mystery")
}
