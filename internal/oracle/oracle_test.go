package oracle

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManualOracle(t *testing.T) {
	ctx := context.Background()
	o := NewManualOracle()

	_, err := o.GetFinalPrice(ctx, "NASDAQ:AAPL")
	assert.ErrorIs(t, err, ErrPriceNotAnnounced)

	o.Announce("NASDAQ:AAPL", 15575)
	price, err := o.GetFinalPrice(ctx, "NASDAQ:AAPL")
	require.NoError(t, err)
	assert.Equal(t, int64(15575), price)

	// Later announcements replace earlier ones.
	o.Announce("NASDAQ:AAPL", 15580)
	price, err = o.GetFinalPrice(ctx, "NASDAQ:AAPL")
	require.NoError(t, err)
	assert.Equal(t, int64(15580), price)
}
