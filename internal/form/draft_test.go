package form

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDraftPutEnforcesOrder(t *testing.T) {
	var d Draft
	assert.Equal(t, StepStoneType, d.Pending())
	assert.ErrorIs(t, d.Put(StepQuantity, "10"), ErrOutOfOrder)
	assert.Empty(t, d.Quantity)

	require.NoError(t, d.Put(StepStoneType, "Гранит"))
	require.NoError(t, d.Put(StepQuantity, "10 м"))
	require.NoError(t, d.Put(StepPallets, "0012"))
	assert.Equal(t, 12, d.Pallets())
	assert.Equal(t, StepDestination, d.Pending())

	assert.ErrorIs(t, d.AddPhoto("p"), ErrOutOfOrder)
	assert.ErrorIs(t, d.Put(StepPrice, "100"), ErrOutOfOrder)
}

func TestDraftPhotos(t *testing.T) {
	var d Draft
	for _, kv := range []struct {
		step  Step
		value string
	}{
		{StepStoneType, "Гранит"}, {StepQuantity, "1"}, {StepPallets, "1"},
		{StepDestination, "Бухара"}, {StepPhone, "998901234567"},
	} {
		require.NoError(t, d.Put(kv.step, kv.value))
	}
	assert.Equal(t, StepPhotos, d.Pending())

	for i := 0; i < 4; i++ {
		require.NoError(t, d.AddPhoto("p"))
	}
	assert.ErrorIs(t, d.AddPhoto("p5"), ErrPhotoLimit)
	assert.Len(t, d.PhotoRefs, 4)

	snap := d.Snapshot()
	snap.PhotoRefs[0] = "changed"
	assert.Equal(t, "p", d.PhotoRefs[0])

	require.NoError(t, d.Put(StepPrice, "100"))
	assert.ErrorIs(t, d.AddPhoto("late"), ErrOutOfOrder)
}
