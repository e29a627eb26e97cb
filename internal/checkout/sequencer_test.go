package checkout

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBegin_Gates(t *testing.T) {
	_, err := Begin(true, true)
	require.ErrorIs(t, err, ErrEmptyCart)

	_, err = Begin(false, false)
	require.ErrorIs(t, err, ErrNotAuthenticated)

	seq, err := Begin(false, true)
	require.NoError(t, err)
	assert.Equal(t, StepDeliveryInfo, seq.Step)
}

func TestNext_StopsAtTerminal(t *testing.T) {
	seq, err := Begin(false, true)
	require.NoError(t, err)

	seq = seq.Next()
	assert.Equal(t, StepReview, seq.Step)
	seq = seq.Next()
	assert.Equal(t, StepPayment, seq.Step)

	// no-op at the terminal step
	seq = seq.Next()
	assert.Equal(t, StepPayment, seq.Step)
}

func TestBack_FirstStepCancels(t *testing.T) {
	seq, err := Begin(false, true)
	require.NoError(t, err)

	seq = seq.WithInfo(DeliveryInfo{Address: "1 Main St", Phone: "555-0100"})
	seq = seq.Back()
	assert.True(t, seq.Cancelled)
	// checkout-local state is discarded on cancel
	assert.Empty(t, seq.Info.Address)
}

func TestBack_ReturnsOneStep(t *testing.T) {
	seq, _ := Begin(false, true)
	seq = seq.Next().Next()
	require.Equal(t, StepPayment, seq.Step)

	seq = seq.Back()
	assert.Equal(t, StepReview, seq.Step)
	assert.False(t, seq.Cancelled)
}

func TestValidate(t *testing.T) {
	seq, _ := Begin(false, true)

	err := seq.Validate()
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "address", verr.Field)

	seq = seq.WithInfo(DeliveryInfo{Address: "1 Main St"})
	err = seq.Validate()
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "phone", verr.Field)

	seq = seq.WithInfo(DeliveryInfo{Address: "1 Main St", Phone: "555-0100"})
	assert.NoError(t, seq.Validate())
}

func TestInfoSharedAcrossSteps(t *testing.T) {
	seq, _ := Begin(false, true)
	seq = seq.WithInfo(DeliveryInfo{Address: "1 Main St", Phone: "555-0100", Notes: "ring twice"})

	seq = seq.Next().Next()
	assert.Equal(t, "1 Main St", seq.Info.Address)
	assert.Equal(t, "ring twice", seq.Info.Notes)
}
