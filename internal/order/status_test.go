package order

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseStatus(t *testing.T) {
	for _, s := range Statuses {
		got, err := ParseStatus(string(s))
		require.NoError(t, err)
		assert.Equal(t, s, got)
	}
	_, err := ParseStatus("refunded")
	assert.ErrorIs(t, err, ErrInvalidStatus)
	assert.False(t, Status("").Valid())
}

func TestDisplay(t *testing.T) {
	assert.Equal(t, Presentation{"Delivered", "Your order has been delivered successfully.", "CheckCircle", "green"}, Display(StatusCompleted))
	assert.Equal(t, "red", Display(StatusCancelled).Color)
	assert.Equal(t, "Order Placed", Display("weird").Label)
}

func complete(t Tracker) []bool {
	out := make([]bool, len(t.Steps))
	for i, s := range t.Steps {
		out[i] = s.Complete
	}
	return out
}

func TestProgress(t *testing.T) {
	tests := []struct {
		status Status
		index  int
		done   []bool
	}{
		{StatusPending, 0, []bool{true, false, false, false}},
		{StatusProcessing, 1, []bool{true, true, false, false}},
		{StatusShipped, 2, []bool{true, true, true, false}},
		{StatusCompleted, 3, []bool{true, true, true, true}},
		{StatusCancelled, -1, []bool{false, false, false, false}},
	}
	for _, tc := range tests {
		t.Run(string(tc.status), func(t *testing.T) {
			tr := Progress(tc.status)
			assert.Equal(t, tc.index, tr.Index)
			assert.Equal(t, tc.done, complete(tr))
			assert.Len(t, tr.Steps, 4, "cancelled is never a tracker step")
			assert.Equal(t, tc.status == StatusCancelled, tr.Cancelled)
		})
	}
}

func TestReference(t *testing.T) {
	assert.Equal(t, "3F2A9C1B", Reference("3f2a9c1b-aaaa-bbbb-cccc-000000000000"))
	assert.Equal(t, "ABC", Reference("abc"))
}
