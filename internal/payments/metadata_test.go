package payments

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionMetadataRoundTrip(t *testing.T) {
	initial := InitialPaymentMetadata("user-1", "temp-1", `{"name":"x"}`)
	parsed, err := ParseSessionMetadata(initial.Encode())
	require.NoError(t, err)
	assert.Equal(t, IntentInitialPayment, parsed.Intent)
	assert.Equal(t, "user-1", parsed.UserID)
	assert.Equal(t, "temp-1", parsed.TempID)

	remaining := RemainingPaymentMetadata("order-1", `[{"name":"f"}]`, "note", "completed_orders/x")
	parsed, err = ParseSessionMetadata(remaining.Encode())
	require.NoError(t, err)
	assert.Equal(t, IntentRemainingPayment, parsed.Intent)
	assert.Equal(t, "order-1", parsed.OrderID)
	assert.Equal(t, "completed_orders/x", parsed.FolderPath)
}

func TestParseSessionMetadataLegacyInference(t *testing.T) {
	// sessions created before the intent tag: classified by field shape
	parsed, err := ParseSessionMetadata(map[string]string{
		"userId":    "user-1",
		"tempId":    "temp-1",
		"orderData": `{"name":"x"}`,
	})
	require.NoError(t, err)
	assert.Equal(t, IntentInitialPayment, parsed.Intent)

	parsed, err = ParseSessionMetadata(map[string]string{
		"orderId":  "order-1",
		"fileMeta": `[]`,
	})
	require.NoError(t, err)
	assert.Equal(t, IntentRemainingPayment, parsed.Intent)
}

func TestParseSessionMetadataRejectsIncomplete(t *testing.T) {
	_, err := ParseSessionMetadata(map[string]string{})
	assert.Error(t, err)

	_, err = ParseSessionMetadata(map[string]string{"intent": "initial_payment"})
	assert.Error(t, err)

	_, err = ParseSessionMetadata(map[string]string{"intent": "remaining_payment", "orderId": "o"})
	assert.Error(t, err)

	_, err = ParseSessionMetadata(map[string]string{"intent": "something_else"})
	assert.Error(t, err)
}
