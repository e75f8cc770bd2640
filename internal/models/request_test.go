package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validForm() OrderForm {
	return OrderForm{
		Name:               "Test Customer",
		Email:              "customer@example.com",
		Phone:              "+1 555 123 4567",
		ProjectType:        "Website",
		ProjectBudget:      "$100-$500",
		Timeline:           time.Now().AddDate(0, 1, 0).Format("2006-01-02"),
		ProjectDescription: "A marketing site with a small CMS behind it.",
		PaymentReference:   "ref-123",
		PaymentMethod:      "Stripe",
	}
}

func marshalForm(t *testing.T, f OrderForm) string {
	raw, err := json.Marshal(f)
	require.NoError(t, err)
	return string(raw)
}

func TestParseOrderFormValid(t *testing.T) {
	form, err := ParseOrderForm(marshalForm(t, validForm()))
	require.NoError(t, err)
	assert.Equal(t, "Website", form.ProjectType)
}

func TestParseOrderFormRejectsBadJSON(t *testing.T) {
	_, err := ParseOrderForm("{not json")
	assert.Error(t, err)
}

func TestParseOrderFormRejectsUnknownProjectType(t *testing.T) {
	f := validForm()
	f.ProjectType = "Blockchain"
	_, err := ParseOrderForm(marshalForm(t, f))
	assert.Error(t, err)
}

func TestParseOrderFormRejectsUnknownBudget(t *testing.T) {
	f := validForm()
	f.ProjectBudget = "$1-$2"
	_, err := ParseOrderForm(marshalForm(t, f))
	assert.Error(t, err)
}

func TestParseOrderFormRejectsBadPhone(t *testing.T) {
	f := validForm()
	f.Phone = "call me maybe"
	_, err := ParseOrderForm(marshalForm(t, f))
	assert.Error(t, err)
}

func TestParseOrderFormRejectsPastTimeline(t *testing.T) {
	f := validForm()
	f.Timeline = "2020-01-01"
	_, err := ParseOrderForm(marshalForm(t, f))
	assert.Error(t, err)
}

func TestTimelineDateAcceptsRFC3339(t *testing.T) {
	f := validForm()
	f.Timeline = time.Now().AddDate(0, 1, 0).Format(time.RFC3339)
	form, err := ParseOrderForm(marshalForm(t, f))
	require.NoError(t, err)

	deadline, err := form.TimelineDate()
	require.NoError(t, err)
	assert.True(t, deadline.After(time.Now()))
}
