package services

import (
	"context"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var orderIDPattern = regexp.MustCompile(`^[A-Z]{2,3}\d{4}$`)

func TestRandomOrderIDFormat(t *testing.T) {
	for i := 0; i < 200; i++ {
		id := randomOrderID()
		assert.Regexp(t, orderIDPattern, id)
	}
}

func TestGenerateOrderIDRetriesOnCollision(t *testing.T) {
	orders := newFakeOrderStore()
	orders.existsTrueFor = 3

	svc := NewOrderService(orders, newFakeTempStore(), newFakeUserStore(), newFakeCancelStore(),
		newFakeStorage(), newFakePayments(), &fakeOutbox{}, &fakeHub{}, zap.NewNop(), "http://localhost:3000")

	id, err := svc.GenerateOrderID(context.Background())
	require.NoError(t, err)
	assert.Regexp(t, orderIDPattern, id)
	assert.Equal(t, 4, orders.existsCalls)
}
