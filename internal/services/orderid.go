package services

import (
	"context"
	"fmt"
	"math/rand"
)

const letters = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"

// maxOrderIDAttempts bounds the uniqueness loop; with ~7 million possible
// ids it only trips if the keyspace is nearly exhausted.
const maxOrderIDAttempts = 100

func randomOrderID() string {
	n := 2 + rand.Intn(2) // 2 or 3 letters
	id := make([]byte, 0, n+4)
	for i := 0; i < n; i++ {
		id = append(id, letters[rand.Intn(len(letters))])
	}
	for i := 0; i < 4; i++ {
		id = append(id, byte('0'+rand.Intn(10)))
	}
	return string(id)
}

// GenerateOrderID produces a human-readable order id (2-3 uppercase
// letters followed by 4 digits) that does not collide with an existing
// order.
func (s *OrderService) GenerateOrderID(ctx context.Context) (string, error) {
	for i := 0; i < maxOrderIDAttempts; i++ {
		id := randomOrderID()
		exists, err := s.orders.OrderIDExists(ctx, id)
		if err != nil {
			return "", fmt.Errorf("failed to check order id: %w", err)
		}
		if !exists {
			return id, nil
		}
	}
	return "", fmt.Errorf("could not generate a unique order id after %d attempts", maxOrderIDAttempts)
}
