package payments

import "fmt"

// Intent discriminates what a checkout session pays for.
type Intent string

const (
	// IntentInitialPayment is the 50% deposit collected at order intake.
	IntentInitialPayment Intent = "initial_payment"
	// IntentRemainingPayment is the balance collected when deliverables
	// are ready.
	IntentRemainingPayment Intent = "remaining_payment"
)

// SessionMetadata is the typed view of a checkout session's metadata bag.
// Which fields are meaningful depends on Intent.
type SessionMetadata struct {
	Intent Intent

	// initial_payment
	UserID    string
	TempID    string
	OrderData string

	// remaining_payment
	OrderID    string
	FileMeta   string
	Message    string
	FolderPath string
}

func InitialPaymentMetadata(userID, tempID, orderData string) SessionMetadata {
	return SessionMetadata{
		Intent:    IntentInitialPayment,
		UserID:    userID,
		TempID:    tempID,
		OrderData: orderData,
	}
}

func RemainingPaymentMetadata(orderID, fileMeta, message, folderPath string) SessionMetadata {
	return SessionMetadata{
		Intent:     IntentRemainingPayment,
		OrderID:    orderID,
		FileMeta:   fileMeta,
		Message:    message,
		FolderPath: folderPath,
	}
}

// Encode flattens the metadata into the string map Stripe stores.
func (m SessionMetadata) Encode() map[string]string {
	out := map[string]string{"intent": string(m.Intent)}
	switch m.Intent {
	case IntentInitialPayment:
		out["userId"] = m.UserID
		out["tempId"] = m.TempID
		out["orderData"] = m.OrderData
	case IntentRemainingPayment:
		out["orderId"] = m.OrderID
		out["fileMeta"] = m.FileMeta
		out["message"] = m.Message
		out["folderPath"] = m.FolderPath
	}
	return out
}

// ParseSessionMetadata reconstructs the typed metadata from a session's
// string map and validates the fields its intent requires.
func ParseSessionMetadata(raw map[string]string) (SessionMetadata, error) {
	m := SessionMetadata{
		Intent:     Intent(raw["intent"]),
		UserID:     raw["userId"],
		TempID:     raw["tempId"],
		OrderData:  raw["orderData"],
		OrderID:    raw["orderId"],
		FileMeta:   raw["fileMeta"],
		Message:    raw["message"],
		FolderPath: raw["folderPath"],
	}

	// Sessions created before the intent tag existed are classified by
	// which fields they carry.
	if m.Intent == "" {
		switch {
		case m.OrderData != "" && m.TempID != "":
			m.Intent = IntentInitialPayment
		case m.OrderID != "" && m.FileMeta != "":
			m.Intent = IntentRemainingPayment
		default:
			return SessionMetadata{}, fmt.Errorf("session metadata has no recognizable intent")
		}
	}

	switch m.Intent {
	case IntentInitialPayment:
		if m.UserID == "" || m.TempID == "" || m.OrderData == "" {
			return SessionMetadata{}, fmt.Errorf("initial payment metadata is missing userId, tempId or orderData")
		}
	case IntentRemainingPayment:
		if m.OrderID == "" || m.FileMeta == "" {
			return SessionMetadata{}, fmt.Errorf("remaining payment metadata is missing orderId or fileMeta")
		}
	default:
		return SessionMetadata{}, fmt.Errorf("unknown session intent %q", m.Intent)
	}

	return m, nil
}
