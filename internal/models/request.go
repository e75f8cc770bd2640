package models

import (
	"encoding/json"
	"fmt"
	"regexp"
	"time"

	"github.com/go-playground/validator/v10"
)

var (
	formValidate = validator.New()
	phonePattern = regexp.MustCompile(`^\+?[0-9\s\-()]{7,20}$`)
)

// OrderForm is the customer-supplied order payload. It travels as a JSON
// string: a multipart field on intake and later inside Stripe session
// metadata, so it is parsed with ParseOrderForm rather than bound by gin.
type OrderForm struct {
	Name               string `json:"name" validate:"required,min=3,max=50"`
	Email              string `json:"email" validate:"required,email,max=100"`
	Phone              string `json:"phone" validate:"required"`
	ProjectType        string `json:"projectType" validate:"required,oneof=Website 'Mobile App' UI/UX SEO 'Bug Fixing' Wordpress"`
	ProjectBudget      string `json:"projectBudget" validate:"required,oneof=$100-$500 $500-$1000 $1000-$5000 $5000+"`
	Timeline           string `json:"timeline" validate:"required"`
	ProjectDescription string `json:"projectDescription" validate:"required,min=10,max=499"`
	PaymentReference   string `json:"paymentReference" validate:"required"`
	PaymentMethod      string `json:"paymentMethod" validate:"required,oneof=JazzCash 'Bank Transfer' Stripe"`
}

// ParseOrderForm decodes and validates a raw order form JSON string.
func ParseOrderForm(raw string) (*OrderForm, error) {
	var form OrderForm
	if err := json.Unmarshal([]byte(raw), &form); err != nil {
		return nil, fmt.Errorf("invalid order data: %w", err)
	}
	if err := form.Validate(); err != nil {
		return nil, err
	}
	return &form, nil
}

func (f *OrderForm) Validate() error {
	if err := formValidate.Struct(f); err != nil {
		return fmt.Errorf("invalid order data: %w", err)
	}
	if !phonePattern.MatchString(f.Phone) {
		return fmt.Errorf("invalid order data: phone number is not valid")
	}
	deadline, err := f.TimelineDate()
	if err != nil {
		return err
	}
	if !deadline.After(time.Now()) {
		return fmt.Errorf("invalid order data: timeline must be a future date")
	}
	return nil
}

// TimelineDate parses the timeline as either a plain date or RFC3339.
func (f *OrderForm) TimelineDate() (time.Time, error) {
	if t, err := time.Parse("2006-01-02", f.Timeline); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, f.Timeline)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid order data: timeline must be a date: %w", err)
	}
	return t, nil
}

type CreateCheckoutSessionRequest struct {
	Amount    int64  `json:"amount" binding:"required,gt=0"`
	OrderData string `json:"orderData" binding:"required"`
	TempID    string `json:"tempId" binding:"required"`
}

type FinalizeOrderRequest struct {
	SessionID string `json:"sessionId" binding:"required"`
}

type RegisterRequest struct {
	Name     string `json:"name" binding:"required,min=3,max=50"`
	Email    string `json:"email" binding:"required,email"`
	Phone    string `json:"phone"`
	Password string `json:"password" binding:"required,min=8"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type OTPRequest struct {
	Email string `json:"email" binding:"required,email"`
}

type OTPVerifyRequest struct {
	Email string `json:"email" binding:"required,email"`
	Code  string `json:"code" binding:"required,len=6"`
}

type GoogleLoginRequest struct {
	Code string `json:"code" binding:"required"`
}

type ContactRequest struct {
	Name    string `json:"name" binding:"required,min=2,max=50"`
	Email   string `json:"email" binding:"required,email"`
	Message string `json:"message" binding:"required,min=10,max=1000"`
}

type ScheduleMeetingRequest struct {
	ServiceID string `json:"serviceId" binding:"required"`
	Date      string `json:"date" binding:"required"`
	Time      string `json:"time" binding:"required"`
}

type RescheduleMeetingRequest struct {
	Date string `json:"date" binding:"required"`
	Time string `json:"time" binding:"required"`
}

type CancelRequestCreate struct {
	OrderID string `json:"orderId" binding:"required"`
	Reason  string `json:"reason" binding:"required,min=10,max=500"`
}

type AdminCancelOrderRequest struct {
	Reason string `json:"reason" binding:"required,min=5,max=500"`
}

type ServiceRequest struct {
	Title       string  `json:"title" binding:"required,min=3,max=100"`
	Description string  `json:"description" binding:"required,min=10,max=1000"`
	Price       float64 `json:"price" binding:"required,gt=0"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
