package models

import "time"

type StageOrderResponse struct {
	TempID        string   `json:"tempId"`
	PaymentAmount float64  `json:"paymentAmount"`
	Files         []string `json:"files"`
	FailedFiles   []string `json:"failedFiles,omitempty"`
	Warning       string   `json:"warning,omitempty"`
}

type CheckoutSessionResponse struct {
	SessionID string `json:"sessionId"`
	URL       string `json:"url,omitempty"`
}

type FinalizeOrderResponse struct {
	Success     bool     `json:"success"`
	OrderID     string   `json:"orderId"`
	Files       []string `json:"files"`
	FailedFiles []string `json:"failedFiles,omitempty"`
	Warning     string   `json:"warning,omitempty"`
}

type CheckSessionResponse struct {
	Success            bool   `json:"success"`
	IsRemainingPayment bool   `json:"isRemainingPayment"`
	OrderID            string `json:"orderId,omitempty"`
}

type OrderListResponse struct {
	Orders     []OrderSummary `json:"orders"`
	Total      int64          `json:"total"`
	TotalPages int64          `json:"totalPages"`
}

type OrderSummary struct {
	ID             string    `json:"_id"`
	OrderID        string    `json:"orderId"`
	Name           string    `json:"name"`
	Email          string    `json:"email"`
	ProjectType    string    `json:"projectType"`
	ProjectBudget  string    `json:"projectBudget"`
	Status         string    `json:"status"`
	PaymentStatus  string    `json:"paymentStatus"`
	InitialPayment float64   `json:"initialPayment"`
	FilesList      string    `json:"filesList"`
	Avatar         string    `json:"avatar,omitempty"`
	CreatedAt      time.Time `json:"createdAt"`
}

type CompleteOrderResponse struct {
	SessionID string   `json:"sessionId"`
	Files     []string `json:"files"`
}

type AuthResponse struct {
	Token string `json:"token"`
	User  *User  `json:"user"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

type MeetingListResponse struct {
	Meetings   []ScheduledMeeting `json:"meetings"`
	Total      int64              `json:"total"`
	TotalPages int64              `json:"totalPages"`
}

type CancelRequestListResponse struct {
	Requests   []CancelRequestView `json:"requests"`
	Total      int64               `json:"total"`
	TotalPages int64               `json:"totalPages"`
}

type StatsResponse struct {
	Users    int64 `json:"users"`
	Orders   int64 `json:"orders"`
	Pending  int64 `json:"pending"`
	Meetings int64 `json:"meetings"`
	Contacts int64 `json:"contacts"`
}

type HealthResponse struct {
	Status string `json:"status"`
}
