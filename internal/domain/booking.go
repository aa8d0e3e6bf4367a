package domain

import "time"

// Booking is an appointment between a customer and a provider for one service.
type Booking struct {
	ID                     string    `json:"id"`
	ProviderID             string    `json:"providerId"`
	CustomerID             string    `json:"customerId,omitempty"`
	CustomerName           string    `json:"customerName"`
	ServiceID              string    `json:"serviceId"`
	ServiceName            string    `json:"serviceName,omitempty"`
	Date                   string    `json:"date"`      // YYYY-MM-DD
	StartTime              string    `json:"startTime"` // HH:MM
	Price                  float64   `json:"price"`
	Notes                  string    `json:"notes,omitempty"`
	RequiresAdvancePayment bool      `json:"requiresAdvancePayment"`
	AdvancePaymentAmount   *float64  `json:"advancePaymentAmount,omitempty"`
	Status                 Status    `json:"status"`
	CreatedAt              time.Time `json:"createdAt"`
	UpdatedAt              time.Time `json:"updatedAt"`
}

func (b Booking) EntityID() string      { return b.ID }
func (b Booking) CurrentStatus() Status { return b.Status }

// Service is a bookable offering. A package service bundles other services.
type Service struct {
	ID                     string    `json:"id"`
	ProviderID             string    `json:"providerId"`
	Name                   string    `json:"name"`
	Description            string    `json:"description,omitempty"`
	Category               string    `json:"category"`
	Duration               int       `json:"duration"` // minutes
	Price                  float64   `json:"price"`
	RequiresAdvancePayment bool      `json:"requiresAdvancePayment"`
	AdvancePaymentAmount   *float64  `json:"advancePaymentAmount,omitempty"`
	IsPackage              bool      `json:"isPackage"`
	PackageServiceIDs      []string  `json:"packageServiceIds,omitempty"`
	Images                 []string  `json:"images"`
	Status                 Status    `json:"status"`
	CreatedAt              time.Time `json:"createdAt"`
	UpdatedAt              time.Time `json:"updatedAt"`
}

func (s Service) EntityID() string      { return s.ID }
func (s Service) CurrentStatus() Status { return s.Status }

// Order is a customer's product purchase. Orders are listed and transitioned
// but never edited from the console.
type Order struct {
	ID         string      `json:"id"`
	ProviderID string      `json:"providerId"`
	CustomerID string      `json:"customerId"`
	Items      []OrderItem `json:"items"`
	Total      float64     `json:"total"`
	Status     Status      `json:"status"`
	CreatedAt  time.Time   `json:"createdAt"`
}

type OrderItem struct {
	ProductID string  `json:"productId"`
	VariantID string  `json:"variantId,omitempty"`
	Name      string  `json:"name"`
	Quantity  int     `json:"quantity"`
	UnitPrice float64 `json:"unitPrice"`
}

func (o Order) EntityID() string      { return o.ID }
func (o Order) CurrentStatus() Status { return o.Status }
