package domain

import (
	"time"
)

// Kind names an entity collection on the remote API. The value doubles as the
// URL segment used by both the backend and the console shell.
type Kind string

const (
	KindBooking Kind = "bookings"
	KindProduct Kind = "products"
	KindService Kind = "services"
	KindOrder   Kind = "orders"
)

// Entity is implemented by every record the console lists and mutates.
type Entity interface {
	EntityID() string
	CurrentStatus() Status
}

// Product represents a provider's product as returned by the backend.
type Product struct {
	ID            string    `json:"id"`
	ProviderID    string    `json:"providerId"`
	Name          string    `json:"name"`
	Description   string    `json:"description,omitempty"`
	Category      string    `json:"category"`
	Price         float64   `json:"price"`
	DiscountPrice *float64  `json:"discountPrice,omitempty"` // Pointer, absent when no discount
	Stock         int       `json:"stock"`
	Status        Status    `json:"status"`
	Images        []string  `json:"images"`
	HasVariants   bool      `json:"hasVariants"`
	Variants      []Variant `json:"variants,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// Variant is a priced, stocked sub-option of a Product.
type Variant struct {
	ID     string   `json:"id,omitempty"`
	Name   string   `json:"name"`
	Price  float64  `json:"price"`
	Stock  int      `json:"stock"`
	Images []string `json:"images"`
}

func (p Product) EntityID() string      { return p.ID }
func (p Product) CurrentStatus() Status { return p.Status }
