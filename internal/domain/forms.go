package domain

import (
	"strings"

	"github.com/google/uuid"
)

// Form input structs. The json tag names are the field paths reported back to
// the UI, so they follow the backend's camelCase contract.

// MainImageSlot is the image slot every image-bearing form has.
const MainImageSlot = "images"

const variantSlotPrefix = "variant:"

// VariantSlot names the image slot belonging to the variant with key.
func VariantSlot(key string) string { return variantSlotPrefix + key }

// BookingForm creates or edits a booking on behalf of the provider.
type BookingForm struct {
	ServiceID              string   `json:"serviceId" validate:"required"`
	CustomerID             string   `json:"customerId,omitempty"`
	CustomerName           string   `json:"customerName" validate:"required_without=CustomerID,max=120"`
	Date                   string   `json:"date" validate:"required,datetime=2006-01-02"`
	StartTime              string   `json:"startTime" validate:"required,datetime=15:04"`
	Price                  *float64 `json:"price,omitempty" validate:"omitempty,gte=0"`
	Notes                  string   `json:"notes,omitempty" validate:"max=500"`
	RequiresAdvancePayment bool     `json:"requiresAdvancePayment"`
	AdvancePaymentAmount   *float64 `json:"advancePaymentAmount,omitempty" validate:"required_if=RequiresAdvancePayment true,omitempty,gt=0"`
}

func (f *BookingForm) Normalize() {
	if !f.RequiresAdvancePayment {
		f.AdvancePaymentAmount = nil
	}
}

// ProductForm creates or edits a product. HasVariants is true iff Variants is
// non-empty once the form is valid.
type ProductForm struct {
	Name          string        `json:"name" validate:"required,min=2,max=120"`
	Description   string        `json:"description,omitempty" validate:"max=2000"`
	Category      string        `json:"category" validate:"required"`
	Price         *float64      `json:"price" validate:"required,gt=0"`
	DiscountPrice *float64      `json:"discountPrice,omitempty" validate:"omitempty,gte=0"`
	Stock         *int          `json:"stock,omitempty" validate:"required_if=HasVariants false,omitempty,gte=0"`
	Status        Status        `json:"status" validate:"required,oneof=active inactive out_of_stock"`
	HasVariants   bool          `json:"hasVariants"`
	Variants      []VariantForm `json:"variants,omitempty" validate:"required_if=HasVariants true,dive"`
}

// VariantForm is one variant row. Key identifies the row inside the draft:
// the server id for saved variants, a generated key for new ones.
type VariantForm struct {
	ID    string   `json:"id,omitempty"`
	Key   string   `json:"key"`
	Name  string   `json:"name" validate:"required,max=80"`
	Price *float64 `json:"price" validate:"required,gt=0"`
	Stock *int     `json:"stock" validate:"required,gte=0"`
}

// Normalize enforces the variant invariants after every patch: switching
// HasVariants off clears the list, and every row gets a stable key.
func (f *ProductForm) Normalize() {
	if !f.HasVariants {
		f.Variants = nil
		return
	}
	for i := range f.Variants {
		v := &f.Variants[i]
		if v.Key != "" {
			continue
		}
		if v.ID != "" {
			v.Key = v.ID
		} else {
			v.Key = "new" + strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
		}
	}
}

// ImageSlots lists the slots that currently exist for the form.
func (f *ProductForm) ImageSlots() []string {
	slots := []string{MainImageSlot}
	for _, v := range f.Variants {
		slots = append(slots, VariantSlot(v.Key))
	}
	return slots
}

// ServiceForm creates or edits a service. Package services list the ids of
// the services they bundle.
type ServiceForm struct {
	Name                   string   `json:"name" validate:"required,min=2,max=120"`
	Description            string   `json:"description,omitempty" validate:"max=2000"`
	Category               string   `json:"category" validate:"required"`
	Duration               *int     `json:"duration" validate:"required,gte=5,lte=480"`
	Price                  *float64 `json:"price" validate:"required,gte=0"`
	RequiresAdvancePayment bool     `json:"requiresAdvancePayment"`
	AdvancePaymentAmount   *float64 `json:"advancePaymentAmount,omitempty" validate:"required_if=RequiresAdvancePayment true,omitempty,gt=0"`
	IsPackage              bool     `json:"isPackage"`
	PackageServiceIDs      []string `json:"packageServiceIds,omitempty" validate:"required_if=IsPackage true,omitempty,min=2,unique,dive,required"`
	Status                 Status   `json:"status" validate:"required,oneof=active inactive"`
}

func (f *ServiceForm) Normalize() {
	if !f.RequiresAdvancePayment {
		f.AdvancePaymentAmount = nil
	}
	if !f.IsPackage {
		f.PackageServiceIDs = nil
	}
}

func (f *ServiceForm) ImageSlots() []string { return []string{MainImageSlot} }

// SignupForm is discriminated by Role: the common fields always apply, and
// exactly one profile carries the role-specific rules.
type SignupForm struct {
	Role            Role               `json:"role" validate:"required,oneof=customer specialist business"`
	Email           string             `json:"email" validate:"required,email"`
	Password        string             `json:"password" validate:"required,min=8,max=72"`
	ConfirmPassword string             `json:"confirmPassword" validate:"required,eqfield=Password"`
	Phone           string             `json:"phone,omitempty" validate:"omitempty,e164"`
	Customer        *CustomerProfile   `json:"customer,omitempty" validate:"required_if=Role customer,omitempty"`
	Specialist      *SpecialistProfile `json:"specialist,omitempty" validate:"required_if=Role specialist,omitempty"`
	Business        *BusinessProfile   `json:"business,omitempty" validate:"required_if=Role business,omitempty"`
}

type CustomerProfile struct {
	FirstName string `json:"firstName" validate:"required,max=60"`
	LastName  string `json:"lastName" validate:"required,max=60"`
}

type SpecialistProfile struct {
	FirstName       string `json:"firstName" validate:"required,max=60"`
	LastName        string `json:"lastName" validate:"required,max=60"`
	Specialty       string `json:"specialty" validate:"required"`
	YearsExperience *int   `json:"yearsExperience,omitempty" validate:"omitempty,gte=0,lte=70"`
}

type BusinessProfile struct {
	BusinessName       string `json:"businessName" validate:"required,max=120"`
	RegistrationNumber string `json:"registrationNumber,omitempty" validate:"omitempty,alphanum,max=20"`
	Address            string `json:"address" validate:"required"`
	Postcode           string `json:"postcode" validate:"required,max=10"`
}

// Normalize drops the profiles that do not belong to the active role so their
// rules are never enforced.
func (f *SignupForm) Normalize() {
	if f.Role != RoleCustomer {
		f.Customer = nil
	}
	if f.Role != RoleSpecialist {
		f.Specialist = nil
	}
	if f.Role != RoleBusiness {
		f.Business = nil
	}
}
