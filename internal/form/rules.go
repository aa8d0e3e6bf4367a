package form

import (
	"github.com/go-playground/validator/v10"

	"hairsby-console/internal/domain"
)

// Tags reported by the struct-level rules below.
const (
	tagBelowPrice   = "below_price"
	tagWithinPrice  = "within_price"
	tagVariantsFlag = "variants_flag"
)

// messages overrides or adds English texts. {0} is the field name, {1} the
// rule parameter.
var messages = map[string]string{
	"required_if":      "{0} is required",
	"required_without": "{0} is required",
	"datetime":         "{0} is not a valid date or time",
	"e164":             "{0} must be a phone number in international format",
	"unique":           "{0} must not contain duplicates",
	tagBelowPrice:      "{0} must be lower than the price",
	tagWithinPrice:     "{0} cannot exceed the price",
	tagVariantsFlag:    "{0} must be empty when hasVariants is off",
}

func registerRules(v *validator.Validate) {
	v.RegisterStructValidation(productRules, domain.ProductForm{})
	v.RegisterStructValidation(serviceRules, domain.ServiceForm{})
	v.RegisterStructValidation(bookingRules, domain.BookingForm{})
}

func productRules(sl validator.StructLevel) {
	f := sl.Current().Interface().(domain.ProductForm)
	if f.Price != nil && f.DiscountPrice != nil && *f.DiscountPrice >= *f.Price {
		sl.ReportError(f.DiscountPrice, "discountPrice", "DiscountPrice", tagBelowPrice, "")
	}
	// required_if only rejects a nil slice; an empty list is just as missing.
	if f.HasVariants && f.Variants != nil && len(f.Variants) == 0 {
		sl.ReportError(f.Variants, "variants", "Variants", "required_if", "HasVariants true")
	}
	if !f.HasVariants && len(f.Variants) > 0 {
		sl.ReportError(f.Variants, "variants", "Variants", tagVariantsFlag, "")
	}
}

func serviceRules(sl validator.StructLevel) {
	f := sl.Current().Interface().(domain.ServiceForm)
	if f.RequiresAdvancePayment && f.Price != nil && f.AdvancePaymentAmount != nil && *f.AdvancePaymentAmount > *f.Price {
		sl.ReportError(f.AdvancePaymentAmount, "advancePaymentAmount", "AdvancePaymentAmount", tagWithinPrice, "")
	}
}

func bookingRules(sl validator.StructLevel) {
	f := sl.Current().Interface().(domain.BookingForm)
	if f.RequiresAdvancePayment && f.Price != nil && f.AdvancePaymentAmount != nil && *f.AdvancePaymentAmount > *f.Price {
		sl.ReportError(f.AdvancePaymentAmount, "advancePaymentAmount", "AdvancePaymentAmount", tagWithinPrice, "")
	}
}
