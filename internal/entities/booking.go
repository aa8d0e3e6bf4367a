// Package entities describes how each editable kind maps between its saved
// record, its form and its multipart payload.
package entities

import (
	"hairsby-console/internal/dialog"
	"hairsby-console/internal/domain"
	"hairsby-console/internal/upload"
)

// Bookings binds bookings to the dialog engine. Bookings carry no images.
func Bookings() dialog.Descriptor[domain.Booking, domain.BookingForm] {
	return dialog.Descriptor[domain.Booking, domain.BookingForm]{
		Kind:    domain.KindBooking,
		NewForm: func() domain.BookingForm { return domain.BookingForm{} },
		FormFrom: func(b domain.Booking) domain.BookingForm {
			return domain.BookingForm{
				ServiceID:              b.ServiceID,
				CustomerID:             b.CustomerID,
				CustomerName:           b.CustomerName,
				Date:                   b.Date,
				StartTime:              b.StartTime,
				Price:                  ptr(b.Price),
				Notes:                  b.Notes,
				RequiresAdvancePayment: b.RequiresAdvancePayment,
				AdvancePaymentAmount:   b.AdvancePaymentAmount,
			}
		},
		Encode: encodeBooking,
	}
}

func encodeBooking(b *upload.Builder, s dialog.Submission[domain.BookingForm]) error {
	f := s.Form
	b.Scalar("serviceId", f.ServiceID).
		Scalar("customerName", f.CustomerName).
		Scalar("date", f.Date).
		Scalar("startTime", f.StartTime).
		Scalar("price", f.Price).
		Scalar("notes", f.Notes).
		Scalar("requiresAdvancePayment", f.RequiresAdvancePayment).
		Scalar("advancePaymentAmount", f.AdvancePaymentAmount)
	if f.CustomerID != "" {
		b.Scalar("customerId", f.CustomerID)
	}
	return nil
}

func ptr[T any](v T) *T { return &v }
