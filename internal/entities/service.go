package entities

import (
	"hairsby-console/internal/dialog"
	"hairsby-console/internal/domain"
	"hairsby-console/internal/upload"
)

func Services() dialog.Descriptor[domain.Service, domain.ServiceForm] {
	return dialog.Descriptor[domain.Service, domain.ServiceForm]{
		Kind:    domain.KindService,
		NewForm: func() domain.ServiceForm { return domain.ServiceForm{Status: domain.StatusActive} },
		FormFrom: func(s domain.Service) domain.ServiceForm {
			return domain.ServiceForm{
				Name:                   s.Name,
				Description:            s.Description,
				Category:               s.Category,
				Duration:               ptr(s.Duration),
				Price:                  ptr(s.Price),
				RequiresAdvancePayment: s.RequiresAdvancePayment,
				AdvancePaymentAmount:   s.AdvancePaymentAmount,
				IsPackage:              s.IsPackage,
				PackageServiceIDs:      append([]string(nil), s.PackageServiceIDs...),
				Status:                 s.Status,
			}
		},
		SavedImages: func(s domain.Service) map[string][]string {
			return map[string][]string{domain.MainImageSlot: s.Images}
		},
		Encode: encodeService,
	}
}

func encodeService(b *upload.Builder, s dialog.Submission[domain.ServiceForm]) error {
	f := s.Form
	b.Scalar("name", f.Name).
		Scalar("description", f.Description).
		Scalar("category", f.Category).
		Scalar("duration", f.Duration).
		Scalar("price", f.Price).
		Scalar("requiresAdvancePayment", f.RequiresAdvancePayment).
		Scalar("advancePaymentAmount", f.AdvancePaymentAmount).
		Scalar("isPackage", f.IsPackage).
		Scalar("status", f.Status)
	if f.IsPackage {
		b.JSON("packageServiceIds", f.PackageServiceIDs)
	}
	for _, img := range s.Pending[domain.MainImageSlot] {
		b.File(domain.MainImageSlot, img)
	}
	return nil
}
