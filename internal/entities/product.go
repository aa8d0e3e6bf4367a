package entities

import (
	"hairsby-console/internal/dialog"
	"hairsby-console/internal/domain"
	"hairsby-console/internal/upload"
)

// variantMeta is the JSON shape of one variant in the "variants" field.
// Images travel as separate file parts named after Key.
type variantMeta struct {
	ID    string   `json:"id,omitempty"`
	Key   string   `json:"key"`
	Name  string   `json:"name"`
	Price *float64 `json:"price"`
	Stock *int     `json:"stock"`
}

// Products binds products to the dialog engine.
func Products() dialog.Descriptor[domain.Product, domain.ProductForm] {
	return dialog.Descriptor[domain.Product, domain.ProductForm]{
		Kind:        domain.KindProduct,
		NewForm:     func() domain.ProductForm { return domain.ProductForm{Status: domain.StatusActive} },
		FormFrom:    productForm,
		SavedImages: productImages,
		Encode:      encodeProduct,
	}
}

func productForm(p domain.Product) domain.ProductForm {
	f := domain.ProductForm{
		Name:          p.Name,
		Description:   p.Description,
		Category:      p.Category,
		Price:         ptr(p.Price),
		DiscountPrice: p.DiscountPrice,
		Status:        p.Status,
		HasVariants:   p.HasVariants && len(p.Variants) > 0,
	}
	if !f.HasVariants {
		f.Stock = ptr(p.Stock)
		return f
	}
	for _, v := range p.Variants {
		f.Variants = append(f.Variants, domain.VariantForm{
			ID:    v.ID,
			Key:   v.ID,
			Name:  v.Name,
			Price: ptr(v.Price),
			Stock: ptr(v.Stock),
		})
	}
	return f
}

func productImages(p domain.Product) map[string][]string {
	out := map[string][]string{domain.MainImageSlot: p.Images}
	for _, v := range p.Variants {
		if v.ID != "" {
			out[domain.VariantSlot(v.ID)] = v.Images
		}
	}
	return out
}

func encodeProduct(b *upload.Builder, s dialog.Submission[domain.ProductForm]) error {
	f := s.Form
	b.Scalar("name", f.Name).
		Scalar("description", f.Description).
		Scalar("category", f.Category).
		Scalar("price", f.Price).
		Scalar("discountPrice", f.DiscountPrice).
		Scalar("status", f.Status).
		Scalar("hasVariants", f.HasVariants)

	for _, img := range s.Pending[domain.MainImageSlot] {
		b.File(domain.MainImageSlot, img)
	}

	if !f.HasVariants {
		b.Scalar("stock", f.Stock)
		return nil
	}

	meta := make([]variantMeta, 0, len(f.Variants))
	for _, v := range f.Variants {
		meta = append(meta, variantMeta{ID: v.ID, Key: v.Key, Name: v.Name, Price: v.Price, Stock: v.Stock})
		for i, img := range s.Pending[domain.VariantSlot(v.Key)] {
			b.VariantFile(v.Key, i, img)
		}
	}
	b.JSON("variants", meta)
	return nil
}
