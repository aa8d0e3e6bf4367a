package form

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hairsby-console/internal/domain"
)

func TestDecode_FormValuesIntoTypedFields(t *testing.T) {
	raw := map[string]any{
		"name":        "Shea Butter",
		"category":    "skin",
		"price":       " 9.99 ",
		"stock":       "4",
		"status":      "active",
		"hasVariants": "on",
	}
	var f domain.ProductForm
	errs := Decode(raw, &f)
	require.Empty(t, errs)
	require.NotNil(t, f.Price)
	assert.Equal(t, 9.99, *f.Price)
	require.NotNil(t, f.Stock)
	assert.Equal(t, 4, *f.Stock)
	assert.True(t, f.HasVariants)
}

func TestDecode_EmptyNumericBecomesUnset(t *testing.T) {
	f := domain.ProductForm{DiscountPrice: PtrTo(3.0)}
	errs := Decode(map[string]any{"discountPrice": "", "price": "   "}, &f)
	require.Empty(t, errs)
	assert.Nil(t, f.DiscountPrice)
	assert.Nil(t, f.Price)
}

func TestDecode_RejectsNonNumbers(t *testing.T) {
	var f domain.ProductForm
	errs := Decode(map[string]any{"price": "NaN", "discountPrice": "abc", "stock": "2.5"}, &f)
	assert.Equal(t, "price must be a number", errs["price"])
	assert.Equal(t, "discountPrice must be a number", errs["discountPrice"])
	assert.Equal(t, "stock must be a whole number", errs["stock"])

	errs = Decode(map[string]any{"stock": 1.5}, &f)
	assert.Equal(t, "stock must be a whole number", errs["stock"])

	errs = Decode(map[string]any{"price": "Inf"}, &f)
	assert.Equal(t, "price must be a number", errs["price"])
}

func TestDecode_NestedPathsInErrors(t *testing.T) {
	var f domain.ProductForm
	errs := Decode(map[string]any{
		"hasVariants": true,
		"variants": []any{
			map[string]any{"name": "S", "price": "5", "stock": "1"},
			map[string]any{"name": "M", "price": "five", "stock": "1"},
		},
	}, &f)
	assert.Equal(t, FieldErrors{"variants[1].price": "price must be a number"}, errs)
}

func TestDecode_ListsReplacePreviousValue(t *testing.T) {
	original := domain.ProductForm{
		HasVariants: true,
		Variants:    []domain.VariantForm{{Key: "a", Name: "S"}, {Key: "b", Name: "M"}},
	}
	patched := original
	errs := Decode(map[string]any{"variants": []any{map[string]any{"key": "b", "name": "Medium"}}}, &patched)
	require.Empty(t, errs)
	require.Len(t, patched.Variants, 1)
	assert.Equal(t, "Medium", patched.Variants[0].Name)

	assert.Len(t, original.Variants, 2)
	assert.Equal(t, "S", original.Variants[0].Name, "decoding a copy must not write through to the original")
}

func TestDecode_AbsentKeysKeepValues(t *testing.T) {
	f := validProduct()
	errs := Decode(map[string]any{"name": "Renamed"}, &f)
	require.Empty(t, errs)
	assert.Equal(t, "Renamed", f.Name)
	assert.Equal(t, 12.5, *f.Price)
}
