package upload

import (
	"encoding/json"
	"io"
	"mime"
	"mime/multipart"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hairsby-console/internal/domain"
	"hairsby-console/internal/imaging"
)

func jpegFile(name string) imaging.File {
	return imaging.File{Name: name, ContentType: "image/jpeg", Data: []byte("jpeg:" + name)}
}

func TestBuilder_ScalarsAndProviderScope(t *testing.T) {
	price := 12.5
	var discount *float64
	p, err := NewBuilder(Create, domain.Specialist{ID: "sp-1"}).
		Scalar("name", "Shea Butter").
		Scalar("price", &price).
		Scalar("discountPrice", discount).
		Scalar("stock", 4).
		Scalar("hasVariants", false).
		Scalar("status", domain.StatusActive).
		Build()
	require.NoError(t, err)

	for name, want := range map[string]string{
		"name":            "Shea Butter",
		"price":           "12.5",
		"stock":           "4",
		"hasVariants":     "false",
		"status":          "active",
		FieldProviderID:   "sp-1",
		FieldProviderType: "specialist",
	} {
		got, ok := p.Value(name)
		assert.True(t, ok, name)
		assert.Equal(t, want, got, name)
	}
	_, ok := p.Value("discountPrice")
	assert.False(t, ok, "nil pointers are not sent")
}

func TestBuilder_BusinessEmployeeScope(t *testing.T) {
	p, err := NewBuilder(Edit, domain.Business{ID: "biz-1", Employee: &domain.Employee{ID: "emp-7"}}).Build()
	require.NoError(t, err)
	id, _ := p.Value(FieldProviderID)
	emp, _ := p.Value(FieldEmployeeID)
	assert.Equal(t, "biz-1", id)
	assert.Equal(t, "emp-7", emp)
}

func TestBuilder_RequiresProvider(t *testing.T) {
	_, err := NewBuilder(Create, nil).Scalar("name", "x").Build()
	assert.ErrorIs(t, err, ErrNoProvider)
}

func TestBuilder_Collisions(t *testing.T) {
	_, err := NewBuilder(Create, domain.Specialist{ID: "sp"}).
		Scalar("name", "a").
		Scalar("name", "b").
		Build()
	assert.ErrorIs(t, err, ErrFieldCollision)

	_, err = NewBuilder(Create, domain.Specialist{ID: "sp"}).
		Scalar(FieldProviderID, "spoofed").
		Build()
	assert.ErrorIs(t, err, ErrFieldCollision)

	_, err = NewBuilder(Create, domain.Specialist{ID: "sp"}).
		Scalar("images", "x").
		File("images", jpegFile("a.jpg")).
		Build()
	assert.ErrorIs(t, err, ErrFieldCollision)

	_, err = NewBuilder(Create, domain.Specialist{ID: "sp"}).
		File("images", jpegFile("a.jpg")).
		File("images", jpegFile("b.jpg")).
		Build()
	assert.NoError(t, err, "a file field may repeat")
}

func TestBuilder_VariantFileNames(t *testing.T) {
	p, err := NewBuilder(Create, domain.Specialist{ID: "sp"}).
		VariantFile("v1", 0, jpegFile("front.jpg")).
		VariantFile("v1", 1, jpegFile("back.jpg")).
		VariantFile("new3f2a", 0, jpegFile("front.jpg")).
		Build()
	require.NoError(t, err)

	var fields []string
	for _, f := range p.FilesIn("variant-") {
		fields = append(fields, f.Field)
	}
	assert.Equal(t, []string{"variant-v1-0-front.jpg", "variant-v1-1-back.jpg", "variant-new3f2a-0-front.jpg"}, fields)
}

func TestBuilder_RemoveFilesOnlyInEditMode(t *testing.T) {
	set := NewRemovalSet()
	set.Mark("https://cdn/a.jpg")
	set.Mark("https://cdn/b.jpg")

	p, err := NewBuilder(Edit, domain.Specialist{ID: "sp"}).RemoveFiles(set).Build()
	require.NoError(t, err)
	raw, ok := p.Value(FieldFilesToRemove)
	require.True(t, ok)
	var urls []string
	require.NoError(t, json.Unmarshal([]byte(raw), &urls))
	assert.Equal(t, []string{"https://cdn/a.jpg", "https://cdn/b.jpg"}, urls)

	p, err = NewBuilder(Create, domain.Specialist{ID: "sp"}).RemoveFiles(set).Build()
	require.NoError(t, err)
	_, ok = p.Value(FieldFilesToRemove)
	assert.False(t, ok)

	p, err = NewBuilder(Edit, domain.Specialist{ID: "sp"}).RemoveFiles(NewRemovalSet()).Build()
	require.NoError(t, err)
	_, ok = p.Value(FieldFilesToRemove)
	assert.False(t, ok, "empty set is omitted")
}

func TestPayload_EncodeMultipart(t *testing.T) {
	p, err := NewBuilder(Create, domain.Specialist{ID: "sp"}).
		Scalar("name", "Oil").
		JSON("variants", []map[string]any{{"name": "S"}}).
		File("images", jpegFile("a.jpg")).
		Build()
	require.NoError(t, err)

	body, contentType, err := p.Encode()
	require.NoError(t, err)
	mediaType, params, err := mime.ParseMediaType(contentType)
	require.NoError(t, err)
	assert.Equal(t, "multipart/form-data", mediaType)

	r := multipart.NewReader(body, params["boundary"])
	got := map[string]string{}
	var filename string
	for {
		part, err := r.NextPart()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		data, err := io.ReadAll(part)
		require.NoError(t, err)
		got[part.FormName()] = string(data)
		if part.FileName() != "" {
			filename = part.FileName()
		}
	}
	assert.Equal(t, "Oil", got["name"])
	assert.JSONEq(t, `[{"name":"S"}]`, got["variants"])
	assert.Equal(t, "jpeg:a.jpg", got["images"])
	assert.Equal(t, "a.jpg", filename)
	assert.Equal(t, "sp", got[FieldProviderID])
}

func TestRemovalSet_NoDuplicates(t *testing.T) {
	s := NewRemovalSet()
	assert.True(t, s.Mark("u1"))
	assert.False(t, s.Mark("u1"))
	assert.True(t, s.Unmark("u1"))
	assert.True(t, s.Mark("u1"))
	assert.True(t, s.Mark("u2"))
	assert.Equal(t, []string{"u1", "u2"}, s.List())
	assert.True(t, s.Has("u2"))
	assert.False(t, s.Unmark("u3"))
	assert.False(t, s.Mark(""))
}
