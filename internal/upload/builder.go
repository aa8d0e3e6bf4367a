// Package upload assembles the multipart bodies sent to the backend on create
// and update.
package upload

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/textproto"
	"reflect"
	"strings"

	"github.com/spf13/cast"

	"hairsby-console/internal/domain"
	"hairsby-console/internal/imaging"
)

var (
	ErrFieldCollision = errors.New("upload: field name already used")
	ErrNoProvider     = errors.New("upload: provider is required")
)

// Reserved field names.
const (
	FieldProviderID    = "providerId"
	FieldProviderType  = "providerType"
	FieldEmployeeID    = "employeeId"
	FieldFilesToRemove = "filesToRemove"
)

// Mode tells the builder whether the payload creates or updates an entity.
type Mode int

const (
	Create Mode = iota
	Edit
)

func (m Mode) String() string {
	if m == Edit {
		return "edit"
	}
	return "create"
}

// Field is one text part.
type Field struct {
	Name  string
	Value string
}

// FilePart is one binary part. Several parts may share Field (repeated
// "images" entries); Name is the filename sent to the server.
type FilePart struct {
	Field       string
	Name        string
	ContentType string
	Data        []byte
}

// Builder collects the parts of one submission. The first error sticks and
// is returned by Build, so calls can be chained without checks.
type Builder struct {
	mode     Mode
	provider domain.Provider

	fields     []Field
	files      []FilePart
	textNames  map[string]bool
	fileFields map[string]bool
	err        error
}

func NewBuilder(mode Mode, provider domain.Provider) *Builder {
	return &Builder{
		mode:       mode,
		provider:   provider,
		textNames:  make(map[string]bool),
		fileFields: make(map[string]bool),
	}
}

// Scalar appends a stringified value. Nil pointers are skipped so unset
// optional numbers never reach the server as "0" or "<nil>".
func (b *Builder) Scalar(name string, v any) *Builder {
	if b.err != nil || isNil(v) {
		return b
	}
	s, err := cast.ToStringE(indirect(v))
	if err != nil {
		b.err = fmt.Errorf("upload: field %q: %w", name, err)
		return b
	}
	return b.text(name, s)
}

// JSON appends v encoded as a single JSON text part.
func (b *Builder) JSON(name string, v any) *Builder {
	if b.err != nil {
		return b
	}
	raw, err := json.Marshal(v)
	if err != nil {
		b.err = fmt.Errorf("upload: field %q: %w", name, err)
		return b
	}
	return b.text(name, string(raw))
}

// File appends f under field. The same field may carry several files.
func (b *Builder) File(field string, f imaging.File) *Builder {
	if b.err != nil {
		return b
	}
	if b.textNames[field] {
		b.err = fmt.Errorf("%w: %q", ErrFieldCollision, field)
		return b
	}
	b.fileFields[field] = true
	b.files = append(b.files, FilePart{Field: field, Name: f.Name, ContentType: f.ContentType, Data: f.Data})
	return b
}

// VariantFile appends the index-th image of the variant identified by key.
// The field name lets the server re-associate the file with its variant.
func (b *Builder) VariantFile(key string, index int, f imaging.File) *Builder {
	name := VariantFileField(key, index, f.Name)
	if b.err == nil && b.fileFields[name] {
		b.err = fmt.Errorf("%w: %q", ErrFieldCollision, name)
		return b
	}
	return b.File(name, f)
}

// VariantFileField is the deterministic field name of a variant image.
func VariantFileField(key string, index int, filename string) string {
	return fmt.Sprintf("variant-%s-%d-%s", key, index, filename)
}

// RemoveFiles appends the server URLs marked for deletion. It only applies
// in edit mode, and nothing is sent when the set is empty.
func (b *Builder) RemoveFiles(set *RemovalSet) *Builder {
	if b.mode != Edit || set == nil || set.Len() == 0 {
		return b
	}
	return b.JSON(FieldFilesToRemove, set.List())
}

func (b *Builder) text(name, value string) *Builder {
	switch {
	case name == "":
		b.err = errors.New("upload: empty field name")
	case b.textNames[name] || b.fileFields[name]:
		b.err = fmt.Errorf("%w: %q", ErrFieldCollision, name)
	default:
		b.textNames[name] = true
		b.fields = append(b.fields, Field{Name: name, Value: value})
	}
	return b
}

// Build appends the provider scope and returns the payload. It never mutates
// the form or image state the parts were read from.
func (b *Builder) Build() (*Payload, error) {
	if b.err != nil {
		return nil, b.err
	}
	if b.provider == nil || b.provider.ProviderID() == "" {
		return nil, ErrNoProvider
	}
	b.text(FieldProviderID, b.provider.ProviderID())
	b.text(FieldProviderType, string(b.provider.Role()))
	if biz, ok := b.provider.(domain.Business); ok && biz.Employee != nil {
		b.text(FieldEmployeeID, biz.Employee.ID)
	}
	if b.err != nil {
		return nil, b.err
	}
	return &Payload{
		Fields: append([]Field(nil), b.fields...),
		Files:  append([]FilePart(nil), b.files...),
	}, nil
}

// Payload is a built submission.
type Payload struct {
	Fields []Field
	Files  []FilePart
}

// Value returns the text part called name.
func (p *Payload) Value(name string) (string, bool) {
	for _, f := range p.Fields {
		if f.Name == name {
			return f.Value, true
		}
	}
	return "", false
}

// FilesIn returns the file parts whose field starts with prefix.
func (p *Payload) FilesIn(prefix string) []FilePart {
	var out []FilePart
	for _, f := range p.Files {
		if strings.HasPrefix(f.Field, prefix) {
			out = append(out, f)
		}
	}
	return out
}

// Encode renders the payload as multipart/form-data and returns the body with
// its Content-Type header value.
func (p *Payload) Encode() (*bytes.Buffer, string, error) {
	body := &bytes.Buffer{}
	mw := multipart.NewWriter(body)
	for _, f := range p.Fields {
		if err := mw.WriteField(f.Name, f.Value); err != nil {
			return nil, "", fmt.Errorf("upload: write field %q: %w", f.Name, err)
		}
	}
	for _, f := range p.Files {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`, escapeQuotes(f.Field), escapeQuotes(f.Name)))
		ct := f.ContentType
		if ct == "" {
			ct = "application/octet-stream"
		}
		h.Set("Content-Type", ct)
		w, err := mw.CreatePart(h)
		if err != nil {
			return nil, "", fmt.Errorf("upload: create part %q: %w", f.Field, err)
		}
		if _, err := w.Write(f.Data); err != nil {
			return nil, "", fmt.Errorf("upload: write part %q: %w", f.Field, err)
		}
	}
	if err := mw.Close(); err != nil {
		return nil, "", fmt.Errorf("upload: close multipart writer: %w", err)
	}
	return body, mw.FormDataContentType(), nil
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func escapeQuotes(s string) string { return quoteEscaper.Replace(s) }

func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	return rv.Kind() == reflect.Pointer && rv.IsNil()
}

func indirect(v any) any {
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer {
		rv = rv.Elem()
	}
	// cast only switches on builtin types, so unwrap named ones like Status.
	switch rv.Kind() {
	case reflect.String:
		return rv.String()
	case reflect.Bool:
		return rv.Bool()
	}
	return rv.Interface()
}
