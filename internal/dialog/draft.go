package dialog

import (
	"encoding/json"
	"fmt"
	"sort"

	"hairsby-console/internal/form"
	"hairsby-console/internal/imaging"
	"hairsby-console/internal/upload"
)

// Slotted is implemented by forms that carry images. The slot list follows
// the form: a product has one slot per variant in addition to the main one.
type Slotted interface {
	ImageSlots() []string
}

// Draft is the FormState of one open editor. It is owned by its controller
// and discarded on cancel or successful submit.
type Draft[F any] struct {
	mode     upload.Mode
	entityID string
	form     F
	errors   form.FieldErrors
	touched  map[string]bool
	slots    map[string]*imageSlot
	removals *upload.RemovalSet
	lastErr  string
}

type imageSlot struct {
	saved   []string
	pending []imaging.Preview
}

func newDraft[F any](mode upload.Mode, entityID string, f F, saved map[string][]string) *Draft[F] {
	d := &Draft[F]{
		mode:     mode,
		entityID: entityID,
		form:     f,
		touched:  make(map[string]bool),
		slots:    make(map[string]*imageSlot),
		removals: upload.NewRemovalSet(),
	}
	for _, name := range slotsOf(&d.form) {
		d.slots[name] = &imageSlot{saved: append([]string(nil), saved[name]...)}
	}
	return d
}

// kept returns the saved URLs of slot that are not marked for removal.
func (d *Draft[F]) kept(slot string) []string {
	s, ok := d.slots[slot]
	if !ok {
		return nil
	}
	var out []string
	for _, u := range s.saved {
		if !d.removals.Has(u) {
			out = append(out, u)
		}
	}
	return out
}

// syncSlots makes the slot map match the form. Dropped slots hand back their
// pending previews for revocation.
func (d *Draft[F]) syncSlots() []imaging.Preview {
	want := map[string]bool{}
	for _, name := range slotsOf(&d.form) {
		want[name] = true
		if _, ok := d.slots[name]; !ok {
			d.slots[name] = &imageSlot{}
		}
	}
	var orphaned []imaging.Preview
	for name, s := range d.slots {
		if !want[name] {
			orphaned = append(orphaned, s.pending...)
			delete(d.slots, name)
		}
	}
	return orphaned
}

func (d *Draft[F]) allPending() []imaging.Preview {
	var out []imaging.Preview
	for _, s := range d.slots {
		out = append(out, s.pending...)
	}
	return out
}

func (d *Draft[F]) touchedPaths() []string {
	paths := make([]string, 0, len(d.touched))
	for p := range d.touched {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

func (d *Draft[F]) view() *DraftView[F] {
	v := &DraftView[F]{
		Mode:          d.mode.String(),
		EntityID:      d.entityID,
		Form:          d.form,
		Errors:        d.errors,
		Images:        make(map[string]SlotView, len(d.slots)),
		FilesToRemove: d.removals.List(),
		LastError:     d.lastErr,
	}
	for name, s := range d.slots {
		v.Images[name] = SlotView{
			Saved:   d.kept(name),
			Pending: append([]imaging.Preview(nil), s.pending...),
		}
	}
	return v
}

// DraftView is a snapshot of a draft for rendering.
type DraftView[F any] struct {
	Mode          string              `json:"mode"`
	EntityID      string              `json:"entityId,omitempty"`
	Form          F                   `json:"form"`
	Errors        form.FieldErrors    `json:"errors,omitempty"`
	Images        map[string]SlotView `json:"images,omitempty"`
	FilesToRemove []string            `json:"filesToRemove,omitempty"`
	LastError     string              `json:"lastError,omitempty"`
}

// SlotView lists the images shown in one slot.
type SlotView struct {
	Saved   []string          `json:"saved"`
	Pending []imaging.Preview `json:"pending"`
}

// Submission carries what an entity's encoder reads: the validated form and
// the files pending per slot, in the order they were added.
type Submission[F any] struct {
	Mode    upload.Mode
	Form    *F
	Pending map[string][]imaging.File
}

func slotsOf[F any](f *F) []string {
	if s, ok := any(f).(Slotted); ok {
		return s.ImageSlots()
	}
	return nil
}

func normalize[F any](f *F) {
	if n, ok := any(f).(form.Normalizer); ok {
		n.Normalize()
	}
}

// cloneForm deep-copies a form so a patch that fails decoding cannot write
// through shared pointers into the draft.
func cloneForm[F any](f F) (F, error) {
	var out F
	raw, err := json.Marshal(f)
	if err != nil {
		return out, fmt.Errorf("dialog: copy form: %w", err)
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return out, fmt.Errorf("dialog: copy form: %w", err)
	}
	return out, nil
}
