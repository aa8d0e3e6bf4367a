package dialog

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"hairsby-console/internal/domain"
	"hairsby-console/internal/form"
	"hairsby-console/internal/imaging"
	"hairsby-console/internal/upload"
)

// State is the view state of a controller.
type State string

const (
	StateList    State = "list"
	StateDetails State = "details"
	StateEditing State = "editing"
)

// Shell is how the dialog is presented. The state machine is the same for
// both.
type Shell string

const (
	ShellModal    Shell = "modal"
	ShellEmbedded Shell = "embedded"
)

// ParseShell defaults to the modal shell.
func ParseShell(s string) (Shell, error) {
	switch Shell(s) {
	case "", ShellModal:
		return ShellModal, nil
	case ShellEmbedded:
		return ShellEmbedded, nil
	default:
		return "", fmt.Errorf("dialog: unknown shell %q", s)
	}
}

// Descriptor binds an entity kind to the engine.
type Descriptor[E domain.Entity, F any] struct {
	Kind domain.Kind
	// NewForm returns the blank form used by Create.
	NewForm func() F
	// FormFrom populates a form from a saved entity.
	FormFrom func(E) F
	// SavedImages returns the server URLs per image slot. Nil for kinds
	// without images.
	SavedImages func(E) map[string][]string
	// Encode writes the submission's fields and files. The controller adds
	// the removal list and the provider scope.
	Encode func(b *upload.Builder, s Submission[F]) error
}

// Deps are shared services injected into every controller.
type Deps struct {
	Validator  *form.Validator
	Compressor *imaging.Compressor
	Previews   *imaging.Previews
	Logger     *zap.Logger
}

// ProviderFunc returns the provider that submissions are scoped to.
type ProviderFunc func() (domain.Provider, error)

// Controller drives one entity kind's dialog. It holds at most one draft and
// allows one submission in flight.
type Controller[E domain.Entity, F any] struct {
	*Collection[E]

	desc     Descriptor[E, F]
	gateway  Gateway[E]
	deps     Deps
	provider ProviderFunc
	logger   *zap.Logger

	mu         sync.Mutex
	state      State
	shell      Shell
	selected   *E
	draft      *Draft[F]
	submitting bool
	// epoch changes whenever the dialog is opened or closed, so a detached
	// submission can tell whether its dialog is still the one on screen.
	epoch uint64
}

func NewController[E domain.Entity, F any](desc Descriptor[E, F], gw Gateway[E], provider ProviderFunc, deps Deps) *Controller[E, F] {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.Previews == nil {
		deps.Previews = imaging.NewPreviews()
	}
	return &Controller[E, F]{
		Collection: NewCollection[E](desc.Kind, gw, deps.Logger),
		desc:       desc,
		gateway:    gw,
		deps:       deps,
		provider:   provider,
		logger:     deps.Logger.With(zap.String("dialog", string(desc.Kind))),
		state:      StateList,
		shell:      ShellModal,
	}
}

// View is a snapshot of the controller for rendering.
type View[E domain.Entity, F any] struct {
	Kind       domain.Kind     `json:"kind"`
	State      State           `json:"state"`
	Shell      Shell           `json:"shell"`
	Entity     *E              `json:"entity,omitempty"`
	Actions    []domain.Action `json:"actions,omitempty"`
	Draft      *DraftView[F]   `json:"draft,omitempty"`
	Submitting bool            `json:"submitting"`
}

func (c *Controller[E, F]) View() View[E, F] {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.viewLocked()
}

func (c *Controller[E, F]) viewLocked() View[E, F] {
	v := View[E, F]{Kind: c.desc.Kind, State: c.state, Shell: c.shell, Submitting: c.submitting}
	if c.selected != nil {
		e := *c.selected
		v.Entity = &e
		if c.state == StateDetails {
			v.Actions = domain.Actions(c.desc.Kind, e.CurrentStatus())
		}
	}
	if c.draft != nil {
		v.Draft = c.draft.view()
	}
	return v
}

// Select opens the details of entity id: list → details.
func (c *Controller[E, F]) Select(ctx context.Context, id string, shell Shell) (View[E, F], error) {
	if err := c.list.EnsureLoaded(ctx); err != nil {
		return View[E, F]{}, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateList {
		return c.viewLocked(), &StateError{Op: "select", From: c.state}
	}
	e, ok := c.list.Find(id)
	if !ok {
		return c.viewLocked(), fmt.Errorf("%w: %s %s", ErrNotFound, c.desc.Kind, id)
	}
	c.open(StateDetails, shell)
	c.selected = &e
	return c.viewLocked(), nil
}

// Edit opens an editor for the selected entity: details → editing(E).
func (c *Controller[E, F]) Edit() (View[E, F], error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateDetails || c.selected == nil {
		return c.viewLocked(), &StateError{Op: "edit", From: c.state}
	}
	if err := c.editLocked(*c.selected); err != nil {
		return c.viewLocked(), err
	}
	return c.viewLocked(), nil
}

// EditID opens an editor for entity id straight from the list:
// list → editing(E).
func (c *Controller[E, F]) EditID(ctx context.Context, id string, shell Shell) (View[E, F], error) {
	if err := c.list.EnsureLoaded(ctx); err != nil {
		return View[E, F]{}, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateList {
		return c.viewLocked(), &StateError{Op: "edit", From: c.state}
	}
	e, ok := c.list.Find(id)
	if !ok {
		return c.viewLocked(), fmt.Errorf("%w: %s %s", ErrNotFound, c.desc.Kind, id)
	}
	f, err := cloneForm(c.desc.FormFrom(e))
	if err != nil {
		return c.viewLocked(), err
	}
	c.open(StateEditing, shell)
	c.selected = &e
	c.startEdit(e, f)
	return c.viewLocked(), nil
}

func (c *Controller[E, F]) editLocked(e E) error {
	f, err := cloneForm(c.desc.FormFrom(e))
	if err != nil {
		return err
	}
	c.startEdit(e, f)
	c.state = StateEditing
	return nil
}

func (c *Controller[E, F]) startEdit(e E, f F) {
	var saved map[string][]string
	if c.desc.SavedImages != nil {
		saved = c.desc.SavedImages(e)
	}
	normalize(&f)
	c.draft = newDraft(upload.Edit, e.EntityID(), f, saved)
}

// Create opens an empty editor: list → editing(nil).
func (c *Controller[E, F]) Create(shell Shell) (View[E, F], error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateList {
		return c.viewLocked(), &StateError{Op: "create", From: c.state}
	}
	f := c.desc.NewForm()
	normalize(&f)
	c.open(StateEditing, shell)
	c.draft = newDraft(upload.Create, "", f, nil)
	return c.viewLocked(), nil
}

// Cancel returns to the list from details or editing, discarding the draft.
// An in-flight submission is not aborted; it finishes in the background.
func (c *Controller[E, F]) Cancel() View[E, F] {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closeLocked()
	return c.viewLocked()
}

// Reset closes the dialog and forgets the collection, as on logout.
func (c *Controller[E, F]) Reset() {
	c.mu.Lock()
	c.closeLocked()
	c.mu.Unlock()
	c.list.Clear()
}

func (c *Controller[E, F]) open(state State, shell Shell) {
	if shell == "" {
		shell = ShellModal
	}
	c.epoch++
	c.state = state
	c.shell = shell
	c.selected = nil
	c.draft = nil
}

func (c *Controller[E, F]) closeLocked() {
	if c.state == StateList {
		return
	}
	if c.draft != nil {
		c.revoke(c.draft.allPending())
	}
	c.epoch++
	c.state = StateList
	c.selected = nil
	c.draft = nil
}

func (c *Controller[E, F]) revoke(previews []imaging.Preview) {
	for _, p := range previews {
		c.deps.Previews.Revoke(p.Handle)
	}
}

func (c *Controller[E, F]) editingDraft(op string) (*Draft[F], error) {
	if c.state != StateEditing || c.draft == nil {
		return nil, &StateError{Op: op, From: c.state}
	}
	return c.draft, nil
}

// Patch applies raw field values to the draft and returns the errors of the
// fields touched so far. A value that fails decoding leaves the draft as it
// was.
func (c *Controller[E, F]) Patch(raw map[string]any) (form.FieldErrors, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	d, err := c.editingDraft("patch")
	if err != nil {
		return nil, err
	}

	next, err := cloneForm(d.form)
	if err != nil {
		return nil, err
	}
	if errs := form.Decode(raw, &next); !errs.Empty() {
		d.errors = errs.Merge(d.errors)
		return d.errors, nil
	}
	normalize(&next)
	d.form = next
	for k := range raw {
		d.touched[k] = true
	}
	c.revoke(d.syncSlots())
	d.errors = c.deps.Validator.Touched(&d.form, d.touchedPaths()...)
	return d.errors, nil
}

// AddImages compresses files into slot. Files that cannot be processed are
// reported through a *imaging.ProcessingError while the rest are added.
func (c *Controller[E, F]) AddImages(ctx context.Context, slot string, files []imaging.RawFile) ([]imaging.Preview, error) {
	if c.deps.Compressor == nil {
		return nil, errors.New("dialog: no image compressor configured")
	}
	c.mu.Lock()
	d, err := c.editingDraft("add images")
	if err == nil {
		if _, ok := d.slots[slot]; !ok {
			err = fmt.Errorf("%w: %q", ErrUnknownSlot, slot)
		}
	}
	c.mu.Unlock()
	if err != nil {
		return nil, err
	}

	batch, procErr := c.deps.Compressor.Compress(ctx, files)
	var perr *imaging.ProcessingError
	if procErr != nil && !errors.As(procErr, &perr) {
		return nil, procErr
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	s, ok := d.slots[slot]
	if c.draft != d || !ok {
		return nil, ErrDraftClosed
	}
	added := make([]imaging.Preview, 0, len(batch.Files))
	for _, f := range batch.Files {
		added = append(added, c.deps.Previews.Open(f))
	}
	s.pending = append(s.pending, added...)
	if perr != nil {
		return added, perr
	}
	return added, nil
}

// RemoveImage removes ref from slot. A preview handle is revoked; a saved
// URL is marked for deletion on submit.
func (c *Controller[E, F]) RemoveImage(slot, ref string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	d, err := c.editingDraft("remove image")
	if err != nil {
		return err
	}
	s, ok := d.slots[slot]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownSlot, slot)
	}
	if imaging.IsHandle(ref) {
		for i, p := range s.pending {
			if p.Handle == ref {
				s.pending = append(s.pending[:i], s.pending[i+1:]...)
				c.deps.Previews.Revoke(ref)
				return nil
			}
		}
		return fmt.Errorf("%w: %s", ErrUnknownImage, ref)
	}
	if !contains(s.saved, ref) || d.mode != upload.Edit {
		return fmt.Errorf("%w: %s", ErrUnknownImage, ref)
	}
	d.removals.Mark(ref)
	return nil
}

// RestoreImage undoes the removal of a saved URL.
func (c *Controller[E, F]) RestoreImage(slot, url string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	d, err := c.editingDraft("restore image")
	if err != nil {
		return err
	}
	s, ok := d.slots[slot]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownSlot, slot)
	}
	if !contains(s.saved, url) || !d.removals.Unmark(url) {
		return fmt.Errorf("%w: %s", ErrUnknownImage, url)
	}
	return nil
}

// Submit validates the draft, sends it and, on success, refetches the
// collection exactly once and returns to the list. On failure the controller
// stays in editing with the draft intact and nothing is refetched.
//
// The request is detached from ctx cancellation: closing the dialog or
// dropping the caller does not abort it.
func (c *Controller[E, F]) Submit(ctx context.Context) (E, error) {
	var zero E

	c.mu.Lock()
	d, err := c.editingDraft("submit")
	if err != nil {
		c.mu.Unlock()
		return zero, err
	}
	if c.submitting {
		c.mu.Unlock()
		return zero, ErrSubmitInFlight
	}
	normalize(&d.form)
	if errs := c.deps.Validator.Struct(&d.form); !errs.Empty() {
		d.errors = errs
		for _, p := range errs.Paths() {
			d.touched[p] = true
		}
		c.mu.Unlock()
		c.logger.Debug("submit blocked by validation", zap.Strings("fields", errs.Paths()))
		return zero, errs
	}
	d.errors = nil
	payload, err := c.buildLocked(d)
	if err != nil {
		d.lastErr = err.Error()
		c.mu.Unlock()
		return zero, err
	}
	c.submitting = true
	epoch := c.epoch
	mode, id := d.mode, d.entityID
	c.mu.Unlock()

	ctx = context.WithoutCancel(ctx)
	var saved E
	if mode == upload.Edit {
		saved, err = c.gateway.Update(ctx, id, payload)
	} else {
		saved, err = c.gateway.Create(ctx, payload)
	}

	if err != nil {
		c.mu.Lock()
		c.submitting = false
		if c.epoch == epoch && c.draft == d {
			d.lastErr = err.Error()
		}
		c.mu.Unlock()
		c.logger.Warn("submit failed", zap.String("mode", mode.String()), zap.Error(err))
		return zero, err
	}

	if rerr := c.list.Refresh(ctx); rerr != nil {
		c.logger.Warn("refresh after submit failed", zap.Error(rerr))
	}

	c.mu.Lock()
	c.submitting = false
	if c.epoch == epoch {
		c.closeLocked()
	}
	c.mu.Unlock()
	c.logger.Info("entity saved", zap.String("mode", mode.String()), zap.String("id", saved.EntityID()))
	return saved, nil
}

func (c *Controller[E, F]) buildLocked(d *Draft[F]) (*upload.Payload, error) {
	provider, err := c.provider()
	if err != nil {
		return nil, err
	}
	sub := Submission[F]{Mode: d.mode, Form: &d.form, Pending: make(map[string][]imaging.File)}
	for name, s := range d.slots {
		for _, p := range s.pending {
			f, ok := c.deps.Previews.Get(p.Handle)
			if !ok {
				return nil, fmt.Errorf("%w: %s", ErrPreviewGone, p.Name)
			}
			sub.Pending[name] = append(sub.Pending[name], f)
		}
	}
	b := upload.NewBuilder(d.mode, provider)
	if err := c.desc.Encode(b, sub); err != nil {
		return nil, err
	}
	return b.RemoveFiles(d.removals).Build()
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
