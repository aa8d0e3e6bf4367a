package dialog

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"image"
	"image/color"
	"image/png"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"hairsby-console/internal/domain"
	"hairsby-console/internal/form"
	"hairsby-console/internal/imaging"
	"hairsby-console/internal/upload"
)

type MockServiceGateway struct {
	mock.Mock
}

func (m *MockServiceGateway) List(ctx context.Context) ([]domain.Service, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.Service), args.Error(1)
}

func (m *MockServiceGateway) Create(ctx context.Context, p *upload.Payload) (domain.Service, error) {
	args := m.Called(ctx, p)
	return args.Get(0).(domain.Service), args.Error(1)
}

func (m *MockServiceGateway) Update(ctx context.Context, id string, p *upload.Payload) (domain.Service, error) {
	args := m.Called(ctx, id, p)
	return args.Get(0).(domain.Service), args.Error(1)
}

func (m *MockServiceGateway) Transition(ctx context.Context, id string, action domain.Action) (domain.Service, error) {
	args := m.Called(ctx, id, action)
	return args.Get(0).(domain.Service), args.Error(1)
}

func PtrTo[T any](v T) *T {
	return &v
}

func testServiceDescriptor() Descriptor[domain.Service, domain.ServiceForm] {
	return Descriptor[domain.Service, domain.ServiceForm]{
		Kind:    domain.KindService,
		NewForm: func() domain.ServiceForm { return domain.ServiceForm{Status: domain.StatusActive} },
		FormFrom: func(s domain.Service) domain.ServiceForm {
			return domain.ServiceForm{
				Name: s.Name, Category: s.Category, Duration: PtrTo(s.Duration),
				Price: PtrTo(s.Price), Status: s.Status,
			}
		},
		SavedImages: func(s domain.Service) map[string][]string {
			return map[string][]string{domain.MainImageSlot: s.Images}
		},
		Encode: func(b *upload.Builder, s Submission[domain.ServiceForm]) error {
			b.Scalar("name", s.Form.Name).
				Scalar("category", s.Form.Category).
				Scalar("duration", s.Form.Duration).
				Scalar("price", s.Form.Price).
				Scalar("status", s.Form.Status)
			for _, f := range s.Pending[domain.MainImageSlot] {
				b.File("images", f)
			}
			return nil
		},
	}
}

var savedService = domain.Service{
	ID: "svc-1", Name: "Fade", Category: "barber", Duration: 30, Price: 25,
	Status: domain.StatusActive, Images: []string{"https://cdn/fade-1.jpg", "https://cdn/fade-2.jpg"},
}

func newTestController(t *testing.T, gw *MockServiceGateway) (*Controller[domain.Service, domain.ServiceForm], *imaging.Previews) {
	t.Helper()
	v, err := form.NewValidator()
	require.NoError(t, err)
	comp, err := imaging.NewCompressor(imaging.DefaultOptions(), nil)
	require.NoError(t, err)
	previews := imaging.NewPreviews()
	provider := func() (domain.Provider, error) { return domain.Specialist{ID: "sp-1"}, nil }
	c := NewController[domain.Service, domain.ServiceForm](testServiceDescriptor(), gw, provider, Deps{
		Validator: v, Compressor: comp, Previews: previews,
	})
	return c, previews
}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 40, 30))
	for x := 0; x < 40; x++ {
		img.Set(x, x%30, color.RGBA{R: 255, A: 255})
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestController_EditSubmitSuccessRefreshesOnce(t *testing.T) {
	gw := new(MockServiceGateway)
	gw.On("List", mock.Anything).Return([]domain.Service{savedService}, nil)
	updated := savedService
	updated.Name = "Skin fade"
	gw.On("Update", mock.Anything, "svc-1", mock.AnythingOfType("*upload.Payload")).Return(updated, nil).Once()

	c, _ := newTestController(t, gw)
	ctx := context.Background()

	view, err := c.Select(ctx, "svc-1", ShellEmbedded)
	require.NoError(t, err)
	assert.Equal(t, StateDetails, view.State)
	assert.Equal(t, ShellEmbedded, view.Shell)
	assert.Contains(t, view.Actions, domain.ActionDeactivate)

	view, err = c.Edit()
	require.NoError(t, err)
	assert.Equal(t, StateEditing, view.State)
	require.NotNil(t, view.Draft)
	assert.Equal(t, "svc-1", view.Draft.EntityID)
	assert.Equal(t, "Fade", view.Draft.Form.Name)
	gw.AssertNumberOfCalls(t, "List", 1)

	errs, err := c.Patch(map[string]any{"name": "Skin fade"})
	require.NoError(t, err)
	assert.Empty(t, errs)

	saved, err := c.Submit(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Skin fade", saved.Name)

	view = c.View()
	assert.Equal(t, StateList, view.State)
	assert.Nil(t, view.Draft)
	gw.AssertNumberOfCalls(t, "List", 2)

	payload := gw.Calls[1].Arguments.Get(2).(*upload.Payload)
	name, _ := payload.Value("name")
	assert.Equal(t, "Skin fade", name)
	provider, _ := payload.Value(upload.FieldProviderID)
	assert.Equal(t, "sp-1", provider)
}

func TestController_FailedSubmitStaysEditing(t *testing.T) {
	gw := new(MockServiceGateway)
	gw.On("List", mock.Anything).Return([]domain.Service{savedService}, nil)
	gw.On("Update", mock.Anything, "svc-1", mock.Anything).Return(domain.Service{}, errors.New("backend said no"))

	c, _ := newTestController(t, gw)
	ctx := context.Background()
	_, err := c.Select(ctx, "svc-1", ShellModal)
	require.NoError(t, err)
	_, err = c.Edit()
	require.NoError(t, err)
	_, err = c.Patch(map[string]any{"name": "Typed by user"})
	require.NoError(t, err)

	_, err = c.Submit(ctx)
	require.Error(t, err)

	view := c.View()
	assert.Equal(t, StateEditing, view.State)
	require.NotNil(t, view.Draft)
	assert.Equal(t, "Typed by user", view.Draft.Form.Name)
	assert.Equal(t, "backend said no", view.Draft.LastError)
	gw.AssertNumberOfCalls(t, "List", 1)
}

func TestController_ValidationBlocksSubmit(t *testing.T) {
	gw := new(MockServiceGateway)
	c, _ := newTestController(t, gw)

	_, err := c.Create(ShellModal)
	require.NoError(t, err)
	errs, err := c.Patch(map[string]any{"name": "X", "price": ""})
	require.NoError(t, err)
	assert.Contains(t, errs, "name")
	assert.Contains(t, errs, "price")
	assert.NotContains(t, errs, "category", "untouched fields are not reported on blur")

	_, err = c.Submit(context.Background())
	var ferrs form.FieldErrors
	require.True(t, errors.As(err, &ferrs))
	assert.Contains(t, ferrs, "category")
	assert.Contains(t, ferrs, "duration")

	assert.Equal(t, StateEditing, c.View().State)
	gw.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	gw.AssertNotCalled(t, "List", mock.Anything)
}

func TestController_BadNumberLeavesDraftUntouched(t *testing.T) {
	c, _ := newTestController(t, new(MockServiceGateway))
	_, err := c.Create(ShellModal)
	require.NoError(t, err)
	_, err = c.Patch(map[string]any{"price": "40"})
	require.NoError(t, err)

	errs, err := c.Patch(map[string]any{"price": "forty", "name": "Braids"})
	require.NoError(t, err)
	assert.Equal(t, "price must be a number", errs["price"])

	draft := c.View().Draft
	require.NotNil(t, draft.Form.Price)
	assert.Equal(t, 40.0, *draft.Form.Price)
	assert.Empty(t, draft.Form.Name)
}

func TestController_EditFromListAndSubmit(t *testing.T) {
	gw := new(MockServiceGateway)
	gw.On("List", mock.Anything).Return([]domain.Service{savedService}, nil)
	gw.On("Update", mock.Anything, "svc-1", mock.AnythingOfType("*upload.Payload")).Return(savedService, nil).Once()
	c, _ := newTestController(t, gw)
	ctx := context.Background()

	view, err := c.EditID(ctx, "svc-1", ShellModal)
	require.NoError(t, err)
	assert.Equal(t, StateEditing, view.State)
	require.NotNil(t, view.Entity)
	assert.Equal(t, "svc-1", view.Entity.ID)
	assert.Equal(t, "edit", view.Draft.Mode)
	assert.Equal(t, "Fade", view.Draft.Form.Name)
	assert.Equal(t, savedService.Images, view.Draft.Images[domain.MainImageSlot].Saved)

	_, err = c.EditID(ctx, "svc-1", ShellModal)
	assert.ErrorIs(t, err, ErrInvalidState)

	_, err = c.Submit(ctx)
	require.NoError(t, err)
	assert.Equal(t, StateList, c.View().State)
	gw.AssertNumberOfCalls(t, "List", 2)

	_, err = c.EditID(ctx, "missing", ShellModal)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestController_StateGuards(t *testing.T) {
	gw := new(MockServiceGateway)
	gw.On("List", mock.Anything).Return([]domain.Service{savedService}, nil)
	c, _ := newTestController(t, gw)

	_, err := c.Edit()
	assert.ErrorIs(t, err, ErrInvalidState)
	_, err = c.Submit(context.Background())
	assert.ErrorIs(t, err, ErrInvalidState)

	_, err = c.Select(context.Background(), "missing", ShellModal)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = c.Create(ShellModal)
	require.NoError(t, err)
	_, err = c.Create(ShellModal)
	var serr *StateError
	require.True(t, errors.As(err, &serr))
	assert.Equal(t, StateEditing, serr.From)

	assert.Equal(t, StateList, c.Cancel().State)
}

func TestController_SavedImageRemovedOnce(t *testing.T) {
	gw := new(MockServiceGateway)
	gw.On("List", mock.Anything).Return([]domain.Service{savedService}, nil)
	gw.On("Update", mock.Anything, "svc-1", mock.Anything).Return(savedService, nil)
	c, _ := newTestController(t, gw)
	ctx := context.Background()

	_, err := c.Select(ctx, "svc-1", ShellModal)
	require.NoError(t, err)
	_, err = c.Edit()
	require.NoError(t, err)

	url := "https://cdn/fade-1.jpg"
	require.NoError(t, c.RemoveImage(domain.MainImageSlot, url))
	require.NoError(t, c.RemoveImage(domain.MainImageSlot, url))
	require.NoError(t, c.RestoreImage(domain.MainImageSlot, url))
	require.NoError(t, c.RemoveImage(domain.MainImageSlot, url))

	draft := c.View().Draft
	assert.Equal(t, []string{url}, draft.FilesToRemove)
	assert.Equal(t, []string{"https://cdn/fade-2.jpg"}, draft.Images[domain.MainImageSlot].Saved)

	assert.ErrorIs(t, c.RemoveImage(domain.MainImageSlot, "https://cdn/other.jpg"), ErrUnknownImage)
	assert.ErrorIs(t, c.RemoveImage("variant:x", url), ErrUnknownSlot)

	_, err = c.Submit(ctx)
	require.NoError(t, err)
	payload := gw.Calls[1].Arguments.Get(2).(*upload.Payload)
	raw, ok := payload.Value(upload.FieldFilesToRemove)
	require.True(t, ok)
	var urls []string
	require.NoError(t, json.Unmarshal([]byte(raw), &urls))
	assert.Equal(t, []string{url}, urls)
}

func TestController_PendingImages(t *testing.T) {
	gw := new(MockServiceGateway)
	gw.On("List", mock.Anything).Return([]domain.Service{}, nil)
	gw.On("Create", mock.Anything, mock.Anything).Return(domain.Service{ID: "svc-new"}, nil)
	c, previews := newTestController(t, gw)
	ctx := context.Background()

	_, err := c.Create(ShellModal)
	require.NoError(t, err)

	added, err := c.AddImages(ctx, domain.MainImageSlot, []imaging.RawFile{
		{Name: "a.png", Data: pngBytes(t)},
		{Name: "junk.txt", Data: []byte("not an image")},
		{Name: "b.png", Data: pngBytes(t)},
	})
	var perr *imaging.ProcessingError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, []string{"junk.txt"}, perr.Names())
	require.Len(t, added, 2)
	assert.Equal(t, 2, previews.Len())

	require.NoError(t, c.RemoveImage(domain.MainImageSlot, added[0].Handle))
	assert.Equal(t, 1, previews.Len())

	_, err = c.Patch(map[string]any{"name": "Locs", "category": "hair", "duration": "90", "price": "60"})
	require.NoError(t, err)
	_, err = c.Submit(ctx)
	require.NoError(t, err)

	payload := gw.Calls[0].Arguments.Get(1).(*upload.Payload)
	files := payload.FilesIn("images")
	require.Len(t, files, 1)
	assert.Equal(t, "b.jpg", files[0].Name)
	assert.Equal(t, 0, previews.Len(), "submit revokes previews")
}

func TestController_CancelDuringSubmitLetsRequestFinish(t *testing.T) {
	gw := new(MockServiceGateway)
	gw.On("List", mock.Anything).Return([]domain.Service{}, nil)
	release := make(chan struct{})
	gw.On("Create", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { <-release }).
		Return(domain.Service{ID: "svc-new"}, nil).Once()

	c, _ := newTestController(t, gw)
	_, err := c.Create(ShellModal)
	require.NoError(t, err)
	_, err = c.Patch(map[string]any{"name": "Locs", "category": "hair", "duration": 90, "price": 60})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := c.Submit(ctx)
		done <- err
	}()

	require.Eventually(t, func() bool { return c.View().Submitting }, time.Second, 5*time.Millisecond)
	_, err = c.Submit(context.Background())
	assert.ErrorIs(t, err, ErrSubmitInFlight)

	assert.Equal(t, StateList, c.Cancel().State)
	cancel()
	close(release)

	require.NoError(t, <-done)
	gw.AssertNumberOfCalls(t, "List", 1)
	assert.False(t, c.View().Submitting)
	assert.Equal(t, StateList, c.View().State)
}

func TestCollection_TransitionChecksTableFirst(t *testing.T) {
	gw := new(MockServiceGateway)
	inactive := savedService
	inactive.Status = domain.StatusInactive
	gw.On("List", mock.Anything).Return([]domain.Service{savedService}, nil).Once()
	gw.On("List", mock.Anything).Return([]domain.Service{inactive}, nil)
	gw.On("Transition", mock.Anything, "svc-1", domain.ActionDeactivate).Return(inactive, nil)

	c, _ := newTestController(t, gw)
	ctx := context.Background()

	_, err := c.Transition(ctx, "svc-1", domain.ActionActivate)
	assert.ErrorIs(t, err, domain.ErrIllegalTransition)
	gw.AssertNotCalled(t, "Transition", mock.Anything, mock.Anything, mock.Anything)

	got, err := c.Transition(ctx, "svc-1", domain.ActionDeactivate)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusInactive, got.Status)
	gw.AssertNumberOfCalls(t, "List", 2)

	_, err = c.Transition(ctx, "svc-1", domain.ActionConfirm)
	assert.ErrorIs(t, err, domain.ErrUnknownAction)
}
