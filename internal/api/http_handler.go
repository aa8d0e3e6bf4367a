package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"hairsby-console/internal/dialog"
	"hairsby-console/internal/domain"
	"hairsby-console/internal/form"
	"hairsby-console/internal/imaging"
	"hairsby-console/internal/notify"
	"hairsby-console/internal/remote"
	"hairsby-console/internal/session"
)

// WalletService is the backend's wallet surface.
type WalletService interface {
	GetWallet(ctx context.Context) (domain.Wallet, error)
	AddFunds(ctx context.Context, f domain.AddFundsForm) (domain.Wallet, error)
	Withdraw(ctx context.Context, f domain.WithdrawForm) (domain.Transaction, error)
	Transfer(ctx context.Context, f domain.TransferForm) (domain.Transaction, error)
	RequestPayout(ctx context.Context, f domain.PayoutForm) (domain.Payout, error)
	ListBankAccounts(ctx context.Context) ([]domain.BankAccount, error)
	AddBankAccount(ctx context.Context, f domain.BankAccountForm) (domain.BankAccount, error)
}

// Registrar creates accounts.
type Registrar interface {
	Register(ctx context.Context, f domain.SignupForm) error
}

// Dialogs are the per-kind controllers the shell exposes.
type Dialogs struct {
	Bookings *dialog.Controller[domain.Booking, domain.BookingForm]
	Products *dialog.Controller[domain.Product, domain.ProductForm]
	Services *dialog.Controller[domain.Service, domain.ServiceForm]
	Orders   *dialog.Collection[domain.Order]
}

// Deps holds everything the handler needs.
type Deps struct {
	Session        *session.Context
	Dialogs        Dialogs
	Wallet         WalletService
	Accounts       Registrar
	Previews       *imaging.Previews
	Validator      *form.Validator
	Logger         *zap.Logger
	MaxUploadBytes int64
}

// HTTPHandler holds dependencies for HTTP handlers.
type HTTPHandler struct {
	session   *session.Context
	dialogs   Dialogs
	wallet    WalletService
	accounts  Registrar
	previews  *imaging.Previews
	validator *form.Validator
	notifier  *notify.Notifier
	logger    *zap.Logger
	maxUpload int64
}

// NewHTTPHandler creates a new HTTPHandler with dependencies.
func NewHTTPHandler(d Deps) *HTTPHandler {
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	if d.MaxUploadBytes <= 0 {
		d.MaxUploadBytes = 32 << 20
	}
	h := &HTTPHandler{
		session:   d.Session,
		dialogs:   d.Dialogs,
		wallet:    d.Wallet,
		accounts:  d.Accounts,
		previews:  d.Previews,
		validator: d.Validator,
		notifier:  d.Session.Notifier(),
		logger:    d.Logger.Named("http"),
		maxUpload: d.MaxUploadBytes,
	}
	d.Session.OnLogout(h.reset)
	return h
}

// reset closes every dialog, forgets the lists and revokes pending previews.
func (h *HTTPHandler) reset() {
	if h.dialogs.Bookings != nil {
		h.dialogs.Bookings.Reset()
	}
	if h.dialogs.Products != nil {
		h.dialogs.Products.Reset()
	}
	if h.dialogs.Services != nil {
		h.dialogs.Services.Reset()
	}
	if h.dialogs.Orders != nil {
		h.dialogs.Orders.List().Clear()
	}
	if h.previews != nil {
		if n := h.previews.RevokeAll(); n > 0 {
			h.logger.Debug("revoked previews on logout", zap.Int("count", n))
		}
	}
}

// --- Helpers ---

// ErrorResponse defines the structure for JSON error responses.
type ErrorResponse struct {
	Error  string           `json:"error"`
	Fields form.FieldErrors `json:"fields,omitempty"`
}

func respondWithError(w http.ResponseWriter, code int, message string) {
	respondWithJSON(w, code, ErrorResponse{Error: message})
}

func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if payload != nil {
		if err := json.NewEncoder(w).Encode(payload); err != nil {
			zap.L().Error("failed to encode JSON response", zap.Error(err))
		}
	}
}

// respondWithErr maps an error from any layer to a status code. Validation
// errors go back inline; backend rejections and unexpected failures also
// raise an error toast titled failure.
func (h *HTTPHandler) respondWithErr(w http.ResponseWriter, err error, failure string) {
	var (
		fieldErrs form.FieldErrors
		apiErr    *remote.APIError
		stateErr  *dialog.StateError
	)
	switch {
	case errors.As(err, &fieldErrs):
		h.logger.Debug("validation failed", zap.Strings("fields", fieldErrs.Paths()))
		respondWithJSON(w, http.StatusUnprocessableEntity, ErrorResponse{Error: "Validation failed", Fields: fieldErrs})
	case errors.Is(err, session.ErrNotSignedIn),
		errors.Is(err, session.ErrTokenExpired),
		errors.Is(err, session.ErrInvalidToken),
		errors.Is(err, remote.ErrUnauthorized):
		respondWithError(w, http.StatusUnauthorized, "Please sign in again")
	case errors.Is(err, domain.ErrNotProvider):
		respondWithError(w, http.StatusForbidden, "Only specialists and businesses can do this")
	case errors.Is(err, domain.ErrIllegalTransition):
		respondWithError(w, http.StatusConflict, err.Error())
	case errors.Is(err, domain.ErrUnknownAction), errors.Is(err, errBadRequest):
		respondWithError(w, http.StatusBadRequest, err.Error())
	case errors.As(err, &stateErr),
		errors.Is(err, dialog.ErrSubmitInFlight),
		errors.Is(err, dialog.ErrDraftClosed):
		respondWithError(w, http.StatusConflict, err.Error())
	case errors.Is(err, dialog.ErrNotFound),
		errors.Is(err, dialog.ErrUnknownSlot),
		errors.Is(err, dialog.ErrUnknownImage),
		errors.Is(err, dialog.ErrPreviewGone):
		respondWithError(w, http.StatusNotFound, err.Error())
	case errors.As(err, &apiErr):
		msg := remote.Message(err)
		h.logger.Warn("backend rejected request", zap.Int("status", apiErr.Status), zap.String("message", msg))
		h.notifier.Error(failure, msg)
		respondWithError(w, http.StatusBadGateway, msg)
	default:
		h.logger.Error("request failed", zap.String("failure", failure), zap.Error(err))
		h.notifier.Error(failure, remote.Message(err))
		respondWithError(w, http.StatusInternalServerError, failure)
	}
}

var errBadRequest = errors.New("bad request")

func badRequest(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{errBadRequest}, args...)...)
}

// readRaw returns the request's fields as a generic map. JSON bodies are
// decoded as-is; form bodies keep their string values, which the form
// decoder converts.
func readRaw(r *http.Request) (map[string]any, error) {
	ct, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if ct == "application/x-www-form-urlencoded" {
		if err := r.ParseForm(); err != nil {
			return nil, badRequest("invalid form body")
		}
		raw := make(map[string]any, len(r.PostForm))
		for k, vs := range r.PostForm {
			if len(vs) > 0 {
				raw[k] = vs[0]
			}
		}
		return raw, nil
	}
	raw := map[string]any{}
	if err := json.NewDecoder(r.Body).Decode(&raw); err != nil && !errors.Is(err, io.EOF) {
		return nil, badRequest("invalid request payload")
	}
	return raw, nil
}

// decodeForm reads the body into a fresh F and validates it.
func decodeForm[F any](h *HTTPHandler, r *http.Request) (F, error) {
	var f F
	raw, err := readRaw(r)
	if err != nil {
		return f, err
	}
	if errs := h.validator.DecodeAndValidate(raw, &f); !errs.Empty() {
		return f, errs
	}
	return f, nil
}

// --- Middleware ---

func (h *HTTPHandler) requireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, err := h.session.Actor(); err != nil {
			h.respondWithErr(w, err, "")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (h *HTTPHandler) requireProvider(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, err := h.session.Provider(); err != nil {
			h.respondWithErr(w, err, "")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// --- Session & signup ---

type loginInput struct {
	Token string `json:"token"`
}

func (h *HTTPHandler) Login(w http.ResponseWriter, r *http.Request) {
	var input loginInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request payload: "+err.Error())
		return
	}
	info, err := h.session.Login(r.Context(), input.Token)
	if err != nil {
		h.respondWithErr(w, err, "Could not sign in")
		return
	}
	respondWithJSON(w, http.StatusOK, info)
}

func (h *HTTPHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, h.session.Info())
}

func (h *HTTPHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.session.Logout(r.Context()); err != nil {
		h.respondWithErr(w, err, "Could not sign out")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type signupValidation struct {
	Valid  bool             `json:"valid"`
	Fields form.FieldErrors `json:"fields,omitempty"`
}

// ValidateSignup runs the role-specific rule set without registering.
func (h *HTTPHandler) ValidateSignup(w http.ResponseWriter, r *http.Request) {
	_, err := decodeForm[domain.SignupForm](h, r)
	var fieldErrs form.FieldErrors
	switch {
	case err == nil:
		respondWithJSON(w, http.StatusOK, signupValidation{Valid: true})
	case errors.As(err, &fieldErrs):
		respondWithJSON(w, http.StatusOK, signupValidation{Fields: fieldErrs})
	default:
		h.respondWithErr(w, err, "Could not validate signup")
	}
}

func (h *HTTPHandler) Signup(w http.ResponseWriter, r *http.Request) {
	f, err := decodeForm[domain.SignupForm](h, r)
	if err != nil {
		h.respondWithErr(w, err, "Could not create account")
		return
	}
	if err := h.accounts.Register(r.Context(), f); err != nil {
		h.respondWithErr(w, err, "Could not create account")
		return
	}
	h.notifier.Success("Account created", "Check your inbox to verify your email.")
	respondWithJSON(w, http.StatusCreated, map[string]string{"role": string(f.Role), "email": f.Email})
}

// --- Toasts & previews ---

func (h *HTTPHandler) DrainToasts(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, h.notifier.Drain())
}

// ServePreview streams a pending image to the browser.
func (h *HTTPHandler) ServePreview(w http.ResponseWriter, r *http.Request) {
	f, ok := h.previews.Get(chi.URLParam(r, "handle"))
	if !ok {
		respondWithError(w, http.StatusNotFound, "Preview not found")
		return
	}
	w.Header().Set("Content-Type", f.ContentType)
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(f.Data); err != nil {
		h.logger.Debug("writing preview failed", zap.Error(err))
	}
}

// RegisterRoutes sets up the HTTP routes for the service.
func (h *HTTPHandler) RegisterRoutes(r chi.Router) {
	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/session", func(r chi.Router) {
			r.Post("/", h.Login)
			r.Get("/", h.GetSession)
			r.Delete("/", h.Logout)
		})
		r.Post("/signup/validate", h.ValidateSignup)
		r.Post("/signup", h.Signup)
		r.Get("/toasts", h.DrainToasts)

		r.Group(func(r chi.Router) {
			r.Use(h.requireSession)
			r.Get("/previews/{handle}", h.ServePreview)
			h.registerWalletRoutes(r)
		})

		r.Group(func(r chi.Router) {
			r.Use(h.requireProvider)
			mountDialog(r, h, h.dialogs.Bookings)
			mountDialog(r, h, h.dialogs.Products)
			mountDialog(r, h, h.dialogs.Services)
			r.Route("/"+string(domain.KindOrder), func(r chi.Router) {
				mountCollection(r, h, h.dialogs.Orders)
			})
		})
	})
}

// label turns a collection name into the singular used in toasts.
func label(kind domain.Kind) string {
	s := strings.TrimSuffix(string(kind), "s")
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
