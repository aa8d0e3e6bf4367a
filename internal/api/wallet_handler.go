package api

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"hairsby-console/internal/domain"
)

func (h *HTTPHandler) GetWallet(w http.ResponseWriter, r *http.Request) {
	wallet, err := h.wallet.GetWallet(r.Context())
	if err != nil {
		h.respondWithErr(w, err, "Could not load wallet")
		return
	}
	respondWithJSON(w, http.StatusOK, wallet)
}

func (h *HTTPHandler) ListBankAccounts(w http.ResponseWriter, r *http.Request) {
	accounts, err := h.wallet.ListBankAccounts(r.Context())
	if err != nil {
		h.respondWithErr(w, err, "Could not load bank accounts")
		return
	}
	respondWithJSON(w, http.StatusOK, accounts)
}

// walletAction validates the body as F, forwards it and reports the outcome
// as a toast.
func walletAction[F, R any](h *HTTPHandler, done, failed string, call func(context.Context, F) (R, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		f, err := decodeForm[F](h, r)
		if err != nil {
			h.respondWithErr(w, err, failed)
			return
		}
		out, err := call(r.Context(), f)
		if err != nil {
			h.respondWithErr(w, err, failed)
			return
		}
		h.notifier.Success(done, "")
		respondWithJSON(w, http.StatusCreated, out)
	}
}

func (h *HTTPHandler) registerWalletRoutes(r chi.Router) {
	r.Route("/wallet", func(r chi.Router) {
		r.Get("/", h.GetWallet)
		r.Post("/funds", walletAction[domain.AddFundsForm](h, "Funds added", "Could not add funds", h.wallet.AddFunds))
		r.Post("/withdrawals", walletAction[domain.WithdrawForm](h, "Withdrawal requested", "Could not withdraw funds", h.wallet.Withdraw))
		r.Post("/transfers", walletAction[domain.TransferForm](h, "Transfer sent", "Could not transfer funds", h.wallet.Transfer))
		r.Post("/payouts", walletAction[domain.PayoutForm](h, "Payout requested", "Could not request payout", h.wallet.RequestPayout))
		r.Get("/bank-accounts", h.ListBankAccounts)
		r.Post("/bank-accounts", walletAction[domain.BankAccountForm](h, "Bank account added", "Could not add bank account", h.wallet.AddBankAccount))
	})
}
