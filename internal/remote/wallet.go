package remote

import (
	"context"
	"net/http"

	"hairsby-console/internal/domain"
)

// Wallet endpoints. Balances, escrow and payouts are computed by the backend;
// these calls only forward validated forms and return what it reports.

func (c *Client) GetWallet(ctx context.Context) (domain.Wallet, error) {
	var w domain.Wallet
	err := c.doJSON(ctx, http.MethodGet, "wallet", nil, &w)
	return w, err
}

func (c *Client) AddFunds(ctx context.Context, f domain.AddFundsForm) (domain.Wallet, error) {
	var w domain.Wallet
	err := c.doJSON(ctx, http.MethodPost, "wallet/add-funds", f, &w)
	return w, err
}

func (c *Client) Withdraw(ctx context.Context, f domain.WithdrawForm) (domain.Transaction, error) {
	var t domain.Transaction
	err := c.doJSON(ctx, http.MethodPost, "wallet/withdraw", f, &t)
	return t, err
}

func (c *Client) Transfer(ctx context.Context, f domain.TransferForm) (domain.Transaction, error) {
	var t domain.Transaction
	err := c.doJSON(ctx, http.MethodPost, "wallet/transfer", f, &t)
	return t, err
}

func (c *Client) RequestPayout(ctx context.Context, f domain.PayoutForm) (domain.Payout, error) {
	var p domain.Payout
	err := c.doJSON(ctx, http.MethodPost, "wallet/payouts", f, &p)
	return p, err
}

func (c *Client) ListBankAccounts(ctx context.Context) ([]domain.BankAccount, error) {
	var accounts []domain.BankAccount
	if err := c.doJSON(ctx, http.MethodGet, "wallet/bank-accounts", nil, &accounts); err != nil {
		return nil, err
	}
	if accounts == nil {
		accounts = []domain.BankAccount{}
	}
	return accounts, nil
}

func (c *Client) AddBankAccount(ctx context.Context, f domain.BankAccountForm) (domain.BankAccount, error) {
	var a domain.BankAccount
	err := c.doJSON(ctx, http.MethodPost, "wallet/bank-accounts", f, &a)
	return a, err
}
