package domain

import "time"

// Wallet is the provider's balance as reported by the backend. Balance
// mutation, escrow and ledger consistency are owned entirely server-side.
type Wallet struct {
	ID               string        `json:"id"`
	Balance          float64       `json:"balance"`
	PendingBalance   float64       `json:"pendingBalance"`
	Currency         string        `json:"currency"`
	RecentActivities []Transaction `json:"transactions,omitempty"`
}

type Transaction struct {
	ID          string    `json:"id"`
	Type        string    `json:"type"` // credit, debit, transfer, payout
	Amount      float64   `json:"amount"`
	Description string    `json:"description,omitempty"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"createdAt"`
}

type BankAccount struct {
	ID            string `json:"id"`
	BankName      string `json:"bankName"`
	AccountName   string `json:"accountName"`
	AccountNumber string `json:"accountNumber"` // masked by the backend
	SortCode      string `json:"sortCode"`
	IsDefault     bool   `json:"isDefault"`
}

type Payout struct {
	ID            string    `json:"id"`
	Amount        float64   `json:"amount"`
	BankAccountID string    `json:"bankAccountId"`
	Status        string    `json:"status"`
	RequestedAt   time.Time `json:"requestedAt"`
}

// AddFundsForm tops the wallet up with a tokenized payment method.
type AddFundsForm struct {
	Amount        *float64 `json:"amount" validate:"required,gt=0,lte=10000"`
	PaymentMethod string   `json:"paymentMethodId" validate:"required"`
}

type WithdrawForm struct {
	Amount        *float64 `json:"amount" validate:"required,gt=0"`
	BankAccountID string   `json:"bankAccountId" validate:"required"`
}

type TransferForm struct {
	Amount         *float64 `json:"amount" validate:"required,gt=0"`
	RecipientEmail string   `json:"recipientEmail" validate:"required,email"`
	Note           string   `json:"note,omitempty" validate:"max=140"`
}

type PayoutForm struct {
	Amount        *float64 `json:"amount" validate:"required,gt=0"`
	BankAccountID string   `json:"bankAccountId" validate:"required"`
}

type BankAccountForm struct {
	BankName      string `json:"bankName" validate:"required,max=80"`
	AccountName   string `json:"accountName" validate:"required,max=80"`
	AccountNumber string `json:"accountNumber" validate:"required,numeric,len=8"`
	SortCode      string `json:"sortCode" validate:"required,numeric,len=6"`
	IsDefault     bool   `json:"isDefault"`
}
