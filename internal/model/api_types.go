package model

import "time"

// ErrorResponse is the consistent JSON structure for all API error responses.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// RegisterRequest represents request for POST /auth/register
type RegisterRequest struct {
	AccountName string `json:"accountName" binding:"required"`
	AccountType string `json:"accountType" binding:"required"`
	Password    string `json:"password" binding:"required"`
	Biometric   string `json:"biometric,omitempty"`
}

// RegisterResponse represents response for POST /auth/register
type RegisterResponse struct {
	Success        bool   `json:"success"`
	AccountName    string `json:"accountName"`
	RecoveryPhrase string `json:"recoveryPhrase"`
}

// LoginRequest represents request for POST /auth/login
type LoginRequest struct {
	AccountName string `json:"accountName" binding:"required"`
	Password    string `json:"password" binding:"required"`
	Biometric   string `json:"biometric,omitempty"`
}

// AccountResponse represents the account view returned after login and for
// GET /accounts/current
type AccountResponse struct {
	AccountName      string            `json:"accountName"`
	AccountType      string            `json:"accountType"`
	TransactionLimit string            `json:"transactionLimit"`
	UsesRealFunds    bool              `json:"usesRealFunds"`
	Contacts         map[string]string `json:"contacts"`
	WalletNames      []string          `json:"walletNames"`
}

// ListAccountsResponse represents response for GET /accounts
type ListAccountsResponse struct {
	Accounts []string `json:"accounts"`
}

// ContactRequest represents request for POST /contacts
type ContactRequest struct {
	Name    string `json:"name" binding:"required"`
	Address string `json:"address" binding:"required"`
}

// CreateWalletRequest represents request for POST /wallets
type CreateWalletRequest struct {
	Name string `json:"name" binding:"required"`
	Type string `json:"type" binding:"required"`
}

// CreateWalletResponse represents response for POST /wallets
type CreateWalletResponse struct {
	Name     string `json:"name"`
	Type     string `json:"type"`
	Address  string `json:"address"`
	KeyIndex uint32 `json:"keyIndex"`
	QR       string `json:"QR"`
}

// SendRequest represents request for POST /wallets/send
type SendRequest struct {
	Wallet    string `json:"wallet" binding:"required"`
	ToAddress string `json:"toAddress" binding:"required"`
	Amount    string `json:"amount" binding:"required"`
}

// SendResponse represents response for POST /wallets/send
type SendResponse struct {
	TxID string `json:"txId"`
}

// AuditEntryView represents one audit log entry for GET /audit
type AuditEntryView struct {
	Timestamp   time.Time `json:"timestamp"`
	AccountName string    `json:"accountName"`
	Status      string    `json:"status"`
}

// AuditLogResponse represents response for GET /audit
type AuditLogResponse struct {
	Entries      []AuditEntryView `json:"entries"`
	FailedInHour int              `json:"failedInLastHour"`
}
