package model

import "time"

// Transaction is one entry of an account's transaction history.
type Transaction struct {
	Timestamp time.Time `json:"timestamp"`
	Amount    float64   `json:"amount"`
	Hash      string    `json:"hash"`
	Sender    string    `json:"sender"`
	Receiver  string    `json:"receiver"`
	Name      string    `json:"name"`
}
