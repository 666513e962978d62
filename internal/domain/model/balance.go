package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type BalanceEntryKind string

const (
	BalanceCredit   BalanceEntryKind = "CREDIT"
	BalanceReversal BalanceEntryKind = "REVERSAL"
)

// BalanceEntry is one movement on an instructor's balance. (PaymentID, Kind)
// is unique, which makes crediting a payment happen at most once.
type BalanceEntry struct {
	ID           string
	InstructorID string
	PaymentID    string
	Kind         BalanceEntryKind
	Amount       decimal.Decimal // negative for reversals
	CreatedAt    time.Time
}

type InstructorBalance struct {
	InstructorID   string          `json:"instructorId"`
	Balance        decimal.Decimal `json:"balance"`
	MinimumPayout  decimal.Decimal `json:"minimumPayout"`
	PayoutEligible bool            `json:"payoutEligible"`
}
