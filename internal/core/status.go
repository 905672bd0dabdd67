package core

import (
	"time"

	"github.com/shopspring/decimal"
)

// ComputeStatus derives an invoice's status from its monetary and temporal
// inputs. First match wins:
//
//  1. totalPaid >= total                  → PAID
//  2. totalPaid > 0                       → PARTIALLY_PAID
//  3. now past issueDate + dueDays days   → OVERDUE
//  4. otherwise                           → PENDING
//
// A partial payment suppresses OVERDUE: an invoice with any payment on record
// is reported PARTIALLY_PAID even past its due date. Overpayment simply yields
// PAID with totalPaid exceeding total.
//
// EMAILED is never produced here. It is set only by the reminder-email
// side-channel and is overwritten by the next call made on payment or refresh.
func ComputeStatus(total, totalPaid decimal.Decimal, issueDate time.Time, dueDays int, now time.Time) InvoiceStatus {
	if totalPaid.GreaterThanOrEqual(total) {
		return StatusPaid
	}
	if totalPaid.IsPositive() {
		return StatusPartiallyPaid
	}
	if now.After(issueDate.AddDate(0, 0, dueDays)) {
		return StatusOverdue
	}
	return StatusPending
}

// PaymentProgress returns the percentage of the total that has been paid,
// capped at 100. A zero total reports 0.
func PaymentProgress(total, totalPaid decimal.Decimal) float64 {
	if total.IsZero() {
		return 0
	}
	pct, _ := totalPaid.Div(total).Mul(decimal.NewFromInt(100)).Float64()
	if pct > 100 {
		return 100
	}
	return pct
}
