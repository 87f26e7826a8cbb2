package models

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Transaction is one debit-or-credit leg against exactly one account,
// belonging to exactly one voucher document. Rows are immutable once posted:
// only the cancel/reactivate status flip may touch them, and only the edit
// flow may remove superseded legs (via SkipHooks, see EditSalesBill).
type Transaction struct {
	ID        int             `gorm:"primary_key" json:"id"`
	CompanyId string          `gorm:"index;not null;index:idx_tx_scope,priority:1" json:"company_id"`
	FiscalYearId int          `gorm:"index;not null;index:idx_tx_scope,priority:2" json:"fiscal_year_id"`
	AccountId int             `gorm:"index;not null;index:idx_tx_scope,priority:3" json:"account_id"`
	Role      TransactionRole `gorm:"type:enum('P','PS','RT','DR','CR');default:'P';not null" json:"role"`
	Debit     decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"debit"`
	Credit    decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"credit"`
	// Balance is the running balance snapshot after this entry, denormalized
	// for statement rendering. Never trusted for computation; the fold in
	// workflow.ComputeBalance is the source of truth.
	Balance decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"balance"`
	Type    VoucherType     `gorm:"type:enum('SA','PU','SR','PR','PY','RC','JV','DN','CN');not null;index" json:"type"`
	// Tagged owning-document reference: (RefType, RefId) names exactly one
	// voucher. Replaces the five mutually-exclusive foreign keys the data
	// model grew out of.
	RefType     VoucherType     `gorm:"type:enum('SA','PU','SR','PR','PY','RC','JV','DN','CN');not null;index:idx_tx_ref,priority:1" json:"ref_type"`
	RefId       int             `gorm:"not null;index:idx_tx_ref,priority:2" json:"ref_id"`
	BillNumber  string          `gorm:"size:20;index" json:"bill_number"`
	PaymentMode PaymentMode     `gorm:"type:enum('cash','credit');default:'credit'" json:"payment_mode"`
	Date        time.Time       `gorm:"index;not null" json:"date"`
	Status      VoucherStatus   `gorm:"type:enum('active','canceled');default:'active';index" json:"status"`
	IsActive    *bool           `gorm:"not null;default:true" json:"is_active"`
	// CreatedAt is the monotonic tie-breaker for entries sharing a business
	// date; Date is user-editable, CreatedAt is not.
	CreatedAt time.Time `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// DocumentRef is the tagged owning-document reference of a ledger entry.
type DocumentRef struct {
	Type VoucherType `json:"type"`
	Id   int         `json:"id"`
}

func (t *Transaction) Document() DocumentRef {
	return DocumentRef{Type: t.RefType, Id: t.RefId}
}

// Contribution returns the entry's signed effect on its account's balance
// (Dr positive), decided by the account's role on the entry. Unknown roles
// report ok=false so the balance fold can skip them with a warning instead
// of crashing.
func (t *Transaction) Contribution() (decimal.Decimal, bool) {
	switch t.Role {
	case RolePrimary:
		return t.Debit.Sub(t.Credit), true
	case RolePaymentSource:
		return t.Debit.Neg(), true
	case RoleReceiptTarget:
		return t.Credit, true
	case RoleDebitLeg:
		return t.Debit, true
	case RoleCreditLeg:
		return t.Credit.Neg(), true
	}
	return decimal.Zero, false
}

// Ledger immutability guardrails:
// - transactions are append-only; only cancel/reactivate status flips are allowed.
// - the edit flow removes superseded legs with SkipHooks, everything else is rejected.

func (t *Transaction) BeforeUpdate(tx *gorm.DB) error {
	allowed := map[string]bool{
		"Status":    true,
		"IsActive":  true,
		"UpdatedAt": true,
	}
	if tx == nil || tx.Statement == nil || tx.Statement.Schema == nil {
		return nil
	}
	for _, f := range tx.Statement.Schema.Fields {
		if tx.Statement.Changed(f.Name) && !allowed[f.Name] {
			return errors.New("immutable ledger: only status fields may be updated on transactions")
		}
	}
	return nil
}

func (t *Transaction) BeforeDelete(tx *gorm.DB) error {
	return errors.New("immutable ledger: transactions cannot be deleted")
}
