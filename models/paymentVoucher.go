package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// PaymentVoucher records money going out to a party from a source account
// (typically "Cash in Hand" or a bank). ReceiptVoucher is the inbound mirror.
// These are the two document types whose legs are intentionally not
// debit==credit balanced; the role-aware balance fold handles their signs.

type PaymentVoucher struct {
	ID              int             `gorm:"primary_key" json:"id"`
	CompanyId       string          `gorm:"index;not null;index:idx_py_scope,priority:1" json:"company_id"`
	FiscalYearId    int             `gorm:"index;not null;index:idx_py_scope,priority:2" json:"fiscal_year_id"`
	AccountId       int             `gorm:"index;not null" json:"account_id"`
	SourceAccountId int             `gorm:"index;not null" json:"source_account_id"`
	BillNumber      string          `gorm:"size:20;index" json:"bill_number"`
	Date            time.Time       `gorm:"index;not null" json:"date"`
	Amount          decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"amount"`
	Narration       string          `gorm:"size:500" json:"narration"`
	Status          VoucherStatus   `gorm:"type:enum('active','canceled');default:'active';index" json:"status"`
	IsActive        *bool           `gorm:"not null;default:true" json:"is_active"`
	TransactionIds  []int           `gorm:"-" json:"transaction_ids"`
	CreatedAt       time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

type ReceiptVoucher struct {
	ID              int             `gorm:"primary_key" json:"id"`
	CompanyId       string          `gorm:"index;not null;index:idx_rc_scope,priority:1" json:"company_id"`
	FiscalYearId    int             `gorm:"index;not null;index:idx_rc_scope,priority:2" json:"fiscal_year_id"`
	AccountId       int             `gorm:"index;not null" json:"account_id"`
	TargetAccountId int             `gorm:"index;not null" json:"target_account_id"`
	BillNumber      string          `gorm:"size:20;index" json:"bill_number"`
	Date            time.Time       `gorm:"index;not null" json:"date"`
	Amount          decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"amount"`
	Narration       string          `gorm:"size:500" json:"narration"`
	Status          VoucherStatus   `gorm:"type:enum('active','canceled');default:'active';index" json:"status"`
	IsActive        *bool           `gorm:"not null;default:true" json:"is_active"`
	TransactionIds  []int           `gorm:"-" json:"transaction_ids"`
	CreatedAt       time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewPaymentVoucher struct {
	AccountId       int             `json:"accountId" binding:"required"`
	SourceAccountId int             `json:"sourceAccountId" binding:"required"`
	Amount          decimal.Decimal `json:"amount" binding:"required"`
	Narration       string          `json:"narration"`
	Date            time.Time       `json:"date" binding:"required"`
}

type NewReceiptVoucher struct {
	AccountId       int             `json:"accountId" binding:"required"`
	TargetAccountId int             `json:"targetAccountId" binding:"required"`
	Amount          decimal.Decimal `json:"amount" binding:"required"`
	Narration       string          `json:"narration"`
	Date            time.Time       `json:"date" binding:"required"`
}
