package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// DebitNote and CreditNote adjust a party account against a contra account
// for a fixed amount, without touching stock. A debit note debits the party
// and credits the contra account; a credit note is the mirror image.

type DebitNote struct {
	ID              int             `gorm:"primary_key" json:"id"`
	CompanyId       string          `gorm:"index;not null;index:idx_dn_scope,priority:1" json:"company_id"`
	FiscalYearId    int             `gorm:"index;not null;index:idx_dn_scope,priority:2" json:"fiscal_year_id"`
	AccountId       int             `gorm:"index;not null" json:"account_id"`
	ContraAccountId int             `gorm:"index;not null" json:"contra_account_id"`
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

type CreditNote struct {
	ID              int             `gorm:"primary_key" json:"id"`
	CompanyId       string          `gorm:"index;not null;index:idx_cn_scope,priority:1" json:"company_id"`
	FiscalYearId    int             `gorm:"index;not null;index:idx_cn_scope,priority:2" json:"fiscal_year_id"`
	AccountId       int             `gorm:"index;not null" json:"account_id"`
	ContraAccountId int             `gorm:"index;not null" json:"contra_account_id"`
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

type NewNote struct {
	AccountId       int             `json:"accountId" binding:"required"`
	ContraAccountId int             `json:"contraAccountId" binding:"required"`
	Amount          decimal.Decimal `json:"amount" binding:"required"`
	Narration       string          `json:"narration"`
	Date            time.Time       `json:"date" binding:"required"`
}
