package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// JournalVoucher is a free-form double-entry document: any number of debit
// and credit lines against arbitrary accounts, accepted only when the debit
// and credit totals are exactly equal.
type JournalVoucher struct {
	ID             int                    `gorm:"primary_key" json:"id"`
	CompanyId      string                 `gorm:"index;not null;index:idx_jv_scope,priority:1" json:"company_id"`
	FiscalYearId   int                    `gorm:"index;not null;index:idx_jv_scope,priority:2" json:"fiscal_year_id"`
	BillNumber     string                 `gorm:"size:20;index" json:"bill_number"`
	Date           time.Time              `gorm:"index;not null" json:"date"`
	Narration      string                 `gorm:"size:500" json:"narration"`
	TotalDebit     decimal.Decimal        `gorm:"type:decimal(20,4);default:0" json:"total_debit"`
	TotalCredit    decimal.Decimal        `gorm:"type:decimal(20,4);default:0" json:"total_credit"`
	Status         VoucherStatus          `gorm:"type:enum('active','canceled');default:'active';index" json:"status"`
	IsActive       *bool                  `gorm:"not null;default:true" json:"is_active"`
	Details        []JournalVoucherDetail `gorm:"foreignKey:JournalVoucherId" json:"details"`
	TransactionIds []int                  `gorm:"-" json:"transaction_ids"`
	CreatedAt      time.Time              `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time              `gorm:"autoUpdateTime" json:"updated_at"`
}

type JournalVoucherDetail struct {
	ID               int             `gorm:"primary_key" json:"id"`
	JournalVoucherId int             `gorm:"index;not null" json:"journal_voucher_id"`
	AccountId        int             `gorm:"index;not null" json:"account_id"`
	Debit            decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"debit"`
	Credit           decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"credit"`
	Description      string          `gorm:"size:255" json:"description"`
}

type NewJournalVoucher struct {
	Date      time.Time                 `json:"date" binding:"required"`
	Narration string                    `json:"narration"`
	Details   []NewJournalVoucherDetail `json:"details" binding:"required,min=2,dive"`
}

type NewJournalVoucherDetail struct {
	AccountId   int             `json:"accountId" binding:"required"`
	Debit       decimal.Decimal `json:"debit"`
	Credit      decimal.Decimal `json:"credit"`
	Description string          `json:"description"`
}
