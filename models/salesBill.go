package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// SalesBill is the parent document of a sales posting: it owns its line
// items, the batch allocations recorded for them, and (by bill number) the
// ledger legs written alongside it. Created, edited and canceled only by the
// posting workflows, always atomically with its legs.
type SalesBill struct {
	ID                 int               `gorm:"primary_key" json:"id"`
	CompanyId          string            `gorm:"index;not null;index:idx_sb_scope,priority:1" json:"company_id"`
	FiscalYearId       int               `gorm:"index;not null;index:idx_sb_scope,priority:2" json:"fiscal_year_id"`
	AccountId          int               `gorm:"index;not null" json:"account_id"`
	BillNumber         string            `gorm:"size:20;index" json:"bill_number"`
	Date               time.Time         `gorm:"index;not null" json:"date"`
	PaymentMode        PaymentMode       `gorm:"type:enum('cash','credit');default:'credit'" json:"payment_mode"`
	SubTotal           decimal.Decimal   `gorm:"type:decimal(20,4);default:0" json:"sub_total"`
	DiscountPercentage decimal.Decimal   `gorm:"type:decimal(20,4);default:0" json:"discount_percentage"`
	DiscountAmount     decimal.Decimal   `gorm:"type:decimal(20,4);default:0" json:"discount_amount"`
	TaxableAmount      decimal.Decimal   `gorm:"type:decimal(20,4);default:0" json:"taxable_amount"`
	NonVatSales        decimal.Decimal   `gorm:"type:decimal(20,4);default:0" json:"non_vat_sales"`
	VatPercentage      decimal.Decimal   `gorm:"type:decimal(20,4);default:0" json:"vat_percentage"`
	VatAmount          decimal.Decimal   `gorm:"type:decimal(20,4);default:0" json:"vat_amount"`
	IsVatExempt        string            `gorm:"size:5;default:'false'" json:"is_vat_exempt"`
	RoundOffAmount     decimal.Decimal   `gorm:"type:decimal(20,4);default:0" json:"round_off_amount"`
	TotalAmount        decimal.Decimal   `gorm:"type:decimal(20,4);default:0" json:"total_amount"`
	Status             VoucherStatus     `gorm:"type:enum('active','canceled');default:'active';index" json:"status"`
	IsActive           *bool             `gorm:"not null;default:true" json:"is_active"`
	Details            []SalesBillDetail `gorm:"foreignKey:SalesBillId" json:"details"`
	TransactionIds     []int             `gorm:"-" json:"transaction_ids"`
	CreatedAt          time.Time         `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt          time.Time         `gorm:"autoUpdateTime" json:"updated_at"`
}

type SalesBillDetail struct {
	ID          int                         `gorm:"primary_key" json:"id"`
	SalesBillId int                         `gorm:"index;not null" json:"sales_bill_id"`
	ItemId      int                         `gorm:"index;not null" json:"item_id"`
	Qty         decimal.Decimal             `gorm:"type:decimal(20,4);default:0" json:"qty"`
	Price       decimal.Decimal             `gorm:"type:decimal(20,4);default:0" json:"price"`
	Unit        string                      `gorm:"size:20" json:"unit"`
	Amount      decimal.Decimal             `gorm:"type:decimal(20,4);default:0" json:"amount"`
	Allocations []SalesBillDetailAllocation `gorm:"foreignKey:DetailId" json:"allocations"`
}

// SalesBillDetailAllocation records exactly which batch satisfied how much of
// a line, including enough of the batch's own fields (date, rate) to recreate
// a pruned batch when an edit reverses the allocation.
type SalesBillDetailAllocation struct {
	ID           int             `gorm:"primary_key" json:"id"`
	DetailId     int             `gorm:"index;not null" json:"detail_id"`
	BatchNumber  string          `gorm:"size:100" json:"batch_number"`
	UniqueUuId   string          `gorm:"size:36" json:"unique_uu_id"`
	Qty          decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"qty"`
	BatchDate    time.Time       `json:"batch_date"`
	PurchaseRate decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"purchase_rate"`
}

type NewSalesBill struct {
	AccountId          int                  `json:"accountId" binding:"required"`
	Items              []NewSalesBillDetail `json:"items" binding:"required,min=1,dive"`
	VatPercentage      decimal.Decimal      `json:"vatPercentage"`
	DiscountPercentage decimal.Decimal      `json:"discountPercentage"`
	IsVatExempt        string               `json:"isVatExempt" binding:"omitempty,oneof=true false all"`
	PaymentMode        PaymentMode          `json:"paymentMode" binding:"required,oneof=cash credit"`
	RoundOffAmount     *decimal.Decimal     `json:"roundOffAmount"`
	Date               time.Time            `json:"date" binding:"required"`
}

type NewSalesBillDetail struct {
	Item        int             `json:"item" binding:"required"`
	Quantity    decimal.Decimal `json:"quantity" binding:"required"`
	Price       decimal.Decimal `json:"price" binding:"required"`
	Unit        string          `json:"unit"`
	BatchNumber string          `json:"batchNumber"`
	UniqueUuId  string          `json:"uniqueUuId"`
}
