package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// PurchaseBill mirrors SalesBill on the inbound side: its lines create stock
// batches instead of consuming them, and its ledger legs credit the supplier.
type PurchaseBill struct {
	ID                 int                  `gorm:"primary_key" json:"id"`
	CompanyId          string               `gorm:"index;not null;index:idx_pb_scope,priority:1" json:"company_id"`
	FiscalYearId       int                  `gorm:"index;not null;index:idx_pb_scope,priority:2" json:"fiscal_year_id"`
	AccountId          int                  `gorm:"index;not null" json:"account_id"`
	BillNumber         string               `gorm:"size:20;index" json:"bill_number"`
	SupplierBillNumber string               `gorm:"size:50" json:"supplier_bill_number"`
	Date               time.Time            `gorm:"index;not null" json:"date"`
	PaymentMode        PaymentMode          `gorm:"type:enum('cash','credit');default:'credit'" json:"payment_mode"`
	SubTotal           decimal.Decimal      `gorm:"type:decimal(20,4);default:0" json:"sub_total"`
	DiscountPercentage decimal.Decimal      `gorm:"type:decimal(20,4);default:0" json:"discount_percentage"`
	DiscountAmount     decimal.Decimal      `gorm:"type:decimal(20,4);default:0" json:"discount_amount"`
	TaxableAmount      decimal.Decimal      `gorm:"type:decimal(20,4);default:0" json:"taxable_amount"`
	NonVatPurchase     decimal.Decimal      `gorm:"type:decimal(20,4);default:0" json:"non_vat_purchase"`
	VatPercentage      decimal.Decimal      `gorm:"type:decimal(20,4);default:0" json:"vat_percentage"`
	VatAmount          decimal.Decimal      `gorm:"type:decimal(20,4);default:0" json:"vat_amount"`
	IsVatExempt        string               `gorm:"size:5;default:'false'" json:"is_vat_exempt"`
	RoundOffAmount     decimal.Decimal      `gorm:"type:decimal(20,4);default:0" json:"round_off_amount"`
	TotalAmount        decimal.Decimal      `gorm:"type:decimal(20,4);default:0" json:"total_amount"`
	Status             VoucherStatus        `gorm:"type:enum('active','canceled');default:'active';index" json:"status"`
	IsActive           *bool                `gorm:"not null;default:true" json:"is_active"`
	Details            []PurchaseBillDetail `gorm:"foreignKey:PurchaseBillId" json:"details"`
	TransactionIds     []int                `gorm:"-" json:"transaction_ids"`
	CreatedAt          time.Time            `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt          time.Time            `gorm:"autoUpdateTime" json:"updated_at"`
}

type PurchaseBillDetail struct {
	ID             int             `gorm:"primary_key" json:"id"`
	PurchaseBillId int             `gorm:"index;not null" json:"purchase_bill_id"`
	ItemId         int             `gorm:"index;not null" json:"item_id"`
	Qty            decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"qty"`
	Price          decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"price"`
	Unit           string          `gorm:"size:20" json:"unit"`
	Amount         decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"amount"`
	BatchNumber    string          `gorm:"size:100" json:"batch_number"`
	// BatchUuId points at the StockBatch this line created, so the sales
	// allocator and edits can find it even after the batch number is reused.
	BatchUuId  string     `gorm:"size:36;index" json:"batch_uu_id"`
	ExpiryDate *time.Time `json:"expiry_date"`
}

type NewPurchaseBill struct {
	AccountId          int                     `json:"accountId" binding:"required"`
	SupplierBillNumber string                  `json:"supplierBillNumber"`
	Items              []NewPurchaseBillDetail `json:"items" binding:"required,min=1,dive"`
	VatPercentage      decimal.Decimal         `json:"vatPercentage"`
	DiscountPercentage decimal.Decimal         `json:"discountPercentage"`
	IsVatExempt        string                  `json:"isVatExempt" binding:"omitempty,oneof=true false all"`
	PaymentMode        PaymentMode             `json:"paymentMode" binding:"required,oneof=cash credit"`
	RoundOffAmount     *decimal.Decimal        `json:"roundOffAmount"`
	Date               time.Time               `json:"date" binding:"required"`
}

type NewPurchaseBillDetail struct {
	Item        int             `json:"item" binding:"required"`
	Quantity    decimal.Decimal `json:"quantity" binding:"required"`
	Price       decimal.Decimal `json:"price" binding:"required"`
	Unit        string          `json:"unit"`
	BatchNumber string          `json:"batchNumber"`
	ExpiryDate  *time.Time      `json:"expiryDate"`
}
