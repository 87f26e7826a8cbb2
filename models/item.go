package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/merohisab/retail_backend/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Item struct {
	ID        int       `gorm:"primary_key" json:"id"`
	CompanyId string    `gorm:"index;not null" json:"company_id"`
	Name      string    `gorm:"index;size:100;not null" json:"name" binding:"required"`
	VatStatus VatStatus `gorm:"type:enum('vatable','nonvatable');default:'vatable'" json:"vat_status"`
	// Stock is the aggregate on-hand quantity. Invariant after every
	// committed allocation: Stock == sum of the batches' quantities.
	Stock     decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"stock"`
	IsActive  *bool           `gorm:"not null;default:true" json:"is_active"`
	Batches   []StockBatch    `gorm:"foreignKey:ItemId" json:"batches"`
	CreatedAt time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

// StockBatch is one dated inventory lot. Purchases create batches; the stock
// allocator consumes them oldest-date-first and prunes batches at zero.
type StockBatch struct {
	ID           int             `gorm:"primary_key" json:"id"`
	ItemId       int             `gorm:"index;not null" json:"item_id"`
	BatchNumber  string          `gorm:"size:100;index" json:"batch_number"`
	UniqueUuId   string          `gorm:"size:36;index" json:"unique_uu_id"`
	Qty          decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"qty"`
	Date         time.Time       `gorm:"index;not null" json:"date"`
	PurchaseRate decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"purchase_rate"`
	ExpiryDate   *time.Time      `json:"expiry_date"`
	CreatedAt    time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

func (b *StockBatch) BeforeCreate(tx *gorm.DB) error {
	if b.UniqueUuId == "" {
		b.UniqueUuId = uuid.NewString()
	}
	return nil
}

type NewItem struct {
	Name      string    `json:"name" binding:"required"`
	VatStatus VatStatus `json:"vat_status"`
}

func CreateItem(tx *gorm.DB, fy FiscalYearContext, input *NewItem) (*Item, error) {
	if err := fy.Validate(); err != nil {
		return nil, err
	}
	if err := ValidateUnique[Item](tx, fy.CompanyId, "name", input.Name, 0); err != nil {
		return nil, err
	}
	vatStatus := input.VatStatus
	if vatStatus == "" {
		vatStatus = VatStatusVatable
	}
	item := Item{
		CompanyId: fy.CompanyId,
		Name:      input.Name,
		VatStatus: vatStatus,
		IsActive:  utils.NewTrue(),
	}
	if err := tx.Create(&item).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

func GetItem(tx *gorm.DB, fy FiscalYearContext, id int) (*Item, error) {
	return FetchModel[Item](tx, fy.CompanyId, id, "Batches")
}

// BatchQtySum is the ground truth for Item.Stock; allocations recompute the
// aggregate from it rather than decrementing, which self-heals any drift.
func BatchQtySum(batches []StockBatch) decimal.Decimal {
	sum := decimal.Zero
	for _, b := range batches {
		sum = sum.Add(b.Qty)
	}
	return sum
}
