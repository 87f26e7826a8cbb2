package models

import (
	"log"

	"github.com/merohisab/retail_backend/config"
)

func MigrateTable() {
	db := config.GetDB()

	err := db.AutoMigrate(
		&FiscalYear{}, &FiscalYearBillPrefix{},
		&Account{}, &AccountFiscalYear{}, &CompanyGroup{},
		&Item{}, &StockBatch{},
		&Transaction{}, &BillCounter{},
		&SalesBill{}, &SalesBillDetail{}, &SalesBillDetailAllocation{},
		&PurchaseBill{}, &PurchaseBillDetail{},
		&JournalVoucher{}, &JournalVoucherDetail{},
		&DebitNote{}, &CreditNote{},
		&PaymentVoucher{}, &ReceiptVoucher{},
	)
	if err != nil {
		log.Fatal(err)
	}
}
