package workflow

import (
	"reflect"
	"strings"
	"testing"

	"github.com/merohisab/retail_backend/models"
)

// The counter read-back must never go through the session's last-insert id:
// MySQL overwrites it with any generated auto-increment value at end of
// statement, so on the fresh-insert path of the upsert a LAST_INSERT_ID()
// read-back returns a row id as the bill number and the sequence eventually
// reissues it.
func TestCounterStatementsAvoidSessionLastInsertId(t *testing.T) {
	for _, sql := range []string{reserveCounterSQL, readCounterSQL} {
		if strings.Contains(strings.ToUpper(sql), "LAST_INSERT_ID") {
			t.Fatalf("counter statement reads the session last-insert id:\n%s", sql)
		}
	}
	if !strings.Contains(strings.ToUpper(readCounterSQL), "FOR UPDATE") {
		t.Fatal("counter read-back must lock the row it reads")
	}
}

// The scope columns are the whole key. A surrogate auto-increment id on
// bill_counters is what poisons the session last-insert id in the first
// place.
func TestBillCounterHasNoSurrogateId(t *testing.T) {
	counterType := reflect.TypeOf(models.BillCounter{})
	if _, ok := counterType.FieldByName("ID"); ok {
		t.Fatal("bill_counters must not carry an auto-increment surrogate id")
	}
	for _, name := range []string{"CompanyId", "FiscalYearId", "VoucherType"} {
		field, ok := counterType.FieldByName(name)
		if !ok {
			t.Fatalf("missing scope column %s", name)
		}
		if !strings.Contains(field.Tag.Get("gorm"), "primaryKey") {
			t.Fatalf("%s must be part of the composite primary key", name)
		}
	}
}

func TestFormatBillNumber(t *testing.T) {
	cases := []struct {
		prefix string
		number int
		want   string
	}{
		{"SA", 42, "SA0000042"},
		{"SA", 1, "SA0000001"},
		{"JV", 1234567, "JV1234567"},
		{"INV-", 9, "INV-0000009"},
		{"PU", 12345678, "PU12345678"}, // does not truncate past the pad width
	}
	for _, tc := range cases {
		if got := FormatBillNumber(tc.prefix, tc.number); got != tc.want {
			t.Fatalf("FormatBillNumber(%q, %d) = %q, want %q", tc.prefix, tc.number, got, tc.want)
		}
	}
}
