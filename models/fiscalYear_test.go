package models

import (
	"testing"
	"time"
)

func TestFiscalYearContains(t *testing.T) {
	fy := FiscalYear{
		StartDate: time.Date(2024, 7, 16, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2025, 7, 15, 0, 0, 0, 0, time.UTC),
	}

	if !fy.Contains(fy.StartDate) {
		t.Fatal("start date is inside the fiscal year")
	}
	if !fy.Contains(fy.EndDate) {
		t.Fatal("end date is inside the fiscal year")
	}
	if !fy.Contains(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatal("mid-year date is inside the fiscal year")
	}
	if fy.Contains(fy.StartDate.AddDate(0, 0, -1)) {
		t.Fatal("the day before start is outside")
	}
	if fy.Contains(fy.EndDate.AddDate(0, 0, 1)) {
		t.Fatal("the day after end is outside")
	}
}
