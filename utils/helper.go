package utils

import (
	"fmt"
	"math/rand"

	"github.com/go-playground/validator/v10"
	"github.com/ttacon/libphonenumber"
)

var CountryCode = "NP"

func ValidatePhoneNumber(phoneNumber, countryCode string) error {
	p, err := libphonenumber.Parse(phoneNumber, countryCode)
	if err != nil {
		return err // Phone number is invalid
	}

	if !libphonenumber.IsValidNumber(p) {
		return fmt.Errorf("phone number is not valid")
	}

	return nil // Phone number is valid for the specified country code
}

func ProcessValidationErrors(err error) map[string]string {

	validationErrors := err.(validator.ValidationErrors)

	errorResponse := make(map[string]string)

	for _, ve := range validationErrors {
		errorResponse[ve.Field()] = ve.Tag()
	}

	return errorResponse
}

func NewTrue() *bool {
	b := true
	return &b
}

func NewFalse() *bool {
	b := false
	return &b
}

func MergeIntSlices(slice1, slice2 []int) []int {
	seen := make(map[int]bool, len(slice1)+len(slice2))
	merged := make([]int, 0, len(slice1)+len(slice2))
	for _, v := range slice1 {
		if !seen[v] {
			seen[v] = true
			merged = append(merged, v)
		}
	}
	for _, v := range slice2 {
		if !seen[v] {
			seen[v] = true
			merged = append(merged, v)
		}
	}
	return merged
}

// RandomDigits returns an n-digit numeric string with no leading zero.
func RandomDigits(n int) string {
	if n <= 0 {
		return ""
	}
	digits := make([]byte, n)
	digits[0] = byte('1' + rand.Intn(9))
	for i := 1; i < n; i++ {
		digits[i] = byte('0' + rand.Intn(10))
	}
	return string(digits)
}
