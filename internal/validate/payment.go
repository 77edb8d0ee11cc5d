// Package validate holds the pre-gateway input checks for donations.
// Conditional requirements (corporate, gift, monthly) are enforced here
// as a pure function, before anything touches the gateway or the
// database.
package validate

import (
	"strings"

	"heritage-platform/internal/models"
)

// PaymentInput is the raw donation submission. Card details exist only
// in this struct and in the gateway call; they are never persisted.
type PaymentInput struct {
	DonationType     string  `json:"donationType"`
	Amount           float64 `json:"amount"`
	IsCorporate      bool    `json:"isCorporate"`
	InstitutionName  string  `json:"institutionName"`
	Name             string  `json:"name"`
	Surname          string  `json:"surname"`
	Email            string  `json:"email"`
	DonateForSomeone bool    `json:"donateForSomeone"`
	RecipientName    string  `json:"recipientName"`
	RecipientSurname string  `json:"recipientSurname"`
	DeductionDay     *int    `json:"deductionDay"`
	CardNumber       string  `json:"cardNumber"`
	ExpiryDate       string  `json:"expiryDate"`
	CVV              string  `json:"cvv"`
}

// FieldError names the offending field and carries the message shown to
// the client.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func missing(s string) bool {
	return strings.TrimSpace(s) == ""
}

// Payment checks the submission and returns every field error found, in
// a stable order. An empty slice means the input may go to the gateway.
func Payment(in PaymentInput) []FieldError {
	var errs []FieldError

	if in.DonationType != models.DonationOneTime && in.DonationType != models.DonationMonthly {
		errs = append(errs, FieldError{"donationType", "Donation type must be one-time or monthly"})
	}
	if in.Amount <= 0 {
		errs = append(errs, FieldError{"amount", "A valid donation amount is required"})
	}
	if missing(in.Name) || missing(in.Surname) || missing(in.Email) {
		errs = append(errs, FieldError{"name", "Name, surname and email are required"})
	}
	if missing(in.CardNumber) || missing(in.ExpiryDate) || missing(in.CVV) {
		errs = append(errs, FieldError{"cardNumber", "Card details are missing or invalid"})
	}

	if in.IsCorporate && missing(in.InstitutionName) {
		errs = append(errs, FieldError{"institutionName", "Institution name is required for corporate donations"})
	}
	if in.DonateForSomeone && (missing(in.RecipientName) || missing(in.RecipientSurname)) {
		errs = append(errs, FieldError{"recipientName", "Recipient name and surname are required"})
	}
	if in.DonationType == models.DonationMonthly {
		if in.DeductionDay == nil {
			errs = append(errs, FieldError{"deductionDay", "Deduction day is required for monthly donations"})
		} else if *in.DeductionDay < 1 || *in.DeductionDay > 28 {
			errs = append(errs, FieldError{"deductionDay", "Deduction day must be between 1 and 28"})
		}
	}

	return errs
}
