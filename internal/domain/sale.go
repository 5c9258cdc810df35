package domain

import (
	"fmt"
	"net/mail"
	"strings"
	"time"
	"unicode/utf8"

	"cryptomart/internal/pricing"
)

// Column widths of the customer fields on a sale. Emails share MaxEmailLen.
const (
	MaxCustomerNameLen  = 200
	MaxContactNumberLen = 50
	MaxWalletAddressLen = 128
)

// Customer is the buyer recorded on a sale.
type Customer struct {
	FullName      string `json:"fullName"`
	ContactNumber string `json:"contactNumber"`
	Email         string `json:"email"`
	WalletAddress string `json:"walletAddress"`
}

func (c Customer) Validate() error {
	var verr ValidationError
	if strings.TrimSpace(c.FullName) == "" || strings.TrimSpace(c.ContactNumber) == "" ||
		strings.TrimSpace(c.Email) == "" || strings.TrimSpace(c.WalletAddress) == "" {
		verr.add("Please provide all customer information")
		return verr.orNil()
	}
	tooLong := func(v string, limit int, field string) {
		if utf8.RuneCountInString(strings.TrimSpace(v)) > limit {
			verr.add(fmt.Sprintf("%s cannot be more than %d characters", field, limit))
		}
	}
	tooLong(c.FullName, MaxCustomerNameLen, "Full name")
	tooLong(c.ContactNumber, MaxContactNumberLen, "Contact number")
	tooLong(c.Email, MaxEmailLen, "Email")
	tooLong(c.WalletAddress, MaxWalletAddressLen, "Wallet address")
	if _, err := mail.ParseAddress(strings.TrimSpace(c.Email)); err != nil {
		verr.add("customer email is invalid")
	}
	return verr.orNil()
}

// Sale is a recorded checkout. Lines carry the unit price at the time of sale.
type Sale struct {
	ID        string        `json:"id"`
	SoldBy    string        `json:"soldBy"`
	Customer  Customer      `json:"customer"`
	Lines     []CartLine    `json:"products"`
	Total     pricing.Money `json:"totalAmount"`
	CreatedAt time.Time     `json:"createdAt"`
}
