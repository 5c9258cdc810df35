package domain

import (
	"fmt"
	"math"
	"strings"
	"time"
	"unicode/utf8"

	"cryptomart/internal/pricing"
)

const (
	MaxProductNameLen        = 100
	MaxProductDescriptionLen = 1000

	// MaxQuantity is the largest stock or line quantity an INTEGER column holds.
	MaxQuantity = math.MaxInt32
)

// Product is a catalog record. Identity is fixed at creation; only Quantity
// changes afterwards, when sales are recorded.
type Product struct {
	ID                string        `json:"id"`
	Name              string        `json:"name"`
	Description       string        `json:"description"`
	Image             string        `json:"image"`
	ManufacturingDate time.Time     `json:"manufacturingYear"`
	Price             pricing.Money `json:"price"`
	Quantity          int           `json:"quantity"`
	CreatedBy         string        `json:"createdBy"`
	CreatedAt         time.Time     `json:"createdAt"`
}

// Validate checks every field except the price, which is validated by
// pricing.Parse before a Product is ever built.
func (p Product) Validate() error {
	var verr ValidationError
	name := strings.TrimSpace(p.Name)
	switch {
	case name == "":
		verr.add("Please provide product name")
	case utf8.RuneCountInString(name) > MaxProductNameLen:
		verr.add(fmt.Sprintf("Name cannot be more than %d characters", MaxProductNameLen))
	}
	switch {
	case strings.TrimSpace(p.Description) == "":
		verr.add("Please provide product description")
	case utf8.RuneCountInString(p.Description) > MaxProductDescriptionLen:
		verr.add(fmt.Sprintf("Description cannot be more than %d characters", MaxProductDescriptionLen))
	}
	if strings.TrimSpace(p.Image) == "" {
		verr.add("Please provide product image")
	}
	if p.ManufacturingDate.IsZero() {
		verr.add("Please provide manufacturing year")
	}
	switch {
	case p.Quantity < 0:
		verr.add("quantity cannot be negative")
	case p.Quantity > MaxQuantity:
		verr.add(fmt.Sprintf("quantity cannot be more than %d", MaxQuantity))
	}
	if strings.TrimSpace(p.CreatedBy) == "" {
		verr.add("Please provide user")
	}
	return verr.orNil()
}
