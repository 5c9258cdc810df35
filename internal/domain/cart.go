package domain

import (
	"fmt"

	"cryptomart/internal/pricing"
)

// Cart is an unsaved selection of products with exact totals.
type Cart struct {
	Lines []CartLine    `json:"lineItems"`
	Total pricing.Money `json:"totalPrice"`
}

type CartLine struct {
	ProductID   string        `json:"productId"`
	ProductName string        `json:"productName"`
	Quantity    int           `json:"quantity"`
	UnitPrice   pricing.Money `json:"pricePerUnit"`
	LineTotal   pricing.Money `json:"totalPrice"`
}

func quantityTooLarge() error {
	return NewValidationError(fmt.Sprintf("quantity cannot be more than %d", MaxQuantity))
}

// NewCartLine prices quantity units of p. Quantities below one are clamped;
// quantities above MaxQuantity are rejected.
func NewCartLine(p Product, quantity int) (CartLine, error) {
	quantity = pricing.ClampQuantity(quantity)
	if quantity > MaxQuantity {
		return CartLine{}, quantityTooLarge()
	}
	total, err := pricing.LineTotal(p.Price, quantity)
	if err != nil {
		return CartLine{}, err
	}
	return CartLine{
		ProductID:   p.ID,
		ProductName: p.Name,
		Quantity:    quantity,
		UnitPrice:   p.Price,
		LineTotal:   total,
	}, nil
}

// Add puts quantity units of p in the cart, merging with an existing line
// for the same product.
func (c *Cart) Add(p Product, quantity int) error {
	quantity = pricing.ClampQuantity(quantity)
	if quantity > MaxQuantity {
		return quantityTooLarge()
	}
	for i, line := range c.Lines {
		if line.ProductID != p.ID {
			continue
		}
		if quantity > MaxQuantity-line.Quantity {
			return quantityTooLarge()
		}
		merged, err := NewCartLine(p, line.Quantity+quantity)
		if err != nil {
			return err
		}
		c.Lines[i] = merged
		c.recalculate()
		return nil
	}
	line, err := NewCartLine(p, quantity)
	if err != nil {
		return err
	}
	c.Lines = append(c.Lines, line)
	c.recalculate()
	return nil
}

func (c *Cart) recalculate() {
	totals := make([]pricing.Money, 0, len(c.Lines))
	for _, l := range c.Lines {
		totals = append(totals, l.LineTotal)
	}
	c.Total = pricing.Sum(totals...)
}
