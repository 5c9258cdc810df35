package pricing

import "github.com/shopspring/decimal"

// MinQuantity is the smallest quantity a cart line may carry.
const MinQuantity = 1

// SaleRecord is one catalog entry as seen by AggregateSales.
type SaleRecord struct {
	Price    Money
	Quantity int
}

// ClampQuantity raises q to MinQuantity. Callers building cart lines use it
// before LineTotal.
func ClampQuantity(q int) int {
	if q < MinQuantity {
		return MinQuantity
	}
	return q
}

// LineTotal returns price × quantity. The multiplication is done on the
// scaled integer, so the result keeps every fractional digit of price.
func LineTotal(price Money, quantity int) (Money, error) {
	if quantity < MinQuantity {
		return Money{}, quantityError(quantity, MinQuantity)
	}
	return Money{d: price.d.Mul(decimal.NewFromInt(int64(quantity)))}, nil
}

// Sum adds amounts exactly. Sum() is zero.
func Sum(amounts ...Money) Money {
	total := Zero
	for _, a := range amounts {
		total = total.Add(a)
	}
	return total
}

// AggregateSales folds price × quantity over records. Records with zero
// quantity on hand contribute nothing; a negative quantity is rejected.
// The result does not depend on the order of records.
func AggregateSales(records []SaleRecord) (Money, error) {
	total := Zero
	for _, r := range records {
		if r.Quantity < 0 {
			return Money{}, quantityError(r.Quantity, 0)
		}
		if r.Quantity == 0 {
			continue
		}
		line, err := LineTotal(r.Price, r.Quantity)
		if err != nil {
			return Money{}, err
		}
		total = total.Add(line)
	}
	return total, nil
}
