package money

import (
	"fmt"

	"github.com/shopspring/decimal"

	"checkout-service/internal/models"
)

// LineItem is one priced cart row.
type LineItem struct {
	ProductID string
	Name      string
	Price     decimal.Decimal
	Quantity  int
}

var hundred = decimal.NewFromInt(100)

// Validate checks a single line item against the cart contract: non-negative
// price with at most 2 decimal places, quantity of at least 1.
func (li LineItem) Validate() error {
	if li.Quantity < 1 {
		return fmt.Errorf("%w: quantity %d for product %s", models.ErrInvalidLineItem, li.Quantity, li.ProductID)
	}
	if li.Price.IsNegative() {
		return fmt.Errorf("%w: negative price %s for product %s", models.ErrInvalidLineItem, li.Price, li.ProductID)
	}
	if !li.Price.Round(2).Equal(li.Price) {
		return fmt.Errorf("%w: price %s has sub-minor-unit precision", models.ErrInvalidLineItem, li.Price)
	}
	return nil
}

// Total returns sum(price * quantity) at exactly 2 decimal places. The
// arithmetic is exact decimal, so the same cart always yields the same total
// regardless of summation order. An empty cart is invalid.
func Total(items []LineItem) (decimal.Decimal, error) {
	if len(items) == 0 {
		return decimal.Zero, fmt.Errorf("%w: empty cart", models.ErrInvalidLineItem)
	}

	total := decimal.Zero
	for _, li := range items {
		if err := li.Validate(); err != nil {
			return decimal.Zero, err
		}
		total = total.Add(li.Price.Mul(decimal.NewFromInt(int64(li.Quantity))))
	}

	return total.Round(2), nil
}

// MinorUnits converts a 2-decimal amount to integer minor units (kuruş),
// rounding half away from zero. The gateway's payment_amount field and the
// signature over it are both derived from this value, so the conversion must
// be bit-for-bit stable.
func MinorUnits(amount decimal.Decimal) int64 {
	return amount.Mul(hundred).Round(0).IntPart()
}
