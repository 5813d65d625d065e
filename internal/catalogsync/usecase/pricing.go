package usecase

import (
	"github.com/fekuna/omnipos-catalog-sync/internal/erp"
	"github.com/fekuna/omnipos-catalog-sync/internal/model"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// ApplyDiscount re-applies a persisted discount to price. ok is false when
// there is no discount to apply.
func ApplyDiscount(price float64, typ *model.DiscountType, value *float64) (discounted float64, ok bool) {
	if typ == nil || value == nil || *value == 0 {
		return 0, false
	}

	p := decimal.NewFromFloat(price)
	v := decimal.NewFromFloat(*value)

	switch *typ {
	case model.DiscountPercentage:
		off := p.Mul(v).Div(hundred).Round(2)
		return p.Sub(off).InexactFloat64(), true
	case model.DiscountAmount:
		return p.Sub(v).InexactFloat64(), true
	default:
		return 0, false
	}
}

// money rounds an ERP amount to the two decimals the catalog stores, so a
// feed value compares equal to what an earlier run persisted.
func money(n erp.Number) float64 {
	return decimal.NewFromFloat(n.Float64()).Round(2).InexactFloat64()
}

// prices is an ERP detail's numeric fields rounded for storage.
type prices struct {
	sale, cost, pointEarn, vat float64
}

func pricesOf(d erp.RawProductDetail) prices {
	return prices{
		sale:      money(d.SalePrice),
		cost:      money(d.CostPrice),
		pointEarn: money(d.PointEarn),
		vat:       money(d.VatPercent),
	}
}
