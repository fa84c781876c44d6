package main

import (
	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/shopspring/decimal"

	"github.com/xenking/storefront/internal/domain/catalog"
)

// importSpec is one decoded feed line.
type importSpec struct {
	catalog.Spec
	DiscountPercent *decimal.Decimal
}

// parseSpec decodes one feed line. Unknown fields are ignored.
func parseSpec(line []byte) (importSpec, error) {
	var (
		spec     importSpec
		hasPrice bool
	)
	err := jx.DecodeBytes(line).Obj(func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "kind":
			spec.Kind, err = d.Str()
		case "name":
			spec.Name, err = d.Str()
		case "description":
			spec.Description, err = d.Str()
		case "stock":
			spec.Stock, err = d.Int()
		case "basePrice":
			spec.BasePrice, err = decodeDecimal(d)
			hasPrice = err == nil
		case "discountPercent":
			var v decimal.Decimal
			if v, err = decodeDecimal(d); err == nil {
				spec.DiscountPercent = &v
			}
		default:
			err = d.Skip()
		}
		if err != nil {
			return errors.Wrap(err, key)
		}
		return nil
	})
	if err != nil {
		return importSpec{}, err
	}
	if !hasPrice {
		return importSpec{}, errors.New("basePrice is required")
	}
	return spec, nil
}

// decodeDecimal accepts a JSON number or a numeric string.
func decodeDecimal(d *jx.Decoder) (decimal.Decimal, error) {
	switch d.Next() {
	case jx.String:
		s, err := d.Str()
		if err != nil {
			return decimal.Decimal{}, err
		}
		return decimal.NewFromString(s)
	case jx.Number:
		n, err := d.Num()
		if err != nil {
			return decimal.Decimal{}, err
		}
		return decimal.NewFromString(n.String())
	default:
		return decimal.Decimal{}, errors.New("expected number or string")
	}
}
