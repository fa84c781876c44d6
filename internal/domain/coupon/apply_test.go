package coupon

import (
	"strconv"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}

// entries builds one cart entry per price. Repeating a price models the same
// product added twice.
func entries(prices ...string) []Item {
	items := make([]Item, len(prices))
	for i, p := range prices {
		items[i] = Item{ProductID: "p" + strconv.Itoa(i), Price: d(p)}
	}
	return items
}

func TestApply(t *testing.T) {
	for _, tt := range []struct {
		name  string
		rule  Rule
		items []Item
		want  string
	}{
		{
			name:  "PercentageOfSubtotal",
			rule:  Rule{DiscountType: DiscountPercentage, Value: d("10")},
			items: entries("999.99", "199.99"),
			want:  "120",
		},
		{
			name:  "PercentageRoundedToCents",
			rule:  Rule{DiscountType: DiscountPercentage, Value: d("15")},
			items: entries("19.99"),
			want:  "3",
		},
		{
			name:  "PercentageCappedByMaxDiscount",
			rule:  Rule{DiscountType: DiscountPercentage, Value: d("10"), MaxDiscount: d("100")},
			items: entries("999.99", "999.99"),
			want:  "100",
		},
		{
			name:  "PercentageBelowCap",
			rule:  Rule{DiscountType: DiscountPercentage, Value: d("10"), MaxDiscount: d("100")},
			items: entries("199.99"),
			want:  "20",
		},
		{
			name:  "FixedAmount",
			rule:  Rule{DiscountType: DiscountFixed, Value: d("50")},
			items: entries("999.99", "199.99"),
			want:  "50",
		},
		{
			name:  "FixedLimitedToSubtotal",
			rule:  Rule{DiscountType: DiscountFixed, Value: d("50")},
			items: entries("29.99"),
			want:  "29.99",
		},
		{
			name:  "FreeLowestPicksCheapestEntry",
			rule:  Rule{DiscountType: DiscountFreeLowest},
			items: entries("999.99", "19.99", "199.99"),
			want:  "19.99",
		},
		{
			name:  "FreeLowestOnDuplicateEntries",
			rule:  Rule{DiscountType: DiscountFreeLowest},
			items: entries("49.50", "49.50", "49.50"),
			want:  "49.5",
		},
		{
			name:  "FreeLowestOnEmptyCart",
			rule:  Rule{DiscountType: DiscountFreeLowest},
			items: nil,
			want:  "0",
		},
		{
			name:  "NegativeDiscountedPriceFloorsAtZero",
			rule:  Rule{DiscountType: DiscountFreeLowest},
			items: entries("-5", "10"),
			want:  "0",
		},
	} {
		t.Run(tt.name, func(t *testing.T) {
			tt.rule.Code = "TEST"
			tt.rule.Description = tt.name

			got, err := Apply(&tt.rule, tt.items)
			require.NoError(t, err)

			assert.True(t, d(tt.want).Equal(got.Amount), "amount %s, want %s", got.Amount, tt.want)
			assert.Equal(t, "TEST", got.Code)
			assert.Equal(t, tt.name, got.Description)
		})
	}
}

func TestApply_MinItemsCountsEntries(t *testing.T) {
	rule := &Rule{Code: "SAVE50", DiscountType: DiscountFixed, Value: d("50"), MinItems: 2}

	// A single product added twice is two entries.
	same := Item{ProductID: "laptop", Price: d("999.99")}
	got, err := Apply(rule, []Item{same, same})
	require.NoError(t, err)
	assert.True(t, d("50").Equal(got.Amount))

	_, err = Apply(rule, []Item{same})
	require.ErrorIs(t, err, ErrInvalidCoupon)

	_, err = Apply(rule, nil)
	require.ErrorIs(t, err, ErrInvalidCoupon)
}

func TestApply_UnsupportedType(t *testing.T) {
	_, err := Apply(&Rule{Code: "X", DiscountType: "bogo"}, entries("10"))

	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrInvalidCoupon)
	assert.Contains(t, err.Error(), `"bogo"`)
}

func TestSubtotal(t *testing.T) {
	assert.True(t, Subtotal(nil).IsZero())
	assert.True(t, d("1199.98").Equal(Subtotal(entries("999.99", "199.99"))))
	assert.True(t, d("20").Equal(Subtotal(entries("10", "10"))))
}

func TestDefaults(t *testing.T) {
	seen := make(map[string]bool, len(Defaults))
	for _, r := range Defaults {
		assert.Equal(t, NormalizeCode(r.Code), r.Code, "stored codes are normalized")
		assert.False(t, seen[r.Code], "duplicate default %s", r.Code)
		seen[r.Code] = true
	}

	// Laptop plus headphones, as on the storefront landing page.
	cart := entries("999.99", "199.99")
	for _, tt := range []struct {
		code string
		want string
		err  error
	}{
		{code: "WELCOME10", want: "100"},
		{code: "SAVE50", want: "50"},
		{code: "BUNDLE3", err: ErrInvalidCoupon},
	} {
		t.Run(tt.code, func(t *testing.T) {
			var rule *Rule
			for i := range Defaults {
				if Defaults[i].Code == tt.code {
					rule = &Defaults[i]
				}
			}
			require.NotNil(t, rule)

			got, err := Apply(rule, cart)
			if tt.err != nil {
				require.ErrorIs(t, err, tt.err)
				return
			}
			require.NoError(t, err)
			assert.True(t, d(tt.want).Equal(got.Amount), "amount %s", got.Amount)
		})
	}
}
