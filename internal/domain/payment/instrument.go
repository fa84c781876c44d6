package payment

import (
	"context"
	"sync"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Kind identifies a payment instrument variant.
type Kind string

const (
	KindCreditCard    Kind = "credit_card"
	KindStoredBalance Kind = "stored_balance"
)

// ErrInvalidAmount is returned by Authorize for a non-positive amount.
var ErrInvalidAmount = errors.New("amount must be positive")

// Instrument is a validated payment credential. Only the constructors in
// this package produce one.
type Instrument struct {
	kind Kind

	// credit card
	number string
	cvv    string
	expiry string

	// stored balance
	account string
	mu      sync.Mutex
	balance decimal.Decimal
}

// NewCreditCard validates the card fields with v and returns a card
// instrument. On any invalid field it returns a *ValidationError listing
// all of them and a nil instrument.
func NewCreditCard(v *Validator, number, cvv, expiry string) (*Instrument, error) {
	if err := v.Report(number, cvv, expiry).Err(); err != nil {
		return nil, err
	}
	return &Instrument{
		kind:   KindCreditCard,
		number: CleanCardNumber(number),
		cvv:    cvv,
		expiry: expiry,
	}, nil
}

// NewStoredBalance returns an instrument that draws from a prepaid balance.
func NewStoredBalance(account string, balance decimal.Decimal) (*Instrument, error) {
	if account == "" {
		return nil, errors.New("account required")
	}
	if balance.IsNegative() {
		return nil, errors.Errorf("negative balance %s", balance)
	}
	return &Instrument{
		kind:    KindStoredBalance,
		account: account,
		balance: balance,
	}, nil
}

// Kind returns the instrument variant.
func (in *Instrument) Kind() Kind {
	return in.kind
}

// MaskedNumber returns a display form that reveals only the last four
// characters of the card number or account.
func (in *Instrument) MaskedNumber() string {
	s := in.number
	if in.kind == KindStoredBalance {
		s = in.account
	}
	if len(s) > 4 {
		s = s[len(s)-4:]
	}
	return "****-****-****-" + s
}

// Balance returns the remaining stored balance. It is zero for cards.
func (in *Instrument) Balance() decimal.Decimal {
	in.mu.Lock()
	defer in.mu.Unlock()
	return in.balance
}

// Authorize captures amount. It reports false when the instrument cannot
// cover the amount.
func (in *Instrument) Authorize(ctx context.Context, amount decimal.Decimal) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	if !amount.IsPositive() {
		return false, errors.Wrapf(ErrInvalidAmount, "authorize %s", amount)
	}

	lg := zctx.From(ctx).With(
		zap.String("instrument", string(in.kind)),
		zap.String("masked", in.MaskedNumber()),
		zap.String("amount", amount.StringFixed(2)),
	)

	switch in.kind {
	case KindCreditCard:
		lg.Info("Payment captured")
		return true, nil
	case KindStoredBalance:
		in.mu.Lock()
		defer in.mu.Unlock()
		if in.balance.LessThan(amount) {
			lg.Info("Payment declined", zap.String("balance", in.balance.StringFixed(2)))
			return false, nil
		}
		in.balance = in.balance.Sub(amount)
		lg.Info("Payment captured", zap.String("balance", in.balance.StringFixed(2)))
		return true, nil
	default:
		return false, errors.Errorf("unsupported instrument %q", in.kind)
	}
}
