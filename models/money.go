package models

import (
	"fmt"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Money is a non-float monetary amount. It is stored in MongoDB as Decimal128
// and rendered in JSON as a number with two decimal places.
type Money struct {
	d decimal.Decimal
}

// Zero is the zero amount
var Zero = Money{}

// NewMoney wraps a decimal value
func NewMoney(d decimal.Decimal) Money {
	return Money{d: d}
}

// ParseMoney parses a price string such as "15.00" or "10". An empty string is zero,
// the way the storefront coerced missing prices to numbers.
func ParseMoney(s string) (Money, error) {
	if s == "" {
		return Zero, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Zero, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	return Money{d: d}, nil
}

// MustParseMoney is ParseMoney for literals; it panics on malformed input.
func MustParseMoney(s string) Money {
	m, err := ParseMoney(s)
	if err != nil {
		panic(err)
	}
	return m
}

func (m Money) Decimal() decimal.Decimal { return m.d }

func (m Money) Add(o Money) Money { return Money{d: m.d.Add(o.d)} }

// Times multiplies by a quantity
func (m Money) Times(qty int) Money {
	return Money{d: m.d.Mul(decimal.NewFromInt(int64(qty)))}
}

func (m Money) Equal(o Money) bool { return m.d.Equal(o.d) }

func (m Money) IsNegative() bool { return m.d.IsNegative() }

func (m Money) IsZero() bool { return m.d.IsZero() }

func (m Money) String() string { return m.d.StringFixed(2) }

// MarshalJSON renders the amount as an unquoted number with two decimals
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(m.d.StringFixed(2)), nil
}

// UnmarshalJSON accepts both quoted and bare numbers
func (m *Money) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		m.d = decimal.Zero
		return nil
	}
	return m.d.UnmarshalJSON(data)
}

// MarshalBSONValue stores the amount as Decimal128
func (m Money) MarshalBSONValue() (bsontype.Type, []byte, error) {
	d128, err := primitive.ParseDecimal128(m.d.String())
	if err != nil {
		return 0, nil, err
	}
	return bson.MarshalValue(d128)
}

// UnmarshalBSONValue reads Decimal128, and tolerates doubles, integers and
// strings written by older clients.
func (m *Money) UnmarshalBSONValue(t bsontype.Type, data []byte) error {
	raw := bson.RawValue{Type: t, Value: data}
	switch t {
	case bsontype.Decimal128:
		d, err := decimal.NewFromString(raw.Decimal128().String())
		if err != nil {
			return err
		}
		m.d = d
	case bsontype.Double:
		m.d = decimal.NewFromFloat(raw.Double())
	case bsontype.Int32:
		m.d = decimal.NewFromInt32(raw.Int32())
	case bsontype.Int64:
		m.d = decimal.NewFromInt(raw.Int64())
	case bsontype.String:
		d, err := decimal.NewFromString(raw.StringValue())
		if err != nil {
			return err
		}
		m.d = d
	case bsontype.Null, bsontype.Undefined:
		m.d = decimal.Zero
	default:
		return fmt.Errorf("cannot decode %s into Money", t)
	}
	return nil
}
