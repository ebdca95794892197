package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
)

func TestParseMoney(t *testing.T) {
	m, err := ParseMoney("15.00")
	require.NoError(t, err)
	assert.Equal(t, "15.00", m.String())

	m, err = ParseMoney("")
	require.NoError(t, err)
	assert.True(t, m.IsZero())

	_, err = ParseMoney("fifteen")
	assert.Error(t, err)

	m, err = ParseMoney("-0.50")
	require.NoError(t, err)
	assert.True(t, m.IsNegative())
}

func TestCalculateTotalIsExact(t *testing.T) {
	items := []LineItem{
		{ProductID: "a", UnitPrice: MustParseMoney("0.10"), Quantity: 3},
		{ProductID: "b", UnitPrice: MustParseMoney("0.20"), Quantity: 1},
	}
	assert.Equal(t, "0.50", CalculateTotal(items).String())
	assert.True(t, CalculateTotal(nil).IsZero())
}

func TestMoneyJSON(t *testing.T) {
	data, err := json.Marshal(struct {
		Total Money `json:"total"`
	}{MustParseMoney("40")})
	require.NoError(t, err)
	assert.JSONEq(t, `{"total": 40.00}`, string(data))

	var v struct {
		A Money `json:"a"`
		B Money `json:"b"`
		C Money `json:"c"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"a": 12.5, "b": "7.25", "c": null}`), &v))
	assert.Equal(t, "12.50", v.A.String())
	assert.Equal(t, "7.25", v.B.String())
	assert.True(t, v.C.IsZero())
}

func TestMoneyBSON(t *testing.T) {
	type doc struct {
		Price Money `bson:"price"`
	}

	data, err := bson.Marshal(doc{Price: MustParseMoney("19.99")})
	require.NoError(t, err)
	raw := bson.Raw(data)
	assert.Equal(t, "19.99", raw.Lookup("price").Decimal128().String())

	var out doc
	require.NoError(t, bson.Unmarshal(data, &out))
	assert.True(t, out.Price.Equal(MustParseMoney("19.99")))

	legacy, err := bson.Marshal(bson.M{"price": 12.5})
	require.NoError(t, err)
	require.NoError(t, bson.Unmarshal(legacy, &out))
	assert.Equal(t, "12.50", out.Price.String())

	legacy, err = bson.Marshal(bson.M{"price": "8"})
	require.NoError(t, err)
	require.NoError(t, bson.Unmarshal(legacy, &out))
	assert.Equal(t, "8.00", out.Price.String())
}
