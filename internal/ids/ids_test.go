package ids

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDisplay(t *testing.T) {
	cases := []struct {
		name     string
		sequence string
		n        int64
		expected string
	}{
		{name: "first order", sequence: SeqOrders, n: 1, expected: "ORDER-01"},
		{name: "tenth order keeps infix", sequence: SeqOrders, n: 10, expected: "ORDER-010"},
		{name: "sales", sequence: SeqSales, n: 3, expected: "SALES-03"},
		{name: "coins", sequence: SeqCoins, n: 7, expected: "COIN-07"},
		{name: "expenses", sequence: SeqExpense, n: 2, expected: "EXP-02"},
		{name: "unknown sequence", sequence: "misc", n: 1, expected: "REC-01"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, Display(tc.sequence, tc.n))
		})
	}
}

func TestNewIsUUID(t *testing.T) {
	a, b := New(), New()
	_, err := uuid.Parse(a)
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}
