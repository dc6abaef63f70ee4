// Package ids produces storage identifiers and human-readable display labels.
package ids

import (
	"fmt"

	"github.com/google/uuid"
)

// Sequence names, each with its own display prefix.
const (
	SeqOrders  = "orders"
	SeqSales   = "sales"
	SeqCoins   = "snooker_coins"
	SeqExpense = "expenses"
)

var prefixes = map[string]string{
	SeqOrders:  "ORDER",
	SeqSales:   "SALES",
	SeqCoins:   "COIN",
	SeqExpense: "EXP",
}

// New returns a random storage identifier.
func New() string {
	return uuid.NewString()
}

// Display renders the n-th label of a sequence, e.g. ORDER-01 or SALES-012.
func Display(sequence string, n int64) string {
	prefix, ok := prefixes[sequence]
	if !ok {
		prefix = "REC"
	}
	return Format(prefix, n)
}

// Format keeps the historical "-0" infix for every value of n.
func Format(prefix string, n int64) string {
	return fmt.Sprintf("%s-0%d", prefix, n)
}
