package processor

import (
	"errors"
	"fmt"
)

var (
	// ErrOneSidedMarket marks an item without both buy and sell orders.
	ErrOneSidedMarket = errors.New("market has orders on one side only")
	// ErrNegativeVolume is returned for an item volume below zero.
	ErrNegativeVolume = errors.New("item volume is negative")
)

// MalformedOrderError reports an order tier whose numeric fields cannot be
// used.
type MalformedOrderError struct {
	Index int
	Field string
	Raw   string
	Err   error
}

func (e *MalformedOrderError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("order %d: malformed %s %q: %v", e.Index, e.Field, e.Raw, e.Err)
	}
	return fmt.Sprintf("order %d: malformed %s %q", e.Index, e.Field, e.Raw)
}

func (e *MalformedOrderError) Unwrap() error { return e.Err }

// UnknownCategoryError is returned for a category with no inventory layout.
type UnknownCategoryError struct {
	Category string
}

func (e *UnknownCategoryError) Error() string {
	return fmt.Sprintf("unknown item category %q", e.Category)
}

// EmptyOrderSequenceError is returned when a curve is requested from the
// NoOrders variant.
type EmptyOrderSequenceError struct {
	Side string
}

func (e *EmptyOrderSequenceError) Error() string {
	return fmt.Sprintf("no %s orders to build a curve from", e.Side)
}

// NoProfitableTradeError is returned when no depth has buy price >= sell
// price.
type NoProfitableTradeError struct {
	Depth int
}

func (e *NoProfitableTradeError) Error() string {
	return fmt.Sprintf("no profitable trade within %d units", e.Depth)
}

// CurveTooDeepError is returned when a side holds more units than the
// configured curve depth.
type CurveTooDeepError struct {
	Side  string
	Units int64
	Limit int64
}

func (e *CurveTooDeepError) Error() string {
	return fmt.Sprintf("%s side holds %d units, above the curve depth limit of %d", e.Side, e.Units, e.Limit)
}
