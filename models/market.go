package models

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// Market categories understood by the bitjita API.
const (
	CategoryItem  = "item"
	CategoryCargo = "cargo"
)

// CategoryForItemType maps the listing's numeric item type to a category.
func CategoryForItemType(itemType int) (string, bool) {
	switch itemType {
	case 0:
		return CategoryItem, true
	case 1:
		return CategoryCargo, true
	default:
		return "", false
	}
}

// ErrMissingNumber is returned by ParseWholeNumber for absent or null values.
var ErrMissingNumber = errors.New("value is missing")

// ParseWholeNumber coerces a JSON number or numeric string into an int64.
// Fractional values are truncated toward zero.
func ParseWholeNumber(raw json.RawMessage) (int64, error) {
	s := string(bytes.TrimSpace(raw))
	if s == "" || s == "null" {
		return 0, ErrMissingNumber
	}
	if s[0] == '"' {
		var str string
		if err := json.Unmarshal(raw, &str); err != nil {
			return 0, fmt.Errorf("invalid string %s: %w", s, err)
		}
		s = strings.TrimSpace(str)
		if s == "" {
			return 0, ErrMissingNumber
		}
	}
	if v, err := strconv.ParseInt(s, 10, 64); err == nil {
		return v, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("%s is not numeric", s)
	}
	if f >= math.MaxInt64 || f <= math.MinInt64 {
		return 0, fmt.Errorf("%s is out of range", s)
	}
	return int64(f), nil
}

// EntityID accepts entity ids encoded either as JSON strings or numbers.
type EntityID string

func (id *EntityID) UnmarshalJSON(data []byte) error {
	s := string(bytes.TrimSpace(data))
	if s == "null" {
		*id = ""
		return nil
	}
	if strings.HasPrefix(s, `"`) {
		var str string
		if err := json.Unmarshal(data, &str); err != nil {
			return err
		}
		*id = EntityID(str)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("entity id %s: %w", s, err)
	}
	*id = EntityID(n.String())
	return nil
}

// RawOrder is an order record as delivered by the market API. Numeric
// fields are kept raw so normalisation can report malformed values.
type RawOrder struct {
	PriceThreshold json.RawMessage `json:"priceThreshold"`
	Quantity       json.RawMessage `json:"quantity"`
	StoredCoins    json.RawMessage `json:"storedCoins,omitempty"`
	RegionName     string          `json:"regionName"`
	ClaimEntityID  EntityID        `json:"claimEntityId"`
	ClaimName      string          `json:"claimName"`
}

// MarketResponse is the body of GET market/{category}/{id}.
type MarketResponse struct {
	Item struct {
		ID     EntityID        `json:"id"`
		Name   string          `json:"name"`
		Volume json.RawMessage `json:"volume"`
	} `json:"item"`
	BuyOrders  []RawOrder `json:"buyOrders"`
	SellOrders []RawOrder `json:"sellOrders"`
}

// ListingResponse is the body of GET market?hasOrders=true.
type ListingResponse struct {
	Data struct {
		Items []ListedItem `json:"items"`
	} `json:"data"`
}

// ListedItem is one entry of the market listing.
type ListedItem struct {
	ID            EntityID `json:"id"`
	Name          string   `json:"name"`
	ItemType      int      `json:"itemType"`
	HasBuyOrders  bool     `json:"hasBuyOrders"`
	HasSellOrders bool     `json:"hasSellOrders"`
}

// MarketSnapshot is one item's metadata and raw order book at fetch time.
type MarketSnapshot struct {
	ID         string
	Name       string
	Category   string
	Volume     int64
	BuyOrders  []RawOrder
	SellOrders []RawOrder
	FetchedAt  time.Time
}

// NewMarketSnapshot converts an API response into a snapshot.
func NewMarketSnapshot(category, id string, resp *MarketResponse, fetchedAt time.Time) (*MarketSnapshot, error) {
	if resp == nil {
		return nil, errors.New("nil market response")
	}
	volume, err := ParseWholeNumber(resp.Item.Volume)
	if err != nil {
		return nil, fmt.Errorf("item %s/%s volume: %w", category, id, err)
	}
	return &MarketSnapshot{
		ID:         id,
		Name:       resp.Item.Name,
		Category:   category,
		Volume:     volume,
		BuyOrders:  resp.BuyOrders,
		SellOrders: resp.SellOrders,
		FetchedAt:  fetchedAt,
	}, nil
}
