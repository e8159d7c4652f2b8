package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// WatchItem identifies one market listing by category and id.
type WatchItem struct {
	ItemType string `yaml:"item_type"`
	ItemID   string `yaml:"item_id"`
}

// Watchlist restricts the batch tools to a fixed set of items.
type Watchlist struct {
	Items []WatchItem `yaml:"items"`
}

// LoadWatchlist loads a watchlist from the given path.
func LoadWatchlist(path string) (*Watchlist, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read watchlist file: %w", err)
	}
	var wl Watchlist
	if err := yaml.Unmarshal(data, &wl); err != nil {
		return nil, fmt.Errorf("failed to parse watchlist file: %w", err)
	}
	for i := range wl.Items {
		wl.Items[i].ItemType = strings.ToLower(strings.TrimSpace(wl.Items[i].ItemType))
		wl.Items[i].ItemID = strings.TrimSpace(wl.Items[i].ItemID)
		switch wl.Items[i].ItemType {
		case "item", "cargo":
		default:
			return nil, fmt.Errorf("watchlist item %d: unknown item_type '%s'", i, wl.Items[i].ItemType)
		}
		if wl.Items[i].ItemID == "" {
			return nil, fmt.Errorf("watchlist item %d: item_id is required", i)
		}
	}
	return &wl, nil
}

// Contains reports whether the listing is on the watchlist. An empty or nil
// watchlist contains everything.
func (w *Watchlist) Contains(itemType, itemID string) bool {
	if w == nil || len(w.Items) == 0 {
		return true
	}
	for _, it := range w.Items {
		if it.ItemType == itemType && it.ItemID == itemID {
			return true
		}
	}
	return false
}
