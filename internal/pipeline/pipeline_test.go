package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"bitcraftsd/config"
	"bitcraftsd/logger"
	"bitcraftsd/models"
	"bitcraftsd/processor"
	"bitcraftsd/reader/bitjita"
)

type fakeSource struct {
	items    []models.ListedItem
	markets  map[string]*models.MarketSnapshot
	failures map[string]error
	requests []string
}

func (f *fakeSource) ListMarketItems(ctx context.Context) ([]models.ListedItem, error) {
	return f.items, nil
}

func (f *fakeSource) GetMarket(ctx context.Context, category, itemID string) (*models.MarketSnapshot, error) {
	key := category + "/" + itemID
	f.requests = append(f.requests, key)
	if err, ok := f.failures[key]; ok {
		return nil, err
	}
	snap, ok := f.markets[key]
	if !ok {
		return nil, &bitjita.MarketRequestError{Endpoint: "market/" + key, StatusCode: 404, Err: errors.New("not found")}
	}
	cp := *snap
	return &cp, nil
}

func order(price, qty int64, region, claimID, claimName string, coins int64) models.RawOrder {
	enc := func(v int64) json.RawMessage { b, _ := json.Marshal(v); return b }
	return models.RawOrder{
		PriceThreshold: enc(price),
		Quantity:       enc(qty),
		StoredCoins:    enc(coins),
		RegionName:     region,
		ClaimEntityID:  models.EntityID(claimID),
		ClaimName:      claimName,
	}
}

func quietLogger() *logger.Log {
	log := logger.Logger()
	log.SetOutput(&bytes.Buffer{})
	return log
}

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.Target = config.TargetConfig{ItemType: "item", ItemID: "1"}
	cfg.Focus = config.FocusConfig{Region: "Draxionne", ClaimID: "42", ClaimName: "Port"}
	cfg.Report.Region = "Draxionne"
	cfg.Report.TopN = 1
	cfg.Source.Bitjita.Cooldown = time.Millisecond
	return &cfg
}

func TestCurveViewer(t *testing.T) {
	src := &fakeSource{markets: map[string]*models.MarketSnapshot{
		"item/1": {
			ID: "1", Name: "Plank", Category: "item", Volume: 200,
			BuyOrders: []models.RawOrder{
				order(5, 2, "Draxionne", "42", "Port", 10),
				order(10, 3, "Elsewhere", "7", "Dock", 30),
			},
			SellOrders: []models.RawOrder{
				order(12, 4, "Elsewhere", "7", "Dock", 0),
			},
		},
	}}

	set, err := NewCurveViewer(src, testConfig(), quietLogger()).Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if set.Capacity.Units != 1650 {
		t.Errorf("capacity = %v", set.Capacity)
	}
	if len(set.Demand) != 3 {
		t.Fatalf("expected global, region and claim demand, got %d", len(set.Demand))
	}
	global := set.Demand[0]
	if global.Label != "Global Demand" || global.Curve.TotalQuantity() != 5 || global.Curve.PTot[5] != 40 {
		t.Errorf("global demand = %+v", global)
	}
	if set.Demand[1].Label != "Draxionne Demand" || set.Demand[1].Scope != models.ScopeRegion {
		t.Errorf("region demand = %+v", set.Demand[1])
	}
	if set.Demand[2].Label != "Port Demand" || set.Demand[2].Curve.TotalQuantity() != 2 {
		t.Errorf("claim demand = %+v", set.Demand[2])
	}
	if len(set.Supply) != 1 || set.Supply[0].Scope != models.ScopeGlobal {
		t.Fatalf("only global supply expected, got %+v", set.Supply)
	}
	if set.Title() != "Plank Supply and Demand\nClipper Capacity: 1,650" {
		t.Errorf("title = %q", set.Title())
	}
}

func TestCurveViewerFetchError(t *testing.T) {
	src := &fakeSource{}
	_, err := NewCurveViewer(src, testConfig(), quietLogger()).Run(context.Background())
	var reqErr *bitjita.MarketRequestError
	if !errors.As(err, &reqErr) {
		t.Fatalf("expected MarketRequestError, got %v", err)
	}
}

func TestReportRunner(t *testing.T) {
	src := &fakeSource{
		items: []models.ListedItem{
			{ID: "1", Name: "Plank", ItemType: 0, HasBuyOrders: true, HasSellOrders: true},
			{ID: "2", Name: "Crate", ItemType: 1, HasBuyOrders: true, HasSellOrders: true},
			{ID: "3", Name: "Broken", ItemType: 0, HasBuyOrders: true, HasSellOrders: true},
			{ID: "4", Name: "Half", ItemType: 0, HasBuyOrders: true, HasSellOrders: false},
			{ID: "5", Name: "Odd", ItemType: 9, HasBuyOrders: true, HasSellOrders: true},
			{ID: "6", Name: "Remote", ItemType: 0, HasBuyOrders: true, HasSellOrders: true},
		},
		markets: map[string]*models.MarketSnapshot{
			"item/1": {Name: "Plank", Category: "item",
				BuyOrders:  []models.RawOrder{order(12, 1, "Draxionne", "1", "A", 0), order(11, 1, "Draxionne", "1", "A", 0), order(10, 1, "Draxionne", "1", "A", 0), order(4, 1, "Draxionne", "1", "A", 0)},
				SellOrders: []models.RawOrder{order(5, 1, "Draxionne", "1", "A", 0), order(6, 1, "Draxionne", "1", "A", 0), order(9, 1, "Draxionne", "1", "A", 0), order(11, 1, "Draxionne", "1", "A", 0)},
			},
			"cargo/2": {Name: "Crate", Category: "cargo",
				BuyOrders:  []models.RawOrder{order(100, 2, "Draxionne", "1", "A", 0)},
				SellOrders: []models.RawOrder{order(40, 5, "Draxionne", "1", "A", 0)},
			},
			"item/6": {Name: "Remote", Category: "item",
				BuyOrders:  []models.RawOrder{order(100, 2, "Elsewhere", "1", "A", 0)},
				SellOrders: []models.RawOrder{order(1, 5, "Draxionne", "1", "A", 0)},
			},
		},
		failures: map[string]error{
			"item/3": &bitjita.MarketRequestError{Endpoint: "market/item/3", StatusCode: 500, Err: errors.New("boom")},
		},
	}

	res, err := NewReportRunner(src, testConfig(), nil, quietLogger()).Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(res.Rows) != 2 {
		t.Fatalf("rows = %+v", res.Rows)
	}
	if res.Rows[0].Name != "Crate" || res.Rows[0].TotalProfit != 120 || res.Rows[0].ItemType != "cargo" {
		t.Errorf("first row = %+v", res.Rows[0])
	}
	if res.Rows[1].Name != "Plank" || res.Rows[1].TotalProfit != 13 || res.Rows[1].Quantity != 3 {
		t.Errorf("second row = %+v", res.Rows[1])
	}
	if len(res.Skipped) != 1 || res.Skipped[0] != "Broken" {
		t.Errorf("skipped = %v", res.Skipped)
	}
	for _, req := range src.requests {
		if req == "item/4" || req == "item/5" {
			t.Errorf("one-sided or unknown listing was requested: %s", req)
		}
	}
}

func TestReportRunnerWatchlist(t *testing.T) {
	src := &fakeSource{
		items: []models.ListedItem{
			{ID: "1", Name: "Plank", ItemType: 0, HasBuyOrders: true, HasSellOrders: true},
			{ID: "2", Name: "Crate", ItemType: 1, HasBuyOrders: true, HasSellOrders: true},
		},
		markets: map[string]*models.MarketSnapshot{},
	}
	wl := &config.Watchlist{Items: []config.WatchItem{{ItemType: "cargo", ItemID: "2"}}}
	if _, err := NewReportRunner(src, testConfig(), wl, quietLogger()).Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(src.requests) != 1 || src.requests[0] != "cargo/2" {
		t.Fatalf("requests = %v", src.requests)
	}
}

func TestReportRunnerCancelledDuringCooldown(t *testing.T) {
	src := &fakeSource{
		items: []models.ListedItem{{ID: "1", Name: "Plank", ItemType: 0, HasBuyOrders: true, HasSellOrders: true}},
	}
	cfg := testConfig()
	cfg.Source.Bitjita.Cooldown = time.Hour

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := NewReportRunner(src, cfg, nil, quietLogger()).Run(ctx)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
}

func TestReportRunnerPropagatesMalformedOrders(t *testing.T) {
	bad := order(1, 1, "Draxionne", "1", "A", 0)
	bad.PriceThreshold = json.RawMessage(`"n/a"`)
	src := &fakeSource{
		items: []models.ListedItem{{ID: "1", Name: "Plank", ItemType: 0, HasBuyOrders: true, HasSellOrders: true}},
		markets: map[string]*models.MarketSnapshot{
			"item/1": {Name: "Plank", Category: "item", BuyOrders: []models.RawOrder{bad}, SellOrders: []models.RawOrder{order(1, 1, "Draxionne", "1", "A", 0)}},
		},
	}
	_, err := NewReportRunner(src, testConfig(), nil, quietLogger()).Run(context.Background())
	var mErr *processor.MalformedOrderError
	if !errors.As(err, &mErr) {
		t.Fatalf("expected MalformedOrderError, got %v", err)
	}
}

func TestCompareRunner(t *testing.T) {
	src := &fakeSource{
		items: []models.ListedItem{
			{ID: "1", Name: "Plank", ItemType: 0, HasBuyOrders: true, HasSellOrders: true},
			{ID: "2", Name: "Crate", ItemType: 1, HasBuyOrders: true, HasSellOrders: false},
		},
		markets: map[string]*models.MarketSnapshot{
			"item/1": {Name: "Plank", Category: "item",
				BuyOrders:  []models.RawOrder{order(10, 3, "R", "1", "Port", 30), order(5, 1, "R", "2", "Dock", 5)},
				SellOrders: []models.RawOrder{order(12, 7, "R", "2", "Dock", 0)},
			},
			"cargo/2": {Name: "Crate", Category: "cargo",
				BuyOrders: []models.RawOrder{order(100, 1, "R", "2", "Dock", 100)},
			},
		},
	}

	res, err := NewCompareRunner(src, testConfig(), nil, quietLogger()).Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if res.Processed != 2 {
		t.Errorf("processed = %d", res.Processed)
	}
	if len(res.Buy.Top) != 1 || res.Buy.Top[0].ClaimName != "Dock" || res.Buy.Top[0].Amount != 105 || res.Buy.Other != 30 {
		t.Fatalf("buy ranking = %+v", res.Buy)
	}
	if len(res.Sell.Ranked) != 1 || res.Sell.Ranked[0].Amount != 7 {
		t.Fatalf("sell ranking = %+v", res.Sell)
	}
	if got := rankingTable(res.Buy); got != "   1  Dock\n   2  Port" {
		t.Errorf("ranking table = %q", got)
	}
}

func TestReportRunnerIgnoresBadStoredCoins(t *testing.T) {
	buy := order(12, 2, "Draxionne", "1", "A", 0)
	buy.StoredCoins = json.RawMessage(`"unknown"`)
	src := &fakeSource{
		items: []models.ListedItem{{ID: "1", Name: "Plank", ItemType: 0, HasBuyOrders: true, HasSellOrders: true}},
		markets: map[string]*models.MarketSnapshot{
			"item/1": {Name: "Plank", Category: "item", BuyOrders: []models.RawOrder{buy}, SellOrders: []models.RawOrder{order(5, 2, "Draxionne", "1", "A", 0)}},
		},
	}
	res, err := NewReportRunner(src, testConfig(), nil, quietLogger()).Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(res.Rows) != 1 || res.Rows[0].TotalProfit != 14 {
		t.Fatalf("rows = %+v", res.Rows)
	}
}

func TestReportRunnerSkipsOversizedBooks(t *testing.T) {
	src := &fakeSource{
		items: []models.ListedItem{
			{ID: "1", Name: "Plank", ItemType: 0, HasBuyOrders: true, HasSellOrders: true},
			{ID: "2", Name: "Flood", ItemType: 0, HasBuyOrders: true, HasSellOrders: true},
		},
		markets: map[string]*models.MarketSnapshot{
			"item/1": {Name: "Plank", Category: "item",
				BuyOrders:  []models.RawOrder{order(12, 2, "Draxionne", "1", "A", 0)},
				SellOrders: []models.RawOrder{order(5, 2, "Draxionne", "1", "A", 0)},
			},
			"item/2": {Name: "Flood", Category: "item",
				BuyOrders:  []models.RawOrder{order(12, 2, "Draxionne", "1", "A", 0)},
				SellOrders: []models.RawOrder{order(1, 10_000_000_000, "Draxionne", "1", "A", 0)},
			},
		},
	}
	cfg := testConfig()
	cfg.Curve.MaxDepth = 1000

	res, err := NewReportRunner(src, cfg, nil, quietLogger()).Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(res.Rows) != 1 || res.Rows[0].Name != "Plank" {
		t.Fatalf("rows = %+v", res.Rows)
	}
	if len(res.Skipped) != 1 || res.Skipped[0] != "Flood" {
		t.Fatalf("skipped = %v", res.Skipped)
	}
}

func TestCurveViewerDepthLimit(t *testing.T) {
	src := &fakeSource{markets: map[string]*models.MarketSnapshot{
		"item/1": {Name: "Plank", Category: "item", Volume: 200,
			BuyOrders: []models.RawOrder{order(10, 50, "Draxionne", "42", "Port", 0)},
		},
	}}
	cfg := testConfig()
	cfg.Curve.MaxDepth = 10

	_, err := NewCurveViewer(src, cfg, quietLogger()).Run(context.Background())
	var deep *processor.CurveTooDeepError
	if !errors.As(err, &deep) {
		t.Fatalf("expected CurveTooDeepError, got %v", err)
	}
}

func TestCompareRunnerCountsCoinsOfEmptyTiers(t *testing.T) {
	src := &fakeSource{
		items: []models.ListedItem{{ID: "1", Name: "Plank", ItemType: 0, HasBuyOrders: true, HasSellOrders: true}},
		markets: map[string]*models.MarketSnapshot{
			"item/1": {Name: "Plank", Category: "item",
				BuyOrders:  []models.RawOrder{order(10, 0, "R", "1", "Port", 70), order(9, 2, "R", "2", "Dock", 20)},
				SellOrders: []models.RawOrder{order(12, 3, "R", "2", "Dock", 0)},
			},
		},
	}
	res, err := NewCompareRunner(src, testConfig(), nil, quietLogger()).Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if res.Buy.Total != 90 || res.Buy.Top[0].ClaimName != "Port" || res.Buy.Top[0].Amount != 70 {
		t.Fatalf("buy ranking = %+v", res.Buy)
	}
}
