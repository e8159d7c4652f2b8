package processor

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"

	"github.com/sirupsen/logrus"

	"bitcraftsd/logger"
	"bitcraftsd/models"
)

func rawOrder(price, qty, region, claim string) models.RawOrder {
	return models.RawOrder{
		PriceThreshold: json.RawMessage(price),
		Quantity:       json.RawMessage(qty),
		RegionName:     region,
		ClaimEntityID:  models.EntityID(claim),
		ClaimName:      "claim-" + claim,
	}
}

func TestNormalizeOrdersSortsBySide(t *testing.T) {
	raw := []models.RawOrder{
		rawOrder(`5`, `2`, "A", "1"),
		rawOrder(`"10"`, `3`, "B", "2"),
		rawOrder(`7.9`, `"1"`, "A", "3"),
	}

	buys, err := NormalizeOrders(models.SideBuy, raw)
	if err != nil {
		t.Fatalf("normalize buys: %v", err)
	}
	wantBuy := []int64{10, 7, 5}
	for i, w := range wantBuy {
		if got := buys.At(i).PriceThreshold; got != w {
			t.Fatalf("buy[%d] price = %d, want %d", i, got, w)
		}
	}

	sells, err := NormalizeOrders(models.SideSell, raw)
	if err != nil {
		t.Fatalf("normalize sells: %v", err)
	}
	wantSell := []int64{5, 7, 10}
	for i, w := range wantSell {
		if got := sells.At(i).PriceThreshold; got != w {
			t.Fatalf("sell[%d] price = %d, want %d", i, got, w)
		}
	}
	if sells.At(2).ClaimEntityID != "2" || sells.At(2).RegionName != "B" {
		t.Errorf("attribution tags lost: %+v", sells.At(2))
	}
}

func TestNormalizeOrdersStableForEqualPrices(t *testing.T) {
	raw := []models.RawOrder{
		rawOrder(`5`, `1`, "A", "first"),
		rawOrder(`5`, `1`, "A", "second"),
	}
	seq, err := NormalizeOrders(models.SideBuy, raw)
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if seq.At(0).ClaimEntityID != "first" || seq.At(1).ClaimEntityID != "second" {
		t.Fatalf("sort is not stable: %+v", seq.Orders())
	}
}

func TestNormalizeOrdersEmpty(t *testing.T) {
	seq, err := NormalizeOrders(models.SideSell, nil)
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if !seq.IsEmpty() {
		t.Fatal("expected NoOrders for empty input")
	}
}

func TestNormalizeOrdersDropsEmptyTiers(t *testing.T) {
	log := logger.Logger()
	var buf bytes.Buffer
	log.SetOutput(&buf)
	log.SetLevel(logrus.DebugLevel)

	raw := []models.RawOrder{rawOrder(`5`, `0`, "A", "1"), rawOrder(`6`, `-2`, "A", "1")}
	seq, err := OrderNormalizer{Log: log}.Normalize(models.SideBuy, raw)
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if !seq.IsEmpty() {
		t.Fatalf("all tiers dropped should yield NoOrders, got %d", seq.Len())
	}
	if !bytes.Contains(buf.Bytes(), []byte("dropped order tiers")) {
		t.Errorf("expected debug line for dropped tiers: %s", buf.String())
	}
}

func TestNormalizeOrdersMalformed(t *testing.T) {
	cases := []struct {
		name  string
		order models.RawOrder
		field string
	}{
		{"missing price", rawOrder(``, `1`, "A", "1"), "priceThreshold"},
		{"null price", rawOrder(`null`, `1`, "A", "1"), "priceThreshold"},
		{"text price", rawOrder(`"cheap"`, `1`, "A", "1"), "priceThreshold"},
		{"negative price", rawOrder(`-1`, `1`, "A", "1"), "priceThreshold"},
		{"missing quantity", rawOrder(`1`, ``, "A", "1"), "quantity"},
		{"text quantity", rawOrder(`1`, `"lots"`, "A", "1"), "quantity"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			_, err := NormalizeOrders(models.SideBuy, []models.RawOrder{rawOrder(`1`, `1`, "A", "1"), c.order})
			var mErr *MalformedOrderError
			if !errors.As(err, &mErr) {
				t.Fatalf("expected MalformedOrderError, got %v", err)
			}
			if mErr.Index != 1 || mErr.Field != c.field {
				t.Errorf("unexpected error detail: %+v", mErr)
			}
		})
	}
}

func TestNormalizeOrdersStoredCoins(t *testing.T) {
	o := rawOrder(`10`, `3`, "A", "1")
	o.StoredCoins = json.RawMessage(`"30"`)
	seq, err := NormalizeOrders(models.SideBuy, []models.RawOrder{o, rawOrder(`9`, `1`, "A", "1")})
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if seq.At(0).StoredCoins != 30 || seq.At(1).StoredCoins != 0 {
		t.Fatalf("stored coins = %d, %d", seq.At(0).StoredCoins, seq.At(1).StoredCoins)
	}

}

func TestNormalizeOrdersIgnoresMalformedStoredCoins(t *testing.T) {
	var buf bytes.Buffer
	log := logger.Logger()
	log.SetOutput(&buf)
	log.SetLevel(logrus.DebugLevel)

	o := rawOrder(`10`, `3`, "A", "1")
	o.StoredCoins = json.RawMessage(`"many"`)
	seq, err := OrderNormalizer{Log: log}.Normalize(models.SideBuy, []models.RawOrder{o, rawOrder(`9`, `1`, "A", "2")})
	if err != nil {
		t.Fatalf("bad stored coins must not reject the side: %v", err)
	}
	if seq.Len() != 2 || seq.At(0).StoredCoins != 0 || seq.At(0).Quantity != 3 {
		t.Fatalf("unexpected tiers: %+v", seq.Orders())
	}
	if !bytes.Contains(buf.Bytes(), []byte("ignoring malformed storedCoins")) {
		t.Errorf("expected debug line for the bad value: %s", buf.String())
	}
}
