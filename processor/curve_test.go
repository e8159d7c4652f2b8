package processor

import (
	"bytes"
	"errors"
	"math"
	"reflect"
	"testing"

	"github.com/sirupsen/logrus"

	"bitcraftsd/logger"
	"bitcraftsd/models"
)

func seqOf(side models.Side, tiers ...[2]int64) models.OrderSequence {
	orders := make([]models.Order, 0, len(tiers))
	for _, t := range tiers {
		orders = append(orders, models.Order{PriceThreshold: t[0], Quantity: t[1]})
	}
	return models.PresentOrders(side, orders)
}

func TestBuildCurveBuyExample(t *testing.T) {
	curve, err := BuildCurve(seqOf(models.SideBuy, [2]int64{10, 3}, [2]int64{5, 2}))
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	want := []int64{0, 10, 20, 30, 35, 40}
	if !reflect.DeepEqual(curve.PTot, want) {
		t.Fatalf("p_tot = %v, want %v", curve.PTot, want)
	}
	if !reflect.DeepEqual(curve.Q, []int64{0, 1, 2, 3, 4, 5}) {
		t.Fatalf("q = %v", curve.Q)
	}
}

func TestBuildCurveSingleTier(t *testing.T) {
	const price, qty = 7, 25
	curve, err := BuildCurve(seqOf(models.SideSell, [2]int64{price, qty}))
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if len(curve.PTot) != qty+1 {
		t.Fatalf("len = %d", len(curve.PTot))
	}
	for i, p := range curve.PTot {
		if p != int64(i)*price {
			t.Fatalf("p_tot[%d] = %d, want %d", i, p, int64(i)*price)
		}
	}
}

func TestBuildCurveMonotonic(t *testing.T) {
	seq := seqOf(models.SideSell, [2]int64{0, 4}, [2]int64{3, 2}, [2]int64{3, 5}, [2]int64{9, 1})
	curve, err := BuildCurve(seq)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if curve.PTot[0] != 0 {
		t.Fatalf("p_tot[0] = %d", curve.PTot[0])
	}
	for i := 1; i < len(curve.PTot); i++ {
		if curve.PTot[i] < curve.PTot[i-1] {
			t.Fatalf("p_tot decreases at %d: %v", i, curve.PTot)
		}
	}
	if curve.TotalQuantity() != 12 {
		t.Errorf("total = %d", curve.TotalQuantity())
	}
}

func TestBuildCurveDeterministic(t *testing.T) {
	seq := seqOf(models.SideBuy, [2]int64{12, 2}, [2]int64{8, 4})
	a, err := BuildCurve(seq)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	b, err := BuildCurve(seq)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if !reflect.DeepEqual(a, b) {
		t.Fatalf("curves differ: %v vs %v", a, b)
	}
}

func TestBuildCurveEmpty(t *testing.T) {
	_, err := BuildCurve(models.NoOrders(models.SideBuy))
	var eErr *EmptyOrderSequenceError
	if !errors.As(err, &eErr) || eErr.Side != "buy" {
		t.Fatalf("expected EmptyOrderSequenceError, got %v", err)
	}
}

func TestCurveBuilderLogsProgress(t *testing.T) {
	log := logger.Logger()
	var buf bytes.Buffer
	log.SetOutput(&buf)
	log.SetLevel(logrus.InfoLevel)

	if _, err := (CurveBuilder{Log: log}).Build(seqOf(models.SideSell, [2]int64{1, 25000})); err != nil {
		t.Fatalf("build: %v", err)
	}
	if n := bytes.Count(buf.Bytes(), []byte("building curve")); n != 2 {
		t.Fatalf("expected 2 progress lines, got %d: %s", n, buf.String())
	}
}

func TestSegment(t *testing.T) {
	orders := []models.Order{
		{PriceThreshold: 9, Quantity: 1, RegionName: "Draxionne", ClaimEntityID: "1"},
		{PriceThreshold: 8, Quantity: 2, RegionName: "Other", ClaimEntityID: "2"},
		{PriceThreshold: 7, Quantity: 3, RegionName: "Draxionne", ClaimEntityID: "2"},
	}
	seq := models.PresentOrders(models.SideBuy, orders)

	region := Segment(seq, InRegion("Draxionne"))
	if region.Len() != 2 || region.At(0).PriceThreshold != 9 || region.At(1).PriceThreshold != 7 {
		t.Fatalf("region segment = %+v", region.Orders())
	}

	both := Segment(seq, All(InRegion("Draxionne"), InClaim("2")))
	if both.Len() != 1 || both.At(0).PriceThreshold != 7 {
		t.Fatalf("combined segment = %+v", both.Orders())
	}

	absent := Segment(seq, InRegion("Nowhere"))
	if !absent.IsEmpty() {
		t.Fatal("absent tag should yield NoOrders")
	}
	if _, err := BuildCurve(absent); err == nil {
		t.Fatal("absent segment must not build a zero-length curve")
	}

	if !Segment(models.NoOrders(models.SideSell), InClaim("1")).IsEmpty() {
		t.Fatal("NoOrders in should give NoOrders out")
	}
	if Segment(seq, nil).Len() != 3 {
		t.Fatal("nil predicate keeps everything")
	}
}

func TestBuildCurveZeroQuantityTier(t *testing.T) {
	curve, err := BuildCurve(seqOf(models.SideBuy, [2]int64{10, 3}, [2]int64{5, 0}, [2]int64{5, 2}))
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if want := []int64{0, 10, 20, 30, 35, 40}; !reflect.DeepEqual(curve.PTot, want) {
		t.Fatalf("p_tot = %v, want %v", curve.PTot, want)
	}
	if len(curve.Q) != 6 {
		t.Fatalf("len(q) = %d, want 6", len(curve.Q))
	}
}

func TestBuildCurveDepthLimit(t *testing.T) {
	seq := seqOf(models.SideSell, [2]int64{3, 4}, [2]int64{5, 3})

	_, err := CurveBuilder{MaxDepth: 6}.Build(seq)
	var deep *CurveTooDeepError
	if !errors.As(err, &deep) {
		t.Fatalf("expected CurveTooDeepError, got %v", err)
	}
	if deep.Units != 7 || deep.Limit != 6 || deep.Side != "sell" {
		t.Errorf("unexpected error detail: %+v", deep)
	}

	curve, err := CurveBuilder{MaxDepth: 7}.Build(seq)
	if err != nil {
		t.Fatalf("depth at the limit should build: %v", err)
	}
	if curve.TotalQuantity() != 7 {
		t.Errorf("total = %d", curve.TotalQuantity())
	}
}

func TestBuildCurveRejectsOverflowingDepth(t *testing.T) {
	seq := seqOf(models.SideBuy, [2]int64{1, math.MaxInt64 - 1}, [2]int64{1, 5})
	_, err := BuildCurve(seq)
	var deep *CurveTooDeepError
	if !errors.As(err, &deep) {
		t.Fatalf("expected CurveTooDeepError without a limit, got %v", err)
	}
}
