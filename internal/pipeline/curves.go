package pipeline

import (
	"context"
	"fmt"

	"bitcraftsd/config"
	"bitcraftsd/logger"
	"bitcraftsd/models"
	"bitcraftsd/processor"
)

// CurveSet is everything the viewer shows for one item.
type CurveSet struct {
	Item     *models.MarketSnapshot
	Capacity processor.Capacity
	Demand   []models.NamedCurve
	Supply   []models.NamedCurve
}

// Title is the chart title for the set.
func (s *CurveSet) Title() string {
	return fmt.Sprintf("%s Supply and Demand\nClipper Capacity: %s", s.Item.Name, s.Capacity)
}

// CurveViewer builds the global, region and claim curves of one item.
type CurveViewer struct {
	source   MarketSource
	target   config.TargetConfig
	focus    config.FocusConfig
	maxDepth int64
	log      *logger.Log
}

func NewCurveViewer(source MarketSource, cfg *config.Config, log *logger.Log) *CurveViewer {
	return &CurveViewer{source: source, target: cfg.Target, focus: cfg.Focus, maxDepth: cfg.Curve.MaxDepth, log: log}
}

// Run fetches the target item and builds its curves. A side without orders
// has no curves; a scope without matching orders is left out.
func (v *CurveViewer) Run(ctx context.Context) (*CurveSet, error) {
	log := v.log.WithComponent("viewer")
	if v.focus.Region != "" {
		log.Infof("Focusing on %s region.", v.focus.Region)
	}
	if v.focus.ClaimID != "" {
		log.Infof("Focusing on claim %s (id: %s).", v.focus.ClaimName, v.focus.ClaimID)
	}

	snap, err := v.source.GetMarket(ctx, v.target.ItemType, v.target.ItemID)
	if err != nil {
		return nil, fmt.Errorf("fetch target: %w", err)
	}
	logger.IncrementItemsFetched()
	log.WithFields(logger.Fields{"category": snap.Category, "item": snap.Name}).Info("target product identified")

	capacity, err := processor.EstimateCapacity(snap.Category, snap.Volume)
	if err != nil {
		return nil, fmt.Errorf("capacity of %s: %w", snap.Name, err)
	}
	log.WithFields(logger.Fields{"capacity": capacity.String()}).Info("clipper capacity")

	normalizer := processor.OrderNormalizer{Log: v.log}
	buys, err := normalizer.Normalize(models.SideBuy, snap.BuyOrders)
	if err != nil {
		return nil, fmt.Errorf("%s buy orders: %w", snap.Name, err)
	}
	sells, err := normalizer.Normalize(models.SideSell, snap.SellOrders)
	if err != nil {
		return nil, fmt.Errorf("%s sell orders: %w", snap.Name, err)
	}

	set := &CurveSet{Item: snap, Capacity: capacity}
	if set.Demand, err = v.scopes(buys, "Demand"); err != nil {
		return nil, err
	}
	if set.Supply, err = v.scopes(sells, "Supply"); err != nil {
		return nil, err
	}
	return set, nil
}

func (v *CurveViewer) scopes(seq models.OrderSequence, kind string) ([]models.NamedCurve, error) {
	if seq.IsEmpty() {
		return nil, nil
	}

	type scoped struct {
		scope models.CurveScope
		label string
		seq   models.OrderSequence
	}
	candidates := []scoped{{models.ScopeGlobal, "Global " + kind, seq}}
	if v.focus.Region != "" {
		candidates = append(candidates, scoped{models.ScopeRegion, v.focus.Region + " " + kind, processor.Segment(seq, processor.InRegion(v.focus.Region))})
	}
	if v.focus.ClaimID != "" {
		name := v.focus.ClaimName
		if name == "" {
			name = v.focus.ClaimID
		}
		candidates = append(candidates, scoped{models.ScopeClaim, name + " " + kind, processor.Segment(seq, processor.InClaim(v.focus.ClaimID))})
	}

	builder := processor.CurveBuilder{Log: v.log, MaxDepth: v.maxDepth}
	curves := make([]models.NamedCurve, 0, len(candidates))
	for _, c := range candidates {
		if c.seq.IsEmpty() {
			continue
		}
		v.log.WithComponent("viewer").Infof("Building %s curve.", c.label)
		curve, err := builder.Build(c.seq)
		if err != nil {
			return nil, fmt.Errorf("%s curve: %w", c.label, err)
		}
		curves = append(curves, models.NamedCurve{Label: c.label, Scope: c.scope, Curve: curve})
	}
	return curves, nil
}
