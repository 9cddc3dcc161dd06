package trader

import (
	"math/rand"
	"testing"

	"github.com/shopspring/decimal"

	"cda-sim/pkg/types"
)

func newTestTrader(t *testing.T, side types.Side, strategy types.Strategy) *Trader {
	t.Helper()
	cfg := types.ParticipantConfig{
		ID: "t", Name: "T", Side: side, Strategy: strategy,
		NumUnits: 3, MinValue: 50, MaxValue: 150,
	}
	tr, err := New(cfg, rand.New(rand.NewSource(3)))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return tr
}

// newFixedTestTrader builds a trader whose every unit is worth/costs exactly
// value, so next_token always equals the current unit — useful for pinning
// exact formula outputs without the test depending on how buildEndowment's
// random draw happened to land.
func newFixedTestTrader(t *testing.T, side types.Side, strategy types.Strategy, value int) *Trader {
	t.Helper()
	cfg := types.ParticipantConfig{
		ID: "t", Name: "T", Side: side, Strategy: strategy,
		NumUnits: 3, MinValue: value, MaxValue: value,
	}
	tr, err := New(cfg, rand.New(rand.NewSource(3)))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return tr
}

func TestZIBuyStaysWithinBounds(t *testing.T) {
	t.Parallel()

	tr := newTestTrader(t, types.Buyer, types.ZeroIntelligence)
	cur, _ := tr.Endowment().Current()
	standingBid := decimal.Zero
	standingAsk := types.PriceCeiling

	for i := 0; i < 20; i++ {
		amount, ok := tr.Quote(standingBid, standingAsk, 0, 10)
		if !ok {
			continue
		}
		if amount.LessThan(standingBid) || amount.GreaterThan(cur) {
			t.Fatalf("ZI buy amount %v out of [%v, %v]", amount, standingBid, cur)
		}
	}
}

func TestZISellStaysWithinBounds(t *testing.T) {
	t.Parallel()

	tr := newTestTrader(t, types.Seller, types.ZeroIntelligence)
	cur, _ := tr.Endowment().Current()
	standingBid := types.PriceFloor
	standingAsk := types.PriceCeiling

	for i := 0; i < 20; i++ {
		amount, ok := tr.Quote(standingBid, standingAsk, 0, 10)
		if !ok {
			continue
		}
		if amount.LessThan(cur) || amount.GreaterThan(standingAsk) {
			t.Fatalf("ZI sell amount %v out of [%v, %v]", amount, cur, standingAsk)
		}
	}
}

// TestKaplanBuyerMostGateBlocksWhenNoRoomAboveNextUnit constructs an
// endowment where next_token-1 sits at or below the standing bid, so
// most <= standing_bid and Kaplan must decline regardless of spread or
// time remaining.
func TestKaplanBuyerMostGateBlocksWhenNoRoomAboveNextUnit(t *testing.T) {
	t.Parallel()

	tr := newTestTrader(t, types.Buyer, types.Kaplan)
	cur, _ := tr.Endowment().Current()
	next, ok := tr.Endowment().Peek(1)
	if !ok {
		t.Fatal("test endowment must have at least two units")
	}
	standingAsk := cur // most = min(standingAsk, next-1); force most <= standingBid
	standingBid := next.Sub(decimal.NewFromInt(1))

	_, ok = tr.Quote(standingBid, standingAsk, 9, 10)
	if ok {
		t.Fatal("Kaplan buyer must decline once most <= standing_bid")
	}
}

// TestKaplanBuyerSnipesInEndgame exercises the third disjunct: outside the
// free-good and truth-telling spread bands, in the closing kaplanEndgameBuyer
// fraction of the period Kaplan takes most outright.
func TestKaplanBuyerSnipesInEndgame(t *testing.T) {
	t.Parallel()

	tr := newTestTrader(t, types.Buyer, types.Kaplan)
	cur, _ := tr.Endowment().Current()
	standingBid := decimal.Zero
	standingAsk := cur.Sub(decimal.NewFromInt(40))
	want := buyerMost(tr, standingAsk)

	amount, ok := tr.Quote(standingBid, standingAsk, 9, 10)
	if !ok {
		t.Fatal("expected Kaplan buyer to snipe in the closing round")
	}
	if !amount.Equal(want) {
		t.Errorf("Kaplan snipe amount = %v, want most = %v", amount, want)
	}
}

// TestKaplanBuyerFreeGoodTakesMostWhenSpreadNegligible exercises the first
// disjunct: a spread within kaplanFreeGood of current takes most outright,
// even mid-period.
func TestKaplanBuyerFreeGoodTakesMostWhenSpreadNegligible(t *testing.T) {
	t.Parallel()

	tr := newFixedTestTrader(t, types.Buyer, types.Kaplan, 100)
	standingAsk := decimal.NewFromInt(99)
	standingBid := decimal.NewFromInt(98)
	want := buyerMost(tr, standingAsk)

	amount, ok := tr.Quote(standingBid, standingAsk, 0, 10)
	if !ok {
		t.Fatal("expected Kaplan buyer to take the free good")
	}
	if !amount.Equal(want) {
		t.Errorf("Kaplan free-good amount = %v, want most = %v", amount, want)
	}
}

func TestKaplanBuyerDeclinesWhenUnprofitable(t *testing.T) {
	t.Parallel()

	// With every unit worth exactly 100, next_token-1 = 99; capping an ask
	// far below that still leaves most = standing_ask = 5, which the gate
	// rejects outright since standing_bid sits above it.
	tr := newFixedTestTrader(t, types.Buyer, types.Kaplan, 100)
	standingAsk := decimal.NewFromInt(5)
	standingBid := decimal.NewFromInt(10)

	_, ok := tr.Quote(standingBid, standingAsk, 9, 10)
	if ok {
		t.Fatal("Kaplan buyer must decline once most <= standing_bid")
	}
}

// TestSkeletonBuyerGateBlocksWhenMostBelowStandingBid mirrors Kaplan's gate:
// Skeleton must also decline once most <= standing_bid.
func TestSkeletonBuyerGateBlocksWhenMostBelowStandingBid(t *testing.T) {
	t.Parallel()

	tr := newTestTrader(t, types.Buyer, types.Skeleton)
	cur, _ := tr.Endowment().Current()
	next, ok := tr.Endowment().Peek(1)
	if !ok {
		t.Fatal("test endowment must have at least two units")
	}
	standingAsk := cur
	standingBid := next.Sub(decimal.NewFromInt(1))

	_, ok = tr.Quote(standingBid, standingAsk, 0, 10)
	if ok {
		t.Fatal("Skeleton buyer must decline once most <= standing_bid")
	}
}

// TestSkeletonBuyerRespectsCurrentValue checks every accepted quote stays
// within (standing_bid, current), the bounds the (1-alpha)(bid+1)+alpha*most
// formula is built to respect since most < current whenever the gate passes.
func TestSkeletonBuyerRespectsCurrentValue(t *testing.T) {
	t.Parallel()

	tr := newTestTrader(t, types.Buyer, types.Skeleton)
	cur, _ := tr.Endowment().Current()

	for i := 0; i < 20; i++ {
		amount, ok := tr.Quote(types.PriceFloor, types.PriceCeiling, 0, 10)
		if !ok {
			continue
		}
		if amount.GreaterThanOrEqual(cur) {
			t.Fatalf("Skeleton buy amount %v must stay below reservation value %v", amount, cur)
		}
	}
}

// TestRinguetteBuyerQuarterRoundNudgesBid pins the standing_bid <
// total_rounds/4 branch: with a standing bid below that threshold,
// Ringuette simply nudges it up by one, regardless of span or next_token.
func TestRinguetteBuyerQuarterRoundNudgesBid(t *testing.T) {
	t.Parallel()

	tr := newFixedTestTrader(t, types.Buyer, types.Ringuette, 100)
	standingBid := decimal.NewFromInt(5) // well below totalRounds/4 = 10
	standingAsk := decimal.NewFromInt(90)

	amount, ok := tr.Quote(standingBid, standingAsk, 0, 40)
	if !ok {
		t.Fatal("expected Ringuette buyer to nudge the standing bid")
	}
	want := standingBid.Add(decimal.NewFromInt(1))
	if !amount.Equal(want) {
		t.Errorf("Ringuette quarter-round amount = %v, want standing_bid+1 = %v", amount, want)
	}
}

// strategyTestTrader builds a trader with a hand-picked endowment schedule,
// bypassing buildEndowment's random draw so tests can pin exact next_token
// relationships that a randomly-drawn schedule can't reliably produce.
func strategyTestTrader(side types.Side, strategy types.Strategy, values ...int64) *Trader {
	vals := make([]decimal.Decimal, len(values))
	for i, v := range values {
		vals[i] = decimal.NewFromInt(v)
	}
	return &Trader{
		id:       "t",
		side:     side,
		strategy: strategy,
		endow:    &Endowment{values: vals},
		ledger:   newLedger(),
		rng:      rand.New(rand.NewSource(3)),
	}
}

// TestRinguetteBuyerSpanQuoteWithinBounds pins the second branch: once
// standing_bid > total_rounds/4, the spread exceeds span/5 and next_token
// clears the standing ask by more than span/5, the quote is
// standing_ask + 1 + 0.05*U(0,1)*span.
func TestRinguetteBuyerSpanQuoteWithinBounds(t *testing.T) {
	t.Parallel()

	tr := strategyTestTrader(types.Buyer, types.Ringuette, 100, 70, 40)
	span := ringuetteSpan(tr) // max(100) - min(40) + 10 = 70
	standingBid := decimal.NewFromInt(20)
	standingAsk := decimal.NewFromInt(40)

	// totalRounds/4 = 1, well below standingBid, so the quarter-round
	// branch is skipped; the spread (20) exceeds span/5 (14) and
	// next_token (70) > standingAsk + span/5 (54), which triggers the
	// span-scaled shout.
	amount, ok := tr.Quote(standingBid, standingAsk, 2, 4)
	if !ok {
		t.Fatal("expected Ringuette buyer to shout a span-scaled quote")
	}
	spanF, _ := span.Float64()
	lower := standingAsk.Add(decimal.NewFromInt(1))
	upper := standingAsk.Add(decimal.NewFromInt(1)).Add(decimal.NewFromFloat(0.05 * spanF))
	if amount.LessThan(lower) || amount.GreaterThan(upper) {
		t.Fatalf("Ringuette span quote %v out of [%v, %v]", amount, lower, upper)
	}
}

// TestPersistentShoutBuyerPotentialMatchesGammaBetaFormula pins
// potential = gamma*current + (1-gamma)*beta*(target-current), with
// target = standing_bid + r1*(standing_ask-standing_bid) on the
// standing_ask > standing_bid branch and r1 ~ U(0, 0.2). With a fixed
// reservation value of 100, target ranges over [bid, bid+0.2*(ask-bid)),
// which pins potential to a narrow, fully-computable band.
func TestPersistentShoutBuyerPotentialMatchesGammaBetaFormula(t *testing.T) {
	t.Parallel()

	tr := newFixedTestTrader(t, types.Buyer, types.PersistentShout, 100)
	standingBid := decimal.NewFromInt(40)
	standingAsk := decimal.NewFromInt(80)
	curF := 100.0
	bidF, askF := 40.0, 80.0

	targetLow, targetHigh := bidF, bidF+0.2*(askF-bidF)
	lowPotential := psBuyerGamma*curF + (1-psBuyerGamma)*psBuyerBeta*(targetLow-curF)
	highPotential := psBuyerGamma*curF + (1-psBuyerGamma)*psBuyerBeta*(targetHigh-curF)

	saw := 0
	for i := 0; i < 50; i++ {
		amount, ok := tr.Quote(standingBid, standingAsk, 0, 10)
		if !ok {
			continue
		}
		saw++
		amountF, _ := amount.Float64()
		if amountF < lowPotential-1e-9 || amountF > highPotential+1e-9 {
			t.Fatalf("PS buyer potential %v out of [%v, %v]", amountF, lowPotential, highPotential)
		}
	}
	if saw == 0 {
		t.Fatal("expected at least one accepted PS buyer quote across 50 draws")
	}
}

func TestDoneAfterAllUnitsContracted(t *testing.T) {
	t.Parallel()

	tr := newTestTrader(t, types.Buyer, types.ZeroIntelligence)
	n := tr.Endowment().NumUnits()
	for i := 0; i < n; i++ {
		cur, ok := tr.Endowment().Current()
		if !ok {
			t.Fatal("ran out of units early")
		}
		tr.OnContract(cur, true)
	}
	if !tr.Done() {
		t.Fatal("expected trader to be done after contracting every unit")
	}
}
