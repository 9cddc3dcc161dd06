package trader

import (
	"math/rand"

	"github.com/shopspring/decimal"

	"cda-sim/pkg/types"
)

// strategyFuncs pairs a strategy's buyer and seller quoting functions. Each
// returns (amount, true) to submit an offer this round, or (_, false) to
// sit out — mirroring the original Python strategies returning None when
// they decline to act.
type strategyFuncs struct {
	buy  func(t *Trader, current, standingBid, standingAsk decimal.Decimal, round, totalRounds int) (decimal.Decimal, bool)
	sell func(t *Trader, current, standingBid, standingAsk decimal.Decimal, round, totalRounds int) (decimal.Decimal, bool)
}

var strategyTable = map[types.Strategy]strategyFuncs{
	types.ZeroIntelligence: {buy: ziBuy, sell: ziSell},
	types.Kaplan:           {buy: kaplanBuy, sell: kaplanSell},
	types.Ringuette:        {buy: ringuetteBuy, sell: ringuetteSell},
	types.PersistentShout:  {buy: psBuy, sell: psSell},
	types.Skeleton:         {buy: skeletonBuy, sell: skeletonSell},
}

// timeFrac returns how far through the period the market is, in [0, 1).
func timeFrac(round, totalRounds int) float64 {
	if totalRounds <= 0 {
		return 0
	}
	return float64(round) / float64(totalRounds)
}

func randBetween(rng *rand.Rand, lo, hi decimal.Decimal) decimal.Decimal {
	loF, _ := lo.Float64()
	hiF, _ := hi.Float64()
	if hiF <= loF {
		return lo
	}
	return decimal.NewFromFloat(loF + rng.Float64()*(hiF-loF))
}

// --- Zero Intelligence: bid/ask anywhere between the standing price and
// the trader's own reservation value/cost, with no regard for profit
// maximization beyond not crossing its own endowment.

func ziBuy(t *Trader, current, standingBid, standingAsk decimal.Decimal, round, totalRounds int) (decimal.Decimal, bool) {
	if standingBid.GreaterThanOrEqual(current) {
		return decimal.Zero, false
	}
	lo := int64(standingBid.IntPart())
	hi := int64(current.IntPart())
	if hi <= lo {
		return decimal.Zero, false
	}
	v := lo + t.rng.Int63n(hi-lo+1)
	return decimal.NewFromInt(v), true
}

func ziSell(t *Trader, current, standingBid, standingAsk decimal.Decimal, round, totalRounds int) (decimal.Decimal, bool) {
	if current.GreaterThanOrEqual(standingAsk) {
		return decimal.Zero, false
	}
	lo := int64(current.IntPart())
	hi := int64(standingAsk.IntPart())
	if hi <= lo {
		return decimal.Zero, false
	}
	v := lo + t.rng.Int63n(hi-lo+1)
	return decimal.NewFromInt(v), true
}

// --- Kaplan: a sniper, gated by next_token — the reservation value/cost of
// the trader's NEXT unit, one ahead of the one currently being quoted. A
// buyer can never rationally clear above most = min(standing_ask,
// next_token-1): anything above that leaves no room to also clear its next
// unit profitably against the same ask. most <= standing_bid means no
// profitable quote exists at all this round. Once past the gate, Kaplan
// picks one of three actions: take a free good when the spread is already
// negligible, nudge the standing price when the spread is merely tight, or
// snipe outright in the closing stretch of the period.

const (
	kaplanFreeGood      = 0.02
	kaplanTruthTelling  = 0.10
	kaplanEndgameBuyer  = 0.10
	kaplanEndgameSeller = 0.20
)

// buyerMost computes Kaplan/Skeleton's buyer-side ceiling: the lesser of
// the standing ask and next_token-1, falling back to the endowment's worst
// remaining unit once there is no next unit to peek at.
func buyerMost(t *Trader, standingAsk decimal.Decimal) decimal.Decimal {
	next, ok := t.endow.Peek(1)
	if !ok {
		next = t.endow.Last()
	}
	most := next.Sub(decimal.NewFromInt(1))
	if standingAsk.LessThan(most) {
		most = standingAsk
	}
	return most
}

// sellerLeast is buyerMost's mirror: the greater of the standing bid and
// next_token+1.
func sellerLeast(t *Trader, standingBid decimal.Decimal) decimal.Decimal {
	next, ok := t.endow.Peek(1)
	if !ok {
		next = t.endow.Last()
	}
	least := next.Add(decimal.NewFromInt(1))
	if standingBid.GreaterThan(least) {
		least = standingBid
	}
	return least
}

func kaplanBuy(t *Trader, current, standingBid, standingAsk decimal.Decimal, round, totalRounds int) (decimal.Decimal, bool) {
	most := buyerMost(t, standingAsk)
	if most.LessThanOrEqual(standingBid) {
		return decimal.Zero, false
	}
	curF, _ := current.Float64()
	bidF, _ := standingBid.Float64()
	askF, _ := standingAsk.Float64()
	spread := askF - bidF

	switch {
	case spread <= kaplanFreeGood*curF:
		return most, true
	case spread <= kaplanTruthTelling*curF:
		target := standingBid.Add(decimal.NewFromInt(1))
		if target.GreaterThan(most) {
			target = most
		}
		return target, true
	case timeFrac(round, totalRounds) >= 1-kaplanEndgameBuyer:
		return most, true
	default:
		return decimal.Zero, false
	}
}

func kaplanSell(t *Trader, current, standingBid, standingAsk decimal.Decimal, round, totalRounds int) (decimal.Decimal, bool) {
	least := sellerLeast(t, standingBid)
	if least.GreaterThanOrEqual(standingAsk) {
		return decimal.Zero, false
	}
	curF, _ := current.Float64()
	bidF, _ := standingBid.Float64()
	askF, _ := standingAsk.Float64()
	spread := askF - bidF

	switch {
	case spread <= kaplanFreeGood*curF:
		return least, true
	case spread <= kaplanTruthTelling*curF:
		target := standingAsk.Sub(decimal.NewFromInt(1))
		if target.LessThan(least) {
			target = least
		}
		return target, true
	case timeFrac(round, totalRounds) >= 1-kaplanEndgameSeller:
		return least, true
	default:
		return decimal.Zero, false
	}
}

// --- Ringuette: span is computed over the trader's OWN endowment schedule
// (max - min + 10), not the market's bid-ask spread. Early in the period it
// either nudges the standing price by one unit or, once the spread and
// next_token both show headroom beyond span/5, shouts a randomized quote
// scaled by that span just past the opposite standing price. In the closing
// 10% of the period it delegates entirely to Skeleton.

// ringuetteSpan is max - min + 10 over the trader's own reservation
// values/costs, regardless of sort direction.
func ringuetteSpan(t *Trader) decimal.Decimal {
	return t.endow.First().Sub(t.endow.Last()).Abs().Add(decimal.NewFromInt(10))
}

func ringuetteBuy(t *Trader, current, standingBid, standingAsk decimal.Decimal, round, totalRounds int) (decimal.Decimal, bool) {
	if timeFrac(round, totalRounds) >= 0.9 {
		return skeletonBuy(t, current, standingBid, standingAsk, round, totalRounds)
	}
	quarter := decimal.NewFromFloat(float64(totalRounds) / 4)
	if standingBid.LessThan(quarter) {
		target := standingBid.Add(decimal.NewFromInt(1))
		if target.LessThan(current) {
			return target, true
		}
		return decimal.Zero, false
	}

	next, ok := t.endow.Peek(1)
	if !ok {
		return decimal.Zero, false
	}
	span := ringuetteSpan(t)
	fifth := span.Div(decimal.NewFromInt(5))
	if standingBid.GreaterThan(quarter) && standingAsk.Sub(standingBid).GreaterThan(fifth) &&
		next.GreaterThan(standingAsk.Add(fifth)) {
		spanF, _ := span.Float64()
		askF, _ := standingAsk.Float64()
		quote := askF + 1 + 0.05*t.rng.Float64()*spanF
		amount := decimal.NewFromFloat(quote)
		if amount.GreaterThan(types.PriceFloor) && amount.LessThan(current) {
			return amount, true
		}
	}
	return decimal.Zero, false
}

func ringuetteSell(t *Trader, current, standingBid, standingAsk decimal.Decimal, round, totalRounds int) (decimal.Decimal, bool) {
	if timeFrac(round, totalRounds) >= 0.9 {
		return skeletonSell(t, current, standingBid, standingAsk, round, totalRounds)
	}
	quarter := decimal.NewFromFloat(float64(totalRounds) / 4)
	if standingAsk.GreaterThan(quarter) {
		target := standingAsk.Sub(decimal.NewFromInt(1))
		if target.GreaterThan(current) {
			return target, true
		}
		return decimal.Zero, false
	}

	next, ok := t.endow.Peek(1)
	if !ok {
		return decimal.Zero, false
	}
	span := ringuetteSpan(t)
	fifth := span.Div(decimal.NewFromInt(5))
	if standingAsk.LessThan(quarter) && standingAsk.Sub(standingBid).GreaterThan(fifth) &&
		next.LessThan(standingBid.Sub(fifth)) {
		spanF, _ := span.Float64()
		bidF, _ := standingBid.Float64()
		quote := bidF - 1 - 0.05*t.rng.Float64()*spanF
		amount := decimal.NewFromFloat(quote)
		if amount.LessThan(types.PriceCeiling) && amount.GreaterThan(current) {
			return amount, true
		}
	}
	return decimal.Zero, false
}

// --- Persistent Shout: draws r1, r2 ~ U(0, 0.2) each round, picks a target
// by whether the market is still crossed-apart (standing_ask > standing_bid)
// or has converged, then weighs that target against the trader's own
// reservation value/cost by gamma/beta into a potential quote. It only
// shouts when the potential is still on the profitable side of current.
// Buyers and sellers use asymmetric gamma/beta.

const (
	psBuyerGamma  = 0.5
	psBuyerBeta   = 0.1
	psSellerGamma = 0.3
	psSellerBeta  = 0.05
)

func psBuy(t *Trader, current, standingBid, standingAsk decimal.Decimal, round, totalRounds int) (decimal.Decimal, bool) {
	r1 := 0.2 * t.rng.Float64()
	r2 := 0.2 * t.rng.Float64()
	curF, _ := current.Float64()
	bidF, _ := standingBid.Float64()
	askF, _ := standingAsk.Float64()

	var target float64
	if standingAsk.GreaterThan(standingBid) {
		target = bidF + r1*(askF-bidF)
	} else {
		target = bidF + r2*(askF-bidF)
	}
	potential := psBuyerGamma*curF + (1-psBuyerGamma)*psBuyerBeta*(target-curF)
	if potential > curF {
		return decimal.Zero, false
	}
	amount := decimal.NewFromFloat(potential)
	if amount.GreaterThan(standingBid) && amount.LessThan(current) {
		return amount, true
	}
	return decimal.Zero, false
}

func psSell(t *Trader, current, standingBid, standingAsk decimal.Decimal, round, totalRounds int) (decimal.Decimal, bool) {
	r1 := 0.2 * t.rng.Float64()
	r2 := 0.2 * t.rng.Float64()
	curF, _ := current.Float64()
	bidF, _ := standingBid.Float64()
	askF, _ := standingAsk.Float64()

	var target float64
	if standingAsk.GreaterThan(standingBid) {
		target = askF - r1*(askF-bidF)
	} else {
		target = askF - r2*(askF-bidF)
	}
	potential := psSellerGamma*curF + (1-psSellerGamma)*psSellerBeta*(target-curF)
	if potential < curF {
		return decimal.Zero, false
	}
	amount := decimal.NewFromFloat(potential)
	if amount.LessThan(standingAsk) && amount.GreaterThan(current) {
		return amount, true
	}
	return decimal.Zero, false
}

// --- Skeleton: gated by the same next_token-derived most/least bound as
// Kaplan (most <= standing_bid, or least >= standing_ask, means no
// profitable quote exists this round); when a quote is possible it shades
// between the standing price and that bound by a random alpha, rather than
// sniping it outright the way Kaplan does. While the book still sits at its
// seed standing, the bound is next_token-1 (next_token+1 for sellers), so
// the trader's own next unit anchors the quote; on the last unit, next_token
// falls back to the endowment's worst unit (see buyerMost/sellerLeast).

func skeletonAlpha(rng *rand.Rand) float64 {
	return 0.25 + 0.1*rng.Float64()
}

func skeletonBuy(t *Trader, current, standingBid, standingAsk decimal.Decimal, round, totalRounds int) (decimal.Decimal, bool) {
	most := buyerMost(t, standingAsk)
	if most.LessThanOrEqual(standingBid) {
		return decimal.Zero, false
	}
	alpha := skeletonAlpha(t.rng)
	mostF, _ := most.Float64()
	bidF, _ := standingBid.Float64()
	target := (1-alpha)*(bidF+1) + alpha*mostF
	amount := decimal.NewFromFloat(target)
	if amount.GreaterThan(standingBid) && amount.LessThan(current) {
		return amount, true
	}
	return decimal.Zero, false
}

func skeletonSell(t *Trader, current, standingBid, standingAsk decimal.Decimal, round, totalRounds int) (decimal.Decimal, bool) {
	least := sellerLeast(t, standingBid)
	if least.GreaterThanOrEqual(standingAsk) {
		return decimal.Zero, false
	}
	alpha := skeletonAlpha(t.rng)
	leastF, _ := least.Float64()
	askF, _ := standingAsk.Float64()
	target := (1-alpha)*(askF-1) + alpha*leastF
	amount := decimal.NewFromFloat(target)
	if amount.LessThan(standingAsk) && amount.GreaterThan(current) {
		return amount, true
	}
	return decimal.Zero, false
}
