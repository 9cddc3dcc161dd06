package auction

import (
	"log/slog"
	"testing"

	"github.com/shopspring/decimal"

	"cda-sim/pkg/types"
)

// fakeTrader is a minimal Participant used only to exercise the
// institution's order/contract state machine directly, independent of the
// trader package's strategies.
type fakeTrader struct {
	id   string
	side types.Side
	got  []struct {
		price decimal.Decimal
		mine  bool
	}
}

func (f *fakeTrader) ID() string        { return f.id }
func (f *fakeTrader) Side() types.Side  { return f.side }
func (f *fakeTrader) OnContract(price decimal.Decimal, mine bool) {
	f.got = append(f.got, struct {
		price decimal.Decimal
		mine  bool
	}{price, mine})
}

func dec(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

// TestNoCrossRejection mirrors scenario S1: a buyer valuing a unit at 100
// and a seller costing 50 submit offers that don't cross the seed standing
// and are rejected, then improve the standing, then cross into a contract
// at the resting seller's price.
func TestNoCrossRejection(t *testing.T) {
	t.Parallel()

	inst := New("market", slog.Default())
	buyer := &fakeTrader{id: "buyer", side: types.Buyer}
	seller := &fakeTrader{id: "seller", side: types.Seller}
	inst.Register(buyer)
	inst.Register(seller)

	// Seller asks at the ceiling: rejected (doesn't improve the seed ask).
	res, err := inst.Order("seller", types.KindAsk, dec(999))
	if err != nil {
		t.Fatalf("ask 999: %v", err)
	}
	if res.Action != types.ActionRejected {
		t.Errorf("ask 999 action = %v, want rejected", res.Action)
	}

	// Buyer bids at the floor: rejected (doesn't improve the seed bid).
	res, err = inst.Order("buyer", types.KindBid, dec(0))
	if err != nil {
		t.Fatalf("bid 0: %v", err)
	}
	if res.Action != types.ActionRejected {
		t.Errorf("bid 0 action = %v, want rejected", res.Action)
	}

	// Seller asks 200: becomes standing ask.
	res, err = inst.Order("seller", types.KindAsk, dec(200))
	if err != nil {
		t.Fatalf("ask 200: %v", err)
	}
	if res.Action != types.ActionStanding {
		t.Errorf("ask 200 action = %v, want standing", res.Action)
	}

	// Buyer bids 50: becomes standing bid (improves 0, doesn't cross 200).
	res, err = inst.Order("buyer", types.KindBid, dec(50))
	if err != nil {
		t.Fatalf("bid 50: %v", err)
	}
	if res.Action != types.ActionStanding {
		t.Errorf("bid 50 action = %v, want standing", res.Action)
	}

	// Buyer bids 250: crosses the standing ask of 200, contract at 200.
	res, err = inst.Order("buyer", types.KindBid, dec(250))
	if err != nil {
		t.Fatalf("bid 250: %v", err)
	}
	if res.Action != types.ActionContract {
		t.Fatalf("bid 250 action = %v, want contract", res.Action)
	}
	if res.Contract == nil || !res.Contract.Price.Equal(dec(200)) {
		t.Fatalf("contract price = %v, want 200", res.Contract)
	}
}

// TestSeedSideRejection covers the resolved open question: a crossing
// whose resting counterparty is still the market's own seed standing must
// be rejected, not recorded as a contract against the market itself.
func TestSeedSideRejection(t *testing.T) {
	t.Parallel()

	inst := New("market", slog.Default())
	buyer := &fakeTrader{id: "buyer", side: types.Buyer}
	inst.Register(buyer)

	// Seed ask is 999; a bid of 999 or more would "cross" it, but the
	// resting side is still the market seed, so this must be rejected.
	res, err := inst.Order("buyer", types.KindBid, dec(999))
	if err != nil {
		t.Fatalf("bid 999: %v", err)
	}
	if res.Action != types.ActionRejected {
		t.Errorf("action = %v, want rejected (seed-side crossing)", res.Action)
	}
	if len(inst.Contracts()) != 0 {
		t.Errorf("expected no contracts, got %d", len(inst.Contracts()))
	}
}

// TestNotificationFanOut covers scenario S5: every registered participant
// observes a contract's price, but only the two parties see mine=true.
func TestNotificationFanOut(t *testing.T) {
	t.Parallel()

	inst := New("market", slog.Default())
	b1 := &fakeTrader{id: "b1", side: types.Buyer}
	b2 := &fakeTrader{id: "b2", side: types.Buyer}
	b3 := &fakeTrader{id: "b3", side: types.Buyer}
	s1 := &fakeTrader{id: "s1", side: types.Seller}
	s2 := &fakeTrader{id: "s2", side: types.Seller}
	s3 := &fakeTrader{id: "s3", side: types.Seller}
	for _, p := range []*fakeTrader{b1, b2, b3, s1, s2, s3} {
		inst.Register(p)
	}

	if _, err := inst.Order("s1", types.KindAsk, dec(100)); err != nil {
		t.Fatalf("ask: %v", err)
	}
	res, err := inst.Order("b1", types.KindBid, dec(150))
	if err != nil {
		t.Fatalf("bid: %v", err)
	}
	if res.Action != types.ActionContract {
		t.Fatalf("action = %v, want contract", res.Action)
	}

	for _, p := range []*fakeTrader{b1, b2, b3, s1, s2, s3} {
		if len(p.got) != 1 {
			t.Fatalf("%s observed %d contracts, want 1", p.id, len(p.got))
		}
	}
	if !b1.got[0].mine || !s1.got[0].mine {
		t.Error("b1 and s1 should see mine=true")
	}
	if b2.got[0].mine || b3.got[0].mine || s2.got[0].mine || s3.got[0].mine {
		t.Error("non-parties should see mine=false")
	}
}

func TestUnknownTraderRejected(t *testing.T) {
	t.Parallel()

	inst := New("market", slog.Default())
	res, err := inst.Order("ghost", types.KindBid, dec(10))
	if err != nil {
		t.Fatalf("order from unregistered trader: %v", err)
	}
	if res.Action != types.ActionRejected {
		t.Fatalf("action = %v, want rejected for unregistered trader", res.Action)
	}
}

func TestWrongSideRejected(t *testing.T) {
	t.Parallel()

	inst := New("market", slog.Default())
	seller := &fakeTrader{id: "seller", side: types.Seller}
	inst.Register(seller)

	res, err := inst.Order("seller", types.KindBid, dec(10))
	if err != nil {
		t.Fatalf("bid from seller: %v", err)
	}
	if res.Action != types.ActionRejected {
		t.Fatalf("action = %v, want rejected when a seller submits a bid", res.Action)
	}
}

func TestBookIsAppendOnly(t *testing.T) {
	t.Parallel()

	inst := New("market", slog.Default())
	buyer := &fakeTrader{id: "buyer", side: types.Buyer}
	inst.Register(buyer)

	before := inst.Book().Len()
	if _, err := inst.Order("buyer", types.KindBid, dec(10)); err != nil {
		t.Fatalf("bid: %v", err)
	}
	after := inst.Book().Len()
	if after != before+1 {
		t.Errorf("book length = %d, want %d", after, before+1)
	}
}
