// Package types defines shared data structures used across all packages.
//
// This is the common vocabulary for the simulator — sides, strategies,
// offers, and contracts. It has no dependencies on internal packages, so
// it can be imported by any layer.
package types

import "github.com/shopspring/decimal"

// Side represents which side of the market a trader operates on.
type Side string

const (
	Buyer  Side = "B"
	Seller Side = "S"
)

// Strategy enumerates the five polymorphic bidding policies.
type Strategy string

const (
	ZeroIntelligence Strategy = "Zero Intelligence"
	Kaplan           Strategy = "Kaplan"
	Ringuette        Strategy = "Ringuette"
	PersistentShout  Strategy = "Persistent Shout"
	Skeleton         Strategy = "Skeleton"
)

// PriceCeiling and PriceFloor bound all valid endowment draws and seed the
// book's standing bid/ask at the start of every period.
var (
	PriceCeiling = decimal.NewFromInt(999)
	PriceFloor   = decimal.NewFromInt(0)
)

// Action classifies how the institution resolved a submitted offer.
type Action string

const (
	ActionStart    Action = "start"
	ActionStanding Action = "standing"
	ActionContract Action = "contract"
	ActionRejected Action = "rejected"
)

// Kind distinguishes a bid from an ask within a single Offer.
type Kind string

const (
	KindBid Kind = "bid"
	KindAsk Kind = "ask"
)

// Offer is a single submission appended to the limit-order book, immutable
// once recorded. Offers the institution rejects before any price comparison
// (never registered, wrong side) are recorded with the amount as submitted.
type Offer struct {
	Seq    int
	ID     string
	Kind   Kind
	Amount decimal.Decimal
	Action Action
}

// Contract is a settled trade: price is the resting side's quote at the
// moment of crossing (price-at-standing rule).
type Contract struct {
	Price    decimal.Decimal
	BuyerID  string
	SellerID string
}

// ParticipantConfig describes one trader to be built by the environment.
type ParticipantConfig struct {
	ID        string   `mapstructure:"id" validate:"required"`
	Name      string   `mapstructure:"name" validate:"required"`
	Side      Side     `mapstructure:"side" validate:"required,oneof=B S"`
	Strategy  Strategy `mapstructure:"strategy" validate:"required,oneof='Zero Intelligence' Kaplan Ringuette 'Persistent Shout' Skeleton"`
	NumUnits  int      `mapstructure:"num_units" validate:"required,gte=1"`
	MinValue  int      `mapstructure:"min_value" validate:"gte=0"`
	MaxValue  int      `mapstructure:"max_value" validate:"gtefield=MinValue"`
}

// MarketConfig is the producer boundary: a config loader (internal/config's
// YAML loader in this module) builds one of these and hands it to the
// environment.
type MarketConfig struct {
	MarketName   string              `mapstructure:"market_name" validate:"required"`
	NumBuyers    int                 `mapstructure:"num_buyers" validate:"gte=0"`
	NumSellers   int                 `mapstructure:"num_sellers" validate:"gte=0"`
	Participants []ParticipantConfig `mapstructure:"participants" validate:"required,dive"`
	Message      string              `mapstructure:"message"`
}

// TournamentConfig controls a multi-replication run.
type TournamentConfig struct {
	Market      MarketConfig `mapstructure:"market" validate:"required"`
	Replications int         `mapstructure:"replications" validate:"required,gte=1"`
	SimPeriod    int         `mapstructure:"sim_period" validate:"required,gte=1"`
	RootSeed     int64       `mapstructure:"root_seed"`
}
