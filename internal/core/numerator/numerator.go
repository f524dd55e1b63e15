// Package numerator defines how documents get their human-readable numbers.
// Generators live in the infrastructure layer.
package numerator

import (
	"context"
	"fmt"
	"time"
)

// Generator issues sequential document numbers.
type Generator interface {
	// GetNextNumber returns the next number for cfg in the period of at,
	// e.g. ORD-2026-00001.
	GetNextNumber(ctx context.Context, cfg Config, opts *Options, at time.Time) (string, error)
}

// Strategy selects how sequence values are allocated.
type Strategy int

const (
	// StrategyStrict increments the stored counter for every number: no gaps.
	StrategyStrict Strategy = iota

	// StrategyCached reserves RangeSize values at once and hands them out
	// from memory. A restart leaves a gap.
	StrategyCached
)

// DefaultRangeSize is used by StrategyCached when Options.RangeSize is unset.
const DefaultRangeSize int64 = 50

// Options tunes allocation.
type Options struct {
	Strategy  Strategy
	RangeSize int64
}

// Reset periods.
const (
	ResetYearly  = "year"
	ResetMonthly = "month"
	ResetNever   = "never"
)

// Config is the format of one number sequence.
type Config struct {
	Prefix      string
	IncludeYear bool
	PadWidth    int
	ResetPeriod string
}

// DefaultConfig returns a yearly sequence PREFIX-YYYY-NNNNN.
func DefaultConfig(prefix string) Config {
	return Config{
		Prefix:      prefix,
		IncludeYear: true,
		PadWidth:    5,
		ResetPeriod: ResetYearly,
	}
}

// Key names the counter that serves at.
func (c Config) Key(at time.Time) string {
	switch c.ResetPeriod {
	case ResetMonthly:
		return c.Prefix + "_" + at.Format("2006_01")
	case ResetYearly:
		return c.Prefix + "_" + at.Format("2006")
	default:
		return c.Prefix
	}
}

// Format renders the n-th number of the sequence.
func (c Config) Format(at time.Time, n int64) string {
	width := c.PadWidth
	if width <= 0 {
		width = 5
	}
	if c.IncludeYear {
		return fmt.Sprintf("%s-%s-%0*d", c.Prefix, at.Format("2006"), width, n)
	}
	return fmt.Sprintf("%s-%0*d", c.Prefix, width, n)
}

// Scheme binds a sequence format to an allocation strategy.
type Scheme struct {
	Config  Config
	Options Options
}

var (
	// Orders are numbered from cached ranges; gaps are acceptable.
	Orders = Scheme{
		Config:  DefaultConfig("ORD"),
		Options: Options{Strategy: StrategyCached, RangeSize: 20},
	}
	// PurchaseOrders are numbered strictly.
	PurchaseOrders = Scheme{
		Config:  DefaultConfig("PO"),
		Options: Options{Strategy: StrategyStrict},
	}
)

// Next issues the next number of the scheme.
func (s Scheme) Next(ctx context.Context, g Generator, at time.Time) (string, error) {
	opts := s.Options
	return g.GetNextNumber(ctx, s.Config, &opts, at)
}
