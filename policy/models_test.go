package policy

import (
	"errors"
	"testing"

	"github.com/xraph/custody/types"
)

func TestDefault(t *testing.T) {
	p := Default("ST1OWNER")
	if err := p.Validate(); err != nil {
		t.Fatalf("default policy invalid: %v", err)
	}
	if p.MinDeposit != 100 || p.MaxWithdraw != 1_000_000 || p.MaxHistory != 500 || p.MaxDeposits != 1000 {
		t.Errorf("unexpected defaults: %+v", p)
	}
	if p.Paused || p.FeeRateBps != 0 || p.NextHistoryID != 0 {
		t.Errorf("unexpected initial state: %+v", p)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name  string
		mod   func(*Policy)
		field string
	}{
		{"empty owner", func(p *Policy) { p.Owner = "" }, "owner"},
		{"burn owner", func(p *Policy) { p.Owner = types.BurnPrincipal }, "owner"},
		{"fee too high", func(p *Policy) { p.FeeRateBps = 101 }, "fee_rate_bps"},
		{"zero min deposit", func(p *Policy) { p.MinDeposit = 0 }, "min_deposit"},
		{"zero max withdraw", func(p *Policy) { p.MaxWithdraw = 0 }, "max_withdraw"},
		{"zero max history", func(p *Policy) { p.MaxHistory = 0 }, "max_history"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := Default("ST1OWNER")
			tt.mod(p)
			err := p.Validate()
			var invalid *InvalidError
			if !errors.As(err, &invalid) {
				t.Fatalf("expected InvalidError, got %v", err)
			}
			if invalid.Field != tt.field {
				t.Errorf("field: got %q, want %q", invalid.Field, tt.field)
			}
		})
	}
}

func TestClone(t *testing.T) {
	p := Default("ST1OWNER")
	c := p.Clone()
	c.FeeRateBps = 50
	if p.FeeRateBps != 0 {
		t.Error("mutating clone changed original")
	}
}
