package types

import (
	"math"
	"testing"
)

func TestSplitFee(t *testing.T) {
	tests := []struct {
		name    string
		amount  uint64
		rate    uint32
		wantFee uint64
		wantNet uint64
	}{
		{"zero rate", 1000, 0, 0, 1000},
		{"zero amount", 0, 100, 0, 0},
		{"one percent", 1000, 100, 10, 990},
		{"half percent", 1000, 50, 5, 995},
		{"floors fractional fee", 199, 50, 0, 199},
		{"floors just under", 9999, 1, 0, 9999},
		{"exact single unit", 10000, 1, 1, 9999},
		{"max uint64", math.MaxUint64, 100, math.MaxUint64 / 100, math.MaxUint64 - math.MaxUint64/100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fee, net := SplitFee(tt.amount, tt.rate)
			if fee != tt.wantFee {
				t.Errorf("fee: got %d, want %d", fee, tt.wantFee)
			}
			if net != tt.wantNet {
				t.Errorf("net: got %d, want %d", net, tt.wantNet)
			}
		})
	}
}

func TestSplitFeeConservation(t *testing.T) {
	amounts := []uint64{0, 1, 7, 99, 100, 101, 999, 1000, 12345, 1_000_000, 987_654_321, math.MaxUint64}
	for rate := uint32(0); rate <= MaxFeeRateBps; rate++ {
		for _, amount := range amounts {
			fee, net := SplitFee(amount, rate)
			if fee+net != amount {
				t.Fatalf("SplitFee(%d, %d): fee %d + net %d != amount", amount, rate, fee, net)
			}
			if fee > amount {
				t.Fatalf("SplitFee(%d, %d): fee %d exceeds amount", amount, rate, fee)
			}
		}
	}
}

func TestAddChecked(t *testing.T) {
	if sum, ok := AddChecked(1, 2); !ok || sum != 3 {
		t.Errorf("AddChecked(1, 2) = %d, %v", sum, ok)
	}
	if _, ok := AddChecked(math.MaxUint64, 1); ok {
		t.Error("expected overflow")
	}
}

func TestFormatUnits(t *testing.T) {
	tests := []struct {
		amount   uint64
		decimals int32
		want     string
	}{
		{1500000, 6, "1.500000"},
		{990, 0, "990"},
		{5, 2, "0.05"},
		{0, 6, "0.000000"},
	}

	for _, tt := range tests {
		if got := FormatUnits(tt.amount, tt.decimals); got != tt.want {
			t.Errorf("FormatUnits(%d, %d) = %q, want %q", tt.amount, tt.decimals, got, tt.want)
		}
	}
}

func TestParseUnits(t *testing.T) {
	got, err := ParseUnits("1.5", 6)
	if err != nil {
		t.Fatalf("ParseUnits failed: %v", err)
	}
	if got != 1500000 {
		t.Errorf("got %d, want 1500000", got)
	}

	got, err = ParseUnits("0.0000019", 6)
	if err != nil {
		t.Fatalf("ParseUnits failed: %v", err)
	}
	if got != 1 {
		t.Errorf("expected truncation to 1, got %d", got)
	}

	if _, err := ParseUnits("-1", 6); err == nil {
		t.Error("expected error for negative amount")
	}
	if _, err := ParseUnits("not-a-number", 6); err == nil {
		t.Error("expected parse error")
	}
	if _, err := ParseUnits("99999999999999999999999", 0); err == nil {
		t.Error("expected overflow error")
	}
}

func TestPrincipal(t *testing.T) {
	if !BurnPrincipal.IsBurn() {
		t.Error("BurnPrincipal should report IsBurn")
	}
	if Principal("ST3RECIP").IsBurn() {
		t.Error("ordinary principal reported as burn")
	}
	if !Principal("  ").IsZero() {
		t.Error("blank principal should be zero")
	}
	if !NativeAsset.IsNative() {
		t.Error("NativeAsset should report IsNative")
	}
	if AssetID("ST2TOKEN").IsNative() {
		t.Error("token reported as native")
	}
}
