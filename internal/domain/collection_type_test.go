package domain

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestParseCollectionType(t *testing.T) {
	tests := []struct {
		in      string
		want    CollectionType
		wantErr bool
	}{
		{"daily", CollectionTypeDaily, false},
		{"Weekly", CollectionTypeWeekly, false},
		{" monthly ", CollectionTypeMonthly, false},
		{"FIRE", CollectionTypeFire, false},
		{"yearly", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseCollectionType(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseCollectionType(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseCollectionType(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestCycleLength(t *testing.T) {
	tests := []struct {
		name     string
		ct       CollectionType
		duration int32
		want     int
	}{
		{"daily", CollectionTypeDaily, 100, 1},
		{"weekly ignores duration", CollectionTypeWeekly, 3, 7},
		{"monthly ignores duration", CollectionTypeMonthly, 12, 30},
		{"fire uses duration", CollectionTypeFire, 15, 15},
		{"fire minimum one day", CollectionTypeFire, 0, 1},
		{"unknown", CollectionType("x"), 5, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.ct.CycleLength(tt.duration); got != tt.want {
				t.Errorf("CycleLength(%d) = %d, want %d", tt.duration, got, tt.want)
			}
		})
	}
}

func TestTermDays(t *testing.T) {
	if got := CollectionTypeDaily.TermDays(30); got != 100 {
		t.Errorf("daily term = %d, want 100", got)
	}
	if got := CollectionTypeWeekly.TermDays(12); got != 70 {
		t.Errorf("weekly term = %d, want 70", got)
	}
	if got := CollectionTypeMonthly.TermDays(90); got != 90 {
		t.Errorf("monthly term = %d, want 90", got)
	}
	if got := CollectionTypeFire.TermDays(10); got != 10 {
		t.Errorf("fire term = %d, want 10", got)
	}
}

func TestCycleTableDefaults(t *testing.T) {
	p, ok := CollectionTypeDaily.Params()
	if !ok || p.DefaultDuration != 100 || p.DefaultInterestRate.String() != "0.000001" {
		t.Errorf("unexpected daily params %+v", p)
	}
	p, _ = CollectionTypeWeekly.Params()
	if p.DefaultDuration != 10 || !p.DefaultInterestRate.Equal(decimal.NewFromInt(20)) {
		t.Errorf("unexpected weekly params %+v", p)
	}
	if CollectionTypeDaily.IsInterestOnly() || CollectionTypeWeekly.IsInterestOnly() {
		t.Error("daily and weekly must amortize principal")
	}
	if !CollectionTypeMonthly.IsInterestOnly() || !CollectionTypeFire.IsInterestOnly() {
		t.Error("monthly and fire must be interest only")
	}
}

func TestParsePaymentMode(t *testing.T) {
	if m, err := ParsePaymentMode(""); err != nil || m != PaymentModeRegular {
		t.Errorf("empty mode = %q, %v", m, err)
	}
	if m, err := ParsePaymentMode("Close"); err != nil || m != PaymentModeClose {
		t.Errorf("close mode = %q, %v", m, err)
	}
	if _, err := ParsePaymentMode("partial"); err != ErrInvalidPaymentMode {
		t.Errorf("expected ErrInvalidPaymentMode, got %v", err)
	}
}
