package pricelist

import (
	"testing"
	"time"

	"github.com/xraph/rating/types"
)

func TestPrefixCandidates(t *testing.T) {
	tests := []struct {
		name        string
		destination string
		want        []string
	}{
		{"Empty", "", nil},
		{"Single digit", "3", []string{"3"}},
		{"Short number", "392", []string{"3", "39", "392"}},
		{"Capped at nine", "393331234567", []string{
			"3", "39", "393", "3933", "39333", "393331", "3933312", "39333123", "393331234",
		}},
		{"Exactly nine", "123456789", []string{
			"1", "12", "123", "1234", "12345", "123456", "1234567", "12345678", "123456789",
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := PrefixCandidates(tt.destination)
			if len(got) != len(tt.want) {
				t.Fatalf("got %d candidates %v, want %d %v", len(got), got, len(tt.want), tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("candidate[%d]: got %q, want %q", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestRateCost(t *testing.T) {
	tests := []struct {
		name     string
		rate     Rate
		duration time.Duration
		want     types.Money
	}{
		{
			"Per-minute billing",
			Rate{ConnectFee: 10, Rate: 90, RateIncrement: 60},
			90 * time.Second,
			types.EUR(10 + 2*90),
		},
		{
			"Exact increment boundary",
			Rate{ConnectFee: 0, Rate: 90, RateIncrement: 60},
			120 * time.Second,
			types.EUR(180),
		},
		{
			"Interval start minimum",
			Rate{ConnectFee: 5, Rate: 2, RateIncrement: 1, IntervalStart: 30},
			3 * time.Second,
			types.EUR(5 + 30*2),
		},
		{
			"Zero duration still pays connect fee",
			Rate{ConnectFee: 15, Rate: 100, RateIncrement: 60},
			0,
			types.EUR(15),
		},
		{
			"Zero increment bills per second",
			Rate{ConnectFee: 0, Rate: 3, RateIncrement: 0},
			10 * time.Second,
			types.EUR(30),
		},
		{
			"Sub-second rounds up",
			Rate{ConnectFee: 0, Rate: 7, RateIncrement: 1},
			1500 * time.Millisecond,
			types.EUR(14),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.rate.Cost(tt.duration, "eur")
			if !got.Equal(tt.want) {
				t.Errorf("Cost: got %v, want %v", got, tt.want)
			}
		})
	}
}
