package model

import "testing"

func TestMinimumBid(t *testing.T) {
	tests := []struct {
		current, want int64
	}{
		{0, 1},
		{1, 2},
		{10, 11},
		{20, 21},
		{1000, 1050},
		{1001, 1052},
		{5000, 5250},
	}
	for _, tt := range tests {
		if got := MinimumBid(tt.current); got != tt.want {
			t.Errorf("MinimumBid(%d) = %d, want %d", tt.current, got, tt.want)
		}
	}
}
