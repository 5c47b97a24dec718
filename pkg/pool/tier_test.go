package pool

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSelectTier(t *testing.T) {
	tests := []struct {
		name     string
		capacity int
		want     int
	}{
		{"smallest request", 1, 0},
		{"below first threshold", 10, 0},
		{"exactly first threshold", 256, 0},
		{"just above first threshold", 257, 1},
		{"exactly second threshold", 1024, 1},
		{"between third and fourth", 5000, 3},
		{"exactly last threshold", 16384, 3},
		{"above last threshold", 1 << 20, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SelectTier(scenarioTiers, tt.capacity))
		})
	}
}

func TestSelectTierSingleTier(t *testing.T) {
	tiers := []int{128}
	assert.Equal(t, 0, SelectTier(tiers, 1))
	assert.Equal(t, 0, SelectTier(tiers, 128))
	assert.Equal(t, 0, SelectTier(tiers, 4096))
}

func TestSelectTierIsMonotonic(t *testing.T) {
	prev := SelectTier(scenarioTiers, 1)
	for c := 2; c <= 20000; c++ {
		got := SelectTier(scenarioTiers, c)
		if got < prev {
			t.Fatalf("tier for %d is %d, below tier %d for %d", c, got, prev, c-1)
		}
		if got < len(scenarioTiers)-1 && scenarioTiers[got] < c {
			t.Fatalf("tier %d threshold %d does not cover %d", got, scenarioTiers[got], c)
		}
		prev = got
	}
}
