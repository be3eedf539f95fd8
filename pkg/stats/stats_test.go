package stats

import (
	"math"
	"testing"
	"time"
)

func TestSaturatingAddClampsAtMax(t *testing.T) {
	var c Counters
	c.RxPackets = math.MaxUint64 - 1
	c.Add(10, 0, 0, 0)
	if c.RxPackets != math.MaxUint64 {
		t.Errorf("RxPackets = %d, want saturated at MaxUint64", c.RxPackets)
	}
}

func TestMonotonicAfterMultipleAdds(t *testing.T) {
	s := New()
	s.Add(100, 6000, 0, 0)
	s.Add(50, 3000, 0, 0)

	delta, _ := s.Swap()
	if delta.RxPackets != 150 || delta.RxBytes != 9000 {
		t.Errorf("delta = %+v, want RxPackets=150 RxBytes=9000", delta)
	}
}

func TestSwapResetsBaseline(t *testing.T) {
	s := New()
	s.Add(10, 100, 0, 0)
	first, _ := s.Swap()
	if first.RxPackets != 10 {
		t.Fatalf("first delta RxPackets = %d, want 10", first.RxPackets)
	}

	s.Add(10, 100, 0, 0)
	second, _ := s.Swap()
	if second.RxPackets != 10 {
		t.Errorf("second delta RxPackets = %d, want 10 (not cumulative with first)", second.RxPackets)
	}
}

func TestRatesZeroElapsedDoesNotDivideByZero(t *testing.T) {
	rxMpps, rxMbps, txMpps, txMbps := Rates(Counters{RxPackets: 100}, 0)
	if rxMpps != 0 || rxMbps != 0 || txMpps != 0 || txMbps != 0 {
		t.Errorf("expected all-zero rates for zero elapsed time, got %v %v %v %v", rxMpps, rxMbps, txMpps, txMbps)
	}
}

func TestRatesAccountForEthernetOverhead(t *testing.T) {
	delta := Counters{RxPackets: 1_000_000, RxBytes: 64_000_000}
	rxMpps, rxMbps, _, _ := Rates(delta, time.Second)

	if math.Abs(rxMpps-1.0) > 1e-9 {
		t.Errorf("rxMpps = %f, want 1.0", rxMpps)
	}
	wantMbps := float64(64_000_000+1_000_000*ethernetOverheadBytes) * 8 / 1e6
	if math.Abs(rxMbps-wantMbps) > 1e-6 {
		t.Errorf("rxMbps = %f, want %f", rxMbps, wantMbps)
	}
}
