// Package stats turns the NIC's free-running 64-bit hardware counters
// into packet- and bit-rate figures.
package stats

import (
	"math"
	"sync"
	"time"
)

// ethernetOverheadBytes accounts for the 7-byte preamble, 1-byte start
// frame delimiter, and 12-byte minimum inter-frame gap that hardware
// counters never include but that occupy real wire time.
const ethernetOverheadBytes = 20

// Counters is a snapshot of the four counters the 82599 exposes:
// received/transmitted packets and bytes.
type Counters struct {
	RxPackets uint64
	RxBytes   uint64
	TxPackets uint64
	TxBytes   uint64
}

func saturatingAdd(a, b uint64) uint64 {
	if a > math.MaxUint64-b {
		return math.MaxUint64
	}
	return a + b
}

// Add accumulates packet/byte deltas into c, saturating instead of
// wrapping on 64-bit overflow.
func (c *Counters) Add(rxPackets, rxBytes, txPackets, txBytes uint64) {
	c.RxPackets = saturatingAdd(c.RxPackets, rxPackets)
	c.RxBytes = saturatingAdd(c.RxBytes, rxBytes)
	c.TxPackets = saturatingAdd(c.TxPackets, txPackets)
	c.TxBytes = saturatingAdd(c.TxBytes, txBytes)
}

// Sub computes c - other, for turning two absolute counter readings into
// a delta. It assumes other <= c (the hardware counters are monotonic
// between reads).
func (c Counters) Sub(other Counters) Counters {
	return Counters{
		RxPackets: c.RxPackets - other.RxPackets,
		RxBytes:   c.RxBytes - other.RxBytes,
		TxPackets: c.TxPackets - other.TxPackets,
		TxBytes:   c.TxBytes - other.TxBytes,
	}
}

// Stats double-buffers a Counters snapshot so a periodic sampler can
// compute rates without racing the accumulation path.
type Stats struct {
	mu         sync.Mutex
	current    Counters
	previous   Counters
	previousAt time.Time
}

// New returns a Stats accumulator with its previous-snapshot clock
// started now.
func New() *Stats {
	return &Stats{previousAt: time.Now()}
}

// Add folds a newly read hardware counter delta into the running total.
func (s *Stats) Add(rxPackets, rxBytes, txPackets, txBytes uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current.Add(rxPackets, rxBytes, txPackets, txBytes)
}

// Swap returns the counter delta and elapsed time since the last Swap (or
// since New, for the first call), and resets the snapshot.
func (s *Stats) Swap() (Counters, time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	delta := s.current.Sub(s.previous)
	elapsed := now.Sub(s.previousAt)

	s.previous = s.current
	s.previousAt = now

	return delta, elapsed
}

// Rates converts a counter delta observed over elapsed into millions of
// packets per second and megabits per second, in each direction.
func Rates(delta Counters, elapsed time.Duration) (rxMpps, rxMbps, txMpps, txMbps float64) {
	seconds := elapsed.Seconds()
	if seconds <= 0 {
		return 0, 0, 0, 0
	}

	rxMpps = float64(delta.RxPackets) / seconds / 1e6
	txMpps = float64(delta.TxPackets) / seconds / 1e6

	rxWireBytes := delta.RxBytes + delta.RxPackets*ethernetOverheadBytes
	txWireBytes := delta.TxBytes + delta.TxPackets*ethernetOverheadBytes

	rxMbps = float64(rxWireBytes) * 8 / seconds / 1e6
	txMbps = float64(txWireBytes) * 8 / seconds / 1e6
	return
}
