package ixgbe

import (
	"github.com/ixy-go/ixy/pkg/mempool"
	"github.com/ixy-go/ixy/pkg/pktbuf"
)

// txCleanBatch is how many TX descriptors are reclaimed at once; cleaning
// in batches amortizes the cost of checking DD bits one at a time.
const txCleanBatch = 32

// RxQueue is one hardware receive ring together with the sidecar array
// that remembers which packet buffer backs each ring slot. The sidecar
// array is package-private: nothing outside ixgbe ever reads it, per the
// driver's own internal bookkeeping contract.
type RxQueue struct {
	queueID int
	entries int
	ring    []byte
	bufs    []*pktbuf.PacketBuffer
	pool    *mempool.Mempool
	rxIndex int
}

func newRxQueue(queueID, entries int, ring []byte, pool *mempool.Mempool) *RxQueue {
	return &RxQueue{
		queueID: queueID,
		entries: entries,
		ring:    ring,
		bufs:    make([]*pktbuf.PacketBuffer, entries),
		pool:    pool,
	}
}

// TxQueue is one hardware transmit ring with the matching sidecar array
// and a separate clean cursor tracking how far hardware has confirmed
// transmission.
type TxQueue struct {
	queueID    int
	entries    int
	ring       []byte
	bufs       []*pktbuf.PacketBuffer
	txIndex    int
	cleanIndex int
}

func newTxQueue(queueID, entries int, ring []byte) *TxQueue {
	return &TxQueue{
		queueID: queueID,
		entries: entries,
		ring:    ring,
		bufs:    make([]*pktbuf.PacketBuffer, entries),
	}
}
