package ixgbe

import (
	"github.com/ixy-go/ixy/pkg/ixyerr"
	"github.com/ixy-go/ixy/pkg/mempool"
	"github.com/ixy-go/ixy/pkg/pktbuf"
)

// RxBatch pulls up to len(out) received packets from queueID into out,
// refilling each vacated ring slot with a fresh buffer from the queue's
// pool. It never blocks: if the pool runs dry mid-refill, it stops and
// returns the buffers handed out so far rather than leaving a hole in
// the ring. It returns the number of packets written to out.
func (d *Device) RxBatch(queueID int, out []*pktbuf.PacketBuffer) (int, error) {
	if queueID < 0 || queueID >= len(d.rxQueues) {
		return 0, ixyerr.New(ixyerr.InvalidArg, "ixgbe: RX queue id out of range")
	}
	q := d.rxQueues[queueID]
	return q.rxBatch(out, func(tail uint32) error {
		return d.pci.SetReg(rdt(queueID), tail)
	})
}

// rxBatch is the pure ring-walking core of RxBatch; publishTail is called
// with the new RDT value only when at least one packet was produced.
func (q *RxQueue) rxBatch(out []*pktbuf.PacketBuffer, publishTail func(uint32) error) (int, error) {
	i := q.rxIndex
	n := 0
	for n < len(out) {
		desc := descriptorAt(q.ring, i)
		if !desc.rxDone() {
			break
		}
		if !desc.rxEndOfPacket() {
			return n, ixyerr.New(ixyerr.Unsupported, "ixgbe: multi-descriptor RX frames are not supported")
		}

		buf := q.bufs[i]
		if err := buf.SetSize(desc.rxLength()); err != nil {
			return n, err
		}
		out[n] = buf

		nb, ok := q.pool.Acquire()
		if !ok {
			out[n] = nil
			break
		}
		descriptorAt(q.ring, i).setRxBufferPA(nb.PA() + uint64(pktbuf.DataOffset))
		q.bufs[i] = nb

		i = (i + 1) % q.entries
		n++
	}

	if n > 0 {
		tail := uint32((i - 1 + q.entries) % q.entries)
		if err := publishTail(tail); err != nil {
			return n, err
		}
		q.rxIndex = i
	}
	return n, nil
}

// TxBatch enqueues up to len(bufs) packet buffers on queueID for
// transmission, first reclaiming any ring slots the hardware has already
// confirmed sent. It never blocks: if the ring fills up, it stops and
// returns the number actually enqueued, leaving the remainder in bufs
// for the caller to retry or release.
func (d *Device) TxBatch(queueID int, bufs []*pktbuf.PacketBuffer) (int, error) {
	if queueID < 0 || queueID >= len(d.txQueues) {
		return 0, ixyerr.New(ixyerr.InvalidArg, "ixgbe: TX queue id out of range")
	}
	q := d.txQueues[queueID]
	return q.txBatch(bufs, func(tail uint32) error {
		return d.pci.SetReg(tdt(queueID), tail)
	})
}

func (q *TxQueue) txBatch(bufs []*pktbuf.PacketBuffer, publishTail func(uint32) error) (int, error) {
	q.cleanTxRing()

	i := q.txIndex
	n := 0
	for n < len(bufs) {
		next := (i + 1) % q.entries
		if next == q.cleanIndex {
			break
		}

		buf := bufs[n]
		desc := descriptorAt(q.ring, i)
		desc.setTxBufferPA(buf.PA() + uint64(pktbuf.DataOffset))
		desc.setTxCommand(buf.Size())
		q.bufs[i] = buf

		i = next
		n++
	}

	if n > 0 {
		if err := publishTail(uint32(i)); err != nil {
			return n, err
		}
		q.txIndex = i
	}
	return n, nil
}

// cleanTxRing reclaims every fully-done TX_CLEAN_BATCH-sized batch of
// descriptors starting at cleanIndex, returning each buffer to its pool.
func (q *TxQueue) cleanTxRing() {
	for {
		cleanable := (q.txIndex - q.cleanIndex + q.entries) % q.entries
		if cleanable < txCleanBatch {
			return
		}
		batchTail := (q.cleanIndex + txCleanBatch - 1) % q.entries
		if !descriptorAt(q.ring, batchTail).txDone() {
			return
		}

		for k := 0; k < txCleanBatch; k++ {
			idx := (q.cleanIndex + k) % q.entries
			buf := q.bufs[idx]
			if buf == nil {
				continue
			}
			if pool, ok := mempool.FindByID(buf.PoolID()); ok {
				pool.Release(buf)
			}
			q.bufs[idx] = nil
		}
		q.cleanIndex = (q.cleanIndex + txCleanBatch) % q.entries
	}
}

// TxBusyWait enqueues every buffer in bufs on queueID, retrying TxBatch
// until the ring has absorbed all of them.
func (d *Device) TxBusyWait(queueID int, bufs []*pktbuf.PacketBuffer) error {
	remaining := bufs
	for len(remaining) > 0 {
		n, err := d.TxBatch(queueID, remaining)
		if err != nil {
			return err
		}
		remaining = remaining[n:]
	}
	return nil
}
