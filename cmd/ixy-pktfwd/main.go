// Command ixy-pktfwd forwards packets received on one 82599-family NIC
// queue out through another NIC's queue, swapping source and destination
// MAC addresses in place.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ixy-go/ixy/pkg/ixgbe"
	"github.com/ixy-go/ixy/pkg/mempool"
	"github.com/ixy-go/ixy/pkg/pktbuf"
	"github.com/ixy-go/ixy/pkg/stats"
)

const (
	ringEntries       = 512
	batchSize         = 64
	statsPrintBatches = 4095
)

// Config holds the command's parsed flags and positional arguments.
type Config struct {
	RxAddress string
	TxAddress string
}

func parseFlags(args []string) (Config, error) {
	fs := flag.NewFlagSet("ixy-pktfwd", flag.ContinueOnError)
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "Usage: ixy-pktfwd <rx-pci-address> <tx-pci-address>\n")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}
	if fs.NArg() != 2 {
		fs.Usage()
		return Config{}, fmt.Errorf("expected exactly two PCI address arguments")
	}
	return Config{RxAddress: fs.Arg(0), TxAddress: fs.Arg(1)}, nil
}

func main() {
	cfg, err := parseFlags(os.Args[1:])
	if err != nil {
		log.Fatal(err)
	}
	if err := run(cfg); err != nil {
		log.Fatal(err)
	}
}

func run(cfg Config) error {
	rx, err := ixgbe.Open(cfg.RxAddress, 1, 1)
	if err != nil {
		return fmt.Errorf("opening rx device %s: %w", cfg.RxAddress, err)
	}
	defer rx.Close()

	tx, err := ixgbe.Open(cfg.TxAddress, 1, 1)
	if err != nil {
		return fmt.Errorf("opening tx device %s: %w", cfg.TxAddress, err)
	}
	defer tx.Close()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Println("shutting down")
		rx.Close()
		tx.Close()
		os.Exit(0)
	}()

	if err := rx.Configure(ringEntries); err != nil {
		return fmt.Errorf("configuring rx device %s: %w", cfg.RxAddress, err)
	}
	if err := tx.Configure(ringEntries); err != nil {
		return fmt.Errorf("configuring tx device %s: %w", cfg.TxAddress, err)
	}

	bufs := make([]*pktbuf.PacketBuffer, batchSize)
	counters := stats.New()
	batchCount := 0
	lastPrint := time.Now()

	for {
		n, err := rx.RxBatch(0, bufs)
		if err != nil {
			return fmt.Errorf("receiving: %w", err)
		}
		if n > 0 {
			for i := 0; i < n; i++ {
				swapMACs(bufs[i].Payload())
			}
			sent, err := tx.TxBatch(0, bufs[:n])
			if err != nil {
				return fmt.Errorf("transmitting: %w", err)
			}
			for i := sent; i < n; i++ {
				if pool, ok := mempool.FindByID(bufs[i].PoolID()); ok {
					pool.Release(bufs[i])
				}
			}
		}

		batchCount++
		if batchCount%statsPrintBatches == 0 && time.Since(lastPrint) >= 100*time.Nanosecond {
			rxHW, err := rx.ReadStats()
			if err != nil {
				return fmt.Errorf("reading rx stats: %w", err)
			}
			txHW, err := tx.ReadStats()
			if err != nil {
				return fmt.Errorf("reading tx stats: %w", err)
			}
			counters.Add(rxHW.RxPackets, rxHW.RxBytes, txHW.TxPackets, txHW.TxBytes)
			delta, elapsed := counters.Swap()
			rxMpps, rxMbps, txMpps, txMbps := stats.Rates(delta, elapsed)
			log.Printf("rx: %.2f Mpps, %.2f Mbit/s | tx: %.2f Mpps, %.2f Mbit/s", rxMpps, rxMbps, txMpps, txMbps)
			lastPrint = time.Now()
		}
	}
}

// swapMACs exchanges the Ethernet source and destination address fields
// in place, the minimal mutation needed to loop a frame back out a
// different interface without it being dropped as a reflection.
func swapMACs(frame []byte) {
	if len(frame) < 12 {
		return
	}
	var tmp [6]byte
	copy(tmp[:], frame[0:6])
	copy(frame[0:6], frame[6:12])
	copy(frame[6:12], tmp[:])
}
