// Command ixy-pktgen emits a synthetic Ethernet/IPv4/UDP packet stream
// on one 82599-family NIC queue, sampling the device's hardware counters
// periodically to report throughput.
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
	"github.com/ixy-go/ixy/pkg/template"
)

const (
	ringEntries       = 512
	statsPrintBatches = 4095
	poolCapacity      = 4096
	poolEntrySize     = 2048
)

// Config holds the command's parsed flags and positional arguments.
type Config struct {
	Address   string
	BatchSize int
}

func parseFlags(args []string) (Config, error) {
	fs := flag.NewFlagSet("ixy-pktgen", flag.ContinueOnError)
	batchSize := fs.Int("batch-size", 64, "number of packets per rx/tx batch")
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "Usage: ixy-pktgen [--batch-size N] <pci-address>\n")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return Config{}, fmt.Errorf("expected exactly one PCI address argument")
	}
	return Config{Address: fs.Arg(0), BatchSize: *batchSize}, nil
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
	dev, err := ixgbe.Open(cfg.Address, 1, 1)
	if err != nil {
		return fmt.Errorf("opening %s: %w", cfg.Address, err)
	}
	defer dev.Close()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Println("shutting down")
		dev.Close()
		os.Exit(0)
	}()

	if err := dev.Configure(ringEntries); err != nil {
		return fmt.Errorf("configuring %s: %w", cfg.Address, err)
	}

	pool, err := mempool.Create(poolCapacity, poolEntrySize)
	if err != nil {
		return fmt.Errorf("creating packet pool: %w", err)
	}

	tmpl := template.Build()
	seq := uint32(0)

	bufs := make([]*pktbuf.PacketBuffer, cfg.BatchSize)
	counters := stats.New()
	batchCount := 0
	lastPrint := time.Now()

	for {
		n := pool.AcquireBatch(bufs)
		for i := 0; i < n; i++ {
			data := bufs[i].Data()
			copy(data, tmpl)
			template.StampSequence(data, seq)
			seq++
			if err := bufs[i].SetSize(uint32(template.PacketSize)); err != nil {
				return fmt.Errorf("stamping packet: %w", err)
			}
		}
		if n > 0 {
			if err := dev.TxBusyWait(0, bufs[:n]); err != nil {
				return fmt.Errorf("transmitting: %w", err)
			}
		}

		batchCount++
		if batchCount%statsPrintBatches == 0 && time.Since(lastPrint) >= 100*time.Nanosecond {
			hw, err := dev.ReadStats()
			if err != nil {
				return fmt.Errorf("reading stats: %w", err)
			}
			counters.Add(hw.RxPackets, hw.RxBytes, hw.TxPackets, hw.TxBytes)
			delta, elapsed := counters.Swap()
			_, _, txMpps, txMbps := stats.Rates(delta, elapsed)
			log.Printf("tx: %.2f Mpps, %.2f Mbit/s", txMpps, txMbps)
			lastPrint = time.Now()
		}
	}
}
