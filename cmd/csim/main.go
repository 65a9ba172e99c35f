// csim replays a memory access trace against a simulated cache and reports
// hit/miss behavior and storage footprint.
package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/tebeka/atexit"

	"github.com/sarchlab/csim/datarecording"
	"github.com/sarchlab/csim/mem"
	"github.com/sarchlab/csim/mem/cache/blocking"
	"github.com/sarchlab/csim/mem/cache/directmapped"
	"github.com/sarchlab/csim/mem/cache/nonblocking"
	"github.com/sarchlab/csim/mem/idealmemcontroller"
	"github.com/sarchlab/csim/monitoring"
	"github.com/sarchlab/csim/requester"
	"github.com/sarchlab/csim/sim"
)

// A cacheComp is what every cache variant offers the driver: the request
// contract, the monitoring counters, and the wiring setters.
type cacheComp interface {
	mem.Cache
	monitoring.Cache

	SetTop(mem.Requester)
	SetBottom(mem.BackingStore)
}

var (
	traceFile   string
	cacheKind   string
	capacity    uint64
	lineSize    int
	ways        int
	numMSHR     int
	addrWidth   int
	memLatency  int
	recordFile  string
	monitorOn   bool
	monitorPort int
	openBrowser bool
)

var rootCmd = &cobra.Command{
	Use:   "csim",
	Short: "csim simulates a cache in front of a fixed-latency memory",
	RunE: func(_ *cobra.Command, _ []string) error {
		return run()
	},
	SilenceUsage: true,
}

func init() {
	_ = godotenv.Load()

	flags := rootCmd.Flags()
	flags.StringVar(&traceFile, "trace",
		envOr("CSIM_TRACE", ""), "trace file to replay")
	flags.StringVar(&cacheKind, "cache",
		envOr("CSIM_CACHE", "setassoc"),
		"cache kind: directmapped, setassoc, or nonblocking")
	flags.Uint64Var(&capacity, "capacity",
		envUint("CSIM_CAPACITY", 1<<10), "total cache size in bytes")
	flags.IntVar(&lineSize, "line-size", 8, "line size in bytes")
	flags.IntVar(&ways, "ways", 4, "way associativity")
	flags.IntVar(&numMSHR, "mshrs", 2,
		"MSHR table depth of the non-blocking cache")
	flags.IntVar(&addrWidth, "addr-width", 32, "address width in bits")
	flags.IntVar(&memLatency, "mem-latency", 100,
		"memory latency in cycles")
	flags.StringVar(&recordFile, "record", "",
		"record completed accesses into this SQLite database")
	flags.BoolVar(&monitorOn, "monitor", false,
		"serve simulation state over HTTP")
	flags.IntVar(&monitorPort, "monitor-port", 0,
		"port of the monitoring server, 0 picks a free port")
	flags.BoolVar(&openBrowser, "open", false,
		"open the monitoring server in a browser")

	_ = rootCmd.MarkFlagRequired("trace")
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}

	return fallback
}

func envUint(key string, fallback uint64) uint64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseUint(v, 0, 64); err == nil {
			return n
		}
	}

	return fallback
}

func run() error {
	engine := sim.NewSerialEngine()
	freq := 1 * sim.GHz
	capacityRecorder := mem.NewCapacityRecorder()

	cacheInst, err := buildCache(capacityRecorder)
	if err != nil {
		return err
	}

	memCtrl := idealmemcontroller.MakeBuilder().
		WithEngine(engine).
		WithFreq(freq).
		WithLatency(memLatency).
		WithLineSize(lineSize).
		WithCapacity(1 << addrWidth).
		Build("Memory")

	cacheInst.SetBottom(memCtrl)
	memCtrl.SetTop(cacheInst)

	var recorder datarecording.DataRecorder
	if recordFile != "" {
		recorder = datarecording.New(recordFile)
	}

	driver := requester.MakeBuilder().
		WithEngine(engine).
		WithFreq(freq).
		WithCache(cacheInst).
		WithRecorder(recorder).
		Build("Driver")
	cacheInst.SetTop(driver)

	if monitorOn {
		monitor := monitoring.NewMonitor().WithPortNumber(monitorPort)
		if openBrowser {
			monitor = monitor.WithBrowser()
		}

		monitor.RegisterTimeTeller(engine)
		monitor.RegisterCache(cacheInst)

		if err := monitor.StartServer(); err != nil {
			return err
		}
	}

	records, err := requester.LoadRecords(traceFile)
	if err != nil {
		return err
	}

	driver.ScheduleAll(records)

	fmt.Println("Running simulation")
	if err := engine.Run(); err != nil {
		return err
	}
	fmt.Println("Simulation done")

	reportStats(driver, cacheInst)

	atexit.Register(func() { reportCapacity(capacityRecorder) })

	return nil
}

func buildCache(capacityRecorder *mem.CapacityRecorder) (cacheComp, error) {
	switch cacheKind {
	case "directmapped":
		return directmapped.MakeBuilder().
			WithTotalByteSize(capacity).
			WithLineSize(lineSize).
			WithAddrWidth(addrWidth).
			WithCapacityRecorder(capacityRecorder).
			Build("Cache"), nil
	case "setassoc":
		return blocking.MakeBuilder().
			WithTotalByteSize(capacity).
			WithLineSize(lineSize).
			WithWayAssociativity(ways).
			WithAddrWidth(addrWidth).
			WithCapacityRecorder(capacityRecorder).
			Build("Cache"), nil
	case "nonblocking":
		return nonblocking.MakeBuilder().
			WithTotalByteSize(capacity).
			WithLineSize(lineSize).
			WithWayAssociativity(ways).
			WithAddrWidth(addrWidth).
			WithNumMSHR(numMSHR).
			WithCapacityRecorder(capacityRecorder).
			Build("Cache"), nil
	default:
		return nil, fmt.Errorf("unknown cache kind %q", cacheKind)
	}
}

func reportStats(driver *requester.Comp, c cacheComp) {
	fmt.Printf("Accesses: %d issued, %d retried, %d completed\n",
		driver.Issued(), driver.Retried(), driver.Completed())
	fmt.Printf("Cache: %d hits, %d misses, %d write-backs\n",
		c.Hits(), c.Misses(), c.WriteBacks())

	if driver.ReadMismatches() > 0 {
		fmt.Printf("Read mismatches: %d\n", driver.ReadMismatches())
	}
}

func reportCapacity(r *mem.CapacityRecorder) {
	fmt.Printf("Data size: %gKB\n", float64(r.DataBytes())/1024)
	fmt.Printf("Tag size: %gKB\n", float64(r.TagBytes())/1024)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		atexit.Exit(1)
	}

	atexit.Exit(0)
}
