// Command snmpdevsimd runs a population of simulated SNMP devices: it
// loads walk-file profiles per device class, starts a lazy device pool
// across the configured port ranges, and serves until signalled to stop.
package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/nimbuscomm/snmpdevsim/internal/metrics"
	"github.com/nimbuscomm/snmpdevsim/internal/pool"
	"github.com/nimbuscomm/snmpdevsim/internal/profile"
	"github.com/nimbuscomm/snmpdevsim/internal/simconfig"
	"github.com/nimbuscomm/snmpdevsim/internal/walkfile"
)

func main() {
	configFile := flag.String("config", "", "Path to device population config (YAML)")
	metricsAddr := flag.String("metrics-addr", ":9116", "Listen address for the Prometheus /metrics endpoint")
	sweepCron := flag.String("sweep-cron", "*/5 * * * *", "Cron schedule for the idle-device reclamation sweep")
	flag.Parse()

	if *configFile == "" {
		log.Fatal("Usage: snmpdevsimd -config devices.yaml")
	}

	cfg, err := simconfig.LoadFromFile(*configFile)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	totalPorts := 0
	for _, d := range cfg.Devices {
		totalPorts += d.Count
	}
	checkFileDescriptors(totalPorts)

	store := profile.NewStore()
	for _, d := range cfg.Devices {
		if d.ProfileSource == "" {
			continue
		}
		triples, stats, err := walkfile.ParseFile(d.ProfileSource)
		if err != nil {
			log.Fatalf("Failed to parse walk file for class %s: %v", d.Class, err)
		}
		store.LoadWalkProfile(d.Class, triples)
		log.Printf("Loaded profile %s: %d accepted, %d skipped", d.Class, stats.Accepted, stats.Skipped)
	}

	reg := metrics.NewRegistry()

	idleTimeout := 30 * time.Minute
	if cfg.Limits.IdleTimeout != "" {
		if d, err := time.ParseDuration(cfg.Limits.IdleTimeout); err == nil {
			idleTimeout = d
		} else {
			log.Printf("Warning: invalid idleTimeout %q, using default %v", cfg.Limits.IdleTimeout, idleTimeout)
		}
	}

	p := pool.New(store, reg, pool.WithIdleTimeout(idleTimeout), pool.WithMaxDevices(cfg.Limits.MaxDevices))

	for _, d := range cfg.Devices {
		n, err := p.StartPopulation(d.Class, d.Community, d.PortLow, d.Count)
		if err != nil {
			log.Fatalf("Failed to start population for class %s: %v", d.Class, err)
		}
		log.Printf("Started %d/%d devices for class %s on ports %d-%d", n, d.Count, d.Class, d.PortLow, d.PortLow+d.Count-1)
	}

	if err := p.StartSweeper(*sweepCron); err != nil {
		log.Fatalf("Failed to start idle-device sweeper: %v", err)
	}

	http.Handle("/metrics", promhttp.HandlerFor(reg.Gatherer(), promhttp.HandlerOpts{}))
	go func() {
		log.Printf("Serving metrics on http://localhost%s/metrics", *metricsAddr)
		if err := http.ListenAndServe(*metricsAddr, nil); err != nil {
			log.Printf("Warning: metrics server error: %v", err)
		}
	}()

	log.Printf("snmpdevsimd running: %d devices across %d classes", p.Count(), len(cfg.Devices))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		log.Printf("Received signal %v, initiating graceful shutdown...", sig)
		cancel()
	}()

	<-ctx.Done()
	log.Printf("Shutting down...")
	p.Shutdown()
	log.Printf("Graceful shutdown complete")
}

func checkFileDescriptors(requiredFDs int) {
	var rlimit syscall.Rlimit
	if err := syscall.Getrlimit(syscall.RLIMIT_NOFILE, &rlimit); err != nil {
		log.Printf("Warning: could not check file descriptor limit: %v", err)
		return
	}

	requiredTotal := uint64(requiredFDs) + 100
	if rlimit.Cur < requiredTotal {
		log.Printf("Warning: current file descriptor limit (%d) may be insufficient for %d devices (%d required)",
			rlimit.Cur, requiredFDs, requiredTotal)
		log.Printf("Increase with: ulimit -n %d", requiredTotal*2)
	} else {
		log.Printf("File descriptor limit OK: %d (need ~%d)", rlimit.Cur, requiredTotal)
	}
}
