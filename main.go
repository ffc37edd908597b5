// Command mrs1000 streams measurement data from a SICK MRS1000 lidar.
//
// The node connects to the device over TCP, configures continuous
// measurement via the CoLa A protocol, and publishes per-layer 2D scans,
// per-layer multi-echo scans, and one aggregate point cloud per rotation
// to NATS. It reconnects and reconfigures the device on any failure and
// runs until interrupted.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/banshee-data/mrs1000/internal/colaa"
	"github.com/banshee-data/mrs1000/internal/config"
	"github.com/banshee-data/mrs1000/internal/mrs"
	"github.com/banshee-data/mrs1000/internal/publish"
	"github.com/banshee-data/mrs1000/internal/version"
)

var (
	configPath  = flag.String("config", "", "Path to node config JSON (optional)")
	host        = flag.String("host", "", "Device host (overrides config)")
	port        = flag.Int("port", 0, "Device CoLa A port (overrides config)")
	natsURL     = flag.String("nats", "", "NATS server URL (overrides config)")
	frameID     = flag.String("frame", "", "Coordinate frame for published messages (overrides config)")
	showVersion = flag.Bool("version", false, "Print version and exit")
)

func main() {
	flag.Parse()

	if *showVersion {
		fmt.Printf("mrs1000 %s (%s, built %s)\n", version.Version, version.GitSHA, version.BuildTime)
		os.Exit(0)
	}

	cfg := config.EmptyNodeConfig()
	if *configPath != "" {
		var err error
		cfg, err = config.LoadNodeConfig(*configPath)
		if err != nil {
			log.Fatalf("Failed to load config: %v", err)
		}
	}
	if *host != "" {
		cfg.Host = host
	}
	if *port != 0 {
		cfg.Port = port
	}
	if *natsURL != "" {
		cfg.NATSURL = natsURL
	}
	if *frameID != "" {
		cfg.FrameID = frameID
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	publisher, closePublisher, err := publish.ConnectNATS(cfg.GetNATSURL(), cfg.GetSubjectPrefix())
	if err != nil {
		log.Fatalf("Failed to connect to NATS: %v", err)
	}
	defer closePublisher()

	session := mrs.NewSession(mrs.SessionConfig{
		Host:      cfg.GetHost(),
		Port:      cfg.GetPort(),
		Driver:    colaa.NewClient(),
		Router:    mrs.NewRouter(cfg.GetFrameID(), publisher),
		Assembler: mrs.NewCloudAssembler(cfg.GetFrameID(), publisher),
	})

	var wg sync.WaitGroup
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Printf("mrs1000 %s connecting to %s:%d, publishing to %s",
		version.Version, cfg.GetHost(), cfg.GetPort(), cfg.GetNATSURL())

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := session.Run(ctx); err != nil && err != context.Canceled {
			log.Printf("Session ended: %v", err)
		}
	}()

	<-ctx.Done()
	log.Printf("Shutting down...")
	wg.Wait()
}
