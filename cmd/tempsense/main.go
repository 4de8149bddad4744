package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Elliot971/ZYNQ/capture"
	"github.com/Elliot971/ZYNQ/server"
	"github.com/Elliot971/ZYNQ/solver"
	"github.com/Elliot971/ZYNQ/txlink"
	"github.com/Elliot971/ZYNQ/web"
)

func main() {
	port := flag.Int("port", server.DefaultPort, "UDP port to listen on")
	httpPort := flag.Int("http", 0, "HTTP/WebSocket port (e.g. 8080). 0 to disable.")
	snapshotPath := flag.String("snapshot", "solver.snap", "Path to weight snapshot")
	deployXML := flag.String("deploy", "", "Path to deploy.xml with transfer targets (optional)")
	capturePath := flag.String("capture", "", "Path to output capture file (optional)")
	replayPath := flag.String("replay", "", "Capture file to replay instead of live UDP")
	replaySpeed := flag.Float64("replay-speed", 1.0, "Replay speed multiplier (0 for max speed)")
	protocol := flag.String("protocol", "hex", "Downlink protocol: hex or binary")
	distDir := flag.String("dist", "", "Static files directory for the web UI (optional)")

	tags := flag.Int("tags", solver.DefaultTags, "Number of backscatter tags")
	rx := flag.Int("rx", solver.DefaultRxAntennas, "Number of receive antennas")
	samples := flag.Int("samples", solver.DefaultSamplesPerSlot, "Samples per slot")
	baseLambda := flag.Float64("base-lambda", solver.BaseLambda, "Base regularization weight")
	noAdaptive := flag.Bool("no-adaptive-lambda", false, "Disable adaptive regularization")
	noDeltaH := flag.Bool("no-delta-h", false, "Disable the channel correction head")
	softplusOut := flag.Bool("softplus-out", false, "Apply softplus to the output stage")
	clipLow := flag.Float64("clip-low", 0, "Output clip lower bound (with -clip-high)")
	clipHigh := flag.Float64("clip-high", 0, "Output clip upper bound (with -clip-low)")
	flag.Parse()

	cfg := solver.Config{
		Tags:           *tags,
		RxAntennas:     *rx,
		SamplesPerSlot: *samples,
		BaseLambda:     *baseLambda,
		AdaptiveLambda: !*noAdaptive,
		EnableDeltaH:   !*noDeltaH,
		SoftplusOut:    *softplusOut,
	}
	if *clipLow != 0 || *clipHigh != 0 {
		cfg.Clip = true
		cfg.ClipLow = *clipLow
		cfg.ClipHigh = *clipHigh
	}

	engine, err := solver.NewEngine(cfg)
	if err != nil {
		log.Fatalf("Invalid config: %v", err)
	}
	if err := engine.LoadSnapshotFile(*snapshotPath); err != nil {
		log.Fatalf("Load snapshot %s: %v", *snapshotPath, err)
	}
	log.Printf("Loaded snapshot %s (tags=%d rx=%d samples=%d)",
		*snapshotPath, cfg.Tags, cfg.RxAntennas, cfg.SamplesPerSlot)

	udpSvr, err := server.NewUdpServer(*port, engine)
	if err != nil {
		log.Fatalf("Failed to create UDP server: %v", err)
	}
	udpSvr.SetProtocol(*protocol)

	if *httpPort > 0 {
		webSvr := web.NewServer()
		webSvr.StatusFunc = udpSvr.Status
		go webSvr.Start(*httpPort, *distDir)
		udpSvr.SetWebHub(webSvr.Hub)
	}

	if *deployXML != "" {
		targets := txlink.ParseTargets(*deployXML)
		if len(targets) > 0 {
			sender := txlink.NewSender()
			for _, t := range targets {
				fullAddr := fmt.Sprintf("%s:%d", t.Addr, t.Port)
				if t.Type == "TCP" {
					sender.AddTCPTarget(fullAddr, t.Mask)
					log.Printf("Added TCP target: %s (mask %x)", fullAddr, t.Mask)
				} else {
					if err := sender.AddUDPTarget(fullAddr, t.Mask); err != nil {
						log.Printf("Skipping UDP target %s: %v", fullAddr, err)
						continue
					}
					log.Printf("Added UDP target: %s (mask %x)", fullAddr, t.Mask)
				}
			}
			if err := sender.Start(); err != nil {
				log.Fatalf("Start sender: %v", err)
			}
			udpSvr.SetSender(sender)
			defer sender.Stop()
		}
	}

	if *capturePath != "" {
		path := *capturePath
		if fi, err := os.Stat(path); err == nil && fi.IsDir() {
			path = fmt.Sprintf("%s/IQCAP_%s.pcap", path, time.Now().Format("20060102150405"))
		}
		cw, err := capture.NewWriter(path)
		if err != nil {
			log.Fatalf("Failed to create capture writer: %v", err)
		}
		defer cw.Close()
		udpSvr.SetCaptureWriter(cw)
		log.Printf("Capturing packets to %s", path)
	}

	if *replayPath != "" {
		if err := udpSvr.Replay(*replayPath, *replaySpeed); err != nil {
			log.Fatalf("Replay failed: %v", err)
		}
		return
	}

	go udpSvr.Start()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	log.Println("Shutting down...")
	udpSvr.Stop()
}
