package main

import (
	"flag"
	"fmt"
	"log"
	"net"
	"time"

	"github.com/Elliot971/ZYNQ/capture"
)

func main() {
	capPath := flag.String("capture", "", "Input capture file")
	destAddr := flag.String("dest", "127.0.0.1:44555", "Destination UDP address")
	speed := flag.Float64("speed", 1.0, "Replay speed multiplier (0 for max speed)")
	flag.Parse()

	if *capPath == "" {
		log.Fatal("--capture required")
	}

	raddr, err := net.ResolveUDPAddr("udp", *destAddr)
	if err != nil {
		log.Fatalf("Invalid dest address: %v", err)
	}
	conn, err := net.DialUDP("udp", nil, raddr)
	if err != nil {
		log.Fatalf("Dial failed: %v", err)
	}
	defer conn.Close()

	records, err := capture.ReadFile(*capPath)
	if err != nil {
		log.Fatalf("Read capture failed: %v", err)
	}

	log.Printf("Replaying %s to %s...", *capPath, *destAddr)

	var firstTs float64
	startReal := time.Now()
	count := 0

	for _, rec := range records {
		if rec.Flag != capture.FlagIQFrame {
			continue
		}

		if firstTs == 0 {
			firstTs = rec.Timestamp
			startReal = time.Now()
		} else if *speed > 0 {
			targetDelay := time.Duration((rec.Timestamp - firstTs) / *speed * float64(time.Second))
			if elapsed := time.Since(startReal); targetDelay > elapsed {
				time.Sleep(targetDelay - elapsed)
			}
		}

		if _, err := conn.Write(rec.Payload); err != nil {
			log.Printf("Write error: %v", err)
		}
		count++
		if count%1000 == 0 {
			fmt.Printf("\rSent %d packets...", count)
		}
	}
	fmt.Printf("\nDone. Sent %d packets.\n", count)
}
