package server

import (
	"log"
	"time"

	"github.com/Elliot971/ZYNQ/capture"
)

// Replay feeds a capture file through the processing pipeline offline.
// speed is a real-time multiplier; 0 runs at maximum rate.
func (s *UdpServer) Replay(path string, speed float64) error {
	records, err := capture.ReadFile(path)
	if err != nil {
		return err
	}

	s.running = true
	log.Printf("Replaying %s at %.1fx speed...", path, speed)

	var firstTs float64
	startReal := time.Now()
	count := 0

	for _, rec := range records {
		if !s.running {
			break
		}
		if rec.Flag != capture.FlagIQFrame {
			continue
		}

		if firstTs == 0 {
			firstTs = rec.Timestamp
			startReal = time.Now()
		} else if speed > 0 {
			targetDelay := time.Duration((rec.Timestamp - firstTs) / speed * float64(time.Second))
			if elapsed := time.Since(startReal); targetDelay > elapsed {
				time.Sleep(targetDelay - elapsed)
			}
		}

		s.handlePacket(rec.Payload, rec.Addr, int64(rec.Timestamp*1000))
		count++
	}

	log.Printf("Replay done. Packets: %d", count)
	return nil
}
