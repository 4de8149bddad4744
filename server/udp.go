package server

import (
	"encoding/json"
	"errors"
	"log"
	"net"
	"sync"
	"time"

	"github.com/Elliot971/ZYNQ/capture"
	"github.com/Elliot971/ZYNQ/solver"
	"github.com/Elliot971/ZYNQ/txlink"
	"github.com/Elliot971/ZYNQ/web"
)

const (
	DefaultPort   = 44555
	MaxPacketSize = 65535

	// Per-stage timing stats are logged at this cadence.
	statsLogEvery = 200
)

// wsResult is the JSON shape broadcast to monitoring clients.
type wsResult struct {
	Seq          uint16    `json:"seq"`
	TS           int64     `json:"ts"`
	Path         string    `json:"path"`
	Gamma        []float64 `json:"gamma"`
	Temperatures []float64 `json:"temperatures"`
	Valid        []bool    `json:"valid"`
	Gate         float64   `json:"gate"`
	LogSNR       float64   `json:"log_snr"`
}

type stats struct {
	frames    int64
	dropped   int64
	inferTime time.Duration
}

// UdpServer receives raw I/Q frames from the receiver front-end, runs
// the estimator, and fans results out to the downlink sender, websocket
// hub, and capture file.
type UdpServer struct {
	conn    *net.UDPConn
	engine  *solver.Engine
	capture *capture.Writer
	sender  *txlink.Sender
	webHub  *web.Hub

	// Downlink protocol: "hex" (compact fixed-point) or "binary"
	// (full record).
	protocol string

	running bool

	mu    sync.Mutex
	last  *wsResult
	stats stats
}

func NewUdpServer(port int, engine *solver.Engine) (*UdpServer, error) {
	if port == 0 {
		port = DefaultPort
	}
	addr := net.UDPAddr{
		Port: port,
		IP:   net.ParseIP("0.0.0.0"),
	}
	conn, err := net.ListenUDP("udp", &addr)
	if err != nil {
		return nil, err
	}
	conn.SetReadBuffer(256 * 1024)

	return &UdpServer{
		conn:     conn,
		engine:   engine,
		protocol: "hex",
	}, nil
}

func (s *UdpServer) SetCaptureWriter(cw *capture.Writer) { s.capture = cw }
func (s *UdpServer) SetSender(snd *txlink.Sender)        { s.sender = snd }
func (s *UdpServer) SetWebHub(h *web.Hub)                { s.webHub = h }

func (s *UdpServer) SetProtocol(p string) {
	if p == "hex" || p == "binary" {
		s.protocol = p
	}
}

// Status returns the most recent result for the monitoring endpoint.
func (s *UdpServer) Status() interface{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	return struct {
		Frames  int64     `json:"frames"`
		Dropped int64     `json:"dropped"`
		Last    *wsResult `json:"last,omitempty"`
	}{
		Frames:  s.stats.frames,
		Dropped: s.stats.dropped,
		Last:    s.last,
	}
}

func (s *UdpServer) Start() {
	s.running = true
	buf := make([]byte, MaxPacketSize)
	log.Printf("UDP server listening on %s", s.conn.LocalAddr().String())

	for s.running {
		n, addr, err := s.conn.ReadFromUDP(buf)
		if err != nil {
			if s.running {
				log.Printf("read error: %v", err)
			}
			continue
		}

		data := make([]byte, n)
		copy(data, buf[:n])
		s.handlePacket(data, addr, time.Now().UnixMilli())
	}
}

func (s *UdpServer) Stop() {
	s.running = false
	s.conn.Close()
}

// handlePacket walks the frame packets in one datagram; multiple frames
// may be coalesced by the front-end.
func (s *UdpServer) handlePacket(data []byte, addr *net.UDPAddr, ts int64) {
	offset := 0
	for offset < len(data) {
		if len(data)-offset < FrameHdrLen {
			break
		}
		hdr, err := ParseHeader(data[offset:])
		if err != nil {
			offset++
			continue
		}
		totalLen := FrameHdrLen + hdr.BodyLen
		if offset+totalLen > len(data) {
			break
		}

		pktData := data[offset : offset+totalLen]
		if s.capture != nil {
			_ = s.capture.WritePacket(capture.FlagIQFrame, addr, pktData)
		}

		if hdr.Type == TypeIQFrame {
			s.processFrame(hdr, pktData[FrameHdrLen:], ts)
		}
		offset += totalLen
	}
}

func (s *UdpServer) processFrame(hdr *FrameHeader, body []byte, ts int64) {
	frame, err := DecodeFrame(hdr, body)
	if err != nil {
		log.Printf("decode frame seq=%d: %v", hdr.Seq, err)
		s.mu.Lock()
		s.stats.dropped++
		s.mu.Unlock()
		return
	}

	start := time.Now()
	res, err := s.engine.Infer(frame)
	elapsed := time.Since(start)
	if err != nil {
		var shapeErr *solver.ShapeError
		if errors.As(err, &shapeErr) {
			// Mis-sized frame; discard and keep serving.
			log.Printf("frame seq=%d discarded: %v", hdr.Seq, err)
			s.mu.Lock()
			s.stats.dropped++
			s.mu.Unlock()
			return
		}
		log.Printf("inference seq=%d failed: %v", hdr.Seq, err)
		return
	}

	s.sendResult(hdr.Seq, ts, res)

	s.mu.Lock()
	s.stats.frames++
	s.stats.inferTime += elapsed
	if s.stats.frames%statsLogEvery == 0 {
		avg := s.stats.inferTime / time.Duration(s.stats.frames)
		log.Printf("stats: frames=%d dropped=%d avg_infer=%s",
			s.stats.frames, s.stats.dropped, avg)
	}
	s.mu.Unlock()
}

func (s *UdpServer) sendResult(seq uint16, ts int64, res *solver.Result) {
	if s.sender != nil {
		var pkt []byte
		if s.protocol == "binary" {
			pkt = txlink.EncodeBinary(res.Gamma, res.Temperatures, res.Valid)
		} else {
			pkt = txlink.EncodeHex(res.Temperatures, res.Valid)
		}
		s.sender.Send(pkt, txlink.FlagTemperature)
	}

	out := &wsResult{
		Seq:          seq,
		TS:           ts,
		Path:         res.Path.String(),
		Gamma:        res.Gamma,
		Temperatures: res.Temperatures,
		Valid:        res.Valid,
		Gate:         res.Diag.Gate,
		LogSNR:       res.Diag.LogSNR,
	}

	s.mu.Lock()
	s.last = out
	s.mu.Unlock()

	if s.webHub != nil {
		b, _ := json.Marshal(out)
		s.webHub.Broadcast(b)
	}
}
