package txlink

import (
	"log"
	"net"
	"sync"
	"time"
)

type message struct {
	data []byte
	flag uint32
}

type udpTarget struct {
	addr *net.UDPAddr
	flag uint32
}

type tcpClient struct {
	addr    string
	flag    uint32
	queue   chan *message
	running bool
	wg      sync.WaitGroup
}

// Sender fans encoded result frames out to configured downlink targets.
// UDP targets are fire-and-forget; TCP targets queue behind a
// reconnecting writer goroutine and drop when the queue is full.
type Sender struct {
	udpTargets []*udpTarget
	tcpClients []*tcpClient
	connUDP    *net.UDPConn
	running    bool
}

func NewSender() *Sender {
	return &Sender{
		udpTargets: make([]*udpTarget, 0),
		tcpClients: make([]*tcpClient, 0),
	}
}

func (s *Sender) AddUDPTarget(addr string, flag uint32) error {
	uaddr, err := net.ResolveUDPAddr("udp", addr)
	if err != nil {
		return err
	}
	s.udpTargets = append(s.udpTargets, &udpTarget{addr: uaddr, flag: flag})
	return nil
}

func (s *Sender) AddTCPTarget(addr string, flag uint32) {
	s.tcpClients = append(s.tcpClients, &tcpClient{
		addr:  addr,
		flag:  flag,
		queue: make(chan *message, 1000),
	})
}

func (s *Sender) Start() error {
	conn, err := net.ListenUDP("udp", nil)
	if err != nil {
		return err
	}
	s.connUDP = conn
	s.running = true

	for _, c := range s.tcpClients {
		c.start()
	}
	return nil
}

func (s *Sender) Stop() {
	s.running = false
	if s.connUDP != nil {
		s.connUDP.Close()
	}
	for _, c := range s.tcpClients {
		c.stop()
	}
}

// Send delivers data to every target whose mask covers flag.
func (s *Sender) Send(data []byte, flag uint32) {
	if !s.running {
		return
	}

	msg := &message{data: data, flag: flag}

	for _, t := range s.udpTargets {
		if (t.flag & flag) == flag {
			_, _ = s.connUDP.WriteToUDP(data, t.addr)
		}
	}

	for _, c := range s.tcpClients {
		if (c.flag & flag) == flag {
			select {
			case c.queue <- msg:
			default:
				// Queue full; drop rather than block acquisition.
			}
		}
	}
}

func (c *tcpClient) start() {
	c.running = true
	c.wg.Add(1)
	go c.loop()
}

func (c *tcpClient) stop() {
	c.running = false
	close(c.queue)
	c.wg.Wait()
}

func (c *tcpClient) loop() {
	defer c.wg.Done()
	var conn net.Conn
	var err error

	connect := func() bool {
		if conn != nil {
			return true
		}
		conn, err = net.DialTimeout("tcp", c.addr, 2*time.Second)
		return err == nil
	}

	for msg := range c.queue {
		if !c.running {
			break
		}
		if !connect() {
			time.Sleep(500 * time.Millisecond)
			if !connect() {
				continue // drop this message
			}
		}
		conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
		if _, err = conn.Write(msg.data); err != nil {
			log.Printf("txlink: TCP write to %s failed: %v", c.addr, err)
			conn.Close()
			conn = nil
			time.Sleep(100 * time.Millisecond)
		}
	}
	if conn != nil {
		conn.Close()
	}
}
