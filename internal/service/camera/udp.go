package camera

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	"net"
	"strings"
	"time"

	"github.com/medYousseffathallah/Datacollector/internal/model"
)

// UDPScheme selects a UDPSource, e.g. "udp://:5005".
const UDPScheme = "udp://"

const (
	udpPacketSize  = 65535
	udpReadTimeout = 5 * time.Second
	// udpMaxFrame caps a reassembled frame; a stream without markers is dropped.
	udpMaxFrame = 8 << 20
)

var (
	jpegHeader = []byte{0xFF, 0xD8}
	jpegFooter = []byte{0xFF, 0xD9}
)

// UDPSource listens for JPEG frames pushed by a camera as a sequence of UDP
// packets. A packet starting with the JPEG SOI marker begins a frame and one
// ending with the EOI marker completes it.
type UDPSource struct {
	addr        string
	readTimeout time.Duration
	maxFrame    int
	conn        *net.UDPConn
	frame       bytes.Buffer
	packet      []byte
}

// NewUDPSource creates a closed source listening on addr once opened.
func NewUDPSource(addr string) *UDPSource {
	return &UDPSource{addr: addr, readTimeout: udpReadTimeout, maxFrame: udpMaxFrame}
}

// IsUDPURL reports whether url selects a UDPSource.
func IsUDPURL(url string) bool {
	return strings.HasPrefix(strings.ToLower(url), UDPScheme)
}

func (s *UDPSource) Open() error {
	addr, err := net.ResolveUDPAddr("udp", s.addr)
	if err != nil {
		return fmt.Errorf("failed to resolve UDP address %s: %w", s.addr, err)
	}

	conn, err := net.ListenUDP("udp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on UDP %s: %w", s.addr, err)
	}

	s.conn = conn
	s.packet = make([]byte, udpPacketSize)
	s.frame.Reset()
	return nil
}

// LocalAddr returns the bound address, or nil before Open.
func (s *UDPSource) LocalAddr() net.Addr {
	if s.conn == nil {
		return nil
	}
	return s.conn.LocalAddr()
}

// Read blocks until a complete JPEG arrives. Silence longer than the read
// timeout is an error so the stream can reconnect.
func (s *UDPSource) Read() (*model.Frame, error) {
	if s.conn == nil {
		return nil, errors.New("udp source is not open")
	}

	for {
		if err := s.conn.SetReadDeadline(time.Now().Add(s.readTimeout)); err != nil {
			return nil, err
		}
		n, _, err := s.conn.ReadFromUDP(s.packet)
		if err != nil {
			return nil, fmt.Errorf("error reading UDP packet: %w", err)
		}

		data := s.packet[:n]
		if bytes.HasPrefix(data, jpegHeader) {
			s.frame.Reset()
		}
		if s.frame.Len()+len(data) > s.maxFrame {
			s.frame.Reset()
			continue
		}
		s.frame.Write(data)

		if !bytes.HasSuffix(data, jpegFooter) {
			continue
		}

		full := make([]byte, s.frame.Len())
		copy(full, s.frame.Bytes())
		s.frame.Reset()

		cfg, _, err := image.DecodeConfig(bytes.NewReader(full))
		if err != nil {
			// torn frame: a packet was lost, wait for the next one
			continue
		}
		return &model.Frame{Width: cfg.Width, Height: cfg.Height, Data: full}, nil
	}
}

func (s *UDPSource) Close() error {
	if s.conn == nil {
		return nil
	}
	err := s.conn.Close()
	s.conn = nil
	return err
}
