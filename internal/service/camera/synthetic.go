package camera

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"math/rand/v2"
	"time"

	"github.com/medYousseffathallah/Datacollector/internal/model"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

const (
	// SyntheticFPS is the cadence of generated frames.
	SyntheticFPS = 15
	// SyntheticSize is the side of the square generated frames.
	SyntheticSize = 640
)

var errSyntheticClosed = errors.New("synthetic source is closed")

// SyntheticSource generates random-noise frames at a fixed cadence. It stands in
// for a camera on hosts without hardware.
type SyntheticSource struct {
	label   string
	width   int
	height  int
	period  time.Duration
	quality int
	rng     *rand.ChaCha8
	open    bool
	next    time.Time
	count   uint64
}

// NewSyntheticSource creates a generator whose frames are stamped with label.
func NewSyntheticSource(label string, width, height, fps int) *SyntheticSource {
	if width <= 0 {
		width = SyntheticSize
	}
	if height <= 0 {
		height = SyntheticSize
	}
	if fps <= 0 {
		fps = SyntheticFPS
	}

	var seed [32]byte
	now := uint64(time.Now().UnixNano())
	for i := 0; i < 8; i++ {
		seed[i] = byte(now >> (8 * i))
	}
	copy(seed[8:], label)

	return &SyntheticSource{
		label:   label,
		width:   width,
		height:  height,
		period:  time.Second / time.Duration(fps),
		quality: 80,
		rng:     rand.NewChaCha8(seed),
	}
}

func (s *SyntheticSource) Open() error {
	s.open = true
	s.next = time.Now()
	return nil
}

// Read blocks until the next tick and returns a freshly generated frame.
func (s *SyntheticSource) Read() (*model.Frame, error) {
	if !s.open {
		return nil, errSyntheticClosed
	}

	if wait := time.Until(s.next); wait > 0 {
		time.Sleep(wait)
	}
	s.next = s.next.Add(s.period)
	if behind := time.Since(s.next); behind > s.period {
		s.next = time.Now()
	}

	img := image.NewRGBA(image.Rect(0, 0, s.width, s.height))
	_, _ = s.rng.Read(img.Pix)
	for i := 3; i < len(img.Pix); i += 4 {
		img.Pix[i] = 0xff
	}

	s.count++
	d := font.Drawer{
		Dst:  img,
		Src:  image.White,
		Face: basicfont.Face7x13,
		Dot:  fixed.P(8, 20),
	}
	d.DrawString(fmt.Sprintf("%s #%d", s.label, s.count))

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: s.quality}); err != nil {
		return nil, fmt.Errorf("failed to encode synthetic frame: %w", err)
	}

	return &model.Frame{
		CapturedAt: time.Now(),
		Width:      s.width,
		Height:     s.height,
		Data:       buf.Bytes(),
	}, nil
}

func (s *SyntheticSource) Close() error {
	s.open = false
	return nil
}
