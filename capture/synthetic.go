package capture

import (
	"context"
	"math"
	"sync"
	"time"

	"github.com/coregrid/rfbshare/rfb"
)

// SyntheticAdapter is the reference capture.Adapter used by cmd/rfbserver
// and by tests in place of a real OS display-duplication API. It
// produces deterministic animated BGRA frames, grounded on the
// teacher's mock VNC server animation generators, at a fixed cadence.
// Dirty rects are full-screen on the first frame and a small moving
// sub-rect thereafter, exercising dirty-rect passthrough end to end
// without needing real OS support.
type SyntheticAdapter struct {
	Width, Height int
	Pattern       string // "wheel", "plasma", "orbits", "gradient", "waves"
	Cadence       time.Duration

	mu          sync.Mutex
	frameIndex  int
	nextDueAt   time.Time
	initialized bool
	reinits     int
}

// NewSyntheticAdapter returns an adapter producing width x height BGRA
// frames at roughly 30fps (cadence defaults to 33ms if zero).
func NewSyntheticAdapter(width, height int, pattern string, cadence time.Duration) *SyntheticAdapter {
	if cadence <= 0 {
		cadence = 33 * time.Millisecond
	}
	return &SyntheticAdapter{Width: width, Height: height, Pattern: pattern, Cadence: cadence}
}

// Reinits reports how many times Reinit has been called, for tests.
func (a *SyntheticAdapter) Reinits() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.reinits
}

func (a *SyntheticAdapter) Acquire(ctx context.Context, timeoutMS int) (Frame, Status, error) {
	a.mu.Lock()
	if !a.initialized {
		a.nextDueAt = time.Now()
		a.initialized = true
	}
	wait := time.Until(a.nextDueAt)
	a.mu.Unlock()

	if wait > 0 {
		timeout := time.Duration(timeoutMS) * time.Millisecond
		if wait > timeout {
			wait = timeout
		}
		timer := time.NewTimer(wait)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return Frame{}, Fatal, ctx.Err()
		case <-timer.C:
		}
		if time.Until(a.nextDueAt) > 0 {
			return Frame{}, Timeout, nil
		}
	}

	a.mu.Lock()
	idx := a.frameIndex
	a.frameIndex++
	a.nextDueAt = a.nextDueAt.Add(a.Cadence)
	if a.nextDueAt.Before(time.Now()) {
		a.nextDueAt = time.Now().Add(a.Cadence)
	}
	a.mu.Unlock()

	pixels := generatePattern(a.Pattern, idx, a.Width, a.Height)

	var dirty []rfb.Rect
	if idx == 0 {
		dirty = []rfb.Rect{rfb.FullScreen(a.Width, a.Height)}
	} else {
		dirty = []rfb.Rect{movingDirtyRect(idx, a.Width, a.Height)}
	}

	return Frame{Pixels: pixels, Width: a.Width, Height: a.Height, DirtyRects: dirty}, Acquired, nil
}

func (a *SyntheticAdapter) Reinit() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.reinits++
	a.frameIndex = 0
	a.initialized = false
	return nil
}

func (a *SyntheticAdapter) Close() error {
	return nil
}

// movingDirtyRect returns a small rect that sweeps across the
// framebuffer over time, clamped to stay fully in bounds.
func movingDirtyRect(frameIndex, width, height int) rfb.Rect {
	const size = 40
	if width <= size || height <= size {
		return rfb.FullScreen(width, height)
	}
	spanX := width - size
	spanY := height - size
	x := frameIndex % spanX
	y := (frameIndex * 3) % spanY
	return rfb.Rect{X: x, Y: y, W: size, H: size}
}

func generatePattern(pattern string, frameIndex, width, height int) []byte {
	switch pattern {
	case "plasma":
		return generatePlasma(frameIndex, width, height)
	case "orbits":
		return generateOrbitingCircles(frameIndex, width, height)
	case "gradient":
		return generateGradientSweep(frameIndex, width, height)
	case "waves":
		return generateAlphaWaves(frameIndex, width, height)
	default:
		return generateColorWheel(frameIndex, width, height)
	}
}

func generateColorWheel(frameNumber, width, height int) []byte {
	pixelData := make([]byte, width*height*4)
	centerX := float64(width) / 2
	centerY := float64(height) / 2
	maxRadius := math.Min(centerX, centerY) * 0.8
	rotation := float64(frameNumber) * 2 * math.Pi / 120

	for i := 0; i < len(pixelData); i += 4 {
		pixel := i / 4
		row := pixel / width
		col := pixel % width

		dx := float64(col) - centerX
		dy := float64(row) - centerY
		distance := math.Sqrt(dx*dx + dy*dy)
		angle := math.Atan2(dy, dx) + rotation

		if distance <= maxRadius {
			hue := angle * 180 / math.Pi
			if hue < 0 {
				hue += 360
			}
			r, g, b := hsvToRGB(hue, distance/maxRadius, 1.0)
			pixelData[i] = uint8(b * 255)
			pixelData[i+1] = uint8(g * 255)
			pixelData[i+2] = uint8(r * 255)
			pixelData[i+3] = 255
		} else {
			pixelData[i+3] = 255
		}
	}
	return pixelData
}

func generateAlphaWaves(frameNumber, width, height int) []byte {
	pixelData := make([]byte, width*height*4)
	timeOffset := float64(frameNumber) * 0.1

	for i := 0; i < len(pixelData); i += 4 {
		pixel := i / 4
		row := pixel / width
		col := pixel % width

		x := float64(col) / float64(width) * 4 * math.Pi
		y := float64(row) / float64(height) * 3 * math.Pi

		wave1 := math.Sin(x + timeOffset)
		wave2 := math.Sin(y + timeOffset*1.3)
		wave3 := math.Sin((x+y)*0.5 + timeOffset*0.7)

		r := (wave1 + 1) / 2
		g := (wave2 + 1) / 2
		b := (wave3 + 1) / 2

		pixelData[i] = uint8(b * 255)
		pixelData[i+1] = uint8(g * 255)
		pixelData[i+2] = uint8(r * 255)
		pixelData[i+3] = 255
	}
	return pixelData
}

func generatePlasma(frameNumber, width, height int) []byte {
	pixelData := make([]byte, width*height*4)
	t := float64(frameNumber) * 0.05

	for i := 0; i < len(pixelData); i += 4 {
		pixel := i / 4
		row := pixel / width
		col := pixel % width

		x := float64(col) / float64(width)
		y := float64(row) / float64(height)

		v1 := math.Sin(x*10 + t)
		v2 := math.Sin(y*10 + t*1.2)
		v3 := math.Sin((x+y)*10 + t*0.8)
		v4 := math.Sin(math.Sqrt(x*x+y*y)*10+t*1.5)

		plasma := (v1 + v2 + v3 + v4) / 4
		hue := (plasma + 1) * 180
		r, g, b := hsvToRGB(hue, 0.8, 0.9)

		pixelData[i] = uint8(b * 255)
		pixelData[i+1] = uint8(g * 255)
		pixelData[i+2] = uint8(r * 255)
		pixelData[i+3] = 255
	}
	return pixelData
}

func generateOrbitingCircles(frameNumber, width, height int) []byte {
	pixelData := make([]byte, width*height*4)
	for i := 3; i < len(pixelData); i += 4 {
		pixelData[i] = 255
	}

	centerX := float64(width) / 2
	centerY := float64(height) / 2
	orbitRadius := math.Min(centerX, centerY) * 0.6
	numCircles := 5
	t := float64(frameNumber) * 0.1

	for c := 0; c < numCircles; c++ {
		phase := float64(c) * 2 * math.Pi / float64(numCircles)
		speed := 1.0 + float64(c)*0.3
		angle := t*speed + phase

		circleX := centerX + math.Cos(angle)*orbitRadius
		circleY := centerY + math.Sin(angle)*orbitRadius
		circleRadius := 30.0 + float64(c)*10

		hue := float64(c) * 360 / float64(numCircles)
		r, g, b := hsvToRGB(hue, 0.8, 0.9)

		for i := 0; i < len(pixelData); i += 4 {
			pixel := i / 4
			row := pixel / width
			col := pixel % width

			dx := float64(col) - circleX
			dy := float64(row) - circleY
			distance := math.Sqrt(dx*dx + dy*dy)

			if distance <= circleRadius {
				pixelData[i] = uint8(b * 255)
				pixelData[i+1] = uint8(g * 255)
				pixelData[i+2] = uint8(r * 255)
			}
		}
	}
	return pixelData
}

func generateGradientSweep(frameNumber, width, height int) []byte {
	pixelData := make([]byte, width*height*4)
	rotation := float64(frameNumber) * 2 * math.Pi / 90
	centerX := float64(width) / 2
	centerY := float64(height) / 2

	for i := 0; i < len(pixelData); i += 4 {
		pixel := i / 4
		row := pixel / width
		col := pixel % width

		dx := float64(col) - centerX
		dy := float64(row) - centerY
		angle := math.Atan2(dy, dx) + rotation

		normalizedAngle := (angle + math.Pi) / (2 * math.Pi)
		normalizedAngle -= math.Floor(normalizedAngle)

		hue := normalizedAngle * 360
		r, g, b := hsvToRGB(hue, 0.9, 0.8)

		pixelData[i] = uint8(b * 255)
		pixelData[i+1] = uint8(g * 255)
		pixelData[i+2] = uint8(r * 255)
		pixelData[i+3] = 255
	}
	return pixelData
}

// hsvToRGB converts an HSV triple (h in degrees) to RGB in [0,1].
func hsvToRGB(h, s, v float64) (float64, float64, float64) {
	h = math.Mod(h, 360) / 60
	c := v * s
	x := c * (1 - math.Abs(math.Mod(h, 2)-1))
	m := v - c

	var r, g, b float64
	switch int(h) {
	case 0:
		r, g, b = c, x, 0
	case 1:
		r, g, b = x, c, 0
	case 2:
		r, g, b = 0, c, x
	case 3:
		r, g, b = 0, x, c
	case 4:
		r, g, b = x, 0, c
	default:
		r, g, b = c, 0, x
	}
	return r + m, g + m, b + m
}
