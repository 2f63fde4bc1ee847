// Package output declares the physical output capabilities the monitor drives.
//
// The drivers behind these interfaces (GPIO, addressable light strips,
// character displays, relays) live outside the core. internal/term provides
// terminal renditions used when no hardware is attached.
package output

import "fmt"

// Initializer is implemented by outputs that need a start-up step. A failed
// Init leaves that output inert; other outputs keep running.
type Initializer interface {
	Init() error
}

// LED is a single binary indicator.
type LED interface {
	SetLit(on bool)
}

// Color is a 24-bit RGB colour.
type Color struct {
	R, G, B uint8
}

// Hex returns the colour as "#rrggbb".
func (c Color) Hex() string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

// Segment is one lit position on a level strip.
type Segment struct {
	Index int
	Color Color
}

// LevelStrip is an addressable light strip used as a bar indicator.
// Changes become visible on Present.
type LevelStrip interface {
	Clear()
	SetSegments(segs []Segment)
	Present()
}

// Point is a character-cell position, X to the right and Y down.
type Point struct {
	X, Y int
}

// Rect is a character-cell rectangle.
type Rect struct {
	X, Y, W, H int
}

// Display is a small status display. Changes become visible on Present.
type Display interface {
	Clear()
	DrawText(at Point, text string)
	DrawRect(r Rect, filled bool)
	Present()
}

// Actuators drives named on/off outputs such as relays.
type Actuators interface {
	SetActuator(name string, on bool)
}
