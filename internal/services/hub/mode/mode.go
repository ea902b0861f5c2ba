// Package mode owns the hub's single operating mode.
//
// The mode decides how a scan is read: in assign mode a scan asks the
// verifier whether the tag is taken; in attendance mode it is a check-in.
package mode

import (
	"log"
	"sync"

	apperrors "github.com/louisbranch/rfidhub/internal/platform/errors"
)

// Mode is the hub's operating mode.
type Mode string

const (
	Assign     Mode = "assign"
	Attendance Mode = "attendance"
)

// Default is the mode a freshly started hub runs in.
const Default = Attendance

// Valid reports whether m is one of the known modes.
func (m Mode) Valid() bool {
	return m == Assign || m == Attendance
}

func (m Mode) String() string {
	return string(m)
}

// Parse validates a requested mode value. Matching is exact.
func Parse(value string) (Mode, error) {
	m := Mode(value)
	if !m.Valid() {
		return "", apperrors.WithMetadata(
			apperrors.CodeModeInvalid,
			"invalid mode value "+value,
			map[string]string{"Mode": value},
		)
	}
	return m, nil
}

// Controller serializes reads and transitions of the global mode.
type Controller struct {
	mu      sync.RWMutex
	current Mode
}

// NewController returns a controller starting at initial, or at Default when
// initial is not a valid mode.
func NewController(initial Mode) *Controller {
	if !initial.Valid() {
		initial = Default
	}
	return &Controller{current: initial}
}

// Get returns the current mode.
func (c *Controller) Get() Mode {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.current
}

// Set validates requested and makes it the current mode. On error the
// current mode is left unchanged.
func (c *Controller) Set(requested string) (Mode, error) {
	next, err := Parse(requested)
	if err != nil {
		return "", err
	}

	c.mu.Lock()
	previous := c.current
	c.current = next
	c.mu.Unlock()

	if previous != next {
		log.Printf("hub: mode changed from %q to %q", previous, next)
	}
	return next, nil
}
