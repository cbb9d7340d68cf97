package typewriter

import (
	"fmt"
	"sync"
)

// Header control names of the standard terminal chrome.
const (
	DotClose    = "close"
	DotMinimize = "minimize"
	DotMaximize = "maximize"
)

// Dot is a decorative window control in the terminal header.
type Dot struct {
	Name  string `json:"name"`
	Color string `json:"color"`
}

// Chrome holds the header controls of a terminal surface. Controls do nothing
// until armed with a dialogue state.
type Chrome struct {
	mu    sync.Mutex
	dots  []Dot
	armed map[string]string
}

// DefaultChrome builds the red, orange and green window dots, left to right.
func DefaultChrome() *Chrome {
	return NewChrome(
		Dot{Name: DotClose, Color: "red"},
		Dot{Name: DotMinimize, Color: "orange"},
		Dot{Name: DotMaximize, Color: "green"},
	)
}

// NewChrome builds header chrome from the given dots.
func NewChrome(dots ...Dot) *Chrome {
	return &Chrome{
		dots:  append([]Dot(nil), dots...),
		armed: make(map[string]string),
	}
}

// Dots returns the header controls in display order.
func (c *Chrome) Dots() []Dot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Dot(nil), c.dots...)
}

// Armed returns the state bound to the named control, if any.
func (c *Chrome) Armed(name string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	target, ok := c.armed[name]
	return target, ok
}

func (c *Chrome) arm(name, target string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, d := range c.dots {
		if d.Name == name {
			if c.armed == nil {
				c.armed = make(map[string]string)
			}
			c.armed[name] = target
			return nil
		}
	}
	return fmt.Errorf("%w: header %q", ErrNoSuchControl, name)
}
