package components

import (
	"fmt"
	"slices"
	"strings"
	"time"
)

// ConnectionStatus is the last known state of one venue feed.
type ConnectionStatus struct {
	Name       string
	Connected  bool
	Latency    time.Duration
	LastUpdate time.Time
}

func (c ConnectionStatus) label() string {
	if !c.Connected {
		return downStyle.Render("○ " + c.Name + " (down)")
	}
	text := "● " + c.Name
	if c.Latency > 0 {
		text += fmt.Sprintf(" (%dms)", c.Latency.Milliseconds())
	}
	return upStyle.Render(text)
}

// StatusComponent lists feeds in the order they first reported.
type StatusComponent struct {
	connections []ConnectionStatus
}

func NewStatusComponent() *StatusComponent {
	return &StatusComponent{}
}

func (s *StatusComponent) index(name string) int {
	return slices.IndexFunc(s.connections, func(c ConnectionStatus) bool { return c.Name == name })
}

// Update replaces the entry with the same name or appends a new one.
func (s *StatusComponent) Update(status ConnectionStatus) {
	if i := s.index(status.Name); i >= 0 {
		s.connections[i] = status
		return
	}
	s.connections = append(s.connections, status)
}

func (s *StatusComponent) Get(name string) (ConnectionStatus, bool) {
	if i := s.index(name); i >= 0 {
		return s.connections[i], true
	}
	return ConnectionStatus{}, false
}

func (s *StatusComponent) View() string {
	if len(s.connections) == 0 {
		return "No connections"
	}
	labels := make([]string, len(s.connections))
	for i, c := range s.connections {
		labels[i] = c.label()
	}
	return strings.Join(labels, "  ")
}
