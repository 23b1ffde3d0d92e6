package models

import "fmt"

// Phase is the logical state of the window actuator.
type Phase int

const (
	PhaseUnknown Phase = iota
	PhaseOpening
	PhaseClosing
	PhaseStopped
	PhaseShutdown
)

var phaseNames = map[Phase]string{
	PhaseUnknown:  "unknown",
	PhaseOpening:  "opening",
	PhaseClosing:  "closing",
	PhaseStopped:  "stopped",
	PhaseShutdown: "shutdown",
}

func (p Phase) String() string {
	if s, ok := phaseNames[p]; ok {
		return s
	}
	return fmt.Sprintf("phase(%d)", int(p))
}

// ParsePhase is the inverse of String. Unrecognised names map to PhaseUnknown.
func ParsePhase(s string) Phase {
	for p, name := range phaseNames {
		if name == s {
			return p
		}
	}
	return PhaseUnknown
}

// Label renders the phase for humans, e.g. "stopped (closing)".
func (p Phase) Label(previous Phase) string {
	if p == PhaseStopped && (previous == PhaseOpening || previous == PhaseClosing) {
		return fmt.Sprintf("%s (%s)", p, previous)
	}
	return p.String()
}

// Moving reports whether the phase powers the motor.
func (p Phase) Moving() bool {
	return p == PhaseOpening || p == PhaseClosing
}
