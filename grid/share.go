package grid

import "fmt"

// ShareGroup counts steps between halo exchanges. With a halo of width h the ghosts
// stay usable for up to h steps, so the interval may not exceed h.
type ShareGroup struct {
	shareStep int32
	interval  int32
}

func NewShareGroup(interval, halo int32) (*ShareGroup, error) {
	if interval < 1 || interval > halo {
		return nil, fmt.Errorf("%w: share interval %d with halo %d", ErrConfig, interval, halo)
	}
	return &ShareGroup{interval: interval}, nil
}

func (s *ShareGroup) Interval() int32 { return s.interval }

func (s *ShareGroup) NextShareStep() { s.shareStep++ }

func (s *ShareGroup) IsShareTime() bool { return s.shareStep >= s.interval }

func (s *ShareGroup) ZeroShareStep() { s.shareStep = 0 }
