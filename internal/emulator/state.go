package emulator

import (
	"errors"
	"math/rand/v2"
	"sync/atomic"

	"github.com/nabilhasan01/CSE499A/internal/model"
)

// State holds the reading currently served by /handledata. Refresh swaps
// the whole value, so readers never see a half-updated reading.
type State struct {
	presets []model.SensorReading
	current atomic.Pointer[model.SensorReading]
	pick    func(n int) int
}

func NewState(presets []model.SensorReading) (*State, error) {
	if len(presets) == 0 {
		return nil, errors.New("emulator needs at least one preset")
	}
	s := &State{
		presets: append([]model.SensorReading(nil), presets...),
		pick:    rand.IntN,
	}
	first := s.presets[0]
	s.current.Store(&first)
	return s, nil
}

func (s *State) Current() model.SensorReading {
	return *s.current.Load()
}

// Refresh replaces the current reading with a randomly chosen preset.
func (s *State) Refresh() model.SensorReading {
	next := s.presets[s.pick(len(s.presets))]
	s.current.Store(&next)
	return next
}
