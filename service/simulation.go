package service

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/lixenwraith/skyfight/engine"
)

// SimulationName is the hub name of the tick driver, transports depend on it
const SimulationName = "simulation"

// Simulation drives a Session from the wall clock
type Simulation struct {
	Base
	session *engine.Session
	driver  *engine.ClockScheduler
}

// NewSimulation wires a wall-clock driver to session, frame <= 0 uses the default cadence
func NewSimulation(session *engine.Session, frame time.Duration, log zerolog.Logger) *Simulation {
	driver := engine.NewClockScheduler(session, nil, frame)
	driver.OnCrash(func(err error) {
		log.Error().Err(err).Msg("Simulation frame panicked")
	})
	return &Simulation{session: session, driver: driver}
}

func (s *Simulation) Name() string { return SimulationName }

func (s *Simulation) Session() *engine.Session { return s.session }

func (s *Simulation) Start(context.Context) error {
	s.driver.Start()
	return nil
}

func (s *Simulation) Stop() error {
	s.driver.Stop()
	return nil
}

// Frames returns the number of frames driven so far
func (s *Simulation) Frames() uint64 { return s.driver.Frames() }
