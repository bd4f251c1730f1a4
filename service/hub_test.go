package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lixenwraith/skyfight/engine"
)

type journal struct {
	mu    sync.Mutex
	lines []string
}

func (j *journal) add(s string) {
	j.mu.Lock()
	j.lines = append(j.lines, s)
	j.mu.Unlock()
}

type fakeService struct {
	name      string
	deps      []string
	j         *journal
	failInit  bool
	failStart bool
}

func (f *fakeService) Name() string           { return f.name }
func (f *fakeService) Dependencies() []string { return f.deps }

func (f *fakeService) Init() error {
	if f.failInit {
		return errors.New("init refused")
	}
	f.j.add("init " + f.name)
	return nil
}

func (f *fakeService) Start(context.Context) error {
	if f.failStart {
		return errors.New("start refused")
	}
	f.j.add("start " + f.name)
	return nil
}

func (f *fakeService) Stop() error {
	f.j.add("stop " + f.name)
	return nil
}

func TestHubDependencyOrder(t *testing.T) {
	j := &journal{}
	h := NewHub(zerolog.Nop())
	require.NoError(t, h.Register(&fakeService{name: "gateway", deps: []string{"simulation"}, j: j}))
	require.NoError(t, h.Register(&fakeService{name: "recorder", deps: []string{"simulation"}, j: j}))
	require.NoError(t, h.Register(&fakeService{name: "simulation", j: j}))
	assert.Error(t, h.Register(&fakeService{name: "simulation", j: j}))

	require.NoError(t, h.InitAll())
	require.NoError(t, h.StartAll(context.Background()))
	require.NoError(t, h.StopAll())

	assert.Equal(t, []string{"simulation", "gateway", "recorder"}, h.Order())
	assert.Equal(t, []string{
		"init simulation", "init gateway", "init recorder",
		"start simulation", "start gateway", "start recorder",
		"stop recorder", "stop gateway", "stop simulation",
	}, j.lines)
}

func TestHubRollback(t *testing.T) {
	j := &journal{}
	h := NewHub(zerolog.Nop())
	require.NoError(t, h.Register(&fakeService{name: "a", j: j}))
	require.NoError(t, h.Register(&fakeService{name: "b", deps: []string{"a"}, j: j, failInit: true}))

	err := h.InitAll()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "service b init failed")
	assert.Equal(t, []string{"init a", "stop a"}, j.lines)

	j2 := &journal{}
	h2 := NewHub(zerolog.Nop())
	require.NoError(t, h2.Register(&fakeService{name: "a", j: j2}))
	require.NoError(t, h2.Register(&fakeService{name: "b", deps: []string{"a"}, j: j2, failStart: true}))
	require.NoError(t, h2.InitAll())
	require.Error(t, h2.StartAll(context.Background()))
	assert.Equal(t, []string{"init a", "init b", "start a", "stop b", "stop a"}, j2.lines)
}

func TestHubDependencyErrors(t *testing.T) {
	h := NewHub(zerolog.Nop())
	require.NoError(t, h.Register(&fakeService{name: "a", deps: []string{"missing"}, j: &journal{}}))
	assert.ErrorContains(t, h.InitAll(), "unregistered service: missing")

	h = NewHub(zerolog.Nop())
	require.NoError(t, h.Register(&fakeService{name: "a", deps: []string{"b"}, j: &journal{}}))
	require.NoError(t, h.Register(&fakeService{name: "b", deps: []string{"a"}, j: &journal{}}))
	assert.ErrorContains(t, h.InitAll(), "circular dependency")
}

func TestMustGet(t *testing.T) {
	h := NewHub(zerolog.Nop())
	sim := NewSimulation(engine.NewSession(), time.Millisecond, zerolog.Nop())
	require.NoError(t, h.Register(sim))

	assert.Same(t, sim, MustGet[*Simulation](h, SimulationName))
	assert.Panics(t, func() { MustGet[*Simulation](h, "nope") })
	assert.Panics(t, func() { MustGet[*fakeService](h, SimulationName) })
}

func TestSimulationTicksSession(t *testing.T) {
	sim := NewSimulation(engine.NewSession(), 2*time.Millisecond, zerolog.Nop())
	require.NoError(t, sim.Init())
	require.NoError(t, sim.Start(context.Background()))
	time.Sleep(80 * time.Millisecond)
	require.NoError(t, sim.Stop())
	require.NoError(t, sim.Stop())

	assert.Positive(t, sim.Frames())
	assert.Positive(t, sim.Session().Tick())
}
