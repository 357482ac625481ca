package llm

import (
	"context"
	"time"

	"github.com/adilans/parley/internal/observability"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
)

const probeTimeout = 10 * time.Second

// Monitor probes a client's health on a cron schedule and exports the result
// as the model_up gauge.
type Monitor struct {
	client   Client
	schedule string
	cron     *cron.Cron
}

// NewMonitor creates a health monitor. schedule uses cron syntax, e.g.
// "@every 30s".
func NewMonitor(client Client, schedule string) *Monitor {
	return &Monitor{
		client:   client,
		schedule: schedule,
		cron:     cron.New(),
	}
}

// Start runs an immediate probe and begins the schedule.
func (m *Monitor) Start() error {
	if _, err := m.cron.AddFunc(m.schedule, m.Probe); err != nil {
		return err
	}
	m.Probe()
	m.cron.Start()
	return nil
}

// Stop halts the schedule and waits for a running probe to finish.
func (m *Monitor) Stop() {
	ctx := m.cron.Stop()
	<-ctx.Done()
}

// Probe performs one health check.
func (m *Monitor) Probe() {
	ctx, cancel := context.WithTimeout(context.Background(), probeTimeout)
	defer cancel()

	up, err := m.client.HealthCheck(ctx)
	observability.SetModelUp(up && err == nil)

	if err != nil {
		log.Warn().Err(err).Msg("Model service unreachable")
		return
	}
	log.Debug().Bool("up", up).Msg("Model service probed")
}
