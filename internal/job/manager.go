// Package job schedules background maintenance.
package job

import (
	"log/slog"

	"virtuefeed/internal/middleware"

	"github.com/robfig/cron/v3"
)

// Manager owns the cron engine. Specs use the six-field form with seconds.
type Manager struct {
	engine *cron.Cron
}

func NewManager() *Manager {
	return &Manager{engine: cron.New(cron.WithSeconds())}
}

// Register schedules j; an empty spec leaves the job disabled.
func (m *Manager) Register(name, spec string, j cron.Job) error {
	if spec == "" {
		middleware.Logger.Info("job disabled", slog.String("job", name))
		return nil
	}
	if _, err := m.engine.AddJob(spec, j); err != nil {
		return err
	}
	middleware.Logger.Info("job scheduled", slog.String("job", name), slog.String("spec", spec))
	return nil
}

func (m *Manager) Start() {
	m.engine.Start()
}

// Stop halts scheduling and waits for running jobs to finish.
func (m *Manager) Stop() {
	<-m.engine.Stop().Done()
}
