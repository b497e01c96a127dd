package app

import (
	"context"

	"github.com/olusolaa/smartvault/internal/config"
	"github.com/olusolaa/smartvault/internal/core/domain"
	"github.com/olusolaa/smartvault/internal/core/ports"
)

// Application runs backup cycles with a fully wired engine.
type Application struct {
	Engine ports.BackupEngine
	Logger ports.Logger
	Config *config.Config
}

func NewApplication(engine ports.BackupEngine, logger ports.Logger, cfg *config.Config) *Application {
	return &Application{
		Engine: engine,
		Logger: logger,
		Config: cfg,
	}
}

// Run executes one backup cycle, bounded by settings.timeout when set.
func (a *Application) Run(ctx context.Context) (domain.BackupSummary, error) {
	if a.Config != nil && a.Config.Settings.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.Config.Settings.Timeout)
		defer cancel()
	}

	a.Logger.Infof(ctx, "Starting backup run...")
	summary, err := a.Engine.Run(ctx)
	if err != nil {
		a.Logger.Errorf(ctx, err, "Backup run finished with errors")
		return summary, err
	}

	a.Logger.Infof(ctx, "Backup run completed successfully")
	return summary, nil
}
