package main

import (
	"context"

	"github.com/spf13/viper"

	"github.com/olusolaa/smartvault/internal/app"
)

func bootstrap(ctx context.Context, v *viper.Viper) (*app.Application, error) {
	return app.BuildApplicationFromViper(ctx, v)
}
