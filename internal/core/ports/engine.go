package ports

import (
	"context"

	"github.com/olusolaa/smartvault/internal/core/domain"
)

type BackupEngine interface {
	Run(ctx context.Context) (domain.BackupSummary, error)
}
