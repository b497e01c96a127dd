package ports

import (
	"context"

	"github.com/olusolaa/smartvault/internal/core/domain"
)

type Reporter interface {
	Report(ctx context.Context, summary domain.BackupSummary) error
}
