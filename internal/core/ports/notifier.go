package ports

import (
	"context"

	"github.com/olusolaa/smartvault/internal/core/domain"
)

type Notifier interface {
	Type() string
	Notify(ctx context.Context, n domain.Notification) error
}
