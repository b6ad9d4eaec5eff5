package notification

import (
	"context"
	"strconv"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// TenantEmailLookup resolves the contact address for a tenant. An empty
// string means the tenant has no email on file.
type TenantEmailLookup func(ctx context.Context, tenantID uuid.UUID) (string, error)

// CopyNotifier emails a tenant a summary when a batch of catalog services has
// been copied into their practice. Every failure is logged and swallowed;
// notification must never affect the copy itself.
type CopyNotifier struct {
	manager *NotificationManager
	lookup  TenantEmailLookup
	logger  zerolog.Logger
}

func NewCopyNotifier(manager *NotificationManager, lookup TenantEmailLookup, logger zerolog.Logger) *CopyNotifier {
	return &CopyNotifier{manager: manager, lookup: lookup, logger: logger}
}

// BatchCopyCompleted sends the services-copied summary email.
func (n *CopyNotifier) BatchCopyCompleted(ctx context.Context, tenantID uuid.UUID, copied, failed int) {
	email, err := n.lookup(ctx, tenantID)
	if err != nil {
		n.logger.Warn().Err(err).Str("tenant_id", tenantID.String()).
			Msg("tenant email lookup failed, copy summary not sent")
		return
	}
	if email == "" {
		return
	}

	data := map[string]string{
		"copied": strconv.Itoa(copied),
		"failed": strconv.Itoa(failed),
	}
	if _, err := n.manager.SendFromTemplate(ctx, "services-copied", data, email); err != nil {
		n.logger.Error().Err(err).Str("tenant_id", tenantID.String()).
			Msg("copy summary email failed")
	}
}
