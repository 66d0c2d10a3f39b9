package adapter

import (
	"context"

	"github.com/adb3502/liims-sub002/models"
)

//go:generate mockgen -source=interfaces.go -destination=../mock/adapter_mock.go -package=mock

// ServerAdapter is the outbound transport to the server of record. Token
// attachment is handled here; token issuance and refresh live outside the
// sync core.
type ServerAdapter interface {
	// PushMutations submits one batch of queued mutations and returns the
	// server's verdict. A returned error is always transport-level
	// (unreachable host, timeout, non-2xx status); per-mutation business
	// rejections ride inside the response.
	PushMutations(ctx context.Context, req models.PushRequest) (models.PushResponse, error)

	// Health checks whether the server is reachable. Used by the
	// connectivity monitor.
	Health(ctx context.Context) error

	// SetToken stores the bearer token attached to subsequent requests.
	SetToken(token string)
}
