package helpers

import (
	"context"

	"github.com/GregMSThompson/analytics-dashboard/pkg/logger"
)

// TestCtx returns a context carrying a test logger.
func TestCtx() context.Context {
	return logger.ToContext(context.Background(), logger.NewTestLogger())
}
