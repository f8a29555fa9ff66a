package obslog

import (
	"github.com/go-logr/logr"
	"github.com/go-logr/zapr"
	"go.uber.org/zap"
)

// AsLogr adapts a *zap.Logger to logr.Logger for collaborator interfaces
// (defined in pkg/collab) that accept logr.Logger the way the teacher's
// controller-runtime-adjacent packages do.
func AsLogr(z *zap.Logger) logr.Logger {
	return zapr.NewLogger(z)
}
