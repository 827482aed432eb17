package console

import (
	"github.com/edukit/go-portal-notify/pkg/interfaces/logger"
	"github.com/edukit/go-portal-notify/pkg/interfaces/toast"
)

// Toaster writes toasts to the configured logger for debugging and for
// headless hosts. Browser-facing hosts replace it with their own overlay.
type Toaster struct {
	logger logger.Logger
}

var _ toast.Toaster = (*Toaster)(nil)

// New constructs a console toaster.
func New(l logger.Logger) *Toaster {
	if l == nil {
		l = &logger.Nop{}
	}
	return &Toaster{logger: l}
}

// Show implements toast.Toaster.
func (t *Toaster) Show(n toast.Toast) {
	t.logger.Info("toast", logger.F("event", n.Event), logger.F("title", n.Title))
}
