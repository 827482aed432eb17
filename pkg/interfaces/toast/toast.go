package toast

// Toast is a transient, user-facing notice surfaced by the realtime client
// for a fixed set of push events, independent of any registered handlers.
type Toast struct {
	Event string
	Title string
}

// Toaster presents toasts to the user.
type Toaster interface {
	Show(t Toast)
}

// Func adapts a function to the Toaster interface.
type Func func(t Toast)

func (f Func) Show(t Toast) {
	if f != nil {
		f(t)
	}
}

// Nop discards toasts.
type Nop struct{}

var _ Toaster = (*Nop)(nil)

func (n *Nop) Show(t Toast) {}
