// Package input maps the keyboard surface onto editor operations. Every
// binding resolves to exactly one store or synchronizer operation; no
// key handler touches anything else.
package input

// Action is an editor operation reachable from the keyboard.
type Action int

const (
	ActionPlayPause Action = iota
	ActionSeekBack
	ActionSeekForward
	ActionMarkIn
	ActionMarkOut
	ActionDelete
	ActionEscape
)

func (a Action) String() string {
	switch a {
	case ActionPlayPause:
		return "play-pause"
	case ActionSeekBack:
		return "seek-back"
	case ActionSeekForward:
		return "seek-forward"
	case ActionMarkIn:
		return "mark-in"
	case ActionMarkOut:
		return "mark-out"
	case ActionDelete:
		return "delete"
	case ActionEscape:
		return "escape"
	default:
		return "unknown"
	}
}

// DefaultBindings is the editor's keymap: space/k toggle playback,
// arrows and j/l seek, i/o mark, Delete/Backspace remove the active
// segment and Escape cancels every transient mode.
func DefaultBindings() map[string]Action {
	return map[string]Action{
		" ":          ActionPlayPause,
		"k":          ActionPlayPause,
		"ArrowLeft":  ActionSeekBack,
		"j":          ActionSeekBack,
		"ArrowRight": ActionSeekForward,
		"l":          ActionSeekForward,
		"i":          ActionMarkIn,
		"o":          ActionMarkOut,
		"Delete":     ActionDelete,
		"Backspace":  ActionDelete,
		"Escape":     ActionEscape,
	}
}

// Handlers holds the operation behind each action. Nil handlers turn
// their action into a no-op.
type Handlers struct {
	PlayPause func() error
	Seek      func(delta float64)
	MarkIn    func() error
	MarkOut   func() error
	Delete    func() error
	Escape    func()
}

// Dispatcher resolves key names to actions and invokes the bound
// operation.
type Dispatcher struct {
	bindings map[string]Action
	handlers Handlers
	seekStep float64
}

// NewDispatcher builds a dispatcher over the default bindings. seekStep
// is the distance in seconds moved by the seek keys.
func NewDispatcher(handlers Handlers, seekStep float64) *Dispatcher {
	if seekStep <= 0 {
		seekStep = 5
	}
	return &Dispatcher{
		bindings: DefaultBindings(),
		handlers: handlers,
		seekStep: seekStep,
	}
}

// Bind overrides a single key binding.
func (d *Dispatcher) Bind(key string, action Action) {
	d.bindings[key] = action
}

// Handle dispatches one key press. Returns false when the key is
// unbound; the error is the bound operation's validation result.
func (d *Dispatcher) Handle(key string) (bool, error) {
	action, ok := d.bindings[key]
	if !ok {
		return false, nil
	}

	switch action {
	case ActionPlayPause:
		if d.handlers.PlayPause != nil {
			return true, d.handlers.PlayPause()
		}
	case ActionSeekBack:
		if d.handlers.Seek != nil {
			d.handlers.Seek(-d.seekStep)
		}
	case ActionSeekForward:
		if d.handlers.Seek != nil {
			d.handlers.Seek(d.seekStep)
		}
	case ActionMarkIn:
		if d.handlers.MarkIn != nil {
			return true, d.handlers.MarkIn()
		}
	case ActionMarkOut:
		if d.handlers.MarkOut != nil {
			return true, d.handlers.MarkOut()
		}
	case ActionDelete:
		if d.handlers.Delete != nil {
			return true, d.handlers.Delete()
		}
	case ActionEscape:
		if d.handlers.Escape != nil {
			d.handlers.Escape()
		}
	}
	return true, nil
}
