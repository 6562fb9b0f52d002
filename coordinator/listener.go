package coordinator

import (
	"fmt"
	"sync"

	pkgerrors "github.com/absmach/voicefed/pkg/errors"
)

type ListenerState uint8

const (
	ListenerStopped ListenerState = iota
	ListenerStarting
	ListenerRunning
)

func (s ListenerState) String() string {
	switch s {
	case ListenerStarting:
		return "starting"
	case ListenerRunning:
		return "running"
	default:
		return "stopped"
	}
}

// Launcher binds the aggregation listener and serves it in the background. It
// returns once the address is bound, with the address actually in use.
type Launcher interface {
	Launch(addr string) (string, error)
}

// Listener guards the aggregation listener's lifecycle. Start is idempotent
// and a failed start leaves the listener stopped so it can be retried.
type Listener struct {
	mu       sync.Mutex
	state    ListenerState
	addr     string
	launcher Launcher
}

func NewListener(addr string, launcher Launcher) *Listener {
	return &Listener{
		addr:     addr,
		launcher: launcher,
	}
}

// Start launches the listener unless it is already running. The second return
// value reports whether this call performed the launch.
func (l *Listener) Start() (string, bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.state == ListenerRunning {
		return l.addr, false, nil
	}
	if l.launcher == nil {
		return "", false, fmt.Errorf("%w: no launcher configured", pkgerrors.ErrListenerStart)
	}

	l.state = ListenerStarting
	addr, err := l.launcher.Launch(l.addr)
	if err != nil {
		l.state = ListenerStopped

		return "", false, fmt.Errorf("%w: %w", pkgerrors.ErrListenerStart, err)
	}
	if addr != "" {
		l.addr = addr
	}
	l.state = ListenerRunning

	return l.addr, true, nil
}

func (l *Listener) State() ListenerState {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.state
}

func (l *Listener) Address() string {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.addr
}
