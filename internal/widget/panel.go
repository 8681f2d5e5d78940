package widget

import "sync"

// Panel is the chat panel's open state. OnOpen runs once, the first time the
// panel opens, and is where the wizard gets started.
type Panel struct {
	OnOpen func()

	mu          sync.Mutex
	open        bool
	started     bool
	unsubscribe func()
}

// NewPanel returns a closed panel that opens whenever sig is published.
func NewPanel(sig *Signal, onOpen func()) *Panel {
	p := &Panel{OnOpen: onOpen}
	if sig != nil {
		p.unsubscribe = sig.Subscribe(p.Open)
	}
	return p
}

func (p *Panel) Open() {
	p.mu.Lock()
	p.open = true
	first := !p.started
	p.started = true
	p.mu.Unlock()

	if first && p.OnOpen != nil {
		p.OnOpen()
	}
}

func (p *Panel) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.open = false
}

func (p *Panel) IsOpen() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.open
}

// Detach stops listening to the signal.
func (p *Panel) Detach() {
	if p.unsubscribe != nil {
		p.unsubscribe()
	}
}
