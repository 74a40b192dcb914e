package pool

// Observer receives pool lifecycle notifications.
//
// Notifications are diagnostics only. They are delivered outside the
// pool lock, possibly from several goroutines at once, so
// implementations must be safe for concurrent use and must not assume
// SizeChanged values arrive in order.
type Observer interface {
	RefillStarted()
	RefillCompleted(produced int, err error)
	SizeChanged(size int)
	ConfigChanged(setting string, value int)
}

func (p *Pool) notifyRefillStarted() {
	for _, o := range p.observers {
		o.RefillStarted()
	}
}

func (p *Pool) notifyRefillCompleted(produced int, err error) {
	for _, o := range p.observers {
		o.RefillCompleted(produced, err)
	}
}

func (p *Pool) notifySize(size int) {
	for _, o := range p.observers {
		o.SizeChanged(size)
	}
}

func (p *Pool) notifyConfig(setting string, value int) {
	for _, o := range p.observers {
		o.ConfigChanged(setting, value)
	}
}
