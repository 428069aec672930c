package manager

import (
	"context"
	"time"

	"llmcore/internal/engine"
)

// beginGeneration reserves a queue slot and then the single in-flight slot
// for h. Returns a release func to be deferred.
func (m *Manager) beginGeneration(ctx context.Context, h engine.Handle) (func(), error) {
	m.mu.RLock()
	inst := m.instances[h]
	m.mu.RUnlock()
	if inst == nil {
		return func() {}, errUnknownHandle("generate", h)
	}
	if inst.draining.Load() {
		admissionRejects.WithLabelValues("draining").Inc()
		return func() {}, tooBusyError{handle: h.String()}
	}
	if err := ctx.Err(); err != nil {
		return func() {}, err
	}

	// MaxWait bounds queueing and the wait for the in-flight slot together.
	timer := time.NewTimer(m.cfg.MaxWait)
	defer timer.Stop()
	select {
	case inst.queueCh <- struct{}{}:
		queueDepth.WithLabelValues(inst.label).Inc()
	case <-ctx.Done():
		return func() {}, ctx.Err()
	case <-timer.C:
		admissionRejects.WithLabelValues("queue_full").Inc()
		return func() {}, tooBusyError{handle: h.String()}
	}
	leave := func() {
		<-inst.queueCh
		queueDepth.WithLabelValues(inst.label).Dec()
	}

	acquired := false
	defer func() {
		if !acquired {
			leave()
		}
	}()
	if err := ctx.Err(); err != nil {
		return func() {}, err
	}
	select {
	case inst.genCh <- struct{}{}:
		acquired = true
		inst.touch()
		return func() { <-inst.genCh; leave() }, nil
	case <-ctx.Done():
		return func() {}, ctx.Err()
	case <-timer.C:
		admissionRejects.WithLabelValues("wait_timeout").Inc()
		return func() {}, tooBusyError{handle: h.String()}
	}
}
