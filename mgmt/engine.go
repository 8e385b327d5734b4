// Package mgmt implements C4, the transceiver management engine: the
// single background task plus the event-driven update path spec §4.3
// describes, grounded on driver/mjolnir/driver.go's single-writer
// bounded-retry loop and input/input.go's per-line goroutine-plus-wake
// pattern.
package mgmt

import (
	"sync"
	"time"

	"xcvrswitch.dev/porttable"
)

// DebugLog is called with a debug/diagnostic message; nil is a valid
// no-op logger.
type DebugLog func(format string, args ...any)

func (l DebugLog) logf(format string, args ...any) {
	if l != nil {
		l(format, args...)
	}
}

// Engine is C4's single management task plus the state it shares with
// the event-driven call paths (mgmt_signal_interrupt,
// mgmt_notify_eth_mode_change, ...).
type Engine struct {
	Table    *porttable.Table
	Facade   any
	Sem      WakeSemaphore
	Notifier Notifier
	SerDes   SerDesApplier
	Log      DebugLog

	// PollPeriod is the mgmt task's bounded wait (spec §5: "default 1s").
	PollPeriod time.Duration

	// swTok is the switch protection token (spec §5): try_acquire
	// semantics, taken around any sweep touching port state.
	swTok sync.Mutex
	// busMu is the I²C bus lock (spec §5): scopes every facade I/O
	// sequence.
	busMu sync.Mutex
	// regLock is the register lock (spec §5): scopes read-modify-write of
	// hardware registers from the AN path, e.g. AN_73_CFG.IgnoreNonceMatch.
	regLock sync.Mutex

	// AnTimerAllowOutSpec widens the link-fail-inhibit timer range from
	// the default 1..511ms to 1..1023ms (the anTimerAllowOutSpec config
	// option; see an.LinkInhibitTimerRange).
	AnTimerAllowOutSpec bool

	stateMu          sync.Mutex
	pendingTask      bool
	interruptPending bool
	enableMgmt       bool

	// MismatchCount counts hw_res_id values the interrupt-pending path
	// could not translate back to a port index (spec §4.3: "never
	// fatal").
	MismatchCount int

	stopCh chan struct{}
	doneCh chan struct{}
}

// WakeSemaphore is the subset of platform.WakeSemaphore the engine needs;
// declared locally so mgmt does not have to import platform's concrete
// eventfd/gpiocdev wiring.
type WakeSemaphore interface {
	Signal()
	Wait(timeout time.Duration) bool
}

// NewEngine builds an engine over table, facade and semaphore. The
// caller wires Notifier/SerDes/Log afterward if it needs them. Notifier
// starts as NopNotifier (events dropped) and must not be set to nil; a nil
// SerDes skips SerDes config and a nil Log drops log messages.
func NewEngine(table *porttable.Table, facade any, sem WakeSemaphore, pollPeriod time.Duration) *Engine {
	return &Engine{
		Table:      table,
		Facade:     facade,
		Sem:        sem,
		Notifier:   NopNotifier{},
		PollPeriod: pollPeriod,
	}
}

// Start launches the background task (spec §6 mgmt_init: "start mgmt
// task if poll period > 0"). The caller must not call Start twice
// without an intervening Stop.
func (e *Engine) Start() {
	e.stopCh = make(chan struct{})
	e.doneCh = make(chan struct{})
	go e.run()
}

// Stop terminates the task and waits for it to exit (spec §5: "the mgmt
// task is terminated only at switch teardown").
func (e *Engine) Stop() {
	if e.stopCh == nil {
		return
	}
	close(e.stopCh)
	<-e.doneCh
}

// EnableMgmt reports whether mgmt_enable_interrupt has completed its
// forced sweep (spec §4.3: "enable is gated by a global enable_mgmt flag
// set only after mgmt_enable_interrupt has completed one forced update
// sweep").
func (e *Engine) EnableMgmt() bool {
	e.stateMu.Lock()
	defer e.stateMu.Unlock()
	return e.enableMgmt
}

// SignalInterrupt is the ISR-path entry (spec §6 mgmt_signal_interrupt):
// it must not block.
func (e *Engine) SignalInterrupt() {
	e.stateMu.Lock()
	e.interruptPending = true
	e.stateMu.Unlock()
	e.Sem.Signal()
}

// SignalPollingThread sets the pending-task flag and wakes the task
// (spec §6 mgmt_signal_polling_thread).
func (e *Engine) SignalPollingThread() {
	e.stateMu.Lock()
	e.pendingTask = true
	e.stateMu.Unlock()
	e.Sem.Signal()
}

// forcedSweep runs one unconditional update-state pass under the switch
// protection token, used by mgmt_xcvr_initialize and mgmt_enable_interrupt.
// Neither of those two API entry points shares the other's handling of
// enable_mgmt, so setting that flag is left to the caller (see api.go).
func (e *Engine) forcedSweep() {
	e.swTok.Lock()
	defer e.swTok.Unlock()
	e.updateState(false, true)
}

func (e *Engine) run() {
	defer close(e.doneCh)
	for {
		woke := e.Sem.Wait(e.PollPeriod)

		select {
		case <-e.stopCh:
			return
		default:
		}

		if !e.swTok.TryLock() {
			// Try-acquire semantics: abandon this iteration, retry next
			// wake (spec §5).
			continue
		}

		e.stateMu.Lock()
		pendingTask := e.pendingTask
		e.pendingTask = false
		interrupt := e.interruptPending
		e.interruptPending = false
		e.stateMu.Unlock()

		timeout := !woke
		if pendingTask || timeout {
			e.retryEepromReadSweep()
			e.retryConfigSweep()
		}
		e.updateState(interrupt, false)

		e.swTok.Unlock()
	}
}
