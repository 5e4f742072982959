package device

import (
	"errors"
	"sync"
)

// ErrStreamInvalid is returned when work is submitted to a destroyed stream.
var ErrStreamInvalid = errors.New("device stream is invalid")

// queueDepth bounds how far enqueues can run ahead of execution.
const queueDepth = 64

type streamItem struct {
	fn  func(*Device) error
	ack chan struct{}
}

// Stream is an ordered asynchronous work queue, modelled on a CUDA stream.
// Items enqueued on one stream execute in enqueue order on a dedicated worker;
// separate streams execute independently. Errors from asynchronous work are
// observed on the next Synchronize, and additionally latch the sticky
// diagnostic readable through LastError.
type Stream struct {
	dev *Device

	stateMu sync.Mutex
	closed  bool
	work    chan streamItem

	errMu     sync.Mutex
	asyncErr  error // first failure since the last Synchronize
	stickyErr error // most recent fault, cleared by LastError

	done chan struct{}
}

// NewStream starts a stream bound to the given device.
func NewStream(dev *Device) *Stream {
	s := &Stream{
		dev:  dev,
		work: make(chan streamItem, queueDepth),
		done: make(chan struct{}),
	}
	go s.run()
	return s
}

func (s *Stream) run() {
	defer close(s.done)
	for item := range s.work {
		if item.ack != nil {
			close(item.ack)
			continue
		}
		if err := item.fn(s.dev); err != nil {
			s.record(err)
		}
	}
}

func (s *Stream) record(err error) {
	s.errMu.Lock()
	if s.asyncErr == nil {
		s.asyncErr = err
	}
	s.stickyErr = err
	s.errMu.Unlock()
}

// Enqueue submits a work item. It returns once the item is queued, not once it
// has run; failures inside the item surface via Synchronize or LastError.
func (s *Stream) Enqueue(fn func(*Device) error) error {
	s.stateMu.Lock()
	defer s.stateMu.Unlock()
	if s.closed {
		return ErrStreamInvalid
	}
	s.work <- streamItem{fn: fn}
	return nil
}

// Synchronize blocks until all previously enqueued work has executed and
// returns the first asynchronous failure since the last Synchronize.
func (s *Stream) Synchronize() error {
	ack := make(chan struct{})
	s.stateMu.Lock()
	if s.closed {
		s.stateMu.Unlock()
		return ErrStreamInvalid
	}
	s.work <- streamItem{ack: ack}
	s.stateMu.Unlock()
	<-ack

	s.errMu.Lock()
	err := s.asyncErr
	s.asyncErr = nil
	s.errMu.Unlock()
	return err
}

// RecordLaunchError latches a launch-time configuration fault, the analogue of
// an asynchronous launch error in the CUDA runtime. The fault is observable
// through LastError only: nothing was enqueued, so Synchronize must not
// re-report it once the diagnostic has been consumed.
func (s *Stream) RecordLaunchError(err error) {
	if err == nil {
		return
	}
	s.errMu.Lock()
	s.stickyErr = err
	s.errMu.Unlock()
}

// LastError returns the most recent fault recorded on this stream and clears
// it, mirroring cudaGetLastError. It never blocks.
func (s *Stream) LastError() error {
	s.errMu.Lock()
	err := s.stickyErr
	s.stickyErr = nil
	s.errMu.Unlock()
	return err
}

// Destroy drains the stream and stops its worker. Pending work still runs; the
// first unobserved asynchronous failure, if any, is returned.
func (s *Stream) Destroy() error {
	s.stateMu.Lock()
	if s.closed {
		s.stateMu.Unlock()
		return nil
	}
	s.closed = true
	close(s.work)
	s.stateMu.Unlock()
	<-s.done

	s.errMu.Lock()
	err := s.asyncErr
	s.asyncErr = nil
	s.errMu.Unlock()
	return err
}

// Device returns the device this stream executes on.
func (s *Stream) Device() *Device { return s.dev }
