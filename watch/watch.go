// Copyright 2020 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package watch polls the error status register of an amplifier and
// raises alerts when the chip latches faults.
package watch // import "github.com/go-lpc/amp/watch"

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/go-lpc/amp/device"
)

// maxAlerts is the number of notifications sent for a given fault value.
const maxAlerts = 5

// Device is an amplifier whose faults can be read and cleared.
type Device interface {
	Name() string
	Faults() (byte, error)
	ErrorStatus() (before, after string, err error)
}

// Event describes faults latched by an amplifier.
type Event struct {
	Speaker string    `json:"speaker"`
	Faults  byte      `json:"faults"`
	Before  string    `json:"before"`
	After   string    `json:"after"`
	Time    time.Time `json:"time"`
}

func (evt Event) String() string {
	return fmt.Sprintf("speaker=%q faults=0x%02x time=%s",
		evt.Speaker, evt.Faults, evt.Time.UTC().Format(time.RFC3339),
	)
}

// Notifier delivers fault events.
type Notifier interface {
	Notify(evt Event) error
}

// Watcher periodically checks an amplifier for faults.
type Watcher struct {
	msg  *log.Logger
	dev  Device
	freq time.Duration
	ntfs []Notifier
	now  func() time.Time

	alerts map[byte]int // number of alerts sent per fault value
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithFreq sets the polling period.
func WithFreq(freq time.Duration) Option {
	return func(w *Watcher) {
		w.freq = freq
	}
}

// WithNotifier adds a notifier to the watcher.
func WithNotifier(n Notifier) Option {
	return func(w *Watcher) {
		w.ntfs = append(w.ntfs, n)
	}
}

// WithLogger sets the logger of the watcher.
func WithLogger(msg *log.Logger) Option {
	return func(w *Watcher) {
		w.msg = msg
	}
}

// New creates a watcher for dev.
func New(dev Device, opts ...Option) *Watcher {
	w := &Watcher{
		msg:    log.New(os.Stdout, "watch: ", 0),
		dev:    dev,
		freq:   10 * time.Second,
		now:    time.Now,
		alerts: make(map[byte]int),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Run polls the device until ctx is done.
// Polling errors are logged and do not stop the watcher.
func (w *Watcher) Run(ctx context.Context) error {
	tck := time.NewTicker(w.freq)
	defer tck.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-tck.C:
			err := w.Poll()
			if err != nil {
				w.msg.Printf("could not poll faults: %+v", err)
			}
		}
	}
}

// Poll checks the device once. Latched faults are cleared and reported
// to the notifiers, at most maxAlerts times per fault value.
func (w *Watcher) Poll() error {
	faults, err := w.dev.Faults()
	switch {
	case errors.Is(err, device.ErrPoweredOff):
		return nil
	case err != nil:
		return fmt.Errorf("watch: could not read faults: %w", err)
	}
	if faults == 0 {
		return nil
	}

	before, after, err := w.dev.ErrorStatus()
	if err != nil {
		return fmt.Errorf("watch: could not clear faults: %w", err)
	}

	evt := Event{
		Speaker: w.dev.Name(),
		Faults:  faults,
		Before:  before,
		After:   after,
		Time:    w.now(),
	}
	w.msg.Printf("faults latched: %v", evt)

	w.alerts[faults]++
	if w.alerts[faults] > maxAlerts {
		return nil
	}

	var errs []error
	for _, n := range w.ntfs {
		err := n.Notify(evt)
		if err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
