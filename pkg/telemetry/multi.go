package telemetry

import (
	"github.com/vango-dev/vinterp/pkg/interp"
)

// Multi fans observer callbacks out to each of observers in order. Nil
// entries are skipped.
func Multi(observers ...interp.Observer) interp.Observer {
	var list multi
	for _, o := range observers {
		if o != nil {
			list = append(list, o)
		}
	}
	return list
}

type multi []interp.Observer

func (m multi) BatchStarted(seq uint64, edits int) func(applied int, err error) {
	done := make([]func(int, error), len(m))
	for i, o := range m {
		done[i] = o.BatchStarted(seq, edits)
	}
	return func(applied int, err error) {
		for _, fn := range done {
			fn(applied, err)
		}
	}
}

func (m multi) Hydrated(report *interp.HydrationReport) {
	for _, o := range m {
		o.Hydrated(report)
	}
}

func (m multi) EventDispatched(name string, bubbles bool) {
	for _, o := range m {
		o.EventDispatched(name, bubbles)
	}
}

func (m multi) EventDropped(name string) {
	for _, o := range m {
		o.EventDropped(name)
	}
}
