package dom

import (
	"reflect"
	"sort"

	"github.com/google/uuid"
	"golang.org/x/net/html"
)

// Event is a synthesized event dispatched through Trigger. Dispatch runs
// synchronously, starting at the target and bubbling through its ancestors
// until stopped.
type Event struct {
	Type   string
	Target *html.Node

	stopped bool
}

// StopPropagation keeps the event from bubbling past the current node.
// Remaining handlers on the same node still run.
func (e *Event) StopPropagation() {
	e.stopped = true
}

// HandlerFunc handles a dispatched event.
type HandlerFunc func(*Event)

type listener struct {
	id uuid.UUID
	fn HandlerFunc
	fp uintptr
}

// ListenerInfo describes one registered listener.
type ListenerInfo struct {
	Event string
	ID    uuid.UUID
}

// On registers fn for the named event on each matched element.
func (s *Selection) On(event string, fn HandlerFunc) *Selection {
	if event == "" || fn == nil {
		return s
	}
	fp := reflect.ValueOf(fn).Pointer()
	return s.Each(func(_ int, n *html.Node) {
		s.doc.addListener(n, event, listener{id: uuid.New(), fn: fn, fp: fp})
	})
}

// Off deregisters handlers for the named event on each matched element. A
// nil fn removes every handler for the event; otherwise only registrations
// sharing fn's function value go away.
func (s *Selection) Off(event string, fn HandlerFunc) *Selection {
	if event == "" {
		return s
	}
	var fp uintptr
	if fn != nil {
		fp = reflect.ValueOf(fn).Pointer()
	}
	return s.Each(func(_ int, n *html.Node) {
		s.doc.removeListeners(n, event, fp)
	})
}

// Trigger synthesizes an event of the given name and dispatches it on each
// matched element in turn.
func (s *Selection) Trigger(event string) *Selection {
	if event == "" {
		return s
	}
	return s.Each(func(_ int, n *html.Node) {
		s.doc.dispatch(&Event{Type: event, Target: n})
	})
}

func (d *Document) addListener(n *html.Node, event string, l listener) {
	d.eventMu.Lock()
	defer d.eventMu.Unlock()
	if d.listeners == nil {
		d.listeners = make(map[*html.Node]map[string][]listener)
	}
	byEvent := d.listeners[n]
	if byEvent == nil {
		byEvent = make(map[string][]listener)
		d.listeners[n] = byEvent
	}
	byEvent[event] = append(byEvent[event], l)
}

func (d *Document) removeListeners(n *html.Node, event string, fp uintptr) {
	d.eventMu.Lock()
	defer d.eventMu.Unlock()
	byEvent := d.listeners[n]
	if byEvent == nil {
		return
	}
	if fp == 0 {
		delete(byEvent, event)
	} else {
		ls := byEvent[event]
		kept := ls[:0]
		for _, l := range ls {
			if l.fp != fp {
				kept = append(kept, l)
			}
		}
		if len(kept) == 0 {
			delete(byEvent, event)
		} else {
			byEvent[event] = kept
		}
	}
	if len(byEvent) == 0 {
		delete(d.listeners, n)
	}
}

// dispatch walks from the target up to the root, draining each node's
// handler list before checking for a stop. Handlers run outside the lock so
// they may register or remove listeners themselves.
func (d *Document) dispatch(e *Event) {
	for cur := e.Target; cur != nil; cur = cur.Parent {
		for _, l := range d.listenersFor(cur, e.Type) {
			l.fn(e)
		}
		if e.stopped {
			return
		}
	}
}

func (d *Document) listenersFor(n *html.Node, event string) []listener {
	d.eventMu.Lock()
	defer d.eventMu.Unlock()
	ls := d.listeners[n][event]
	if len(ls) == 0 {
		return nil
	}
	out := make([]listener, len(ls))
	copy(out, ls)
	return out
}

// Listeners reports the listeners registered on n, sorted for stable
// display.
func (d *Document) Listeners(n *html.Node) []ListenerInfo {
	d.eventMu.Lock()
	defer d.eventMu.Unlock()
	var out []ListenerInfo
	for event, ls := range d.listeners[n] {
		for _, l := range ls {
			out = append(out, ListenerInfo{Event: event, ID: l.id})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Event != out[j].Event {
			return out[i].Event < out[j].Event
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	return out
}
