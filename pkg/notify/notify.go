// Package notify carries catalog lifecycle events to whoever presents them.
package notify

import (
	"fmt"

	EventBus "github.com/asaskevich/EventBus"
)

// Kind identifies an event topic.
type Kind string

const (
	CatalogLoaded      Kind = "catalog-loaded"
	CatalogSaved       Kind = "catalog-saved"
	CatalogLoadFailed  Kind = "catalog-load-failed"
	CatalogSaveFailed  Kind = "catalog-save-failed"
	StorageUnavailable Kind = "storage-unavailable"
)

// Kinds lists every topic, in the order SubscribeAll registers them.
var Kinds = []Kind{CatalogLoaded, CatalogSaved, CatalogLoadFailed, CatalogSaveFailed, StorageUnavailable}

// Event is a dismissible notification: a title, a short message and the
// record counts involved, if any.
type Event struct {
	Kind     Kind
	Title    string
	Message  string
	Products int
	Items    int
	Err      error
}

func (e Event) String() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %s (%v)", e.Kind, e.Title, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Kind, e.Title, e.Message)
}

// Notifier publishes Events on an in-process bus. Handlers run synchronously
// in the publisher's goroutine. A nil *Notifier drops everything.
type Notifier struct {
	bus EventBus.Bus
}

func New() *Notifier {
	return &Notifier{bus: EventBus.New()}
}

func (n *Notifier) Publish(e Event) {
	if n == nil {
		return
	}
	n.bus.Publish(string(e.Kind), e)
}

// Subscribe registers fn for one kind of event.
func (n *Notifier) Subscribe(kind Kind, fn func(Event)) error {
	return n.bus.Subscribe(string(kind), fn)
}

// SubscribeAll registers fn for every kind of event.
func (n *Notifier) SubscribeAll(fn func(Event)) error {
	for _, k := range Kinds {
		if err := n.Subscribe(k, fn); err != nil {
			return err
		}
	}
	return nil
}
