package notify

import (
	"errors"
	"reflect"
	"strings"
	"testing"
)

func TestSubscribeReceivesOnlyItsKind(t *testing.T) {
	n := New()
	var got []Kind
	if err := n.Subscribe(CatalogSaved, func(e Event) { got = append(got, e.Kind) }); err != nil {
		t.Fatal(err)
	}
	n.Publish(Event{Kind: CatalogLoaded})
	n.Publish(Event{Kind: CatalogSaved, Products: 3})
	if !reflect.DeepEqual(got, []Kind{CatalogSaved}) {
		t.Fatalf("unexpected events %v", got)
	}
}

func TestSubscribeAll(t *testing.T) {
	n := New()
	var got []Kind
	if err := n.SubscribeAll(func(e Event) { got = append(got, e.Kind) }); err != nil {
		t.Fatal(err)
	}
	for _, k := range Kinds {
		n.Publish(Event{Kind: k})
	}
	if !reflect.DeepEqual(got, Kinds) {
		t.Fatalf("unexpected events %v", got)
	}
}

func TestNilNotifierDrops(t *testing.T) {
	var n *Notifier
	n.Publish(Event{Kind: CatalogLoaded})
}

func TestEventString(t *testing.T) {
	e := Event{Kind: CatalogSaveFailed, Title: "Save failed", Message: "catalog not saved", Err: errors.New("disk full")}
	if s := e.String(); !strings.Contains(s, "disk full") || !strings.HasPrefix(s, "[catalog-save-failed]") {
		t.Fatalf("unexpected string %q", s)
	}
}
