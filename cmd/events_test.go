package cmd

import (
	"testing"

	"domino/dom"
)

func TestOnOffManageListeners(t *testing.T) {
	resetDocGlobals()
	loadTestDocument(t, `<html><body><button id="b">go</button></body></html>`)
	if _, err := focusSearch("#b"); err != nil {
		t.Fatalf("focusSearch: %v", err)
	}

	OnCmd.Run(OnCmd, []string{"click"})

	infos := Doc.Listeners(CurrentElement)
	if len(infos) != 1 || infos[0].Event != "click" {
		t.Fatalf("expected one click listener, got %#v", infos)
	}

	OffCmd.Run(OffCmd, []string{"click"})

	if infos := Doc.Listeners(CurrentElement); len(infos) != 0 {
		t.Fatalf("listener should be removed, got %#v", infos)
	}
}

func TestTriggerDispatchesToListeners(t *testing.T) {
	resetDocGlobals()
	loadTestDocument(t, `<html><body><div id="outer"><button id="b">go</button></div></body></html>`)
	if _, err := focusSearch("#b"); err != nil {
		t.Fatalf("focusSearch: %v", err)
	}

	var fired int
	outer, err := Doc.Find("#outer").Resolve()
	if err != nil || len(outer) != 1 {
		t.Fatalf("resolve #outer: %v", err)
	}
	// listen on the ancestor so the test also covers bubbling
	Doc.Wrap(outer[0]).On("click", func(*dom.Event) { fired++ })

	TriggerCmd.Run(TriggerCmd, []string{"click"})

	if fired != 1 {
		t.Fatalf("expected listener to fire once, got %d", fired)
	}
}
