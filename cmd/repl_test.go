package cmd

import (
	"errors"
	"path/filepath"
	"testing"
)

func swapHistoryDir(t *testing.T, stub func() (string, error)) {
	t.Helper()
	prev := historyDirFunc
	historyDirFunc = stub
	t.Cleanup(func() { historyDirFunc = prev })
}

func TestLookupCommandFindsAliases(t *testing.T) {
	if lookupCommand("search") != SearchCmd {
		t.Fatalf("search should resolve to SearchCmd")
	}
	if lookupCommand("find") != SearchCmd {
		t.Fatalf("find alias should resolve to SearchCmd")
	}
	if lookupCommand("md") != MarkdownCmd {
		t.Fatalf("md alias should resolve to MarkdownCmd")
	}
	if lookupCommand("definitely-not-a-command") != nil {
		t.Fatalf("unknown name should resolve to nil")
	}
}

func TestDispatchLineRunsSearch(t *testing.T) {
	resetDocGlobals()
	loadTestDocument(t, `<html><body><li>a</li><li>b</li></body></html>`)

	dispatchLine("search li")

	if len(elementList) != 2 {
		t.Fatalf("expected 2 search results, got %d", len(elementList))
	}
	if CurrentElement != elementList[0] {
		t.Fatalf("dispatch did not focus the first match")
	}
}

func TestDispatchLineHandlesQuoting(t *testing.T) {
	resetDocGlobals()
	loadTestDocument(t, `<html><body><p id="t">old</p></body></html>`)
	dispatchLine("search #t")

	dispatchLine(`settext "hello world"`)

	text, err := Doc.Wrap(CurrentElement).Text()
	if err != nil || text != "hello world" {
		t.Fatalf("quoted argument not applied, got %q (%v)", text, err)
	}
}

func TestDispatchLineResetsFlagsBetweenLines(t *testing.T) {
	resetDocGlobals()
	loadTestDocument(t, `<html><body><p id="t">x</p></body></html>`)
	dispatchLine("search #t")

	dispatchLine("html --outer")
	if !htmlOuter {
		t.Fatalf("--outer should set htmlOuter")
	}

	dispatchLine("html")
	if htmlOuter {
		t.Fatalf("htmlOuter should reset to its default on the next line")
	}
}

func TestDispatchLineUnknownCommandKeepsState(t *testing.T) {
	resetDocGlobals()
	loadTestDocument(t, `<html><body><li>a</li></body></html>`)
	dispatchLine("search li")
	before := len(elementList)

	dispatchLine("definitely-not-a-command")

	if len(elementList) != before {
		t.Fatalf("unknown command should not touch state")
	}
}

func TestHistoryFile(t *testing.T) {
	dir := t.TempDir()
	swapHistoryDir(t, func() (string, error) { return dir, nil })

	if got := historyFile(); got != filepath.Join(dir, "history") {
		t.Fatalf("unexpected history path: %q", got)
	}

	swapHistoryDir(t, func() (string, error) { return "", errors.New("no base dir") })
	if got := historyFile(); got != "" {
		t.Fatalf("expected empty path on error, got %q", got)
	}
}

func TestReplCompleterCoversCommands(t *testing.T) {
	completer := replCompleter()
	if completer == nil {
		t.Fatalf("nil completer")
	}
	line := []rune("sea")
	if newLine, _ := completer.Do(line, len(line)); len(newLine) == 0 {
		t.Fatalf("expected completion for 'sea'")
	}
}
