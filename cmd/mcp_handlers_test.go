package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"domino/internal/config"
	"domino/internal/tools"
	"domino/scrape"
)

// useMemorySnapStore points the snapshot store at an in-memory database for
// the duration of a test.
func useMemorySnapStore(t *testing.T) {
	t.Helper()
	prevCfg := Cfg
	closeSnapStore()
	Cfg = &config.Config{SnapshotDB: ":memory:"}
	t.Cleanup(func() {
		closeSnapStore()
		Cfg = prevCfg
	})
}

func TestLoadToolRequiresSource(t *testing.T) {
	resetDocGlobals()

	_, err := tools.Call(context.Background(), "load", nil)
	if err == nil {
		t.Fatalf("expected error when source is missing")
	}
	if !strings.Contains(err.Error(), "source argument is required") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestLoadToolParsesInlineMarkup(t *testing.T) {
	resetDocGlobals()

	res, err := tools.Call(context.Background(), "load", map[string]interface{}{
		"source": `<html><body><p id="p1">inline</p></body></html>`,
	})
	if err != nil {
		t.Fatalf("load returned error: %v", err)
	}
	if !strings.HasPrefix(res.Text, "loaded inline document") {
		t.Fatalf("unexpected message: %q", res.Text)
	}
	if Doc == nil {
		t.Fatalf("Doc not set after inline load")
	}
	if CurrentElement == nil || CurrentElement.Data != "body" {
		t.Fatalf("expected focus on body after load")
	}
	if currentSource != "inline" {
		t.Fatalf("expected currentSource inline, got %q", currentSource)
	}
}

func TestLoadToolReadsFile(t *testing.T) {
	resetDocGlobals()

	path := filepath.Join(t.TempDir(), "page.html")
	if err := os.WriteFile(path, []byte(`<html><body><div id="f">file</div></body></html>`), 0644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	res, err := tools.Call(context.Background(), "load", map[string]interface{}{"source": path})
	if err != nil {
		t.Fatalf("load returned error: %v", err)
	}
	if res.Text != "loaded "+path {
		t.Fatalf("unexpected message: %q", res.Text)
	}
	if !currentSourceIsFile {
		t.Fatalf("expected currentSourceIsFile to be set")
	}
	nodes, err := Doc.Find("#f").Resolve()
	if err != nil || len(nodes) != 1 {
		t.Fatalf("loaded document missing #f: %v", err)
	}
}

func TestSearchToolRequiresSelector(t *testing.T) {
	resetDocGlobals()

	_, err := tools.Call(context.Background(), "search", nil)
	if err == nil || !strings.Contains(err.Error(), "selector is required") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestSearchToolFormatsList(t *testing.T) {
	resetDocGlobals()
	loadTestDocument(t, `<html><body><li>a</li><li>b</li></body></html>`)

	res, err := tools.Call(context.Background(), "search", map[string]interface{}{"selector": "li"})
	if err != nil {
		t.Fatalf("search returned error: %v", err)
	}
	if !strings.Contains(res.Text, `found 2 elements for selector "li".`) {
		t.Fatalf("unexpected message: %q", res.Text)
	}
	if len(elementList) != 2 || CurrentElement != elementList[0] {
		t.Fatalf("search did not focus the first match")
	}
}

func TestNextToolAcceptsIndex(t *testing.T) {
	resetDocGlobals()
	loadTestDocument(t, `<html><body><li>a</li><li>b</li><li>c</li></body></html>`)
	if _, err := tools.Call(context.Background(), "search", map[string]interface{}{"selector": "li"}); err != nil {
		t.Fatalf("search: %v", err)
	}

	// JSON numbers arrive as float64.
	res, err := tools.Call(context.Background(), "next", map[string]interface{}{"index": float64(2)})
	if err != nil {
		t.Fatalf("next returned error: %v", err)
	}
	if currentIndex != 2 {
		t.Fatalf("expected index 2, got %d", currentIndex)
	}
	if !strings.Contains(res.Text, "focused index 2 of 3") {
		t.Fatalf("unexpected message: %q", res.Text)
	}
}

func TestTextToolTruncatesRunes(t *testing.T) {
	resetDocGlobals()
	loadTestDocument(t, `<html><body><p id="p">héllo wörld</p></body></html>`)
	if _, err := tools.Call(context.Background(), "search", map[string]interface{}{"selector": "#p"}); err != nil {
		t.Fatalf("search: %v", err)
	}

	res, err := tools.Call(context.Background(), "text", map[string]interface{}{"length": float64(5)})
	if err != nil {
		t.Fatalf("text returned error: %v", err)
	}
	if res.Text != "héllo" {
		t.Fatalf("expected rune-safe truncation, got %q", res.Text)
	}

	res, err = tools.Call(context.Background(), "text", nil)
	if err != nil {
		t.Fatalf("text returned error: %v", err)
	}
	if res.Text != "héllo wörld" {
		t.Fatalf("expected full text, got %q", res.Text)
	}
}

func TestReportToolDescribesCurrentElement(t *testing.T) {
	resetDocGlobals()
	loadTestDocument(t, `<html><body><div id="r"><b>one</b><i>two</i></div></body></html>`)
	if _, err := tools.Call(context.Background(), "search", map[string]interface{}{"selector": "#r"}); err != nil {
		t.Fatalf("search: %v", err)
	}

	res, err := tools.Call(context.Background(), "report", nil)
	if err != nil {
		t.Fatalf("report returned error: %v", err)
	}
	if res.Text != "div, 2 children, onetwo" {
		t.Fatalf("unexpected report: %q", res.Text)
	}
}

func TestAttrsToolReturnsJSON(t *testing.T) {
	resetDocGlobals()
	loadTestDocument(t, `<html><body><div id="a" class="x" data-k="v">text</div></body></html>`)
	if _, err := tools.Call(context.Background(), "search", map[string]interface{}{"selector": "#a"}); err != nil {
		t.Fatalf("search: %v", err)
	}

	res, err := tools.Call(context.Background(), "attrs", nil)
	if err != nil {
		t.Fatalf("attrs returned error: %v", err)
	}
	if res.ContentType != "application/json" {
		t.Fatalf("expected application/json, got %q", res.ContentType)
	}
	var attrs map[string]string
	if err := json.Unmarshal([]byte(res.Text), &attrs); err != nil {
		t.Fatalf("attrs output is not valid JSON: %v", err)
	}
	if attrs["id"] != "a" || attrs["class"] != "x" || attrs["data-k"] != "v" {
		t.Fatalf("unexpected attrs: %#v", attrs)
	}
}

func TestCountTool(t *testing.T) {
	resetDocGlobals()
	loadTestDocument(t, `<html><body><li>a</li><li>b</li><li>c</li></body></html>`)

	res, err := tools.Call(context.Background(), "count", map[string]interface{}{"selector": "li"})
	if err != nil {
		t.Fatalf("count returned error: %v", err)
	}
	if res.Text != `3 elements match selector "li"` {
		t.Fatalf("unexpected message: %q", res.Text)
	}

	if _, err := tools.Call(context.Background(), "count", nil); err == nil {
		t.Fatalf("expected error when selector is missing")
	}
}

func TestSetTextToolAppliesText(t *testing.T) {
	resetDocGlobals()
	loadTestDocument(t, `<html><body><p id="t">old</p></body></html>`)
	if _, err := tools.Call(context.Background(), "search", map[string]interface{}{"selector": "#t"}); err != nil {
		t.Fatalf("search: %v", err)
	}

	if _, err := tools.Call(context.Background(), "set_text", nil); err == nil {
		t.Fatalf("expected error when text is missing")
	}

	res, err := tools.Call(context.Background(), "set_text", map[string]interface{}{"text": "new"})
	if err != nil {
		t.Fatalf("set_text returned error: %v", err)
	}
	if !strings.HasPrefix(res.Text, "set text on ") {
		t.Fatalf("unexpected message: %q", res.Text)
	}
	text, err := Doc.Wrap(CurrentElement).Text()
	if err != nil || text != "new" {
		t.Fatalf("text not replaced, got %q (%v)", text, err)
	}
}

func TestCssToolSetsAndRemovesStyles(t *testing.T) {
	resetDocGlobals()
	loadTestDocument(t, `<html><body><p id="s">styled</p></body></html>`)
	if _, err := tools.Call(context.Background(), "search", map[string]interface{}{"selector": "#s"}); err != nil {
		t.Fatalf("search: %v", err)
	}

	res, err := tools.Call(context.Background(), "css", map[string]interface{}{"property": "color", "value": "red"})
	if err != nil {
		t.Fatalf("css returned error: %v", err)
	}
	if !strings.HasPrefix(res.Text, "set style color: red on ") {
		t.Fatalf("unexpected message: %q", res.Text)
	}
	if val, err := Doc.Wrap(CurrentElement).Style("color"); err != nil || val != "red" {
		t.Fatalf("style not applied, got %q (%v)", val, err)
	}

	res, err = tools.Call(context.Background(), "css", map[string]interface{}{"property": "color", "value": ""})
	if err != nil {
		t.Fatalf("css returned error: %v", err)
	}
	if !strings.HasPrefix(res.Text, "removed style color from ") {
		t.Fatalf("unexpected message: %q", res.Text)
	}
	if got := nodeAttr(CurrentElement, "style"); got != "" {
		t.Fatalf("style attribute should be gone, got %q", got)
	}
}

func TestAppendToolValidatesPosition(t *testing.T) {
	resetDocGlobals()
	loadTestDocument(t, `<html><body><div id="c"><span>first</span></div></body></html>`)
	if _, err := tools.Call(context.Background(), "search", map[string]interface{}{"selector": "#c"}); err != nil {
		t.Fatalf("search: %v", err)
	}

	_, err := tools.Call(context.Background(), "append", map[string]interface{}{
		"position": "sideways",
		"markup":   "<em>x</em>",
	})
	if err == nil || !strings.Contains(err.Error(), "position must be one of") {
		t.Fatalf("unexpected error: %v", err)
	}

	res, err := tools.Call(context.Background(), "append", map[string]interface{}{
		"position": "atend",
		"markup":   "<em>x</em>",
	})
	if err != nil {
		t.Fatalf("append returned error: %v", err)
	}
	if res.Text != "inserted markup at position atend" {
		t.Fatalf("unexpected message: %q", res.Text)
	}
	if Doc.Wrap(CurrentElement).Find("em").Length() != 1 {
		t.Fatalf("markup not inserted")
	}
}

func TestDetachToolMovesFocusToParent(t *testing.T) {
	resetDocGlobals()
	loadTestDocument(t, `<html><body><div id="box"><span>x</span></div></body></html>`)
	if _, err := tools.Call(context.Background(), "search", map[string]interface{}{"selector": "#box"}); err != nil {
		t.Fatalf("search: %v", err)
	}

	res, err := tools.Call(context.Background(), "detach", nil)
	if err != nil {
		t.Fatalf("detach returned error: %v", err)
	}
	if res.Text != "Element detached; focus moved to parent." {
		t.Fatalf("unexpected message: %q", res.Text)
	}
	if CurrentElement == nil || CurrentElement.Data != "body" {
		t.Fatalf("focus should move to the parent body")
	}
	if nodes, _ := Doc.Find("#box").Resolve(); len(nodes) != 0 {
		t.Fatalf("#box should be detached from the document")
	}
}

func TestToMarkdownTool(t *testing.T) {
	resetDocGlobals()
	loadTestDocument(t, `<html><head><title>T</title></head><body><h1>Title</h1><p>para</p></body></html>`)

	res, err := tools.Call(context.Background(), "to_markdown", nil)
	if err != nil {
		t.Fatalf("to_markdown returned error: %v", err)
	}
	if res.ContentType != "text/markdown" {
		t.Fatalf("expected text/markdown, got %q", res.ContentType)
	}
	if !strings.Contains(res.Text, "# Title") {
		t.Fatalf("markdown missing heading: %q", res.Text)
	}
	if !strings.Contains(res.Text, "para") {
		t.Fatalf("markdown missing paragraph: %q", res.Text)
	}
}

func TestMetaTool(t *testing.T) {
	resetDocGlobals()
	loadTestDocument(t, `<html><head><title>Doc Title</title><link rel="canonical" href="https://example.com/doc"></head><body><h1>Main</h1><a href="https://example.com/next">next</a></body></html>`)

	res, err := tools.Call(context.Background(), "meta", nil)
	if err != nil {
		t.Fatalf("meta returned error: %v", err)
	}
	if res.ContentType != "application/json" {
		t.Fatalf("expected application/json, got %q", res.ContentType)
	}
	var meta scrape.PageMeta
	if err := json.Unmarshal([]byte(res.Text), &meta); err != nil {
		t.Fatalf("meta output is not valid JSON: %v", err)
	}
	if meta.Title != "Doc Title" {
		t.Fatalf("unexpected title: %q", meta.Title)
	}
	if meta.Canonical != "https://example.com/doc" {
		t.Fatalf("unexpected canonical: %q", meta.Canonical)
	}
	if len(meta.Headings) != 1 || meta.Headings[0].Text != "Main" {
		t.Fatalf("unexpected headings: %#v", meta.Headings)
	}
	if len(meta.Links) != 1 || meta.Links[0].Href != "https://example.com/next" {
		t.Fatalf("unexpected links: %#v", meta.Links)
	}
}

func TestRequestToolReturnsBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("hello world"))
	}))
	defer srv.Close()

	res, err := tools.Call(context.Background(), "request", map[string]interface{}{"url": srv.URL})
	if err != nil {
		t.Fatalf("request returned error: %v", err)
	}
	if res.Text != "hello world" {
		t.Fatalf("unexpected body: %q", res.Text)
	}
}

func TestRequestToolReportsHTTPErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	_, err := tools.Call(context.Background(), "request", map[string]interface{}{"url": srv.URL})
	if err == nil || err.Error() != "request failed: Not Found" {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestRequestToolRequiresURL(t *testing.T) {
	_, err := tools.Call(context.Background(), "request", nil)
	if err == nil || !strings.Contains(err.Error(), "url argument is required") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestSnapshotToolsRoundTrip(t *testing.T) {
	resetDocGlobals()
	useMemorySnapStore(t)
	loadTestDocument(t, `<html><head><title>Snapshot Title</title></head><body><p id="x">orig</p></body></html>`)

	res, err := tools.Call(context.Background(), "save_snapshot", nil)
	if err != nil {
		t.Fatalf("save_snapshot returned error: %v", err)
	}
	if res.Text != "saved snapshot 1" {
		t.Fatalf("unexpected message: %q", res.Text)
	}

	res, err = tools.Call(context.Background(), "list_snapshots", nil)
	if err != nil {
		t.Fatalf("list_snapshots returned error: %v", err)
	}
	if !strings.Contains(res.Text, "Snapshot Title") {
		t.Fatalf("listing missing title: %q", res.Text)
	}

	if _, err := tools.Call(context.Background(), "search", map[string]interface{}{"selector": "#x"}); err != nil {
		t.Fatalf("search: %v", err)
	}
	if _, err := tools.Call(context.Background(), "set_text", map[string]interface{}{"text": "changed"}); err != nil {
		t.Fatalf("set_text: %v", err)
	}

	res, err = tools.Call(context.Background(), "load_snapshot", map[string]interface{}{"id": float64(1)})
	if err != nil {
		t.Fatalf("load_snapshot returned error: %v", err)
	}
	if res.Text != "restored snapshot 1 (Snapshot Title)" {
		t.Fatalf("unexpected message: %q", res.Text)
	}
	nodes, err := Doc.Find("#x").Resolve()
	if err != nil || len(nodes) != 1 {
		t.Fatalf("restored document missing #x: %v", err)
	}
	if got := normalizeWhitespace(nodeText(nodes[0])); got != "orig" {
		t.Fatalf("snapshot did not restore original text, got %q", got)
	}
}

func TestLoadSnapshotToolRequiresID(t *testing.T) {
	useMemorySnapStore(t)

	_, err := tools.Call(context.Background(), "load_snapshot", nil)
	if err == nil || !strings.Contains(err.Error(), "id argument is required") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestListSnapshotsToolEmptyStore(t *testing.T) {
	useMemorySnapStore(t)

	res, err := tools.Call(context.Background(), "list_snapshots", nil)
	if err != nil {
		t.Fatalf("list_snapshots returned error: %v", err)
	}
	if res.Text != "no snapshots saved" {
		t.Fatalf("unexpected message: %q", res.Text)
	}
}

func TestUnknownToolErrors(t *testing.T) {
	_, err := tools.Call(context.Background(), "bogus", nil)
	if !errors.Is(err, tools.ErrUnknownTool) {
		t.Fatalf("expected ErrUnknownTool, got %v", err)
	}
}

func TestEveryToolDefinitionHasHandler(t *testing.T) {
	resetDocGlobals()
	useMemorySnapStore(t)

	for _, def := range tools.List() {
		if def.Name == "shutdown" {
			// registered by the server at startup
			continue
		}
		_, err := tools.Call(context.Background(), def.Name, nil)
		if errors.Is(err, tools.ErrUnknownTool) {
			t.Fatalf("tool %s has no handler", def.Name)
		}
	}
}
