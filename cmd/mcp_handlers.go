package cmd

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"strings"
	"sync"
	"time"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"github.com/mark3labs/mcp-go/mcp"

	"domino/dom"
	"domino/fetch"
	"domino/internal/tools"
	"domino/scrape"
)

var registerHandlersOnce sync.Once

func toolDebug(format string, args ...interface{}) {
	if Verbose {
		log.Printf(format, args...)
	}
}

func init() {
	registerToolHandlers()
}

func registerToolHandlers() {
	registerHandlersOnce.Do(func() {
		tools.RegisterHandler("load", loadHandler)
		tools.RegisterHandler("search", searchHandler)
		tools.RegisterHandler("next", nextHandler)
		tools.RegisterHandler("prev", prevHandler)
		tools.RegisterHandler("parent", parentHandler)
		tools.RegisterHandler("child", childHandler)
		tools.RegisterHandler("report", reportHandler)
		tools.RegisterHandler("text", textHandler)
		tools.RegisterHandler("get_html", getHTMLHandler)
		tools.RegisterHandler("attrs", attrsHandler)
		tools.RegisterHandler("count", countHandler)
		tools.RegisterHandler("set_text", setTextHandler)
		tools.RegisterHandler("set_html", setHTMLHandler)
		tools.RegisterHandler("set_attr", setAttrHandler)
		tools.RegisterHandler("add_class", addClassHandler)
		tools.RegisterHandler("remove_class", removeClassHandler)
		tools.RegisterHandler("css", cssHandler)
		tools.RegisterHandler("append", appendHandler)
		tools.RegisterHandler("detach", detachHandler)
		tools.RegisterHandler("to_markdown", toMarkdownHandler)
		tools.RegisterHandler("meta", metaHandler)
		tools.RegisterHandler("request", requestHandler)
		tools.RegisterHandler("save_snapshot", saveSnapshotHandler)
		tools.RegisterHandler("list_snapshots", listSnapshotsHandler)
		tools.RegisterHandler("load_snapshot", loadSnapshotHandler)
	})
}

func requireCurrentElement() error {
	if CurrentElement == nil {
		return fmt.Errorf("no current element – call load/search first")
	}
	return nil
}

func loadHandler(ctx context.Context, args map[string]interface{}) (tools.Result, error) {
	var source string
	if args != nil {
		if v, ok := args["source"].(string); ok {
			source = v
		}
	}
	source = strings.TrimSpace(source)
	if source == "" {
		return tools.Result{}, fmt.Errorf("load: source argument is required")
	}

	toolDebug("[TOOLS] load CALLED args=%#v", args)

	render := boolArg(args, "render")

	res, err := withDoc(func() (tools.Result, error) {
		if strings.HasPrefix(source, "<") {
			doc, err := dom.ParseString(source)
			if err != nil {
				return tools.Result{}, fmt.Errorf("load failed to parse markup: %w", err)
			}
			adoptDocument(doc, "inline", false)
			return tools.Result{Text: fmt.Sprintf("loaded inline document (%d bytes)", len(source))}, nil
		}
		if render {
			prev := RenderPage
			RenderPage = true
			defer func() { RenderPage = prev }()
		}
		if err := LoadSource(source); err != nil {
			return tools.Result{}, fmt.Errorf("load failed: %w", err)
		}
		return tools.Result{Text: fmt.Sprintf("loaded %s", source)}, nil
	})
	if err != nil {
		return tools.Result{}, err
	}

	toolDebug("[TOOLS] load RESULT: %q", res.Text)
	return res, nil
}

func searchHandler(ctx context.Context, args map[string]interface{}) (tools.Result, error) {
	toolDebug("[TOOLS] search CALLED args=%#v", args)

	return withDoc(func() (tools.Result, error) {
		selector := strings.TrimSpace(mcp.ExtractString(args, "selector"))
		if selector == "" {
			return tools.Result{}, fmt.Errorf("search: selector is required")
		}
		msg, err := focusSearch(selector)
		if err != nil {
			return tools.Result{}, err
		}
		return tools.Result{Text: msg}, nil
	})
}

func nextHandler(ctx context.Context, args map[string]interface{}) (tools.Result, error) {
	toolDebug("[TOOLS] next CALLED args=%#v", args)

	return withDoc(func() (tools.Result, error) {
		var idxPtr *int
		if args != nil {
			if v, ok := args["index"]; ok {
				if idx, ok := toInt(v); ok {
					idxPtr = &idx
				}
			}
		}
		msg, err := focusNext(idxPtr)
		if err != nil {
			return tools.Result{}, err
		}
		return tools.Result{Text: msg}, nil
	})
}

func prevHandler(ctx context.Context, args map[string]interface{}) (tools.Result, error) {
	toolDebug("[TOOLS] prev CALLED args=%#v", args)

	return withDoc(func() (tools.Result, error) {
		var idxPtr *int
		if args != nil {
			if v, ok := args["index"]; ok {
				if idx, ok := toInt(v); ok {
					idxPtr = &idx
				}
			}
		}
		msg, err := focusPrev(idxPtr)
		if err != nil {
			return tools.Result{}, err
		}
		return tools.Result{Text: msg}, nil
	})
}

func parentHandler(ctx context.Context, args map[string]interface{}) (tools.Result, error) {
	toolDebug("[TOOLS] parent CALLED")

	return withDoc(func() (tools.Result, error) {
		msg, err := focusParent()
		if err != nil {
			return tools.Result{}, err
		}
		return tools.Result{Text: msg}, nil
	})
}

func childHandler(ctx context.Context, args map[string]interface{}) (tools.Result, error) {
	toolDebug("[TOOLS] child CALLED")

	return withDoc(func() (tools.Result, error) {
		msg, err := focusChild()
		if err != nil {
			return tools.Result{}, err
		}
		return tools.Result{Text: msg}, nil
	})
}

func reportHandler(ctx context.Context, args map[string]interface{}) (tools.Result, error) {
	toolDebug("[TOOLS] report CALLED")

	return withDoc(func() (tools.Result, error) {
		if err := requireCurrentElement(); err != nil {
			return tools.Result{}, err
		}
		line, err := reportLine(CurrentElement)
		if err != nil {
			return tools.Result{}, fmt.Errorf("report failed: %w", err)
		}
		return tools.Result{Text: line}, nil
	})
}

func textHandler(ctx context.Context, args map[string]interface{}) (tools.Result, error) {
	toolDebug("[TOOLS] text CALLED args=%#v", args)

	var lengthPtr *int
	if args != nil {
		if v, ok := args["length"]; ok {
			if length, ok := toInt(v); ok {
				lengthPtr = &length
			}
		}
	}

	res, err := withDoc(func() (tools.Result, error) {
		if err := requireCurrentElement(); err != nil {
			return tools.Result{}, err
		}
		text, err := Doc.Wrap(CurrentElement).Text()
		if err != nil {
			return tools.Result{}, fmt.Errorf("text failed: %w", err)
		}
		if lengthPtr != nil && *lengthPtr >= 0 {
			if runes := []rune(text); len(runes) > *lengthPtr {
				text = string(runes[:*lengthPtr])
			}
		}
		return tools.Result{Text: text}, nil
	})
	if err != nil {
		return tools.Result{}, err
	}

	toolDebug("[TOOLS] text RESULT length=%d", len(res.Text))
	return res, nil
}

func getHTMLHandler(ctx context.Context, args map[string]interface{}) (tools.Result, error) {
	toolDebug("[TOOLS] get_html CALLED")

	res, err := withDoc(func() (tools.Result, error) {
		if err := requireCurrentElement(); err != nil {
			return tools.Result{}, err
		}
		markup, err := Doc.Wrap(CurrentElement).OuterHTML()
		if err != nil {
			return tools.Result{}, fmt.Errorf("get_html failed: %w", err)
		}
		return tools.Result{Text: markup}, nil
	})
	if err != nil {
		return tools.Result{}, err
	}

	toolDebug("[TOOLS] get_html RESULT length=%d", len(res.Text))
	return res, nil
}

func attrsHandler(ctx context.Context, args map[string]interface{}) (tools.Result, error) {
	toolDebug("[TOOLS] attrs CALLED")

	return withDoc(func() (tools.Result, error) {
		if err := requireCurrentElement(); err != nil {
			return tools.Result{}, err
		}
		attrs := make(map[string]string, len(CurrentElement.Attr))
		for _, a := range CurrentElement.Attr {
			attrs[a.Key] = a.Val
		}
		return tools.Result{Text: PrettyFormat(attrs), ContentType: "application/json"}, nil
	})
}

func countHandler(ctx context.Context, args map[string]interface{}) (tools.Result, error) {
	toolDebug("[TOOLS] count CALLED args=%#v", args)

	return withDoc(func() (tools.Result, error) {
		selector := strings.TrimSpace(mcp.ExtractString(args, "selector"))
		if selector == "" {
			return tools.Result{}, fmt.Errorf("count: selector is required")
		}
		nodes, err := queryNodesFunc(selector)
		if err != nil {
			return tools.Result{}, fmt.Errorf("count failed: %w", err)
		}
		return tools.Result{Text: fmt.Sprintf("%d elements match selector %q", len(nodes), selector)}, nil
	})
}

func setTextHandler(ctx context.Context, args map[string]interface{}) (tools.Result, error) {
	toolDebug("[TOOLS] set_text CALLED args=%#v", args)

	return withDoc(func() (tools.Result, error) {
		text, ok := stringArg(args, "text")
		if !ok {
			return tools.Result{}, fmt.Errorf("set_text: text argument is required")
		}
		if err := requireCurrentElement(); err != nil {
			return tools.Result{}, err
		}
		Doc.Wrap(CurrentElement).SetText(text)
		return tools.Result{Text: fmt.Sprintf("set text on %s", summarizeElementFunc(CurrentElement))}, nil
	})
}

func setHTMLHandler(ctx context.Context, args map[string]interface{}) (tools.Result, error) {
	toolDebug("[TOOLS] set_html CALLED args=%#v", args)

	return withDoc(func() (tools.Result, error) {
		markup, ok := stringArg(args, "html")
		if !ok {
			return tools.Result{}, fmt.Errorf("set_html: html argument is required")
		}
		if err := requireCurrentElement(); err != nil {
			return tools.Result{}, err
		}
		Doc.Wrap(CurrentElement).SetHtml(markup)
		return tools.Result{Text: fmt.Sprintf("replaced inner HTML of %s", summarizeElementFunc(CurrentElement))}, nil
	})
}

func setAttrHandler(ctx context.Context, args map[string]interface{}) (tools.Result, error) {
	toolDebug("[TOOLS] set_attr CALLED args=%#v", args)

	return withDoc(func() (tools.Result, error) {
		name := strings.TrimSpace(mcp.ExtractString(args, "name"))
		if name == "" {
			return tools.Result{}, fmt.Errorf("set_attr: name argument is required")
		}
		value, ok := stringArg(args, "value")
		if !ok {
			return tools.Result{}, fmt.Errorf("set_attr: value argument is required")
		}
		if err := requireCurrentElement(); err != nil {
			return tools.Result{}, err
		}
		Doc.Wrap(CurrentElement).SetAttr(name, value)
		return tools.Result{Text: fmt.Sprintf("set attribute %s=%q on %s", name, value, summarizeElementFunc(CurrentElement))}, nil
	})
}

func addClassHandler(ctx context.Context, args map[string]interface{}) (tools.Result, error) {
	toolDebug("[TOOLS] add_class CALLED args=%#v", args)

	return withDoc(func() (tools.Result, error) {
		name := strings.TrimSpace(mcp.ExtractString(args, "name"))
		if name == "" {
			return tools.Result{}, fmt.Errorf("add_class: name argument is required")
		}
		if err := requireCurrentElement(); err != nil {
			return tools.Result{}, err
		}
		Doc.Wrap(CurrentElement).AddClass(name)
		return tools.Result{Text: fmt.Sprintf("added class %q to %s", name, summarizeElementFunc(CurrentElement))}, nil
	})
}

func removeClassHandler(ctx context.Context, args map[string]interface{}) (tools.Result, error) {
	toolDebug("[TOOLS] remove_class CALLED args=%#v", args)

	return withDoc(func() (tools.Result, error) {
		name := strings.TrimSpace(mcp.ExtractString(args, "name"))
		if name == "" {
			return tools.Result{}, fmt.Errorf("remove_class: name argument is required")
		}
		if err := requireCurrentElement(); err != nil {
			return tools.Result{}, err
		}
		Doc.Wrap(CurrentElement).RemoveClass(name)
		return tools.Result{Text: fmt.Sprintf("removed class %q from %s", name, summarizeElementFunc(CurrentElement))}, nil
	})
}

func cssHandler(ctx context.Context, args map[string]interface{}) (tools.Result, error) {
	toolDebug("[TOOLS] css CALLED args=%#v", args)

	return withDoc(func() (tools.Result, error) {
		property := strings.TrimSpace(mcp.ExtractString(args, "property"))
		if property == "" {
			return tools.Result{}, fmt.Errorf("css: property argument is required")
		}
		value, ok := stringArg(args, "value")
		if !ok {
			return tools.Result{}, fmt.Errorf("css: value argument is required")
		}
		if err := requireCurrentElement(); err != nil {
			return tools.Result{}, err
		}
		Doc.Wrap(CurrentElement).Css(property, value)
		if value == "" {
			return tools.Result{Text: fmt.Sprintf("removed style %s from %s", property, summarizeElementFunc(CurrentElement))}, nil
		}
		return tools.Result{Text: fmt.Sprintf("set style %s: %s on %s", property, value, summarizeElementFunc(CurrentElement))}, nil
	})
}

func appendHandler(ctx context.Context, args map[string]interface{}) (tools.Result, error) {
	toolDebug("[TOOLS] append CALLED args=%#v", args)

	return withDoc(func() (tools.Result, error) {
		pos := dom.ParsePosition(strings.TrimSpace(strings.ToLower(mcp.ExtractString(args, "position"))))
		switch pos {
		case dom.Before, dom.After, dom.AtStart, dom.AtEnd:
		default:
			return tools.Result{}, fmt.Errorf("append: position must be one of before, after, atstart, atend")
		}
		markup := mcp.ExtractString(args, "markup")
		if strings.TrimSpace(markup) == "" {
			return tools.Result{}, fmt.Errorf("append: markup argument is required")
		}
		if err := requireCurrentElement(); err != nil {
			return tools.Result{}, err
		}
		Doc.Wrap(CurrentElement).Append(pos, markup)
		return tools.Result{Text: fmt.Sprintf("inserted markup at position %s", pos)}, nil
	})
}

func detachHandler(ctx context.Context, args map[string]interface{}) (tools.Result, error) {
	toolDebug("[TOOLS] detach CALLED")

	return withDoc(func() (tools.Result, error) {
		if err := requireCurrentElement(); err != nil {
			return tools.Result{}, err
		}
		return tools.Result{Text: detachCurrent()}, nil
	})
}

func toMarkdownHandler(ctx context.Context, args map[string]interface{}) (tools.Result, error) {
	toolDebug("[TOOLS] to_markdown CALLED")

	res, err := withDoc(func() (tools.Result, error) {
		if Doc == nil {
			return tools.Result{}, fmt.Errorf("no document loaded – call load first")
		}
		var markup string
		var err error
		if CurrentElement != nil {
			markup, err = Doc.Wrap(CurrentElement).OuterHTML()
		} else {
			markup, err = Doc.Html()
		}
		if err != nil {
			return tools.Result{}, fmt.Errorf("to_markdown failed to read markup: %w", err)
		}
		md, err := htmltomarkdown.ConvertString(markup)
		if err != nil {
			return tools.Result{}, fmt.Errorf("to_markdown conversion failed: %w", err)
		}
		return tools.Result{Text: md, ContentType: "text/markdown"}, nil
	})
	if err != nil {
		return tools.Result{}, err
	}

	toolDebug("[TOOLS] to_markdown RESULT length=%d", len(res.Text))
	return res, nil
}

func metaHandler(ctx context.Context, args map[string]interface{}) (tools.Result, error) {
	toolDebug("[TOOLS] meta CALLED")

	return withDoc(func() (tools.Result, error) {
		if Doc == nil {
			return tools.Result{}, fmt.Errorf("no document loaded – call load first")
		}
		markup, err := Doc.Html()
		if err != nil {
			return tools.Result{}, fmt.Errorf("meta failed to read document: %w", err)
		}
		meta, err := scrape.Extract(Doc.URL(), strings.NewReader(markup))
		if err != nil {
			return tools.Result{}, fmt.Errorf("meta extraction failed: %w", err)
		}
		return tools.Result{Text: PrettyFormat(meta), ContentType: "application/json"}, nil
	})
}

func requestHandler(ctx context.Context, args map[string]interface{}) (tools.Result, error) {
	toolDebug("[TOOLS] request CALLED args=%#v", args)

	rawURL := strings.TrimSpace(mcp.ExtractString(args, "url"))
	if rawURL == "" {
		return tools.Result{}, fmt.Errorf("request: url argument is required")
	}
	method := strings.ToUpper(strings.TrimSpace(mcp.ExtractString(args, "method")))
	if method == "" {
		method = "GET"
	}
	body := mcp.ExtractString(args, "body")

	// Buffered so the callbacks never block after a timeout.
	done := make(chan string, 1)
	errCh := make(chan error, 1)
	pageClient.Request(fetch.Options{
		URL:    rawURL,
		Method: method,
		Body:   body,
		Success: func(body string) {
			done <- body
		},
		Error: func(status string) {
			errCh <- fmt.Errorf("request failed: %s", status)
		},
	})

	select {
	case text := <-done:
		toolDebug("[TOOLS] request RESULT length=%d", len(text))
		return tools.Result{Text: text}, nil
	case err := <-errCh:
		return tools.Result{}, err
	case <-ctx.Done():
		return tools.Result{}, ctx.Err()
	case <-time.After(requestWait()):
		return tools.Result{}, fmt.Errorf("request timed out")
	}
}

func saveSnapshotHandler(ctx context.Context, args map[string]interface{}) (tools.Result, error) {
	toolDebug("[TOOLS] save_snapshot CALLED")

	return withDoc(func() (tools.Result, error) {
		if Doc == nil {
			return tools.Result{}, fmt.Errorf("no document loaded – call load first")
		}
		store, err := openSnapStore()
		if err != nil {
			return tools.Result{}, fmt.Errorf("save_snapshot: %w", err)
		}
		markup, err := Doc.Html()
		if err != nil {
			return tools.Result{}, fmt.Errorf("save_snapshot failed to read document: %w", err)
		}
		id, err := store.Save(Doc.URL(), docTitle(), markup)
		if err != nil {
			return tools.Result{}, fmt.Errorf("save_snapshot: %w", err)
		}
		return tools.Result{Text: fmt.Sprintf("saved snapshot %d", id)}, nil
	})
}

func listSnapshotsHandler(ctx context.Context, args map[string]interface{}) (tools.Result, error) {
	toolDebug("[TOOLS] list_snapshots CALLED")

	store, err := openSnapStore()
	if err != nil {
		return tools.Result{}, fmt.Errorf("list_snapshots: %w", err)
	}
	snaps, err := store.List()
	if err != nil {
		return tools.Result{}, fmt.Errorf("list_snapshots: %w", err)
	}
	if len(snaps) == 0 {
		return tools.Result{Text: "no snapshots saved"}, nil
	}
	var b strings.Builder
	for _, s := range snaps {
		fmt.Fprintf(&b, "%d  %s  %s  %s\n", s.ID, s.CreatedAt.Format("2006-01-02 15:04:05"), s.Title, s.URL)
	}
	return tools.Result{Text: strings.TrimSuffix(b.String(), "\n")}, nil
}

func loadSnapshotHandler(ctx context.Context, args map[string]interface{}) (tools.Result, error) {
	toolDebug("[TOOLS] load_snapshot CALLED args=%#v", args)

	id, ok := 0, false
	if args != nil {
		if v, exists := args["id"]; exists {
			id, ok = toInt(v)
		}
	}
	if !ok {
		return tools.Result{}, fmt.Errorf("load_snapshot: id argument is required")
	}

	store, err := openSnapStore()
	if err != nil {
		return tools.Result{}, fmt.Errorf("load_snapshot: %w", err)
	}
	snap, err := store.Load(int64(id))
	if err != nil {
		return tools.Result{}, fmt.Errorf("load_snapshot: %w", err)
	}

	return withDoc(func() (tools.Result, error) {
		doc, err := dom.ParseString(snap.HTML)
		if err != nil {
			return tools.Result{}, fmt.Errorf("load_snapshot failed to parse snapshot: %w", err)
		}
		doc.SetURL(snap.URL)
		adoptDocument(doc, snap.URL, false)
		return tools.Result{Text: fmt.Sprintf("restored snapshot %d (%s)", snap.ID, snap.Title)}, nil
	})
}

func stringArg(args map[string]interface{}, key string) (string, bool) {
	if args == nil {
		return "", false
	}
	v, ok := args[key]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

func boolArg(args map[string]interface{}, key string) bool {
	if args == nil {
		return false
	}
	if v, ok := args[key]; ok {
		if b, okBool := toBool(v); okBool {
			return b
		}
	}
	return false
}

func toInt(v interface{}) (int, bool) {
	switch val := v.(type) {
	case int:
		return val, true
	case int32:
		return int(val), true
	case int64:
		return int(val), true
	case float64:
		return int(val), true
	case float32:
		return int(val), true
	case string:
		if s := strings.TrimSpace(val); s != "" {
			if parsed, err := strconv.Atoi(s); err == nil {
				return parsed, true
			}
		}
	}
	return 0, false
}

func toBool(v interface{}) (bool, bool) {
	switch val := v.(type) {
	case bool:
		return val, true
	case string:
		s := strings.TrimSpace(strings.ToLower(val))
		switch s {
		case "true", "1", "yes", "on", "enabled":
			return true, true
		case "false", "0", "no", "off", "disabled":
			return false, true
		}
	case float64:
		return val != 0, true
	case float32:
		return val != 0, true
	case int:
		return val != 0, true
	case int32:
		return val != 0, true
	case int64:
		return val != 0, true
	}
	return false, false
}
