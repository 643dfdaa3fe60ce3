package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/spf13/cobra"

	"domino/scrape"
)

const maxServeClients = 32

// reloadHub tracks the websocket clients of the serve command and pushes
// reload notices to them when the source file changes.
type reloadHub struct {
	upgrader websocket.Upgrader

	clients      map[*websocket.Conn]bool
	clientsMutex sync.RWMutex

	stopCh   chan struct{}
	stopOnce sync.Once
}

func newReloadHub() *reloadHub {
	return &reloadHub{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		clients: make(map[*websocket.Conn]bool),
		stopCh:  make(chan struct{}),
	}
}

func (h *reloadHub) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	h.clientsMutex.RLock()
	count := len(h.clients)
	h.clientsMutex.RUnlock()
	if count >= maxServeClients {
		http.Error(w, "Too many clients connected", http.StatusServiceUnavailable)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "websocket upgrade failed: %v\n", err)
		return
	}

	h.clientsMutex.Lock()
	h.clients[conn] = true
	h.clientsMutex.Unlock()

	defer func() {
		h.clientsMutex.Lock()
		delete(h.clients, conn)
		h.clientsMutex.Unlock()
		conn.Close()
	}()

	conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	readDone := make(chan struct{})
	go func() {
		defer close(readDone)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-h.stopCh:
			conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		case <-readDone:
			return
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (h *reloadHub) broadcast(message string) {
	h.clientsMutex.RLock()
	if len(h.clients) == 0 {
		h.clientsMutex.RUnlock()
		return
	}
	conns := make([]*websocket.Conn, 0, len(h.clients))
	for conn := range h.clients {
		conns = append(conns, conn)
	}
	h.clientsMutex.RUnlock()

	var failed []*websocket.Conn
	for _, conn := range conns {
		conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
		if err := conn.WriteMessage(websocket.TextMessage, []byte(message)); err != nil {
			failed = append(failed, conn)
		}
	}
	if len(failed) == 0 {
		return
	}
	h.clientsMutex.Lock()
	for _, conn := range failed {
		delete(h.clients, conn)
		conn.Close()
	}
	h.clientsMutex.Unlock()
}

func (h *reloadHub) stop() {
	h.stopOnce.Do(func() { close(h.stopCh) })
}

const reloadScript = `<script>(function(){var proto=location.protocol==="https:"?"wss://":"ws://";var ws=new WebSocket(proto+location.host+"/ws");ws.onmessage=function(){location.reload();};})();</script>`

// injectReloadScript adds the live-reload client before the closing body tag,
// or at the end when there is none.
func injectReloadScript(markup string) string {
	if idx := strings.LastIndex(markup, "</body>"); idx >= 0 {
		return markup[:idx] + reloadScript + markup[idx:]
	}
	return markup + reloadScript
}

func servePageHandler(w http.ResponseWriter, r *http.Request) {
	markup, err := withDoc(func() (string, error) {
		if Doc == nil {
			return "", fmt.Errorf("no document loaded")
		}
		return Doc.Html()
	})
	if err != nil {
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprint(w, injectReloadScript(markup))
}

func serveMetaHandler(w http.ResponseWriter, r *http.Request) {
	meta, err := withDoc(func() (*scrape.PageMeta, error) {
		if Doc == nil {
			return nil, fmt.Errorf("no document loaded")
		}
		markup, err := Doc.Html()
		if err != nil {
			return nil, err
		}
		return scrape.Extract(Doc.URL(), strings.NewReader(markup))
	})
	if err != nil {
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(meta)
}

// watchSource watches the current source file and calls onChange after a
// short debounce. Events for other files in the same directory are ignored.
func watchSource(onChange func()) (*fsnotify.Watcher, error) {
	if !currentSourceIsFile {
		return nil, fmt.Errorf("current document was not loaded from a file")
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	// Watch the directory, not the file: editors often replace the file on
	// save, which would drop a watch on the file itself.
	dir := filepath.Dir(currentSource)
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return nil, err
	}
	target := filepath.Base(currentSource)

	go func() {
		var debounce *time.Timer
		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
					continue
				}
				if filepath.Base(event.Name) != target {
					continue
				}
				if debounce != nil {
					debounce.Stop()
				}
				debounce = time.AfterFunc(100*time.Millisecond, onChange)
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				fmt.Fprintf(os.Stderr, "watch error: %v\n", err)
			}
		}
	}()
	return watcher, nil
}

// reloadCurrentSource re-reads the source under the document lock.
func reloadCurrentSource() error {
	_, err := withDoc(func() (struct{}, error) {
		return struct{}{}, LoadSource(currentSource)
	})
	return err
}

var serveAddrFlag string

var ServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the current document over HTTP with live reload",
	Long: `Start an HTTP server that serves the current document, with any edits.
Browsers viewing the page reload automatically when the source file changes on
disk. GET /meta returns the extracted page metadata as JSON.`,
	Run: func(cmd *cobra.Command, args []string) {
		if !hasDocument() {
			return
		}
		addr := strings.TrimSpace(serveAddrFlag)
		if addr == "" {
			addr = activeConfig().ServeAddr
		}

		hub := newReloadHub()

		if currentSourceIsFile {
			watcher, err := watchSource(func() {
				if err := reloadCurrentSource(); err != nil {
					fmt.Fprintf(os.Stderr, "reload failed: %v\n", err)
					return
				}
				fmt.Printf("%s changed, reloaded\n", currentSource)
				hub.broadcast("reload")
			})
			if err != nil {
				fmt.Println("Error watching source:", err)
				return
			}
			defer watcher.Close()
		}

		r := chi.NewMux()
		if Verbose {
			r.Use(middleware.Logger)
		}
		r.Use(middleware.Recoverer)
		r.Get("/", servePageHandler)
		r.Get("/meta", serveMetaHandler)
		r.Get("/ws", hub.handleWebSocket)

		srv := &http.Server{
			Addr:              addr,
			Handler:           r,
			ReadHeaderTimeout: 10 * time.Second,
		}

		errCh := make(chan error, 1)
		go func() { errCh <- srv.ListenAndServe() }()
		fmt.Printf("Serving current document on %s\n", addr)

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
		defer signal.Stop(sigCh)

		select {
		case err := <-errCh:
			if err != nil && err != http.ErrServerClosed {
				fmt.Println("Error serving:", err)
			}
		case <-sigCh:
			fmt.Println("Shutting down server...")
			hub.stop()
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := srv.Shutdown(ctx); err != nil {
				fmt.Println("Error shutting down:", err)
			}
		}
	},
}

var WatchCmd = &cobra.Command{
	Use:   "watch <selector>",
	Short: "Watch the source file and report selector matches on every change",
	Long: `Reload the document whenever its source file changes and report how many
elements match the selector. Runs until interrupted.`,
	Args: cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if !hasDocument() {
			return
		}
		if !currentSourceIsFile {
			fmt.Println("Error: watch needs a document loaded from a file.")
			return
		}
		selector := strings.Join(args, " ")

		count := func() (int, error) {
			return withDoc(func() (int, error) {
				nodes, err := queryNodesFunc(selector)
				if err != nil {
					return 0, err
				}
				return len(nodes), nil
			})
		}

		last, err := count()
		if err != nil {
			fmt.Println("Error resolving selector:", err)
			return
		}
		fmt.Printf("%d elements match selector %q\n", last, selector)

		var mu sync.Mutex
		watcher, err := watchSource(func() {
			mu.Lock()
			defer mu.Unlock()
			if err := reloadCurrentSource(); err != nil {
				fmt.Fprintf(os.Stderr, "reload failed: %v\n", err)
				return
			}
			n, err := count()
			if err != nil {
				fmt.Println("Error resolving selector:", err)
				return
			}
			if n != last {
				fmt.Printf("%d elements match selector %q (was %d)\n", n, selector, last)
				last = n
			} else if Verbose {
				fmt.Fprintf(os.Stderr, "%s changed, still %d matches\n", currentSource, n)
			}
		})
		if err != nil {
			fmt.Println("Error watching source:", err)
			return
		}
		defer watcher.Close()

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
		defer signal.Stop(sigCh)
		<-sigCh
		fmt.Println("Watch stopped.")
	},
}

func init() {
	ServeCmd.Flags().StringVar(&serveAddrFlag, "addr", "", "Listen address (overrides the configured one)")

	RootCmd.AddCommand(ServeCmd)
	RootCmd.AddCommand(WatchCmd)
}
