package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"sync"

	"github.com/spf13/cobra"

	"domino/internal/tools"
)

// path to the MCP debug log file, override with --log
var mcpLogPath string

// mcpCmd is the cobra subcommand which will start our MCP server.
var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Run Domino in MCP-server mode over stdio",
	Long: `Run a tool server over stdio. Each line on stdin is a JSON request naming a
tool and its arguments; each response is one JSON line on stdout. The tool set
mirrors the interactive commands: loading, searching, navigating, inspecting
and rewriting the current document.`,
	Run: runMCP,
}

var toolsJSON bool

// ToolsCmd lists the tool set so clients know what the server accepts.
var ToolsCmd = &cobra.Command{
	Use:   "tools",
	Short: "List the tools exposed by the MCP server",
	Long: `List every tool the MCP server exposes. With --json the list is printed as
a tool manifest with namespaced names and JSON schemas.`,
	Run: func(cmd *cobra.Command, args []string) {
		defs := tools.List()
		if !toolsJSON {
			for _, def := range defs {
				fmt.Printf("%-15s %s\n", def.Name, def.Description)
			}
			return
		}
		manifest := make([]map[string]interface{}, 0, len(defs))
		for _, def := range defs {
			manifest = append(manifest, map[string]interface{}{
				"name":        tools.SanitizeName("domino", def.Name),
				"description": def.Description,
				"inputSchema": tools.Schema(def),
			})
		}
		fmt.Println(PrettyFormat(manifest))
	},
}

func init() {
	RootCmd.AddCommand(mcpCmd)
	mcpCmd.Flags().StringVarP(&mcpLogPath, "log", "l", "domino-mcp.log", "path to the MCP debug log file")

	RootCmd.AddCommand(ToolsCmd)
	ToolsCmd.Flags().BoolVar(&toolsJSON, "json", false, "Print the tool manifest as JSON")

	// ensure cobra's own help/errors go to stderr
	mcpCmd.SetOut(os.Stderr)
	mcpCmd.SetErr(os.Stderr)
}

func runMCP(cmd *cobra.Command, args []string) {
	// FORCE the standard logger to stderr; stdout belongs to the protocol
	log.SetOutput(os.Stderr)
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)

	f, err := os.OpenFile(mcpLogPath,
		os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: cannot open mcp log %q: %v\n", mcpLogPath, err)
	} else {
		mw := io.MultiWriter(os.Stderr, f)
		log.SetOutput(mw)
		defer f.Close()
	}

	registerToolHandlers()

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	server := NewServer(os.Stdin, os.Stdout)

	done := make(chan struct{})
	var closeDone sync.Once

	for _, def := range tools.List() {
		if def.Name == "shutdown" {
			continue
		}
		def := def
		server.RegisterTool(def.Name, func(ctx context.Context, raw json.RawMessage) (interface{}, error) {
			log.Printf("→ tool=%s raw args=%s", def.Name, string(raw))
			toolArgs := map[string]interface{}{}
			if len(raw) > 0 {
				if err := json.Unmarshal(raw, &toolArgs); err != nil {
					log.Printf("✗ %s unmarshal error: %v", def.Name, err)
					return nil, fmt.Errorf("%s failed: %w", def.Name, err)
				}
			}
			result, err := tools.Call(ctx, def.Name, toolArgs)
			if err != nil {
				log.Printf("✗ %s error: %v", def.Name, err)
				return nil, err
			}
			log.Printf("✓ %s response length=%d", def.Name, len(result.Text))
			return result.Text, nil
		})
	}

	server.RegisterTool("shutdown", func(context.Context, json.RawMessage) (interface{}, error) {
		log.Printf("→ tool=shutdown")
		closeDone.Do(func() { close(done) })
		return "shutting down", nil
	})

	go func() {
		if err := server.Serve(ctx); err != nil {
			log.Printf("server.Serve() error: %v", err)
		} else {
			log.Printf("server.Serve() exited cleanly")
		}
		// stdin closed; nothing more can arrive, so stop waiting
		closeDone.Do(func() { close(done) })
	}()

	<-done
}
