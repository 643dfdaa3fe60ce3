package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"domino/dom"
	"domino/internal/appdirs"
	"domino/internal/snapstore"
)

var snapStore *snapstore.Store

// openSnapStore opens the snapshot database on first use and keeps it open
// for the rest of the run.
func openSnapStore() (*snapstore.Store, error) {
	if snapStore != nil {
		return snapStore, nil
	}
	path := strings.TrimSpace(activeConfig().SnapshotDB)
	if path == "" {
		dir, err := appdirs.DataDir()
		if err != nil {
			return nil, err
		}
		path = filepath.Join(dir, "snapshots.db")
	}
	store, err := snapstore.Open(path)
	if err != nil {
		return nil, err
	}
	snapStore = store
	return snapStore, nil
}

func closeSnapStore() {
	if snapStore != nil {
		snapStore.Close()
		snapStore = nil
	}
}

// docTitle returns the text of the document's title element, or "".
func docTitle() string {
	if Doc == nil {
		return ""
	}
	nodes, err := queryNodesFunc("title")
	if err != nil || len(nodes) == 0 {
		return ""
	}
	return normalizeWhitespace(nodeText(nodes[0]))
}

var SaveCmd = &cobra.Command{
	Use:   "save",
	Short: "Save the current document as a snapshot",
	Long:  `Store the current document, with any edits, in the snapshot database.`,
	Run: func(cmd *cobra.Command, args []string) {
		if !hasDocument() {
			return
		}
		store, err := openSnapStore()
		if err != nil {
			fmt.Println("Error opening snapshot store:", err)
			return
		}
		markup, err := Doc.Html()
		if err != nil {
			fmt.Println("Error getting HTML:", err)
			return
		}
		id, err := store.Save(Doc.URL(), docTitle(), markup)
		if err != nil {
			fmt.Println("Error saving snapshot:", err)
			return
		}
		fmt.Printf("Saved snapshot %d\n", id)
	},
}

var SnapsCmd = &cobra.Command{
	Use:   "snaps",
	Short: "List the saved snapshots",
	Run: func(cmd *cobra.Command, args []string) {
		store, err := openSnapStore()
		if err != nil {
			fmt.Println("Error opening snapshot store:", err)
			return
		}
		snaps, err := store.List()
		if err != nil {
			fmt.Println("Error listing snapshots:", err)
			return
		}
		if len(snaps) == 0 {
			fmt.Println("No snapshots saved.")
			return
		}
		for _, s := range snaps {
			fmt.Printf("%d  %s  %s  %s\n", s.ID, s.CreatedAt.Format("2006-01-02 15:04:05"), s.Title, s.URL)
		}
	},
}

var RestoreCmd = &cobra.Command{
	Use:   "restore <id>",
	Short: "Restore a saved snapshot as the current document",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			fmt.Println("Error: Invalid snapshot id.")
			return
		}
		store, err := openSnapStore()
		if err != nil {
			fmt.Println("Error opening snapshot store:", err)
			return
		}
		snap, err := store.Load(id)
		if err != nil {
			fmt.Println("Error loading snapshot:", err)
			return
		}
		doc, err := dom.ParseString(snap.HTML)
		if err != nil {
			fmt.Println("Error parsing snapshot:", err)
			return
		}
		doc.SetURL(snap.URL)
		adoptDocument(doc, snap.URL, false)
		fmt.Printf("Restored snapshot %d (%s)\n", snap.ID, snap.Title)
	},
}

var SnapRmCmd = &cobra.Command{
	Use:   "snaprm <id>",
	Short: "Delete a saved snapshot",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			fmt.Println("Error: Invalid snapshot id.")
			return
		}
		store, err := openSnapStore()
		if err != nil {
			fmt.Println("Error opening snapshot store:", err)
			return
		}
		if err := store.Delete(id); err != nil {
			fmt.Println("Error deleting snapshot:", err)
			return
		}
		fmt.Printf("Deleted snapshot %d\n", id)
	},
}

var WriteCmd = &cobra.Command{
	Use:   "write [file]",
	Short: "Write the current document to a file",
	Long:  `Serialize the current document, with any edits, to an HTML file. Without an argument the file is named after the document title and the current time.`,
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if !hasDocument() {
			return
		}
		markup, err := Doc.Html()
		if err != nil {
			fmt.Println("Error getting HTML:", err)
			return
		}
		name := ""
		if len(args) > 0 {
			name = args[0]
		}
		if strings.TrimSpace(name) == "" {
			name = defaultWriteFilename(docTitle(), time.Now())
		}
		if err := os.WriteFile(name, []byte(markup), 0644); err != nil {
			fmt.Println("Error writing file:", err)
			return
		}
		fmt.Printf("Wrote %d bytes to %s\n", len(markup), name)
	},
}

var filenameSanitizer = strings.NewReplacer(
	"<", "_",
	">", "_",
	":", "_",
	"\"", "_",
	"/", "_",
	"\\", "_",
	"|", "_",
	"?", "_",
	"*", "_",
)

// sanitizeComponent removes filesystem-hostile characters but allows empty results.
func sanitizeComponent(value string) string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return ""
	}
	return strings.TrimSpace(filenameSanitizer.Replace(trimmed))
}

func defaultWriteFilename(title string, now time.Time) string {
	components := make([]string, 0, 2)
	if name := sanitizeComponent(title); name != "" {
		components = append(components, name)
	}
	if ts := sanitizeComponent(now.Format("2006-01-02_150405")); ts != "" {
		components = append(components, ts)
	}
	if len(components) == 0 {
		components = append(components, "page")
	}
	return strings.Join(components, "_") + ".html"
}

func init() {
	RootCmd.AddCommand(SaveCmd)
	RootCmd.AddCommand(SnapsCmd)
	RootCmd.AddCommand(RestoreCmd)
	RootCmd.AddCommand(SnapRmCmd)
	RootCmd.AddCommand(WriteCmd)
}
