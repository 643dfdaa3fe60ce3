package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"os/exec"
	"runtime"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/net/html"

	"domino/browser"
	"domino/dom"
	"domino/fetch"
	"domino/internal/config"
)

var Interactive bool
var Verbose bool
var RenderPage bool       // Load pages through a headless browser
var Stealth bool          // Enable stealth mode for rendered loads
var IgnoreCertErrors bool // Ignore certificate errors for rendered loads

var cfgFile string
var configErr error

// Cfg is the resolved runtime configuration, set before any command runs.
var Cfg *config.Config

// Doc is the current document; CurrentElement is the navigation focus within
// it. elementList holds the active numbered result list (search hits or the
// heading list seeded at load).
var Doc *dom.Document
var CurrentElement *html.Node
var elementList []*html.Node
var currentIndex int

// currentSource remembers what LoadSource last read so reload, serve and
// watch can go back to it.
var currentSource string
var currentSourceIsFile bool

// pageClient performs plain HTTP loads; it is rebuilt from configuration
// before commands run and carries the current document's URL as its base.
var pageClient = fetch.NewClient()

var browserSession *browser.Session

var RootCmd = &cobra.Command{
	Use:   "domino [source]",
	Short: "A command-line tool for walking and reworking HTML documents",
	Long: `Domino is a command-line tool that allows you to load, navigate, inspect,
and rewrite HTML documents. It parses a page into a DOM tree and lets you walk
through it with jQuery-flavored selector queries, change text, attributes,
classes and styles, fire synthetic events, and write the result back out. Pages
come from URLs, local files, or stdin; a headless browser can render
script-heavy pages first.`,
	Args: cobra.MinimumNArgs(1),
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		cfg, err := config.Load(cfgFile, cmd.Root().PersistentFlags())
		if err != nil {
			configErr = err
			return
		}
		configErr = nil
		Cfg = cfg
		Verbose = cfg.Verbose
		RenderPage = cfg.Render
		pageClient = fetch.NewClient(
			fetch.WithUserAgent(cfg.UserAgent),
			fetch.WithHTTPClient(&http.Client{Timeout: time.Duration(cfg.TimeoutSecs) * time.Second}),
		)
	},
	Run: func(cmd *cobra.Command, args []string) {
		if configErr != nil {
			fmt.Println("Error loading configuration:", configErr)
			return
		}
		// set interactive mode for this root command by default
		Interactive = true

		source := args[0]
		if err := LoadSource(source); err != nil {
			fmt.Println("Error loading document:", err)
			return
		}

		headings, err := queryNodesFunc("h1, h2, h3, h4, h5, h6")
		if err != nil {
			if Verbose {
				fmt.Println("Error finding headings:", err)
			}
			headings = nil
		}
		// setup navigable heading list
		elementList = headings

		if len(elementList) > 0 {
			currentIndex = 0
			CurrentElement = elementList[currentIndex]
		}
		if CurrentElement == nil {
			fmt.Println("Page seems to have no body:", source)
			return
		}
		fmt.Printf("Loaded %s (%d headings)\n", source, len(elementList))

		if Interactive && stdinIsTerminal() {
			runInteractive()
		}
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		closeBrowserSession()
		closeSnapStore()
	},
}

// activeConfig returns the loaded configuration, falling back to defaults
// when a command runs before PersistentPreRun could resolve one.
func activeConfig() *config.Config {
	if Cfg != nil {
		return Cfg
	}
	return &config.Config{
		UserAgent:   config.DefaultUserAgent,
		TimeoutSecs: config.DefaultTimeoutSecs,
		ServeAddr:   config.DefaultServeAddr,
	}
}

// LoadSource reads a document from a URL, a file path, or stdin ("-"),
// parses it, and makes it current with the focus on its body. Callers that
// can race with background reloads serialise through withDoc.
func LoadSource(source string) error {
	markup, base, isFile, err := readSource(source)
	if err != nil {
		return err
	}
	doc, err := dom.ParseString(markup)
	if err != nil {
		return err
	}
	doc.SetURL(base)
	adoptDocument(doc, source, isFile)
	return nil
}

// adoptDocument installs doc as the current document, resets the element
// list, and focuses the body.
func adoptDocument(doc *dom.Document, source string, isFile bool) {
	Doc = doc
	elementList = nil
	currentIndex = 0
	CurrentElement = nil
	currentSource = source
	currentSourceIsFile = isFile
	if u := doc.URL(); u != "" {
		pageClient.SetBaseURL(u)
	}
	if body, err := doc.Find("body").Resolve(); err == nil && len(body) > 0 {
		CurrentElement = body[0]
	}
}

// readSource fetches the raw markup for a source plus the base URL it should
// resolve links against, and whether it came from a local file.
func readSource(source string) (markup, base string, isFile bool, err error) {
	switch {
	case source == "-":
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", "", false, fmt.Errorf("read stdin: %w", err)
		}
		return string(data), "", false, nil
	case isValidURL(source):
		if RenderPage {
			info, err := renderDocumentFunc(source)
			if err != nil {
				return "", "", false, err
			}
			return info.HTML, info.URL, false, nil
		}
		body, err := fetchDocumentFunc(source)
		if err != nil {
			return "", "", false, err
		}
		return body, source, false, nil
	default:
		data, err := os.ReadFile(source)
		if err != nil {
			return "", "", false, fmt.Errorf("read file: %w", err)
		}
		return string(data), "", true, nil
	}
}

var fetchDocumentFunc = func(rawURL string) (string, error) {
	return pageClient.Get(rawURL)
}

var renderDocumentFunc = renderDocument

// renderDocument loads a URL through the headless browser, keeping the
// session open for later loads in the same run.
func renderDocument(rawURL string) (*browser.PageInfo, error) {
	if browserSession == nil {
		s, err := browser.Open(browser.Options{
			Stealth:          Stealth,
			IgnoreCertErrors: IgnoreCertErrors,
			Timeout:          time.Duration(activeConfig().TimeoutSecs) * time.Second,
		})
		if err != nil {
			return nil, err
		}
		browserSession = s
	}
	return browserSession.Render(rawURL)
}

func closeBrowserSession() {
	if browserSession != nil {
		browserSession.Close()
		browserSession = nil
	}
}

func isValidURL(str string) bool {
	u, err := url.Parse(str)
	return err == nil && u.Scheme != "" && u.Host != ""
}

// PrettyFormat function
func PrettyFormat(v interface{}) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}

// prettyPrintJson function
func prettyPrintJson(s string) string {
	var i interface{}
	json.Unmarshal([]byte(s), &i)
	b, _ := json.MarshalIndent(i, "", "  ")
	return string(b)
}

func ReportElement(n *html.Node) {
	line, err := reportLine(n)
	if err != nil {
		fmt.Println("Error getting text:", err)
		return
	}
	fmt.Println(line)
}

func reportLine(n *html.Node) (string, error) {
	sel := Doc.Wrap(n)
	tagName := nodeTag(n)
	childrenCount := sel.Find("*").Length()
	text, err := sel.Text()
	if err != nil {
		return "", err
	}

	// Limit the text to maxChars characters
	limitedText := fmt.Sprintf("%.50s", normalizeWhitespace(text))

	return fmt.Sprintf("%s, %d children, %s", tagName, childrenCount, limitedText), nil
}

func Box(n *html.Node) {
	sel := Doc.Wrap(n)
	width, _ := sel.Width()
	height, _ := sel.Height()
	visible, _ := sel.Visible()
	box := map[string]interface{}{
		"width":   width,
		"height":  height,
		"visible": visible,
	}
	fmt.Println("box: ", PrettyFormat(box))
}

func nodeTag(n *html.Node) string {
	if n == nil || n.Type != html.ElementNode {
		return ""
	}
	return n.Data
}

func hasDocument() bool {
	if Doc == nil {
		fmt.Println("Error: no document is loaded. Please load a page first.")
		return false
	}
	return true
}

func hasCurrentElement() bool {
	if CurrentElement == nil {
		fmt.Println("Error: CurrentElement is not defined. Please load a page or navigate to an element first.")
		return false
	}
	return true
}

var ClearCmd = &cobra.Command{
	Use:     "clear",
	Aliases: []string{"cls"},
	Short:   "Clear the terminal screen",
	Long:    `This command will clear the terminal screen.`,
	Run: func(cmd *cobra.Command, args []string) {
		if runtime.GOOS == "windows" {
			cmd := exec.Command("cmd", "/c", "cls")
			cmd.Stdout = os.Stdout
			cmd.Run()
		} else {
			cmd := exec.Command("clear")
			cmd.Stdout = os.Stdout
			cmd.Run()
		}
	},
}

var LoadCmd = &cobra.Command{
	Use:   "load <source>",
	Short: "Load a document from a URL, a file, or stdin",
	Long:  `Load a document and make it current. The source is a URL, a file path, or "-" for stdin.`,
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if err := LoadSource(args[0]); err != nil {
			fmt.Println("Error loading document:", err)
			return
		}
		fmt.Println("Loaded", args[0])
	},
}

var ReloadCmd = &cobra.Command{
	Use:   "reload",
	Short: "Reload the current document from its source",
	Long:  `This command will reload the current document from its source.`,
	Run: func(cmd *cobra.Command, args []string) {
		if currentSource == "" {
			fmt.Println("Error: no document has been loaded yet.")
			return
		}
		if err := LoadSource(currentSource); err != nil {
			fmt.Println("Error reloading document:", err)
			return
		}
		fmt.Println("Document reloaded successfully.")
	},
}

var ExitCmd = &cobra.Command{
	Use:     "exit",
	Aliases: []string{"q", "Q", "bye"},
	Short:   "Exit the application",
	Long:    `This command will exit the application.`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("Goodbye!")
		closeBrowserSession()
		closeSnapStore()
		Doc = nil
		CurrentElement = nil
		os.Exit(0)
	},
}

func init() {
	RootCmd.PersistentFlags().BoolVarP(&Interactive, "interactive", "i", false, "Enable interactive mode")
	RootCmd.PersistentFlags().BoolVarP(&Verbose, "verbose", "v", false, "Enable verbose mode")
	RootCmd.PersistentFlags().BoolVarP(&RenderPage, "render", "r", false, "Render pages in a headless browser before parsing")
	RootCmd.PersistentFlags().BoolVarP(&Stealth, "stealth", "s", false, "Enable stealth mode (rendered loads only)")
	RootCmd.PersistentFlags().BoolVarP(&IgnoreCertErrors, "ignore-cert-errors", "k", false, "Ignore certificate errors (rendered loads only)")
	RootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "Path to a config file")
	RootCmd.PersistentFlags().String("user-agent", config.DefaultUserAgent, "User agent for HTTP loads")
	RootCmd.PersistentFlags().Int("timeout", config.DefaultTimeoutSecs, "HTTP timeout in seconds")
	RootCmd.PersistentFlags().String("serve-addr", config.DefaultServeAddr, "Listen address for the serve command")
	RootCmd.PersistentFlags().String("snapshot-db", "", "Path to the snapshot database")

	RootCmd.AddCommand(ClearCmd)
	RootCmd.AddCommand(ExitCmd)
	RootCmd.AddCommand(LoadCmd)
	RootCmd.AddCommand(ReloadCmd)
}
