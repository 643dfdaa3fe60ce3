package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/net/html"
)

var ReportCmd = &cobra.Command{
	Use:     "report",
	Aliases: []string{"r"},
	Short:   "Report on the current element",
	Long:    `Print the tag name, descendant element count, and leading text of the current element.`,
	Run: func(cmd *cobra.Command, args []string) {
		if !hasCurrentElement() {
			return
		}
		ReportElement(CurrentElement)
	},
}

var TextCmd = &cobra.Command{
	Use:   "text",
	Short: "Print the text content of the current element",
	Run: func(cmd *cobra.Command, args []string) {
		if !hasCurrentElement() {
			return
		}
		text, err := Doc.Wrap(CurrentElement).Text()
		if err != nil {
			fmt.Println("Error getting text:", err)
			return
		}
		fmt.Println(text)
	},
}

var htmlOuter bool

var HtmlCmd = &cobra.Command{
	Use:   "html",
	Short: "Print the HTML of the current element",
	Long:  `Print the inner HTML of the current element, or the element's own markup with --outer.`,
	Run: func(cmd *cobra.Command, args []string) {
		if !hasCurrentElement() {
			return
		}
		sel := Doc.Wrap(CurrentElement)
		var markup string
		var err error
		if htmlOuter {
			markup, err = sel.OuterHTML()
		} else {
			markup, err = sel.Html()
		}
		if err != nil {
			fmt.Println("Error getting HTML:", err)
			return
		}
		fmt.Println(markup)
	},
}

var AttrsCmd = &cobra.Command{
	Use:   "attrs",
	Short: "Print the attributes of the current element",
	Run: func(cmd *cobra.Command, args []string) {
		if !hasCurrentElement() {
			return
		}
		attrs := map[string]string{}
		for _, a := range CurrentElement.Attr {
			attrs[a.Key] = a.Val
		}
		fmt.Println(PrettyFormat(attrs))
	},
}

var BoxCmd = &cobra.Command{
	Use:   "box",
	Short: "Get the box of the current element",
	Run: func(cmd *cobra.Command, args []string) {
		if !hasCurrentElement() {
			return
		}
		Box(CurrentElement)
	},
}

var ClassesCmd = &cobra.Command{
	Use:   "classes",
	Short: "Print the classes of the current element",
	Run: func(cmd *cobra.Command, args []string) {
		if !hasCurrentElement() {
			return
		}
		classes := strings.Fields(nodeAttr(CurrentElement, "class"))
		fmt.Println(PrettyFormat(classes))
	},
}

var ValCmd = &cobra.Command{
	Use:   "val",
	Short: "Print the form value of the current element",
	Run: func(cmd *cobra.Command, args []string) {
		if !hasCurrentElement() {
			return
		}
		val, err := Doc.Wrap(CurrentElement).Val()
		if err != nil {
			fmt.Println("Error getting value:", err)
			return
		}
		fmt.Println(val)
	},
}

var CountCmd = &cobra.Command{
	Use:   "count <selector>",
	Short: "Count the elements matching a selector",
	Args:  cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if !hasDocument() {
			return
		}
		selector := strings.Join(args, " ")
		nodes, err := queryNodesFunc(selector)
		if err != nil {
			fmt.Println("Error counting elements:", err)
			return
		}
		fmt.Printf("%d elements match selector %q\n", len(nodes), selector)
	},
}

var OutlineCmd = &cobra.Command{
	Use:   "outline",
	Short: "Print the heading outline of the document",
	Long:  `Print every heading in document order, indented by level, as a quick structural overview of the page.`,
	Run: func(cmd *cobra.Command, args []string) {
		if !hasDocument() {
			return
		}
		headings, err := queryNodesFunc("h1, h2, h3, h4, h5, h6")
		if err != nil {
			fmt.Println("Error building outline:", err)
			return
		}
		if len(headings) == 0 {
			fmt.Println("No headings found.")
			return
		}
		for _, h := range headings {
			fmt.Println(outlineLine(h))
		}
	},
}

// outlineLine renders one heading as "<indent><tag> <text>", two spaces of
// indent per heading level below h1.
func outlineLine(n *html.Node) string {
	level := 1
	if len(n.Data) == 2 && n.Data[0] == 'h' {
		level = int(n.Data[1] - '0')
	}
	text := fmt.Sprintf("%.80s", normalizeWhitespace(nodeText(n)))
	return fmt.Sprintf("%s%s %s", strings.Repeat("  ", level-1), n.Data, text)
}

func init() {
	HtmlCmd.Flags().BoolVar(&htmlOuter, "outer", false, "Print the element's own markup instead of its inner HTML")

	RootCmd.AddCommand(ReportCmd)
	RootCmd.AddCommand(TextCmd)
	RootCmd.AddCommand(HtmlCmd)
	RootCmd.AddCommand(AttrsCmd)
	RootCmd.AddCommand(BoxCmd)
	RootCmd.AddCommand(ClassesCmd)
	RootCmd.AddCommand(ValCmd)
	RootCmd.AddCommand(CountCmd)
	RootCmd.AddCommand(OutlineCmd)
}
