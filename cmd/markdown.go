package cmd

import (
	"fmt"
	"strings"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"github.com/spf13/cobra"

	"domino/scrape"
)

var markdownFull bool

var MarkdownCmd = &cobra.Command{
	Use:     "markdown",
	Aliases: []string{"md"},
	Short:   "Convert the current element to Markdown",
	Long:    `Convert the current element's markup to Markdown. With --full the whole document is converted.`,
	Run: func(cmd *cobra.Command, args []string) {
		if !hasDocument() {
			return
		}
		var markup string
		var err error
		if markdownFull || CurrentElement == nil {
			markup, err = Doc.Html()
		} else {
			markup, err = Doc.Wrap(CurrentElement).OuterHTML()
		}
		if err != nil {
			fmt.Println("Error getting HTML:", err)
			return
		}
		md, err := htmltomarkdown.ConvertString(markup)
		if err != nil {
			fmt.Println("Error converting to Markdown:", err)
			return
		}
		fmt.Println(md)
	},
}

var MetaCmd = &cobra.Command{
	Use:   "meta",
	Short: "Extract the metadata of the current document",
	Long:  `Extract title, meta tags, canonical URL, headings and links from the current document and print them as JSON.`,
	Run: func(cmd *cobra.Command, args []string) {
		if !hasDocument() {
			return
		}
		markup, err := Doc.Html()
		if err != nil {
			fmt.Println("Error getting HTML:", err)
			return
		}
		meta, err := scrape.Extract(Doc.URL(), strings.NewReader(markup))
		if err != nil {
			fmt.Println("Error extracting metadata:", err)
			return
		}
		fmt.Println(PrettyFormat(meta))
	},
}

var DumpCmd = &cobra.Command{
	Use:   "dump",
	Short: "Print the whole document as HTML",
	Run: func(cmd *cobra.Command, args []string) {
		if !hasDocument() {
			return
		}
		markup, err := Doc.Html()
		if err != nil {
			fmt.Println("Error getting HTML:", err)
			return
		}
		fmt.Println(markup)
	},
}

func init() {
	MarkdownCmd.Flags().BoolVar(&markdownFull, "full", false, "Convert the whole document instead of the current element")

	RootCmd.AddCommand(MarkdownCmd)
	RootCmd.AddCommand(MetaCmd)
	RootCmd.AddCommand(DumpCmd)
}
