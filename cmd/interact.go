package cmd

import (
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

var FollowCmd = &cobra.Command{
	Use:     "follow",
	Aliases: []string{"click"},
	Short:   "Follow the link of the current element",
	Long:    `Load the document the current element's href points to, resolved against the current document's URL.`,
	Run: func(cmd *cobra.Command, args []string) {
		if !hasCurrentElement() {
			return
		}
		href := strings.TrimSpace(nodeAttr(CurrentElement, "href"))
		if href == "" {
			fmt.Println("Error: the current element has no href to follow.")
			return
		}
		base := ""
		if Doc != nil {
			base = Doc.URL()
		}
		resolved, err := resolveURL(base, href)
		if err != nil {
			fmt.Println("Error resolving link:", err)
			return
		}
		if err := LoadSource(resolved); err != nil {
			fmt.Println("Error following link:", err)
			return
		}
		if Verbose {
			fmt.Fprintf(os.Stderr, "navigated via href to %s\n", resolved)
		}
		fmt.Println("Followed link to", resolved)
	},
}

var FillCmd = &cobra.Command{
	Use:     "fill <text>",
	Aliases: []string{"type"},
	Short:   "Fill the current form element with text",
	Run: func(cmd *cobra.Command, args []string) {
		if !hasCurrentElement() {
			return
		}
		if len(args) < 1 {
			fmt.Println("Error: No text provided for filling")
			return
		}
		text := strings.Join(args, " ")
		text = strings.TrimSpace(text)
		if l := len(text); l >= 2 {
			if (text[0] == '"' && text[l-1] == '"') || (text[0] == '\'' && text[l-1] == '\'') {
				text = text[1 : l-1]
			}
		}
		sel := Doc.Wrap(CurrentElement)
		if nodeTag(CurrentElement) == "textarea" {
			sel.SetText(text)
		} else {
			sel.SetAttr("value", text)
		}
		if err := sel.Err(); err != nil {
			fmt.Println("Error filling the current element:", err)
			return
		}
	},
}

func init() {
	RootCmd.AddCommand(FollowCmd)
	RootCmd.AddCommand(FillCmd)
}

func resolveURL(base, href string) (string, error) {
	u, err := url.Parse(href)
	if err != nil {
		return "", err
	}
	if u.IsAbs() {
		return u.String(), nil
	}
	if strings.TrimSpace(base) == "" {
		return "", fmt.Errorf("cannot resolve relative URL %q without a base", href)
	}
	baseURL, err := url.Parse(base)
	if err != nil {
		return "", err
	}
	return baseURL.ResolveReference(u).String(), nil
}
