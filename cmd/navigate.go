package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/net/html"
)

var summarizeElementFunc = summarizeElement

// queryNodesFunc resolves a selector against the whole document. Swapped in
// tests.
var queryNodesFunc = func(selector string) ([]*html.Node, error) {
	if Doc == nil {
		return nil, fmt.Errorf("no document loaded to resolve selector %q", selector)
	}
	return Doc.Find(selector).Resolve()
}

// scopedQueryFunc resolves a selector against the subtree of the current
// element.
var scopedQueryFunc = func(selector string) ([]*html.Node, error) {
	if CurrentElement == nil {
		return nil, fmt.Errorf("no current element to scope selector %q", selector)
	}
	return Doc.Wrap(CurrentElement).Find(selector).Resolve()
}

func focusSearch(selector string) (string, error) {
	if Doc == nil {
		return "", fmt.Errorf("no document loaded – run load first")
	}
	elements, err := queryNodesFunc(selector)
	if err != nil {
		return "", fmt.Errorf("search failed: %w", err)
	}
	if len(elements) == 0 {
		elementList = nil
		CurrentElement = nil
		return fmt.Sprintf("no elements found for selector %s", selector), nil
	}

	elementList = elements
	currentIndex = 0
	CurrentElement = elementList[currentIndex]

	msg := formatElementListResponse(
		fmt.Sprintf("found %d elements for selector %q.", len(elementList), selector),
		elementList,
		currentIndex,
	)
	return msg, nil
}

// focusSelect focuses the first match of selector, preferring one inside the
// current element's subtree, and rebases the element list on all matches.
func focusSelect(selector string) (string, error) {
	if strings.TrimSpace(selector) == "" {
		return "", fmt.Errorf("selector cannot be empty")
	}
	if Doc == nil {
		return "", fmt.Errorf("no document loaded – run load first")
	}

	matches, err := queryNodesFunc(selector)
	if err != nil {
		return "", fmt.Errorf("elem search failed: %w", err)
	}
	if len(matches) == 0 {
		elementList = nil
		return fmt.Sprintf("no elements matched selector %q", selector), nil
	}

	target := matches[0]
	if scoped, err := scopedQueryFunc(selector); err == nil && len(scoped) > 0 {
		target = scoped[0]
	}

	index := indexOfNode(matches, target)
	if index == -1 {
		matches = append([]*html.Node{target}, matches...)
		index = 0
	}
	CurrentElement = target
	elementList = matches
	currentIndex = index

	msg := formatElementListResponse(
		fmt.Sprintf("matched %d elements for selector %q.", len(elementList), selector),
		elementList,
		currentIndex,
	)
	return msg, nil
}

func focusNext(indexOpt *int) (string, error) {
	if len(elementList) == 0 {
		return "", fmt.Errorf("no search results – run search first")
	}
	if indexOpt != nil {
		return selectElementAt(*indexOpt)
	}
	if currentIndex >= len(elementList)-1 {
		return "", fmt.Errorf("already at the last element (index %d)", currentIndex)
	}
	currentIndex++
	CurrentElement = elementList[currentIndex]
	return formatCurrentFocus(len(elementList)), nil
}

func focusPrev(indexOpt *int) (string, error) {
	if len(elementList) == 0 {
		return "", fmt.Errorf("no search results – run search first")
	}
	if indexOpt != nil {
		return selectElementAt(*indexOpt)
	}
	if currentIndex == 0 {
		return "", fmt.Errorf("already at the first element (index 0)")
	}
	currentIndex--
	CurrentElement = elementList[currentIndex]
	return formatCurrentFocus(len(elementList)), nil
}

func focusFirst() (string, error) {
	if len(elementList) == 0 {
		return "", fmt.Errorf("no search results – run search first")
	}
	return selectElementAt(0)
}

func focusLast() (string, error) {
	if len(elementList) == 0 {
		return "", fmt.Errorf("no search results – run search first")
	}
	return selectElementAt(len(elementList) - 1)
}

func focusChild() (string, error) {
	if CurrentElement == nil {
		return "", fmt.Errorf("no current element – run load/search first")
	}
	child := firstElementChild(CurrentElement)
	if child == nil {
		return "", fmt.Errorf("child navigation failed: element has no child elements")
	}
	CurrentElement = child
	summary := summarizeElementFunc(CurrentElement)
	return fmt.Sprintf("focused child element: %s", summary), nil
}

func focusParent() (string, error) {
	if CurrentElement == nil {
		return "", fmt.Errorf("no current element – run load/search first")
	}
	parent := CurrentElement.Parent
	if parent == nil || parent.Type != html.ElementNode {
		return "", fmt.Errorf("parent navigation failed: already at the document root")
	}
	CurrentElement = parent
	summary := summarizeElementFunc(CurrentElement)
	return fmt.Sprintf("focused parent element: %s", summary), nil
}

func formatCurrentFocus(total int) string {
	return fmt.Sprintf("focused index %d of %d: %s", currentIndex, total, summarizeElementFunc(CurrentElement))
}

func selectElementAt(idx int) (string, error) {
	if idx < 0 || idx >= len(elementList) {
		return "", fmt.Errorf("index %d out of range (0-%d)", idx, len(elementList)-1)
	}
	currentIndex = idx
	CurrentElement = elementList[currentIndex]
	return formatCurrentFocus(len(elementList)), nil
}

func indexOfNode(list []*html.Node, target *html.Node) int {
	for i, n := range list {
		if n == target {
			return i
		}
	}
	return -1
}

func firstElementChild(n *html.Node) *html.Node {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode {
			return c
		}
	}
	return nil
}

func formatElementListResponse(header string, elements []*html.Node, focus int) string {
	var b strings.Builder
	b.WriteString(header)
	b.WriteString("\n")
	if len(elements) == 0 {
		b.WriteString("no elements available\n")
		return strings.TrimSuffix(b.String(), "\n")
	}
	if focus < 0 || focus >= len(elements) {
		focus = 0
	}
	summary := summarizeElementFunc(elements[focus])
	fmt.Fprintf(&b, "focused index %d of %d: %s\n", focus, len(elements), summary)
	for i, n := range elements {
		marker := " "
		if i == focus {
			marker = "*"
		}
		fmt.Fprintf(&b, "%d%s %s\n", i, marker, summarizeElementFunc(n))
	}
	return strings.TrimSuffix(b.String(), "\n")
}

func summarizeElement(n *html.Node) string {
	if n == nil {
		return "(no element)"
	}

	var parts []string

	if n.Type == html.ElementNode && n.Data != "" {
		parts = append(parts, n.Data)
	}

	if id := nodeAttr(n, "id"); id != "" {
		parts = append(parts, fmt.Sprintf("#%s", id))
	}

	if class := nodeAttr(n, "class"); class != "" {
		className := strings.Join(strings.Fields(class), ".")
		if className != "" {
			parts = append(parts, "."+className)
		}
	}

	if text := nodeText(n); text != "" {
		text = normalizeWhitespace(text)
		if len(text) > 60 {
			text = text[:57] + "..."
		}
		if text != "" {
			parts = append(parts, fmt.Sprintf("text=%q", text))
		}
	}

	if len(parts) == 0 {
		return "(element)"
	}
	return strings.Join(parts, " ")
}

func nodeAttr(n *html.Node, name string) string {
	for _, a := range n.Attr {
		if a.Key == name {
			return a.Val
		}
	}
	return ""
}

func nodeText(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(node *html.Node) {
		if node.Type == html.TextNode {
			b.WriteString(node.Data)
		}
		for c := node.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return b.String()
}

func normalizeWhitespace(s string) string {
	fields := strings.Fields(s)
	return strings.Join(fields, " ")
}

// parseIndexArg turns an optional positional index into the pointer form the
// focus functions take.
func parseIndexArg(args []string) (*int, error) {
	if len(args) == 0 {
		return nil, nil
	}
	idx, err := strconv.Atoi(args[0])
	if err != nil {
		return nil, fmt.Errorf("invalid index %q", args[0])
	}
	return &idx, nil
}

var SearchCmd = &cobra.Command{
	Use:     "search <selector>",
	Aliases: []string{"find"},
	Short:   "Search the document and focus the first match",
	Long:    `Search the document with a CSS selector. All matches become the numbered element list and the first match becomes the current element.`,
	Args:    cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if !hasDocument() {
			return
		}
		msg, err := focusSearch(strings.Join(args, " "))
		if err != nil {
			fmt.Println("Error searching document:", err)
			return
		}
		fmt.Println(msg)
	},
}

var ElemCmd = &cobra.Command{
	Use:   "elem <selector>",
	Short: "Focus the first match of a selector, preferring the current subtree",
	Args:  cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if !hasDocument() {
			return
		}
		msg, err := focusSelect(strings.Join(args, " "))
		if err != nil {
			fmt.Println("Error focusing element:", err)
			return
		}
		fmt.Println(msg)
	},
}

var NextCmd = &cobra.Command{
	Use:   "next [index]",
	Short: "Navigate to the next element in the result list",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		indexOpt, err := parseIndexArg(args)
		if err != nil {
			fmt.Println("Error:", err)
			return
		}
		msg, err := focusNext(indexOpt)
		if err != nil {
			fmt.Println("Error navigating to the next element:", err)
			return
		}
		fmt.Println(msg)
	},
}

var PrevCmd = &cobra.Command{
	Use:   "prev [index]",
	Short: "Navigate to the previous element in the result list",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		indexOpt, err := parseIndexArg(args)
		if err != nil {
			fmt.Println("Error:", err)
			return
		}
		msg, err := focusPrev(indexOpt)
		if err != nil {
			fmt.Println("Error navigating to the previous element:", err)
			return
		}
		fmt.Println(msg)
	},
}

var FirstCmd = &cobra.Command{
	Use:   "first",
	Short: "Navigate to the first element in the result list",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		msg, err := focusFirst()
		if err != nil {
			fmt.Println("Error navigating to the first element:", err)
			return
		}
		fmt.Println(msg)
	},
}

var LastCmd = &cobra.Command{
	Use:   "last",
	Short: "Navigate to the last element in the result list",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		msg, err := focusLast()
		if err != nil {
			fmt.Println("Error navigating to the last element:", err)
			return
		}
		fmt.Println(msg)
	},
}

var ParentCmd = &cobra.Command{
	Use:     "parent",
	Aliases: []string{"up"},
	Short:   "Navigate to the parent of the current element",
	Args:    cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		if !hasCurrentElement() {
			return
		}
		msg, err := focusParent()
		if err != nil {
			fmt.Println("Error navigating to the parent element:", err)
			return
		}
		fmt.Println(msg)
	},
}

var ChildCmd = &cobra.Command{
	Use:     "child",
	Aliases: []string{"down"},
	Short:   "Navigate to the first child of the current element",
	Args:    cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		if !hasCurrentElement() {
			return
		}
		msg, err := focusChild()
		if err != nil {
			fmt.Println("Error navigating to the child element:", err)
			return
		}
		fmt.Println(msg)
	},
}

var WalkCmd = &cobra.Command{
	Use:   "walk <steps>",
	Short: "Walk to the next element for a number of steps",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		steps, err := strconv.Atoi(args[0])
		if err != nil {
			fmt.Println("Error: Invalid number of steps.")
			return
		}
		for i := 0; i < steps; i++ {
			NextCmd.Run(cmd, []string{})
		}
	},
}

func init() {
	RootCmd.AddCommand(SearchCmd)
	RootCmd.AddCommand(ElemCmd)
	RootCmd.AddCommand(NextCmd)
	RootCmd.AddCommand(PrevCmd)
	RootCmd.AddCommand(FirstCmd)
	RootCmd.AddCommand(LastCmd)
	RootCmd.AddCommand(ParentCmd)
	RootCmd.AddCommand(ChildCmd)
	RootCmd.AddCommand(WalkCmd)
}
