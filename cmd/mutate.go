package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/net/html"

	"domino/dom"
)

var SetTextCmd = &cobra.Command{
	Use:   "settext <text>",
	Short: "Replace the text content of the current element",
	Args:  cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if !hasCurrentElement() {
			return
		}
		Doc.Wrap(CurrentElement).SetText(strings.Join(args, " "))
		fmt.Println("Text replaced.")
	},
}

var SetHtmlCmd = &cobra.Command{
	Use:   "sethtml <markup>",
	Short: "Replace the inner HTML of the current element",
	Args:  cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if !hasCurrentElement() {
			return
		}
		Doc.Wrap(CurrentElement).SetHtml(strings.Join(args, " "))
		fmt.Println("Inner HTML replaced.")
	},
}

var SetAttrCmd = &cobra.Command{
	Use:   "setattr <name> <value>",
	Short: "Set an attribute on the current element",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		if !hasCurrentElement() {
			return
		}
		Doc.Wrap(CurrentElement).SetAttr(args[0], args[1])
		fmt.Printf("Set attribute %s to %q\n", args[0], args[1])
	},
}

var RmAttrCmd = &cobra.Command{
	Use:   "rmattr <name>",
	Short: "Remove an attribute from the current element",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if !hasCurrentElement() {
			return
		}
		Doc.Wrap(CurrentElement).RemoveAttr(args[0])
		fmt.Printf("Removed attribute %s\n", args[0])
	},
}

var AddClassCmd = &cobra.Command{
	Use:   "addclass <name>",
	Short: "Add a class to the current element",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if !hasCurrentElement() {
			return
		}
		Doc.Wrap(CurrentElement).AddClass(args[0])
		fmt.Printf("Added class %s\n", args[0])
	},
}

var RmClassCmd = &cobra.Command{
	Use:   "rmclass <name>",
	Short: "Remove a class from the current element",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if !hasCurrentElement() {
			return
		}
		Doc.Wrap(CurrentElement).RemoveClass(args[0])
		fmt.Printf("Removed class %s\n", args[0])
	},
}

var ToggleClassCmd = &cobra.Command{
	Use:   "toggleclass <name>",
	Short: "Toggle a class on the current element",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if !hasCurrentElement() {
			return
		}
		sel := Doc.Wrap(CurrentElement).ToggleClass(args[0])
		has, err := sel.HasClass(args[0])
		if err != nil {
			fmt.Println("Error toggling class:", err)
			return
		}
		if has {
			fmt.Printf("Class %s is now on\n", args[0])
		} else {
			fmt.Printf("Class %s is now off\n", args[0])
		}
	},
}

var HideCmd = &cobra.Command{
	Use:   "hide",
	Short: "Hide the current element",
	Run: func(cmd *cobra.Command, args []string) {
		if !hasCurrentElement() {
			return
		}
		Doc.Wrap(CurrentElement).Hide()
		fmt.Println("Element hidden.")
	},
}

var ShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the current element",
	Run: func(cmd *cobra.Command, args []string) {
		if !hasCurrentElement() {
			return
		}
		Doc.Wrap(CurrentElement).Show()
		fmt.Println("Element shown.")
	},
}

var ToggleCmd = &cobra.Command{
	Use:   "toggle",
	Short: "Toggle the visibility of the current element",
	Run: func(cmd *cobra.Command, args []string) {
		if !hasCurrentElement() {
			return
		}
		sel := Doc.Wrap(CurrentElement).Toggle()
		visible, err := sel.Visible()
		if err != nil {
			fmt.Println("Error toggling visibility:", err)
			return
		}
		if visible {
			fmt.Println("Element is now visible.")
		} else {
			fmt.Println("Element is now hidden.")
		}
	},
}

var AppendCmd = &cobra.Command{
	Use:   "append <position> <markup>",
	Short: "Insert markup relative to the current element",
	Long:  `Parse markup and insert it relative to the current element. Position is one of before, after, atstart, atend.`,
	Args:  cobra.MinimumNArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		if !hasCurrentElement() {
			return
		}
		pos := dom.ParsePosition(args[0])
		switch pos {
		case dom.Before, dom.After, dom.AtStart, dom.AtEnd:
		default:
			fmt.Println("Error: position must be one of before, after, atstart, atend.")
			return
		}
		Doc.Wrap(CurrentElement).Append(pos, strings.Join(args[1:], " "))
		fmt.Println("Markup inserted.")
	},
}

var EmptyCmd = &cobra.Command{
	Use:   "empty",
	Short: "Remove all children of the current element",
	Run: func(cmd *cobra.Command, args []string) {
		if !hasCurrentElement() {
			return
		}
		Doc.Wrap(CurrentElement).Empty()
		fmt.Println("Element emptied.")
	},
}

var CloneCmd = &cobra.Command{
	Use:   "clone",
	Short: "Duplicate the current element after itself",
	Run: func(cmd *cobra.Command, args []string) {
		if !hasCurrentElement() {
			return
		}
		sel := Doc.Wrap(CurrentElement)
		markup, err := sel.Clone().OuterHTML()
		if err != nil {
			fmt.Println("Error cloning element:", err)
			return
		}
		sel.Append(dom.After, markup)
		fmt.Println("Element cloned after itself.")
	},
}

var DetachCmd = &cobra.Command{
	Use:   "detach",
	Short: "Detach the current element from the document",
	Long:  `Remove the current element and its subtree from the document. Focus moves to its parent.`,
	Run: func(cmd *cobra.Command, args []string) {
		if !hasCurrentElement() {
			return
		}
		fmt.Println(detachCurrent())
	},
}

// detachCurrent removes the current element from the document and moves the
// focus to its parent, falling back to the body when the parent is gone.
func detachCurrent() string {
	removed := CurrentElement
	parent := removed.Parent
	Doc.Wrap(removed).Remove()
	dropFromList(removed)
	if parent != nil && parent.Type == html.ElementNode {
		CurrentElement = parent
		return "Element detached; focus moved to parent."
	}
	CurrentElement = nil
	if body, err := Doc.Find("body").Resolve(); err == nil && len(body) > 0 {
		CurrentElement = body[0]
	}
	return "Element detached."
}

// dropFromList removes a node from the active element list, keeping the
// current index in range.
func dropFromList(n *html.Node) {
	for i, el := range elementList {
		if el == n {
			elementList = append(elementList[:i], elementList[i+1:]...)
			if currentIndex >= len(elementList) && currentIndex > 0 {
				currentIndex = len(elementList) - 1
			}
			return
		}
	}
}

func init() {
	RootCmd.AddCommand(SetTextCmd)
	RootCmd.AddCommand(SetHtmlCmd)
	RootCmd.AddCommand(SetAttrCmd)
	RootCmd.AddCommand(RmAttrCmd)
	RootCmd.AddCommand(AddClassCmd)
	RootCmd.AddCommand(RmClassCmd)
	RootCmd.AddCommand(ToggleClassCmd)
	RootCmd.AddCommand(HideCmd)
	RootCmd.AddCommand(ShowCmd)
	RootCmd.AddCommand(ToggleCmd)
	RootCmd.AddCommand(AppendCmd)
	RootCmd.AddCommand(EmptyCmd)
	RootCmd.AddCommand(CloneCmd)
	RootCmd.AddCommand(DetachCmd)
}
