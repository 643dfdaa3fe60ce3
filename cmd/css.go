package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var CssCmd = &cobra.Command{
	Use:   "css <property> [value]",
	Short: "Read or set an inline style property on the current element",
	Long:  `With one argument, print the value of an inline style property. With two, set the property on the current element's style attribute.`,
	Args:  cobra.RangeArgs(1, 2),
	Run: func(cmd *cobra.Command, args []string) {
		if !hasCurrentElement() {
			return
		}
		sel := Doc.Wrap(CurrentElement)
		if len(args) == 1 {
			val, err := sel.Style(args[0])
			if err != nil {
				fmt.Println("Error reading style:", err)
				return
			}
			if val == "" {
				fmt.Printf("no inline style %q on the current element\n", args[0])
				return
			}
			fmt.Printf("%s: %s\n", args[0], val)
			return
		}
		sel.Css(args[0], args[1])
		fmt.Printf("Set style %s to %s\n", args[0], args[1])
	},
}

var StylesCmd = &cobra.Command{
	Use:   "styles",
	Short: "Output the inline styles of the currently selected element in a format suitable for a .css file",
	Run: func(cmd *cobra.Command, args []string) {
		if !hasCurrentElement() {
			return
		}
		styleObject := parseStyleAttr(nodeAttr(CurrentElement, "style"))
		fmt.Println(PrettyFormat(styleObject))
	},
}

// parseStyleAttr splits a style attribute into a property map. Only entries
// with a value are kept.
func parseStyleAttr(style string) map[string]string {
	styleObject := map[string]string{}
	for _, decl := range strings.Split(style, ";") {
		prop, value, ok := strings.Cut(decl, ":")
		if !ok {
			continue
		}
		prop = strings.TrimSpace(prop)
		value = strings.TrimSpace(value)
		if prop != "" && value != "" {
			styleObject[prop] = value
		}
	}
	return styleObject
}

func init() {
	RootCmd.AddCommand(CssCmd)
	RootCmd.AddCommand(StylesCmd)
}
