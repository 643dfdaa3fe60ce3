package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"domino/dom"
)

// echoHandler prints every event it sees. It is the handler the on command
// registers, kept package-level so the off command can remove it by identity.
func echoHandler(e *dom.Event) {
	fmt.Printf("event %s on %s\n", e.Type, summarizeElementFunc(e.Target))
}

var OnCmd = &cobra.Command{
	Use:   "on <event>",
	Short: "Listen for an event on the current element",
	Long:  `Register a listener for the named event on the current element. The listener prints a line whenever the event fires, including when it bubbles up from a descendant.`,
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if !hasCurrentElement() {
			return
		}
		Doc.Wrap(CurrentElement).On(args[0], echoHandler)
		fmt.Printf("Listening for %s events on the current element.\n", args[0])
	},
}

var OffCmd = &cobra.Command{
	Use:   "off <event>",
	Short: "Stop listening for an event on the current element",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if !hasCurrentElement() {
			return
		}
		Doc.Wrap(CurrentElement).Off(args[0], nil)
		fmt.Printf("Removed %s listeners from the current element.\n", args[0])
	},
}

var TriggerCmd = &cobra.Command{
	Use:   "trigger <event>",
	Short: "Fire an event on the current element",
	Long:  `Synthesize the named event on the current element and dispatch it. The event bubbles from the element through its ancestors.`,
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if !hasCurrentElement() {
			return
		}
		Doc.Wrap(CurrentElement).Trigger(args[0])
		fmt.Printf("Triggered %s.\n", args[0])
	},
}

var ListenersCmd = &cobra.Command{
	Use:   "listeners",
	Short: "List the listeners on the current element",
	Run: func(cmd *cobra.Command, args []string) {
		if !hasCurrentElement() {
			return
		}
		infos := Doc.Listeners(CurrentElement)
		if len(infos) == 0 {
			fmt.Println("No listeners on the current element.")
			return
		}
		for _, info := range infos {
			fmt.Printf("%s %s\n", info.Event, info.ID)
		}
	},
}

func init() {
	RootCmd.AddCommand(OnCmd)
	RootCmd.AddCommand(OffCmd)
	RootCmd.AddCommand(TriggerCmd)
	RootCmd.AddCommand(ListenersCmd)
}
