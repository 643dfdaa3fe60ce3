package cmd

import (
	"fmt"
	"os"
	"strings"

	survey "github.com/AlecAivazis/survey/v2"
	"github.com/spf13/cobra"
	"golang.org/x/net/html"
	"golang.org/x/term"
)

// surveyAskOne is swapped in tests.
var surveyAskOne = func(p survey.Prompt, response interface{}) error {
	return survey.AskOne(p, response)
}

var PickCmd = &cobra.Command{
	Use:   "pick [selector]",
	Short: "Pick an element from a list interactively",
	Long: `Choose the current element from an interactive list. With a selector the
list holds its matches; without one it holds the element list from the last
search.`,
	Args: cobra.ArbitraryArgs,
	Run: func(cmd *cobra.Command, args []string) {
		if !hasDocument() {
			return
		}
		candidates := elementList
		if len(args) > 0 {
			selector := strings.Join(args, " ")
			nodes, err := queryNodesFunc(selector)
			if err != nil {
				fmt.Println("Error resolving selector:", err)
				return
			}
			if len(nodes) == 0 {
				fmt.Printf("no elements found for selector %s\n", selector)
				return
			}
			candidates = nodes
		}
		if len(candidates) == 0 {
			fmt.Println("Error: no elements to pick from. Run search first or give a selector.")
			return
		}

		shouldPrompt := term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stdout.Fd()))
		if !shouldPrompt {
			fmt.Println("Error: pick needs an interactive terminal.")
			return
		}

		idx, err := promptForElement(candidates)
		if err != nil {
			fmt.Println("Error picking element:", err)
			return
		}
		elementList = candidates
		msg, err := selectElementAt(idx)
		if err != nil {
			fmt.Println("Error selecting element:", err)
			return
		}
		fmt.Println(msg)
	},
}

// promptForElement shows a select list of element summaries and returns the
// chosen index.
func promptForElement(candidates []*html.Node) (int, error) {
	labels := make([]string, 0, len(candidates))
	labelToIndex := make(map[string]int, len(candidates))
	for i, n := range candidates {
		label := fmt.Sprintf("%d %s", i, summarizeElementFunc(n))
		labels = append(labels, label)
		labelToIndex[label] = i
	}

	var selection string
	prompt := &survey.Select{
		Message: "Select element",
		Options: labels,
		Default: labels[0],
	}
	if err := surveyAskOne(prompt, &selection); err != nil {
		return 0, err
	}
	idx, ok := labelToIndex[selection]
	if !ok {
		return 0, fmt.Errorf("unknown selection: %s", selection)
	}
	return idx, nil
}

func init() {
	RootCmd.AddCommand(PickCmd)
}
