package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/chzyer/readline"
	"github.com/kballard/go-shellquote"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"golang.org/x/term"

	"domino/internal/appdirs"
)

func stdinIsTerminal() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

// historyDirFunc is swapped in tests.
var historyDirFunc = appdirs.BaseDir

// historyFile returns the path of the prompt history file, "" when the base
// directory cannot be resolved.
func historyFile() string {
	dir, err := historyDirFunc()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "history")
}

// replCompleter builds a prefix completer over the registered commands and
// their aliases.
func replCompleter() *readline.PrefixCompleter {
	var items []readline.PrefixCompleterInterface
	for _, c := range RootCmd.Commands() {
		items = append(items, readline.PcItem(c.Name()))
		for _, alias := range c.Aliases {
			items = append(items, readline.PcItem(alias))
		}
	}
	return readline.NewPrefixCompleter(items...)
}

// runInteractive reads and dispatches commands until EOF or exit.
func runInteractive() {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "domino> ",
		HistoryFile:     historyFile(),
		AutoComplete:    replCompleter(),
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		fmt.Println("Error starting interactive mode:", err)
		return
	}
	defer rl.Close()

	for {
		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			continue
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			fmt.Println("Error reading line:", err)
			break
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		dispatchLine(line)
	}
}

// dispatchLine splits one prompt line and runs the matching command.
func dispatchLine(line string) {
	words, err := shellquote.Split(line)
	if err != nil {
		fmt.Println("Error parsing command:", err)
		return
	}
	if len(words) == 0 {
		return
	}
	cmd := lookupCommand(words[0])
	if cmd == nil {
		fmt.Printf("Unknown command: %s\n", words[0])
		return
	}
	if cmd == ReplCmd {
		fmt.Println("Already in interactive mode.")
		return
	}

	// Flag values stick between prompt lines; reset changed ones first.
	cmd.Flags().Visit(func(f *pflag.Flag) {
		f.Value.Set(f.DefValue)
		f.Changed = false
	})
	if err := cmd.Flags().Parse(words[1:]); err != nil {
		fmt.Println("Error:", err)
		return
	}
	args := cmd.Flags().Args()
	if cmd.Args != nil {
		if err := cmd.Args(cmd, args); err != nil {
			fmt.Println("Error:", err)
			return
		}
	}
	if cmd.Run != nil {
		cmd.Run(cmd, args)
	}
}

func lookupCommand(name string) *cobra.Command {
	for _, c := range RootCmd.Commands() {
		if c.Name() == name || c.HasAlias(name) {
			return c
		}
	}
	return nil
}

var ReplCmd = &cobra.Command{
	Use:   "repl",
	Short: "Enter the interactive prompt",
	Long:  `Enter the interactive prompt without loading a document first. Use the load command once inside.`,
	Run: func(cmd *cobra.Command, args []string) {
		if !stdinIsTerminal() {
			fmt.Println("Error: repl needs an interactive terminal.")
			return
		}
		runInteractive()
	},
}

func init() {
	RootCmd.AddCommand(ReplCmd)
}
