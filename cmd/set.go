package cmd

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"domino/fetch"
)

var SetCmd = &cobra.Command{
	Use:   "set <flag> [value]",
	Short: "Set or toggle the value of a command-line flag",
	Long:  `Set a persistent flag by name, or toggle it when it is boolean and no value is given. Configuration-backed flags update the active configuration too.`,
	Args:  cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		flagName := args[0]
		flag := RootCmd.PersistentFlags().Lookup(flagName)
		if flag == nil {
			fmt.Println("Error: unknown flag:", flagName)
			return
		}
		var newValue string
		if len(args) > 1 {
			newValue = args[1]
		} else if flag.Value.Type() == "bool" {
			oldValue, _ := strconv.ParseBool(flag.Value.String())
			newValue = strconv.FormatBool(!oldValue)
		} else {
			fmt.Println("Error: no value provided for non-boolean flag:", flagName)
			return
		}
		if err := flag.Value.Set(newValue); err != nil {
			fmt.Println("Error setting flag:", err)
			return
		}
		applyFlagToConfig(flagName, flag.Value.String())
		fmt.Println("Set", flagName, "to", flag.Value)
	},
}

// applyFlagToConfig mirrors runtime flag changes into the active
// configuration so later loads and requests see them.
func applyFlagToConfig(name, value string) {
	if Cfg == nil {
		return
	}
	switch name {
	case "verbose":
		Cfg.Verbose, _ = strconv.ParseBool(value)
	case "render":
		Cfg.Render, _ = strconv.ParseBool(value)
	case "user-agent":
		Cfg.UserAgent = value
		rebuildPageClient()
	case "timeout":
		if secs, err := strconv.Atoi(value); err == nil && secs > 0 {
			Cfg.TimeoutSecs = secs
			rebuildPageClient()
		}
	case "serve-addr":
		Cfg.ServeAddr = value
	case "snapshot-db":
		Cfg.SnapshotDB = value
	}
}

// rebuildPageClient applies the current configuration to a fresh page
// client, keeping the recorded location.
func rebuildPageClient() {
	base := pageClient.BaseURL()
	pageClient = fetch.NewClient(
		fetch.WithUserAgent(Cfg.UserAgent),
		fetch.WithHTTPClient(&http.Client{Timeout: time.Duration(Cfg.TimeoutSecs) * time.Second}),
		fetch.WithBaseURL(base),
	)
}

func init() {
	RootCmd.AddCommand(SetCmd)
}
