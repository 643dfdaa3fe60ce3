package cmd

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"domino/fetch"
	"domino/internal/config"
)

var reqMethod string
var reqBody string
var reqHeaders []string

var ReqCmd = &cobra.Command{
	Use:     "req [url]",
	Aliases: []string{"request"},
	Short:   "Issue an HTTP request and print the response",
	Long: `Issue an HTTP request through the page client and print the response body.
A relative or empty URL resolves against the current document's URL. JSON
responses are pretty-printed.`,
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		rawURL := ""
		if len(args) > 0 {
			rawURL = args[0]
		}
		header := http.Header{}
		for _, h := range reqHeaders {
			name, value, ok := strings.Cut(h, ":")
			if !ok {
				fmt.Printf("Error: invalid header %q, want name:value\n", h)
				return
			}
			header.Add(strings.TrimSpace(name), strings.TrimSpace(value))
		}

		done := make(chan struct{})
		pageClient.Request(fetch.Options{
			URL:    rawURL,
			Method: reqMethod,
			Body:   reqBody,
			Header: header,
			Success: func(body string) {
				defer close(done)
				printResponseBody(body)
			},
			Error: func(status string) {
				defer close(done)
				fmt.Println("Error requesting URL:", status)
			},
		})

		select {
		case <-done:
		case <-time.After(requestWait()):
			fmt.Println("Error: request timed out.")
		}
	},
}

// requestWait bounds how long the command waits for the callbacks, a little
// past the HTTP client's own timeout.
func requestWait() time.Duration {
	secs := activeConfig().TimeoutSecs
	if secs <= 0 {
		secs = config.DefaultTimeoutSecs
	}
	return time.Duration(secs)*time.Second + time.Second
}

// printResponseBody pretty-prints JSON responses and passes everything else
// through untouched.
func printResponseBody(body string) {
	trimmed := strings.TrimSpace(body)
	if strings.HasPrefix(trimmed, "{") || strings.HasPrefix(trimmed, "[") {
		if json.Valid([]byte(trimmed)) {
			fmt.Println(prettyPrintJson(trimmed))
			return
		}
	}
	fmt.Println(body)
}

func init() {
	ReqCmd.Flags().StringVarP(&reqMethod, "method", "X", "GET", "HTTP method")
	ReqCmd.Flags().StringVarP(&reqBody, "body", "d", "", "Request body")
	ReqCmd.Flags().StringArrayVarP(&reqHeaders, "header", "H", nil, "Request header as name:value, repeatable")

	RootCmd.AddCommand(ReqCmd)
}
