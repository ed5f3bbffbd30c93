package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/spf13/cobra"
)

var yankMessage string

var yankCmd = &cobra.Command{
	Use:   "yank [namespace] [name] [version]",
	Short: "Withdraw a published version, signed over the (possibly empty) message",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		payload, err := json.Marshal(map[string]string{
			"namespace": args[0],
			"name":      args[1],
			"version":   args[2],
			"message":   yankMessage,
		})
		if err != nil {
			return err
		}

		sigHex, err := signMessage([]byte(yankMessage))
		if err != nil {
			return err
		}
		req, err := http.NewRequest(http.MethodPost, addr+"/api/package/yank", bytes.NewReader(payload))
		if err != nil {
			return err
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-Signature", sigHex)

		resp, err := (&http.Client{}).Do(req)
		if err != nil {
			return err
		}
		body, err := readResponseBody(resp)
		if err != nil {
			return err
		}
		if resp.StatusCode >= 300 {
			return fmt.Errorf("yank failed: %s: %s", resp.Status, body)
		}
		fmt.Println("yanked")
		return nil
	},
}

func init() {
	yankCmd.Flags().StringVar(&yankMessage, "message", "", "yank reason; empty clears a prior yank")
}
