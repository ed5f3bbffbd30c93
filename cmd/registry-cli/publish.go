package main

import (
	"fmt"
	"net/http"
	"os"

	"github.com/spf13/cobra"
)

var publishCmd = &cobra.Command{
	Use:   "publish [namespace] [archive-path]",
	Short: "Publish an archive to a namespace, signed over its raw bytes",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		namespace, path := args[0], args[1]
		body, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read archive: %w", err)
		}

		resp, err := doRequest(http.MethodPost, "/api/package/"+namespace, body, nil)
		if err != nil {
			return err
		}
		respBody, err := readResponseBody(resp)
		if err != nil {
			return err
		}
		fmt.Println(respBody)
		return nil
	},
}
