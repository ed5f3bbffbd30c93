package main

import (
	"fmt"
	"net/http"

	"github.com/spf13/cobra"
)

var namespaceCmd = &cobra.Command{
	Use:   "namespace [name]",
	Short: "Register a namespace owned by the configured key",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := args[0]
		resp, err := doRequest(http.MethodPost, "/api/namespace/"+name, nil, []byte(name))
		if err != nil {
			return err
		}
		body, err := readResponseBody(resp)
		if err != nil {
			return err
		}
		fmt.Println(body)
		return nil
	},
}
