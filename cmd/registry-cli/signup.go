package main

import (
	"fmt"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/libreseed/registry/internal/signature"
)

var signupCmd = &cobra.Command{
	Use:   "signup",
	Short: "Register a new publisher from the configured key",
	RunE: func(cmd *cobra.Command, args []string) error {
		resp, err := doRequest(http.MethodPost, "/api/publisher", nil, signature.SignupMessage)
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
