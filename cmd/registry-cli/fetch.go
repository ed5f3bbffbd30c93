package main

import (
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/spf13/cobra"
)

var fetchOutput string

var fetchCmd = &cobra.Command{
	Use:   "fetch [namespace/name/version|cid]",
	Short: "Fetch a package archive by pointer triple or content id",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client := &http.Client{}
		req, err := http.NewRequest(http.MethodGet, addr+"/api/package?id="+args[0], nil)
		if err != nil {
			return err
		}
		resp, err := client.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			body, _ := io.ReadAll(resp.Body)
			return fmt.Errorf("fetch failed: %s: %s", resp.Status, string(body))
		}

		if fetchOutput == "" {
			_, err := io.Copy(os.Stdout, resp.Body)
			return err
		}
		out, err := os.Create(fetchOutput)
		if err != nil {
			return err
		}
		defer out.Close()
		_, err = io.Copy(out, resp.Body)
		return err
	},
}

func init() {
	fetchCmd.Flags().StringVarP(&fetchOutput, "output", "o", "", "write the archive to this path instead of stdout")
}
