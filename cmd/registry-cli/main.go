// Command registry-cli is a cobra-based smoke-test harness for a running
// registryd: it signs requests with a raw hex secp256k1 private key read
// from an environment variable, in the spirit of seeder/internal/cli's
// cobra root command, never a keystore file.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var version = "dev" // Set via ldflags during build

var addr string

var rootCmd = &cobra.Command{
	Use:   "registry-cli",
	Short: "Signed package registry smoke-test client",
	Long: `registry-cli talks to a running registryd over HTTP, signing every
mutating request with a secp256k1 private key it reads from the
REGISTRY_CLI_KEY environment variable (a 32-byte hex string). There are no
passwords and no bearer tokens: the signature alone authenticates.`,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&addr, "addr", "http://127.0.0.1:8080", "registryd base address")
	rootCmd.AddCommand(signupCmd)
	rootCmd.AddCommand(namespaceCmd)
	rootCmd.AddCommand(publishCmd)
	rootCmd.AddCommand(fetchCmd)
	rootCmd.AddCommand(yankCmd)
	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the client version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("registry-cli version %s\n", version)
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
