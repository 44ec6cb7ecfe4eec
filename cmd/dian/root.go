package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/nexconsult/dian-api/internal/version"
	"github.com/spf13/cobra"
)

// errSearchFailed signals an outcome with ok=false; the outcome itself was already printed
var errSearchFailed = errors.New("search failed")

// NewRootCmd creates the root command.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dian",
		Short: "Look up electronic invoicing documents in the DIAN catalogue",
		Long: `dian drives a real browser through the DIAN catalogue search form
(catalogo-vpfe.dian.gov.co) and prints the document's event table as JSON.

Configuration is read from the environment (and .env), the same variables the
API server uses, and can be seeded from a YAML file named by CONFIG_FILE.`,
		Version:       version.Version(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable debug logging on stderr")

	cmd.AddCommand(NewSearchCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		if !errors.Is(err, errSearchFailed) {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}
