package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dinexh/ZeroShift-Engine-sub000/pkg/client"
)

var (
	// Version information (set via ldflags during build)
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "versiongate",
	Short: "VersionGate - Self-hosted blue-green deployment engine",
	Long: `VersionGate deploys applications from git onto a single host with
zero-downtime blue-green switchovers. Every project owns two container
slots; each deploy builds the new version into the idle slot, validates it,
and flips nginx over only once it is provably healthy.

Run the engine with 'versiongate serve'. Every other command is a client
of a running engine.`,
	Version: Version,
}

func init() {
	rootCmd.SetVersionTemplate(fmt.Sprintf(
		"VersionGate version %s\nCommit: %s\nBuilt: %s\n",
		Version, Commit, BuildTime,
	))

	rootCmd.PersistentFlags().String("server", "",
		"VersionGate API address (defaults to $VERSIONGATE_SERVER or "+client.DefaultServer+")")
}

// apiClient builds a REST client from --server, VERSIONGATE_SERVER, or the
// default local address, in that order
func apiClient(cmd *cobra.Command) *client.Client {
	server, _ := cmd.Flags().GetString("server")
	if server == "" {
		server = os.Getenv("VERSIONGATE_SERVER")
	}
	if server == "" {
		server = client.DefaultServer
	}
	return client.NewClient(server)
}
