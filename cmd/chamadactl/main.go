// Command chamadactl is the operator tool for the attendance system.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/saturnino-fabrica-de-software/chamada/internal/config"
)

// version is stamped at build time via -ldflags.
var version = "dev"

var rootCmd = &cobra.Command{
	Use:   "chamadactl",
	Short: "Operator tool for the facial attendance system",
	Long: `chamadactl bulk-enrolls students from a photo directory, lists the
roster, checks that the camera can be opened and generates secrets.

Settings are read from the environment (and .env when present), the same
variables used by the camera and dashboard binaries.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

var logger *slog.Logger

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.AddCommand(enrollCmd, studentsCmd, camcheckCmd, genkeyCmd, versionCmd)
}

func initConfig() {
	// .env é opcional
	_ = config.LoadDotEnv()
	logger = config.NewLogger(os.Getenv("ENV"), os.Getenv("LOG_LEVEL"))
	slog.SetDefault(logger)
}

// mustGetString gets a string flag value or panics if the flag doesn't exist.
func mustGetString(cmd *cobra.Command, name string) string {
	val, err := cmd.Flags().GetString(name)
	if err != nil {
		panic(fmt.Sprintf("flag error for --%s: %v", name, err))
	}
	return val
}

// mustGetBool gets a bool flag value or panics if the flag doesn't exist.
func mustGetBool(cmd *cobra.Command, name string) bool {
	val, err := cmd.Flags().GetBool(name)
	if err != nil {
		panic(fmt.Sprintf("flag error for --%s: %v", name, err))
	}
	return val
}
