package main

import (
	"errors"
	"fmt"
	"os"

	controlremo "github.com/eivy/remo-fan-power"
	"github.com/spf13/cobra"
)

var Version = "dev"

const (
	exitError        = 1
	exitNotFound     = 2
	exitUnauthorized = 3
)

func main() {
	os.Exit(Execute())
}

func Execute() int {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return exitCode(err)
	}
	return 0
}

func exitCode(err error) int {
	switch {
	case controlremo.IsNotFound(err):
		return exitNotFound
	case errors.Is(err, controlremo.ErrUnauthorized), errors.Is(err, controlremo.ErrNoToken), errors.Is(err, controlremo.ErrNoLocalHost):
		return exitUnauthorized
	}
	return exitError
}

func init() {
	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(Version)
	},
}
