package main

import (
	"fmt"
	"os"

	"github.com/common-nighthawk/go-figure"
	"github.com/jrsteele09/contract-desk/internal/config"
	"github.com/jrsteele09/contract-desk/internal/logging"
	"github.com/spf13/cobra"
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "desk",
		Short:         "Contract desk for real-estate agents",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.AddCommand(
		serveCmd(),
		devAPICmd(),
		loginCmd(),
		logoutCmd(),
		whoamiCmd(),
		contractsCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}

// loadConfig reads the configuration and sets up logging from it.
func loadConfig() (config.Config, error) {
	c, err := config.New()
	if err != nil {
		return nil, err
	}
	logging.Setup(c.GetEnv(), c.GetLogLevel())
	return c, nil
}

func displayAppname(appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	myFigure.Print()
	fmt.Println()
}
