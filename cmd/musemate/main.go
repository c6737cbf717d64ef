package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/musemate/backend/cmd/musemate/commands"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "musemate",
	Short: "MuseMate CLI - museum discovery from the terminal",
	Long: `MuseMate answers questions about Maharashtra's museums: book tickets,
check opening hours, get suggestions by city, plan a day trip and find
video tours. The catalog is read from a JSON file; video and web search
go through a running MuseMate API unless --offline is set.`,
	SilenceUsage: true,
}

func main() {
	rootCmd.AddCommand(commands.ChatCmd)
	rootCmd.AddCommand(commands.MuseumsCmd)
	rootCmd.AddCommand(commands.TripCmd)
	rootCmd.AddCommand(commands.VideosCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (default is $HOME/.musemate.yaml)")
	flags.String("data", "data/museums.json", "museum catalog JSON file")
	flags.String("server", "http://localhost:8080", "MuseMate API URL for the search proxies")
	flags.Bool("offline", false, "do not call the search proxies")
	flags.Duration("timeout", commands.DefaultTimeout, "timeout for proxy calls")

	for _, name := range []string{"data", "server", "offline", "timeout"} {
		viper.BindPFlag(name, flags.Lookup(name))
	}
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else if home, err := os.UserHomeDir(); err == nil {
		viper.AddConfigPath(home)
		viper.SetConfigName(".musemate")
	}

	viper.SetEnvPrefix("musemate")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	// A missing config file is fine; flags and env still apply
	_ = viper.ReadInConfig()
}
