package main

import (
	"github.com/spf13/cobra"

	"github.com/rzpsarthak13/rowcache/pkg/rowcache"
)

var ConfigPath string

var rootCmd = &cobra.Command{
	Use:   "rowcache",
	Short: "Disconnected row sets over SQL databases",
	Long: `rowcache captures query results as row set snapshots, shows their pending
changes and writes those changes back to the database.

Examples:
  rowcache dump -c rowcache.yaml -o users.xml "SELECT id, name FROM users"
  rowcache inspect users.xml
  rowcache apply -c rowcache.yaml users.xml
  rowcache drain -c rowcache.yaml`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&ConfigPath, "config", "c", "", "Config file (.yaml, .yml or .json); defaults apply when empty")

	rootCmd.AddCommand(dumpCmd)
	rootCmd.AddCommand(inspectCmd)
	rootCmd.AddCommand(applyCmd)
	rootCmd.AddCommand(drainCmd)
}

func loadConfig() (*rowcache.Config, error) {
	if ConfigPath == "" {
		return rowcache.DefaultConfig(), nil
	}
	return rowcache.LoadConfig(ConfigPath)
}

func newClient() (rowcache.Client, *rowcache.Config, error) {
	config, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}
	client, err := rowcache.NewClient(config)
	if err != nil {
		return nil, nil, err
	}
	return client, config, nil
}
