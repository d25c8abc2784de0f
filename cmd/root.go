package cmd

import (
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile    string
	sourcePath string
	verbose    bool
)

var RootCmd = &cobra.Command{
	Use:   "sqlite2pg",
	Short: "One-shot SQLite to PostgreSQL data migration",
	Long: `sqlite2pg moves the data of an existing SQLite database file into a
pre-provisioned PostgreSQL database: schema introspection, static type
mapping, per-value sanitization, and batched transfer with per-row salvage.
Partial success is preferred over atomicity; every failed row is logged with
its original values for manual reinsertion.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if verbose {
			logrus.SetLevel(logrus.DebugLevel)
		}
	},
}

func Execute() {
	if err := RootCmd.Execute(); err != nil {
		logrus.Error(err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	RootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./sqlite2pg.yaml)")
	RootCmd.PersistentFlags().StringVar(&sourcePath, "source", "", "path to the source SQLite database file")
	RootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	viper.BindPFlag("source.path", RootCmd.PersistentFlags().Lookup("source"))

	viper.SetDefault("source.path", "webui.db")
	viper.SetDefault("target.host", "localhost")
	viper.SetDefault("target.port", 5432)
	viper.SetDefault("target.dbname", "postgres")
	viper.SetDefault("target.user", "postgres")
	viper.SetDefault("target.sslmode", "disable")
	viper.SetDefault("settings.batch_size", 500)
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		// Use config file from the flag.
		viper.SetConfigFile(cfgFile)
	} else {
		// 1. Executable Directory (Priority 1)
		ex, err := os.Executable()
		if err == nil {
			viper.AddConfigPath(filepath.Dir(ex))
		}

		// 2. Current Directory (Priority 2)
		viper.AddConfigPath(".")

		viper.SetConfigName("sqlite2pg")
		viper.SetConfigType("yaml")
	}

	viper.AutomaticEnv() // read in environment variables that match

	if err := viper.ReadInConfig(); err == nil {
		logrus.Infof("Using config file: %s", viper.ConfigFileUsed())
	}
}
