// Command forestrank trains tree ensembles on CSV data and ranks the
// descriptive attributes by importance.
package main

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/YuminosukeSato/forestrank/config"
	"github.com/YuminosukeSato/forestrank/pkg/errors"
	"github.com/YuminosukeSato/forestrank/pkg/log"
)

type rootCmdConfig struct {
	configPath string
	envFile    string
	logLevel   string
}

func main() {
	if err := cliParser().Execute(); err != nil {
		os.Exit(1)
	}
}

func cliParser() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "forestrank",
		Short:         "forestrank ranks features with tree ensembles",
		Long:          `Train bagging, random forest or extra-trees ensembles on CSV data, estimate their out-of-bag error and rank attributes by permutation, Genie3, symbolic or Relief importance.`,
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	rc := &rootCmdConfig{}
	rootCmd.PersistentFlags().StringVarP(&rc.configPath, "config", "c", "", "path to a YAML, TOML or JSON configuration file")
	rootCmd.PersistentFlags().StringVar(&rc.envFile, "env-file", ".env", "dotenv file with FORESTRANK_* overrides; ignored when absent")
	rootCmd.PersistentFlags().StringVar(&rc.logLevel, "log-level", "", "debug, info, warn or error (overrides log.level)")
	rootCmd.AddCommand(versionCmd(), induceCmd(rc), reliefCmd(rc), checkpointsCmd(rc))
	return rootCmd
}

// load reads the dotenv file, the configuration file and the flags bound in
// bindings (viper key to flag name), then sets up logging.
func (rc *rootCmdConfig) load(cmd *cobra.Command, bindings map[string]string) (*config.File, error) {
	if rc.envFile != "" {
		if err := godotenv.Load(rc.envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, errors.Wrapf(err, "load %s", rc.envFile)
		}
	}

	v := config.New()
	if err := bindFlags(v, cmd, bindings); err != nil {
		return nil, err
	}
	f, err := config.Load(v, rc.configPath)
	if err != nil {
		return nil, err
	}

	level := f.Log.Level
	if rc.logLevel != "" {
		level = rc.logLevel
	}
	if err := log.SetupLogger(level, os.Stderr); err != nil {
		return nil, err
	}
	return f, nil
}

func bindFlags(v *viper.Viper, cmd *cobra.Command, bindings map[string]string) error {
	for key, name := range bindings {
		flag := cmd.Flags().Lookup(name)
		if flag == nil {
			return errors.Newf("unknown flag %q", name)
		}
		if err := v.BindPFlag(key, flag); err != nil {
			return errors.Wrapf(err, "bind flag %s", name)
		}
	}
	return nil
}
