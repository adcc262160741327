package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"pagesdeck/internal/app"
	"pagesdeck/internal/config"
	"pagesdeck/internal/logger"
	"pagesdeck/internal/session"
	"pagesdeck/internal/tui"
)

const DefaultConfigDir = "~/"

var (
	defaultConfigFilePath = fmt.Sprintf("%s%s.yml", DefaultConfigDir, config.ConfigFileName)
)

type GlobalConfig struct {
	Debug          bool
	ConfigFilePath string
}

var Global = &GlobalConfig{}

func init() {
	cobra.OnInitialize(initConfig)

	RootCmd.PersistentFlags().StringVarP(
		&Global.ConfigFilePath,
		"config",
		"c",
		defaultConfigFilePath,
		"The config file to use when executing commands.")

	RootCmd.PersistentFlags().BoolVarP(
		&Global.Debug,
		"debug",
		"d",
		false,
		"Enable verbose debug output.")
}

// Execute runs the command line. This is called by main.main().
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := RootCmd.ExecuteContext(ctx)
	stop()
	session.Teardown()
	Exit(err)
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	config.SetDefaults(viper.GetViper())

	if Global.ConfigFilePath != "" && Global.ConfigFilePath != defaultConfigFilePath {
		viper.SetConfigFile(Global.ConfigFilePath)
	} else {
		viper.SetConfigName(config.ConfigFileName)
		viper.AddConfigPath(DefaultConfigDir)
		viper.AddConfigPath("$HOME")
	}

	// If a config file is found, read it in.
	err := viper.ReadInConfig()
	if err == nil {
		Global.ConfigFilePath = viper.ConfigFileUsed()
	} else {
		switch err.(type) {
		case viper.ConfigFileNotFoundError:
		default:
			Exit(fmt.Errorf("error loading config file (%s): %s", viper.ConfigFileUsed(), err))
		}
	}
}

var RootCmd = &cobra.Command{
	Use:   "pagesdeck",
	Short: "Manage GitHub Pages across your repositories",
	Long: `pagesdeck lists every repository you can access together with its GitHub
Pages configuration, and enables, updates or disables Pages sites.

Run without a command to start the interactive client.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	Args:          cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, cleanup, err := newApp(true)
		if err != nil {
			return err
		}
		defer cleanup()
		return tui.Run(cmd.Context(), a, a.Driver)
	},
}

// newApp loads configuration and builds the App. Interactive sessions log to
// the configured file since the terminal belongs to the UI.
func newApp(interactive bool) (*app.App, func(), error) {
	cfg, err := config.Load(viper.GetViper())
	if err != nil {
		return nil, nil, err
	}
	levelName := cfg.LogLevel
	if Global.Debug {
		levelName = "debug"
	}
	level, err := logger.ParseLevel(levelName)
	if err != nil {
		return nil, nil, err
	}

	var (
		factory logger.LogFactory
		closer  io.Closer
	)
	if interactive {
		factory, closer, err = logger.MakeLogrusLogFactoryToFile(cfg.LogFile, level)
		if err != nil {
			return nil, nil, errors.Wrap(err, "error opening log file")
		}
	} else {
		// stderr carries command output too, keep it to warnings unless asked.
		if !Global.Debug && level > logrus.WarnLevel {
			level = logrus.WarnLevel
		}
		factory = logger.MakeLogrusLogFactoryStdErr(level)
	}

	closeLog := func() {
		if closer != nil {
			closer.Close()
		}
	}

	a, err := app.New(cfg, factory)
	if err != nil {
		closeLog()
		return nil, nil, err
	}
	cleanup := func() {
		a.Close()
		closeLog()
	}
	return a, cleanup, nil
}
