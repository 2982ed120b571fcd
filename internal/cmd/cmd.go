package cmd

import (
	"github.com/clambin/climate-controller/internal/cmd/server"
	"github.com/clambin/go-common/charmer"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"log/slog"
	"os"
	"time"
)

var (
	configFilename string
	RootCmd        = cobra.Command{
		Use:   "climate-controller",
		Short: "Controls the target temperature of the heating zones in a building",
	}
)

func init() {
	cobra.OnInitialize(initConfig)
	RootCmd.PersistentFlags().StringVar(&configFilename, "config", "", "Configuration file")
	RootCmd.PersistentFlags().Bool("debug", false, "Log debug messages")
	_ = viper.BindPFlag("debug", RootCmd.PersistentFlags().Lookup("debug"))

	RootCmd.AddCommand(&server.Cmd)
}

var args = charmer.Arguments{
	"debug":                {Default: false, Help: "Log debug messages"},
	"api.addr":             {Default: ":8080", Help: "Address of the REST API"},
	"exporter.addr":        {Default: ":9090", Help: "Address of Prometheus exporter"},
	"health.addr":          {Default: ":8081", Help: "Address of /health endpoint"},
	"poller.interval":      {Default: 10 * time.Second, Help: "Zone refresh interval"},
	"sensors.url":          {Default: "http://localhost:8888", Help: "URL of the sensor gateway"},
	"sensors.timeout":      {Default: time.Second, Help: "Timeout for sensor reads"},
	"limits.min":           {Default: 5.0, Help: "Lowest allowed target temperature"},
	"limits.max":           {Default: 30.0, Help: "Highest allowed target temperature"},
	"defaults.temperature": {Default: 20.0, Help: "Eco temperature when no schedule band applies"},
	"overrides.timeout":    {Default: time.Second, Help: "Wait time for a zone's critical section"},
	"slack.token":          {Default: "", Help: "Slack token (empty: no Slack notifications)"},
}

func initConfig() {
	if configFilename != "" {
		viper.SetConfigFile(configFilename)
	} else {
		viper.AddConfigPath("/etc/climate-controller/")
		viper.AddConfigPath("$HOME/.climate-controller")
		viper.AddConfigPath(".")
		viper.SetConfigName("config")
	}

	if err := charmer.SetDefaults(viper.GetViper(), args); err != nil {
		panic("failed to set viper defaults: " + err.Error())
	}

	viper.SetEnvPrefix("CLIMATE_CONTROLLER")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		slog.Error("failed to read config file", "err", err)
		os.Exit(1)
	}
}
