// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and smartmon contributors
//
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shirou/gopsutil/host"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/cobaltcore-dev/smartmon/pkg/exporter"
)

var (
	expConfigFile      string
	expListenAddress   string
	expListenPort      int
	expInterval        int
	expSmartctlTimeout time.Duration
	expNatsURL         string
	expNatsSubject     string
	expNodeName        string
	expInstanceID      string
)

var exporterCmd = &cobra.Command{
	Use:   "exporter",
	Short: "Export SMART attributes of all discovered drives as Prometheus metrics",
	Run: func(cmd *cobra.Command, args []string) {
		config := exporter.Config{
			ListenAddress:   expListenAddress,
			ListenPort:      expListenPort,
			Interval:        expInterval,
			SmartctlTimeout: expSmartctlTimeout,
			NatsURL:         expNatsURL,
			NatsSubject:     expNatsSubject,
			NodeName:        expNodeName,
			InstanceID:      expInstanceID,
		}

		config = mergeExporterConfigWithEnv(config)

		if expConfigFile != "" {
			var err error
			config, err = mergeExporterConfigWithFile(expConfigFile, config)
			if err != nil {
				log.Fatal().Err(err).Str("config", expConfigFile).Msg("error loading config file")
			}
		}

		config = fillExporterConfigDefaults(config)
		config.UseNats = config.NatsURL != ""

		event := log.Info()
		event.Str("listen_address", config.ListenAddress).
			Int("listen_port", config.ListenPort).
			Int("interval_seconds", config.Interval).
			Dur("smartctl_timeout", config.SmartctlTimeout).
			Str("node_name", config.NodeName).
			Str("instance_id", config.InstanceID)

		event.Bool("use_nats", config.UseNats)
		if config.UseNats {
			event.Str("nats_url", config.NatsURL)
			event.Str("nats_subject", config.NatsSubject)
		}

		event.Msg("configuration_loaded")

		validateExporterConfig(config)

		exporter.StartMonitoring(config)
	},
}

func mergeExporterConfigWithEnv(cfg exporter.Config) exporter.Config {
	cfg.ListenAddress = getEnv("SMARTMON_ADDRESS", cfg.ListenAddress)
	cfg.ListenPort = getEnvInt("SMARTMON_PORT", cfg.ListenPort)
	cfg.Interval = getEnvInt("SMARTMON_INTERVAL", cfg.Interval)
	cfg.SmartctlTimeout = getEnvDuration("SMARTMON_SMARTCTL_TIMEOUT", cfg.SmartctlTimeout)
	cfg.NatsURL = getEnv("NATS_URL", cfg.NatsURL)
	cfg.NatsSubject = getEnv("NATS_SUBJECT", cfg.NatsSubject)
	cfg.NodeName = getEnv("NODE_NAME", cfg.NodeName)
	cfg.InstanceID = getEnv("INSTANCE_ID", cfg.InstanceID)

	return cfg
}

// mergeExporterConfigWithFile overrides config values with the keys present
// in a YAML config file. Keys absent from the file keep their current value.
func mergeExporterConfigWithFile(path string, cfg exporter.Config) (exporter.Config, error) {
	viper.SetConfigFile(path)

	if err := viper.ReadInConfig(); err != nil {
		return cfg, fmt.Errorf("error reading config file: %w", err)
	}

	if viper.IsSet("address") {
		cfg.ListenAddress = viper.GetString("address")
	}
	if viper.IsSet("port") {
		cfg.ListenPort = viper.GetInt("port")
	}
	if viper.IsSet("interval") {
		cfg.Interval = viper.GetInt("interval")
	}
	if viper.IsSet("smartctl_timeout") {
		cfg.SmartctlTimeout = viper.GetDuration("smartctl_timeout")
	}
	if viper.IsSet("nats_url") {
		cfg.NatsURL = viper.GetString("nats_url")
	}
	if viper.IsSet("nats_subject") {
		cfg.NatsSubject = viper.GetString("nats_subject")
	}
	if viper.IsSet("node_name") {
		cfg.NodeName = viper.GetString("node_name")
	}
	if viper.IsSet("instance_id") {
		cfg.InstanceID = viper.GetString("instance_id")
	}

	return cfg, nil
}

func fillExporterConfigDefaults(cfg exporter.Config) exporter.Config {
	if cfg.NodeName == "" {
		if info, err := host.Info(); err == nil {
			cfg.NodeName = info.Hostname
		} else {
			log.Warn().Err(err).Msg("error reading host info, node name left empty")
		}
	}
	if cfg.InstanceID == "" {
		cfg.InstanceID = uuid.NewString()
	}
	return cfg
}

func init() {
	exporterCmd.Flags().StringVar(&expConfigFile, "config", "", "Path to optional YAML config file")
	exporterCmd.Flags().StringVar(&expListenAddress, "address", "0.0.0.0", "Address for the Prometheus metrics endpoint")
	exporterCmd.Flags().IntVar(&expListenPort, "port", 9902, "Port for the Prometheus metrics endpoint")
	exporterCmd.Flags().IntVar(&expInterval, "interval", 60, "Interval in seconds between metric collections")
	exporterCmd.Flags().DurationVar(&expSmartctlTimeout, "smartctl-timeout", 30*time.Second, "Timeout for a single smartctl invocation (0 disables)")
	exporterCmd.Flags().StringVar(&expNatsURL, "nats-url", "", "NATS server URL for health events (empty disables)")
	exporterCmd.Flags().StringVar(&expNatsSubject, "nats-subject", "smartmon.disk.health", "NATS subject to publish health events")
	exporterCmd.Flags().StringVar(&expNodeName, "node-name", "", "Node name label for health events (defaults to hostname)")
	exporterCmd.Flags().StringVar(&expInstanceID, "instance-id", "", "Instance ID label for health events (defaults to a random UUID)")
}

func validateExporterConfig(config exporter.Config) {
	missingParams := false

	if config.ListenPort <= 0 || config.ListenPort > 65535 {
		fmt.Println("Warning: --port or SMARTMON_PORT must be a valid TCP port")
		missingParams = true
	}

	if config.Interval <= 0 {
		fmt.Println("Warning: --interval or SMARTMON_INTERVAL must be positive")
		missingParams = true
	}

	if missingParams {
		fmt.Println("One or more required parameters are invalid. Please provide them through flags, environment variables or the config file.")
		os.Exit(1)
	}
}
