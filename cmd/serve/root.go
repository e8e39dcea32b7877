// SPDX-License-Identifier: Apache-2.0

package serve

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/loopholelabs/logging"
	"github.com/loopholelabs/logging/types"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/statefold/inspect/internal/supervisor"
	"github.com/statefold/inspect/pkg/api"
	"github.com/statefold/inspect/pkg/config"
	"github.com/statefold/inspect/pkg/inspect"
)

var (
	serveCmdConfig = &config.Config{}
	ServeCmd       = &cobra.Command{
		Use:     "serve",
		Short:   "Start the inspect gateway",
		Long:    `Start the inspect gateway with the specified configuration. Flags can also be set via environment variables with the INSPECT_ prefix (e.g. INSPECT_SESSION_ID=default).`,
		PreRunE: processConfig,
		RunE:    run,
	}
)

func init() {
	cobra.OnInitialize(initConfig)

	key := "server-manager-address"
	ServeCmd.PersistentFlags().String(key, "127.0.0.1:5001", "Address of the server manager gRPC endpoint")

	key = "session-id"
	ServeCmd.PersistentFlags().String(key, "", "Session identifier attached to every inspect call")

	key = "queue-size"
	ServeCmd.PersistentFlags().Int(key, config.DefaultQueueSize, "Maximum number of inspect requests waiting for the serializer loop; submissions beyond this fail immediately")

	key = "inspect-address"
	ServeCmd.PersistentFlags().String(key, config.DefaultInspectAddress, "Address on which the HTTP inspect API listens")

	key = "dial-timeout"
	ServeCmd.PersistentFlags().Duration(key, config.DefaultDialTimeout, "Timeout for establishing a connection to the server manager")

	key = "call-timeout"
	ServeCmd.PersistentFlags().Duration(key, 0, "Timeout for the inspect call itself (0 disables it)")

	key = "log-level"
	ServeCmd.PersistentFlags().String(key, config.DefaultLogLevel, "Level at which logs will be output (debug, info, warn, error)")
}

// processConfig reads the configuration from the command line flags and
// environment variables.
func processConfig(cmd *cobra.Command, _ []string) error {
	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		return err
	}

	serveCmdConfig.ServerManagerAddress = viper.GetString("server-manager-address")
	serveCmdConfig.SessionID = viper.GetString("session-id")
	serveCmdConfig.QueueSize = viper.GetInt("queue-size")
	serveCmdConfig.InspectAddress = viper.GetString("inspect-address")
	serveCmdConfig.DialTimeout = viper.GetDuration("dial-timeout")
	serveCmdConfig.CallTimeout = viper.GetDuration("call-timeout")
	serveCmdConfig.LogLevel = viper.GetString("log-level")

	return serveCmdConfig.Validate()
}

// run starts the inspect gateway and blocks until shutdown.
func run(_ *cobra.Command, _ []string) error {
	logger := logging.New(logging.Zerolog, "inspectd", os.Stdout)
	logger.SetLevel(parseLogLevel(serveCmdConfig.LogLevel))
	logger.Info().Msg(serveCmdConfig.String())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client, err := inspect.New(&inspect.Options{
		Address:     serveCmdConfig.ServerManagerAddress,
		SessionID:   serveCmdConfig.SessionID,
		QueueSize:   serveCmdConfig.QueueSize,
		DialTimeout: serveCmdConfig.DialTimeout,
		CallTimeout: serveCmdConfig.CallTimeout,
		Logger:      logger,
	})
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	server := &http.Server{
		Addr:    serveCmdConfig.InspectAddress,
		Handler: api.New(client, logger),
	}
	return supervisor.Run(ctx, logger, []supervisor.Service{
		&apiService{server: server},
	})
}

// initConfig loads env files and binds environment variables.
func initConfig() {
	_ = godotenv.Load(".env")
	_ = godotenv.Load(".env.local")

	viper.SetEnvPrefix("inspect")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}

func parseLogLevel(level string) types.Level {
	switch strings.ToLower(level) {
	case "debug":
		return types.DebugLevel
	case "info":
		return types.InfoLevel
	case "warn", "warning":
		return types.WarnLevel
	case "error":
		return types.ErrorLevel
	default:
		return types.InfoLevel
	}
}
