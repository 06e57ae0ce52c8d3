package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/hrygo/geminichat/ai/filter"
	"github.com/hrygo/geminichat/internal/profile"
	"github.com/hrygo/geminichat/internal/version"
	"github.com/hrygo/geminichat/server"
)

var (
	rootCmd = &cobra.Command{
		Use:   "geminichat",
		Short: `A browser chat client for Gemini that shows replies as text, markdown or highlighted code.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Systemd services get their environment from the unit file, not .env.
			if !isRunningAsSystemdService() {
				_ = godotenv.Load()
			}
			setupLogger(viper.GetString("mode"), os.Stderr)
			return nil
		},
		Run: func(_ *cobra.Command, _ []string) {
			instanceProfile, err := loadProfile()
			if err != nil {
				slog.Error("invalid configuration", "error", err)
				os.Exit(1)
			}

			ctx, cancel := context.WithCancel(context.Background())
			s, err := server.NewServer(ctx, instanceProfile)
			if err != nil {
				cancel()
				slog.Error("failed to create server", "error", err)
				return
			}

			c := make(chan os.Signal, 1)
			// Trigger graceful shutdown on SIGINT or SIGTERM.
			signal.Notify(c, terminationSignals...)

			if err := s.Start(ctx); err != nil {
				slog.Error("failed to start server", "error", err)
				cancel()
				return
			}

			printGreetings(instanceProfile)

			go func() {
				<-c
				s.Shutdown(ctx)
				cancel()
			}()

			// Wait for CTRL-C.
			<-ctx.Done()
		},
	}
)

func init() {
	viper.SetDefault("mode", "dev")
	viper.SetDefault("port", 8081)

	rootCmd.PersistentFlags().String("mode", "dev", `mode of server, can be "prod" or "dev" or "demo"`)
	rootCmd.PersistentFlags().String("addr", "", "address of server")
	rootCmd.PersistentFlags().Int("port", 8081, "port of server")
	rootCmd.PersistentFlags().String("unix-sock", "", "path to the unix socket, overrides --addr and --port")
	rootCmd.PersistentFlags().String("default-model", "", "model used when a request names none, overrides GEMINICHAT_LLM_MODEL")

	for _, name := range []string{"mode", "addr", "port", "unix-sock", "default-model"} {
		if err := viper.BindPFlag(name, rootCmd.PersistentFlags().Lookup(name)); err != nil {
			panic(err)
		}
	}

	viper.SetEnvPrefix("geminichat")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	rootCmd.AddCommand(askCmd, versionCmd)
}

// loadProfile builds the profile from flags, then the environment, then validates it.
func loadProfile() (*profile.Profile, error) {
	mode := viper.GetString("mode")
	p := &profile.Profile{
		Mode:     mode,
		Addr:     viper.GetString("addr"),
		Port:     viper.GetInt("port"),
		UNIXSock: viper.GetString("unix-sock"),
		Version:  version.Version,
	}
	p.FromEnv()
	if model := viper.GetString("default-model"); model != "" {
		p.LLMModel = model
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

func printGreetings(profile *profile.Profile) {
	fmt.Printf("geminichat %s started successfully!\n", profile.Version)

	if profile.IsDev() {
		fmt.Fprint(os.Stderr, "Development mode is enabled\n")
	}

	fmt.Printf("Mode: %s\n", profile.Mode)
	fmt.Printf("LLM provider: %s (default model %s)\n", profile.LLMProvider, profile.LLMModel)
	if profile.LLMAPIKey != "" {
		fmt.Printf("LLM API key: %s\n", filter.MaskKey(profile.LLMAPIKey))
	} else if !profile.IsAIEnabled() {
		fmt.Fprintln(os.Stderr, "No API key configured: set GEMINICHAT_LLM_API_KEY or GOOGLE_GENERATIVE_AI_API_KEY")
	}

	// Connection information
	if len(profile.UNIXSock) == 0 {
		if len(profile.Addr) == 0 {
			fmt.Printf("Server running on port %d\n", profile.Port)
			fmt.Printf("Open geminichat at: http://localhost:%d\n", profile.Port)
		} else {
			fmt.Printf("Server running on %s:%d\n", profile.Addr, profile.Port)
			fmt.Printf("Open geminichat at: http://%s:%d\n", profile.Addr, profile.Port)
		}
	} else {
		fmt.Printf("Server running on unix socket: %s\n", profile.UNIXSock)
	}
}

// isRunningAsSystemdService detects if the process is running under systemd
func isRunningAsSystemdService() bool {
	return os.Getenv("INVOCATION_ID") != "" || os.Getenv("WATCHDOG_USEC") != ""
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
