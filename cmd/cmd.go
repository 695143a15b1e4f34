package cmd

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/frahmantamala/zhar/internal"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	clearData  bool
	configPath string
)

var rootCmd = &cobra.Command{
	Use:   "zhar",
	Short: "Zhar",
	Long:  `Employee projects, credit requests, missions and the credits leaderboard.`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

// loadConfig reads .env, then config.yml under path when present, then ZHAR_ environment
// overrides such as ZHAR_DATABASE_SOURCE.
func loadConfig(path string) (*internal.Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("error loading .env: %w", err)
	}

	v := viper.New()
	setDefaults(v)
	v.AddConfigPath(path)
	v.SetConfigName("config")
	v.SetConfigType("yml")
	v.SetEnvPrefix("ZHAR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config: %w", err)
		}
	}

	var cfg internal.Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("error validating config: %w", err)
	}

	return &cfg, nil
}

// setDefaults registers every key so AutomaticEnv can fill keys absent from config.yml.
func setDefaults(v *viper.Viper) {
	v.SetDefault("http_server.port", 8080)
	v.SetDefault("http_server.base_url", "http://localhost:8080")
	v.SetDefault("http_server.allowed_origins", "")
	v.SetDefault("http_server.openapi_path", "api/openapi.yml")
	v.SetDefault("http_server.request_timeout", internal.DefaultRequestTimeout)
	v.SetDefault("http_server.read_header_timeout", 5*time.Second)
	v.SetDefault("http_server.read_timeout", 15*time.Second)
	v.SetDefault("http_server.idle_timeout", 60*time.Second)
	v.SetDefault("http_server.write_timeout", 15*time.Second)

	v.SetDefault("database.source", "")
	v.SetDefault("database.max_open_conns", 20)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", 30*time.Minute)
	v.SetDefault("database.conn_max_idle_time", 5*time.Minute)

	v.SetDefault("security.access_token_secret", "")
	v.SetDefault("security.refresh_token_secret", "")
	v.SetDefault("security.access_token_duration", 15*time.Minute)
	v.SetDefault("security.refresh_token_duration", 7*24*time.Hour)
	v.SetDefault("security.bcrypt_cost", 12)

	v.SetDefault("session.cookie_name", "zhar_session")
	v.SetDefault("session.refresh_cookie_name", "zhar_refresh")
	v.SetDefault("session.cookie_secure", false)
	v.SetDefault("session.restore_wait", 2*time.Second)
	v.SetDefault("session.no_profile_timeout", 30*time.Second)

	v.SetDefault("credits.monthly_target", 100)

	v.SetDefault("bootstrap.enabled", false)
	v.SetDefault("bootstrap.admin_email", "")
	v.SetDefault("bootstrap.admin_password", "")
	v.SetDefault("bootstrap.admin_name", "System Admin")

	v.SetDefault("scheduler.session_sweep_interval", time.Minute)
	v.SetDefault("scheduler.session_retention", 7*24*time.Hour)

	v.SetDefault("observability.logging.level", "info")
	v.SetDefault("observability.logging.format", "json")
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", ".", "directory containing config.yml")
	seedCmd.Flags().BoolVar(&clearData, "clear", false, "Clear existing data before seeding")

	rootCmd.AddCommand(httpServerCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(seedCmd)
	rootCmd.AddCommand(setupAdminCmd)
}
