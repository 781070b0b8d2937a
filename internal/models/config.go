package models

import (
	"fmt"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

type Config struct {
	ListenAddr      string `mapstructure:"listen_addr"`
	DatabaseURL     string `mapstructure:"database_url"`
	KafkaEnabled    bool   `mapstructure:"kafka_enabled"`
	KafkaBrokerList string `mapstructure:"kafka_broker_list"`
	OrderEventTopic string `mapstructure:"order_event_topic"`

	WhatsappVerifyToken string `mapstructure:"whatsapp_verify_token"`
	WhatsappAccessToken string `mapstructure:"whatsapp_access_token"`
	WhatsappPhoneID     string `mapstructure:"whatsapp_phone_id"`
	MetaAppSecret       string `mapstructure:"meta_app_secret"`

	LLMProvider string `mapstructure:"llm_provider"`
	LLMAPIKey   string `mapstructure:"llm_api_key"`
	LLMBaseURL  string `mapstructure:"llm_base_url"`
	LLMModel    string `mapstructure:"llm_model"`

	RestaurantName      string  `mapstructure:"restaurant_name"`
	RestaurantCode      string  `mapstructure:"restaurant_code"`
	RestaurantLatitude  float64 `mapstructure:"restaurant_latitude"`
	RestaurantLongitude float64 `mapstructure:"restaurant_longitude"`
	DeliveryRatePerKm   float64 `mapstructure:"delivery_rate_per_km"`
	MinimumDeliveryFee  float64 `mapstructure:"minimum_delivery_fee"`

	SessionTTL    time.Duration `mapstructure:"session_ttl"`
	MenuCacheTTL  time.Duration `mapstructure:"menu_cache_ttl"`
	HistoryLimit  int           `mapstructure:"history_limit"`
	DevPassphrase string        `mapstructure:"dev_passphrase"`
}

// RestaurantLocation returns the configured restaurant coordinates.
func (cfg *Config) RestaurantLocation() Location {
	return Location{Lat: cfg.RestaurantLatitude, Lng: cfg.RestaurantLongitude}
}

// LoadConfig initializes and reads the configuration using Viper. Every key
// can come from the config file or from the matching environment variable
// (DATABASE_URL, WHATSAPP_ACCESS_TOKEN, ...).
func LoadConfig(cfgFile string) (*Config, error) {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName("config")
		viper.SetConfigType("json")
	}

	viper.AutomaticEnv()
	for key, env := range map[string]string{
		"database_url":          "DATABASE_URL",
		"kafka_broker_list":     "KAFKA_BROKER_LIST",
		"whatsapp_verify_token": "WHATSAPP_VERIFY_TOKEN",
		"whatsapp_access_token": "WHATSAPP_ACCESS_TOKEN",
		"whatsapp_phone_id":     "WHATSAPP_PHONE_ID",
		"meta_app_secret":       "META_APP_SECRET",
		"llm_provider":          "LLM_PROVIDER",
		"llm_api_key":           "LLM_API_KEY",
		"llm_base_url":          "LLM_BASE_URL",
		"llm_model":             "LLM_MODEL",
		"restaurant_latitude":   "RESTAURANT_LATITUDE",
		"restaurant_longitude":  "RESTAURANT_LONGITUDE",
		"delivery_rate_per_km":  "DELIVERY_RATE_PER_KM",
	} {
		if err := viper.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("binding %s: %w", env, err)
		}
	}

	viper.SetDefault("listen_addr", ":8080")
	viper.SetDefault("order_event_topic", "order_events")
	viper.SetDefault("llm_provider", "openai")
	viper.SetDefault("llm_base_url", "https://api.deepseek.com")
	viper.SetDefault("llm_model", "deepseek-chat")
	viper.SetDefault("restaurant_name", "Pizzería San Marzano")
	viper.SetDefault("restaurant_code", "sm")
	viper.SetDefault("delivery_rate_per_km", 1.5)
	viper.SetDefault("minimum_delivery_fee", 3.0)
	viper.SetDefault("session_ttl", "6h")
	viper.SetDefault("menu_cache_ttl", "60s")
	viper.SetDefault("history_limit", 30)

	if err := viper.ReadInConfig(); err != nil {
		// The config file is optional; env-only deployments are common.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok && cfgFile != "" {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	decoderConfigOption := viper.DecoderConfigOption(func(config *mapstructure.DecoderConfig) {
		config.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			config.DecodeHook,
			mapstructure.StringToTimeDurationHookFunc(),
		)
	})
	if err := viper.Unmarshal(&config, decoderConfigOption); err != nil {
		return nil, fmt.Errorf("unable to decode into struct, %w", err)
	}

	return &config, nil
}
