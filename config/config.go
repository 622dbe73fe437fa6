// Package config reads the process configuration from the environment.
//
// Values come from environment variables (optionally seeded from a .env file
// by the caller) with the defaults below. Durations use Go syntax ("30s").
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const Version = "1.0.0"

const extraHeaderPrefix = "LLM_EXTRA_HEADER_"

type Config struct {
	LLM          LLMConfig
	API          APIConfig
	Auth         AuthConfig
	Personas     PersonaConfig
	Article      ArticleConfig
	Discord      DiscordConfig
	Conversation ConversationConfig
	Redis        RedisConfig
	Debug        bool
}

type LLMConfig struct {
	Provider string
	APIKey   string
	APIURL   string
	Model    string
	Timeout  time.Duration
	// APIVersion overrides the api-version query parameter for azure.
	APIVersion string
	// Referer and Title are sent as HTTP-Referer and X-Title to OpenRouter.
	Referer string
	Title   string
	// ExtraHeaders holds every other LLM_EXTRA_HEADER_<NAME> variable keyed
	// by header name.
	ExtraHeaders map[string]string
}

type APIConfig struct {
	Host        string
	Port        int
	URL         string
	Timeout     time.Duration
	CORSOrigins []string
}

type AuthConfig struct {
	APIKey    string
	APISecret string
	JWTSecret string
	JWTExpiry time.Duration
}

type PersonaConfig struct {
	Dir                  string
	DefaultID            string
	DescriptionMaxLength int
}

type ArticleConfig struct {
	MaxLength        int
	FetchTimeout     time.Duration
	SummaryMinLength int
	SummaryMaxLength int
}

type DiscordConfig struct {
	Token   string
	GuildID string
}

type ConversationConfig struct {
	HistoryLimit  int
	ContextWindow int
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	TTL      time.Duration
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("llm_provider", "qwen")
	v.SetDefault("llm_api_key", "")
	v.SetDefault("llm_api_url", "")
	v.SetDefault("llm_model", "")
	v.SetDefault("llm_timeout", 30*time.Second)
	v.SetDefault("llm_api_version", "")
	v.SetDefault("llm_extra_header_http_referer", "https://github.com")
	v.SetDefault("llm_extra_header_x_title", "Link Persona Bot")

	v.SetDefault("api_host", "0.0.0.0")
	v.SetDefault("api_port", 8000)
	v.SetDefault("api_url", "")
	v.SetDefault("api_timeout", 30*time.Second)
	v.SetDefault("cors_origins", "*")

	v.SetDefault("api_key", "")
	v.SetDefault("api_secret", "")
	v.SetDefault("jwt_secret", "")
	v.SetDefault("jwt_expiry", 24*time.Hour)

	v.SetDefault("personas_dir", "personas")
	v.SetDefault("default_persona_id", "")
	v.SetDefault("description_max_length", 100)

	v.SetDefault("article_max_length", 2000)
	v.SetDefault("article_fetch_timeout", 10*time.Second)
	v.SetDefault("summary_min_length", 100)
	v.SetDefault("summary_max_length", 150)

	v.SetDefault("discord_token", "")
	v.SetDefault("discord_guild_id", "")

	v.SetDefault("conversation_history_limit", 20)
	v.SetDefault("conversation_context_window", 10)

	v.SetDefault("redis_addr", "")
	v.SetDefault("redis_password", "")
	v.SetDefault("redis_db", 0)
	v.SetDefault("redis_ttl", time.Duration(0))

	v.SetDefault("debug", false)
}

// Load builds a Config from the current environment.
func Load() (Config, error) {
	v := viper.New()
	v.AutomaticEnv()
	setDefaults(v)

	cfg := Config{
		LLM: LLMConfig{
			Provider:     strings.ToLower(v.GetString("llm_provider")),
			APIKey:       v.GetString("llm_api_key"),
			APIURL:       v.GetString("llm_api_url"),
			Model:        v.GetString("llm_model"),
			Timeout:      v.GetDuration("llm_timeout"),
			APIVersion:   v.GetString("llm_api_version"),
			Referer:      v.GetString("llm_extra_header_http_referer"),
			Title:        v.GetString("llm_extra_header_x_title"),
			ExtraHeaders: extraHeadersFromEnv(os.Environ()),
		},
		API: APIConfig{
			Host:        v.GetString("api_host"),
			Port:        v.GetInt("api_port"),
			URL:         v.GetString("api_url"),
			Timeout:     v.GetDuration("api_timeout"),
			CORSOrigins: splitList(v.GetString("cors_origins")),
		},
		Auth: AuthConfig{
			APIKey:    v.GetString("api_key"),
			APISecret: v.GetString("api_secret"),
			JWTSecret: v.GetString("jwt_secret"),
			JWTExpiry: v.GetDuration("jwt_expiry"),
		},
		Personas: PersonaConfig{
			Dir:                  v.GetString("personas_dir"),
			DefaultID:            v.GetString("default_persona_id"),
			DescriptionMaxLength: v.GetInt("description_max_length"),
		},
		Article: ArticleConfig{
			MaxLength:        v.GetInt("article_max_length"),
			FetchTimeout:     v.GetDuration("article_fetch_timeout"),
			SummaryMinLength: v.GetInt("summary_min_length"),
			SummaryMaxLength: v.GetInt("summary_max_length"),
		},
		Discord: DiscordConfig{
			Token:   v.GetString("discord_token"),
			GuildID: v.GetString("discord_guild_id"),
		},
		Conversation: ConversationConfig{
			HistoryLimit:  v.GetInt("conversation_history_limit"),
			ContextWindow: v.GetInt("conversation_context_window"),
		},
		Redis: RedisConfig{
			Addr:     v.GetString("redis_addr"),
			Password: v.GetString("redis_password"),
			DB:       v.GetInt("redis_db"),
			TTL:      v.GetDuration("redis_ttl"),
		},
		Debug: v.GetBool("debug"),
	}

	if cfg.Conversation.HistoryLimit <= 0 {
		return Config{}, fmt.Errorf("CONVERSATION_HISTORY_LIMIT must be positive, got %d", cfg.Conversation.HistoryLimit)
	}
	if cfg.Conversation.ContextWindow < 0 {
		return Config{}, fmt.Errorf("CONVERSATION_CONTEXT_WINDOW must not be negative, got %d", cfg.Conversation.ContextWindow)
	}
	if cfg.Article.MaxLength <= 0 {
		return Config{}, fmt.Errorf("ARTICLE_MAX_LENGTH must be positive, got %d", cfg.Article.MaxLength)
	}

	return cfg, nil
}

// ValidateAPI checks the settings the HTTP API cannot start without.
func (c Config) ValidateAPI() error {
	if c.LLM.APIKey == "" {
		return fmt.Errorf("LLM API key not found: set LLM_API_KEY")
	}
	return nil
}

// ValidateBot checks the settings the chat bot cannot start without.
func (c Config) ValidateBot() error {
	if c.Discord.Token == "" {
		return fmt.Errorf("DISCORD_TOKEN not found in environment variables")
	}
	return c.ValidateAPI()
}

// APIBaseURL is the address the bot uses to reach the HTTP API. API_URL wins;
// otherwise it is derived from API_HOST and API_PORT.
func (c Config) APIBaseURL() string {
	if c.API.URL != "" {
		return strings.TrimRight(c.API.URL, "/")
	}
	if c.API.Port == 80 || c.API.Port == 443 {
		return "http://" + c.API.Host
	}
	return fmt.Sprintf("http://%s:%d", c.API.Host, c.API.Port)
}

// ListenAddr is the address the HTTP API binds to.
func (c Config) ListenAddr() string {
	return fmt.Sprintf("%s:%d", c.API.Host, c.API.Port)
}

func extraHeadersFromEnv(environ []string) map[string]string {
	headers := map[string]string{}
	for _, kv := range environ {
		key, value, ok := strings.Cut(kv, "=")
		if !ok || !strings.HasPrefix(key, extraHeaderPrefix) {
			continue
		}
		switch key {
		case extraHeaderPrefix + "HTTP_REFERER", extraHeaderPrefix + "X_TITLE":
			continue
		}
		name := strings.ReplaceAll(strings.TrimPrefix(key, extraHeaderPrefix), "_", "-")
		headers[name] = value
	}
	return headers
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
