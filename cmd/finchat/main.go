package main

import (
	"flag"
	"log/slog"
	"os"

	"github.com/joho/godotenv"

	"github.com/hsinyulin/finchat/internal/api"
	"github.com/hsinyulin/finchat/internal/genai"
	"github.com/hsinyulin/finchat/internal/line"
	"github.com/hsinyulin/finchat/internal/marketdata"
	"github.com/hsinyulin/finchat/internal/util"
)

func main() {
	// Initialize structured logger
	initializeLogger()

	// Load environment configuration
	config := loadEnvironmentConfig()

	// Parse command line flags
	flags := parseCommandLineFlags(config)

	// Build module options
	lineOpts := buildLineOptions(flags)
	genaiOpts := buildGenAIOptions(flags)
	catalogOpts := buildCatalogOptions(flags)
	apiOpts := buildAPIOptions(flags, config)

	slog.Info("Bootstrapping finchat with configured modules")
	slog.Debug("Module options counts", "line", len(lineOpts), "genai", len(genaiOpts), "catalog", len(catalogOpts), "api", len(apiOpts))
	if err := api.Run(lineOpts, genaiOpts, catalogOpts, apiOpts); err != nil {
		slog.Error("finchat failed to run", "error", err)
		os.Exit(1)
	}
	slog.Info("finchat exited successfully")
}

// Config holds environment configuration
type Config struct {
	ChannelSecret string
	ChannelToken  string
	GroqKey       string
	GroqBaseURL   string
	GroqModel     string
	APIAddr       string
	CatalogDSN    string
	CatalogCSV    string
	StrictStock   bool
	MaxHistoryLen int
	Timeout       int
}

// Flags holds command line flag values
type Flags struct {
	channelSecret *string
	channelToken  *string
	groqKey       *string
	groqBaseURL   *string
	groqModel     *string
	apiAddr       *string
	catalogDSN    *string
	catalogCSV    *string
}

// initializeLogger sets up structured logging with debug level
func initializeLogger() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	slog.SetDefault(logger)
}

// loadEnvironmentConfig loads configuration from environment variables and .env file
func loadEnvironmentConfig() Config {
	if err := godotenv.Load(); err != nil {
		slog.Debug("failed to load .env file", "error", err)
	} else {
		slog.Debug("successfully loaded .env file")
	}

	config := Config{
		ChannelSecret: os.Getenv("LINE_CHANNEL_SECRET"),
		ChannelToken:  os.Getenv("LINE_CHANNEL_TOKEN"),
		GroqKey:       os.Getenv("GROQ_API_KEY"),
		GroqBaseURL:   os.Getenv("GROQ_BASE_URL"),
		GroqModel:     os.Getenv("GROQ_MODEL"),
		APIAddr:       os.Getenv("API_ADDR"),
		CatalogDSN:    os.Getenv("CATALOG_DSN"),
		CatalogCSV:    os.Getenv("CATALOG_CSV"),
		StrictStock:   util.ParseBoolEnv("STRICT_STOCK_MATCHING", false),
		MaxHistoryLen: util.ParseIntEnv("MAX_HISTORY_LEN", 0),
		Timeout:       util.ParseIntEnv("REQUEST_TIMEOUT_SECONDS", 0),
	}

	slog.Debug("environment variables loaded",
		"LINE_CHANNEL_SECRET_SET", config.ChannelSecret != "",
		"LINE_CHANNEL_TOKEN_SET", config.ChannelToken != "",
		"GROQ_API_KEY_SET", config.GroqKey != "",
		"GROQ_BASE_URL", config.GroqBaseURL,
		"GROQ_MODEL", config.GroqModel,
		"API_ADDR", config.APIAddr,
		"CATALOG_DSN_SET", config.CatalogDSN != "",
		"CATALOG_CSV", config.CatalogCSV,
		"STRICT_STOCK_MATCHING", config.StrictStock,
		"MAX_HISTORY_LEN", config.MaxHistoryLen,
		"REQUEST_TIMEOUT_SECONDS", config.Timeout)

	return config
}

// parseCommandLineFlags parses command line arguments with environment defaults
func parseCommandLineFlags(config Config) Flags {
	flags := Flags{
		channelSecret: flag.String("line-channel-secret", config.ChannelSecret, "LINE channel secret (overrides $LINE_CHANNEL_SECRET)"),
		channelToken:  flag.String("line-channel-token", config.ChannelToken, "LINE channel access token (overrides $LINE_CHANNEL_TOKEN)"),
		groqKey:       flag.String("groq-api-key", config.GroqKey, "Groq API key (overrides $GROQ_API_KEY)"),
		groqBaseURL:   flag.String("groq-base-url", config.GroqBaseURL, "Groq API base URL (overrides $GROQ_BASE_URL)"),
		groqModel:     flag.String("groq-model", config.GroqModel, "chat completion model (overrides $GROQ_MODEL)"),
		apiAddr:       flag.String("api-addr", config.APIAddr, "API server address (overrides $API_ADDR)"),
		catalogDSN:    flag.String("catalog-dsn", config.CatalogDSN, "stock catalog database DSN (overrides $CATALOG_DSN)"),
		catalogCSV:    flag.String("catalog-csv", config.CatalogCSV, "stock catalog CSV listing (overrides $CATALOG_CSV)"),
	}

	flag.Parse()

	slog.Debug("flags parsed",
		"channelSecretSet", *flags.channelSecret != "",
		"channelTokenSet", *flags.channelToken != "",
		"groqKeySet", *flags.groqKey != "",
		"groqBaseURL", *flags.groqBaseURL,
		"groqModel", *flags.groqModel,
		"apiAddr", *flags.apiAddr,
		"catalogDSN_set", *flags.catalogDSN != "",
		"catalogCSV", *flags.catalogCSV)

	return flags
}

// buildLineOptions constructs LINE service configuration options
func buildLineOptions(flags Flags) []line.Option {
	var lineOpts []line.Option
	if *flags.channelSecret != "" {
		lineOpts = append(lineOpts, line.WithChannelSecret(*flags.channelSecret))
	}
	if *flags.channelToken != "" {
		lineOpts = append(lineOpts, line.WithChannelToken(*flags.channelToken))
	}
	return lineOpts
}

// buildGenAIOptions constructs GenAI configuration options
func buildGenAIOptions(flags Flags) []genai.Option {
	var genaiOpts []genai.Option
	if *flags.groqKey != "" {
		genaiOpts = append(genaiOpts, genai.WithAPIKey(*flags.groqKey))
	}
	if *flags.groqBaseURL != "" {
		genaiOpts = append(genaiOpts, genai.WithBaseURL(*flags.groqBaseURL))
	}
	if *flags.groqModel != "" {
		genaiOpts = append(genaiOpts, genai.WithModel(*flags.groqModel))
	}
	return genaiOpts
}

// buildCatalogOptions constructs stock catalog configuration options
func buildCatalogOptions(flags Flags) []marketdata.CatalogOption {
	var catalogOpts []marketdata.CatalogOption
	if *flags.catalogDSN == "" {
		slog.Debug("No catalog DSN provided, stock names will fall back to ids")
		return catalogOpts
	}
	slog.Debug("Configuring stock catalog", "dsn_type", marketdata.DetectDSNType(*flags.catalogDSN))
	catalogOpts = append(catalogOpts, marketdata.WithCatalogDSN(*flags.catalogDSN))
	if *flags.catalogCSV != "" {
		catalogOpts = append(catalogOpts, marketdata.WithCatalogCSV(*flags.catalogCSV))
	}
	return catalogOpts
}

// buildAPIOptions constructs API server configuration options
func buildAPIOptions(flags Flags, config Config) []api.Option {
	var apiOpts []api.Option
	if *flags.apiAddr != "" {
		apiOpts = append(apiOpts, api.WithAddr(*flags.apiAddr))
	}
	if config.StrictStock {
		apiOpts = append(apiOpts, api.WithStrictStockMatching())
	}
	if config.MaxHistoryLen > 0 {
		apiOpts = append(apiOpts, api.WithMaxHistoryLen(config.MaxHistoryLen))
	}
	if config.Timeout > 0 {
		apiOpts = append(apiOpts, api.WithRequestTimeout(config.Timeout))
	}
	return apiOpts
}
