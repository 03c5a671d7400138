package app

import (
	"fmt"
	"strings"

	"github.com/yungbote/breadlog-backend/internal/domain/baking"
	"github.com/yungbote/breadlog-backend/internal/domain/catalog"
	"github.com/yungbote/breadlog-backend/internal/platform/envutil"
	"github.com/yungbote/breadlog-backend/internal/platform/logger"
)

type Config struct {
	Port         string
	JWTSecretKey string

	StartPolicy            baking.StartPolicy
	UnknownParameterPolicy baking.UnknownParameterPolicy
	FlourCategoryName      string
	LiquidCategoryName     string

	SeedCatalog    bool
	AllowedOrigins []string

	ServiceName string
	Environment string
	Version     string
}

func (c Config) Addr() string {
	return ":" + strings.TrimPrefix(c.Port, ":")
}

func LoadConfig(log *logger.Logger) (Config, error) {
	startPolicy, err := baking.ParseStartPolicy(envutil.String("STEP_START_POLICY", ""))
	if err != nil {
		return Config{}, fmt.Errorf("STEP_START_POLICY: %w", err)
	}
	unknownPolicy, err := baking.ParseUnknownParameterPolicy(envutil.String("UNKNOWN_PARAMETER_POLICY", ""))
	if err != nil {
		return Config{}, fmt.Errorf("UNKNOWN_PARAMETER_POLICY: %w", err)
	}

	cfg := Config{
		Port:                   envutil.String("PORT", "8080"),
		JWTSecretKey:           envutil.String("JWT_SECRET_KEY", ""),
		StartPolicy:            startPolicy,
		UnknownParameterPolicy: unknownPolicy,
		FlourCategoryName:      envutil.String("FLOUR_CATEGORY_NAME", catalog.FlourCategoryName),
		LiquidCategoryName:     envutil.String("LIQUID_CATEGORY_NAME", catalog.LiquidCategoryName),
		SeedCatalog:            envutil.Bool("SEED_CATALOG", true),
		AllowedOrigins:         splitList(envutil.String("CORS_ALLOWED_ORIGINS", "")),
		ServiceName:            envutil.String("SERVICE_NAME", "breadlog-backend"),
		Environment:            envutil.String("APP_ENV", "development"),
		Version:                envutil.String("APP_VERSION", "dev"),
	}
	if cfg.JWTSecretKey == "" {
		return Config{}, fmt.Errorf("JWT_SECRET_KEY is required")
	}
	if log != nil {
		log.Info("config loaded",
			"port", cfg.Port,
			"step_start_policy", cfg.StartPolicy,
			"unknown_parameter_policy", cfg.UnknownParameterPolicy,
			"flour_category", cfg.FlourCategoryName,
			"seed_catalog", cfg.SeedCatalog,
		)
	}
	return cfg, nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
