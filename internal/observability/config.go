package observability

import (
	"strings"

	"github.com/smallbiznis/storefront/internal/config"
)

// Config is the observability view of the application config.
type Config struct {
	ServiceName string
	Environment string
	Version     string

	LogLevel  string
	LogFormat string

	OtelEnabled          bool
	OtelExporterEndpoint string
	OtelExporterProtocol string
	OtelSamplingRatio    float64
}

func LoadConfig(cfg config.Config) Config {
	serviceName := strings.TrimSpace(cfg.AppName)
	if serviceName == "" {
		serviceName = "storefront"
	}
	environment := cfg.Observability.DeploymentEnv
	if environment == "" {
		environment = cfg.Environment
	}
	logLevel := cfg.Observability.LogLevel
	if logLevel == "" {
		logLevel = "info"
	}
	logFormat := cfg.Observability.LogFormat
	if logFormat == "" {
		logFormat = "json"
	}
	protocol := cfg.Observability.OtelProtocol
	if protocol == "" {
		protocol = "grpc"
	}

	return Config{
		ServiceName:          serviceName,
		Environment:          strings.TrimSpace(environment),
		Version:              strings.TrimSpace(cfg.AppVersion),
		LogLevel:             logLevel,
		LogFormat:            logFormat,
		OtelEnabled:          cfg.Observability.OtelEnabled,
		OtelExporterEndpoint: cfg.Observability.OtelEndpoint,
		OtelExporterProtocol: protocol,
		OtelSamplingRatio:    cfg.Observability.OtelSampling,
	}
}

// Debug enables verbose request logging and stack traces.
func (c Config) Debug() bool {
	if strings.EqualFold(strings.TrimSpace(c.LogLevel), "debug") {
		return true
	}
	switch strings.ToLower(strings.TrimSpace(c.Environment)) {
	case "dev", "development", "local", "test":
		return true
	default:
		return false
	}
}
