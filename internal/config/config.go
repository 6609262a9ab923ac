package config

import (
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	ModelSourceFile      = "file"
	ModelSourceConfigMap = "configmap"
)

type Config struct {
	Server     ServerConfig
	Logger     LoggerConfig
	Model      ModelConfig
	Prediction PredictionConfig
	Kubernetes KubernetesConfig
	Metrics    MetricsConfig
	Audit      AuditConfig
}

type ServerConfig struct {
	Host            string
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

type LoggerConfig struct {
	Level  string
	Format string
	File   string
}

// ModelConfig locates the artifact bundle. File names double as ConfigMap keys.
type ModelConfig struct {
	Source     string
	Dir        string
	File       string
	ScalerFile string
	InfoFile   string
	Required   bool
}

type PredictionConfig struct {
	MaxBatchSize int
}

type KubernetesConfig struct {
	InCluster      bool
	KubeConfigPath string
	Namespace      string
	ConfigMap      string
}

type MetricsConfig struct {
	Enabled bool
}

type AuditConfig struct {
	DatabaseURL    string
	ToolTimeout    time.Duration
	Requirements   string
	OutputDir      string
	DeniedLicenses []string
}

func Load() (*Config, error) {
	// .env is optional; real environment variables win.
	_ = godotenv.Load()

	v := viper.New()

	// Defaults
	v.SetDefault("SERVER_HOST", "0.0.0.0")
	v.SetDefault("SERVER_PORT", 8000)
	v.SetDefault("SERVER_READ_TIMEOUT", "10s")
	v.SetDefault("SERVER_WRITE_TIMEOUT", "10s")
	v.SetDefault("SERVER_SHUTDOWN_TIMEOUT", "10s")
	v.SetDefault("LOGGER_LEVEL", "info")
	v.SetDefault("LOGGER_FORMAT", "json")
	v.SetDefault("LOGGER_FILE", "")
	v.SetDefault("MODEL_SOURCE", ModelSourceFile)
	v.SetDefault("MODEL_DIR", "models")
	v.SetDefault("MODEL_FILE", "titanic_model.json")
	v.SetDefault("MODEL_SCALER_FILE", "titanic_scaler.json")
	v.SetDefault("MODEL_INFO_FILE", "model_info.json")
	v.SetDefault("MODEL_REQUIRED", false)
	v.SetDefault("PREDICTION_MAX_BATCH_SIZE", 1000)
	v.SetDefault("KUBERNETES_IN_CLUSTER", false)
	v.SetDefault("KUBERNETES_KUBECONFIG", "")
	v.SetDefault("KUBERNETES_NAMESPACE", "model-serving")
	v.SetDefault("KUBERNETES_CONFIGMAP", "titanic-model")
	v.SetDefault("METRICS_ENABLED", true)
	v.SetDefault("AUDIT_DATABASE_URL", "")
	v.SetDefault("AUDIT_TOOL_TIMEOUT", "30s")
	v.SetDefault("AUDIT_REQUIREMENTS", "requirements.txt")
	v.SetDefault("AUDIT_OUTPUT_DIR", ".")
	v.SetDefault("AUDIT_DENIED_LICENSES", "GPL,AGPL")

	// Env
	v.AutomaticEnv()

	cfg := &Config{
		Server: ServerConfig{
			Host:            v.GetString("SERVER_HOST"),
			Port:            v.GetInt("SERVER_PORT"),
			ReadTimeout:     durationOr(v.GetString("SERVER_READ_TIMEOUT"), 10*time.Second),
			WriteTimeout:    durationOr(v.GetString("SERVER_WRITE_TIMEOUT"), 10*time.Second),
			ShutdownTimeout: durationOr(v.GetString("SERVER_SHUTDOWN_TIMEOUT"), 10*time.Second),
		},
		Logger: LoggerConfig{
			Level:  v.GetString("LOGGER_LEVEL"),
			Format: v.GetString("LOGGER_FORMAT"),
			File:   v.GetString("LOGGER_FILE"),
		},
		Model: ModelConfig{
			Source:     strings.ToLower(v.GetString("MODEL_SOURCE")),
			Dir:        v.GetString("MODEL_DIR"),
			File:       v.GetString("MODEL_FILE"),
			ScalerFile: v.GetString("MODEL_SCALER_FILE"),
			InfoFile:   v.GetString("MODEL_INFO_FILE"),
			Required:   v.GetBool("MODEL_REQUIRED"),
		},
		Prediction: PredictionConfig{
			MaxBatchSize: v.GetInt("PREDICTION_MAX_BATCH_SIZE"),
		},
		Kubernetes: KubernetesConfig{
			InCluster:      v.GetBool("KUBERNETES_IN_CLUSTER"),
			KubeConfigPath: v.GetString("KUBERNETES_KUBECONFIG"),
			Namespace:      v.GetString("KUBERNETES_NAMESPACE"),
			ConfigMap:      v.GetString("KUBERNETES_CONFIGMAP"),
		},
		Metrics: MetricsConfig{
			Enabled: v.GetBool("METRICS_ENABLED"),
		},
		Audit: AuditConfig{
			DatabaseURL:    v.GetString("AUDIT_DATABASE_URL"),
			ToolTimeout:    durationOr(v.GetString("AUDIT_TOOL_TIMEOUT"), 30*time.Second),
			Requirements:   v.GetString("AUDIT_REQUIREMENTS"),
			OutputDir:      v.GetString("AUDIT_OUTPUT_DIR"),
			DeniedLicenses: splitList(v.GetString("AUDIT_DENIED_LICENSES")),
		},
	}

	return cfg, nil
}

func durationOr(raw string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}
	return d
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
