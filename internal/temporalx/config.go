package temporalx

import (
	"time"

	"github.com/yungbote/suggestion-engine/internal/platform/envutil"
)

type Config struct {
	Address   string
	Namespace string
	TaskQueue string

	ClientCertPath string
	ClientKeyPath  string
	ClientCAPath   string

	DialTimeout      time.Duration
	DialMaxWait      time.Duration
	AutoRegister     bool
	RetentionDays    int
	NamespaceMaxWait time.Duration
	BackoffBase      time.Duration
	BackoffMax       time.Duration
}

func LoadConfig() Config {
	return Config{
		Address:   envutil.String("TEMPORAL_ADDRESS", ""),
		Namespace: envutil.String("TEMPORAL_NAMESPACE", "suggestion-engine"),
		TaskQueue: envutil.String("TEMPORAL_TASK_QUEUE", "suggestion-engine"),

		ClientCertPath: envutil.String("TEMPORAL_CLIENT_CERT_PATH", ""),
		ClientKeyPath:  envutil.String("TEMPORAL_CLIENT_KEY_PATH", ""),
		ClientCAPath:   envutil.String("TEMPORAL_CLIENT_CA_PATH", ""),

		DialTimeout:      envutil.Seconds("TEMPORAL_DIAL_TIMEOUT_SECONDS", 5),
		DialMaxWait:      envutil.Seconds("TEMPORAL_DIAL_MAX_WAIT_SECONDS", 60),
		AutoRegister:     envutil.Bool("TEMPORAL_AUTO_REGISTER_NAMESPACE", false),
		RetentionDays:    envutil.Int("TEMPORAL_NAMESPACE_RETENTION_DAYS", 7),
		NamespaceMaxWait: envutil.Seconds("TEMPORAL_NAMESPACE_ENSURE_TIMEOUT_SECONDS", 10),
		BackoffBase:      time.Duration(envutil.Int("TEMPORAL_DIAL_BACKOFF_MS", 250)) * time.Millisecond,
		BackoffMax:       time.Duration(envutil.Int("TEMPORAL_DIAL_BACKOFF_MAX_MS", 5000)) * time.Millisecond,
	}
}

func (c Config) Enabled() bool { return c.Address != "" }

func (c Config) hasTLS() bool {
	return c.ClientCertPath != "" || c.ClientKeyPath != "" || c.ClientCAPath != ""
}
