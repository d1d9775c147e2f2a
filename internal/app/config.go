package app

import (
	"time"

	"github.com/yungbote/suggestion-engine/internal/learning/tuning"
	"github.com/yungbote/suggestion-engine/internal/platform/envutil"
	"github.com/yungbote/suggestion-engine/internal/platform/logger"
)

type Config struct {
	ServiceName string
	Environment string
	Port        string

	RunServer bool
	RunWorker bool

	LLMTimeout     time.Duration
	ContextTimeout time.Duration
	QueueSampling  time.Duration

	Tuning tuning.Config
}

// LoadConfig reads the process env. With neither RUN_SERVER nor RUN_WORKER
// set the process runs both.
func LoadConfig(log *logger.Logger) (Config, error) {
	t, err := tuning.Load()
	if err != nil {
		return Config{}, err
	}
	cfg := Config{
		ServiceName:    envutil.String("SERVICE_NAME", "suggestion-engine"),
		Environment:    envutil.String("APP_ENV", "development"),
		Port:           envutil.String("PORT", "8080"),
		RunServer:      envutil.Bool("RUN_SERVER", false),
		RunWorker:      envutil.Bool("RUN_WORKER", false),
		LLMTimeout:     envutil.Seconds("LEARNING_LLM_TIMEOUT_SECONDS", 30),
		ContextTimeout: envutil.Seconds("LEARNING_CONTEXT_TIMEOUT_SECONDS", 5),
		QueueSampling:  envutil.Seconds("JOB_QUEUE_METRICS_INTERVAL_SECONDS", 15),
		Tuning:         t,
	}
	if !cfg.RunServer && !cfg.RunWorker {
		cfg.RunServer, cfg.RunWorker = true, true
	}
	log.Info("Config loaded",
		"port", cfg.Port,
		"run_server", cfg.RunServer,
		"run_worker", cfg.RunWorker,
		"llm_timeout", cfg.LLMTimeout.String(),
	)
	return cfg, nil
}
