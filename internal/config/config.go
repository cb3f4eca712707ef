package config

import (
	"fmt"
	"log"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Server struct {
		Port     string
		LogLevel string
	}
	Improv struct {
		ScenariosPath string
		SessionsDir   string
		MaxRounds     int
		Greeting      string
	}
	Agent struct {
		WorkerCmd     string
		TokenSecret   string
		TokenExpMin   int
		TokenSkewSecs int
	}
}

func Load() Config {
	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.log_level", "info")

	v.SetDefault("improv.scenarios_path", "shared-data/scenarios.json")
	v.SetDefault("improv.sessions_dir", "shared-data/sessions")
	v.SetDefault("improv.max_rounds", 3)
	v.SetDefault("improv.greeting", "Welcome to Improv Battle! Say start when you are ready for your first scene.")

	v.SetDefault("agent.token_exp_min", 720)
	v.SetDefault("agent.token_skew_secs", 30)

	// Map envs
	v.BindEnv("server.port", "PORT")
	v.BindEnv("server.log_level", "LOG_LEVEL")

	v.BindEnv("improv.scenarios_path", "IMPROV_SCENARIOS_PATH")
	v.BindEnv("improv.sessions_dir", "IMPROV_SESSIONS_DIR")
	v.BindEnv("improv.max_rounds", "IMPROV_MAX_ROUNDS")
	v.BindEnv("improv.greeting", "IMPROV_GREETING")

	v.BindEnv("agent.worker_cmd", "AGENT_WORKER_CMD")
	v.BindEnv("agent.token_secret", "AGENT_TOKEN_SECRET")
	v.BindEnv("agent.token_exp_min", "AGENT_TOKEN_EXP_MIN")
	v.BindEnv("agent.token_skew_secs", "AGENT_TOKEN_SKEW_SECS")

	var c Config
	c.Server.Port = toString(v.Get("server.port"))
	c.Server.LogLevel = v.GetString("server.log_level")

	c.Improv.ScenariosPath = v.GetString("improv.scenarios_path")
	c.Improv.SessionsDir = v.GetString("improv.sessions_dir")
	c.Improv.MaxRounds = v.GetInt("improv.max_rounds")
	c.Improv.Greeting = v.GetString("improv.greeting")

	c.Agent.WorkerCmd = v.GetString("agent.worker_cmd")
	c.Agent.TokenSecret = v.GetString("agent.token_secret")
	c.Agent.TokenExpMin = v.GetInt("agent.token_exp_min")
	c.Agent.TokenSkewSecs = v.GetInt("agent.token_skew_secs")

	log.Printf("config loaded: port=%s scenarios=%s sessions_dir=%s max_rounds=%d",
		c.Server.Port, c.Improv.ScenariosPath, c.Improv.SessionsDir, c.Improv.MaxRounds)
	return c
}

func toString(v any) string { return fmt.Sprint(v) }
