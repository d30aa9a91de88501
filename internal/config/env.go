package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// Env 是可通过环境变量覆盖的配置项。
type Env struct {
	Profile  string `env:"XCRED_PROFILE"`
	Format   string `env:"XCRED_FORMAT"`
	Backend  string `env:"XCRED_BACKEND"`
	Service  string `env:"XCRED_SERVICE"`
	LogLevel string `env:"XCRED_LOG_LEVEL"`

	MCPTransport     string `env:"XCRED_MCP_TRANSPORT"`
	MCPHTTPAddr      string `env:"XCRED_MCP_HTTP_ADDR"`
	MCPHTTPAuthToken string `env:"XCRED_MCP_HTTP_AUTH_TOKEN"`
}

// LoadEnv 从进程环境读取 Env。
func LoadEnv() (Env, error) {
	var e Env
	if err := env.Parse(&e); err != nil {
		return Env{}, fmt.Errorf("parse env: %w", err)
	}
	return e, nil
}

// LoadEnvFrom 从给定的 map 读取 Env（测试用）。
func LoadEnvFrom(vars map[string]string) (Env, error) {
	var e Env
	if err := env.ParseWithOptions(&e, env.Options{Environment: vars}); err != nil {
		return Env{}, fmt.Errorf("parse env: %w", err)
	}
	return e, nil
}
