// Copyright 2026 fanjia1024
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// Config 应用配置结构体
type Config struct {
	Log        LogConfig        `mapstructure:"log"`
	Validation ValidationConfig `mapstructure:"validation"`
	Model      ModelConfig      `mapstructure:"model"`
	Monitoring MonitoringConfig `mapstructure:"monitoring"`
}

// LogConfig 日志配置
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// ValidationConfig schema 校验策略：on_failure 为 raise 时校验失败直接报错，
// ignore（默认）时记录日志放行原记录
type ValidationConfig struct {
	OnFailure string `mapstructure:"on_failure"` // raise | ignore
}

// ModelConfig LLM Step 使用的模型端点配置
type ModelConfig struct {
	Provider string `mapstructure:"provider"` // openai 兼容
	Model    string `mapstructure:"model"`
	APIKey   string `mapstructure:"api_key"`  // 支持 ${ENV_VAR} 占位
	BaseURL  string `mapstructure:"base_url"` // 空则用默认或 OPENAI_BASE_URL
	Timeout  string `mapstructure:"timeout"`  // 如 "30s"，空则默认 30s
}

// MonitoringConfig 监控配置
type MonitoringConfig struct {
	Prometheus PrometheusConfig `mapstructure:"prometheus"`
}

// PrometheusConfig Prometheus 配置
type PrometheusConfig struct {
	Enable bool `mapstructure:"enable"`
	Port   int  `mapstructure:"port"`
}

// LoadConfig 加载配置文件
func LoadConfig(configPath string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(configPath)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("无法读取配置文件: %w", err)
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("无法解析配置文件: %w", err)
	}

	replaceEnvVars(&config)

	if config.Validation.OnFailure == "" {
		config.Validation.OnFailure = "ignore"
	}
	if config.Validation.OnFailure != "ignore" && config.Validation.OnFailure != "raise" {
		return nil, fmt.Errorf("validation.on_failure 只能是 raise 或 ignore: %q", config.Validation.OnFailure)
	}
	return &config, nil
}

// replaceEnvVars 替换配置中的环境变量占位（${VAR}）
func replaceEnvVars(config *Config) {
	if strings.HasPrefix(config.Model.APIKey, "$") {
		envVar := strings.TrimPrefix(strings.TrimSuffix(config.Model.APIKey, "}"), "${")
		if val := os.Getenv(envVar); val != "" {
			config.Model.APIKey = val
		}
	}
}
