package providers

import (
	"fmt"
	"path/filepath"
	"pickme/internal/structures"
	"strings"
	"time"

	"github.com/spf13/viper"
)

func setConfigDefaults(v *viper.Viper) {
	v.SetDefault("remote.timeout", 10*time.Second)
	v.SetDefault("mirror.mode", "none")
	v.SetDefault("mirror.key", "pickme::payload")
	v.SetDefault("mirror.cacheSize", 8)
	v.SetDefault("mirror.saveInterval", 30*time.Second)
	v.SetDefault("animation.interval", 95*time.Millisecond)
	v.SetDefault("animation.settleDelay", 140*time.Millisecond)
	v.SetDefault("render.interval", 16*time.Millisecond)
	v.SetDefault("locale.collation", "zh-CN")
	v.SetDefault("locale.timezone", "Local")
	v.SetDefault("webServer.host", "127.0.0.1")
	v.SetDefault("webServer.port", 8089)
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.mode", 0644)
	v.SetDefault("logger.dir", "./logs")
	v.SetDefault("cache.size", 4)
}

func NewConfigProvider(flags *structures.CliFlags) (*structures.Config, error) {
	var conf structures.Config
	v := viper.New()

	filename := filepath.Base(flags.ConfigPath)
	v.AddConfigPath(filepath.Dir(flags.ConfigPath))
	v.SetConfigName(strings.TrimSuffix(filename, filepath.Ext(filename)))
	v.SetConfigType("yaml")
	setConfigDefaults(v)

	_ = v.BindEnv("remote.url", "PICKME_REMOTE_URL")
	_ = v.BindEnv("logger.level", "PICKME_LOG_LEVEL")
	_ = v.BindEnv("mirror.mode", "PICKME_MIRROR_MODE")
	_ = v.BindEnv("metrics.enabled", "PICKME_METRICS_ENABLED")

	err := v.ReadInConfig()
	if err != nil {
		return nil, err
	}
	err = v.Unmarshal(&conf)
	if err != nil {
		return nil, fmt.Errorf("unable to decode into config struct: %w", err)
	}

	cnfValidator := NewCnfValidator(&conf)
	err = cnfValidator.Validate()
	if err != nil {
		return nil, err
	}

	conf.AppName = "PickMe"
	conf.Path = flags.ConfigPath
	conf.Debug = flags.DebugMode
	conf.InitialStatePath = flags.InitialStatePath
	return &conf, nil
}
