package structures

import "time"

type Server struct {
	Enabled bool   `yaml:"enabled"`
	Host    string `yaml:"host" validate:"required"`
	Port    int    `yaml:"port" validate:"required|uint|min:1"`
}

type RemoteConfig struct {
	URL       string        `yaml:"url" validate:"required|fullUrl"`
	Timeout   time.Duration `yaml:"timeout" validate:"required|min:1"`
	SendState bool          `yaml:"sendState"`
}

type MirrorConfig struct {
	Mode         string        `yaml:"mode" validate:"required|in:none,memory,file"`
	FilePath     string        `yaml:"filePath"`
	Key          string        `yaml:"key" validate:"required"`
	CacheSize    int           `yaml:"cacheSize" validate:"uint"`
	SaveInterval time.Duration `yaml:"saveInterval" validate:"required|min:1"`
}

type AnimationConfig struct {
	Interval    time.Duration `yaml:"interval" validate:"required|min:1"`
	SettleDelay time.Duration `yaml:"settleDelay" validate:"required|min:1"`
}

type RenderConfig struct {
	Interval time.Duration `yaml:"interval" validate:"required|min:1"`
}

type LocaleConfig struct {
	Collation string `yaml:"collation" validate:"required"`
	Timezone  string `yaml:"timezone" validate:"required"`
}

type LoggerConfig struct {
	Level string `yaml:"level" validate:"required|in:trace,debug,info,warn,error,fatal,panic"`
	Mode  uint32 `yaml:"mode" validate:"required|uint"`
	Dir   string `yaml:"dir" validate:"required|unixPath"`
}

type CacheConfig struct {
	Enabled bool `yaml:"enabled"`
	Size    int  `yaml:"size"`
}

type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
}

type Config struct {
	AppName          string
	Debug            bool
	Path             string
	InitialStatePath string
	Remote           RemoteConfig    `yaml:"remote"`
	Mirror           MirrorConfig    `yaml:"mirror"`
	Animation        AnimationConfig `yaml:"animation"`
	Render           RenderConfig    `yaml:"render"`
	Locale           LocaleConfig    `yaml:"locale"`
	WebServer        Server          `yaml:"webServer"`
	Logger           LoggerConfig    `yaml:"logger"`
	Cache            CacheConfig     `yaml:"cache"`
	Metrics          MetricsConfig   `yaml:"metrics"`
}
