package types

// AppConfig represents the application configuration loaded from config file
type AppConfig struct {
	Port              int      `yaml:"port"`
	UploadFolder      string   `yaml:"uploadFolder"`
	OutputFolder      string   `yaml:"outputFolder"`
	AllowedExtensions []string `yaml:"allowedExtensions"`
	MaxUploadBytes    int64    `yaml:"maxUploadBytes"`
	SplitMode         string   `yaml:"splitMode"`  // "bytes" or "time"
	PartSizeMB        int64    `yaml:"partSizeMB"` // target part size for both modes
	BufferSizeKB      int      `yaml:"bufferSizeKB"`
	FFmpegPath        string   `yaml:"ffmpegPath"`
	FFprobePath       string   `yaml:"ffprobePath"`
	Retention         string   `yaml:"retention"`     // time.Duration string, e.g. "1h"
	SweepInterval     string   `yaml:"sweepInterval"` // time.Duration string, e.g. "5m"
	ProgressTTL       string   `yaml:"progressTTL"`
	SessionTTL        string   `yaml:"sessionTTL"`
	SessionCookie     string   `yaml:"sessionCookie"`
	ZipMemoryLimitMB  int64    `yaml:"zipMemoryLimitMB"`
	ProgressPushRate  float64  `yaml:"progressPushRate"` // websocket updates per second per job
	PublicURL         string   `yaml:"publicURL,omitempty"`
	NotifySocket      string   `yaml:"notifySocket,omitempty"` // unix socket of a companion process, empty disables
}

// Config holds runtime overrides from CLI flags
type Config struct {
	Log              string
	UseConfigPath    string
	UsePort          int
	UseUploadFolder  string
	UseOutputFolder  string
	UseSplitMode     string
	UsePartSizeMB    int64
	UseFFmpegPath    string
	UseFFprobePath   string
	UsePublicURL     string // base URL encoded into QR codes, e.g. http://192.168.1.5:5000
	SkipSweeper      bool   // if true, retention sweeper is not started.
	UseMaxUploadSize int64  // bytes, 0 keeps config value
	UseNotifySocket  string
}
