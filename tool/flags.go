package tool

import (
	"flag"

	"github.com/moyoez/video-splitter-go/types"
)

// SetFlags parses CLI flags and returns the override config.
func SetFlags() types.Config {
	var cfg types.Config
	flag.StringVar(&cfg.Log, "log", "", "log mode: dev|prod|none")
	flag.StringVar(&cfg.UseConfigPath, "useConfigPath", "", "override config file path")
	flag.IntVar(&cfg.UsePort, "usePort", 0, "override listen port")
	flag.StringVar(&cfg.UseUploadFolder, "useUploadFolder", "", "override upload folder")
	flag.StringVar(&cfg.UseOutputFolder, "useOutputFolder", "", "override split output folder")
	flag.StringVar(&cfg.UseSplitMode, "useSplitMode", "", "default split mode: bytes|time")
	flag.Int64Var(&cfg.UsePartSizeMB, "usePartSizeMB", 0, "default part size in MiB")
	flag.StringVar(&cfg.UseFFmpegPath, "useFFmpegPath", "", "path to ffmpeg binary")
	flag.StringVar(&cfg.UseFFprobePath, "useFFprobePath", "", "path to ffprobe binary")
	flag.StringVar(&cfg.UsePublicURL, "usePublicURL", "", "base URL used in QR codes (default: first LAN address)")
	flag.BoolVar(&cfg.SkipSweeper, "skipSweeper", false, "if true, old uploads and outputs are not swept automatically")
	flag.Int64Var(&cfg.UseMaxUploadSize, "useMaxUploadSize", 0, "override max upload body size in bytes")
	flag.StringVar(&cfg.UseNotifySocket, "useNotifySocket", "", "unix socket that receives job events")
	flag.Parse()
	return cfg
}

// ApplyFlagOverrides copies non-zero flag values onto cfg.
func ApplyFlagOverrides(cfg *types.AppConfig, flags types.Config) {
	if flags.UsePort > 0 {
		cfg.Port = flags.UsePort
	}
	if flags.UseUploadFolder != "" {
		cfg.UploadFolder = flags.UseUploadFolder
	}
	if flags.UseOutputFolder != "" {
		cfg.OutputFolder = flags.UseOutputFolder
	}
	if flags.UseSplitMode != "" {
		cfg.SplitMode = flags.UseSplitMode
	}
	if flags.UsePartSizeMB > 0 {
		cfg.PartSizeMB = flags.UsePartSizeMB
	}
	if flags.UseFFmpegPath != "" {
		cfg.FFmpegPath = flags.UseFFmpegPath
	}
	if flags.UseFFprobePath != "" {
		cfg.FFprobePath = flags.UseFFprobePath
	}
	if flags.UsePublicURL != "" {
		cfg.PublicURL = flags.UsePublicURL
	}
	if flags.UseNotifySocket != "" {
		cfg.NotifySocket = flags.UseNotifySocket
	}
	if flags.UseMaxUploadSize > 0 {
		cfg.MaxUploadBytes = flags.UseMaxUploadSize
	}
}
