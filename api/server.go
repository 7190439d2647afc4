package api

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"

	"github.com/moyoez/video-splitter-go/api/controllers"
	"github.com/moyoez/video-splitter-go/api/middlewares"
	"github.com/moyoez/video-splitter-go/api/models"
	"github.com/moyoez/video-splitter-go/api/notifyhub"
	"github.com/moyoez/video-splitter-go/notify"
	"github.com/moyoez/video-splitter-go/packager"
	"github.com/moyoez/video-splitter-go/splitter"
	"github.com/moyoez/video-splitter-go/tool"
	"github.com/moyoez/video-splitter-go/types"
)

//go:embed web/index.html
var indexPage []byte

// Server represents the HTTP API server of the splitter
type Server struct {
	config *types.AppConfig
	env    *controllers.Env
	hub    *notifyhub.Hub
	engine *gin.Engine
	server *http.Server
	mu     sync.RWMutex
}

// NewServer builds the stores and splitters for cfg. Nothing listens until Start.
func NewServer(cfg *types.AppConfig) *Server {
	tracker := models.NewProgressTracker(tool.DurationOr(cfg.ProgressTTL, models.DefaultProgressTTL))
	hub := notifyhub.New(cfg.ProgressPushRate)
	notifier := notify.New(cfg.NotifySocket)
	tracker.SetObserver(func(p types.JobProgress) {
		hub.Publish(p)
		notifier.JobFinished(p)
	})

	env := &controllers.Env{
		Config:   cfg,
		Tracker:  tracker,
		Sessions: models.NewSessionRegistry(tool.DurationOr(cfg.SessionTTL, models.DefaultSessionTTL)),
		Ledger:   models.NewDownloadLedger(),
		Packager: packager.New(cfg.ZipMemoryLimitMB * tool.MiB),
		Splitters: map[types.SplitMode]splitter.Splitter{
			types.SplitModeBytes: splitter.NewByteRangeSplitter(cfg.BufferSizeKB * 1024),
			types.SplitModeTime: splitter.NewTimeSegmentSplitter(
				splitter.NewFFprobe(cfg.FFprobePath),
				splitter.NewFFmpeg(cfg.FFmpegPath),
			),
		},
		Notifier: notifier,
	}
	env.Sessions.SetOnSplitRemoved(env.OutputRemoved)
	return &Server{config: cfg, env: env, hub: hub}
}

// Env exposes the shared stores, used by main to wire the sweeper.
func (s *Server) Env() *controllers.Env {
	return s.env
}

// Handler returns the routed engine, building it on first use.
func (s *Server) Handler() http.Handler {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.engine == nil {
		s.engine = s.setupRoutes()
	}
	return s.engine
}

func (s *Server) setupRoutes() *gin.Engine {
	if tool.DefaultLogger.GetLevel() == log.DebugLevel {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	engine.Use(gin.Logger(), gin.Recovery())
	engine.Use(middlewares.Session(s.config.SessionCookie, s.env.Sessions))

	// Initialize controllers
	uploadCtrl := controllers.NewUploadController(s.env)
	processCtrl := controllers.NewProcessController(s.env)
	progressCtrl := controllers.NewProgressController(s.env)
	downloadCtrl := controllers.NewDownloadController(s.env)
	sessionCtrl := controllers.NewSessionController(s.env, indexPage)
	qrCtrl := controllers.NewQRCodeController(s.env)
	statusCtrl := controllers.NewStatusController(s.env)

	engine.GET("/", sessionCtrl.HandleIndex)
	engine.POST("/upload", middlewares.LimitBody(s.config.MaxUploadBytes), uploadCtrl.HandleUpload)
	engine.POST("/process", processCtrl.HandleProcess)
	engine.GET("/progress/:filename", progressCtrl.HandleProgress)
	engine.GET("/progress/:filename/ws", notifyhub.HandleProgressWS(s.hub, progressCtrl.Current))
	download := engine.Group("/download")
	{
		download.GET("/zip/:folder_name", downloadCtrl.HandleDownloadZip)
		download.GET("/separate/:folder_name/:filename", downloadCtrl.HandleDownloadSeparate)
	}
	engine.GET("/qrcode/:folder_name", qrCtrl.HandleFolderQRCode)
	engine.POST("/cleanup", sessionCtrl.HandleCleanup)
	engine.GET("/status", middlewares.OnlyAllowLocal, statusCtrl.HandleStatus)

	return engine
}

// Start starts the HTTP server and blocks until it stops. A graceful Shutdown returns nil.
func (s *Server) Start() error {
	handler := s.Handler()

	s.mu.Lock()
	s.server = &http.Server{
		Addr:    fmt.Sprintf(":%d", s.config.Port),
		Handler: handler,
	}
	srv := s.server
	s.mu.Unlock()

	tool.DefaultLogger.Infof("Starting API server on http://0.0.0.0:%d", s.config.Port)
	if ips := tool.GetLocalIPv4List(); len(ips) > 0 {
		tool.DefaultLogger.Infof("Reachable on the LAN at http://%s:%d", ips[0], s.config.Port)
	}

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting requests and waits for in-flight ones until ctx is done.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.RLock()
	srv := s.server
	s.mu.RUnlock()
	if srv == nil {
		return nil
	}
	return srv.Shutdown(ctx)
}
