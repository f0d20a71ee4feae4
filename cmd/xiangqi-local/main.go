package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/exec"
	"os/signal"
	"runtime"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"xiangqi/internal/config"
	"xiangqi/internal/logging"
	"xiangqi/internal/server/game"
	httpserver "xiangqi/internal/server/http"
)

func openBrowser(url string) {
	var cmd *exec.Cmd

	switch runtime.GOOS {
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	case "darwin":
		cmd = exec.Command("open", url)
	default: // linux / bsd
		cmd = exec.Command("xdg-open", url)
	}

	_ = cmd.Start() // 不阻塞，不关心错误（某些服务器环境可能无图形界面）
}

func main() {
	configPath := flag.String("config", "", "path to config file")
	addr := flag.String("addr", "", "listen address (empty to use config)")
	webDir := flag.String("web", "", "directory with index.html / js / svg (empty to use config)")
	logLevel := flag.String("log-level", "", "debug, info, warn, error (empty to use config)")
	noBrowser := flag.Bool("no-browser", false, "do not open the default browser")
	flag.Parse()

	loader, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	cfg := loader.Config()

	if *addr == "" {
		*addr = cfg.Server.Addr
	}
	if *webDir == "" {
		*webDir = cfg.Server.WebDir
	}
	levelFromFlag := *logLevel != ""
	if !levelFromFlag {
		*logLevel = cfg.Log.Level
	}
	logging.Setup(*logLevel, cfg.Log.Format)

	// 命令行没指定级别时，改配置文件即可热更新日志级别
	if loader.ConfigFileUsed() != "" && !levelFromFlag {
		loader.Watch(func(c config.Config, err error) {
			if err != nil {
				log.Warn().Err(err).Msg("config reload rejected")
				return
			}
			logging.SetLevel(c.Log.Level)
			log.Info().Str("level", c.Log.Level).Msg("log level reloaded")
		})
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	games := game.NewManager(game.WithMaxSessions(cfg.Session.MaxSessions))
	go games.PruneLoop(ctx, cfg.Session.IdleTimeout, cfg.Session.PruneEvery)

	h := httpserver.NewHandler(games)
	srv := &http.Server{
		Addr:              *addr,
		Handler:           httpserver.NewRouter(h, *webDir, cfg.Server.MobileDir),
		ReadHeaderTimeout: 5 * time.Second,
	}

	log.Info().
		Str("addr", *addr).
		Str("web", *webDir).
		Int("max_games", cfg.Session.MaxSessions).
		Msg("listening")

	if cfg.Server.OpenBrowser && !*noBrowser {
		// 延迟 100ms 打开默认浏览器，否则可能服务器未启动完成
		go func() {
			time.Sleep(100 * time.Millisecond)
			host := *addr
			if strings.HasPrefix(host, ":") {
				host = "127.0.0.1" + host
			}
			openBrowser("http://" + host + "/")
		}()
	}

	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()

	select {
	case err := <-errc:
		if !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	case <-ctx.Done():
		log.Info().Msg("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("shutdown failed")
		}
	}
}
