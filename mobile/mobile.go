// Package mobile 供 gomobile bind 使用：在 App 进程里起本地 HTTP 服务，页面用 WebView 打开。
package mobile

import (
	"errors"
	"net"
	"net/http"
	"sync"

	"github.com/rs/zerolog/log"

	"xiangqi/internal/logging"
	"xiangqi/internal/server/game"
	httpserver "xiangqi/internal/server/http"
)

var (
	mu  sync.Mutex
	srv *http.Server
)

// StartServer 在 127.0.0.1:port 后台启动服务，不阻塞 UI 线程。
// webDir 是解压后的页面目录；重复调用时先停掉旧的服务。返回实际监听地址。
func StartServer(webDir string, port string) (string, error) {
	mu.Lock()
	defer mu.Unlock()

	if srv != nil {
		_ = srv.Close()
		srv = nil
	}

	logging.Setup("info", "console")

	ln, err := net.Listen("tcp", "127.0.0.1:"+port)
	if err != nil {
		return "", err
	}

	h := httpserver.NewHandler(game.NewManager(game.WithMaxSessions(8)))
	s := &http.Server{Handler: httpserver.NewRouter(h, webDir, webDir)}
	srv = s

	go func() {
		if err := s.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("mobile server stopped")
		}
	}()
	log.Info().Str("addr", ln.Addr().String()).Str("web", webDir).Msg("mobile server started")
	return ln.Addr().String(), nil
}

// StopServer 停止 StartServer 启动的服务
func StopServer() {
	mu.Lock()
	defer mu.Unlock()
	if srv != nil {
		_ = srv.Close()
		srv = nil
	}
}
