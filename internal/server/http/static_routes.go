package httpserver

import (
	"net/http"
	"strings"
)

const viewCookieName = "xiangqi_view"

const (
	viewDesktop = "web"
	viewMobile  = "mobile"
)

// RegisterStaticRoutes 挂载：
// /web/*        桌面版页面
// /web_mobile/* 手机版页面
// /             按 ?view=、cookie、User-Agent 跳转到其中一个
func RegisterStaticRoutes(mux *http.ServeMux, desktopDir, mobileDir string) {
	if desktopDir == "" {
		desktopDir = "."
	}
	if mobileDir == "" {
		mobileDir = desktopDir
	}

	mux.Handle("/web/", http.StripPrefix("/web/", http.FileServer(http.Dir(desktopDir))))
	mux.Handle("/web_mobile/", http.StripPrefix("/web_mobile/", http.FileServer(http.Dir(mobileDir))))

	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/":
			target := "/web/"
			if pickView(w, r) == viewMobile {
				target = "/web_mobile/"
			}
			w.Header().Set("Vary", "User-Agent, Cookie")
			http.Redirect(w, r, target, http.StatusFound)
		case "/web", "/web_mobile":
			http.Redirect(w, r, r.URL.Path+"/", http.StatusFound)
		default:
			http.NotFound(w, r)
		}
	})
}

// pickView 显式参数优先并记进 cookie，其次 cookie，最后看 UA
func pickView(w http.ResponseWriter, r *http.Request) string {
	if v, ok := parseView(r.URL.Query().Get("view")); ok {
		http.SetCookie(w, &http.Cookie{
			Name:     viewCookieName,
			Value:    v,
			Path:     "/",
			MaxAge:   30 * 24 * 60 * 60,
			SameSite: http.SameSiteLaxMode,
		})
		return v
	}
	if c, err := r.Cookie(viewCookieName); err == nil {
		if v, ok := parseView(c.Value); ok {
			return v
		}
	}
	if isMobileUA(r.UserAgent()) {
		return viewMobile
	}
	return viewDesktop
}

func parseView(v string) (string, bool) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "web", "desktop", "pc":
		return viewDesktop, true
	case "mobile", "m", "phone", "web_mobile":
		return viewMobile, true
	}
	return "", false
}

var mobileUAMarkers = []string{"android", "iphone", "ipad", "ipod", "mobile", "windows phone", "harmony"}

func isMobileUA(ua string) bool {
	ua = strings.ToLower(ua)
	for _, m := range mobileUAMarkers {
		if strings.Contains(ua, m) {
			return true
		}
	}
	return false
}
