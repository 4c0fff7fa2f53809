// 包 logger：HTTP 访问日志中间件；按状态码分级，记录命中的路由模式与轨迹上传格式
package logger

import (
	"context"
	"log/slog"
	"net/http"
	"time"
)

// statusWriter：包装 ResponseWriter 以捕获状态码与写出字节数
type statusWriter struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusWriter) Write(b []byte) (int, error) {
	n, err := w.ResponseWriter.Write(b)
	w.bytes += n
	return n, err
}

// accessLevel 5xx 记 Error；429 与其它 4xx 记 Info；其余记 Debug
func accessLevel(status int) slog.Level {
	switch {
	case status >= 500:
		return slog.LevelError
	case status >= 400:
		return slog.LevelInfo
	}
	return slog.LevelDebug
}

// AccessMiddleware：生成访问日志中间件
// 约束：不读取请求体；轨迹上传体积可能较大，仅记录请求声明的 Content-Length 与 format 参数。
// pattern 为外层 ServeMux 命中的挂载模式（如 /api/、/api/metrics），未命中时为空。
func AccessMiddleware(l *slog.Logger) func(http.Handler) http.Handler {
	l = l.With("component", "http")
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
			start := time.Now()
			next.ServeHTTP(sw, r)
			attrs := []slog.Attr{
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.String("pattern", r.Pattern),
				slog.Int("status", sw.status),
				slog.Int64("req_bytes", r.ContentLength),
				slog.Int("bytes", sw.bytes),
				slog.Int64("duration_ms", time.Since(start).Milliseconds()),
				slog.String("ip", r.RemoteAddr),
			}
			if f := r.URL.Query().Get("format"); f != "" {
				attrs = append(attrs, slog.String("track_format", f))
			}
			l.LogAttrs(context.Background(), accessLevel(sw.status), "http_access", attrs...)
		})
	}
}
