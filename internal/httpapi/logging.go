package httpapi

import (
	"bytes"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

// zlog is an optional structured logger. If unset, falls back to log.Printf.
var zlog *zerolog.Logger

// SetLogger installs a structured logger used by the HTTP layer.
func SetLogger(l zerolog.Logger) { zlog = &l }

// loggingLineWriter logs complete NDJSON lines of a streaming response.
type loggingLineWriter struct {
	rid string
	buf []byte
}

func (lw *loggingLineWriter) Write(p []byte) (int, error) {
	lw.buf = append(lw.buf, p...)
	for {
		idx := bytes.IndexByte(lw.buf, '\n')
		if idx < 0 {
			break
		}
		line := string(lw.buf[:idx])
		if len(line) > 0 {
			if zlog != nil {
				zlog.Debug().Str("request_id", lw.rid).RawJSON("chunk", []byte(line)).Msg("stream>")
			} else {
				log.Printf("stream> %s", line)
			}
		}
		lw.buf = lw.buf[idx+1:]
	}
	return len(p), nil
}

// LogLevel controls per-request logging behavior.
type LogLevel int

const (
	LevelOff LogLevel = iota
	LevelError
	LevelInfo
	LevelDebug
)

func parseLevel(s string) LogLevel {
	switch s {
	case "off", "":
		return LevelOff
	case "error", "warn":
		return LevelError
	case "info":
		return LevelInfo
	case "debug", "trace":
		return LevelDebug
	default:
		return LevelInfo
	}
}

var defaultLogLevel = LevelInfo

// SetRequestLogLevel sets the default per-request log level (off, error,
// info, debug). Debug also logs every streamed chunk.
func SetRequestLogLevel(s string) { defaultLogLevel = parseLevel(s) }

func requestLogLevel(r *http.Request) LogLevel {
	// Per-request overrides
	if v := r.URL.Query().Get("log"); v != "" {
		if v == "1" {
			return LevelDebug
		}
		return parseLevel(v)
	}
	if v := r.Header.Get("X-Log-Level"); v != "" {
		return parseLevel(v)
	}
	return defaultLogLevel
}

// requestLog records the start and end of one model request.
type requestLog struct {
	lvl   LogLevel
	rid   string
	op    string
	ref   string
	start time.Time
}

func startRequestLog(r *http.Request, op, ref string) *requestLog {
	rl := &requestLog{lvl: requestLogLevel(r), rid: middleware.GetReqID(r.Context()), op: op, ref: ref, start: time.Now()}
	if rl.lvl >= LevelInfo {
		if zlog != nil {
			zlog.Info().Str("op", op).Str("model", ref).Str("request_id", rl.rid).Msg("request start")
		} else {
			log.Printf("%s start model=%s", op, ref)
		}
	}
	return rl
}

// end logs the outcome. Failures are logged from LevelError upwards,
// successes from LevelInfo.
func (rl *requestLog) end(status int, err error) {
	if rl.lvl < LevelError || (err == nil && rl.lvl < LevelInfo) {
		return
	}
	dur := time.Since(rl.start)
	if zlog == nil {
		log.Printf("%s end status=%d dur=%s err=%v", rl.op, status, dur, err)
		return
	}
	ev := zlog.Info()
	if err != nil {
		ev = zlog.Warn().Err(err)
	}
	ev.Str("op", rl.op).Str("model", rl.ref).Str("request_id", rl.rid).Int("status", status).Dur("dur", dur).Msg("request end")
}
