package httpapi

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	json "github.com/goccy/go-json"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"llmcore/internal/engine"
	"llmcore/pkg/types"
)

// Service defines the methods required by the HTTP API layer.
// *manager.Manager implements it.
type Service interface {
	Ready() bool
	System() types.SystemInfo
	Refresh() error
	ListModels() types.ModelsResponse
	LoadModel(req types.LoadRequest) (types.ModelInfo, error)
	Lookup(ref string) (engine.Handle, error)
	Info(h engine.Handle) (types.ModelInfo, error)
	Unload(h engine.Handle) error
	Tokenize(ctx context.Context, h engine.Handle, req types.TokenizeRequest) (types.TokenizeResponse, error)
	Detokenize(ctx context.Context, h engine.Handle, req types.DetokenizeRequest) (types.DetokenizeResponse, error)
	Generate(ctx context.Context, h engine.Handle, req types.GenerateRequest) (types.GenerateResponse, error)
	GenerateStream(ctx context.Context, h engine.Handle, req types.GenerateRequest, sink func(types.StreamChunk) bool) error
	Embed(ctx context.Context, h engine.Handle, req types.EmbedRequest) (types.EmbedResponse, error)
}

func NewMux(svc Service) http.Handler {
	r := chi.NewRouter()
	// Basic middlewares: request id, real ip, recoverer
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(MetricsMiddleware)
	if corsEnabled {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: corsAllowedOrigins,
			AllowedMethods: corsAllowedMethods,
			AllowedHeaders: corsAllowedHeaders,
			MaxAge:         300,
		}))
	}
	// Security headers
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Content-Type-Options", "nosniff")
			next.ServeHTTP(w, r)
		})
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if svc.Ready() {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("ready"))
			return
		}
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("loading"))
	})

	// Prometheus metrics endpoint
	r.Get("/metrics", promhttp.Handler().ServeHTTP)
	MountSwagger(r)

	// Everything below may be compressed; /metrics negotiates its own encoding.
	r.Group(func(r chi.Router) {
		r.Use(middleware.Compress(5, "application/json"))

		r.Get("/system", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, svc.System())
		})

		r.Get("/models", func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Query().Get("refresh") != "" {
				if err := svc.Refresh(); err != nil {
					writeError(w, err)
					return
				}
			}
			writeJSON(w, http.StatusOK, svc.ListModels())
		})

		r.Post("/models", func(w http.ResponseWriter, r *http.Request) {
			var req types.LoadRequest
			if !decodeJSON(w, r, &req) {
				return
			}
			if err := req.Validate(); err != nil {
				writeJSONError(w, http.StatusBadRequest, err.Error())
				return
			}
			rl := startRequestLog(r, "load", req.ID+req.Path)
			info, err := svc.LoadModel(req)
			if err != nil {
				rl.end(writeError(w, err), err)
				return
			}
			writeJSON(w, http.StatusCreated, info)
			rl.end(http.StatusCreated, nil)
		})

		r.Route("/models/{ref}", func(r chi.Router) {
			r.Get("/", withHandle(svc, func(w http.ResponseWriter, r *http.Request, h engine.Handle) {
				info, err := svc.Info(h)
				if err != nil {
					writeError(w, err)
					return
				}
				writeJSON(w, http.StatusOK, info)
			}))

			r.Delete("/", withHandle(svc, func(w http.ResponseWriter, r *http.Request, h engine.Handle) {
				rl := startRequestLog(r, "unload", h.String())
				if err := svc.Unload(h); err != nil {
					rl.end(writeError(w, err), err)
					return
				}
				w.WriteHeader(http.StatusNoContent)
				rl.end(http.StatusNoContent, nil)
			}))

			r.Post("/tokenize", withHandle(svc, func(w http.ResponseWriter, r *http.Request, h engine.Handle) {
				var req types.TokenizeRequest
				if !decodeValid(w, r, &req) {
					return
				}
				ctx, cancel := workContext(r, false)
				defer cancel()
				res, err := svc.Tokenize(ctx, h, req)
				respond(w, r, res, err)
			}))

			r.Post("/detokenize", withHandle(svc, func(w http.ResponseWriter, r *http.Request, h engine.Handle) {
				var req types.DetokenizeRequest
				if !decodeValid(w, r, &req) {
					return
				}
				ctx, cancel := workContext(r, false)
				defer cancel()
				res, err := svc.Detokenize(ctx, h, req)
				respond(w, r, res, err)
			}))

			r.Post("/embed", withHandle(svc, func(w http.ResponseWriter, r *http.Request, h engine.Handle) {
				var req types.EmbedRequest
				if !decodeValid(w, r, &req) {
					return
				}
				ctx, cancel := workContext(r, false)
				defer cancel()
				res, err := svc.Embed(ctx, h, req)
				respond(w, r, res, err)
			}))

			r.Post("/generate", withHandle(svc, func(w http.ResponseWriter, r *http.Request, h engine.Handle) {
				var req types.GenerateRequest
				if !decodeValid(w, r, &req) {
					return
				}
				rl := startRequestLog(r, "generate", h.String())
				ctx, cancel := workContext(r, true)
				defer cancel()
				if req.Stream {
					status, err := streamGenerate(ctx, w, r, svc, h, req, rl.lvl >= LevelDebug)
					rl.end(status, err)
					return
				}
				res, err := svc.Generate(ctx, h, req)
				if err != nil {
					if abandoned(r) {
						rl.end(499, err)
						return
					}
					rl.end(writeError(w, err), err)
					return
				}
				writeJSON(w, http.StatusOK, res)
				rl.end(http.StatusOK, nil)
			}))
		})
	})

	return r
}

// withHandle resolves the {ref} URL parameter (a handle or the id of a loaded
// model) before calling next.
func withHandle(svc Service, next func(http.ResponseWriter, *http.Request, engine.Handle)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h, err := svc.Lookup(chi.URLParam(r, "ref"))
		if err != nil {
			writeError(w, err)
			return
		}
		next(w, r, h)
	}
}

// streamWriter emits NDJSON chunks. The final chunk is held back until the
// service returns so a terminal error can be attached to it.
type streamWriter struct {
	w       http.ResponseWriter
	enc     *json.Encoder
	flush   func()
	started bool
	final   *types.StreamChunk
}

func (sw *streamWriter) write(c types.StreamChunk) bool {
	if c.Final {
		sw.final = &c
		return true
	}
	if !sw.started {
		sw.w.Header().Set("Content-Type", "application/x-ndjson")
		sw.w.WriteHeader(http.StatusOK)
		sw.started = true
	}
	if err := sw.enc.Encode(c); err != nil {
		return false // client gone; generation stops
	}
	streamedChunksTotal.Inc()
	if sw.flush != nil {
		sw.flush()
	}
	return true
}

// streamGenerate writes a streaming generate response and returns the status
// it produced together with the service error.
func streamGenerate(ctx context.Context, w http.ResponseWriter, r *http.Request, svc Service, h engine.Handle, req types.GenerateRequest, logChunks bool) (int, error) {
	var out io.Writer = w
	if logChunks {
		out = io.MultiWriter(w, &loggingLineWriter{rid: middleware.GetReqID(r.Context())})
	}
	sw := &streamWriter{w: w, enc: json.NewEncoder(out)}
	if f, ok := w.(http.Flusher); ok {
		sw.flush = f.Flush
	}
	err := svc.GenerateStream(ctx, h, req, sw.write)
	if abandoned(r) {
		return 499, err
	}
	if sw.final == nil {
		// Nothing was generated: report the failure as a plain JSON error.
		if err == nil {
			err = errors.New("stream ended without a final chunk")
		}
		if !sw.started {
			return writeError(w, err), err
		}
		sw.final = &types.StreamChunk{Final: true, FinishReason: engine.FinishError.String()}
	}
	if err != nil {
		sw.final.Error = err.Error()
	}
	if !sw.started {
		sw.w.Header().Set("Content-Type", "application/x-ndjson")
		sw.started = true
	}
	_ = sw.enc.Encode(sw.final)
	streamedChunksTotal.Inc()
	if sw.flush != nil {
		sw.flush()
	}
	return http.StatusOK, err
}

type validator interface{ Validate() error }

// decodeJSON enforces the content type and body limit and decodes into v.
// It writes the error response and returns false on failure.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	ct := r.Header.Get("Content-Type")
	if ct == "" || !strings.HasPrefix(strings.ToLower(ct), "application/json") {
		writeJSONError(w, http.StatusUnsupportedMediaType, "Content-Type must be application/json")
		return false
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		// Oversized bodies also land here; 400 avoids leaking size details.
		writeJSONError(w, http.StatusBadRequest, "invalid JSON body")
		return false
	}
	return true
}

func decodeValid(w http.ResponseWriter, r *http.Request, v validator) bool {
	if !decodeJSON(w, r, v) {
		return false
	}
	if err := v.Validate(); err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return false
	}
	return true
}

func respond(w http.ResponseWriter, r *http.Request, v any, err error) {
	if err != nil {
		if !abandoned(r) {
			writeError(w, err)
		}
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
