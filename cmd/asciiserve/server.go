package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/klauspost/compress/gzhttp"

	"github.com/wbrown/img2ascii"
	"github.com/wbrown/img2ascii/imageutil"
)

// uploadField is the multipart field the front end sends the file in.
const uploadField = "file"

var errBadRequest = errors.New("bad request")

// Server holds the shared, read-only parts of the conversion pipeline.
// Everything request specific is built per request.
type Server struct {
	cfg        Config
	log        *slog.Logger
	rasterizer *img2ascii.Rasterizer
}

// NewServer resolves the render font once for all requests.
func NewServer(cfg Config, logger *slog.Logger) (*Server, error) {
	if cfg.MaxCells < 0 {
		return nil, fmt.Errorf("max cells must not be negative, got %d", cfg.MaxCells)
	}
	if cfg.MaxCells == 0 {
		cfg.MaxCells = img2ascii.DefaultMaxCells
	}
	r, err := img2ascii.NewRasterizer(
		img2ascii.WithFontSize(cfg.FontSize),
		img2ascii.WithFonts(cfg.Fonts...),
	)
	if err != nil {
		return nil, err
	}
	return &Server{cfg: cfg, log: logger, rasterizer: r}, nil
}

// Handler returns the routed handler wrapped in request logging, CORS,
// response compression and the processing timeout.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleRoot)
	mux.HandleFunc("GET /api/health", s.handleHealth)
	mux.HandleFunc("POST /api/process-image", s.handleProcessImage)
	mux.HandleFunc("POST /api/render", s.handleRender)
	mux.HandleFunc("POST /api/animate", s.handleAnimate)
	mux.HandleFunc("GET /api/download-ascii", s.handleDownload)
	mux.HandleFunc("POST /api/download-ascii", s.handleDownload)

	var h http.Handler = mux
	if s.cfg.Timeout > 0 {
		h = http.TimeoutHandler(h, s.cfg.Timeout, `{"detail":"processing timed out"}`)
	}
	return s.logRequests(s.cors(gzhttp.GzipHandler(h)))
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"message": "img2ascii is working!"})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "service": "img2ascii"})
}

func (s *Server) handleProcessImage(w http.ResponseWriter, r *http.Request) {
	data, err := s.readUpload(w, r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	p, err := s.pipeline(r, false)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	scratch, err := img2ascii.NewScratch(s.cfg.ScratchDir)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	defer scratch.Close()

	conv, err := p.Convert(data, scratch)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, conv.Document())
}

func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, img2ascii.FormatPNG)
}

func (s *Server) handleAnimate(w http.ResponseWriter, r *http.Request) {
	format := img2ascii.FormatGIF
	if name := r.URL.Query().Get("format"); name != "" {
		f, err := img2ascii.ParseFormat(name)
		if err != nil {
			s.fail(w, r, err)
			return
		}
		if f != img2ascii.FormatGIF && f != img2ascii.FormatMP4 {
			s.fail(w, r, fmt.Errorf("%w: animate produces gif or mp4, not %s", errBadRequest, f))
			return
		}
		format = f
	}
	s.render(w, r, format)
}

func (s *Server) render(w http.ResponseWriter, r *http.Request, format img2ascii.Format) {
	data, err := s.readUpload(w, r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	p, err := s.pipeline(r, true)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	scratch, err := img2ascii.NewScratch(s.cfg.ScratchDir)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	defer scratch.Close()

	out, err := p.Render(data, format, scratch)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	h := w.Header()
	h.Set("Content-Type", format.ContentType())
	h.Set("Content-Length", strconv.Itoa(len(out.Data)))
	h.Set("X-Frame-Count", strconv.Itoa(out.Frames))
	h.Set("X-Frame-Rate", strconv.FormatFloat(out.FrameRate, 'f', -1, 64))
	w.WriteHeader(http.StatusOK)
	w.Write(out.Data)
}

func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	text := r.FormValue("text")
	if text == "" {
		s.fail(w, r, fmt.Errorf("%w: text is required", errBadRequest))
		return
	}
	h := w.Header()
	h.Set("Content-Type", img2ascii.FormatText.ContentType())
	h.Set("Content-Disposition", `attachment; filename="ascii-art.txt"`)
	io.WriteString(w, text)
}

// readUpload returns the uploaded file. Multipart requests carry it in the
// "file" field; anything else is taken as the raw body.
func (s *Server) readUpload(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	if s.cfg.MaxUpload > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUpload)
	}
	if !strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/") {
		return io.ReadAll(r.Body)
	}

	file, _, err := r.FormFile(uploadField)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: missing %q upload: %v", errBadRequest, uploadField, err)
	}
	defer file.Close()
	return io.ReadAll(file)
}

// pipeline builds the per request pipeline from query parameters.
func (s *Server) pipeline(r *http.Request, raster bool) (*img2ascii.Pipeline, error) {
	opts, err := samplerOptions(r)
	if err != nil {
		return nil, err
	}
	opts = append(opts, img2ascii.WithMaxCells(s.cfg.MaxCells))
	sampler, err := img2ascii.NewSampler(opts...)
	if err != nil {
		return nil, err
	}
	p := &img2ascii.Pipeline{
		Sampler:   sampler,
		Workers:   s.cfg.Workers,
		MaxFrames: s.cfg.MaxFrames,
	}
	if !raster {
		return p, nil
	}

	p.Rasterizer = s.rasterizer
	delay := img2ascii.DefaultDelay
	if v := r.URL.Query().Get("delay"); v != "" {
		ms, err := strconv.Atoi(v)
		if err != nil || ms <= 0 {
			return nil, fmt.Errorf("%w: delay must be a positive number of milliseconds", errBadRequest)
		}
		delay = time.Duration(ms) * time.Millisecond
	}
	p.Assembler = img2ascii.NewAssembler(s.rasterizer, img2ascii.WithDelay(delay))
	return p, nil
}

func samplerOptions(r *http.Request) ([]img2ascii.SamplerOption, error) {
	q := r.URL.Query()
	var opts []img2ascii.SamplerOption

	ints := []struct {
		name string
		set  func(int) img2ascii.SamplerOption
	}{
		{"width", img2ascii.WithWidth},
		{"height", img2ascii.WithHeight},
	}
	for _, p := range ints {
		if v := q.Get(p.name); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				return nil, fmt.Errorf("%w: %s must be an integer", errBadRequest, p.name)
			}
			opts = append(opts, p.set(n))
		}
	}
	if mw, mh := q.Get("max_width"), q.Get("max_height"); mw != "" || mh != "" {
		w, err1 := strconv.Atoi(mw)
		h, err2 := strconv.Atoi(mh)
		if err1 != nil || err2 != nil {
			return nil, fmt.Errorf("%w: max_width and max_height must both be integers", errBadRequest)
		}
		opts = append(opts, img2ascii.WithBounds(w, h))
	}

	switch {
	case q.Get("chars") != "":
		ramp, err := img2ascii.NewRamp(q.Get("chars"))
		if err != nil {
			return nil, err
		}
		opts = append(opts, img2ascii.WithRamp(ramp))
	case q.Get("ramp") != "":
		ramp, err := img2ascii.LookupRamp(q.Get("ramp"))
		if err != nil {
			return nil, err
		}
		opts = append(opts, img2ascii.WithRamp(ramp))
	}
	if v := q.Get("resampler"); v != "" {
		res, err := imageutil.ParseResampler(v)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", errBadRequest, err)
		}
		opts = append(opts, img2ascii.WithResampler(res))
	}
	flags := []struct {
		name string
		set  func(bool) img2ascii.SamplerOption
	}{
		{"invert", img2ascii.WithInvert},
		{"sharpen", img2ascii.WithSharpen},
		{"edges", img2ascii.WithEdges},
	}
	for _, f := range flags {
		if v := q.Get(f.name); v != "" {
			on, err := strconv.ParseBool(v)
			if err != nil {
				return nil, fmt.Errorf("%w: %s must be a boolean", errBadRequest, f.name)
			}
			opts = append(opts, f.set(on))
		}
	}
	return opts, nil
}

// statusFor maps pipeline errors onto HTTP status codes.
func statusFor(err error) int {
	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &tooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, img2ascii.ErrDecode),
		errors.Is(err, img2ascii.ErrUnsupportedConfig),
		errors.Is(err, errBadRequest):
		return http.StatusBadRequest
	case errors.Is(err, img2ascii.ErrEmptyInput):
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	level := slog.LevelInfo
	if status >= http.StatusInternalServerError {
		level = slog.LevelError
	}
	s.log.Log(r.Context(), level, "request failed",
		"path", r.URL.Path, "status", status, "error", err)
	writeJSON(w, status, map[string]string{"detail": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// cors answers preflight requests and tags responses for allowed origins.
func (s *Server) cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin != "" && slices.Contains(s.cfg.Origins, origin) {
			h := w.Header()
			h.Set("Access-Control-Allow-Origin", origin)
			h.Set("Access-Control-Allow-Credentials", "true")
			h.Set("Access-Control-Expose-Headers", "Content-Disposition, X-Frame-Count, X-Frame-Rate")
			h.Add("Vary", "Origin")
			if r.Method == http.MethodOptions {
				h.Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
				if req := r.Header.Get("Access-Control-Request-Headers"); req != "" {
					h.Set("Access-Control-Allow-Headers", req)
				}
				h.Set("Access-Control-Max-Age", "600")
				w.WriteHeader(http.StatusNoContent)
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (rec *statusRecorder) WriteHeader(status int) {
	rec.status = status
	rec.ResponseWriter.WriteHeader(status)
}

func (rec *statusRecorder) Write(b []byte) (int, error) {
	if rec.status == 0 {
		rec.status = http.StatusOK
	}
	n, err := rec.ResponseWriter.Write(b)
	rec.bytes += n
	return n, err
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		begin := time.Now()
		rec := &statusRecorder{ResponseWriter: w}
		next.ServeHTTP(rec, r)
		if rec.status == 0 {
			rec.status = http.StatusOK
		}
		s.log.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"bytes", rec.bytes,
			"duration", time.Since(begin))
	})
}
