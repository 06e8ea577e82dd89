package api

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/qrforge/qrforge/internal/colors"
	"github.com/qrforge/qrforge/internal/contrast"
	"github.com/qrforge/qrforge/internal/metrics"
	"github.com/qrforge/qrforge/internal/render"
	"github.com/qrforge/qrforge/pkg/bytesize"
	"github.com/rs/zerolog"
)

// Output formats accepted by the format parameter.
const (
	FormatPNG     = "png"
	FormatDataURL = "data-url"
)

// Form defaults for the custom endpoint.
const (
	DefaultFillColor = "black"
	DefaultBackColor = "white"
)

// multipartMemory is how much of a multipart body is kept in memory before
// spilling file parts to disk.
const multipartMemory = 8 << 20

// QRCodeResponse is returned when format=data-url.
type QRCodeResponse struct {
	QRCode string `json:"qr_code"`
}

func (s *Server) handleGenerateBasic(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != PathGenerateBasic {
		s.jsonError(w, "not found", http.StatusNotFound)
		return
	}
	if r.Method != http.MethodGet {
		s.jsonError(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	q := r.URL.Query()
	content := q.Get("url")
	if content == "" {
		s.jsonError(w, "url parameter is required", http.StatusBadRequest)
		return
	}

	format, err := parseFormat(q.Get("format"))
	if err != nil {
		s.jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	size := 0
	if v := q.Get("size"); v != "" {
		size, err = strconv.Atoi(v)
		if err != nil || size < 1 || size > s.cfg.Render.MaxBasicSize {
			s.jsonError(w, fmt.Sprintf("size must be an integer between 1 and %d", s.cfg.Render.MaxBasicSize), http.StatusBadRequest)
			return
		}
	}

	timer := prometheus.NewTimer(metrics.RenderDuration.WithLabelValues("generate-basic"))
	png, err := render.Basic(content, size)
	timer.ObserveDuration()
	if err != nil {
		s.renderError(w, r, err)
		return
	}

	s.writeImage(w, png, format)
}

func (s *Server) handleGenerateCustom(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != PathGenerateCustom {
		s.jsonError(w, "not found", http.StatusNotFound)
		return
	}
	if r.Method != http.MethodPost {
		s.jsonError(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if r.ContentLength > s.maxUpload {
		s.jsonError(w, "request body exceeds "+bytesize.Format(s.maxUpload), http.StatusRequestEntityTooLarge)
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUpload)
	if err := s.parseForm(r); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.jsonError(w, "request body exceeds "+bytesize.Format(tooLarge.Limit), http.StatusRequestEntityTooLarge)
			return
		}
		s.jsonError(w, "invalid form data", http.StatusBadRequest)
		return
	}
	if r.MultipartForm != nil {
		defer func() { _ = r.MultipartForm.RemoveAll() }()
	}

	content := r.FormValue("url")
	if content == "" {
		s.jsonError(w, "url field is required", http.StatusBadRequest)
		return
	}

	format, err := parseFormat(r.FormValue("format"))
	if err != nil {
		s.jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	fill, err := colors.Parse(formValueOr(r, "fill_color", DefaultFillColor))
	if err != nil {
		s.colorError(w, r, err)
		return
	}
	back, err := colors.Parse(formValueOr(r, "back_color", DefaultBackColor))
	if err != nil {
		s.colorError(w, r, err)
		return
	}

	if err := s.validator.Check(contrast.FromColor(fill), contrast.FromColor(back)); err != nil {
		s.contrastError(w, r, err)
		return
	}

	style, err := render.ParseModuleStyle(r.FormValue("module_style"))
	if err != nil {
		s.jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	opts := render.DefaultOptions(content)
	opts.Fill = fill
	opts.Background = back
	opts.Style = style
	opts.BoxSize = s.cfg.Render.BoxSize
	opts.Border = s.cfg.Render.Border
	opts.LogoScale = s.cfg.Render.LogoScale

	file, _, err := r.FormFile("logo_file")
	switch {
	case errors.Is(err, http.ErrMissingFile), errors.Is(err, http.ErrNotMultipart):
	case err != nil:
		s.jsonError(w, "invalid logo_file", http.StatusBadRequest)
		return
	default:
		logo, err := render.DecodeLogo(file)
		_ = file.Close()
		if err != nil {
			zerolog.Ctx(r.Context()).Debug().Err(err).Msg("logo rejected")
			s.jsonError(w, "logo_file is not a supported image", http.StatusBadRequest)
			return
		}
		opts.Logo = logo
	}

	timer := prometheus.NewTimer(metrics.RenderDuration.WithLabelValues("generate-custom"))
	img, err := render.Render(opts)
	if err != nil {
		timer.ObserveDuration()
		s.renderError(w, r, err)
		return
	}

	var buf bytes.Buffer
	err = render.EncodePNG(&buf, img)
	timer.ObserveDuration()
	if err != nil {
		s.renderError(w, r, err)
		return
	}

	s.writeImage(w, buf.Bytes(), format)
}

// parseForm accepts multipart bodies and, for clients that send no logo,
// urlencoded ones.
func (s *Server) parseForm(r *http.Request) error {
	err := r.ParseMultipartForm(min(s.maxUpload, multipartMemory))
	if errors.Is(err, http.ErrNotMultipart) {
		return r.ParseForm()
	}
	return err
}

func formValueOr(r *http.Request, key, def string) string {
	if v := strings.TrimSpace(r.FormValue(key)); v != "" {
		return v
	}
	return def
}

func parseFormat(v string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "", FormatPNG:
		return FormatPNG, nil
	case FormatDataURL:
		return FormatDataURL, nil
	default:
		return "", fmt.Errorf("unknown format %q (want %s or %s)", v, FormatPNG, FormatDataURL)
	}
}

func (s *Server) writeImage(w http.ResponseWriter, png []byte, format string) {
	if format == FormatDataURL {
		s.writeJSON(w, http.StatusOK, QRCodeResponse{QRCode: render.DataURL(png)})
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Length", strconv.Itoa(len(png)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(png)
}

func (s *Server) colorError(w http.ResponseWriter, r *http.Request, err error) {
	zerolog.Ctx(r.Context()).Debug().Err(err).Msg("color rejected")
	s.writeJSON(w, http.StatusBadRequest, ErrorResponse{
		Error: "invalid color name provided",
		Kind:  "invalid_color",
	})
}

func (s *Server) contrastError(w http.ResponseWriter, r *http.Request, err error) {
	var cerr *contrast.Error
	if !errors.As(err, &cerr) {
		s.jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	metrics.ContrastRejections.WithLabelValues(cerr.Kind.String()).Inc()
	zerolog.Ctx(r.Context()).Debug().
		Str("kind", cerr.Kind.String()).
		Float64("ratio", cerr.Ratio).
		Float64("min_ratio", cerr.MinRatio).
		Msg("contrast rejected")

	s.writeJSON(w, http.StatusBadRequest, ErrorResponse{
		Error:    cerr.Error(),
		Kind:     cerr.Kind.String(),
		Ratio:    cerr.RoundedRatio(),
		MinRatio: cerr.MinRatio,
	})
}

func (s *Server) renderError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, render.ErrEmptyContent), errors.Is(err, render.ErrEncode):
		s.jsonError(w, err.Error(), http.StatusBadRequest)
	default:
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("render failed")
		s.jsonError(w, "failed to generate QR code", http.StatusInternalServerError)
	}
}
