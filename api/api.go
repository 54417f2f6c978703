// Package api implements the control plane (spec component C10): an
// echo/v4 HTTP server exposing start/stop/status per engine slot plus
// the publisher's sync endpoints.
package api

import (
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/r8k/webgraph/adapters"
	"github.com/r8k/webgraph/config"
	"github.com/r8k/webgraph/crawler"
	"github.com/r8k/webgraph/publisher"
	"github.com/r8k/webgraph/supervisor"
	"github.com/r8k/webgraph/tree"
)

// Version is the build version reported by GET /api/version.
const Version = "1.0.0"

// Handler wires the control plane onto the supervisor and publisher.
type Handler struct {
	Supervisor *supervisor.Supervisor
	Publisher  *publisher.Publisher
	Config     config.Config
	Log        zerolog.Logger
}

// NewHandler constructs a Handler over the given collaborators.
func NewHandler(sup *supervisor.Supervisor, pub *publisher.Publisher, cfg config.Config, log zerolog.Logger) *Handler {
	return &Handler{Supervisor: sup, Publisher: pub, Config: cfg, Log: log}
}

// Register mounts every control-plane route onto e.
func (h *Handler) Register(e *echo.Echo) {
	e.POST("/api/start", h.StartHTTP)
	e.POST("/api/stop", h.StopHTTP)
	e.POST("/api/toc/start", h.StartTOC)
	e.POST("/api/toc/stop", h.StopTOC)
	e.POST("/api/onionsearch/start", h.StartOnionSearch)
	e.POST("/api/onionsearch/stop", h.StopOnionSearch)
	e.POST("/api/torbot/start", h.StartTorBot)
	e.POST("/api/torbot/stop", h.StopTorBot)
	e.GET("/api/status", h.Status)
	e.GET("/api/torbot/progress", h.TorBotProgress)
	e.GET("/api/sync/status", h.SyncStatus)
	e.POST("/api/sync/force", h.SyncForce)
	e.GET("/api/version", h.VersionHandler)
	e.GET("/api/healthz", h.Healthz)
}

// envelope is every response's minimum shape: {success, error?}.
type envelope map[string]interface{}

func ok(extra envelope) envelope {
	e := envelope{"success": true}
	for k, v := range extra {
		e[k] = v
	}
	return e
}

func fail(err string) envelope {
	return envelope{"success": false, "error": err}
}

func busyOrErr(err error) string {
	if err == supervisor.ErrBusy {
		return "busy"
	}
	return err.Error()
}

func engineTimeout(eng config.SubprocessEngine) time.Duration {
	if eng.Timeout <= 0 {
		return 0 // supervisor.RunSubprocess applies its own default
	}
	return time.Duration(eng.Timeout) * time.Second
}

// --- HTTP crawler slot --------------------------------------------------

type startHTTPRequest struct {
	URL             string `json:"url"`
	MaxDepth        int    `json:"max_depth,omitempty"`
	MaxLinksPerPage int    `json:"max_links_per_page,omitempty"`
	Progressive     bool   `json:"progressive,omitempty"`
}

// StartHTTP handles POST /api/start.
func (h *Handler) StartHTTP(c echo.Context) error {
	var req startHTTPRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, fail("invalid request body"))
	}
	if req.URL == "" {
		return c.JSON(http.StatusBadRequest, fail("url is required"))
	}
	if _, err := url.ParseRequestURI(req.URL); err != nil {
		return c.JSON(http.StatusBadRequest, fail("url is invalid"))
	}

	cfg := h.Config.Crawl
	if req.MaxDepth > 0 {
		cfg.MaxDepth = req.MaxDepth
	}
	if req.MaxLinksPerPage > 0 {
		cfg.MaxLinksPerPage = req.MaxLinksPerPage
	}
	cfg.Progressive = req.Progressive
	cfg = cfg.Normalize()

	sched := crawler.NewScheduler(http.DefaultClient, h.Log)
	run := h.Supervisor.RunHTTPCrawl(sched, req.URL, cfg)

	if err := h.Supervisor.Start(supervisor.SlotHTTP, run); err != nil {
		return c.JSON(http.StatusBadRequest, fail(busyOrErr(err)))
	}
	return c.JSON(http.StatusOK, ok(nil))
}

// StopHTTP handles POST /api/stop.
func (h *Handler) StopHTTP(c echo.Context) error {
	if err := h.Supervisor.Stop(supervisor.SlotHTTP); err != nil {
		return c.JSON(http.StatusBadRequest, fail(err.Error()))
	}
	return c.JSON(http.StatusOK, ok(nil))
}

// --- TOC slot ------------------------------------------------------------

type startTOCRequest struct {
	URL       string `json:"url"`
	SocksHost string `json:"socks_host,omitempty"`
	SocksPort int    `json:"socks_port,omitempty"`
}

// StartTOC handles POST /api/toc/start.
func (h *Handler) StartTOC(c echo.Context) error {
	var req startTOCRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, fail("invalid request body"))
	}
	if req.URL == "" {
		return c.JSON(http.StatusBadRequest, fail("url is required"))
	}

	engineCfg := h.Config.Engines["toc"]
	artifactPath := filepath.Join(os.TempDir(), "webgraph-toc-artifact.json")

	run := h.Supervisor.RunSubprocess(supervisor.SubprocessEngine{
		Name:    "toc",
		Path:    engineCfg.Path,
		WorkDir: engineCfg.WorkDir,
		Args:    tocArgs(req, h.Config.Tor, artifactPath),
		Timeout: engineTimeout(engineCfg),
		ArtifactOf: func() (string, error) {
			if _, err := os.Stat(artifactPath); err != nil {
				return "", err
			}
			return artifactPath, nil
		},
		Adapt: func(path string) (*tree.Node, error) {
			data, err := os.ReadFile(path)
			if err != nil {
				return nil, err
			}
			fn, err := adapters.ParseRecursiveTree(data)
			if err != nil {
				return nil, err
			}
			return adapters.RecursiveTree(fn), nil
		},
	})

	if err := h.Supervisor.Start(supervisor.SlotTOC, run); err != nil {
		return c.JSON(http.StatusBadRequest, fail(busyOrErr(err)))
	}
	return c.JSON(http.StatusOK, ok(nil))
}

// StopTOC handles POST /api/toc/stop.
func (h *Handler) StopTOC(c echo.Context) error {
	if err := h.Supervisor.Stop(supervisor.SlotTOC); err != nil {
		return c.JSON(http.StatusBadRequest, fail(err.Error()))
	}
	return c.JSON(http.StatusOK, ok(nil))
}

// --- OnionSearch slot ------------------------------------------------------

type startOnionSearchRequest struct {
	Query   string   `json:"query"`
	Engines []string `json:"engines,omitempty"`
	Limit   int      `json:"limit,omitempty"`
}

// StartOnionSearch handles POST /api/onionsearch/start.
func (h *Handler) StartOnionSearch(c echo.Context) error {
	var req startOnionSearchRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, fail("invalid request body"))
	}
	if req.Query == "" {
		return c.JSON(http.StatusBadRequest, fail("query is required"))
	}

	engineCfg := h.Config.Engines["onionsearch"]
	artifactPath := filepath.Join(os.TempDir(), "webgraph-onionsearch-artifact.csv")

	run := h.Supervisor.RunSubprocess(supervisor.SubprocessEngine{
		Name:    "onionsearch",
		Path:    engineCfg.Path,
		WorkDir: engineCfg.WorkDir,
		Args:    onionsearchArgs(req, artifactPath),
		Timeout: engineTimeout(engineCfg),
		ArtifactOf: func() (string, error) {
			if _, err := os.Stat(artifactPath); err != nil {
				return "", err
			}
			return artifactPath, nil
		},
		Adapt: func(path string) (*tree.Node, error) {
			f, err := os.Open(path)
			if err != nil {
				return nil, err
			}
			defer f.Close()
			rows, err := adapters.ParseSearchCSV(f)
			if err != nil {
				return nil, err
			}
			return adapters.SearchTree(req.Query, rows), nil
		},
	})

	if err := h.Supervisor.Start(supervisor.SlotOnionSearch, run); err != nil {
		return c.JSON(http.StatusBadRequest, fail(busyOrErr(err)))
	}
	return c.JSON(http.StatusOK, ok(nil))
}

// StopOnionSearch handles POST /api/onionsearch/stop.
func (h *Handler) StopOnionSearch(c echo.Context) error {
	if err := h.Supervisor.Stop(supervisor.SlotOnionSearch); err != nil {
		return c.JSON(http.StatusBadRequest, fail(err.Error()))
	}
	return c.JSON(http.StatusOK, ok(nil))
}

// --- TorBot slot -----------------------------------------------------------

type startTorBotRequest struct {
	URL           string `json:"url"`
	Depth         int    `json:"depth,omitempty"`
	SocksHost     string `json:"socks_host,omitempty"`
	SocksPort     int    `json:"socks_port,omitempty"`
	DisableSocks5 bool   `json:"disable_socks5,omitempty"`
	InfoMode      bool   `json:"info_mode,omitempty"`
	OutputFormat  string `json:"output_format,omitempty"`
}

// StartTorBot handles POST /api/torbot/start.
func (h *Handler) StartTorBot(c echo.Context) error {
	var req startTorBotRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, fail("invalid request body"))
	}
	if req.URL == "" {
		return c.JSON(http.StatusBadRequest, fail("url is required"))
	}

	engineCfg := h.Config.Engines["torbot"]
	artifactPath := filepath.Join(os.TempDir(), "webgraph-torbot-artifact.json")

	run := h.Supervisor.RunSubprocess(supervisor.SubprocessEngine{
		Name:    "torbot",
		Path:    engineCfg.Path,
		WorkDir: engineCfg.WorkDir,
		Args:    torbotArgs(req, h.Config.Tor, artifactPath),
		Timeout: engineTimeout(engineCfg),
		ArtifactOf: func() (string, error) {
			if _, err := os.Stat(artifactPath); err != nil {
				return "", err
			}
			return artifactPath, nil
		},
		Adapt: func(path string) (*tree.Node, error) {
			data, err := os.ReadFile(path)
			if err != nil {
				return nil, err
			}
			in, err := adapters.ParseOsintInput(data)
			if err != nil {
				return nil, err
			}
			return adapters.OsintTree(in, req.URL), nil
		},
	})

	if err := h.Supervisor.Start(supervisor.SlotTorBot, run); err != nil {
		return c.JSON(http.StatusBadRequest, fail(busyOrErr(err)))
	}
	return c.JSON(http.StatusOK, ok(nil))
}

// StopTorBot handles POST /api/torbot/stop.
func (h *Handler) StopTorBot(c echo.Context) error {
	if err := h.Supervisor.Stop(supervisor.SlotTorBot); err != nil {
		return c.JSON(http.StatusBadRequest, fail(err.Error()))
	}
	return c.JSON(http.StatusOK, ok(nil))
}

// TorBotProgress handles GET /api/torbot/progress.
func (h *Handler) TorBotProgress(c echo.Context) error {
	p := h.Supervisor.TorBotProgress()
	return c.JSON(http.StatusOK, ok(envelope{
		"links":  p.Links,
		"emails": p.Emails,
		"phones": p.Phones,
		"depth":  p.Depth,
	}))
}

// --- Cross-cutting ----------------------------------------------------------

// Status handles GET /api/status.
func (h *Handler) Status(c echo.Context) error {
	slots, active := h.Supervisor.Status()
	return c.JSON(http.StatusOK, ok(envelope{
		"running": active != "",
		"slot":    active,
		"slots":   slots,
	}))
}

// SyncStatus handles GET /api/sync/status.
func (h *Handler) SyncStatus(c echo.Context) error {
	status, err := h.Publisher.SyncNow()
	if err != nil {
		return c.JSON(http.StatusInternalServerError, fail(err.Error()))
	}
	return c.JSON(http.StatusOK, ok(envelope{
		"primary_exists": status.PrimaryExists,
		"mirror_exists":  status.MirrorExists,
		"hashes_equal":   status.HashesEqual,
	}))
}

// SyncForce handles POST /api/sync/force.
func (h *Handler) SyncForce(c echo.Context) error {
	status, err := h.Publisher.SyncNow()
	if err != nil {
		return c.JSON(http.StatusInternalServerError, fail(err.Error()))
	}
	return c.JSON(http.StatusOK, ok(envelope{
		"primary_exists": status.PrimaryExists,
		"mirror_exists":  status.MirrorExists,
		"hashes_equal":   status.HashesEqual,
	}))
}

// VersionHandler handles GET /api/version.
func (h *Handler) VersionHandler(c echo.Context) error {
	return c.JSON(http.StatusOK, ok(envelope{"version": Version}))
}

// Healthz handles GET /api/healthz.
func (h *Handler) Healthz(c echo.Context) error {
	return c.JSON(http.StatusOK, ok(nil))
}
