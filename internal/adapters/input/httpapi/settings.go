package httpapi

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// settingsMu serializes runtime edits of the shared config.
var settingsMu sync.Mutex

type settingsResponse struct {
	BaseURL         string             `json:"base_url"`
	ProjectIDs      map[string]int     `json:"project_ids"`
	RequestTimeout  string             `json:"request_timeout"`
	SubmitTimeout   string             `json:"submit_timeout"`
	ProbeTimeout    string             `json:"probe_timeout"`
	MaxAttempts     int                `json:"max_attempts"`
	RetryBackoff    string             `json:"retry_backoff"`
	AlwaysRefresh   []string           `json:"always_refresh"`
	OfflineFallback bool               `json:"offline_fallback"`
	CacheTTL        string             `json:"cache_ttl"`
	Rewards         map[string]float64 `json:"rewards"`
}

type settingsRequest struct {
	BaseURL         *string        `json:"base_url"`
	APIToken        *string        `json:"api_token"`
	ProjectIDs      map[string]int `json:"project_ids"`
	RequestTimeout  *string        `json:"request_timeout"`
	SubmitTimeout   *string        `json:"submit_timeout"`
	ProbeTimeout    *string        `json:"probe_timeout"`
	MaxAttempts     *int           `json:"max_attempts"`
	RetryBackoff    *string        `json:"retry_backoff"`
	AlwaysRefresh   []string       `json:"always_refresh"`
	OfflineFallback *bool          `json:"offline_fallback"`
	CacheTTL        *string        `json:"cache_ttl"`
}

// getSettings returns the runtime configuration surface. The API token is
// never echoed back.
func (s *Server) getSettings(c *gin.Context) {
	settingsMu.Lock()
	defer settingsMu.Unlock()
	s.getSettingsLocked(c)
}

func (s *Server) updateSettings(c *gin.Context) {
	req := settingsRequest{}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	settingsMu.Lock()
	defer settingsMu.Unlock()

	src := &s.cfg.Source
	if req.BaseURL != nil {
		src.BaseURL = *req.BaseURL
	}
	if req.APIToken != nil {
		src.APIToken = *req.APIToken
	}
	if req.ProjectIDs != nil {
		src.ProjectIDs = req.ProjectIDs
	}
	if req.MaxAttempts != nil {
		src.MaxAttempts = *req.MaxAttempts
	}
	if req.AlwaysRefresh != nil {
		src.AlwaysRefresh = req.AlwaysRefresh
	}
	if req.OfflineFallback != nil {
		src.OfflineFallback = *req.OfflineFallback
	}
	durations := []struct {
		raw *string
		dst *time.Duration
	}{
		{req.RequestTimeout, &src.RequestTimeout},
		{req.SubmitTimeout, &src.SubmitTimeout},
		{req.ProbeTimeout, &src.ProbeTimeout},
		{req.RetryBackoff, &src.RetryBackoff},
		{req.CacheTTL, &s.cfg.Cache.TTL},
	}
	for _, d := range durations {
		if d.raw == nil {
			continue
		}
		parsed, err := time.ParseDuration(*d.raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid duration: " + *d.raw})
			return
		}
		*d.dst = parsed
	}

	if s.source != nil {
		s.source.Configure(s.cfg.Source)
	}
	if s.cache != nil {
		s.cache.SetTTL(s.cfg.Cache.TTL)
	}

	if err := s.cfg.Save(); err != nil {
		// The edit is live for this session even when persistence fails.
		s.log.Warn("http: settings not persisted", zap.Error(err))
	}

	s.getSettingsLocked(c)
}

func (s *Server) getSettingsLocked(c *gin.Context) {
	src := s.cfg.Source
	c.JSON(http.StatusOK, settingsResponse{
		BaseURL:         src.BaseURL,
		ProjectIDs:      src.ProjectIDs,
		RequestTimeout:  src.RequestTimeout.String(),
		SubmitTimeout:   src.SubmitTimeout.String(),
		ProbeTimeout:    src.ProbeTimeout.String(),
		MaxAttempts:     src.MaxAttempts,
		RetryBackoff:    src.RetryBackoff.String(),
		AlwaysRefresh:   src.AlwaysRefresh,
		OfflineFallback: src.OfflineFallback,
		CacheTTL:        s.cfg.Cache.TTL.String(),
		Rewards:         s.cfg.Rewards,
	})
}
