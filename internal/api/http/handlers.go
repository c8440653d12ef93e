package http

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/tabmirror/backend/internal/domain/approval"
	"github.com/tabmirror/backend/internal/domain/install"
	"github.com/tabmirror/backend/internal/domain/registry"
	"github.com/tabmirror/backend/internal/domain/session"
	"github.com/tabmirror/backend/internal/infrastructure/logging"
	"github.com/tabmirror/backend/internal/infrastructure/monitoring"
)

// SessionService is the slice of the session helper the API depends on.
type SessionService interface {
	ForeignSessions(ctx context.Context, sink session.Sink, opts session.Options) error
	OpenTab(ctx context.Context, tag string, tabID int) (*session.Tab, error)
	Delete(ctx context.Context, tag string) error
	TriggerSync(ctx context.Context) error
	TabSyncEnabled() bool
}

// InstallService is the slice of the install flow the API depends on.
type InstallService interface {
	Begin(owner approval.Identity, manifest approval.Manifest) (*install.Prompt, error)
	Complete(owner approval.Identity, itemID string) (*registry.Package, error)
	Pending() int
}

// Handlers contains all HTTP handlers.
type Handlers struct {
	sessions SessionService
	installs InstallService
	packages *registry.Manager
	metrics  *monitoring.Metrics
	log      *logging.Logger
}

// NewHandlers creates a new handler set.
func NewHandlers(
	sessions SessionService,
	installs InstallService,
	packages *registry.Manager,
	metrics *monitoring.Metrics,
	log *logging.Logger,
) *Handlers {
	return &Handlers{
		sessions: sessions,
		installs: installs,
		packages: packages,
		metrics:  metrics,
		log:      log,
	}
}

// Root handles the health check.
func (h *Handlers) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "online",
		"service": "TabMirror Backend",
		"version": "0.3.0",
	})
}

// ListSessions projects the foreign-session snapshot. An empty result
// is success; only an unavailable or failing sync source is an error.
func (h *Handlers) ListSessions(c *gin.Context) {
	opts := session.Options{
		GroupByRecency: c.Query("order") == "recency",
	}

	builder := session.NewBuilder()
	if err := h.sessions.ForeignSessions(c.Request.Context(), builder, opts); err != nil {
		if errors.Is(err, session.ErrSyncUnavailable) {
			h.metrics.SyncUnavailable.Inc()
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	views := builder.Sessions()
	mode := "visual"
	if opts.GroupByRecency {
		mode = "recency"
	}
	h.metrics.RecordProjection(mode, len(views), countTabs(views))

	c.JSON(http.StatusOK, gin.H{
		"sessions": views,
		"order":    mode,
	})
}

// OpenTab resolves a foreign tab for restoring locally.
func (h *Handlers) OpenTab(c *gin.Context) {
	tag := c.Param("tag")
	tabID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "tab id must be an integer"})
		return
	}

	tab, err := h.sessions.OpenTab(c.Request.Context(), tag, tabID)
	if err != nil {
		switch {
		case errors.Is(err, session.ErrSyncUnavailable):
			h.metrics.SyncUnavailable.Inc()
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
		case errors.Is(err, session.ErrTabStale):
			c.JSON(http.StatusGone, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"tag": tag,
		"tab": tab,
	})
}

// DeleteSession removes a foreign session from the sync engine.
func (h *Handlers) DeleteSession(c *gin.Context) {
	tag := c.Param("tag")

	if err := h.sessions.Delete(c.Request.Context(), tag); err != nil {
		if errors.Is(err, session.ErrSyncUnavailable) {
			h.metrics.SyncUnavailable.Inc()
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"tag":     tag,
	})
}

// RefreshSync triggers a session re-sync.
func (h *Handlers) RefreshSync(c *gin.Context) {
	if err := h.sessions.TriggerSync(c.Request.Context()); err != nil {
		if errors.Is(err, session.ErrSyncUnavailable) {
			h.metrics.SyncUnavailable.Inc()
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	h.metrics.SyncRefreshes.Inc()
	c.JSON(http.StatusAccepted, gin.H{"success": true})
}

// SyncStatus reports whether tab sync is enabled.
func (h *Handlers) SyncStatus(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"tab_sync_enabled": h.sessions.TabSyncEnabled(),
	})
}

// beginInstallRequest is the begin-install payload.
type beginInstallRequest struct {
	PrincipalID  string            `json:"principal_id" binding:"required"`
	OffTheRecord bool              `json:"off_the_record"`
	Manifest     approval.Manifest `json:"manifest" binding:"required"`
}

// BeginInstall records a pending approval and returns the prompt.
func (h *Handlers) BeginInstall(c *gin.Context) {
	var req beginInstallRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	owner := approval.Identity{
		PrincipalID:  req.PrincipalID,
		OffTheRecord: req.OffTheRecord,
	}

	prompt, err := h.installs.Begin(owner, req.Manifest)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	h.metrics.ApprovalsPending.Set(float64(h.installs.Pending()))
	c.JSON(http.StatusOK, gin.H{"prompt": prompt})
}

// completeInstallRequest is the complete-install payload.
type completeInstallRequest struct {
	PrincipalID  string `json:"principal_id" binding:"required"`
	OffTheRecord bool   `json:"off_the_record"`
	ItemID       string `json:"item_id" binding:"required"`
}

// CompleteInstall consumes the pending approval and installs the item.
func (h *Handlers) CompleteInstall(c *gin.Context) {
	var req completeInstallRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	owner := approval.Identity{
		PrincipalID:  req.PrincipalID,
		OffTheRecord: req.OffTheRecord,
	}

	pkg, err := h.installs.Complete(owner, req.ItemID)
	if err != nil {
		if errors.Is(err, install.ErrNoPending) {
			h.metrics.InstallsTotal.WithLabelValues("no_pending").Inc()
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
			return
		}
		h.metrics.InstallsTotal.WithLabelValues("error").Inc()
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	h.metrics.InstallsTotal.WithLabelValues("success").Inc()
	h.metrics.ApprovalsPending.Set(float64(h.installs.Pending()))
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"package": pkg,
	})
}

// ListPackages lists installed packages.
func (h *Handlers) ListPackages(c *gin.Context) {
	packages, err := h.packages.List()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"packages": packages,
		"stats":    h.packages.Stats(),
	})
}

// GetPackage returns one installed package.
func (h *Handlers) GetPackage(c *gin.Context) {
	pkg, err := h.packages.Load(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "package not found"})
		return
	}
	c.JSON(http.StatusOK, pkg)
}

// DeletePackage uninstalls a package.
func (h *Handlers) DeletePackage(c *gin.Context) {
	id := c.Param("id")
	if err := h.packages.Delete(id); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"package_id": id,
	})
}

func countTabs(views []*session.SessionView) int {
	var n int
	for _, s := range views {
		for _, w := range s.Windows {
			n += len(w.Tabs)
		}
	}
	return n
}
