package api

import (
	"io"
	"net/http"
	"time"

	"github.com/ewin66/PodPuppy/app/cfg"
	"github.com/ewin66/PodPuppy/app/engine"
	"github.com/gin-gonic/gin"
)

// EngineInterface is the slice of the engine the HTTP surface needs.
type EngineInterface interface {
	Feeds() []engine.FeedView
	FeedDetail(url string) (engine.FeedView, bool)
	Stats() engine.Stats
	Subscribe(url string, opts engine.SubscribeOptions)
	Unsubscribe(url string, deleteFiles bool)
	Refresh(url string)
	RefreshAll()
	CancelRefresh(url string)
	StopDownload(url string)
	StartDownloads(url string)
	SetItemSkipped(url, key string, skipped bool)
	DeleteItemDownload(url, key string)
	ImportOPML(r io.Reader) (int, error)
}

type Handler struct {
	engine EngineInterface
}

func NewHandler(e EngineInterface) *Handler {
	return &Handler{engine: e}
}

func (h *Handler) GetHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"timestamp": time.Now().In(time.Local).Format(time.RFC3339),
		"version":   cfg.Get().Version,
	})
}

func (h *Handler) GetStats(c *gin.Context) {
	c.JSON(http.StatusOK, h.engine.Stats())
}

func (h *Handler) ListFeeds(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"feeds": h.engine.Feeds()})
}

func (h *Handler) GetFeedDetail(c *gin.Context) {
	url := c.Query("url")
	if url == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "url parameter required"})
		return
	}
	view, ok := h.engine.FeedDetail(url)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "feed not found"})
		return
	}
	c.JSON(http.StatusOK, view)
}

type subscribeRequest struct {
	URL         string `json:"url" binding:"required"`
	Folder      string `json:"folder"`
	ArchiveMode string `json:"archive_mode"`
	Dynamic     bool   `json:"dynamic"`
}

func (h *Handler) Subscribe(c *gin.Context) {
	var req subscribeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	h.engine.Subscribe(req.URL, engine.SubscribeOptions{
		Dynamic:     req.Dynamic,
		Folder:      req.Folder,
		ArchiveMode: req.ArchiveMode,
	})
	c.JSON(http.StatusAccepted, gin.H{"url": req.URL})
}

func (h *Handler) Unsubscribe(c *gin.Context) {
	url := c.Query("url")
	if url == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "url parameter required"})
		return
	}
	h.engine.Unsubscribe(url, c.Query("delete_files") == "true")
	c.Status(http.StatusAccepted)
}

func (h *Handler) RefreshFeed(c *gin.Context) {
	url := c.Query("url")
	if url == "" {
		h.engine.RefreshAll()
	} else {
		h.engine.Refresh(url)
	}
	c.Status(http.StatusAccepted)
}

func (h *Handler) CancelRefresh(c *gin.Context) {
	url := c.Query("url")
	if url == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "url parameter required"})
		return
	}
	h.engine.CancelRefresh(url)
	c.Status(http.StatusAccepted)
}

func (h *Handler) StartDownloads(c *gin.Context) {
	url := c.Query("url")
	if url == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "url parameter required"})
		return
	}
	h.engine.StartDownloads(url)
	c.Status(http.StatusAccepted)
}

func (h *Handler) StopDownload(c *gin.Context) {
	url := c.Query("url")
	if url == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "url parameter required"})
		return
	}
	h.engine.StopDownload(url)
	c.Status(http.StatusAccepted)
}

func (h *Handler) SkipItem(c *gin.Context) {
	url, key := c.Query("url"), c.Query("key")
	if url == "" || key == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "url and key parameters required"})
		return
	}
	h.engine.SetItemSkipped(url, key, c.Query("skip") != "false")
	c.Status(http.StatusAccepted)
}

func (h *Handler) DeleteItemDownload(c *gin.Context) {
	url, key := c.Query("url"), c.Query("key")
	if url == "" || key == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "url and key parameters required"})
		return
	}
	h.engine.DeleteItemDownload(url, key)
	c.Status(http.StatusAccepted)
}

func (h *Handler) ImportOPML(c *gin.Context) {
	count, err := h.engine.ImportOPML(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"imported": count})
}
