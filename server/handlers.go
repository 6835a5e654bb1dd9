package server

import (
	"errors"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/scipunch/tvfeed/cache"
	"github.com/scipunch/tvfeed/feed"
)

// Handler serves the feed client over HTTP. Requests are serialized since
// they share one selection state.
type Handler struct {
	mu     sync.Mutex
	client *feed.Client
	store  cache.Store
}

// NewHandler creates a new API handler. store may be nil.
func NewHandler(client *feed.Client, store cache.Store) *Handler {
	return &Handler{client: client, store: store}
}

func (h *Handler) ListCategories(c *gin.Context) {
	h.mu.Lock()
	defer h.mu.Unlock()

	c.JSON(http.StatusOK, gin.H{"categories": h.client.CategoryItems()})
}

func (h *Handler) GetCategory(c *gin.Context) {
	index, ok := intParam(c, "index")
	if !ok {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	contents, err := h.client.Navigate(c.Request.Context(), index, nil)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, contents)
}

func (h *Handler) GetSubcategory(c *gin.Context) {
	index, ok := intParam(c, "index")
	if !ok {
		return
	}
	path, err := feed.ParsePath(c.Param("path"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	contents, err := h.client.Navigate(c.Request.Context(), index, path)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, contents)
}

// GetItem selects an item of the most recently browsed list
func (h *Handler) GetItem(c *gin.Context) {
	index, ok := intParam(c, "index")
	if !ok {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	h.client.SelectItem(index)
	item, found := h.client.CurrentItem()
	if !found {
		c.JSON(http.StatusNotFound, gin.H{"error": "no item at index " + strconv.Itoa(index)})
		return
	}
	c.JSON(http.StatusOK, item)
}

func (h *Handler) GetAllMedia(c *gin.Context) {
	h.mu.Lock()
	defer h.mu.Unlock()

	c.JSON(http.StatusOK, gin.H{"media": h.client.AllMedia()})
}

func (h *Handler) HealthCheck(c *gin.Context) {
	health := gin.H{
		"status":    "healthy",
		"timestamp": time.Now().Format(time.RFC3339),
	}

	h.mu.Lock()
	health["categories"] = len(h.client.CategoryItems())
	h.mu.Unlock()

	if h.store != nil {
		if stats, err := h.store.Stats(); err == nil {
			health["cache"] = gin.H{
				"backend": stats.Backend,
				"entries": stats.Entries,
				"bytes":   stats.Bytes,
			}
		}
	}

	c.JSON(http.StatusOK, health)
}

func intParam(c *gin.Context, name string) (int, bool) {
	v, err := strconv.Atoi(c.Param(name))
	if err != nil || v < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + name})
		return 0, false
	}
	return v, true
}

func writeError(c *gin.Context, err error) {
	var fe *feed.Error
	switch {
	case errors.As(err, &fe):
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error(), "kind": fe.Kind})
	case errors.Is(err, feed.ErrNoCategory), errors.Is(err, feed.ErrNoSubcategory), errors.Is(err, feed.ErrNoFeedURL):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
