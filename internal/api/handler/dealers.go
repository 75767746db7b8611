package handler

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/ccoveille/go-safecast"
	"github.com/charmbracelet/log"
	"github.com/dealerhub/dealerhub/internal/api/response"
	"github.com/dealerhub/dealerhub/internal/breaker"
	"github.com/dealerhub/dealerhub/internal/logging"
	"github.com/dealerhub/dealerhub/pkg/sentiment"
	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"
)

// placeholders sent by clients that have no dealer selected
var falsyIDs = map[string]struct{}{
	"":          {},
	"0":         {},
	"none":      {},
	"null":      {},
	"undefined": {},
	"false":     {},
}

// parseDealerID returns the id and whether it refers to a real dealer.
func parseDealerID(raw string) (uint, bool) {
	raw = strings.TrimSpace(raw)
	if _, falsy := falsyIDs[strings.ToLower(raw)]; falsy {
		return 0, false
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || n <= 0 {
		return 0, false
	}
	id, err := safecast.Convert[uint](n)
	if err != nil {
		return 0, false
	}
	return id, true
}

// GetDealers lists all dealers or the dealers of the state given in the path.
func (h *Handler) GetDealers(c *gin.Context) {
	state := c.Param("state")

	dealers, err := h.dealers.FetchDealers(c.Request.Context(), state)
	if err != nil {
		logging.FromContext(c).Error("Failed to fetch dealers", "state", state, "circuit_open", breaker.IsOpen(err), "error", err)
		response.Status(c, http.StatusBadGateway, "Error fetching dealers")
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": http.StatusOK, "dealers": dealers})
}

// GetDealerDetails returns a single dealer.
func (h *Handler) GetDealerDetails(c *gin.Context) {
	id, ok := parseDealerID(c.Param("dealerId"))
	if !ok {
		response.BadRequest(c)
		return
	}

	dealer, err := h.dealers.FetchDealer(c.Request.Context(), id)
	if err != nil {
		logging.FromContext(c).Error("Failed to fetch dealer", "dealer_id", id, "circuit_open", breaker.IsOpen(err), "error", err)
		response.Status(c, http.StatusBadGateway, "Error fetching dealer")
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": http.StatusOK, "dealer": dealer})
}

// GetDealerReviews returns the reviews of a dealer, each annotated with its sentiment.
func (h *Handler) GetDealerReviews(c *gin.Context) {
	id, ok := parseDealerID(c.Param("dealerId"))
	if !ok {
		response.BadRequest(c)
		return
	}

	reviews, err := h.dealers.FetchReviews(c.Request.Context(), id)
	if err != nil {
		logging.FromContext(c).Error("Failed to fetch reviews", "dealer_id", id, "circuit_open", breaker.IsOpen(err), "error", err)
		response.Status(c, http.StatusBadGateway, "Error fetching reviews")
		return
	}

	h.annotateSentiment(c, reviews)
	c.JSON(http.StatusOK, gin.H{"status": http.StatusOK, "reviews": reviews})
}

// annotateSentiment sets the sentiment field of every review in place.
// A review that cannot be classified gets the fallback label, the batch never fails.
// Entries that are not objects (upstream null) are passed through untouched.
func (h *Handler) annotateSentiment(c *gin.Context, reviews []map[string]any) {
	logger := logging.FromContext(c)
	ctx := c.Request.Context()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(h.concurrency)
	for _, review := range reviews {
		if review == nil {
			continue
		}
		text, _ := review["review"].(string)
		if strings.TrimSpace(text) == "" {
			review["sentiment"] = sentiment.Fallback
			continue
		}
		g.Go(func() error {
			review["sentiment"] = h.classify(gctx, logger, text)
			return nil
		})
	}
	_ = g.Wait()
}

func (h *Handler) classify(ctx context.Context, logger *log.Logger, text string) string {
	label, err := sentiment.ClassifyOrFallback(ctx, h.classifier, text)
	if err != nil {
		logger.Warn("Failed to analyze review sentiment", "circuit_open", breaker.IsOpen(err), "error", err)
	}
	return label
}
