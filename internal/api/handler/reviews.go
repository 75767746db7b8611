package handler

import (
	"encoding/json"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/dealerhub/dealerhub/internal/api/auth"
	"github.com/dealerhub/dealerhub/internal/api/response"
	"github.com/dealerhub/dealerhub/internal/breaker"
	"github.com/dealerhub/dealerhub/internal/logging"
	"github.com/dealerhub/dealerhub/pkg/dealers"
	"github.com/dealerhub/dealerhub/pkg/sentiment"
	"github.com/gin-gonic/gin"
)

// intOrString is an integer that also accepts its decimal string form,
// which is what form based clients send for select values.
type intOrString int

func (n *intOrString) UnmarshalJSON(b []byte) error {
	raw := string(b)
	if raw == "null" {
		return nil
	}
	if strings.HasPrefix(raw, `"`) {
		var str string
		if err := json.Unmarshal(b, &str); err != nil {
			return err
		}
		raw = strings.TrimSpace(str)
		if raw == "" {
			*n = 0
			return nil
		}
	}

	v, err := strconv.Atoi(raw)
	if err != nil {
		return &json.UnmarshalTypeError{Value: "value " + raw, Type: reflect.TypeFor[int]()}
	}
	*n = intOrString(v)
	return nil
}

type addReviewRequest struct {
	Name         string      `json:"name"`
	Dealership   intOrString `json:"dealership" binding:"required,gt=0"`
	Review       string      `json:"review" binding:"required"`
	Purchase     bool        `json:"purchase"`
	PurchaseDate string      `json:"purchase_date"`
	CarMake      string      `json:"car_make"`
	CarModel     string      `json:"car_model"`
	CarYear      intOrString `json:"car_year" binding:"omitempty,gte=1886"`
}

// AddReview forwards a review of an authenticated user to the dealer API.
func (h *Handler) AddReview(c *gin.Context) {
	user, ok := auth.CurrentUser(c)
	if !ok {
		response.Unauthorized(c)
		return
	}

	var req addReviewRequest
	if !response.BindJSON(c, &req) {
		return
	}
	if req.Name == "" {
		req.Name = user.Username
	}

	_, err := h.dealers.PostReview(c.Request.Context(), dealers.Review{
		Name:         req.Name,
		Dealership:   int(req.Dealership),
		Review:       req.Review,
		Purchase:     req.Purchase,
		PurchaseDate: req.PurchaseDate,
		CarMake:      req.CarMake,
		CarModel:     req.CarModel,
		CarYear:      int(req.CarYear),
	})
	if err != nil {
		logging.FromContext(c).Error("Failed to post review", "dealer_id", req.Dealership, "user", user.Username, "circuit_open", breaker.IsOpen(err), "error", err)
		response.Status(c, http.StatusUnauthorized, "Error in posting review")
		return
	}

	logging.FromContext(c).Info("Review posted", "dealer_id", req.Dealership, "user", user.Username)
	c.JSON(http.StatusOK, gin.H{"status": http.StatusOK})
}

type submitReviewRequest struct {
	ReviewText string `json:"reviewText" binding:"required"`
	CarModelID any    `json:"carModelId" binding:"required"`
}

// SubmitReview classifies an anonymous review without storing it.
func (h *Handler) SubmitReview(c *gin.Context) {
	var req submitReviewRequest
	if !response.BindJSON(c, &req) {
		return
	}

	label, err := sentiment.ClassifyOrFallback(c.Request.Context(), h.classifier, req.ReviewText)
	if err != nil {
		logging.FromContext(c).Warn("Failed to analyze review sentiment", "circuit_open", breaker.IsOpen(err), "error", err)
	}

	c.JSON(http.StatusOK, gin.H{"status": "Review submitted", "sentiment": label})
}
