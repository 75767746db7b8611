// Package handler implements the catalog, dealer and review endpoints.
package handler

import (
	"context"
	"encoding/json"

	"github.com/dealerhub/dealerhub/internal/catalog"
	"github.com/dealerhub/dealerhub/internal/config"
	"github.com/dealerhub/dealerhub/pkg/sentiment"
)

// DealerAPI is the subset of the dealer client used by the handlers.
type DealerAPI interface {
	FetchDealers(ctx context.Context, state string) (json.RawMessage, error)
	FetchDealer(ctx context.Context, id uint) (json.RawMessage, error)
	FetchReviews(ctx context.Context, dealerID uint) ([]map[string]any, error)
	PostReview(ctx context.Context, review any) (json.RawMessage, error)
}

// CarLister lists the local car catalog.
type CarLister interface {
	ListCars(ctx context.Context) ([]catalog.Car, error)
}

type Handler struct {
	cars        CarLister
	dealers     DealerAPI
	classifier  sentiment.Classifier
	concurrency int
}

// New creates a handler. concurrency bounds how many reviews are classified in parallel.
func New(cars CarLister, dealers DealerAPI, classifier sentiment.Classifier, cfg *config.SentimentConfig) *Handler {
	concurrency := 4
	if cfg != nil && cfg.Concurrency > 0 {
		concurrency = cfg.Concurrency
	}
	return &Handler{
		cars:        cars,
		dealers:     dealers,
		classifier:  classifier,
		concurrency: concurrency,
	}
}
