package server

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"tonhunter/internal/domain"
	"tonhunter/internal/domain/entity"
	"tonhunter/pkg/errcodes"
	"tonhunter/pkg/httpx/reply"
	"tonhunter/pkg/lox"
	"tonhunter/pkg/rest"
)

const listLimit = 50

type dealService interface {
	Get(ctx context.Context, dealID int64) (*entity.Deal, error)
	ListRecent(ctx context.Context, limit int) ([]*entity.Deal, error)
	Stats(ctx context.Context) (*entity.DealStats, error)
}

type DealServer struct {
	dealService dealService
}

func NewDealServer(dealService dealService) DealServer {
	return DealServer{
		dealService: dealService,
	}
}

func (s DealServer) getV1Deals(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()

	deals, err := s.dealService.ListRecent(ctx, listLimit)
	if err != nil {
		return fmt.Errorf("dealService.ListRecent: %w", err)
	}

	reply.JSON(ctx, w, http.StatusOK, rest.DealList{
		Deals: lox.Map(deals, newRESTDeal),
		Total: len(deals),
	})

	return nil
}

func (s DealServer) getV1Deal(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()

	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		return domain.WrapError(err, errcodes.DealNotFound, "invalid deal id")
	}

	deal, err := s.dealService.Get(ctx, id)
	if err != nil {
		return fmt.Errorf("dealService.Get: %w", err)
	}

	reply.JSON(ctx, w, http.StatusOK, newRESTDeal(deal))

	return nil
}

func (s DealServer) getV1Stats(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()

	stats, err := s.dealService.Stats(ctx)
	if err != nil {
		return fmt.Errorf("dealService.Stats: %w", err)
	}

	reply.JSON(ctx, w, http.StatusOK, newRESTStats(stats))

	return nil
}
