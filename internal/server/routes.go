package server

import (
	"errors"
	"net/http"

	"git.appkode.ru/pub/go/failure"
	"github.com/go-chi/chi/v5"

	"tonhunter/internal/domain"
	"tonhunter/pkg/errcodes"
	"tonhunter/pkg/httpx/reply"
)

func (s Server) RegisterRoutes(r chi.Router) {
	r.Route("/", func(r chi.Router) {
		r.Route("/v1", func(r chi.Router) {
			r.Route("/deals", func(r chi.Router) {
				r.Get("/", handler(s.getV1Deals))
				r.Get("/{id}", handler(s.getV1Deal))
			})

			r.Get("/stats", handler(s.getV1Stats))
		})
	})
}

func handler(f func(http.ResponseWriter, *http.Request) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := f(w, r); err != nil {
			reply.Error(r.Context(), w, restError(err))
		}
	}
}

// restError maps domain errors onto transport level failures.
func restError(err error) error {
	var appErr *domain.AppError
	if !errors.As(err, &appErr) {
		return err
	}

	switch appErr.Code {
	case errcodes.DealNotFound, errcodes.UserNotFound, errcodes.RatingNotFound:
		return failure.NewNotFoundErrorFromError(err, failure.WithCode(appErr.Code))
	case errcodes.InvalidAddress, errcodes.InvalidListing, errcodes.InvalidReviewRating:
		return failure.NewInvalidArgumentErrorFromError(err, failure.WithCode(appErr.Code))
	default:
		return err
	}
}
