package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/absmach/supermq"
	apiutil "github.com/absmach/supermq/api/http/util"
	"github.com/absmach/voicefed/coordinator"
	"github.com/absmach/voicefed/pkg/api"
	"github.com/fxamacker/cbor/v2"
	"github.com/go-chi/chi/v5"
	kithttp "github.com/go-kit/kit/transport/http"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const maxUpdateSize = 1024 * 1024 * 10

func MakeHandler(svc coordinator.Service, logger *slog.Logger) http.Handler {
	mux := chi.NewRouter()

	opts := []kithttp.ServerOption{
		kithttp.ServerErrorEncoder(apiutil.LoggingErrorEncoder(logger, api.EncodeError)),
	}

	mux.Get("/health", otelhttp.NewHandler(kithttp.NewServer(
		healthEndpoint(svc),
		decodeEmptyReq,
		api.EncodeResponse,
		opts...,
	), "health").ServeHTTP)

	mux.Get("/model-info", otelhttp.NewHandler(kithttp.NewServer(
		modelInfoEndpoint(svc),
		decodeEmptyReq,
		api.EncodeResponse,
		opts...,
	), "model-info").ServeHTTP)

	mux.Post("/start-federated-server", otelhttp.NewHandler(kithttp.NewServer(
		startListenerEndpoint(svc),
		decodeEmptyReq,
		api.EncodeResponse,
		opts...,
	), "start-federated-server").ServeHTTP)

	mux.Post("/federated-update", otelhttp.NewHandler(kithttp.NewServer(
		submitFeedbackEndpoint(svc),
		decodeFeedbackReq,
		api.EncodeResponse,
		opts...,
	), "federated-update").ServeHTTP)

	mux.Get("/feedback", otelhttp.NewHandler(kithttp.NewServer(
		listFeedbackEndpoint(svc),
		decodeListEntityReq,
		api.EncodeResponse,
		opts...,
	), "list-feedback").ServeHTTP)

	mux.Get("/rounds", otelhttp.NewHandler(kithttp.NewServer(
		listRoundsEndpoint(svc),
		decodeListEntityReq,
		api.EncodeResponse,
		opts...,
	), "list-rounds").ServeHTTP)

	mux.Handle("/metrics", promhttp.Handler())

	return mux
}

// MakeListenerHandler serves participant updates on the aggregation listener.
func MakeListenerHandler(svc coordinator.Service, logger *slog.Logger, instanceID string) http.Handler {
	mux := chi.NewRouter()

	opts := []kithttp.ServerOption{
		kithttp.ServerErrorEncoder(apiutil.LoggingErrorEncoder(logger, api.EncodeError)),
	}

	mux.Post("/updates", otelhttp.NewHandler(kithttp.NewServer(
		submitUpdateEndpoint(svc),
		decodeUpdateReq,
		api.EncodeResponse,
		opts...,
	), "submit-update").ServeHTTP)

	mux.Get("/rounds/{roundID}", otelhttp.NewHandler(kithttp.NewServer(
		getRoundEndpoint(svc),
		decodeEntityReq("roundID"),
		api.EncodeResponse,
		opts...,
	), "get-round").ServeHTTP)

	mux.Get("/health", supermq.Health("aggregation-listener", instanceID))

	return mux
}

func decodeEmptyReq(_ context.Context, _ *http.Request) (any, error) {
	return nil, nil
}

func decodeFeedbackReq(_ context.Context, r *http.Request) (any, error) {
	if !strings.Contains(r.Header.Get("Content-Type"), api.ContentType) {
		return nil, errors.Join(apiutil.ErrValidation, apiutil.ErrUnsupportedContentType)
	}

	var req feedbackReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return nil, errors.Join(err, apiutil.ErrValidation)
	}

	return req, nil
}

func decodeUpdateReq(_ context.Context, r *http.Request) (any, error) {
	var req updateReq
	contentType := r.Header.Get("Content-Type")
	switch {
	case strings.Contains(contentType, api.CBORType):
		data, err := io.ReadAll(io.LimitReader(r.Body, maxUpdateSize))
		if err != nil {
			return nil, errors.Join(err, apiutil.ErrValidation)
		}
		if err := cbor.Unmarshal(data, &req.Update); err != nil {
			return nil, errors.Join(err, apiutil.ErrValidation)
		}
	case strings.Contains(contentType, api.ContentType):
		if err := json.NewDecoder(io.LimitReader(r.Body, maxUpdateSize)).Decode(&req.Update); err != nil {
			return nil, errors.Join(err, apiutil.ErrValidation)
		}
	default:
		return nil, errors.Join(apiutil.ErrValidation, apiutil.ErrUnsupportedContentType)
	}

	return req, nil
}

func decodeEntityReq(key string) kithttp.DecodeRequestFunc {
	return func(_ context.Context, r *http.Request) (any, error) {
		return entityReq{
			id: chi.URLParam(r, key),
		}, nil
	}
}

func decodeListEntityReq(_ context.Context, r *http.Request) (any, error) {
	o, err := apiutil.ReadNumQuery[uint64](r, api.OffsetKey, api.DefOffset)
	if err != nil {
		return nil, errors.Join(apiutil.ErrValidation, err)
	}

	l, err := apiutil.ReadNumQuery[uint64](r, api.LimitKey, api.DefLimit)
	if err != nil {
		return nil, errors.Join(apiutil.ErrValidation, err)
	}

	return listEntityReq{
		offset: o,
		limit:  l,
	}, nil
}
