package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	apiutil "github.com/absmach/supermq/api/http/util"
	"github.com/absmach/voicefed/pkg/api"
	"github.com/absmach/voicefed/predictor"
	"github.com/go-chi/chi/v5"
	kithttp "github.com/go-kit/kit/transport/http"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const maxBodySize = 1024 * 1024 * 50

func MakeHandler(svc predictor.Service, logger *slog.Logger) http.Handler {
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

	mux.Post("/predict", otelhttp.NewHandler(kithttp.NewServer(
		predictEndpoint(svc),
		decodePredictReq,
		api.EncodeResponse,
		opts...,
	), "predict").ServeHTTP)

	mux.Post("/federated-update", otelhttp.NewHandler(kithttp.NewServer(
		forwardEndpoint(svc),
		decodeForwardReq,
		encodeRelay,
		opts...,
	), "federated-update").ServeHTTP)

	mux.Handle("/metrics", promhttp.Handler())

	return mux
}

func decodeEmptyReq(_ context.Context, _ *http.Request) (any, error) {
	return nil, nil
}

func decodePredictReq(_ context.Context, r *http.Request) (any, error) {
	if !strings.Contains(r.Header.Get("Content-Type"), api.ContentType) {
		return nil, errors.Join(apiutil.ErrValidation, apiutil.ErrUnsupportedContentType)
	}

	var req predictReq
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBodySize)).Decode(&req); err != nil {
		return nil, errors.Join(err, apiutil.ErrValidation)
	}

	return req, nil
}

func decodeForwardReq(_ context.Context, r *http.Request) (any, error) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodySize))
	if err != nil {
		return nil, errors.Join(err, apiutil.ErrValidation)
	}

	return forwardReq{body: body}, nil
}

func encodeRelay(_ context.Context, w http.ResponseWriter, response any) error {
	res, ok := response.(relayRes)
	if !ok {
		return api.EncodeResponse(context.Background(), w, response)
	}

	w.Header().Set("Content-Type", api.ContentType)
	w.WriteHeader(res.code)
	_, err := w.Write(res.body)

	return err
}
