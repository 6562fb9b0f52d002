package api

import (
	"context"
	"encoding/base64"
	"errors"

	apiutil "github.com/absmach/supermq/api/http/util"
	pkgerrors "github.com/absmach/voicefed/pkg/errors"
	"github.com/absmach/voicefed/predictor"
	"github.com/go-kit/kit/endpoint"
)

func healthEndpoint(svc predictor.Service) endpoint.Endpoint {
	return func(ctx context.Context, _ any) (any, error) {
		h, err := svc.Health(ctx)
		if err != nil {
			return healthRes{}, err
		}

		return healthRes{Health: h}, nil
	}
}

func predictEndpoint(svc predictor.Service) endpoint.Endpoint {
	return func(ctx context.Context, request any) (any, error) {
		req, ok := request.(predictReq)
		if !ok {
			return predictionRes{}, errors.Join(apiutil.ErrValidation, pkgerrors.ErrInvalidData)
		}
		if err := req.validate(); err != nil {
			return predictionRes{}, errors.Join(apiutil.ErrValidation, err)
		}
		audio, err := base64.StdEncoding.DecodeString(req.AudioData)
		if err != nil {
			return predictionRes{}, errors.Join(apiutil.ErrValidation, pkgerrors.ErrInvalidData, err)
		}

		p, err := svc.Predict(ctx, audio, req.UserID)
		if err != nil {
			return predictionRes{}, err
		}

		return predictionRes{Prediction: p}, nil
	}
}

func forwardEndpoint(svc predictor.Service) endpoint.Endpoint {
	return func(ctx context.Context, request any) (any, error) {
		req, ok := request.(forwardReq)
		if !ok {
			return relayRes{}, errors.Join(apiutil.ErrValidation, pkgerrors.ErrInvalidData)
		}

		relay, err := svc.ForwardFeedback(ctx, req.body)
		if err != nil {
			return relayRes{}, err
		}

		return relayRes{code: relay.StatusCode, body: relay.Body}, nil
	}
}
