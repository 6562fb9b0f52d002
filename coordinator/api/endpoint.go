package api

import (
	"context"
	"errors"

	apiutil "github.com/absmach/supermq/api/http/util"
	"github.com/absmach/voicefed/coordinator"
	pkgerrors "github.com/absmach/voicefed/pkg/errors"
	"github.com/go-kit/kit/endpoint"
)

func healthEndpoint(svc coordinator.Service) endpoint.Endpoint {
	return func(ctx context.Context, _ any) (any, error) {
		status, err := svc.Health(ctx)
		if err != nil {
			return healthRes{}, err
		}

		return healthRes{
			Status:            status.Status,
			FederatedServer:   status.ListenerRunning,
			GlobalModelLoaded: status.ModelLoaded,
			ModelVersion:      status.ModelVersion,
			UpdatesCount:      status.UpdateCount,
			ServerType:        status.ServerType,
		}, nil
	}
}

func modelInfoEndpoint(svc coordinator.Service) endpoint.Endpoint {
	return func(ctx context.Context, _ any) (any, error) {
		status, err := svc.Status(ctx)
		if err != nil {
			return modelInfoRes{}, err
		}

		return modelInfoRes{
			ModelVersion:           status.ModelVersion,
			UpdateCount:            status.UpdateCount,
			QueueSize:              status.QueueSize,
			ModelLoaded:            status.ModelLoaded,
			FederatedServerRunning: status.ListenerRunning,
		}, nil
	}
}

func startListenerEndpoint(svc coordinator.Service) endpoint.Endpoint {
	return func(ctx context.Context, _ any) (any, error) {
		info, err := svc.StartAggregationListener(ctx)
		if err != nil {
			return listenerRes{}, err
		}

		return listenerRes{
			Success:       true,
			Message:       info.Message,
			ServerAddress: info.Address,
		}, nil
	}
}

func submitFeedbackEndpoint(svc coordinator.Service) endpoint.Endpoint {
	return func(ctx context.Context, request any) (any, error) {
		req, ok := request.(feedbackReq)
		if !ok {
			return ackRes{}, errors.Join(apiutil.ErrValidation, pkgerrors.ErrInvalidData)
		}
		if err := req.validate(); err != nil {
			return ackRes{}, errors.Join(apiutil.ErrValidation, err)
		}
		rec, err := req.record()
		if err != nil {
			return ackRes{}, err
		}

		ack, err := svc.SubmitFeedback(ctx, rec)
		if err != nil {
			return ackRes{}, err
		}

		return newAckRes(ack), nil
	}
}

func listFeedbackEndpoint(svc coordinator.Service) endpoint.Endpoint {
	return func(ctx context.Context, request any) (any, error) {
		req, ok := request.(listEntityReq)
		if !ok {
			return feedbackPageRes{}, errors.Join(apiutil.ErrValidation, pkgerrors.ErrInvalidData)
		}
		if err := req.validate(); err != nil {
			return feedbackPageRes{}, errors.Join(apiutil.ErrValidation, err)
		}

		page, err := svc.ListFeedback(ctx, req.offset, req.limit)
		if err != nil {
			return feedbackPageRes{}, err
		}

		return newFeedbackPageRes(page), nil
	}
}

func listRoundsEndpoint(svc coordinator.Service) endpoint.Endpoint {
	return func(ctx context.Context, request any) (any, error) {
		req, ok := request.(listEntityReq)
		if !ok {
			return roundPageRes{}, errors.Join(apiutil.ErrValidation, pkgerrors.ErrInvalidData)
		}
		if err := req.validate(); err != nil {
			return roundPageRes{}, errors.Join(apiutil.ErrValidation, err)
		}

		page, err := svc.ListRounds(ctx, req.offset, req.limit)
		if err != nil {
			return roundPageRes{}, err
		}

		return roundPageRes{RoundPage: page}, nil
	}
}

func submitUpdateEndpoint(svc coordinator.Service) endpoint.Endpoint {
	return func(ctx context.Context, request any) (any, error) {
		req, ok := request.(updateReq)
		if !ok {
			return roundStatusRes{}, errors.Join(apiutil.ErrValidation, pkgerrors.ErrInvalidData)
		}
		if err := req.validate(); err != nil {
			return roundStatusRes{}, errors.Join(apiutil.ErrValidation, err)
		}

		status, err := svc.SubmitUpdate(ctx, req.Update)
		if err != nil {
			return roundStatusRes{}, err
		}

		return roundStatusRes{RoundStatus: status, created: !status.Completed}, nil
	}
}

func getRoundEndpoint(svc coordinator.Service) endpoint.Endpoint {
	return func(ctx context.Context, request any) (any, error) {
		req, ok := request.(entityReq)
		if !ok {
			return roundRes{}, errors.Join(apiutil.ErrValidation, pkgerrors.ErrInvalidData)
		}
		if err := req.validate(); err != nil {
			return roundRes{}, errors.Join(apiutil.ErrValidation, err)
		}

		state, err := svc.GetRound(ctx, req.id)
		if err != nil {
			return roundRes{}, err
		}

		return newRoundRes(state), nil
	}
}
