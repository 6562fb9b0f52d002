package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/absmach/supermq"
	apiutil "github.com/absmach/supermq/api/http/util"
	pkgerrors "github.com/absmach/voicefed/pkg/errors"
)

const (
	ContentType = "application/json"
	CBORType    = "application/cbor"

	OffsetKey = "offset"
	LimitKey  = "limit"
	DefOffset = 0
	DefLimit  = 100
)

type errorRes struct {
	Err     string `json:"error"`
	Message string `json:"message,omitempty"`
}

func EncodeResponse(_ context.Context, w http.ResponseWriter, response any) error {
	if ar, ok := response.(supermq.Response); ok {
		for k, v := range ar.Headers() {
			w.Header().Set(k, v)
		}
		w.Header().Set("Content-Type", ContentType)
		w.WriteHeader(ar.Code())

		if ar.Empty() {
			return nil
		}
	}

	return json.NewEncoder(w).Encode(response)
}

func EncodeError(_ context.Context, err error, w http.ResponseWriter) {
	w.Header().Set("Content-Type", ContentType)

	res := errorRes{Err: err.Error()}
	switch {
	case errors.Is(err, apiutil.ErrValidation),
		errors.Is(err, apiutil.ErrUnsupportedContentType),
		errors.Is(err, pkgerrors.ErrEmptyKey),
		errors.Is(err, pkgerrors.ErrInvalidData),
		errors.Is(err, pkgerrors.ErrMissingUserID),
		errors.Is(err, pkgerrors.ErrMissingAudio),
		errors.Is(err, pkgerrors.ErrInvalidEmotion),
		errors.Is(err, pkgerrors.ErrInvalidType),
		errors.Is(err, pkgerrors.ErrConfidence):
		w.WriteHeader(http.StatusBadRequest)
	case errors.Is(err, pkgerrors.ErrEntityExists):
		w.WriteHeader(http.StatusConflict)
	case errors.Is(err, pkgerrors.ErrNotFound):
		w.WriteHeader(http.StatusNotFound)
	case errors.Is(err, pkgerrors.ErrUnavailable):
		res = errorRes{
			Err:     "Federated learning server unavailable",
			Message: err.Error(),
		}
		w.WriteHeader(http.StatusServiceUnavailable)
	default:
		w.WriteHeader(http.StatusInternalServerError)
	}

	if err := json.NewEncoder(w).Encode(res); err != nil {
		w.WriteHeader(http.StatusInternalServerError)
	}
}
