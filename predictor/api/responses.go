package api

import (
	"net/http"

	"github.com/absmach/supermq"
	"github.com/absmach/voicefed/predictor"
)

var (
	_ supermq.Response = (*healthRes)(nil)
	_ supermq.Response = (*predictionRes)(nil)
)

type healthRes struct {
	predictor.Health
}

func (res healthRes) Code() int {
	return http.StatusOK
}

func (res healthRes) Headers() map[string]string {
	return map[string]string{}
}

func (res healthRes) Empty() bool {
	return false
}

type predictionRes struct {
	predictor.Prediction
}

func (res predictionRes) Code() int {
	return http.StatusOK
}

func (res predictionRes) Headers() map[string]string {
	return map[string]string{}
}

func (res predictionRes) Empty() bool {
	return false
}

// relayRes carries the coordinator's answer back to the caller untouched.
type relayRes struct {
	code int
	body []byte
}
