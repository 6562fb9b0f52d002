package api

import (
	"encoding/base64"
	"errors"

	apiutil "github.com/absmach/supermq/api/http/util"
	pkgerrors "github.com/absmach/voicefed/pkg/errors"
	"github.com/absmach/voicefed/pkg/fl"
)

type feedbackReq struct {
	UserID           string  `json:"userId"`
	VoiceData        string  `json:"voiceData"`
	ConfirmedEmotion string  `json:"confirmedEmotion"`
	OriginalEmotion  string  `json:"originalEmotion"`
	Confidence       float64 `json:"confidence"`
	FeedbackType     string  `json:"feedbackType"`
}

func (req *feedbackReq) validate() error {
	if req.UserID == "" {
		return pkgerrors.ErrMissingUserID
	}
	if req.Confidence < 0 || req.Confidence > 1 {
		return pkgerrors.ErrConfidence
	}
	if req.FeedbackType != "" && !fl.FeedbackType(req.FeedbackType).Valid() {
		return pkgerrors.ErrInvalidType
	}

	return nil
}

func (req feedbackReq) record() (fl.FeedbackRecord, error) {
	rec := fl.FeedbackRecord{
		UserID:         req.UserID,
		OriginalLabel:  fl.Emotion(req.OriginalEmotion),
		ConfirmedLabel: fl.Emotion(req.ConfirmedEmotion),
		Confidence:     req.Confidence,
		FeedbackType:   fl.FeedbackType(req.FeedbackType),
	}
	if rec.FeedbackType == "" {
		rec.FeedbackType = fl.Unknown
	}
	if req.VoiceData != "" {
		sample, err := base64.StdEncoding.DecodeString(req.VoiceData)
		if err != nil {
			return fl.FeedbackRecord{}, errors.Join(apiutil.ErrValidation, pkgerrors.ErrInvalidData, err)
		}
		rec.RawSample = sample
	}

	return rec, nil
}

type updateReq struct {
	fl.Update
}

func (req *updateReq) validate() error {
	if req.NumSamples <= 0 {
		return errors.New("num_samples must be positive")
	}
	if len(req.Update.Update) == 0 {
		return errors.New("missing update payload")
	}

	return nil
}

type entityReq struct {
	id string
}

func (req *entityReq) validate() error {
	if req.id == "" {
		return apiutil.ErrMissingID
	}

	return nil
}

type listEntityReq struct {
	offset, limit uint64
}

func (req *listEntityReq) validate() error {
	if req.limit > 1000 {
		return apiutil.ErrLimitSize
	}

	return nil
}
