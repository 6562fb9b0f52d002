package api

import pkgerrors "github.com/absmach/voicefed/pkg/errors"

type predictReq struct {
	AudioData string `json:"audioData"`
	UserID    string `json:"userId"`
}

func (req *predictReq) validate() error {
	if req.AudioData == "" {
		return pkgerrors.ErrMissingAudio
	}

	return nil
}

type forwardReq struct {
	body []byte
}

func (req *forwardReq) validate() error {
	return nil
}
