package fl

import "errors"

var (
	ErrNoUpdates     = errors.New("no updates provided for aggregation")
	ErrOverflow      = errors.New("sample count overflow during aggregation")
	ErrStore         = errors.New("artifact store error")
	ErrAggregation   = errors.New("aggregation error")
	ErrEmptyBatch    = errors.New("empty aggregation batch")
	ErrNotLoaded     = errors.New("model artifact not loaded")
	ErrInvalidParams = errors.New("invalid model parameters")
)
