package coordinator

import "github.com/absmach/voicefed/pkg/fl"

const (
	reasonCorrect  = "prediction confirmed by user"
	reasonRejected = "only CORRECT feedback contributes to the federated model"
)

// Decision is the gate's verdict on one feedback record.
type Decision struct {
	Eligible bool
	Reason   string
}

// Admit decides whether a record may enter the aggregation queue. Only records
// confirmed as CORRECT are eligible; everything else is logged and kept away
// from the model.
func Admit(rec fl.FeedbackRecord) Decision {
	if rec.FeedbackType == fl.Correct {
		return Decision{Eligible: true, Reason: reasonCorrect}
	}

	return Decision{Eligible: false, Reason: reasonRejected}
}
