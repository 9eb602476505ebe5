package out

import "context"

// AILabel is the fixed vocabulary the text-classification collaborator
// may answer with. Anything else degrades to LabelUnknown.
type AILabel string

const (
	LabelNewInquiry AILabel = "new-customer-inquiry"
	LabelMarketing  AILabel = "marketing/spam"
	LabelInternal   AILabel = "internal"
	LabelUnknown    AILabel = "unknown"
)

// ClassifyInput carries the excerpt sent to the classifier.
type ClassifyInput struct {
	From    string
	Subject string
	Body    string
}

// TextClassifier is the outbound port for the black-box AI classifier.
// One blocking call, per-call timeout, no retry; implementations must
// map any failure to (LabelUnknown, nil) rather than surfacing errors
// that would abort message processing.
type TextClassifier interface {
	Classify(ctx context.Context, input *ClassifyInput) (AILabel, error)
}
