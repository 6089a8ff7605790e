package classifier

import (
	"context"
	"errors"
)

// ErrUnavailable is returned when no backend produced a usable probability
var ErrUnavailable = errors.New("external classifier unavailable")

// Outcome is the resolved result of one external classification call.
// Unavailability is a value, not a failure of the request.
type Outcome struct {
	Probability float64 // AI probability in [0,1]; meaningful only when Available
	Available   bool
	Source      string // e.g. "huggingface:roberta-large-openai-detector"
	Err         error  // Why the signal is unavailable
}

// Unavailable builds an unavailable outcome
func Unavailable(err error) Outcome {
	if err == nil {
		err = ErrUnavailable
	}
	return Outcome{Err: err}
}

// Classifier estimates the probability that text is AI-generated
type Classifier interface {
	Classify(ctx context.Context, text string) Outcome
}

// Disabled never produces a signal
type Disabled struct{}

// Classify always reports the signal as unavailable
func (Disabled) Classify(ctx context.Context, text string) Outcome {
	return Unavailable(errors.New("external classifier disabled"))
}

// Func adapts a function to the Classifier interface
type Func func(ctx context.Context, text string) Outcome

// Classify calls f
func (f Func) Classify(ctx context.Context, text string) Outcome {
	return f(ctx, text)
}
