package ocr

import (
	"context"
	"log/slog"

	"igreport/internal/extraction"
	"igreport/internal/logging"
	"igreport/internal/services"
)

// Recognizer turns a preprocessed PNG into raw text.
type Recognizer interface {
	Recognize(ctx context.Context, png []byte) (string, error)
}

// RecognizerFunc adapts a function to the Recognizer interface.
type RecognizerFunc func(ctx context.Context, png []byte) (string, error)

// Recognize calls f.
func (f RecognizerFunc) Recognize(ctx context.Context, png []byte) (string, error) {
	return f(ctx, png)
}

// Extractor runs the local pass. It never returns an error; failures are
// carried on the result.
type Extractor struct {
	recognizer Recognizer
	logger     *slog.Logger
}

// NewExtractor builds an extractor around the supplied recognizer.
func NewExtractor(recognizer Recognizer, logger *slog.Logger) *Extractor {
	return &Extractor{
		recognizer: recognizer,
		logger:     logging.NewComponentLogger(logger, "ocr"),
	}
}

// Extract preprocesses data, recognizes its text, and applies the identity
// and follower heuristics.
func (e *Extractor) Extract(ctx context.Context, data []byte) extraction.Result {
	logger := logging.WithContext(ctx, e.logger)

	processed, err := Preprocess(data)
	if err != nil {
		logging.WarnWithContext(logger, "local extraction could not decode image", "local_decode_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "send a PNG or JPEG screenshot"),
		)
		return failed(services.Wrap(services.ErrLocalDecode, "local", "decode", "", err))
	}

	if e.recognizer == nil {
		return failed(services.Wrap(services.ErrConfiguration, "local", "recognize", "no recognizer configured", nil))
	}
	text, err := e.recognizer.Recognize(ctx, processed)
	if err != nil {
		logging.WarnWithContext(logger, "local text recognition failed", "local_recognize_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check the tesseract installation and language data"),
		)
		return failed(services.Wrap(services.ErrLocalDecode, "local", "recognize", "", err))
	}

	identity := FindIdentity(text)
	followers := FindFollowers(text)
	result := extraction.Result{
		Identity:     identity,
		FollowersRaw: followers,
		Confidence:   extraction.Float(Confidence(identity, followers)),
		Source:       extraction.SourceLocal,
	}
	if result.Empty() {
		result.Err = services.Wrap(services.ErrLocalMiss, "local", "heuristics", "no identity or followers found", nil)
	}

	logger.Debug("local extraction complete",
		logging.String("identity", identity),
		logging.String("followers_raw", followers),
		logging.Float64("confidence", result.ConfidenceValue()),
		logging.Int("text_length", len(text)),
	)
	return result
}

func failed(err error) extraction.Result {
	return extraction.Result{
		Confidence: extraction.Float(0),
		Source:     extraction.SourceLocal,
		Err:        err,
	}
}
