package synth

import "errors"

var (
	// ErrInvalidDimensions is returned when the image plane cannot host any
	// footprint center (zero-area placement region or non-positive dims).
	ErrInvalidDimensions = errors.New("invalid dimensions")

	// ErrInvalidOptions is returned by Options.Validate for any other bad parameter.
	ErrInvalidOptions = errors.New("invalid options")

	// ErrCorrelatedField is returned when the covariance factorization fails.
	ErrCorrelatedField = errors.New("correlated-field generation failed")

	// ErrVisualization wraps failures of the injected visualizer.
	ErrVisualization = errors.New("visualization failed")
)
