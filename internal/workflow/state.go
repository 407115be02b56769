// Package workflow owns the upload, analyze and render cycle of a single
// image: which image is selected, whether a request is in flight, and what
// the inference service said about it.
package workflow

import (
	"errors"
	"fmt"

	"github.com/example/forgery-check/internal/analysis"
)

// State is one of the four workflow states.
type State int

const (
	Idle State = iota
	ImageSelected
	Analyzing
	Results
)

var stateNames = [...]string{
	Idle:          "idle",
	ImageSelected: "image_selected",
	Analyzing:     "analyzing",
	Results:       "results",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return fmt.Sprintf("state(%d)", int(s))
	}
	return stateNames[s]
}

// MarshalText renders the state by name in JSON.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText parses a state name.
func (s *State) UnmarshalText(text []byte) error {
	for i, name := range stateNames {
		if name == string(text) {
			*s = State(i)
			return nil
		}
	}
	return fmt.Errorf("unknown workflow state %q", text)
}

// AuthenticLabel is the class name used for images judged real.
const AuthenticLabel = "Authentic"

// UnknownLabel is used when a manipulation verdict carries no type.
const UnknownLabel = "Unknown"

// Classification is the predicted label with a confidence in [0, 1].
type Classification struct {
	ClassID    int     `json:"class_id"`
	ClassName  string  `json:"class_name"`
	Confidence float64 `json:"confidence"`
}

// Authentic reports whether the classification is the real-image verdict.
func (c *Classification) Authentic() bool {
	return c != nil && c.ClassName == AuthenticLabel
}

// Segmentation holds the mask pair as data URLs.
type Segmentation struct {
	Mask        string `json:"mask"`
	MaskedImage string `json:"maskedImage"`
}

// Snapshot is the complete workflow state. It is only changed through Reduce.
type Snapshot struct {
	State          State           `json:"state"`
	Image          *analysis.Image `json:"-"`
	PreviewURL     string          `json:"preview_url,omitempty"`
	Classification *Classification `json:"classification,omitempty"`
	Segmentation   *Segmentation   `json:"segmentation,omitempty"`
	Generation     uint64          `json:"generation"`
}

var (
	ErrNoImage   = errors.New("no image selected")
	ErrBusy      = errors.New("analysis already in progress")
	ErrNotReady  = errors.New("results are already displayed; select a new image first")
	ErrStale     = errors.New("analysis result belongs to a superseded request")
	errNoVerdict = errors.New("analysis succeeded without a classification")
)

// Event is an input to Reduce.
type Event interface {
	isEvent()
}

// ImageChosen selects a new image, replacing whatever was shown before.
type ImageChosen struct {
	Image      analysis.Image
	PreviewURL string
}

// ImageCleared returns the workflow to Idle.
type ImageCleared struct{}

// AnalysisStarted marks the selected image as being analyzed.
type AnalysisStarted struct{}

// AnalysisSucceeded applies the results of the request started at Generation.
type AnalysisSucceeded struct {
	Generation     uint64
	Classification *Classification
	Segmentation   *Segmentation
}

// AnalysisFailed ends the request started at Generation without results.
type AnalysisFailed struct {
	Generation uint64
}

func (ImageChosen) isEvent()       {}
func (ImageCleared) isEvent()      {}
func (AnalysisStarted) isEvent()   {}
func (AnalysisSucceeded) isEvent() {}
func (AnalysisFailed) isEvent()    {}

// Reduce computes the state that follows s on event e. When the transition is
// not allowed it returns s unchanged together with an error.
//
// Every transition that invalidates an in-flight request bumps Generation, so
// completions carrying an older generation are rejected with ErrStale.
func Reduce(s Snapshot, e Event) (Snapshot, error) {
	switch ev := e.(type) {
	case ImageChosen:
		img := ev.Image
		return Snapshot{
			State:      ImageSelected,
			Image:      &img,
			PreviewURL: ev.PreviewURL,
			Generation: s.Generation + 1,
		}, nil

	case ImageCleared:
		return Snapshot{State: Idle, Generation: s.Generation + 1}, nil

	case AnalysisStarted:
		switch s.State {
		case Idle:
			return s, ErrNoImage
		case Analyzing:
			return s, ErrBusy
		case Results:
			return s, ErrNotReady
		}
		next := s
		next.State = Analyzing
		next.Classification = nil
		next.Segmentation = nil
		next.Generation = s.Generation + 1
		return next, nil

	case AnalysisSucceeded:
		if s.State != Analyzing || ev.Generation != s.Generation {
			return s, ErrStale
		}
		if ev.Classification == nil {
			return s, errNoVerdict
		}
		next := s
		next.State = Results
		next.Classification = ev.Classification
		next.Segmentation = ev.Segmentation
		return next, nil

	case AnalysisFailed:
		if s.State != Analyzing || ev.Generation != s.Generation {
			return s, ErrStale
		}
		next := s
		next.State = ImageSelected
		next.Classification = nil
		next.Segmentation = nil
		return next, nil
	}
	return s, fmt.Errorf("unknown workflow event %T", e)
}
