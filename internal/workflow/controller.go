package workflow

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/example/forgery-check/internal/analysis"
	"github.com/example/forgery-check/internal/logging"
)

// Analyzer sends one image to the inference service.
type Analyzer interface {
	Analyze(ctx context.Context, img analysis.Image, endpoint string) (*analysis.Response, error)
}

// EndpointProvider returns the configured base URL, or "" if none is set.
type EndpointProvider interface {
	Endpoint(ctx context.Context) (string, error)
}

// PreviewReleaser frees a preview URL that is no longer displayed.
type PreviewReleaser interface {
	Revoke(url string)
}

const dataURLPrefix = "data:image/png;base64,"

// Controller mediates the Idle, ImageSelected, Analyzing and Results cycle.
type Controller struct {
	analyzer  Analyzer
	endpoints EndpointProvider
	previews  PreviewReleaser
	notifier  Notifier
	logger    *zap.Logger

	mu        sync.Mutex
	snap      Snapshot
	observers []Observer
}

// NewController constructs a controller in the Idle state. previews and
// notifier may be nil.
func NewController(analyzer Analyzer, endpoints EndpointProvider, previews PreviewReleaser, notifier Notifier, logger *zap.Logger) *Controller {
	if notifier == nil {
		notifier = nopNotifier{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Controller{
		analyzer:  analyzer,
		endpoints: endpoints,
		previews:  previews,
		notifier:  notifier,
		logger:    logger.Named("workflow"),
	}
}

// Observe registers o for state change callbacks.
func (c *Controller) Observe(o Observer) {
	c.mu.Lock()
	c.observers = append(c.observers, o)
	c.mu.Unlock()
}

// Snapshot returns the current state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snap
}

// SelectImage makes img the current image. Prior results are dropped and a
// replaced preview is revoked. An in-flight request becomes stale.
func (c *Controller) SelectImage(img analysis.Image, previewURL string) Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	old := c.snap.PreviewURL
	c.commit(ImageChosen{Image: img, PreviewURL: previewURL})
	if old != "" && old != previewURL {
		c.revoke(old)
	}
	c.logger.Info("image selected",
		zap.String("filename", img.Name),
		zap.Int("bytes", len(img.Data)),
		zap.Uint64("generation", c.snap.Generation))
	return c.snap
}

// ClearImage returns to Idle from any state and revokes the preview. A request
// still in flight is not aborted; its result will be discarded.
func (c *Controller) ClearImage() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	wasAnalyzing := c.snap.State == Analyzing
	if c.snap.PreviewURL != "" {
		c.revoke(c.snap.PreviewURL)
	}
	c.commit(ImageCleared{})
	c.logger.Info("image cleared", zap.Bool("abandoned_request", wasAnalyzing), zap.Uint64("generation", c.snap.Generation))
	return c.snap
}

// Analyze sends the selected image to the configured endpoint and applies the
// verdict. Exactly one request is made, and only when an image is selected
// and an endpoint is configured.
//
// If the workflow was cleared or given a new image while the request was in
// flight, the response is discarded and ErrStale is returned.
func (c *Controller) Analyze(ctx context.Context) (Snapshot, error) {
	c.mu.Lock()
	checked := c.snap
	c.mu.Unlock()
	if _, err := Reduce(checked, AnalysisStarted{}); err != nil {
		return checked, err
	}

	endpoint, err := c.endpoints.Endpoint(ctx)
	if err != nil || endpoint == "" {
		cfgErr := ErrEndpointNotConfigured
		if err != nil {
			cfgErr = fmt.Errorf("%w: %v", ErrEndpointNotConfigured, err)
		}
		c.logger.Warn("analysis requested without endpoint", zap.Error(cfgErr))
		c.notifier.Notify(notificationFor(cfgErr))
		return c.Snapshot(), cfgErr
	}

	c.mu.Lock()
	if c.snap.Generation != checked.Generation {
		current := c.snap
		c.mu.Unlock()
		if current.State == Analyzing {
			return current, ErrBusy
		}
		return current, ErrStale
	}
	if err := c.commit(AnalysisStarted{}); err != nil {
		current := c.snap
		c.mu.Unlock()
		return current, err
	}
	generation := c.snap.Generation
	img := *c.snap.Image
	c.mu.Unlock()

	requestID := fmt.Sprintf("gen-%d", generation)
	opLogger := logging.WithOperation(c.logger, "workflow.analyze", requestID)
	opLogger.Info("analysis started", zap.String("endpoint", endpoint))

	settled := false
	defer func() {
		if settled {
			return
		}
		c.mu.Lock()
		_ = c.commit(AnalysisFailed{Generation: generation})
		c.mu.Unlock()
	}()

	resp, err := c.analyzer.Analyze(ctx, img, endpoint)
	if err == nil && resp == nil {
		err = &analysis.ParseError{Err: errors.New("empty response")}
	}

	c.mu.Lock()
	if err != nil {
		commitErr := c.commit(AnalysisFailed{Generation: generation})
		settled = true
		current := c.snap
		c.mu.Unlock()
		if errors.Is(commitErr, ErrStale) {
			opLogger.Info("discarding failure of superseded request", zap.Error(err))
			return current, ErrStale
		}
		failure := &AnalysisError{Kind: Kind(err), Err: err}
		opLogger.Error("analysis failed", zap.Error(failure))
		c.notifier.Notify(notificationFor(err))
		return current, failure
	}

	classification, segmentation := interpret(resp)
	commitErr := c.commit(AnalysisSucceeded{
		Generation:     generation,
		Classification: classification,
		Segmentation:   segmentation,
	})
	settled = true
	current := c.snap
	c.mu.Unlock()
	if commitErr != nil {
		opLogger.Info("discarding response of superseded request", zap.String("status", string(resp.Status)))
		return current, commitErr
	}

	opLogger.Info("analysis complete",
		zap.String("class_name", classification.ClassName),
		zap.Float64("confidence", classification.Confidence),
		zap.Bool("segmentation", segmentation != nil))
	return current, nil
}

// commit applies e and notifies observers. Callers hold c.mu.
func (c *Controller) commit(e Event) error {
	next, err := Reduce(c.snap, e)
	if err != nil {
		return err
	}
	c.snap = next
	for _, o := range c.observers {
		o.StateChanged(next)
	}
	return nil
}

func (c *Controller) revoke(url string) {
	if c.previews != nil {
		c.previews.Revoke(url)
	}
}

// interpret turns a service response into display results. Scores are
// rescaled from 0-100 to 0-1.
func interpret(resp *analysis.Response) (*Classification, *Segmentation) {
	if resp.Authentic() {
		return &Classification{
			ClassName:  AuthenticLabel,
			Confidence: normalize(resp.Confidence),
		}, nil
	}

	var segmentation *Segmentation
	if resp.HasSegmentation() {
		segmentation = &Segmentation{
			Mask:        dataURLPrefix + resp.Mask,
			MaskedImage: dataURLPrefix + resp.MaskedImage,
		}
	}

	label := resp.ManipulationType
	if label == "" {
		label = UnknownLabel
	}
	return &Classification{
		ClassName:  label,
		Confidence: normalize(resp.TypeConfidence),
	}, segmentation
}

func normalize(score *float64) float64 {
	if score == nil {
		return 0
	}
	return *score / 100
}
