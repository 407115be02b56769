// Package render turns workflow snapshots into what the page displays. It
// holds no state of its own.
package render

import (
	"strconv"

	"github.com/example/forgery-check/internal/workflow"
)

// Screen names the top-level view to show.
type Screen string

const (
	ScreenUpload    Screen = "upload"
	ScreenLoading   Screen = "loading"
	ScreenAuthentic Screen = "authentic"
	ScreenAnalysis  Screen = "analysis"
)

// Tab names on the analysis screen.
const (
	TabSegmentation   = "segmentation"
	TabClassification = "classification"
)

// Asset names accepted by the download route.
const (
	AssetMask        = "mask"
	AssetMaskedImage = "masked-image"
)

// Download describes one downloadable result image.
type Download struct {
	Asset    string `json:"asset"`
	Label    string `json:"label"`
	Filename string `json:"filename"`
	URL      string `json:"url"`
}

// View is the rendered page model.
type View struct {
	Screen         Screen                   `json:"screen"`
	State          workflow.State           `json:"state"`
	PreviewURL     string                   `json:"preview_url,omitempty"`
	CanAnalyze     bool                     `json:"can_analyze"`
	Classification *workflow.Classification `json:"classification,omitempty"`
	Segmentation   *workflow.Segmentation   `json:"segmentation,omitempty"`
	ConfidenceText string                   `json:"confidence_text,omitempty"`
	Tabs           []string                 `json:"tabs,omitempty"`
	ActiveTab      string                   `json:"active_tab,omitempty"`
	Downloads      []Download               `json:"downloads,omitempty"`
}

// Render builds the view for s.
func Render(s workflow.Snapshot) View {
	v := View{State: s.State, PreviewURL: s.PreviewURL}

	switch s.State {
	case workflow.Idle:
		v.Screen = ScreenUpload
	case workflow.ImageSelected:
		v.Screen = ScreenUpload
		v.CanAnalyze = true
	case workflow.Analyzing:
		v.Screen = ScreenLoading
	case workflow.Results:
		v.Classification = s.Classification
		v.ConfidenceText = FormatPercent(s.Classification.Confidence)
		if s.Classification.Authentic() {
			v.Screen = ScreenAuthentic
			return v
		}
		v.Screen = ScreenAnalysis
		v.Segmentation = s.Segmentation
		if s.Segmentation != nil {
			v.Tabs = []string{TabSegmentation, TabClassification}
			v.Downloads = downloads()
		} else {
			v.Tabs = []string{TabClassification}
		}
		v.ActiveTab = v.Tabs[0]
	}
	return v
}

func downloads() []Download {
	return []Download{
		{Asset: AssetMask, Label: "Generated Mask", Filename: "segmentation-mask.png", URL: "/results/" + AssetMask},
		{Asset: AssetMaskedImage, Label: "Masked Image", Filename: "masked-image.png", URL: "/results/" + AssetMaskedImage},
	}
}

// FormatPercent renders a 0-1 confidence as a one-decimal percentage.
func FormatPercent(confidence float64) string {
	return strconv.FormatFloat(confidence*100, 'f', 1, 64) + "%"
}
