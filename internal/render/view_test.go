package render

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/example/forgery-check/internal/analysis"
	"github.com/example/forgery-check/internal/workflow"
)

func results(c *workflow.Classification, s *workflow.Segmentation) workflow.Snapshot {
	return workflow.Snapshot{
		State:          workflow.Results,
		Image:          &analysis.Image{Name: "a.png"},
		PreviewURL:     "/previews/a",
		Classification: c,
		Segmentation:   s,
	}
}

func TestRenderUploadScreens(t *testing.T) {
	v := Render(workflow.Snapshot{})
	require.Equal(t, ScreenUpload, v.Screen)
	require.False(t, v.CanAnalyze)

	v = Render(workflow.Snapshot{State: workflow.ImageSelected, PreviewURL: "/previews/a"})
	require.Equal(t, ScreenUpload, v.Screen)
	require.True(t, v.CanAnalyze)
	require.Equal(t, "/previews/a", v.PreviewURL)

	v = Render(workflow.Snapshot{State: workflow.Analyzing, PreviewURL: "/previews/a"})
	require.Equal(t, ScreenLoading, v.Screen)
	require.False(t, v.CanAnalyze)
}

func TestRenderAuthentic(t *testing.T) {
	v := Render(results(&workflow.Classification{ClassName: workflow.AuthenticLabel, Confidence: 0.97}, nil))
	require.Equal(t, ScreenAuthentic, v.Screen)
	require.Equal(t, "97.0%", v.ConfidenceText)
	require.Empty(t, v.Tabs)
	require.Empty(t, v.Downloads)
}

func TestRenderAnalysisWithSegmentation(t *testing.T) {
	v := Render(results(
		&workflow.Classification{ClassName: "splicing", Confidence: 0.815},
		&workflow.Segmentation{Mask: "data:image/png;base64,AAAA", MaskedImage: "data:image/png;base64,BBBB"},
	))
	require.Equal(t, ScreenAnalysis, v.Screen)
	require.Equal(t, []string{TabSegmentation, TabClassification}, v.Tabs)
	require.Equal(t, TabSegmentation, v.ActiveTab)
	require.Len(t, v.Downloads, 2)
	require.Equal(t, "segmentation-mask.png", v.Downloads[0].Filename)
	require.Equal(t, "81.5%", v.ConfidenceText)
}

func TestRenderAnalysisWithoutSegmentation(t *testing.T) {
	v := Render(results(&workflow.Classification{ClassName: workflow.UnknownLabel}, nil))
	require.Equal(t, ScreenAnalysis, v.Screen)
	require.Equal(t, []string{TabClassification}, v.Tabs)
	require.Equal(t, TabClassification, v.ActiveTab)
	require.Empty(t, v.Downloads)
	require.Equal(t, "0.0%", v.ConfidenceText)
}

func TestDecodeDataURL(t *testing.T) {
	mime, data, err := DecodeDataURL("data:image/png;base64,aGVsbG8=")
	require.NoError(t, err)
	require.Equal(t, "image/png", mime)
	require.Equal(t, []byte("hello"), data)

	for _, bad := range []string{"aGVsbG8=", "data:image/png,aGVsbG8=", "data:image/png;base64", "data:image/png;base64,!!!"} {
		_, _, err := DecodeDataURL(bad)
		require.ErrorIs(t, err, ErrInvalidDataURL, bad)
	}
}

func TestAsset(t *testing.T) {
	snap := results(
		&workflow.Classification{ClassName: "splicing"},
		&workflow.Segmentation{Mask: "data:image/png;base64,AAAA", MaskedImage: "data:image/png;base64,BBBB"},
	)

	d, dataURL, ok := Asset(snap, AssetMaskedImage)
	require.True(t, ok)
	require.Equal(t, "masked-image.png", d.Filename)
	require.Equal(t, "data:image/png;base64,BBBB", dataURL)

	_, _, ok = Asset(snap, "overlay")
	require.False(t, ok)

	_, _, ok = Asset(workflow.Snapshot{State: workflow.ImageSelected}, AssetMask)
	require.False(t, ok)
}
