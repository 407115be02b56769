package analysis

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/example/forgery-check/internal/logging"
)

var testImage = Image{Name: "photo.png", ContentType: "image/png", Data: []byte("\x89PNG fake")}

func TestAnalyzeURLStripsTrailingSlash(t *testing.T) {
	require.Equal(t, "https://abc.ngrok.app/analyze", AnalyzeURL("https://abc.ngrok.app/"))
	require.Equal(t, "https://abc.ngrok.app/analyze", AnalyzeURL("https://abc.ngrok.app"))
	require.Equal(t, "http://host/api/analyze", AnalyzeURL("http://host/api/"))
}

func TestAnalyzeSendsMultipartImage(t *testing.T) {
	var gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		require.Equal(t, http.MethodPost, r.Method)

		file, header, err := r.FormFile(FormField)
		require.NoError(t, err)
		defer file.Close()
		data, err := io.ReadAll(file)
		require.NoError(t, err)
		require.Equal(t, testImage.Data, data)
		require.Equal(t, "photo.png", header.Filename)
		require.Equal(t, "image/png", header.Header.Get("Content-Type"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"status":"Real","confidence":97}`)
	}))
	defer server.Close()

	client := NewClient(server.Client(), zap.NewNop())
	resp, err := client.Analyze(context.Background(), testImage, server.URL+"/")
	require.NoError(t, err)
	require.Equal(t, "/analyze", gotPath)
	require.True(t, resp.Authentic())
	require.NotNil(t, resp.Confidence)
	require.InDelta(t, 97, *resp.Confidence, 1e-9)
}

func TestAnalyzeReturnsFakePayloadUnchanged(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"status":"Fake","manipulation_type":"splicing","type_confidence":81.5,"fake_confidence":90,"mask":"AAAA","masked_image":"BBBB","overlay":"CCCC"}`)
	}))
	defer server.Close()

	resp, err := NewClient(server.Client(), zap.NewNop()).Analyze(context.Background(), testImage, server.URL)
	require.NoError(t, err)
	require.False(t, resp.Authentic())
	require.True(t, resp.HasSegmentation())
	require.Equal(t, "splicing", resp.ManipulationType)
	require.InDelta(t, 81.5, *resp.TypeConfidence, 1e-9)
	require.Equal(t, "CCCC", resp.Overlay)
	require.Nil(t, resp.Confidence)
}

func TestAnalyzeNonSuccessStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = io.WriteString(w, `{"error":"model crashed"}`)
	}))
	defer server.Close()

	_, err := NewClient(server.Client(), zap.NewNop()).Analyze(context.Background(), testImage, server.URL)
	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	require.Equal(t, http.StatusInternalServerError, statusErr.Code)
	require.Equal(t, "Server error: Internal Server Error", err.Error())
}

func TestAnalyzeErrorFieldOverridesSuccessStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"status":"Real","confidence":99,"error":"no face found"}`)
	}))
	defer server.Close()

	_, err := NewClient(server.Client(), zap.NewNop()).Analyze(context.Background(), testImage, server.URL)
	var appErr *ApplicationError
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, "no face found", appErr.Message)
}

func TestAnalyzeMalformedJSON(t *testing.T) {
	bodies := map[string]string{
		"html":          `<html>ngrok offline</html>`,
		"null":          `null`,
		"padded null":   " null\n",
		"trailing data": `{"status":"Real","confidence":97} trailing-garbage`,
		"two objects":   `{"status":"Real"}{"status":"Fake"}`,
		"empty":         ``,
	}

	for name, body := range bodies {
		t.Run(name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				_, _ = io.WriteString(w, body)
			}))
			defer server.Close()

			resp, err := NewClient(server.Client(), zap.NewNop()).Analyze(context.Background(), testImage, server.URL)
			require.Nil(t, resp)
			var parseErr *ParseError
			require.ErrorAs(t, err, &parseErr)
		})
	}
}

func TestAnalyzeNetworkFailureIsOperationError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	_, err := NewClient(nil, nil).Analyze(context.Background(), testImage, url)
	require.Error(t, err)
	var opErr *logging.OperationError
	require.True(t, errors.As(err, &opErr))
	require.Equal(t, "analysis.post", opErr.Operation)
	require.NotEmpty(t, opErr.RequestID)
}
