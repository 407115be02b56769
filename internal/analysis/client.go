package analysis

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/example/forgery-check/internal/logging"
)

var errNullResponse = errors.New("null response body")

const (
	// FormField is the multipart field carrying the image bytes.
	FormField = "image"
	// AnalyzePath is appended to the configured endpoint.
	AnalyzePath = "/analyze"

	defaultFilename    = "upload"
	defaultContentType = "application/octet-stream"
)

// Client performs the single multipart upload against the inference service.
// It does not retry and sets no timeout of its own.
type Client struct {
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient builds a client. A nil httpClient gets a fresh one without a timeout.
func NewClient(httpClient *http.Client, logger *zap.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{httpClient: httpClient, logger: logger.Named("analysis_client")}
}

// AnalyzeURL strips one trailing slash from endpoint and appends the analyze path.
func AnalyzeURL(endpoint string) string {
	return strings.TrimSuffix(endpoint, "/") + AnalyzePath
}

// Analyze posts img to {endpoint}/analyze and returns the decoded response.
func (c *Client) Analyze(ctx context.Context, img Image, endpoint string) (*Response, error) {
	requestID := uuid.NewString()
	target := AnalyzeURL(endpoint)
	opLogger := logging.WithOperation(c.logger, "analysis.analyze", requestID).With(zap.String("url", target))

	body, contentType, err := buildForm(img)
	if err != nil {
		return nil, logging.NewOperationError("analysis.build_form", requestID, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, body)
	if err != nil {
		return nil, logging.NewOperationError("analysis.new_request", requestID, err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", requestID)

	opLogger.Info("sending image for analysis", zap.String("filename", img.Name), zap.Int("bytes", len(img.Data)))
	resp, err := c.httpClient.Do(req)
	if err != nil {
		wrapped := logging.NewOperationError("analysis.post", requestID, err)
		opLogger.Error("analysis request failed", zap.Error(wrapped))
		return nil, wrapped
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		statusErr := &StatusError{Code: resp.StatusCode, StatusText: statusText(resp)}
		opLogger.Warn("analysis service returned error status", zap.Int("status", resp.StatusCode))
		return nil, statusErr
	}

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		opLogger.Warn("unreadable analysis response", zap.Error(err))
		return nil, &ParseError{Err: err}
	}

	// A bare null decodes into the zero Response without error.
	if bytes.Equal(bytes.TrimSpace(respBody), []byte("null")) {
		opLogger.Warn("null analysis response")
		return nil, &ParseError{Err: errNullResponse}
	}

	var payload Response
	if err := json.Unmarshal(respBody, &payload); err != nil {
		opLogger.Warn("undecodable analysis response", zap.Error(err))
		return nil, &ParseError{Err: err}
	}

	if payload.Error != "" {
		opLogger.Warn("analysis service reported an error", zap.String("error", payload.Error))
		return nil, &ApplicationError{Message: payload.Error}
	}

	opLogger.Info("analysis response received", zap.String("status", string(payload.Status)))
	return &payload, nil
}

func buildForm(img Image) (*bytes.Buffer, string, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	filename := img.Name
	if filename == "" {
		filename = defaultFilename
	}
	contentType := img.ContentType
	if contentType == "" {
		contentType = defaultContentType
	}

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`, FormField, escapeQuotes(filename)))
	header.Set("Content-Type", contentType)

	part, err := writer.CreatePart(header)
	if err != nil {
		return nil, "", err
	}
	if _, err := part.Write(img.Data); err != nil {
		return nil, "", err
	}
	if err := writer.Close(); err != nil {
		return nil, "", err
	}
	return body, writer.FormDataContentType(), nil
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func escapeQuotes(s string) string {
	return quoteEscaper.Replace(s)
}

// statusText returns the reason phrase the server sent, falling back to the
// canonical text for the code.
func statusText(resp *http.Response) string {
	if text := strings.TrimSpace(strings.TrimPrefix(resp.Status, strconv.Itoa(resp.StatusCode))); text != "" {
		return text
	}
	return http.StatusText(resp.StatusCode)
}
