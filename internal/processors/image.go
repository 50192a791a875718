package processors

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// OCRClient calls an external OCR/image-description service, mirroring the
// embedding client's TEI-style HTTP shape: a base URL, a single POST, a
// JSON response. A nil OCRClient makes ImageProcessor degrade to
// technical-metadata-only extraction (no ocr_text, no image_description):
// both are stored, the user summary is never touched, and an image
// resource with neither is still valid, just unsearchable by OCR text.
type OCRClient interface {
	// Describe returns (ocr_text, image_description) for image bytes.
	Describe(ctx context.Context, data []byte) (ocrText, description string, err error)
}

// HTTPOCRClient implements OCRClient against a TEI-compatible HTTP
// endpoint accepting raw image bytes and returning JSON.
type HTTPOCRClient struct {
	BaseURL string
	Client  *http.Client
}

type ocrResponse struct {
	OCRText     string `json:"ocr_text"`
	Description string `json:"description"`
}

// Describe posts data to BaseURL+"/describe" and parses the JSON response.
func (c *HTTPOCRClient) Describe(ctx context.Context, data []byte) (string, string, error) {
	httpClient := c.Client
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/describe", bytes.NewReader(data))
	if err != nil {
		return "", "", fmt.Errorf("ocr: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/octet-stream")

	resp, err := httpClient.Do(req)
	if err != nil {
		return "", "", fmt.Errorf("ocr: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", "", fmt.Errorf("ocr: status %d: %s", resp.StatusCode, body)
	}

	var parsed ocrResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", "", fmt.Errorf("ocr: decode response: %w", err)
	}
	return parsed.OCRText, parsed.Description, nil
}

// ImageProcessor emits a single Unit carrying OCR text, with the image
// description recorded separately in TechnicalMetadata for the Ingestion
// Coordinator to thread onto the Chunk.
type ImageProcessor struct {
	OCR OCRClient
}

// CanProcess reports whether mimeType is a supported raster image format.
func (p *ImageProcessor) CanProcess(mimeType string) bool {
	switch mimeType {
	case "image/png", "image/jpeg", "image/webp", "image/gif":
		return true
	default:
		return false
	}
}

// Process calls OCR if configured; a nil or failing OCR client degrades to
// metadata-only, never failing ingestion over an OCR outage.
func (p *ImageProcessor) Process(ctx context.Context, data []byte) (Result, error) {
	meta := map[string]string{"type": "image"}

	if p.OCR == nil {
		return Result{Units: []Unit{{Key: "0", Text: ""}}, TechnicalMetadata: meta}, nil
	}

	ocrText, description, err := p.OCR.Describe(ctx, data)
	if err != nil {
		meta["ocr_error"] = err.Error()
		return Result{Units: []Unit{{Key: "0", Text: ""}}, TechnicalMetadata: meta}, nil
	}

	meta["image_description"] = description
	return Result{
		RawText:           ocrText,
		Units:             []Unit{{Key: "0", Text: ocrText}},
		TechnicalMetadata: meta,
	}, nil
}
