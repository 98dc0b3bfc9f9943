package controller

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"

	"github.com/nabilhasan01/CSE499A/internal/model"
)

// maxBody caps how much of any response the loop reads.
const maxBody = 16 << 20

// Client talks to the camera node and the prediction service.
type Client struct {
	http       *http.Client
	predictURL string
}

func NewClient(httpClient *http.Client, predictURL string) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{http: httpClient, predictURL: strings.TrimRight(predictURL, "/")}
}

// FetchFrame downloads the current camera image and checks that it decodes.
func (c *Client) FetchFrame(ctx context.Context, url string) ([]byte, error) {
	const op = "fetch frame"
	body, err := c.get(ctx, op, url)
	if err != nil {
		return nil, err
	}
	if _, _, err := image.DecodeConfig(bytes.NewReader(body)); err != nil {
		return nil, decodeErr(op, err)
	}
	return body, nil
}

// ClassifyLeaf uploads a frame to /leaf-predict/.
func (c *Client) ClassifyLeaf(ctx context.Context, frame []byte) (string, error) {
	const op = "leaf predict"

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="file"; filename="image.jpg"`)
	h.Set("Content-Type", http.DetectContentType(frame))
	part, err := w.CreatePart(h)
	if err != nil {
		return "", decodeErr(op, err)
	}
	if _, err := part.Write(frame); err != nil {
		return "", decodeErr(op, err)
	}
	if err := w.Close(); err != nil {
		return "", decodeErr(op, err)
	}

	var out model.ClassificationResult
	if err := c.post(ctx, op, "/leaf-predict/", w.FormDataContentType(), &buf, &out); err != nil {
		return "", err
	}
	if out.PredictedClass == "" {
		return "", decodeErr(op, errors.New("empty predicted_class"))
	}
	return out.PredictedClass, nil
}

// RecommendCrop posts a reading to /soil-predict/.
func (c *Client) RecommendCrop(ctx context.Context, r model.SensorReading) (string, error) {
	const op = "soil predict"

	payload, err := json.Marshal(r)
	if err != nil {
		return "", decodeErr(op, err)
	}

	var out model.CropRecommendation
	if err := c.post(ctx, op, "/soil-predict/", "application/json", bytes.NewReader(payload), &out); err != nil {
		return "", err
	}
	if out.RecommendedCrop == "" {
		return "", decodeErr(op, errors.New("empty recommended crop"))
	}
	return out.RecommendedCrop, nil
}

func (c *Client) get(ctx context.Context, op, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, networkErr(op, err)
	}
	return c.do(op, req)
}

func (c *Client) post(ctx context.Context, op, path, contentType string, body io.Reader, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.predictURL+path, body)
	if err != nil {
		return networkErr(op, err)
	}
	req.Header.Set("Content-Type", contentType)

	raw, err := c.do(op, req)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return decodeErr(op, fmt.Errorf("parse response: %w", err))
	}
	return nil
}

// do sends req and returns the body of a 200 response.
func (c *Client) do(op string, req *http.Request) ([]byte, error) {
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, networkErr(op, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return nil, networkErr(op, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &FetchError{
			Op:         op,
			Kind:       KindStatus,
			StatusCode: resp.StatusCode,
			Body:       errorMessage(body),
		}
	}
	return body, nil
}

// errorMessage pulls "error" out of a JSON error envelope, falling back to
// the raw body.
func errorMessage(body []byte) string {
	var env model.ErrorResponse
	if json.Unmarshal(body, &env) == nil && env.Error != "" {
		return env.Error
	}
	s := strings.TrimSpace(string(body))
	if len(s) > 200 {
		s = s[:200]
	}
	return s
}
