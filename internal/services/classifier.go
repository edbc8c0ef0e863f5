package services

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/rockquest/rockquest-backend/internal/apierror"
	"github.com/rockquest/rockquest-backend/internal/models"
)

// Prediction is one classification result from the inference endpoint.
type Prediction struct {
	RawLabel   string
	Confidence float64
}

// Classifier wraps the external rock-classification endpoint. The response
// shape varies between deployments (flat list, nested under "predictions",
// "outputs", or "steps"), so extraction unwraps all observed forms.
type Classifier struct {
	endpoint      string
	apiKey        string
	minConfidence float64
	httpClient    *http.Client
}

func NewClassifier(endpoint, apiKey string, minConfidence float64, timeout time.Duration) *Classifier {
	tr := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:        10,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
	}
	return &Classifier{
		endpoint:      strings.TrimRight(strings.TrimSpace(endpoint), "/"),
		apiKey:        strings.TrimSpace(apiKey),
		minConfidence: minConfidence,
		httpClient:    &http.Client{Transport: tr, Timeout: timeout},
	}
}

// NewClassifierWithHTTPClient is intended for tests; it avoids network access
// by using a custom client.
func NewClassifierWithHTTPClient(endpoint string, minConfidence float64, httpClient *http.Client) *Classifier {
	return &Classifier{endpoint: endpoint, minConfidence: minConfidence, httpClient: httpClient}
}

type classifyRequest struct {
	Image string `json:"image"`
}

// Classify sends the image to the inference endpoint and returns the
// highest-confidence prediction. Failure modes are distinct: no_prediction
// (empty result set), low_confidence (best result under the acceptance gate)
// and upstream_failure (transport error, timeout, non-2xx).
func (c *Classifier) Classify(ctx context.Context, image []byte) (Prediction, error) {
	if c.endpoint == "" {
		return Prediction{}, apierror.New(apierror.KindUpstreamFailure, "inference endpoint not configured")
	}

	payload, err := json.Marshal(classifyRequest{Image: base64.StdEncoding.EncodeToString(image)})
	if err != nil {
		return Prediction{}, err
	}

	url := c.endpoint
	if c.apiKey != "" {
		url += "?api_key=" + c.apiKey
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return Prediction{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || isTimeout(err) {
			return Prediction{}, apierror.Wrap(apierror.KindUpstreamFailure, "inference request timed out", err)
		}
		return Prediction{}, apierror.Wrap(apierror.KindUpstreamFailure, "inference request failed", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return Prediction{}, apierror.Wrap(apierror.KindUpstreamFailure, "failed to read inference response", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return Prediction{}, apierror.New(apierror.KindUpstreamFailure,
			fmt.Sprintf("inference service returned status %d", resp.StatusCode))
	}

	preds := extractPredictions(body)
	if len(preds) == 0 {
		return Prediction{}, apierror.New(apierror.KindNoPrediction, "classifier returned no predictions")
	}

	best := preds[0]
	for _, p := range preds[1:] {
		if p.Confidence > best.Confidence {
			best = p
		}
	}

	if best.Confidence < c.minConfidence {
		return best, apierror.New(apierror.KindLowConfidence,
			fmt.Sprintf("confidence %.2f below acceptance threshold %.2f", best.Confidence, c.minConfidence))
	}
	return best, nil
}

// extractPredictions walks the decoded response for prediction objects,
// wherever the deployment nests them: a flat top-level list, under
// "predictions", under "outputs", or under "steps".
func extractPredictions(body []byte) []Prediction {
	var decoded interface{}
	if err := json.Unmarshal(body, &decoded); err != nil {
		return nil
	}
	var preds []Prediction
	collectPredictions(decoded, &preds, 0)
	return preds
}

func collectPredictions(node interface{}, out *[]Prediction, depth int) {
	if depth > 6 {
		return
	}
	switch v := node.(type) {
	case []interface{}:
		for _, item := range v {
			collectPredictions(item, out, depth+1)
		}
	case map[string]interface{}:
		if p, ok := predictionFromMap(v); ok {
			*out = append(*out, p)
			return
		}
		for _, key := range []string{"predictions", "outputs", "steps"} {
			if child, ok := v[key]; ok {
				collectPredictions(child, out, depth+1)
			}
		}
	}
}

func predictionFromMap(m map[string]interface{}) (Prediction, bool) {
	conf, ok := m["confidence"].(float64)
	if !ok {
		return Prediction{}, false
	}
	label, ok := m["class"].(string)
	if !ok {
		label, ok = m["label"].(string)
	}
	if !ok || label == "" {
		return Prediction{}, false
	}
	return Prediction{RawLabel: label, Confidence: conf}, true
}

// rockCategories maps the classifier's fixed label vocabulary onto the
// three-category taxonomy.
var rockCategories = map[string]models.RockCategory{
	"basalt":       models.CategoryIgneous,
	"dolerite":     models.CategoryIgneous,
	"granite":      models.CategoryIgneous,
	"norite":       models.CategoryIgneous,
	"tuff":         models.CategoryIgneous,
	"conglomerate": models.CategorySedimentary,
	"limestone":    models.CategorySedimentary,
	"mudstone":     models.CategorySedimentary,
	"sandstone":    models.CategorySedimentary,
	"shale":        models.CategorySedimentary,
	"gneiss":       models.CategoryMetamorphic,
	"quartzite":    models.CategoryMetamorphic,
	"schist":       models.CategoryMetamorphic,
}

// NormalizeCategory maps a raw classifier label onto the fixed taxonomy.
// Labels outside the known vocabulary return (CategoryUnknown, false) so the
// caller can decide policy instead of the label being silently misfiled.
func NormalizeCategory(rawLabel string) (models.RockCategory, bool) {
	if cat, ok := rockCategories[strings.ToLower(strings.TrimSpace(rawLabel))]; ok {
		return cat, true
	}
	return models.CategoryUnknown, false
}

func isTimeout(err error) bool {
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
