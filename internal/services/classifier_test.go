package services

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/rockquest/rockquest-backend/internal/apierror"
	"github.com/rockquest/rockquest-backend/internal/models"
)

func classifierForBody(t *testing.T, status int, body string) *Classifier {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
		w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return NewClassifierWithHTTPClient(srv.URL, 0.20, srv.Client())
}

func TestClassifyFlatList(t *testing.T) {
	c := classifierForBody(t, http.StatusOK,
		`[{"class":"granite","confidence":0.91},{"class":"basalt","confidence":0.42}]`)

	pred, err := c.Classify(context.Background(), []byte("img"))
	require.NoError(t, err)
	require.Equal(t, "granite", pred.RawLabel)
	require.InDelta(t, 0.91, pred.Confidence, 1e-9)
}

func TestClassifyNestedShapes(t *testing.T) {
	bodies := map[string]string{
		"predictions": `{"predictions":[{"class":"shale","confidence":0.77}]}`,
		"outputs":     `{"outputs":[{"predictions":[{"class":"shale","confidence":0.77}]}]}`,
		"steps":       `{"steps":[{"outputs":[{"predictions":[{"label":"shale","confidence":0.77}]}]}]}`,
	}
	for name, body := range bodies {
		t.Run(name, func(t *testing.T) {
			c := classifierForBody(t, http.StatusOK, body)
			pred, err := c.Classify(context.Background(), []byte("img"))
			require.NoError(t, err)
			require.Equal(t, "shale", pred.RawLabel)
			require.InDelta(t, 0.77, pred.Confidence, 1e-9)
		})
	}
}

func TestClassifyPicksHighestConfidence(t *testing.T) {
	c := classifierForBody(t, http.StatusOK,
		`{"predictions":[
			{"class":"basalt","confidence":0.30},
			{"class":"gneiss","confidence":0.85},
			{"class":"shale","confidence":0.55}
		]}`)

	pred, err := c.Classify(context.Background(), []byte("img"))
	require.NoError(t, err)
	require.Equal(t, "gneiss", pred.RawLabel)
}

func TestClassifyNoPredictions(t *testing.T) {
	c := classifierForBody(t, http.StatusOK, `{"predictions":[]}`)

	_, err := c.Classify(context.Background(), []byte("img"))
	require.Error(t, err)
	require.Equal(t, apierror.KindNoPrediction, apierror.From(err).Kind)
}

func TestClassifyLowConfidence(t *testing.T) {
	c := classifierForBody(t, http.StatusOK,
		`{"predictions":[{"class":"basalt","confidence":0.10}]}`)

	pred, err := c.Classify(context.Background(), []byte("img"))
	require.Error(t, err)
	require.Equal(t, apierror.KindLowConfidence, apierror.From(err).Kind)

	// The rejected best prediction is still surfaced for logging, and its
	// label normalizes to the real category rather than unknown.
	require.Equal(t, "basalt", pred.RawLabel)
	require.InDelta(t, 0.10, pred.Confidence, 1e-9)

	category, known := NormalizeCategory(pred.RawLabel)
	require.True(t, known)
	require.Equal(t, models.CategoryIgneous, category)
}

func TestClassifyUpstreamError(t *testing.T) {
	c := classifierForBody(t, http.StatusBadGateway, `upstream exploded`)

	_, err := c.Classify(context.Background(), []byte("img"))
	require.Error(t, err)
	require.Equal(t, apierror.KindUpstreamFailure, apierror.From(err).Kind)
}

func TestClassifyTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	t.Cleanup(srv.Close)

	client := srv.Client()
	client.Timeout = 20 * time.Millisecond
	c := NewClassifierWithHTTPClient(srv.URL, 0.20, client)

	_, err := c.Classify(context.Background(), []byte("img"))
	require.Error(t, err)
	require.Equal(t, apierror.KindUpstreamFailure, apierror.From(err).Kind)
}

func TestClassifyUnconfiguredEndpoint(t *testing.T) {
	c := NewClassifier("", "", 0.20, time.Second)

	_, err := c.Classify(context.Background(), []byte("img"))
	require.Error(t, err)
	require.Equal(t, apierror.KindUpstreamFailure, apierror.From(err).Kind)
}

func TestNormalizeCategory(t *testing.T) {
	cases := []struct {
		label string
		want  models.RockCategory
		known bool
	}{
		{"granite", models.CategoryIgneous, true},
		{"Basalt", models.CategoryIgneous, true},
		{"  SHALE  ", models.CategorySedimentary, true},
		{"quartzite", models.CategoryMetamorphic, true},
		{"obsidian", models.CategoryUnknown, false},
		{"", models.CategoryUnknown, false},
	}
	for _, tc := range cases {
		got, known := NormalizeCategory(tc.label)
		require.Equal(t, tc.want, got, "label %q", tc.label)
		require.Equal(t, tc.known, known, "label %q", tc.label)
	}
}
