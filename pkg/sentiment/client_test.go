package sentiment

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dealerhub/dealerhub/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return New(&config.SentimentConfig{URL: server.URL, Timeout: time.Second})
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name     string
		response string
		want     string
	}{
		{name: "positive", response: `{"sentiment":"positive"}`, want: Positive},
		{name: "upper case", response: `{"sentiment":"NEGATIVE"}`, want: Negative},
		{name: "short label", response: `{"sentiment":"neu"}`, want: Neutral},
		{name: "unexpected label", response: `{"sentiment":"mixed"}`, want: Unknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				fmt.Fprint(w, tt.response)
			})

			got, err := client.Classify(context.Background(), "some text")
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestClassify_EscapesText(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/analyze/great%20car%2Fnice%3F", r.URL.EscapedPath())
		fmt.Fprint(w, `{"sentiment":"positive"}`)
	})

	got, err := client.Classify(context.Background(), "great car/nice?")
	require.NoError(t, err)
	assert.Equal(t, Positive, got)
}

func TestClassify_Errors(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
		wantErr error
	}{
		{
			name:    "empty sentiment",
			handler: func(w http.ResponseWriter, r *http.Request) { fmt.Fprint(w, `{"sentiment":""}`) },
			wantErr: ErrNoSentiment,
		},
		{
			name:    "missing field",
			handler: func(w http.ResponseWriter, r *http.Request) { fmt.Fprint(w, `{}`) },
			wantErr: ErrNoSentiment,
		},
		{
			name:    "server error",
			handler: func(w http.ResponseWriter, r *http.Request) { http.Error(w, "boom", http.StatusInternalServerError) },
		},
		{
			name:    "invalid json",
			handler: func(w http.ResponseWriter, r *http.Request) { fmt.Fprint(w, `nope`) },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, tt.handler)
			_, err := client.Classify(context.Background(), "text")
			require.Error(t, err)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}

type stubClassifier struct {
	label string
	err   error
}

func (s stubClassifier) Classify(context.Context, string) (string, error) {
	return s.label, s.err
}

func TestClassifyOrFallback(t *testing.T) {
	label, err := ClassifyOrFallback(context.Background(), stubClassifier{label: Positive}, "text")
	assert.NoError(t, err)
	assert.Equal(t, Positive, label)

	label, err = ClassifyOrFallback(context.Background(), stubClassifier{err: errors.New("down")}, "text")
	assert.Error(t, err)
	assert.Equal(t, Fallback, label)
}
