package rating_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"remitcompare/internal/rating"
)

func TestNewTrustAPIClient(t *testing.T) {
	t.Parallel()

	client, err := rating.NewTrustAPIClient("test")
	require.NoErrorf(t, err, "unexpected error: %v", err)
	require.NotNilf(t, client, "unexpected nil client")
}

func TestLookup(t *testing.T) {
	t.Parallel()

	// Arrange: create a mock controller
	ctrl := gomock.NewController(t)

	// Arrange: create a mock http client
	httpClient := NewMockHTTPClient(ctrl)

	// Assert: stub the Do method
	httpClient.EXPECT().
		Do(gomock.Any()).
		DoAndReturn(func(req *http.Request) (*http.Response, error) {
			require.Equal(t, http.MethodGet, req.Method)
			require.Contains(t, req.URL.Path, "/v1/business-units/find")
			require.Equal(t, "test-key", req.URL.Query().Get("apikey"))
			require.Equal(t, "wise", req.URL.Query().Get("name"))

			buffer := &bytes.Buffer{}
			require.NoError(t, json.NewEncoder(buffer).Encode(map[string]any{
				"displayName":     "Wise",
				"score":           map[string]any{"trustScore": 4.4},
				"numberOfReviews": map[string]any{"total": 254311},
			}))

			return &http.Response{
				StatusCode: http.StatusOK,
				Body:       io.NopCloser(buffer),
			}, nil
		}).
		Times(1)

	// Arrange: create a new client with the mock HTTP client
	client, err := rating.NewTrustAPIClient("test-key", rating.WithHTTPClient(httpClient))
	require.NoError(t, err)

	// Act
	score, err := client.Lookup(context.Background(), "wise")

	// Assert
	require.NoError(t, err)
	require.Equal(t, "4.4", score.Value.String())
	require.Equal(t, 254311, score.Reviews)
}

func TestLookup_NoScore(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	httpClient := NewMockHTTPClient(ctrl)

	httpClient.EXPECT().
		Do(gomock.Any()).
		DoAndReturn(func(req *http.Request) (*http.Response, error) {
			buffer := bytes.NewBufferString(`{"displayName":"Acme"}`)
			return &http.Response{StatusCode: http.StatusOK, Body: io.NopCloser(buffer)}, nil
		}).
		Times(1)

	client, err := rating.NewTrustAPIClient("", rating.WithHTTPClient(httpClient))
	require.NoError(t, err)

	_, err = client.Lookup(context.Background(), "acme")
	require.Error(t, err)
}

func TestLookup_UpstreamError(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	httpClient := NewMockHTTPClient(ctrl)

	httpClient.EXPECT().
		Do(gomock.Any()).
		DoAndReturn(func(req *http.Request) (*http.Response, error) {
			buffer := bytes.NewBufferString(`{"message":"rate limited"}`)
			return &http.Response{StatusCode: http.StatusTooManyRequests, Body: io.NopCloser(buffer)}, nil
		}).
		Times(1)

	client, err := rating.NewTrustAPIClient("", rating.WithHTTPClient(httpClient))
	require.NoError(t, err)

	_, err = client.Lookup(context.Background(), "acme")
	require.Error(t, err)
}
