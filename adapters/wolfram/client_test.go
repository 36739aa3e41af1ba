package wolfram

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"physlab/internal/config"
	"physlab/internal/errors"
	"physlab/internal/testkit"
)

func newTestClient(url string) *Client {
	return NewClient(config.WolframConfig{AppID: "TEST-ID", BaseURL: url, Timeout: 5 * time.Second}, nil)
}

func TestQuerySuccess(t *testing.T) {
	stub := testkit.NewWolframStub(http.StatusOK, testkit.WolframSuccessJSON)
	defer stub.Close()

	res, err := newTestClient(stub.URL).Query(context.Background(), "integrate x^2")
	require.NoError(t, err)

	expected := testkit.SampleKnowledgeResult()
	assert.True(t, res.Success)
	assert.Equal(t, expected.Pods, res.Pods)
	assert.NotEmpty(t, res.Raw)
	assert.Equal(t, "integral x^2 dx = x^3/3 + constant", res.PrimaryText())
	assert.Len(t, res.Images(), 3)

	assert.Equal(t, []string{"integrate x^2"}, stub.Queries())
	assert.Equal(t, []string{"TEST-ID"}, stub.AppIDs())
}

func TestQueryNotUnderstood(t *testing.T) {
	stub := testkit.NewWolframStub(http.StatusOK, testkit.WolframFailureJSON)
	defer stub.Close()

	res, err := newTestClient(stub.URL).Query(context.Background(), "asdfgh")
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Empty(t, res.Pods)
}

func TestQueryErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"engine error", http.StatusOK, testkit.WolframErrorJSON},
		{"http status", http.StatusInternalServerError, "oops"},
		{"invalid json", http.StatusOK, "{not json"},
		{"missing envelope", http.StatusOK, `{"other": 1}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stub := testkit.NewWolframStub(tt.status, tt.body)
			defer stub.Close()

			_, err := newTestClient(stub.URL).Query(context.Background(), "x")
			require.Error(t, err)
			assert.True(t, errors.IsCode(err, errors.CodeExternalService))
		})
	}
}

func TestQueryEmptyInput(t *testing.T) {
	_, err := newTestClient("http://127.0.0.1:1").Query(context.Background(), "")
	assert.True(t, errors.IsCode(err, errors.CodeInvalidInput))
}

func TestQueryUnreachable(t *testing.T) {
	stub := testkit.NewWolframStub(http.StatusOK, testkit.WolframSuccessJSON)
	url := stub.URL
	stub.Close()

	_, err := newTestClient(url).Query(context.Background(), "x")
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.CodeExternalService))
}

func TestNewClientDefaults(t *testing.T) {
	c := NewClient(config.WolframConfig{}, nil)
	assert.Equal(t, config.DefaultWolframBaseURL, c.baseURL)
	assert.Equal(t, config.DefaultWolframTimeout, c.httpClient.Timeout)
}
