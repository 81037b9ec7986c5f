package client

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/shouni/go-job-digest/pkg/httpclient"
)

type MockHTTPClient struct {
	mock.Mock
}

func (m *MockHTTPClient) Do(req *http.Request) (*http.Response, error) {
	args := m.Called(req)
	if args.Get(0) != nil {
		return args.Get(0).(*http.Response), args.Error(1)
	}
	return nil, args.Error(1)
}

func TestUserAgentDoer(t *testing.T) {
	mockClient := new(MockHTTPClient)
	mockClient.On("Do", mock.MatchedBy(func(req *http.Request) bool {
		return req.Header.Get("User-Agent") == "feed-agent"
	})).Return(&http.Response{StatusCode: http.StatusOK, Body: io.NopCloser(bytes.NewReader(nil))}, nil)

	d := &userAgentDoer{next: mockClient, userAgent: "feed-agent"}
	req, err := http.NewRequest(http.MethodGet, "https://example.com/feed.rss", nil)
	require.NoError(t, err)

	resp, err := d.Do(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	mockClient.AssertExpectations(t)
}

func TestFetchBytes(t *testing.T) {
	payload := []byte(`<rss version="2.0"><channel><title>jobs</title></channel></rss>`)

	mockClient := new(MockHTTPClient)
	mockClient.On("Do", mock.MatchedBy(func(req *http.Request) bool {
		return req.Header.Get("User-Agent") == httpclient.DefaultUserAgent
	})).Return(&http.Response{
		StatusCode: http.StatusOK,
		Body:       io.NopCloser(bytes.NewReader(payload)),
	}, nil).Once()

	c := New(0, WithHTTPClient(mockClient))
	body, err := c.FetchBytes(context.Background(), "https://example.com/feed.rss")
	require.NoError(t, err)
	assert.Equal(t, payload, body)
	mockClient.AssertExpectations(t)
}

func TestFetchBytes_CustomUserAgentThroughHTTPKit(t *testing.T) {
	const feedURL = "https://weworkremotely.com/remote-jobs/search.rss?term=SRE"
	payload := []byte(`<rss version="2.0"><channel><title>sre</title></channel></rss>`)

	mockClient := new(MockHTTPClient)
	mockClient.On("Do", mock.MatchedBy(func(req *http.Request) bool {
		return req.Method == http.MethodGet &&
			req.URL.String() == feedURL &&
			req.Header.Get("User-Agent") == "job-digest-test"
	})).Return(&http.Response{
		StatusCode: http.StatusOK,
		Body:       io.NopCloser(bytes.NewReader(payload)),
	}, nil).Once()

	c := New(0, WithHTTPClient(mockClient), WithUserAgent("job-digest-test"))
	body, err := c.FetchBytes(context.Background(), feedURL)
	require.NoError(t, err)
	assert.Equal(t, payload, body)
	mockClient.AssertExpectations(t)
}
