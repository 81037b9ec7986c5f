package pipeline

import (
	"bytes"
	"context"
	"errors"
	"log"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/shouni/go-job-digest/pkg/config"
	"github.com/shouni/go-job-digest/pkg/digest"
	"github.com/shouni/go-job-digest/pkg/filter"
	"github.com/shouni/go-job-digest/pkg/notify"
	"github.com/shouni/go-job-digest/pkg/types"
)

type MockScraper struct {
	mock.Mock
}

func (m *MockScraper) Collect(ctx context.Context, keywords []string) []types.Job {
	args := m.Called(ctx, keywords)
	jobs, _ := args.Get(0).([]types.Job)
	return jobs
}

type MockSender struct {
	mock.Mock
}

func (m *MockSender) Send(ctx context.Context, subject, htmlBody string) error {
	return m.Called(ctx, subject, htmlBody).Error(0)
}

type MockFetcher struct {
	mock.Mock
}

func (m *MockFetcher) FetchBytes(ctx context.Context, url string) ([]byte, error) {
	args := m.Called(ctx, url)
	b, _ := args.Get(0).([]byte)
	return b, args.Error(1)
}

var fixedNow = func() time.Time { return time.Date(2024, 3, 4, 23, 0, 0, 0, time.UTC) }

func sampleJobs() []types.Job {
	return []types.Job{
		{Title: "Senior DevOps Engineer", Location: "Remote, India", Snippet: "3-5 years", Link: "https://x/1", Source: "Indeed"},
		{Title: "Graphic Designer", Location: "Remote", Link: "https://x/2", Source: "Indeed"},
	}
}

func TestRun_Send(t *testing.T) {
	keywords := []string{"DevOps Engineer"}
	s := &MockScraper{}
	s.On("Collect", mock.Anything, keywords).Return(sampleJobs())

	sender := &MockSender{}
	sender.On("Send", mock.Anything, "Daily Cloud & DevOps Jobs – 2024-03-04",
		mock.MatchedBy(func(body string) bool {
			return strings.Contains(body, "Senior DevOps Engineer") && !strings.Contains(body, "Graphic Designer")
		})).Return(nil)

	summary, err := Run(context.Background(), Deps{
		Scraper:  s,
		Filter:   filter.New(filter.DefaultCriteria()),
		Sender:   sender,
		Keywords: keywords,
		Now:      fixedNow,
		Verbose:  true,
	})
	require.NoError(t, err)

	assert.Equal(t, Summary{Collected: 2, Matched: 1, Subject: "Daily Cloud & DevOps Jobs – 2024-03-04"}, summary)
	s.AssertExpectations(t)
	sender.AssertExpectations(t)
}

func TestRun_NoMatchesStillSends(t *testing.T) {
	s := &MockScraper{}
	s.On("Collect", mock.Anything, mock.Anything).Return(nil)

	sender := &MockSender{}
	sender.On("Send", mock.Anything, mock.Anything, digest.NoJobsHTML).Return(nil)

	summary, err := Run(context.Background(), Deps{
		Scraper: s,
		Filter:  filter.New(filter.DefaultCriteria()),
		Sender:  sender,
		Now:     fixedNow,
	})
	require.NoError(t, err)
	assert.Equal(t, 0, summary.Matched)
	sender.AssertExpectations(t)
}

func TestRun_SendError(t *testing.T) {
	s := &MockScraper{}
	s.On("Collect", mock.Anything, mock.Anything).Return(sampleJobs())

	sendErr := errors.New("smtp down")
	sender := &MockSender{}
	sender.On("Send", mock.Anything, mock.Anything, mock.Anything).Return(sendErr)

	_, err := Run(context.Background(), Deps{
		Scraper: s,
		Filter:  filter.New(filter.DefaultCriteria()),
		Sender:  sender,
	})
	assert.ErrorIs(t, err, sendErr)
}

func TestRun_DryRun(t *testing.T) {
	s := &MockScraper{}
	s.On("Collect", mock.Anything, mock.Anything).Return(sampleJobs())

	sender := &MockSender{}
	var out bytes.Buffer

	summary, err := Run(context.Background(), Deps{
		Scraper: s,
		Filter:  filter.New(filter.DefaultCriteria()),
		Sender:  sender,
		Now:     fixedNow,
		DryRun:  true,
		Output:  &out,
	})
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Matched)
	assert.Contains(t, out.String(), `<a href="https://x/1">Senior DevOps Engineer</a>`)
	sender.AssertNotCalled(t, "Send", mock.Anything, mock.Anything, mock.Anything)
}

func TestRun_VerboseLogsExclusions(t *testing.T) {
	var logs bytes.Buffer
	log.SetOutput(&logs)
	t.Cleanup(func() { log.SetOutput(os.Stderr) })

	jobs := append(sampleJobs(), types.Job{Title: "Cloud Engineer", Location: "Remote", Snippet: "8+ years", Link: "https://x/3"})
	s := &MockScraper{}
	s.On("Collect", mock.Anything, mock.Anything).Return(jobs)

	var out bytes.Buffer
	_, err := Run(context.Background(), Deps{
		Scraper: s,
		Filter:  filter.New(filter.DefaultCriteria()),
		Now:     fixedNow,
		DryRun:  true,
		Verbose: true,
		Output:  &out,
	})
	require.NoError(t, err)

	assert.Contains(t, logs.String(), "除外 [keyword] Graphic Designer (https://x/2)")
	assert.Contains(t, logs.String(), "除外 [experience [8, ?]] Cloud Engineer (https://x/3)")
	assert.NotContains(t, logs.String(), "Senior DevOps Engineer (https://x/1)")
}

func TestRun_MissingDeps(t *testing.T) {
	_, err := Run(context.Background(), Deps{})
	assert.Error(t, err)

	s := &MockScraper{}
	_, err = Run(context.Background(), Deps{Scraper: s, Filter: filter.New(filter.DefaultCriteria())})
	assert.Error(t, err, "Sender なしで送信しようとした場合はエラー")
	s.AssertNotCalled(t, "Collect", mock.Anything, mock.Anything)
}

func TestRun_MissingCredentialsBeforeCollect(t *testing.T) {
	s := &MockScraper{}

	_, err := Run(context.Background(), Deps{
		Scraper:  s,
		Filter:   filter.New(filter.DefaultCriteria()),
		Sender:   notify.NewMailer(config.Mail{}),
		Keywords: []string{"DevOps Engineer"},
	})

	assert.ErrorIs(t, err, notify.ErrMissingCredentials)
	s.AssertNotCalled(t, "Collect", mock.Anything, mock.Anything)
}

func TestRun_DryRunWithoutCredentials(t *testing.T) {
	s := &MockScraper{}
	s.On("Collect", mock.Anything, mock.Anything).Return(sampleJobs())

	var out bytes.Buffer
	summary, err := Run(context.Background(), Deps{
		Scraper: s,
		Filter:  filter.New(filter.DefaultCriteria()),
		Sender:  notify.NewMailer(config.Mail{}),
		DryRun:  true,
		Output:  &out,
	})

	require.NoError(t, err)
	assert.Equal(t, 2, summary.Collected)
	assert.NotEmpty(t, out.String())
}

func TestNewSources(t *testing.T) {
	f := Fetchers{HTML: &MockFetcher{}, Feed: &MockFetcher{}}

	t.Run("既定", func(t *testing.T) {
		sources, err := NewSources(config.Default(), f)
		require.NoError(t, err)
		require.Len(t, sources, 2)
		assert.Equal(t, "Indeed", sources[0].Name())
		assert.Equal(t, "Wellfound", sources[1].Name())
	})

	t.Run("WeWorkRemotely を有効化", func(t *testing.T) {
		cfg := config.Default()
		cfg.Sources.WeWorkRemotely.Enabled = true
		sources, err := NewSources(cfg, f)
		require.NoError(t, err)
		require.Len(t, sources, 3)
		assert.Equal(t, "WeWorkRemotely", sources[2].Name())
	})

	t.Run("すべて無効", func(t *testing.T) {
		cfg := config.Default()
		cfg.Sources.Indeed.Enabled = false
		cfg.Sources.Wellfound.Enabled = false
		_, err := NewSources(cfg, f)
		assert.Error(t, err)
	})

	t.Run("HTML Fetcher なし", func(t *testing.T) {
		_, err := NewSources(config.Default(), Fetchers{})
		assert.Error(t, err)
	})
}

func TestNewDeps(t *testing.T) {
	cfg := config.Default()
	deps, err := NewDeps(cfg, NewFetchers(cfg))
	require.NoError(t, err)
	assert.NotNil(t, deps.Scraper)
	assert.NotNil(t, deps.Filter)
	assert.NotNil(t, deps.Sender)
	assert.Equal(t, cfg.Search.Keywords, deps.Keywords)

	cfg.Search.Keywords = nil
	_, err = NewDeps(cfg, NewFetchers(cfg))
	assert.ErrorIs(t, err, config.ErrNoKeywords)
}
