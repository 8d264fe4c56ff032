package scraper

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"next-gig/internal/domain/job"
	"next-gig/internal/domain/user"
)

// Client is the boundary to the scraper collaborator: an external service
// that runs the site scrapers and returns raw job records per source. The
// core never parses HTML itself.
type Client interface {
	FetchJobs(ctx context.Context, pairs []user.SearchPair) (map[string][]job.RawJob, []job.Source, error)
}

type httpClient struct {
	baseURL string
	client  *http.Client
	logger  *log.Logger
}

func NewClient(baseURL string, logger *log.Logger) Client {
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		return nil
	}
	if logger == nil {
		logger = log.Default()
	}
	return &httpClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: 5 * time.Minute},
		logger:  logger,
	}
}

type fetchRequest struct {
	Pairs []searchPairPayload `json:"pairs"`
}

type searchPairPayload struct {
	Title    string `json:"title"`
	Location string `json:"location"`
}

type fetchResponse struct {
	Sources []sourcePayload `json:"sources"`
}

type sourcePayload struct {
	Name          string          `json:"name"`
	ReliableTitle bool            `json:"reliable_title"`
	Jobs          []rawJobPayload `json:"jobs"`
}

type rawJobPayload struct {
	Title      string     `json:"title"`
	Company    string     `json:"company"`
	Location   string     `json:"location"`
	URL        string     `json:"url"`
	Salary     string     `json:"salary"`
	DatePosted *time.Time `json:"date_posted"`
}

func (c *httpClient) FetchJobs(ctx context.Context, pairs []user.SearchPair) (map[string][]job.RawJob, []job.Source, error) {
	if c == nil || c.client == nil {
		return nil, nil, errors.New("nil scraper client")
	}
	endpoint := c.baseURL + "/jobs"

	reqBody := fetchRequest{Pairs: make([]searchPairPayload, 0, len(pairs))}
	for _, p := range pairs {
		reqBody.Pairs = append(reqBody.Pairs, searchPairPayload{Title: p.Title, Location: p.Location})
	}
	b, err := json.Marshal(reqBody)
	if err != nil {
		return nil, nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(b))
	if err != nil {
		return nil, nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		rb, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		bodyStr := strings.TrimSpace(string(rb))
		c.logger.Printf("[Scraper] FetchJobs error endpoint=%s status=%d body=%q", endpoint, resp.StatusCode, bodyStr)
		return nil, nil, fmt.Errorf("scraper fetch failed: status=%d body=%s", resp.StatusCode, bodyStr)
	}

	var out fetchResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, nil, err
	}

	now := time.Now().UTC()
	bySource := make(map[string][]job.RawJob, len(out.Sources))
	sources := make([]job.Source, 0, len(out.Sources))
	for _, s := range out.Sources {
		name := strings.ToLower(strings.TrimSpace(s.Name))
		if name == "" {
			continue
		}
		sources = append(sources, job.Source{Name: name, ReliableTitle: s.ReliableTitle})

		jobs := make([]job.RawJob, 0, len(s.Jobs))
		for _, rj := range s.Jobs {
			j := job.RawJob{
				Title:      strings.TrimSpace(rj.Title),
				Company:    strings.TrimSpace(rj.Company),
				Location:   strings.TrimSpace(rj.Location),
				URL:        strings.TrimSpace(rj.URL),
				Salary:     strings.TrimSpace(rj.Salary),
				DatePosted: rj.DatePosted,
				DateAdded:  now,
				Source:     name,
			}
			if !job.Valid(j) {
				continue
			}
			jobs = append(jobs, j)
		}
		bySource[name] = jobs
	}
	return bySource, sources, nil
}

var _ Client = (*httpClient)(nil)
