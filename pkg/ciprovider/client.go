// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: Apache-2.0

package ciprovider

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"path"
	"strconv"
	"time"

	"github.com/kraklabs/argos/internal/contract"
	"github.com/kraklabs/argos/pkg/anvil"
	"github.com/kraklabs/argos/pkg/rules"
)

const perPage = 100

// RunFilter narrows ListRuns (spec §4.7).
type RunFilter struct {
	Workflow string
	Branch   string
	Status   string
	Limit    int
	Since    *time.Time
}

// Client is a narrow client over a GitHub-Actions-shaped REST surface,
// scoped to one owner/repo. Every request carries the caller-supplied
// bearer Token.
type Client struct {
	BaseURL string
	Owner   string
	Repo    string
	Token   string

	HTTPClient *http.Client
	logger     *slog.Logger
	retry      retryConfig
}

// New builds a Client. baseURL defaults to the public GitHub API.
func New(baseURL, owner, repo, token string, logger *slog.Logger) *Client {
	if baseURL == "" {
		baseURL = "https://api.github.com"
	}
	if logger == nil {
		logger = slog.Default()
	}
	ciProviderMetrics.init()
	return &Client{
		BaseURL:    baseURL,
		Owner:      owner,
		Repo:       repo,
		Token:      token,
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
		logger:     logger,
		retry:      defaultRetry,
	}
}

type workflowRunsPage struct {
	TotalCount int `json:"total_count"`
	Runs       []struct {
		ID           int64  `json:"id"`
		Name         string `json:"name"`
		HeadBranch   string `json:"head_branch"`
		HeadSHA      string `json:"head_sha"`
		Status       string `json:"status"`
		Conclusion   string `json:"conclusion"`
		RunNumber    int    `json:"run_number"`
		RunStartedAt string `json:"run_started_at"`
		UpdatedAt    string `json:"updated_at"`
	} `json:"workflow_runs"`
}

// ListRuns lists workflow runs matching filter, newest first, paging
// transparently until filter.Limit is satisfied or results are exhausted
// (spec §4.7).
func (c *Client) ListRuns(ctx context.Context, filter RunFilter) ([]anvil.CIWorkflowRun, error) {
	out := make([]anvil.CIWorkflowRun, 0, filter.Limit)
	page := 1
	for {
		q := url.Values{}
		q.Set("per_page", strconv.Itoa(perPage))
		q.Set("page", strconv.Itoa(page))
		if filter.Branch != "" {
			q.Set("branch", filter.Branch)
		}
		if filter.Status != "" {
			q.Set("status", filter.Status)
		}

		reqPath := fmt.Sprintf("/repos/%s/%s/actions/runs", c.Owner, c.Repo)
		if filter.Workflow != "" {
			reqPath = fmt.Sprintf("/repos/%s/%s/actions/workflows/%s/runs", c.Owner, c.Repo, url.PathEscape(filter.Workflow))
		}

		var resp workflowRunsPage
		if err := c.getJSON(ctx, reqPath, q, &resp); err != nil {
			return nil, err
		}
		if len(resp.Runs) == 0 {
			break
		}

		for _, r := range resp.Runs {
			startedAt, err := time.Parse(time.RFC3339, r.RunStartedAt)
			if err != nil {
				startedAt = time.Now().UTC()
			}
			if filter.Since != nil && startedAt.Before(*filter.Since) {
				return capToLimit(out, filter.Limit), nil
			}
			updatedAt, err := time.Parse(time.RFC3339, r.UpdatedAt)
			duration := 0.0
			if err == nil && updatedAt.After(startedAt) {
				duration = updatedAt.Sub(startedAt).Seconds()
			}
			out = append(out, anvil.CIWorkflowRun{
				RemoteRunID:     strconv.FormatInt(r.ID, 10),
				WorkflowName:    r.Name,
				Branch:          r.HeadBranch,
				CommitSHA:       r.HeadSHA,
				Status:          r.Status,
				Conclusion:      r.Conclusion,
				StartedAt:       startedAt,
				DurationSeconds: duration,
				RunNumber:       r.RunNumber,
			})
			if filter.Limit > 0 && len(out) >= filter.Limit {
				return out, nil
			}
		}

		if len(resp.Runs) < perPage {
			break
		}
		page++
	}
	return capToLimit(out, filter.Limit), nil
}

func capToLimit(out []anvil.CIWorkflowRun, limit int) []anvil.CIWorkflowRun {
	if limit > 0 && len(out) > limit {
		return out[:limit]
	}
	return out
}

type workflowJobsPage struct {
	TotalCount int `json:"total_count"`
	Jobs       []struct {
		ID          int64  `json:"id"`
		RunID       int64  `json:"run_id"`
		Name        string `json:"name"`
		Status      string `json:"status"`
		Conclusion  string `json:"conclusion"`
		StartedAt   string `json:"started_at"`
		CompletedAt string `json:"completed_at"`
		RunnerName  string `json:"runner_name"`
	} `json:"jobs"`
}

// ListJobs lists every job belonging to runID, paging until exhausted.
func (c *Client) ListJobs(ctx context.Context, runID string) ([]anvil.CIWorkflowJob, error) {
	var out []anvil.CIWorkflowJob
	page := 1
	for {
		q := url.Values{}
		q.Set("per_page", strconv.Itoa(perPage))
		q.Set("page", strconv.Itoa(page))

		var resp workflowJobsPage
		reqPath := fmt.Sprintf("/repos/%s/%s/actions/runs/%s/jobs", c.Owner, c.Repo, runID)
		if err := c.getJSON(ctx, reqPath, q, &resp); err != nil {
			return nil, err
		}
		if len(resp.Jobs) == 0 {
			break
		}
		for _, j := range resp.Jobs {
			startedAt, err := time.Parse(time.RFC3339, j.StartedAt)
			if err != nil {
				startedAt = time.Now().UTC()
			}
			var completedAt *time.Time
			if t, err := time.Parse(time.RFC3339, j.CompletedAt); err == nil {
				completedAt = &t
			}
			out = append(out, anvil.CIWorkflowJob{
				RemoteJobID: strconv.FormatInt(j.ID, 10),
				RemoteRunID: strconv.FormatInt(j.RunID, 10),
				JobName:     j.Name,
				Status:      j.Status,
				Conclusion:  j.Conclusion,
				StartedAt:   startedAt,
				CompletedAt: completedAt,
				RunnerOS:    j.RunnerName,
			})
		}
		if len(resp.Jobs) < perPage {
			break
		}
		page++
	}
	return out, nil
}

// FetchJobLog downloads the raw log for jobID.
func (c *Client) FetchJobLog(ctx context.Context, jobID string) ([]byte, error) {
	reqPath := fmt.Sprintf("/repos/%s/%s/actions/jobs/%s/logs", c.Owner, c.Repo, jobID)
	return c.getRaw(ctx, reqPath, nil)
}

// FetchRunArtifacts downloads every artifact attached to runID, extracts
// its zip archive, and returns the contents of entries whose path matches
// namePattern (a pkg/rules glob). Used to retrieve coverage XML and lint
// output files uploaded as workflow artifacts (spec §4.7).
func (c *Client) FetchRunArtifacts(ctx context.Context, runID, namePattern string) (map[string][]byte, error) {
	reqPath := fmt.Sprintf("/repos/%s/%s/actions/runs/%s/artifacts", c.Owner, c.Repo, runID)
	var resp struct {
		Artifacts []struct {
			ID                 int64  `json:"id"`
			Name               string `json:"name"`
			ArchiveDownloadURL string `json:"archive_download_url"`
		} `json:"artifacts"`
	}
	q := url.Values{}
	q.Set("per_page", strconv.Itoa(perPage))
	if err := c.getJSON(ctx, reqPath, q, &resp); err != nil {
		return nil, err
	}

	out := map[string][]byte{}
	for _, a := range resp.Artifacts {
		data, err := c.getRaw(ctx, fmt.Sprintf("/repos/%s/%s/actions/artifacts/%d/zip", c.Owner, c.Repo, a.ID), nil)
		if err != nil {
			return nil, fmt.Errorf("ciprovider: downloading artifact %q: %w", a.Name, err)
		}
		zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
		if err != nil {
			return nil, fmt.Errorf("ciprovider: reading artifact %q archive: %w", a.Name, err)
		}
		for _, f := range zr.File {
			if f.FileInfo().IsDir() || !rules.MatchGlob(path.Join(a.Name, f.Name), namePattern) {
				continue
			}
			rc, err := f.Open()
			if err != nil {
				return nil, err
			}
			content, err := io.ReadAll(rc)
			rc.Close()
			if err != nil {
				return nil, err
			}
			out[path.Join(a.Name, f.Name)] = content
		}
	}
	return out, nil
}

// getJSON performs a retried GET and decodes the JSON body into v.
func (c *Client) getJSON(ctx context.Context, reqPath string, q url.Values, v any) error {
	body, err := c.getRaw(ctx, reqPath, q)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("ciprovider: decoding response from %s: %w", reqPath, err)
	}
	return nil
}

// getRaw performs a GET against reqPath with jittered exponential backoff
// on 429/5xx responses (spec §4.7: initial 1s, factor 2, cap 60s, max 6
// tries). 4xx other than 429 are returned unchanged on the first attempt.
func (c *Client) getRaw(ctx context.Context, reqPath string, q url.Values) ([]byte, error) {
	u := c.BaseURL + reqPath
	if len(q) > 0 {
		u += "?" + q.Encode()
	}

	var lastErr error
	for attempt := 0; attempt < c.retry.MaxAttempts; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Authorization", "Bearer "+c.Token)
		req.Header.Set("Accept", "application/vnd.github+json")

		resp, err := c.HTTPClient.Do(req)
		if err != nil {
			lastErr = err
			c.sleepBeforeRetry(ctx, attempt, nil)
			continue
		}
		limit := int64(contract.SoftLimitBytes())
		body, readErr := io.ReadAll(io.LimitReader(resp.Body, limit+1))
		resp.Body.Close()
		if readErr != nil {
			return nil, readErr
		}
		if int64(len(body)) > limit {
			return nil, fmt.Errorf("ciprovider: %s: response exceeds soft limit of %d bytes", reqPath, limit)
		}

		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			ciProviderMetrics.requestsTotal.WithLabelValues(reqPath).Inc()
			return body, nil
		}
		if !isRetryableStatus(resp.StatusCode) {
			ciProviderMetrics.requestFailed.WithLabelValues(reqPath).Inc()
			return nil, fmt.Errorf("ciprovider: %s: status %d: %s", reqPath, resp.StatusCode, body)
		}
		lastErr = fmt.Errorf("ciprovider: %s: status %d: %s", reqPath, resp.StatusCode, body)
		if attempt == c.retry.MaxAttempts-1 {
			break
		}
		ciProviderMetrics.retriesTotal.WithLabelValues(reqPath).Inc()
		c.logger.Warn("ciprovider.request.retry", "path", reqPath, "status", resp.StatusCode, "attempt", attempt+1)
		c.sleepBeforeRetry(ctx, attempt, resp.Header)
	}
	ciProviderMetrics.requestFailed.WithLabelValues(reqPath).Inc()
	return nil, lastErr
}

func (c *Client) sleepBeforeRetry(ctx context.Context, attempt int, headers http.Header) {
	wait := backoffWithJitter(c.retry, attempt)
	if headers != nil {
		if d, ok := retryAfter(headers); ok {
			wait = d
		}
	}
	select {
	case <-ctx.Done():
	case <-time.After(wait):
	}
}
