package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/use-agent/priceprobe/models"
)

// client talks to the priceprobe HTTP API.
type client struct {
	apiURL       string
	apiKey       string
	http         *http.Client
	pollInterval time.Duration
}

func newClient(apiURL, apiKey string) *client {
	return &client{
		apiURL:       strings.TrimRight(apiURL, "/"),
		apiKey:       apiKey,
		http:         &http.Client{Timeout: 10 * time.Minute},
		pollInterval: 2 * time.Second,
	}
}

func (c *client) do(ctx context.Context, method, path string, payload any, out any) error {
	var body io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.apiURL+path, body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-API-Key", c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("API request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("parse response (status %d): %w", resp.StatusCode, err)
	}
	return nil
}

// pollBatch polls until the job leaves the processing state.
func (c *client) pollBatch(ctx context.Context, id string) (*models.BatchStatusResponse, error) {
	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
			var status models.BatchStatusResponse
			if err := c.do(ctx, http.MethodGet, "/api/v1/batch/"+id, nil, &status); err != nil {
				return nil, err
			}
			if status.Status != "processing" {
				return &status, nil
			}
		}
	}
}

func handleExtract(c *client) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		url, err := request.RequireString("url")
		if err != nil {
			return mcp.NewToolResultError("url is required"), nil
		}

		req := models.ExtractRequest{
			URL:              url,
			ForceInteractive: request.GetBool("force_interactive", false),
			MaxTime:          request.GetInt("max_time", 0),
			MaxDepth:         request.GetInt("max_depth", 0),
			FetchMode:        request.GetString("fetch_mode", ""),
		}

		var resp models.ExtractResponse
		if err := c.do(ctx, http.MethodPost, "/api/v1/extract", req, &resp); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		if !resp.Success {
			return mcp.NewToolResultError(errorText(resp.Error, "extraction failed")), nil
		}
		return mcp.NewToolResultText(formatExtract(&resp)), nil
	}
}

func handleBatch(c *client) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		urls, err := request.RequireStringSlice("urls")
		if err != nil || len(urls) == 0 {
			return mcp.NewToolResultError("urls is required and must be a non-empty array of strings"), nil
		}

		batch := models.BatchRequest{
			Options: models.BatchOptions{FetchMode: request.GetString("fetch_mode", "")},
		}
		for i, u := range urls {
			batch.Targets = append(batch.Targets, models.BatchTarget{Name: fmt.Sprintf("url-%d", i+1), URL: u})
		}

		var accepted models.BatchResponse
		if err := c.do(ctx, http.MethodPost, "/api/v1/batch", batch, &accepted); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		if accepted.ID == "" {
			return mcp.NewToolResultError("batch job creation failed"), nil
		}

		status, err := c.pollBatch(ctx, accepted.ID)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("polling batch job failed: %v", err)), nil
		}
		return mcp.NewToolResultText(formatBatch(status)), nil
	}
}

func errorText(e *models.ErrorDetail, fallback string) string {
	if e == nil {
		return fallback
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// formatExtract renders one response as a plain-text listing.
func formatExtract(resp *models.ExtractResponse) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Source: %s\n", resp.URL)
	if resp.Title != "" {
		fmt.Fprintf(&sb, "Title: %s\n", resp.Title)
	}
	if resp.Data == nil || !resp.Data.Recognized {
		sb.WriteString("Not recognized as a price listing.\n")
		return sb.String()
	}

	fmt.Fprintf(&sb, "Recognized price listing, %d items", len(resp.Data.Items))
	if resp.Interactive && resp.Crawl != nil {
		fmt.Fprintf(&sb, " (interactive: %d pages, %d expansions)", resp.Crawl.Scanned, resp.Crawl.Expansions)
	}
	sb.WriteString("\n\n")
	for _, it := range resp.Data.Items {
		fmt.Fprintf(&sb, "- %s: %s\n", it.Name, it.Price)
	}
	return sb.String()
}

// formatBatch renders a finished batch job.
func formatBatch(status *models.BatchStatusResponse) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Batch %s: %s (%d/%d completed)\n\n", status.ID, status.Status, status.Completed, status.Total)
	for _, r := range status.Results {
		fmt.Fprintf(&sb, "--- %s ---\n", r.Name)
		if r.Response == nil || !r.Response.Success {
			var detail *models.ErrorDetail
			if r.Response != nil {
				detail = r.Response.Error
			}
			fmt.Fprintf(&sb, "FAILED: %s\n\n", errorText(detail, "unknown error"))
			continue
		}
		sb.WriteString(formatExtract(r.Response))
		sb.WriteString("\n")
	}
	return sb.String()
}
