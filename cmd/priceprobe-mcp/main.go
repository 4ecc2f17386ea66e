package main

import (
	"fmt"
	"os"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

func main() {
	apiURL := os.Getenv("PRICEPROBE_API_URL")
	if apiURL == "" {
		apiURL = "http://127.0.0.1:8080"
	}
	apiKey := os.Getenv("PRICEPROBE_API_KEY")
	if apiKey == "" {
		fmt.Fprintln(os.Stderr, "PRICEPROBE_API_KEY is required")
		os.Exit(1)
	}
	c := newClient(apiURL, apiKey)

	s := server.NewMCPServer(
		"priceprobe",
		"1.0.0",
		server.WithToolCapabilities(false),
	)

	extractTool := mcp.NewTool("extract_prices",
		mcp.WithDescription("Open a URL (typically decoded from a QR code on a menu or price list), decide whether it is a price listing and return the product names and prices found. Pages that hide their listing behind buttons, tabs or links are explored with a headless browser."),
		mcp.WithString("url",
			mcp.Required(),
			mcp.Description("The URL to analyse"),
		),
		mcp.WithBoolean("force_interactive",
			mcp.Description("Run the interactive browser crawl even if the static page is already recognized"),
		),
		mcp.WithNumber("max_time",
			mcp.Description("Interactive crawl budget in seconds (default: 60, max: 300)"),
		),
		mcp.WithNumber("max_depth",
			mcp.Description("Maximum link depth explored by the crawl (default: 5, max: 10)"),
		),
		mcp.WithString("fetch_mode",
			mcp.Description("'auto' (default), 'http' (no browser) or 'browser'"),
			mcp.Enum("auto", "http", "browser"),
		),
	)
	s.AddTool(extractTool, handleExtract(c))

	batchTool := mcp.NewTool("batch_extract",
		mcp.WithDescription("Extract prices from several URLs in parallel. Each URL is reported under its position in the list."),
		mcp.WithArray("urls",
			mcp.Required(),
			mcp.Description("List of URLs to analyse"),
		),
		mcp.WithString("fetch_mode",
			mcp.Description("'auto' (default), 'http' (no browser) or 'browser'"),
			mcp.Enum("auto", "http", "browser"),
		),
	)
	s.AddTool(batchTool, handleBatch(c))

	if err := server.ServeStdio(s); err != nil {
		fmt.Fprintf(os.Stderr, "server error: %v\n", err)
		os.Exit(1)
	}
}
