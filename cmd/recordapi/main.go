// Command recordapi records live Reddit responses as contract test fixtures.
//
//	go run ./cmd/recordapi -endpoint=user -arg=spez
//	go run ./cmd/recordapi -endpoint=subreddit -arg=pics -limit=2 -after=t3_bq1b \
//	  -output=tests/contract/testdata/subreddit/pics_page2.json
//
// Without -output the fixture lands under tests/contract/testdata/<endpoint>/.
// REDDIT_USER_AGENT and REDDIT_ACCESS_TOKEN are read from the environment.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/andybalholm/brotli"

	"fieldcheck/internal/httpclient"
)

const fixtureRoot = "tests/contract/testdata"

// endpoint maps a name to its API path and default fixture file; %s in
// both is the -arg value.
type endpoint struct {
	path    string
	file    string
	listing bool
}

var endpoints = map[string]endpoint{
	"user":      {path: "/user/%s/about.json", file: "user/%s_about.json"},
	"comments":  {path: "/comments/%s.json", file: "comments/%s.json"},
	"frontpage": {path: "/.json", file: "frontpage.json", listing: true},
	"subreddit": {path: "/r/%s.json", file: "subreddit/%s.json", listing: true},
}

type options struct {
	endpoint string
	arg      string
	after    string
	limit    int
	output   string
	baseURL  string
}

func main() {
	var opts options
	flag.StringVar(&opts.endpoint, "endpoint", "user", "user, comments, frontpage or subreddit")
	flag.StringVar(&opts.arg, "arg", "", "user name, submission ID or subreddit name")
	flag.StringVar(&opts.after, "after", "", "listing cursor (fullname) to start after")
	flag.IntVar(&opts.limit, "limit", 5, "listing page size")
	flag.StringVar(&opts.output, "output", "", "fixture path (defaults under "+fixtureRoot+")")
	flag.StringVar(&opts.baseURL, "base-url", "https://www.reddit.com", "API base URL")
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	if err := run(ctx, opts); err != nil {
		fmt.Fprintf(os.Stderr, "recordapi: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, opts options) error {
	ep, ok := endpoints[opts.endpoint]
	if !ok {
		return fmt.Errorf("unknown endpoint %q", opts.endpoint)
	}
	needsArg := opts.endpoint != "frontpage"
	if needsArg && opts.arg == "" {
		return fmt.Errorf("-arg is required for endpoint %q", opts.endpoint)
	}

	path, output := ep.path, opts.output
	if needsArg {
		path = fmt.Sprintf(path, url.PathEscape(opts.arg))
	}
	if output == "" {
		output = ep.file
		if needsArg {
			output = fmt.Sprintf(output, opts.arg)
		}
		output = filepath.Join(fixtureRoot, output)
	}

	query := url.Values{"raw_json": {"1"}}
	if ep.listing {
		query.Set("limit", fmt.Sprint(opts.limit))
		if opts.after != "" {
			query.Set("after", opts.after)
		}
	}
	target := opts.baseURL + path + "?" + query.Encode()

	body, status, err := fetch(ctx, target)
	if err != nil {
		return err
	}
	fmt.Printf("GET %s -> %d\n", target, status)
	if status != http.StatusOK {
		fmt.Fprintf(os.Stderr, "warning: recording non-200 response (%d)\n", status)
	}

	var pretty bytes.Buffer
	if err := json.Indent(&pretty, body, "", "  "); err == nil {
		body = pretty.Bytes()
	} else {
		fmt.Fprintln(os.Stderr, "warning: response is not JSON, saving raw body")
	}

	if err := os.MkdirAll(filepath.Dir(output), 0o755); err != nil {
		return fmt.Errorf("create fixture directory: %w", err)
	}
	if err := os.WriteFile(output, body, 0o644); err != nil {
		return fmt.Errorf("write fixture: %w", err)
	}
	fmt.Printf("saved %s\n", output)
	return nil
}

func fetch(ctx context.Context, target string) ([]byte, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("build request: %w", err)
	}
	userAgent := os.Getenv("REDDIT_USER_AGENT")
	if userAgent == "" {
		userAgent = "fieldcheck-recordapi/0.1"
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept-Encoding", "br")
	if token := os.Getenv("REDDIT_ACCESS_TOKEN"); token != "" {
		req.Header.Set("Authorization", "bearer "+token)
	}

	client := httpclient.NewHTTPClient(httpclient.DefaultConfig(60 * time.Second))
	resp, err := client.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("send request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	var r io.Reader = resp.Body
	switch enc := resp.Header.Get("Content-Encoding"); enc {
	case "", "identity":
	case "br":
		r = brotli.NewReader(resp.Body)
	default:
		return nil, resp.StatusCode, errors.New("unsupported content encoding " + enc)
	}

	body, err := io.ReadAll(r)
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("read response: %w", err)
	}
	return body, resp.StatusCode, nil
}
