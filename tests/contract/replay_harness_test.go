//go:build contract

package contract

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"sync"
	"testing"

	"fieldcheck/internal/reddit"
)

// replayRoute is one canned upstream response.
type replayRoute struct {
	status int
	body   []byte
}

// replayTransport answers requests from routes keyed by replayKey and keeps
// every request it saw. Unknown keys get a Reddit-shaped 404.
type replayTransport struct {
	routes map[string]replayRoute

	mu   sync.Mutex
	seen []*http.Request
}

func replayKey(method, requestURI string) string {
	return method + " " + requestURI
}

func (rt *replayTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	rt.mu.Lock()
	rt.seen = append(rt.seen, req)
	rt.mu.Unlock()

	key := replayKey(req.Method, req.URL.RequestURI())
	route, ok := rt.routes[key]
	if !ok {
		body, _ := json.Marshal(map[string]any{"message": "no replay route for " + key, "error": 404})
		route = replayRoute{status: http.StatusNotFound, body: body}
	}
	if route.status == 0 {
		route.status = http.StatusOK
	}

	return &http.Response{
		StatusCode:    route.status,
		Status:        strconv.Itoa(route.status) + " " + http.StatusText(route.status),
		Header:        http.Header{"Content-Type": {"application/json; charset=UTF-8"}},
		Body:          io.NopCloser(bytes.NewReader(route.body)),
		ContentLength: int64(len(route.body)),
		Request:       req,
	}, nil
}

// Requests returns every request the transport has seen.
func (rt *replayTransport) Requests() []*http.Request {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	return append([]*http.Request(nil), rt.seen...)
}

// newReplayClient returns a Reddit client whose HTTP calls are answered from
// routes. Listings are requested two items per page.
func newReplayClient(t *testing.T, routes map[string]replayRoute) (*reddit.Client, *replayTransport) {
	t.Helper()

	transport := &replayTransport{routes: routes}
	client := reddit.New(reddit.Config{
		BaseURL:   "https://reddit.test",
		UserAgent: "fieldcheck-contract/1.0",
		PageLimit: 2,
	}, reddit.WithHTTPClient(&http.Client{Transport: transport}))
	return client, transport
}

func jsonFixtureRoute(t *testing.T, path string) replayRoute {
	t.Helper()
	return replayRoute{status: http.StatusOK, body: loadFixture(t, path)}
}

func errorRoute(status int, body string) replayRoute {
	return replayRoute{status: status, body: []byte(body)}
}
