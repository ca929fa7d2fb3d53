package connectors

import (
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/temoto/robotstxt"
)

// RobotsGate checks a source's robots.txt policy before any page fetch.
// The parsed policy is fetched once and cached for the gate's lifetime.
// An unreachable or malformed policy defaults to "allow all" so robots
// outages never block ingestion.
type RobotsGate struct {
	baseURL   string
	userAgent string
	client    *http.Client
	logger    *logrus.Logger

	once  sync.Once
	group *robotstxt.Group
}

// NewRobotsGate creates a gate for one source's canonical base URL.
func NewRobotsGate(baseURL, userAgent string, logger *logrus.Logger) *RobotsGate {
	return &RobotsGate{
		baseURL:   strings.TrimRight(baseURL, "/"),
		userAgent: userAgent,
		client:    &http.Client{Timeout: 10 * time.Second},
		logger:    logger,
	}
}

// Allowed reports whether the robots policy permits fetching the given URL.
func (g *RobotsGate) Allowed(pageURL string) bool {
	g.once.Do(g.load)

	path := pageURL
	if parsed, err := url.Parse(pageURL); err == nil && parsed.Path != "" {
		path = parsed.Path
	}
	return g.group.Test(path)
}

func (g *RobotsGate) load() {
	g.group = allowAllGroup()

	robotsURL := g.baseURL + "/robots.txt"
	req, err := http.NewRequest(http.MethodGet, robotsURL, nil)
	if err != nil {
		return
	}
	req.Header.Set("User-Agent", g.userAgent)

	resp, err := g.client.Do(req)
	if err != nil {
		g.logger.Warnf("[robots] %s unreachable, allowing all: %v", robotsURL, err)
		return
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		g.logger.Warnf("[robots] %s read failed, allowing all: %v", robotsURL, err)
		return
	}

	data, err := robotstxt.FromStatusAndBytes(resp.StatusCode, body)
	if err != nil {
		g.logger.Warnf("[robots] %s malformed, allowing all: %v", robotsURL, err)
		return
	}
	g.group = data.FindGroup(g.userAgent)
}

// Guard returns ErrFetchForbidden when the policy disallows the URL, so
// connectors can fail the run without a crash.
func (g *RobotsGate) Guard(pageURL string) error {
	if g.Allowed(pageURL) {
		return nil
	}
	return fmt.Errorf("%w: %s", ErrFetchForbidden, pageURL)
}

func allowAllGroup() *robotstxt.Group {
	data, err := robotstxt.FromString("User-agent: *\nAllow: /\n")
	if err != nil {
		// The literal above always parses; this only guards library changes.
		return &robotstxt.Group{}
	}
	return data.FindGroup("*")
}
