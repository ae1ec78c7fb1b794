// Package index fetches the remote catalog of Node.js releases.
//
// The catalog is re-fetched on every call; nothing is cached or persisted.
package index

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"

	"github.com/kira1928/nodeswitch/pkg/version"
)

// DefaultURL is the tab separated release index published by nodejs.org.
const DefaultURL = "https://nodejs.org/dist/index.tab"

var (
	// ErrNetwork 表示拉取索引时的传输层失败（含非 200 响应），不会重试
	ErrNetwork = errors.New("network error")
	// ErrEmptyIndex 表示远端返回的内容中没有任何可解析的版本
	ErrEmptyIndex = errors.New("empty version index")
)

// Release is one parsed record of the index.
type Release struct {
	Version version.Version
	Date    string
	LTS     string // codename, empty when not an LTS line
}

// Client 读取远端版本索引
type Client struct {
	URL        string
	HTTPClient *http.Client
}

func NewClient(url string) *Client {
	if strings.TrimSpace(url) == "" {
		url = DefaultURL
	}
	return &Client{URL: url, HTTPClient: &http.Client{}}
}

// FetchReleases 拉取并解析索引，按版本号降序返回（最新在前）
func (c *Client) FetchReleases(ctx context.Context) ([]Release, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNetwork, err)
	}
	client := c.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNetwork, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: fetch %s: %s", ErrNetwork, c.URL, resp.Status)
	}

	releases, err := Parse(resp.Body)
	if err != nil {
		return nil, err
	}
	return releases, nil
}

// FetchIndex returns only the version identifiers, newest first.
func (c *Client) FetchIndex(ctx context.Context) ([]version.Version, error) {
	releases, err := c.FetchReleases(ctx)
	if err != nil {
		return nil, err
	}
	vs := make([]version.Version, len(releases))
	for i, r := range releases {
		vs[i] = r.Version
	}
	return vs, nil
}

// FetchTopMajors keeps the releases of the n most recent distinct majors.
func (c *Client) FetchTopMajors(ctx context.Context, n int) ([]Release, error) {
	releases, err := c.FetchReleases(ctx)
	if err != nil {
		return nil, err
	}
	return TopMajors(releases, n), nil
}

// Parse reads index records from r. Lines whose first column is not a
// version (the header, blank lines, garbage) are skipped; extra columns are
// ignored beyond date and LTS.
func Parse(r io.Reader) ([]Release, error) {
	var releases []Release
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		v, err := version.Parse(fields[0])
		if err != nil {
			continue
		}
		rel := Release{Version: v}
		if len(fields) > 1 {
			rel.Date = fields[1]
		}
		if len(fields) > 9 && fields[9] != "-" {
			rel.LTS = fields[9]
		}
		releases = append(releases, rel)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("%w: read index: %v", ErrNetwork, err)
	}
	if len(releases) == 0 {
		return nil, ErrEmptyIndex
	}
	sort.SliceStable(releases, func(i, j int) bool {
		return releases[j].Version.Less(releases[i].Version)
	})
	return releases, nil
}

// TopMajors filters sorted releases down to the n newest majors, preserving order.
func TopMajors(releases []Release, n int) []Release {
	if n <= 0 {
		return nil
	}
	keep := make(map[uint64]bool, n)
	for _, r := range releases {
		if len(keep) == n {
			break
		}
		keep[r.Version.Major()] = true
	}
	out := make([]Release, 0, len(releases))
	for _, r := range releases {
		if keep[r.Version.Major()] {
			out = append(out, r)
		}
	}
	return out
}
