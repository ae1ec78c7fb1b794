package store

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/kira1928/nodeswitch/pkg/index"
)

// DownloadProgress 下载进度信息
type DownloadProgress struct {
	URL             string
	TotalBytes      int64
	DownloadedBytes int64
	Speed           float64 // bytes per second
}

// ProgressFunc is called at most every 500ms while a download streams.
type ProgressFunc func(progress DownloadProgress)

// Downloader fetches url into the file at dest.
type Downloader interface {
	Download(ctx context.Context, url, dest string) error
}

// HTTPDownloader 通过 HTTP GET 下载归档；不设超时、不重试，首个传输错误即返回。
// 传输失败与索引拉取共用 index.ErrNetwork
type HTTPDownloader struct {
	Client   *http.Client
	Progress ProgressFunc
}

func NewHTTPDownloader() *HTTPDownloader {
	return &HTTPDownloader{Client: &http.Client{}, Progress: LogProgress}
}

func (d *HTTPDownloader) Download(ctx context.Context, url, dest string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	client := d.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", index.ErrNetwork, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: download %s: %s", index.ErrNetwork, url, resp.Status)
	}

	out, err := os.Create(dest)
	if err != nil {
		return err
	}

	pr := &progressReader{
		reader:     resp.Body,
		url:        url,
		totalBytes: resp.ContentLength,
		lastUpdate: time.Now(),
		callback:   d.Progress,
	}
	if _, err := io.Copy(out, pr); err != nil {
		_ = out.Close()
		return fmt.Errorf("%w: %v", index.ErrNetwork, err)
	}
	return out.Close()
}

// LogProgress 将下载进度写入标准日志
func LogProgress(p DownloadProgress) {
	if p.TotalBytes > 0 {
		log.Printf("downloading %s: %.1f%% (%.0f KB/s)", p.URL, float64(p.DownloadedBytes)*100/float64(p.TotalBytes), p.Speed/1024)
		return
	}
	log.Printf("downloading %s: %d bytes (%.0f KB/s)", p.URL, p.DownloadedBytes, p.Speed/1024)
}

// progressReader wraps an io.Reader to track download progress
type progressReader struct {
	reader          io.Reader
	url             string
	totalBytes      int64
	downloadedBytes int64
	lastUpdate      time.Time
	lastBytes       int64
	callback        ProgressFunc
}

func (pr *progressReader) Read(p []byte) (int, error) {
	n, err := pr.reader.Read(p)
	pr.downloadedBytes += int64(n)

	now := time.Now()
	if now.Sub(pr.lastUpdate) >= 500*time.Millisecond {
		duration := now.Sub(pr.lastUpdate).Seconds()
		speed := float64(pr.downloadedBytes-pr.lastBytes) / duration

		if pr.callback != nil {
			pr.callback(DownloadProgress{
				URL:             pr.url,
				TotalBytes:      pr.totalBytes,
				DownloadedBytes: pr.downloadedBytes,
				Speed:           speed,
			})
		}

		pr.lastUpdate = now
		pr.lastBytes = pr.downloadedBytes
	}

	return n, err
}
