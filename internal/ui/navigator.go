package ui

import (
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"

	"github.com/pkg/browser"
)

// Browser opens pages in the system web browser. Navigate hands downloads to
// Downloader when one is set, so export files land on disk without a browser.
type Browser struct {
	Downloader *Downloader
}

func (b Browser) Open(u string) error {
	if err := browser.OpenURL(u); err != nil {
		return fmt.Errorf("open %s: %w", u, err)
	}
	return nil
}

func (b Browser) Navigate(u string) error {
	if b.Downloader != nil {
		_, err := b.Downloader.Fetch(u)
		return err
	}
	return b.Open(u)
}

// Downloader saves a URL's response body into Dir, named after the
// Content-Disposition filename when the server sends one.
type Downloader struct {
	Dir    string
	Client *http.Client
}

// Fetch downloads u and returns the path of the written file.
func (d *Downloader) Fetch(u string) (string, error) {
	client := d.Client
	if client == nil {
		client = http.DefaultClient
	}
	res, err := client.Get(u)
	if err != nil {
		return "", fmt.Errorf("download %s: %w", u, err)
	}
	defer res.Body.Close()
	if res.StatusCode/100 != 2 {
		return "", fmt.Errorf("download %s: %s", u, res.Status)
	}

	name := downloadName(res.Header.Get("Content-Disposition"), u)
	dst := filepath.Join(d.Dir, name)
	f, err := os.Create(dst)
	if err != nil {
		return "", fmt.Errorf("create %s: %w", dst, err)
	}
	defer f.Close()
	n, err := io.Copy(f, res.Body)
	if err != nil {
		return "", fmt.Errorf("write %s: %w", dst, err)
	}
	slog.Info("downloaded file", "path", dst, "bytes", n)
	return dst, nil
}

func downloadName(disposition, rawURL string) string {
	if _, params, err := mime.ParseMediaType(disposition); err == nil {
		if name := filepath.Base(params["filename"]); name != "." && name != "/" && name != "" {
			return name
		}
	}
	if parsed, err := url.Parse(rawURL); err == nil {
		if base := path.Base(parsed.Path); base != "." && base != "/" {
			return base
		}
	}
	return "download"
}
