// Package updater keeps the agent binary current from GitHub-style releases.
// It polls for a newer release, downloads the platform binary, verifies its
// SHA-256 checksum, swaps it in place and hands control to the new binary,
// which performs the service restart through its "updated" invocation.
package updater

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/hashicorp/go-version"
	"go.uber.org/zap"
)

// UpdatedFlag is passed to the new binary together with the release version.
const UpdatedFlag = "--squirrel-updated"

// Config holds auto-update configuration.
type Config struct {
	Enabled       bool
	CheckInterval time.Duration
	InitialDelay  time.Duration
	APIURL        string
	// Repository is "owner/name".
	Repository string
	// AssetPrefix names release binaries: <prefix>-<goos>-<goarch>[.exe].
	AssetPrefix string
	Prerelease  bool
	// HandOffArgs follow the version on the new binary's command line so it
	// resolves the same configuration as this process.
	HandOffArgs []string
}

// DefaultConfig returns the default update configuration.
func DefaultConfig() Config {
	return Config{
		Enabled:       false,
		CheckInterval: 1 * time.Hour,
		InitialDelay:  30 * time.Second,
		APIURL:        "https://api.github.com",
	}
}

type release struct {
	TagName    string  `json:"tag_name"`
	Draft      bool    `json:"draft"`
	Prerelease bool    `json:"prerelease"`
	Assets     []asset `json:"assets"`
}

type asset struct {
	Name               string `json:"name"`
	BrowserDownloadURL string `json:"browser_download_url"`
}

// Launcher starts a process that outlives the caller.
type Launcher func(path string, args ...string) error

// Updater polls for releases. It implements the host's updater contract.
type Updater struct {
	currentVersion string
	config         Config
	logger         *zap.Logger
	httpClient     *http.Client

	executable func() (string, error)
	launch     Launcher
	newBackOff func() backoff.BackOff

	mu      sync.Mutex
	stopped chan struct{}
}

const (
	userAgent    = "squirrelhost-updater"
	checksumFile = "checksums.txt"
)

var errNoRelease = errors.New("no release found")

// New creates a new Updater instance.
func New(currentVersion string, cfg Config, logger *zap.Logger) *Updater {
	return &Updater{
		currentVersion: currentVersion,
		config:         cfg,
		logger:         logger.Named("updater"),
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
		executable: resolvedExecutable,
		launch:     launchDetached,
		newBackOff: func() backoff.BackOff {
			b := backoff.NewExponentialBackOff()
			b.MaxElapsedTime = 2 * time.Minute
			return backoff.WithMaxRetries(b, 4)
		},
		stopped: make(chan struct{}),
	}
}

// Start begins the periodic check loop and returns immediately. The loop
// ends when ctx is cancelled.
func (u *Updater) Start(ctx context.Context) {
	if !u.config.Enabled {
		u.logger.Info("auto-update is disabled")
		close(u.stopped)
		return
	}
	if _, err := version.NewVersion(u.currentVersion); err != nil {
		u.logger.Info("running unversioned build, auto-update disabled",
			zap.String("version", u.currentVersion))
		close(u.stopped)
		return
	}

	go u.loop(ctx)
	u.logger.Info("auto-update started",
		zap.String("current_version", u.currentVersion),
		zap.String("repository", u.config.Repository),
		zap.Duration("check_interval", u.config.CheckInterval),
	)
}

// Wait blocks until the loop started by Start has exited.
func (u *Updater) Wait() {
	<-u.stopped
}

func (u *Updater) loop(ctx context.Context) {
	defer close(u.stopped)

	select {
	case <-time.After(u.config.InitialDelay):
	case <-ctx.Done():
		return
	}

	ticker := time.NewTicker(u.config.CheckInterval)
	defer ticker.Stop()

	for {
		applied, err := u.Check(ctx)
		if err != nil && ctx.Err() == nil {
			u.logger.Warn("update check failed", zap.Error(err))
		}
		if applied {
			// The new binary restarts the service; nothing left to do here.
			return
		}
		select {
		case <-ticker.C:
		case <-ctx.Done():
			return
		}
	}
}

// Check performs one update cycle. It reports whether a new binary was
// installed and handed off.
func (u *Updater) Check(ctx context.Context) (bool, error) {
	u.mu.Lock()
	defer u.mu.Unlock()

	u.logger.Debug("checking for updates")

	rel, err := u.fetchRelease(ctx)
	if err != nil {
		return false, fmt.Errorf("check for updates: %w", err)
	}

	if !isNewer(rel.TagName, u.currentVersion) {
		u.logger.Debug("already up to date",
			zap.String("current", u.currentVersion),
			zap.String("latest", rel.TagName),
		)
		return false, nil
	}

	u.logger.Info("new version available",
		zap.String("current", u.currentVersion),
		zap.String("latest", rel.TagName),
	)

	if err := u.performUpdate(ctx, rel); err != nil {
		return false, fmt.Errorf("update to %s: %w", rel.TagName, err)
	}
	return true, nil
}

func (u *Updater) fetchRelease(ctx context.Context) (*release, error) {
	base := strings.TrimSuffix(u.config.APIURL, "/")
	if !u.config.Prerelease {
		var rel release
		if err := u.getJSON(ctx, fmt.Sprintf("%s/repos/%s/releases/latest", base, u.config.Repository), &rel); err != nil {
			return nil, err
		}
		return &rel, nil
	}

	var rels []release
	if err := u.getJSON(ctx, fmt.Sprintf("%s/repos/%s/releases", base, u.config.Repository), &rels); err != nil {
		return nil, err
	}
	for i := range rels {
		if !rels[i].Draft {
			return &rels[i], nil
		}
	}
	return nil, errNoRelease
}

func (u *Updater) getJSON(ctx context.Context, url string, v interface{}) error {
	return u.get(ctx, url, func(r io.Reader) error {
		if err := json.NewDecoder(r).Decode(v); err != nil {
			return backoff.Permanent(fmt.Errorf("decode response: %w", err))
		}
		return nil
	})
}

// get issues a GET and hands a 200 body to consume. Network errors, 429 and
// 5xx responses are retried with backoff; other statuses fail immediately.
func (u *Updater) get(ctx context.Context, url string, consume func(io.Reader) error) error {
	op := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return backoff.Permanent(fmt.Errorf("create request: %w", err))
		}
		req.Header.Set("User-Agent", userAgent)
		req.Header.Set("Accept", "application/vnd.github.v3+json")

		resp, err := u.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("GET %s: %w", url, err)
		}
		defer resp.Body.Close()

		switch {
		case resp.StatusCode == http.StatusOK:
			return consume(resp.Body)
		case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
			return fmt.Errorf("GET %s: status %d", url, resp.StatusCode)
		default:
			return backoff.Permanent(fmt.Errorf("GET %s: status %d", url, resp.StatusCode))
		}
	}

	notify := func(err error, wait time.Duration) {
		u.logger.Debug("retrying request", zap.Error(err), zap.Duration("wait", wait))
	}
	return backoff.RetryNotify(op, backoff.WithContext(u.newBackOff(), ctx), notify)
}

func (u *Updater) performUpdate(ctx context.Context, rel *release) error {
	binaryName := binaryNameForPlatform(u.config.AssetPrefix, runtime.GOOS, runtime.GOARCH)

	var binaryURL, checksumsURL string
	for _, a := range rel.Assets {
		switch a.Name {
		case binaryName:
			binaryURL = a.BrowserDownloadURL
		case checksumFile:
			checksumsURL = a.BrowserDownloadURL
		}
	}
	if binaryURL == "" {
		return fmt.Errorf("no asset %s in release %s", binaryName, rel.TagName)
	}
	if checksumsURL == "" {
		return fmt.Errorf("no %s in release %s", checksumFile, rel.TagName)
	}

	expected, err := u.fetchExpectedChecksum(ctx, checksumsURL, binaryName)
	if err != nil {
		return fmt.Errorf("fetch checksums: %w", err)
	}

	execPath, err := u.executable()
	if err != nil {
		return fmt.Errorf("locate executable: %w", err)
	}

	// Stage next to the executable so the swap is a same-filesystem rename.
	staged := filepath.Join(filepath.Dir(execPath),
		fmt.Sprintf(".%s-update-%d", filepath.Base(execPath), time.Now().UnixNano()))

	u.logger.Info("downloading update",
		zap.String("version", rel.TagName),
		zap.String("url", binaryURL),
	)
	if err := u.downloadFile(ctx, binaryURL, staged); err != nil {
		os.Remove(staged)
		return fmt.Errorf("download binary: %w", err)
	}

	actual, err := fileChecksum(staged)
	if err != nil {
		os.Remove(staged)
		return fmt.Errorf("compute checksum: %w", err)
	}
	if !strings.EqualFold(actual, expected) {
		os.Remove(staged)
		return fmt.Errorf("checksum mismatch: expected %s, got %s", expected, actual)
	}
	u.logger.Info("checksum verified", zap.String("sha256", actual))

	rollback, err := u.swapBinary(staged, execPath)
	if err != nil {
		os.Remove(staged)
		return err
	}

	args := append([]string{UpdatedFlag, rel.TagName}, u.config.HandOffArgs...)
	if err := u.launch(execPath, args...); err != nil {
		u.logger.Error("failed to hand off to new binary, rolling back", zap.Error(err))
		rollback()
		return fmt.Errorf("launch new binary: %w", err)
	}

	u.logger.Info("update staged, new binary is restarting the service",
		zap.String("new_version", rel.TagName),
	)
	return nil
}

func (u *Updater) fetchExpectedChecksum(ctx context.Context, checksumsURL, binaryName string) (string, error) {
	var sum string
	err := u.get(ctx, checksumsURL, func(r io.Reader) error {
		body, err := io.ReadAll(r)
		if err != nil {
			return err
		}
		// sha256sum format: "<hash>  <filename>"
		for _, line := range strings.Split(string(body), "\n") {
			parts := strings.Fields(line)
			if len(parts) == 2 && strings.TrimPrefix(parts[1], "*") == binaryName {
				sum = parts[0]
				return nil
			}
		}
		return backoff.Permanent(fmt.Errorf("checksum not found for %s", binaryName))
	})
	return sum, err
}

func (u *Updater) downloadFile(ctx context.Context, url, destPath string) error {
	return u.get(ctx, url, func(r io.Reader) error {
		out, err := os.Create(destPath)
		if err != nil {
			return backoff.Permanent(err)
		}
		if _, err := io.Copy(out, r); err != nil {
			out.Close()
			return err
		}
		return out.Close()
	})
}

// swapBinary moves newPath over currentPath, keeping the previous binary as
// currentPath+".old". The returned func restores the previous binary.
func (u *Updater) swapBinary(newPath, currentPath string) (func(), error) {
	if err := prepareBinary(newPath); err != nil {
		return nil, fmt.Errorf("prepare new binary: %w", err)
	}

	oldPath := currentPath + ".old"
	if err := os.Remove(oldPath); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("remove stale backup: %w", err)
	}
	if err := os.Rename(currentPath, oldPath); err != nil {
		return nil, fmt.Errorf("backup current binary: %w", err)
	}

	restore := func() {
		_ = os.Remove(currentPath)
		if err := os.Rename(oldPath, currentPath); err != nil {
			u.logger.Error("rollback failed", zap.String("backup", oldPath), zap.Error(err))
		}
	}

	if err := os.Rename(newPath, currentPath); err != nil {
		u.logger.Error("failed to place new binary, rolling back", zap.Error(err))
		restore()
		return nil, fmt.Errorf("place new binary: %w", err)
	}
	return restore, nil
}

func resolvedExecutable() (string, error) {
	p, err := os.Executable()
	if err != nil {
		return "", err
	}
	return filepath.EvalSymlinks(p)
}

// binaryNameForPlatform returns the expected release asset name.
func binaryNameForPlatform(prefix, goos, goarch string) string {
	name := fmt.Sprintf("%s-%s-%s", prefix, goos, goarch)
	if goos == "windows" {
		name += ".exe"
	}
	return name
}

// fileChecksum computes the SHA-256 checksum of a file.
func fileChecksum(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// isNewer reports whether latest is a strictly higher semantic version than
// current. Unparseable versions never count as newer.
func isNewer(latest, current string) bool {
	l, err := version.NewVersion(latest)
	if err != nil {
		return false
	}
	c, err := version.NewVersion(current)
	if err != nil {
		return false
	}
	return l.GreaterThan(c)
}
