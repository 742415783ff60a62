package scraper

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rbarros/linkedin-engage-bot/internal/config"
	"github.com/rbarros/linkedin-engage-bot/internal/extractor"
	"github.com/rbarros/linkedin-engage-bot/internal/models"
)

// fakeDriver scripts browser behavior per selector/URL.
type fakeDriver struct {
	gotoURLs    []string
	gotoErr     map[string]error
	waitErr     map[string]error
	waitErrOnce map[string]error
	clicked     []string
	pageHTML    string
	htmlErr     error
	cookies     []models.Cookie
	setCookies  [][]models.Cookie
	cookiesErr  error
	closeCalled bool
}

func newFakeDriver() *fakeDriver {
	return &fakeDriver{
		gotoErr:     make(map[string]error),
		waitErr:     make(map[string]error),
		waitErrOnce: make(map[string]error),
	}
}

func (d *fakeDriver) Goto(ctx context.Context, url string) error {
	d.gotoURLs = append(d.gotoURLs, url)
	return d.gotoErr[url]
}

func (d *fakeDriver) WaitForSelector(ctx context.Context, selector string, timeout time.Duration) error {
	if err, ok := d.waitErrOnce[selector]; ok {
		delete(d.waitErrOnce, selector)
		return err
	}
	if err, ok := d.waitErr[selector]; ok {
		return err
	}
	return nil
}

func (d *fakeDriver) Click(ctx context.Context, selector string) error {
	d.clicked = append(d.clicked, selector)
	return nil
}

func (d *fakeDriver) Text(ctx context.Context, selector string) (string, error) {
	return "", errors.New("no such element")
}

func (d *fakeDriver) HTML(ctx context.Context) (string, error) {
	return d.pageHTML, d.htmlErr
}

func (d *fakeDriver) Cookies(ctx context.Context) ([]models.Cookie, error) {
	return d.cookies, d.cookiesErr
}

func (d *fakeDriver) SetCookies(ctx context.Context, cookies []models.Cookie) error {
	d.setCookies = append(d.setCookies, cookies)
	return nil
}

func (d *fakeDriver) Close() error {
	d.closeCalled = true
	return nil
}

type fakeSessionStore struct {
	session *models.Session
	loadErr error
	saved   []*models.Session
}

func (s *fakeSessionStore) Load(ctx context.Context) (*models.Session, error) {
	return s.session, s.loadErr
}

func (s *fakeSessionStore) Save(ctx context.Context, session *models.Session) error {
	s.saved = append(s.saved, session)
	return nil
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		Headless:          true,
		NavTimeout:        100 * time.Millisecond,
		LoginTimeout:      100 * time.Millisecond,
		PostSettleDelay:   time.Millisecond,
		PostScanDelay:     time.Millisecond,
		MaxLoadMoreClicks: 3,
		SnapshotDir:       t.TempDir(),
	}
}

func newTestScraper(driver *fakeDriver, sessions *fakeSessionStore, cfg *config.Config) *Scraper {
	s := New(driver, sessions, extractor.New(extractor.DefaultSelectors()), cfg)
	s.expandDelay = time.Millisecond
	s.loadMoreWait = time.Millisecond
	// Immediate retries; the backoff schedule is covered in util's tests.
	s.retryBackoff = func(ctx context.Context, maxRetries int, fn func(attempt int) error) error {
		var err error
		for attempt := 0; attempt <= maxRetries; attempt++ {
			if err = fn(attempt); err == nil {
				return nil
			}
		}
		return err
	}
	return s
}

func testSession() *models.Session {
	return &models.Session{Cookies: []models.Cookie{
		{Name: "li_at", Value: "token", Domain: ".linkedin.com", Path: "/"},
	}}
}

func TestAuthenticate_HeadlessWithoutSessionFailsFast(t *testing.T) {
	driver := newFakeDriver()
	s := newTestScraper(driver, &fakeSessionStore{}, testConfig(t))

	err := s.Authenticate(context.Background())
	if !errors.Is(err, models.ErrNoSession) {
		t.Fatalf("Authenticate() error = %v, want ErrNoSession", err)
	}
	if len(driver.gotoURLs) != 0 {
		t.Errorf("navigated to %v before failing; a sessionless headless run must not touch the network", driver.gotoURLs)
	}
}

func TestAuthenticate_HeadlessWithStaleSessionFails(t *testing.T) {
	driver := newFakeDriver()
	driver.waitErr[authMarker] = errors.New("timeout waiting for selector")
	sessions := &fakeSessionStore{session: testSession()}
	s := newTestScraper(driver, sessions, testConfig(t))

	err := s.Authenticate(context.Background())
	if !errors.Is(err, models.ErrNoSession) {
		t.Fatalf("Authenticate() error = %v, want ErrNoSession for a stale session", err)
	}
	for _, url := range driver.gotoURLs {
		if url == loginURL {
			t.Error("headless run navigated to the login page")
		}
	}
	if len(sessions.saved) != 0 {
		t.Error("stale session was re-persisted")
	}
}

func TestAuthenticate_RestoresSessionAndPersists(t *testing.T) {
	driver := newFakeDriver()
	driver.cookies = testSession().Cookies
	sessions := &fakeSessionStore{session: testSession()}
	s := newTestScraper(driver, sessions, testConfig(t))

	if err := s.Authenticate(context.Background()); err != nil {
		t.Fatalf("Authenticate() returned unexpected error: %v", err)
	}
	if len(driver.setCookies) != 1 {
		t.Errorf("SetCookies called %d times, want 1", len(driver.setCookies))
	}
	if len(driver.gotoURLs) != 1 || driver.gotoURLs[0] != feedURL {
		t.Errorf("navigation = %v, want just the feed", driver.gotoURLs)
	}
	if len(sessions.saved) != 1 {
		t.Errorf("refreshed session persisted %d times, want 1", len(sessions.saved))
	}
}

func TestAuthenticate_InteractiveFallsBackToManualLogin(t *testing.T) {
	driver := newFakeDriver()
	driver.cookies = testSession().Cookies
	// Not logged in on the feed; the marker appears only after the
	// human completes the login.
	driver.waitErrOnce[authMarker] = errors.New("timeout waiting for selector")
	sessions := &fakeSessionStore{}
	cfg := testConfig(t)
	cfg.Headless = false
	s := newTestScraper(driver, sessions, cfg)

	if err := s.Authenticate(context.Background()); err != nil {
		t.Fatalf("Authenticate() returned unexpected error: %v", err)
	}
	if len(driver.gotoURLs) != 2 || driver.gotoURLs[1] != loginURL {
		t.Errorf("navigation = %v, want feed then login page", driver.gotoURLs)
	}
	if len(sessions.saved) != 1 {
		t.Error("session not persisted after manual login")
	}
}

func TestAuthenticate_SessionLoadErrorTreatedAsAbsent(t *testing.T) {
	driver := newFakeDriver()
	sessions := &fakeSessionStore{loadErr: errors.New("corrupt file")}
	s := newTestScraper(driver, sessions, testConfig(t))

	err := s.Authenticate(context.Background())
	if !errors.Is(err, models.ErrNoSession) {
		t.Fatalf("Authenticate() error = %v, want ErrNoSession when the load fails headless", err)
	}
}

const scanFixture = `
<html><body>
<article class="comments-comment-entity" data-id="urn:li:comment:(activity:1,1)">
  <span class="comments-comment-meta__description-title">Jane Doe</span>
  <div class="comments-comment-item__main-content">Great writeup.</div>
</article>
</body></html>`

func TestScanPost_ExtractsCandidates(t *testing.T) {
	driver := newFakeDriver()
	driver.pageHTML = scanFixture
	// No load-more affordance on the page.
	driver.waitErr[loadMoreButton] = errors.New("timeout")
	s := newTestScraper(driver, &fakeSessionStore{}, testConfig(t))

	post := models.TargetPost{FirestoreID: "p1", PlatformPostID: "7212345"}
	candidates, err := s.ScanPost(context.Background(), post)
	if err != nil {
		t.Fatalf("ScanPost() returned unexpected error: %v", err)
	}
	if len(candidates) != 1 || candidates[0].AuthorName != "Jane Doe" {
		t.Fatalf("candidates = %+v, want one by Jane Doe", candidates)
	}
	if len(driver.gotoURLs) != 1 || !strings.Contains(driver.gotoURLs[0], "urn:li:activity:7212345") {
		t.Errorf("navigated to %v, want the post's activity URL", driver.gotoURLs)
	}
}

func TestScanPost_MissingPlatformID(t *testing.T) {
	driver := newFakeDriver()
	s := newTestScraper(driver, &fakeSessionStore{}, testConfig(t))

	_, err := s.ScanPost(context.Background(), models.TargetPost{FirestoreID: "p1"})
	if err == nil {
		t.Fatal("ScanPost() returned nil error for a post without a platform ID")
	}
	if len(driver.gotoURLs) != 0 {
		t.Error("navigated despite having no URL to build")
	}
}

func TestScanPost_BoundedLoadMoreClicks(t *testing.T) {
	driver := newFakeDriver()
	driver.pageHTML = scanFixture
	// Load-more affordance never disappears; the loop must still stop.
	s := newTestScraper(driver, &fakeSessionStore{}, testConfig(t))

	if _, err := s.ScanPost(context.Background(), models.TargetPost{FirestoreID: "p1", PlatformPostID: "1"}); err != nil {
		t.Fatalf("ScanPost() returned unexpected error: %v", err)
	}

	loadMoreClicks := 0
	for _, sel := range driver.clicked {
		if sel == loadMoreButton {
			loadMoreClicks++
		}
	}
	if loadMoreClicks != 3 {
		t.Errorf("load-more clicked %d times, want exactly MaxLoadMoreClicks (3)", loadMoreClicks)
	}
}

func TestScanPost_ZeroCandidatesWritesSnapshot(t *testing.T) {
	driver := newFakeDriver()
	driver.pageHTML = `<html><body><p>Nothing here.</p></body></html>`
	driver.waitErr[loadMoreButton] = errors.New("timeout")
	cfg := testConfig(t)
	s := newTestScraper(driver, &fakeSessionStore{}, cfg)

	candidates, err := s.ScanPost(context.Background(), models.TargetPost{FirestoreID: "p1", PlatformPostID: "1"})
	if err != nil {
		t.Fatalf("ScanPost() returned unexpected error: %v", err)
	}
	if len(candidates) != 0 {
		t.Fatalf("candidates = %+v, want none", candidates)
	}

	entries, err := os.ReadDir(cfg.SnapshotDir)
	if err != nil {
		t.Fatalf("failed to read snapshot dir: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("snapshot dir has %d files, want 1", len(entries))
	}
	data, err := os.ReadFile(filepath.Join(cfg.SnapshotDir, entries[0].Name()))
	if err != nil {
		t.Fatalf("failed to read snapshot: %v", err)
	}
	if !strings.Contains(string(data), "Nothing here.") {
		t.Error("snapshot does not contain the captured page HTML")
	}
}

func TestScanPost_NavigationRetries(t *testing.T) {
	driver := newFakeDriver()
	post := models.TargetPost{FirestoreID: "p1", PlatformPostID: "42"}
	url := "https://www.linkedin.com/feed/update/urn:li:activity:42/"
	driver.gotoErr[url] = errors.New("net::ERR_CONNECTION_RESET")
	s := newTestScraper(driver, &fakeSessionStore{}, testConfig(t))

	_, err := s.ScanPost(context.Background(), post)
	if err == nil {
		t.Fatal("ScanPost() returned nil error when navigation kept failing")
	}
	if len(driver.gotoURLs) != 3 {
		t.Errorf("navigation attempted %d times, want 3 (initial + 2 retries)", len(driver.gotoURLs))
	}
}

func TestSaveSnapshot_SanitizesPostID(t *testing.T) {
	dir := t.TempDir()
	path, err := SaveSnapshot(dir, "urn:li:activity/7212?x=1", "<html></html>")
	if err != nil {
		t.Fatalf("SaveSnapshot() returned unexpected error: %v", err)
	}
	base := filepath.Base(path)
	if strings.ContainsAny(base, ":/?=") {
		t.Errorf("snapshot filename %q contains unsanitized characters", base)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("snapshot file missing: %v", err)
	}
}
