package report

import (
	"context"
	"fmt"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/sony/gobreaker/v2"

	"xivherald/internal/gametime"
	logx "xivherald/pkg/logx"
)

// titleRe matches the canonical details-post title, e.g.
// "Fashion Report - Full Details - For Week of 8/15/2025 (Week 342)".
var titleRe = regexp.MustCompile(`Fashion Report - Full Details - For Week of (?P<date>[0-9/]+) \(Week (?P<week>[0-9]{3,})\)`)

type KaiyokoConfig struct {
	// SourceURL is the blog listing page scraped for details posts.
	SourceURL string
	Timeout   time.Duration
	UserAgent string
}

func (c *KaiyokoConfig) normalize() {
	if strings.TrimSpace(c.SourceURL) == "" {
		c.SourceURL = "https://na.finalfantasyxiv.com/lodestone/character/8774791/blog/"
	}
	if c.Timeout <= 0 {
		c.Timeout = 20 * time.Second
	}
	if strings.TrimSpace(c.UserAgent) == "" {
		c.UserAgent = "xivherald/1.0"
	}
}

// Kaiyoko scrapes the community details posts from a Lodestone blog listing.
//
// The source is a third party with its own availability; a circuit breaker
// keeps a flapping Lodestone from being hammered by engine retries.
type Kaiyoko struct {
	cfg     KaiyokoConfig
	http    *http.Client
	breaker *gobreaker.CircuitBreaker[[]Report]
	log     logx.Logger
}

var _ Fetcher = (*Kaiyoko)(nil)

func NewKaiyoko(cfg KaiyokoConfig, log logx.Logger) *Kaiyoko {
	cfg.normalize()
	if log.IsZero() {
		log = logx.Nop()
	}
	k := &Kaiyoko{
		cfg:  cfg,
		http: &http.Client{Timeout: cfg.Timeout},
		log:  log,
	}
	k.breaker = gobreaker.NewCircuitBreaker[[]Report](gobreaker.Settings{
		Name:        "kaiyoko",
		MaxRequests: 1,
		Interval:    5 * time.Minute,
		Timeout:     2 * time.Minute,
		ReadyToTrip: func(c gobreaker.Counts) bool {
			return c.ConsecutiveFailures >= 3
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn("fetch breaker state change",
				logx.String("breaker", name),
				logx.String("from", from.String()),
				logx.String("to", to.String()))
		},
	})
	return k
}

// Latest fetches the listing and returns the newest details post. ok is true
// only when that post covers the report week containing now.
func (k *Kaiyoko) Latest(ctx context.Context, now time.Time) (Report, bool, error) {
	posts, err := k.breaker.Execute(func() ([]Report, error) {
		return k.scrape(ctx)
	})
	if err != nil {
		return Report{}, false, err
	}
	if len(posts) == 0 {
		return Report{}, false, nil
	}

	newest := posts[0]
	for _, p := range posts[1:] {
		if p.Week > newest.Week {
			newest = p
		}
	}
	return newest, newest.Week == gametime.FashionReportWeek(now), nil
}

func (k *Kaiyoko) scrape(ctx context.Context) ([]Report, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, k.cfg.SourceURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", k.cfg.UserAgent)

	resp, err := k.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch %s: status %d", k.cfg.SourceURL, resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, err
	}
	return parsePosts(doc, k.cfg.SourceURL), nil
}

// parsePosts walks the blog listing entries and keeps the ones whose title
// matches the details-post pattern.
func parsePosts(doc *goquery.Document, base string) []Report {
	var out []Report
	doc.Find("li.entry__blog").Each(func(_ int, s *goquery.Selection) {
		title := strings.TrimSpace(s.Find("h2.entry__blog__title").Text())
		m := titleRe.FindStringSubmatch(title)
		if m == nil {
			return
		}
		week, err := strconv.Atoi(m[titleRe.SubexpIndex("week")])
		if err != nil {
			return
		}

		href, _ := s.Find("a.entry__blog__link").Attr("href")
		img, _ := s.Find("img").Attr("src")
		out = append(out, Report{
			Week:     week,
			Title:    title,
			URL:      absoluteURL(base, href),
			ImageURL: img,
		})
	})
	return out
}

func absoluteURL(base, href string) string {
	if href == "" || strings.HasPrefix(href, "http://") || strings.HasPrefix(href, "https://") {
		return href
	}
	if strings.HasPrefix(href, "/") {
		if i := strings.Index(base, "://"); i >= 0 {
			if j := strings.Index(base[i+3:], "/"); j >= 0 {
				return base[:i+3+j] + href
			}
		}
	}
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(href, "/")
}
