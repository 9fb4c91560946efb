// Package source fetches the class schedule from the booking provider and normalizes it into
// domain.Course values. The structured API is tried first; when it fails the public booking
// widget page is scraped for an inline schedule array.
package source

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/rdesitter/gym-tracker/internal/config"
	"github.com/rdesitter/gym-tracker/internal/domain"
)

const maxBodyBytes = 10 << 20

type Origin string

const (
	OriginPrimary  Origin = "primary"
	OriginFallback Origin = "fallback"
)

var (
	ErrUnexpectedShape = errors.New("response is not a JSON array")
	ErrNoScheduleData  = errors.New("no schedule data found in booking widget")
)

type Result struct {
	Courses []domain.Course
	Origin  Origin
}

type Client struct {
	httpClient *http.Client
	baseURL    string
	companyID  string
	culture    string
	userAgent  string
	lookahead  int
	location   *time.Location
	idStrategy IDStrategy
	now        func() time.Time
}

func New(cfg *config.Config) (*Client, error) {
	loc, err := time.LoadLocation(cfg.Source.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", cfg.Source.Timezone, err)
	}

	strategy, err := ParseIDStrategy(cfg.Source.IDStrategy)
	if err != nil {
		return nil, err
	}

	return &Client{
		httpClient: &http.Client{Timeout: time.Duration(cfg.Source.RequestTimeout) * time.Second},
		baseURL:    cfg.Source.BaseURL,
		companyID:  cfg.Source.CompanyID,
		culture:    cfg.Source.Culture,
		userAgent:  cfg.Source.UserAgent,
		lookahead:  cfg.Source.LookaheadDays,
		location:   loc,
		idStrategy: strategy,
		now:        time.Now,
	}, nil
}

// Fetch returns the current listing. The error wraps domain.ErrSourceUnavailable only when
// both the API and the booking widget failed.
func (c *Client) Fetch(ctx context.Context) (Result, error) {
	courses, err := c.fetchPrimary(ctx)
	if err == nil {
		return Result{Courses: courses, Origin: OriginPrimary}, nil
	}
	slog.Warn("course API failed, falling back to booking widget", "error", err)

	courses, fallbackErr := c.fetchFallback(ctx)
	if fallbackErr != nil {
		return Result{}, fmt.Errorf("%w: api: %v; widget: %v", domain.ErrSourceUnavailable, err, fallbackErr)
	}
	return Result{Courses: courses, Origin: OriginFallback}, nil
}

// FetchCourses never fails: a total failure is logged and reported as an empty listing.
func (c *Client) FetchCourses(ctx context.Context) []domain.Course {
	result, err := c.Fetch(ctx)
	if err != nil {
		slog.Error("unable to fetch courses", "error", err)
		return []domain.Course{}
	}
	return result.Courses
}

func (c *Client) classesURL() string {
	today := c.now().In(c.location)
	q := url.Values{}
	q.Set("companyId", c.companyID)
	q.Set("culture", c.culture)
	q.Set("startDate", today.Format(time.DateOnly))
	q.Set("endDate", today.AddDate(0, 0, c.lookahead).Format(time.DateOnly))
	return c.baseURL + "/api/booking/classes?" + q.Encode()
}

func (c *Client) widgetURL() string {
	q := url.Values{}
	q.Set("companyId", c.companyID)
	q.Set("classesOnly", "1")
	q.Set("culture", c.culture)
	return c.baseURL + "/BookingWidget/?" + q.Encode()
}

func (c *Client) get(ctx context.Context, rawURL, accept string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	if accept != "" {
		req.Header.Set("Accept", accept)
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		resp.Body.Close()
		return nil, fmt.Errorf("unexpected status %d from %s", resp.StatusCode, req.URL.Path)
	}
	return resp, nil
}

func (c *Client) fetchPrimary(ctx context.Context) ([]domain.Course, error) {
	resp, err := c.get(ctx, c.classesURL(), "application/json")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	dec := json.NewDecoder(io.LimitReader(resp.Body, maxBodyBytes))
	dec.UseNumber()

	var payload any
	if err := dec.Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode classes: %w", err)
	}

	items, ok := payload.([]any)
	if !ok {
		return nil, ErrUnexpectedShape
	}

	return c.normalizeAll(items), nil
}

func (c *Client) normalizeAll(items []any) []domain.Course {
	courses := make([]domain.Course, 0, len(items))
	for i, raw := range items {
		item, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		courses = append(courses, c.normalize(item, i))
	}
	return courses
}
