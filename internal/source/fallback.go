package source

import (
	"context"
	"io"
	"log/slog"

	"github.com/PuerkitoBio/goquery"
	"github.com/rdesitter/gym-tracker/internal/domain"
)

// fetchFallback scrapes the booking widget page. Every script block carrying a schedule array
// contributes its records; blocks that do not parse are skipped.
func (c *Client) fetchFallback(ctx context.Context) ([]domain.Course, error) {
	resp, err := c.get(ctx, c.widgetURL(), "text/html")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	doc, err := goquery.NewDocumentFromReader(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, err
	}

	courses := make([]domain.Course, 0)
	found := false
	doc.Find("script").Each(func(i int, s *goquery.Selection) {
		items, err := ExtractScriptArray(s.Text())
		if err != nil {
			slog.Debug("skipping script block", "index", i, "error", err)
			return
		}

		found = true
		for idx, item := range items {
			courses = append(courses, c.normalize(item, idx))
		}
	})

	if !found {
		return nil, ErrNoScheduleData
	}
	return courses, nil
}
