package graph

import (
	"fmt"
	"strings"
	"testing"
	"time"
)

func date(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func TestFromDates(t *testing.T) {
	dates := []time.Time{
		date("2025-05-01"),
		date("2025-05-01"),
		date("2025-05-03"),
	}

	data := FromDates(dates, date("2025-05-01"), date("2025-05-04"))

	// 範囲内のすべての日が含まれる
	if len(data) != 4 {
		t.Fatalf("expected 4 days, got %d", len(data))
	}

	wantCounts := []int{2, 0, 1, 0}
	for i, want := range wantCounts {
		if data[i].Count != want {
			t.Errorf("day %d: expected count %d, got %d", i, want, data[i].Count)
		}
	}

	// 日付の昇順であること
	for i := 1; i < len(data); i++ {
		if !data[i-1].Date.Before(data[i].Date) {
			t.Errorf("data not sorted at index %d", i)
		}
	}
}

func TestFromDatesEmpty(t *testing.T) {
	data := FromDates(nil, date("2025-05-01"), date("2025-05-03"))
	if len(data) != 3 {
		t.Fatalf("expected 3 days, got %d", len(data))
	}
	for _, d := range data {
		if d.Count != 0 {
			t.Errorf("expected count 0 for %s, got %d", d.Date.Format("2006-01-02"), d.Count)
		}
	}
}

func TestGenerateActivitySVG(t *testing.T) {
	data := []Data{
		{Date: date("2025-05-04"), Count: 0},
		{Date: date("2025-05-05"), Count: 1},
		{Date: date("2025-05-06"), Count: 3},
	}

	svg := GenerateActivitySVG(data, nil)

	if !strings.HasPrefix(svg, "<svg") {
		t.Errorf("expected SVG output, got %q", svg[:min(len(svg), 20)])
	}
	if !strings.HasSuffix(svg, "</svg>") {
		t.Errorf("SVG not properly closed")
	}

	// 各日のセルが含まれる
	for _, d := range data {
		key := d.Date.Format("2006-01-02")
		if !strings.Contains(svg, fmt.Sprintf(`data-date="%s"`, key)) {
			t.Errorf("cell for %s not found", key)
		}
		if !strings.Contains(svg, fmt.Sprintf(`data-date="%s" data-count="%d"`, key, d.Count)) {
			t.Errorf("count for %s not rendered", key)
		}
	}

	// タイトルが描画される
	if !strings.Contains(svg, "upload activity") {
		t.Errorf("default title not rendered")
	}
}

func TestGenerateActivitySVGEmpty(t *testing.T) {
	if svg := GenerateActivitySVG(nil, nil); svg != "" {
		t.Errorf("expected empty string for empty data, got %q", svg)
	}
}

func TestGenerateActivitySVGLevels(t *testing.T) {
	opts := DefaultOptions()
	data := []Data{
		{Date: date("2025-05-04"), Count: 0},
		{Date: date("2025-05-05"), Count: 10},
	}

	svg := GenerateActivitySVG(data, opts)

	// 0件の日は最も薄い色
	if !strings.Contains(svg, opts.Colors[0]) {
		t.Errorf("level 0 color not used for zero-count day")
	}
	// 最多の日は最も濃い色
	if !strings.Contains(svg, opts.Colors[len(opts.Colors)-1]) {
		t.Errorf("max level color not used for peak day")
	}
}
