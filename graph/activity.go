// Package graph は、アーカイブへのアップロード活動を
// 年間グリッドのSVGとして描画します。
package graph

import (
	"fmt"
	"strings"
	"time"
)

// Data は1日分のアップロード件数を保持します。
type Data struct {
	Date  time.Time
	Count int
}

// Options は描画パラメータを設定します。
type Options struct {
	CellSize    int      // 日セルのサイズ (px)
	CellPadding int      // セル間の余白 (px)
	Colors      []string // レベル0..N-1に対応するCSSカラー
	FontSize    int      // ラベルのフォントサイズ (px)
	FontFamily  string   // ラベルのフォントファミリー
	Title       string   // グラフタイトル
}

// DefaultOptions はアーカイブ活動グラフの既定の描画設定を返します。
func DefaultOptions() *Options {
	return &Options{
		CellSize:    12,
		CellPadding: 2,
		FontSize:    10,
		FontFamily:  "sans-serif",
		Colors:      []string{"#ebedf0", "#9be9a8", "#40c463", "#30a14e", "#216e39"},
		Title:       "upload activity",
	}
}

// FromDates は日時の一覧を日単位で集計し、from から to までの
// すべての日を含む連続したデータ列を返します。
func FromDates(dates []time.Time, from, to time.Time) []Data {
	counts := make(map[string]int, len(dates))
	for _, d := range dates {
		counts[d.Local().Format("2006-01-02")]++
	}

	var data []Data
	current := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, from.Location())
	end := time.Date(to.Year(), to.Month(), to.Day(), 0, 0, 0, 0, to.Location())
	for !current.After(end) {
		data = append(data, Data{
			Date:  current,
			Count: counts[current.Format("2006-01-02")],
		})
		current = current.AddDate(0, 0, 1)
	}
	return data
}

// GenerateActivitySVG はアップロード活動の年間グリッドをSVG文字列として返します。
// data は日付の昇順にソートされている必要があります。
func GenerateActivitySVG(data []Data, opts *Options) string {
	if opts == nil {
		opts = DefaultOptions()
	}

	if len(data) == 0 {
		return ""
	}

	startDate := data[0].Date
	endDate := data[len(data)-1].Date

	countMap := make(map[string]int, len(data))
	for _, d := range data {
		countMap[d.Date.Format("2006-01-02")] = d.Count
	}

	// 最初の列を日曜日に揃える
	firstSunday := startDate.AddDate(0, 0, -int(startDate.Weekday()))

	// 必要な週数を計算
	dayDiff := endDate.Sub(firstSunday).Hours() / 24
	weeks := int(dayDiff/7) + 1

	// 寸法の計算
	titleHeight := 0
	if opts.Title != "" {
		titleHeight = opts.FontSize + 8
	}
	width := weeks*(opts.CellSize+opts.CellPadding) + opts.CellPadding
	height := 7*(opts.CellSize+opts.CellPadding) + opts.CellPadding + opts.FontSize + 4 + titleHeight

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf(`<svg width="%d" height="%d" xmlns="http://www.w3.org/2000/svg">`+"\n", width, height))
	sb.WriteString(fmt.Sprintf(`  <style>.label{font-family:%s;font-size:%dpx;fill:#666}.title{font-family:%s;font-size:%dpx;fill:#333;font-weight:bold}</style>`+"\n",
		opts.FontFamily, opts.FontSize, opts.FontFamily, opts.FontSize))

	if opts.Title != "" {
		sb.WriteString(fmt.Sprintf(`  <text x="%d" y="%d" class="title">%s</text>`+"\n",
			opts.CellPadding, opts.FontSize, opts.Title))
	}

	// 月ラベル
	months := []string{"Jan", "Feb", "Mar", "Apr", "May", "Jun", "Jul", "Aug", "Sep", "Oct", "Nov", "Dec"}
	lastMonth := -1
	monthLabelY := opts.FontSize + titleHeight
	for w := range weeks {
		x := opts.CellPadding + w*(opts.CellSize+opts.CellPadding)
		current := firstSunday.AddDate(0, 0, w*7)
		if current.Day() <= 7 && int(current.Month())-1 != lastMonth {
			sb.WriteString(fmt.Sprintf(`  <text x="%d" y="%d" class="label">%s</text>`+"\n",
				x, monthLabelY, months[current.Month()-1]))
			lastMonth = int(current.Month()) - 1
		}
	}

	// 自動スケーリングのための最大値を求める
	supCount := 5
	for _, d := range data {
		if d.Count+1 > supCount {
			supCount = d.Count + 1
		}
	}

	// 日セルの描画
	levels := len(opts.Colors)
	for w := range weeks {
		for i := range 7 {
			current := firstSunday.AddDate(0, 0, w*7+i)
			key := current.Format("2006-01-02")
			count, exists := countMap[key]
			if !exists {
				continue
			}

			// 0件の日は常にレベル0、1件以上は1..levels-1に分散する
			level := 0
			if count > 0 {
				if supCount > 1 {
					level = ((count-1)*(levels-2))/(supCount-1) + 1
					if level >= levels {
						level = levels - 1
					}
					if level < 1 {
						level = 1
					}
				} else {
					level = 1
				}
			}

			x := opts.CellPadding + w*(opts.CellSize+opts.CellPadding)
			y := opts.CellPadding + opts.FontSize + 4 + titleHeight + i*(opts.CellSize+opts.CellPadding)

			sb.WriteString(fmt.Sprintf(`  <rect x="%d" y="%d" width="%d" height="%d" fill="%s" data-date="%s" data-count="%d">`+"\n",
				x, y, opts.CellSize, opts.CellSize, opts.Colors[level], key, count))
			sb.WriteString(fmt.Sprintf(`    <title>%s: %d</title>`+"\n", key, count))
			sb.WriteString(`  </rect>` + "\n")
		}
	}

	sb.WriteString(`</svg>`)
	return sb.String()
}
