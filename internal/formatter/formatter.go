// Package formatter renders listening history, stats and achievements as JSON, CSV, Markdown or text.
package formatter

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/desertthunder/ytplay/internal/models"
	"github.com/desertthunder/ytplay/internal/shared"
	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
)

// Format is an output format name.
type Format string

const (
	FormatJSON     Format = "json"
	FormatCSV      Format = "csv"
	FormatMarkdown Format = "markdown"
	FormatText     Format = "text"
)

// ParseFormat accepts a format name or its short alias ("md", "txt").
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "json":
		return FormatJSON, nil
	case "csv":
		return FormatCSV, nil
	case "markdown", "md":
		return FormatMarkdown, nil
	case "", "text", "txt":
		return FormatText, nil
	default:
		return "", fmt.Errorf("%w: unknown format %q (json, csv, markdown, text)", shared.ErrInvalidArgument, s)
	}
}

// sheet is the tabular form every listing is reduced to before rendering.
type sheet struct {
	title   string
	summary []string
	headers []string
	rows    [][]string
}

func (s sheet) render(f Format) ([]byte, error) {
	switch f {
	case FormatCSV:
		return s.csv()
	case FormatMarkdown:
		return s.markdown(), nil
	case FormatText:
		return s.text(), nil
	default:
		return nil, fmt.Errorf("%w: %s is not tabular", shared.ErrInvalidArgument, f)
	}
}

func (s sheet) csv() ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	if err := writer.Write(s.headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}
	for _, row := range s.rows {
		if err := writer.Write(row); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

func (s sheet) table() table.Writer {
	t := table.NewWriter()
	header := make(table.Row, len(s.headers))
	for i, h := range s.headers {
		header[i] = h
	}
	t.AppendHeader(header)

	for _, r := range s.rows {
		row := make(table.Row, len(r))
		for i, cell := range r {
			row[i] = cell
		}
		t.AppendRow(row)
	}
	return t
}

func (s sheet) markdown() []byte {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("# %s\n\n", s.title))
	for _, line := range s.summary {
		buf.WriteString(fmt.Sprintf("**%s**\n", line))
	}
	if len(s.summary) > 0 {
		buf.WriteString("\n")
	}

	if len(s.rows) == 0 {
		buf.WriteString("_Nothing here yet._\n")
		return buf.Bytes()
	}
	buf.WriteString(s.table().RenderMarkdown())
	buf.WriteString("\n")
	return buf.Bytes()
}

func (s sheet) text() []byte {
	var buf bytes.Buffer

	buf.WriteString(s.title + "\n")
	for _, line := range s.summary {
		buf.WriteString(line + "\n")
	}
	buf.WriteString("\n")

	if len(s.rows) == 0 {
		buf.WriteString("Nothing here yet.\n")
		return buf.Bytes()
	}

	t := s.table()
	t.SetStyle(table.StyleLight)
	buf.WriteString(t.Render())
	buf.WriteString("\n")
	return buf.Bytes()
}

func toJSON(v any) ([]byte, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode JSON: %w", err)
	}
	return append(data, '\n'), nil
}

// History renders plays newest first. Times are relative to now in text and Markdown.
func History(records []models.PlayRecord, f Format, now time.Time) ([]byte, error) {
	if f == FormatJSON {
		if records == nil {
			records = []models.PlayRecord{}
		}
		return toJSON(records)
	}

	s := sheet{
		title:   "Recently Played",
		summary: []string{fmt.Sprintf("Plays: %s", humanize.Comma(int64(len(records))))},
		headers: []string{"#", "Title", "Artist", "Duration", "Played"},
	}
	if f == FormatCSV {
		s.headers = []string{"ID", "Title", "Artist", "Duration", "PlayedAt"}
	}

	for i, rec := range records {
		if f == FormatCSV {
			s.rows = append(s.rows, []string{
				rec.Track.ID,
				rec.Track.Title,
				rec.Track.Artist,
				rec.Track.Duration,
				rec.PlayedAt.UTC().Format(time.RFC3339),
			})
			continue
		}
		s.rows = append(s.rows, []string{
			strconv.Itoa(i + 1),
			rec.Track.Title,
			rec.Track.Artist,
			rec.Track.Duration,
			humanize.RelTime(rec.PlayedAt, now, "ago", "from now"),
		})
	}

	return s.render(f)
}

// Stats renders per-track totals in the order given.
func Stats(stats []models.TrackStats, f Format) ([]byte, error) {
	if f == FormatJSON {
		if stats == nil {
			stats = []models.TrackStats{}
		}
		return toJSON(stats)
	}

	var plays, seconds int
	for _, st := range stats {
		plays += st.PlayCount
		seconds += st.TotalSeconds
	}

	s := sheet{
		title: "Top Tracks",
		summary: []string{
			fmt.Sprintf("Plays: %s", humanize.Comma(int64(plays))),
			fmt.Sprintf("Listening time: %s", models.FormatDuration(seconds)),
		},
		headers: []string{"#", "Title", "Artist", "Plays", "Time"},
	}
	if f == FormatCSV {
		s.headers = []string{"ID", "Title", "Artist", "PlayCount", "TotalSeconds", "LastPlayedAt"}
	}

	for i, st := range stats {
		if f == FormatCSV {
			s.rows = append(s.rows, []string{
				st.Track.ID,
				st.Track.Title,
				st.Track.Artist,
				strconv.Itoa(st.PlayCount),
				strconv.Itoa(st.TotalSeconds),
				st.LastPlayedAt.UTC().Format(time.RFC3339),
			})
			continue
		}
		s.rows = append(s.rows, []string{
			strconv.Itoa(i + 1),
			st.Track.Title,
			st.Track.Artist,
			humanize.Comma(int64(st.PlayCount)),
			models.FormatDuration(st.TotalSeconds),
		})
	}

	return s.render(f)
}

// Achievements renders a ledger summary followed by unlocked achievements.
func Achievements(ledger models.Ledger, unlocked []models.Achievement, f Format, now time.Time) ([]byte, error) {
	if f == FormatJSON {
		if unlocked == nil {
			unlocked = []models.Achievement{}
		}
		return toJSON(struct {
			Ledger       models.Ledger        `json:"ledger"`
			Achievements []models.Achievement `json:"achievements"`
		}{ledger, unlocked})
	}

	s := sheet{
		title: "Achievements",
		summary: []string{
			fmt.Sprintf("Level %d (%s XP)", ledger.Level, humanize.Comma(int64(ledger.XP))),
			fmt.Sprintf("Plays: %s", humanize.Comma(int64(ledger.Plays))),
		},
		headers: []string{"", "Title", "Description", "Unlocked"},
	}
	if f == FormatCSV {
		s.headers = []string{"ID", "Title", "Description", "UnlockedAt"}
	}

	for _, a := range unlocked {
		if f == FormatCSV {
			s.rows = append(s.rows, []string{a.ID, a.Title, a.Description, a.UnlockedAt.UTC().Format(time.RFC3339)})
			continue
		}
		s.rows = append(s.rows, []string{a.Icon, a.Title, a.Description, humanize.RelTime(a.UnlockedAt, now, "ago", "from now")})
	}

	return s.render(f)
}
