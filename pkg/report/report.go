// Package report writes finished advisor reports to disk as Markdown files
// with a small frontmatter header, and lists previously written reports.
package report

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/papercomputeco/advisor/pkg/advisor"
)

// DefaultTitle heads every exported report.
const DefaultTitle = "高考志愿分析报告"

const ext = ".md"

// Report is one finished request.
type Report struct {
	SessionID string
	Input     advisor.UserInput
	Think     string
	Answer    string
	CreatedAt time.Time

	// IncludeThinking writes the thinking text in a collapsed section.
	IncludeThinking bool
}

// Summary describes a report found on disk.
type Summary struct {
	Path      string
	SessionID string
	Province  string
	Rank      string
	Stream    string
	CreatedAt time.Time
}

// Filename returns the file name a report is written under.
func (r *Report) Filename() string {
	ts := r.CreatedAt
	if ts.IsZero() {
		ts = time.Now()
	}
	return "report-" + ts.Format("20060102-150405") + ext
}

// Render returns the on-disk representation of the report.
func (r *Report) Render() string {
	var b strings.Builder

	b.WriteString("---\n")
	if r.SessionID != "" {
		fmt.Fprintf(&b, "session: %s\n", r.SessionID)
	}
	if r.Input.Province != "" {
		fmt.Fprintf(&b, "province: %s\n", r.Input.Province)
	}
	if r.Input.Rank != "" {
		fmt.Fprintf(&b, "rank: %s\n", r.Input.Rank)
	}
	if r.Input.Stream != "" {
		fmt.Fprintf(&b, "stream: %s\n", r.Input.Stream)
	}
	if !r.CreatedAt.IsZero() {
		fmt.Fprintf(&b, "created_at: %s\n", r.CreatedAt.Format(time.RFC3339))
	}
	b.WriteString("---\n\n")

	fmt.Fprintf(&b, "# %s\n\n", DefaultTitle)

	b.WriteString("## 学生背景\n\n")
	fmt.Fprintf(&b, "- 省份: %s\n", orUnknown(r.Input.Province))
	fmt.Fprintf(&b, "- 分数/位次: %s\n", orUnknown(r.Input.Rank))
	if r.Input.Stream != "" {
		fmt.Fprintf(&b, "- 科类: %s\n", r.Input.Stream)
	}
	b.WriteString("\n")
	if text := strings.TrimSpace(r.Input.RawText); text != "" {
		for line := range strings.SplitSeq(text, "\n") {
			b.WriteString("> " + line + "\n")
		}
		b.WriteString("\n")
	}

	if r.IncludeThinking && strings.TrimSpace(r.Think) != "" {
		b.WriteString("<details>\n<summary>AI思考过程</summary>\n\n")
		b.WriteString(strings.TrimSpace(r.Think))
		b.WriteString("\n\n</details>\n\n")
	}

	b.WriteString(strings.TrimSpace(r.Answer))
	b.WriteString("\n")

	return b.String()
}

// Write persists the report as <dir>/<filename> and returns its path.
func Write(r *Report, dir string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create report directory: %w", err)
	}

	path := filepath.Join(dir, r.Filename())
	if err := os.WriteFile(path, []byte(r.Render()), 0o600); err != nil {
		return "", fmt.Errorf("write report: %w", err)
	}

	return path, nil
}

// WriteFile persists the report at an explicit path.
func WriteFile(r *Report, path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create report directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(r.Render()), 0o600); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}

// List scans dir for reports, newest first. Files without a valid header
// are skipped. A missing directory yields no reports.
func List(dir string) ([]Summary, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read report directory: %w", err)
	}

	var out []Summary
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ext) {
			continue
		}

		path := filepath.Join(dir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}

		s, err := parseHeader(string(data))
		if err != nil {
			continue
		}
		s.Path = path
		out = append(out, s)
	}

	slices.SortStableFunc(out, func(a, b Summary) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})

	return out, nil
}

// Read loads the report at path and returns its summary and the Markdown
// body that follows the header.
func Read(path string) (Summary, string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Summary{}, "", fmt.Errorf("read report: %w", err)
	}

	content := string(data)
	s, err := parseHeader(content)
	if err != nil {
		return Summary{}, "", fmt.Errorf("parse report %s: %w", path, err)
	}
	s.Path = path

	_, body, _ := strings.Cut(content[4:], "\n---\n")
	return s, strings.TrimLeft(body, "\n"), nil
}

func parseHeader(content string) (Summary, error) {
	if !strings.HasPrefix(content, "---\n") {
		return Summary{}, errors.New("missing header delimiter")
	}

	header, _, ok := strings.Cut(content[4:], "\n---\n")
	if !ok {
		return Summary{}, errors.New("missing closing header delimiter")
	}

	var s Summary
	for line := range strings.SplitSeq(header, "\n") {
		key, value, ok := strings.Cut(line, ": ")
		if !ok {
			continue
		}
		value = strings.TrimSpace(value)

		switch strings.TrimSpace(key) {
		case "session":
			s.SessionID = value
		case "province":
			s.Province = value
		case "rank":
			s.Rank = value
		case "stream":
			s.Stream = value
		case "created_at":
			if t, err := time.Parse(time.RFC3339, value); err == nil {
				s.CreatedAt = t
			}
		}
	}

	return s, nil
}

func orUnknown(s string) string {
	if s == "" {
		return "未知"
	}
	return s
}
