package subtitle

import (
	"bufio"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"

	"github.com/captionforge/captionforge/pkg/models"
)

var srtTimeLine = regexp.MustCompile(`^(\d{2}):(\d{2}):(\d{2}),(\d{3}) --> (\d{2}):(\d{2}):(\d{2}),(\d{3})$`)

// ParseSRT reads an SRT stream back into cue index/span/text triples.
// Styling is not representable in SRT, so parsed subtitles carry zero-value
// style and position.
func ParseSRT(r io.Reader) ([]models.Subtitle, error) {
	scanner := bufio.NewScanner(r)

	var subs []models.Subtitle
	var cur *models.Subtitle
	var textLines []string

	flush := func() {
		if cur != nil {
			cur.Text = strings.Join(textLines, "\n")
			subs = append(subs, *cur)
			cur = nil
			textLines = nil
		}
	}

	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")

		if line == "" {
			flush()
			continue
		}

		if cur == nil {
			index, err := strconv.Atoi(strings.TrimSpace(line))
			if err != nil {
				return nil, fmt.Errorf("invalid cue index %q", line)
			}

			if !scanner.Scan() {
				return nil, fmt.Errorf("cue %d: missing timestamp line", index)
			}
			timeLine := strings.TrimRight(scanner.Text(), "\r")

			m := srtTimeLine.FindStringSubmatch(timeLine)
			if m == nil {
				return nil, fmt.Errorf("cue %d: invalid timestamp line %q", index, timeLine)
			}

			cur = &models.Subtitle{
				Index:     index,
				StartTime: srtFieldsToSeconds(m[1], m[2], m[3], m[4]),
				EndTime:   srtFieldsToSeconds(m[5], m[6], m[7], m[8]),
			}
			continue
		}

		textLines = append(textLines, line)
	}
	flush()

	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return subs, nil
}

func srtFieldsToSeconds(h, m, s, ms string) float64 {
	hh, _ := strconv.Atoi(h)
	mm, _ := strconv.Atoi(m)
	ss, _ := strconv.Atoi(s)
	mmm, _ := strconv.Atoi(ms)
	return float64(hh)*3600 + float64(mm)*60 + float64(ss) + float64(mmm)/1000
}
