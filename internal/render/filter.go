// Package render builds and executes the ffmpeg graph that turns an
// editing session into a 9:16 short: per-segment trim, speed and crop,
// concatenation, and drawtext overlays for visible titles.
package render

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/shortsplice/splice-agent/internal/export"
)

var ErrNoSegments = errors.New("render payload has no segments")

// GraphOptions carries the source facts the graph depends on.
type GraphOptions struct {
	// HasAudio selects whether audio legs are trimmed and concatenated
	// alongside video. Mapping an [0:a] leg on a silent source makes
	// ffmpeg fail outright.
	HasAudio bool

	// FontFile, when set, pins drawtext to a specific font instead of
	// the fontconfig default.
	FontFile string
}

// Graph is a composed filter_complex and the labels its outputs end on.
type Graph struct {
	Filter     string
	VideoLabel string
	AudioLabel string
}

// BuildFilterGraph composes the full filter_complex for a payload. Per
// segment: trim to the source interval, rebase and divide timestamps by
// the speed ratio, crop to 9:16 at the segment's horizontal offset with
// even-width truncation for libx264. Segment legs concat in payload
// order; visible titles draw on the concatenated stream.
func BuildFilterGraph(p *export.RenderPayload, opts GraphOptions) (*Graph, error) {
	if len(p.Segments) == 0 {
		return nil, ErrNoSegments
	}

	var parts []string
	var concatIn []string

	for i, seg := range p.Segments {
		speed := seg.Speed
		if speed <= 0 {
			speed = 1
		}
		offset := seg.CropOffset
		if offset < 0 {
			offset = 0
		} else if offset > 1 {
			offset = 1
		}

		parts = append(parts, fmt.Sprintf(
			"[0:v]trim=start=%s:end=%s,setpts=(PTS-STARTPTS)/%s,crop=trunc(ih*9/16/2)*2:ih:(iw-ow)*%s:0[v%d]",
			ffNum(seg.Start), ffNum(seg.End), ffNum(speed), ffNum(offset), i))
		concatIn = append(concatIn, fmt.Sprintf("[v%d]", i))

		if opts.HasAudio {
			parts = append(parts, fmt.Sprintf(
				"[0:a]atrim=start=%s:end=%s,asetpts=PTS-STARTPTS%s[a%d]",
				ffNum(seg.Start), ffNum(seg.End), atempoChain(speed), i))
			concatIn = append(concatIn, fmt.Sprintf("[a%d]", i))
		}
	}

	n := len(p.Segments)
	g := &Graph{VideoLabel: "[outv]"}
	if opts.HasAudio {
		parts = append(parts, fmt.Sprintf("%sconcat=n=%d:v=1:a=1[outv][outa]", strings.Join(concatIn, ""), n))
		g.AudioLabel = "[outa]"
	} else {
		parts = append(parts, fmt.Sprintf("%sconcat=n=%d:v=1:a=0[outv]", strings.Join(concatIn, ""), n))
	}

	if draws := titleFilters(p.Titles, opts.FontFile); len(draws) > 0 {
		parts = append(parts, fmt.Sprintf("[outv]%s[vtitled]", strings.Join(draws, ",")))
		g.VideoLabel = "[vtitled]"
	}

	g.Filter = strings.Join(parts, ";")
	return g, nil
}

// titleFilters emits one drawtext per visible title, positioned on the
// output timeline via enable=between. Fade-animated titles ramp alpha
// over the first and last 300ms of their window.
func titleFilters(titles []export.TitlePayload, fontFile string) []string {
	var draws []string
	for _, t := range titles {
		if !t.Visible || strings.TrimSpace(t.Text) == "" {
			continue
		}

		start := t.StartTime
		end := t.StartTime + t.Duration

		var y string
		switch t.Position {
		case "top":
			y = "h/10"
		case "bottom":
			y = "h-text_h-h/10"
		default:
			y = "(h-text_h)/2"
		}

		var b strings.Builder
		b.WriteString("drawtext=")
		if fontFile != "" {
			fmt.Fprintf(&b, "fontfile='%s':", escapeDrawtext(fontFile))
		}
		fmt.Fprintf(&b, "text='%s':fontsize=%d:fontcolor=white:borderw=2:bordercolor=black",
			escapeDrawtext(t.Text), t.FontSize)
		fmt.Fprintf(&b, ":x=(w-text_w)/2:y=%s", y)
		fmt.Fprintf(&b, ":enable='between(t,%s,%s)'", ffNum(start), ffNum(end))
		if t.Animation == "fade" {
			fmt.Fprintf(&b, ":alpha='if(lt(t,%s),(t-%s)/0.3,if(gt(t,%s),(%s-t)/0.3,1))'",
				ffNum(start+0.3), ffNum(start), ffNum(end-0.3), ffNum(end))
		}
		draws = append(draws, b.String())
	}
	return draws
}

// atempoChain builds the audio speed correction for one segment leg.
// A single atempo instance is bounded to [0.5, 2.0]; ratios outside
// that range chain instances until the remainder fits.
func atempoChain(speed float64) string {
	if speed == 1 {
		return ""
	}
	var b strings.Builder
	for speed > 2 {
		b.WriteString(",atempo=2")
		speed /= 2
	}
	for speed < 0.5 {
		b.WriteString(",atempo=0.5")
		speed *= 2
	}
	fmt.Fprintf(&b, ",atempo=%s", ffNum(speed))
	return b.String()
}

// escapeDrawtext escapes the runes drawtext treats as syntax.
func escapeDrawtext(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `'`, `\'`, `:`, `\:`, `%`, `\%`)
	return r.Replace(s)
}

func ffNum(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// RenderArgs assembles the full ffmpeg argument list around a graph.
func RenderArgs(inputPath, outputPath string, g *Graph) []string {
	args := []string{"-y", "-i", inputPath, "-filter_complex", g.Filter, "-map", g.VideoLabel}
	if g.AudioLabel != "" {
		args = append(args, "-map", g.AudioLabel, "-c:a", "aac")
	}
	args = append(args, "-c:v", "libx264", "-preset", "fast", "-crf", "23", outputPath)
	return args
}
