package render

import (
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/shortsplice/splice-agent/internal/export"
)

func twoSegmentPayload() *export.RenderPayload {
	return &export.RenderPayload{
		FileID: "f1",
		Segments: []export.SegmentPayload{
			{ID: "s1", Start: 5, End: 10, CropOffset: 0.5, Speed: 1},
			{ID: "s2", Start: 20, End: 30, CropOffset: 0.25, Speed: 2},
		},
	}
}

func TestBuildFilterGraph_WithAudio(t *testing.T) {
	g, err := BuildFilterGraph(twoSegmentPayload(), GraphOptions{HasAudio: true})
	if err != nil {
		t.Fatalf("BuildFilterGraph() error = %v", err)
	}

	wantParts := []string{
		"[0:v]trim=start=5:end=10,setpts=(PTS-STARTPTS)/1,crop=trunc(ih*9/16/2)*2:ih:(iw-ow)*0.5:0[v0]",
		"[0:v]trim=start=20:end=30,setpts=(PTS-STARTPTS)/2,crop=trunc(ih*9/16/2)*2:ih:(iw-ow)*0.25:0[v1]",
		"[0:a]atrim=start=5:end=10,asetpts=PTS-STARTPTS[a0]",
		"[0:a]atrim=start=20:end=30,asetpts=PTS-STARTPTS,atempo=2[a1]",
		"[v0][a0][v1][a1]concat=n=2:v=1:a=1[outv][outa]",
	}
	for _, want := range wantParts {
		if !strings.Contains(g.Filter, want) {
			t.Errorf("graph missing %q\n%s", want, g.Filter)
		}
	}
	if g.VideoLabel != "[outv]" || g.AudioLabel != "[outa]" {
		t.Errorf("labels = %q %q", g.VideoLabel, g.AudioLabel)
	}
}

func TestBuildFilterGraph_NoAudio(t *testing.T) {
	g, err := BuildFilterGraph(twoSegmentPayload(), GraphOptions{})
	if err != nil {
		t.Fatalf("BuildFilterGraph() error = %v", err)
	}

	if strings.Contains(g.Filter, "atrim") || strings.Contains(g.Filter, "[a0]") {
		t.Errorf("silent source got audio legs\n%s", g.Filter)
	}
	if !strings.Contains(g.Filter, "[v0][v1]concat=n=2:v=1:a=0[outv]") {
		t.Errorf("bad concat\n%s", g.Filter)
	}
	if g.AudioLabel != "" {
		t.Errorf("audio label = %q on silent source", g.AudioLabel)
	}
}

func TestBuildFilterGraph_Empty(t *testing.T) {
	_, err := BuildFilterGraph(&export.RenderPayload{}, GraphOptions{})
	if !errors.Is(err, ErrNoSegments) {
		t.Errorf("error = %v, want ErrNoSegments", err)
	}
}

func TestBuildFilterGraph_ClampsDegenerateFields(t *testing.T) {
	p := &export.RenderPayload{Segments: []export.SegmentPayload{
		{Start: 0, End: 5, CropOffset: 1.7, Speed: 0},
	}}
	g, err := BuildFilterGraph(p, GraphOptions{})
	if err != nil {
		t.Fatalf("BuildFilterGraph() error = %v", err)
	}
	if !strings.Contains(g.Filter, "(iw-ow)*1:0") {
		t.Errorf("crop offset not clamped to 1\n%s", g.Filter)
	}
	if !strings.Contains(g.Filter, "setpts=(PTS-STARTPTS)/1,") {
		t.Errorf("zero speed not treated as 1\n%s", g.Filter)
	}
}

func TestBuildFilterGraph_Titles(t *testing.T) {
	p := twoSegmentPayload()
	p.Titles = []export.TitlePayload{
		{Text: "Hook: 100%", StartTime: 0, Duration: 2, Animation: "fade", FontSize: 48, Position: "center", Visible: true},
		{Text: "hidden", StartTime: 3, Duration: 2, Visible: false},
		{Text: "Low", StartTime: 5, Duration: 2, FontSize: 32, Position: "bottom", Visible: true},
	}

	g, err := BuildFilterGraph(p, GraphOptions{})
	if err != nil {
		t.Fatalf("BuildFilterGraph() error = %v", err)
	}

	if g.VideoLabel != "[vtitled]" {
		t.Errorf("video label = %q, want [vtitled]", g.VideoLabel)
	}
	if strings.Count(g.Filter, "drawtext=") != 2 {
		t.Errorf("hidden title drawn\n%s", g.Filter)
	}
	if !strings.Contains(g.Filter, `text='Hook\: 100\%'`) {
		t.Errorf("drawtext syntax runes not escaped\n%s", g.Filter)
	}
	if !strings.Contains(g.Filter, "enable='between(t,0,2)'") {
		t.Errorf("missing enable window\n%s", g.Filter)
	}
	if !strings.Contains(g.Filter, ":alpha='if(lt(t,0.3),(t-0)/0.3,") {
		t.Errorf("fade title missing alpha ramp\n%s", g.Filter)
	}
	if !strings.Contains(g.Filter, "y=h-text_h-h/10") {
		t.Errorf("bottom position not applied\n%s", g.Filter)
	}
}

func TestAtempoChain(t *testing.T) {
	tests := []struct {
		speed float64
		want  string
	}{
		{1, ""},
		{2, ",atempo=2"},
		{1.5, ",atempo=1.5"},
		{3, ",atempo=2,atempo=1.5"},
		{0.5, ",atempo=0.5"},
		{0.25, ",atempo=0.5,atempo=0.5"},
	}
	for _, tc := range tests {
		if got := atempoChain(tc.speed); got != tc.want {
			t.Errorf("atempoChain(%v) = %q, want %q", tc.speed, got, tc.want)
		}
	}
}

func TestRenderArgs(t *testing.T) {
	g := &Graph{Filter: "X", VideoLabel: "[outv]", AudioLabel: "[outa]"}
	args := strings.Join(RenderArgs("in.mp4", "out.mp4", g), " ")
	if !strings.Contains(args, "-map [outv] -map [outa] -c:a aac") {
		t.Errorf("audio mapping wrong: %s", args)
	}
	if !strings.HasSuffix(args, "-c:v libx264 -preset fast -crf 23 out.mp4") {
		t.Errorf("encoder tail wrong: %s", args)
	}

	g.AudioLabel = ""
	args = strings.Join(RenderArgs("in.mp4", "out.mp4", g), " ")
	if strings.Contains(args, "aac") {
		t.Errorf("silent graph mapped audio: %s", args)
	}
}

func TestParseFrameRate(t *testing.T) {
	tests := []struct {
		in   string
		want float64
	}{
		{"30/1", 30},
		{"30000/1001", 29.97},
		{"25", 25},
		{"bad/0", 0},
	}
	for _, tc := range tests {
		if got := parseFrameRate(tc.in); math.Abs(got-tc.want) > 0.01 {
			t.Errorf("parseFrameRate(%q) = %v, want about %v", tc.in, got, tc.want)
		}
	}
}
