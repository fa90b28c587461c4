package export

import (
	"fmt"
	"math"
	"strings"

	"github.com/shortsplice/splice-agent/internal/session"
)

// GenerateEDL emits the session's segments as a CMX 3600-style cut
// list. Source in/out are source-time, record in/out accumulate on the
// output timeline with each segment's speed applied. Segments with a
// non-unit speed carry an M2 motion memo.
func GenerateEDL(segments []session.Segment, title, mediaPath string, frameRate float64) string {
	fps := int(math.Round(frameRate))
	if fps <= 0 {
		fps = 30
	}

	isDropFrame := math.Abs(frameRate-29.97) < 0.01 || math.Abs(frameRate-59.94) < 0.01

	lines := []string{fmt.Sprintf("TITLE: %s", title)}
	if isDropFrame {
		lines = append(lines, "FCM: DROP FRAME")
	} else {
		lines = append(lines, "FCM: NON-DROP FRAME")
	}
	lines = append(lines, "")

	recordOffsetMs := 0
	for i, seg := range segments {
		speed := seg.Speed
		if speed <= 0 {
			speed = 1
		}

		srcInMs := secondsToMs(seg.Start)
		srcOutMs := secondsToMs(seg.End)
		recordMs := int(math.Round(float64(srcOutMs-srcInMs) / speed))

		srcIn := msToTimecode(srcInMs, fps)
		srcOut := msToTimecode(srcOutMs, fps)
		recIn := msToTimecode(recordOffsetMs, fps)
		recOut := msToTimecode(recordOffsetMs+recordMs, fps)

		lines = append(lines,
			fmt.Sprintf("%03d  %-8s %-5s C        %s %s %s %s", i+1, "AX", "V", srcIn, srcOut, recIn, recOut),
		)
		if speed != 1 {
			lines = append(lines, fmt.Sprintf("M2   AX   %6.1f %s", frameRate*speed, srcIn))
		}
		lines = append(lines,
			fmt.Sprintf("* FROM CLIP NAME:  Segment %02d", i+1),
			fmt.Sprintf("* MEDIA PATH:  %s", mediaPath),
		)

		recordOffsetMs += recordMs
	}

	lines = append(lines, "")
	return strings.Join(lines, "\n")
}

func secondsToMs(s float64) int {
	return int(math.Round(s * 1000))
}

func msToTimecode(ms int, fps int) string {
	totalFrames := int(math.Round(float64(ms) * float64(fps) / 1000.0))
	frames := totalFrames % fps
	totalSeconds := totalFrames / fps
	seconds := totalSeconds % 60
	totalMinutes := totalSeconds / 60
	minutes := totalMinutes % 60
	hours := totalMinutes / 60
	return fmt.Sprintf("%02d:%02d:%02d:%02d", hours, minutes, seconds, frames)
}
