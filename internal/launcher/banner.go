package launcher

import (
	"fmt"
	"strings"

	"github.com/banshee-data/vehicle.detect/internal/detect"
	"github.com/banshee-data/vehicle.detect/internal/launch"
)

var rule = strings.Repeat("=", 60)

func welcomeBanner() string {
	return "\n" + rule + "\nFastTracker - Vehicle Object Detection\n" + rule
}

func describeSource(inv launch.Invocation) string {
	if inv.Mode == launch.ModeWebcam {
		return fmt.Sprintf("camera %d", inv.CameraID)
	}
	return inv.VideoPath
}

// bannerTargets lists the tracked classes in the order operators expect.
var bannerTargets = []int{2, 5, 7, 3, 1, 6}

func startBanner(inv launch.Invocation, weightsName string) string {
	var b strings.Builder
	b.WriteString("\n" + rule + "\n")
	b.WriteString("Starting Vehicle Detection\n")
	b.WriteString(rule + "\n")
	fmt.Fprintf(&b, "\nModel: %s\n", weightsName)
	fmt.Fprintf(&b, "Experiment: %s\n", inv.ExpPath)
	if inv.Mode == launch.ModeWebcam {
		fmt.Fprintf(&b, "Input: Webcam - camera %d\n", inv.CameraID)
	} else {
		fmt.Fprintf(&b, "Input: Video file - %s\n", inv.VideoPath)
	}
	if inv.Save {
		b.WriteString("Output: Results will be saved\n")
	} else {
		b.WriteString("Output: Display only\n")
	}
	b.WriteString("\nDetection targets:\n")
	for _, id := range bannerTargets {
		fmt.Fprintf(&b, "  - %s\n", detect.ClassName(id))
	}
	b.WriteString("\nExit: press 'q' or 'ESC'\n")
	b.WriteString(rule + "\n\n")
	return b.String()
}
