package ffmpeg

import (
	"fmt"
	"strconv"
)

// CaptureOptions sizes a live capture
type CaptureOptions struct {
	Width  int
	Height int
	FPS    int
}

// ScreenCaptureArgs grabs an X11 display and streams Matroska to stdout
func ScreenCaptureArgs(display string, opts CaptureOptions) []string {
	args := []string{"-f", "x11grab"}
	args = append(args, inputSizeArgs(opts)...)
	args = append(args, "-i", display)
	return append(args, liveEncodeArgs()...)
}

// WebcamCaptureArgs reads a V4L2 device and streams Matroska to stdout
func WebcamCaptureArgs(device string, opts CaptureOptions) []string {
	args := []string{"-f", "v4l2"}
	args = append(args, inputSizeArgs(opts)...)
	args = append(args, "-i", device)
	return append(args, liveEncodeArgs()...)
}

func inputSizeArgs(opts CaptureOptions) []string {
	var args []string
	if opts.Width > 0 && opts.Height > 0 {
		args = append(args, "-video_size", fmt.Sprintf("%dx%d", opts.Width, opts.Height))
	}
	if opts.FPS > 0 {
		args = append(args, "-framerate", strconv.Itoa(opts.FPS))
	}
	return args
}

func liveEncodeArgs() []string {
	return []string{
		"-c:v", DefaultVideoCodec,
		"-preset", "ultrafast",
		"-tune", "zerolatency",
		"-pix_fmt", "yuv420p",
		"-f", "matroska",
		"-",
	}
}

// WebcamPreviewArgs reads a V4L2 device and streams MJPEG frames to stdout
func WebcamPreviewArgs(device string, opts CaptureOptions) []string {
	args := []string{"-f", "v4l2"}
	args = append(args, inputSizeArgs(opts)...)
	return append(args,
		"-i", device,
		"-f", "image2pipe",
		"-c:v", "mjpeg",
		"-q:v", "5",
		"-",
	)
}
