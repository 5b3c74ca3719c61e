package media

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"

	"github.com/disintegration/imaging"
)

// ImageResult is the re-encoded image and its final dimensions. Width and
// Height describe the encoded buffer, not the original upload.
type ImageResult struct {
	Data   []byte
	Width  int
	Height int
}

// VideoInfo is the probed metadata of a video upload. Measured is false
// when the prober could not inspect the file and the zero dimensions are
// placeholders, not measurements.
type VideoInfo struct {
	Width       int
	Height      int
	DurationSec float64
	Measured    bool
}

// Prober extracts video dimensions and duration without a full decode.
type Prober interface {
	Probe(ctx context.Context, data []byte) (*VideoInfo, error)
}

// Transform normalizes accepted media. Images are decoded, bounded to
// maxSide on the longer edge (never upscaled) and re-encoded as JPEG at a
// fixed quality. Videos are probed only.
type Transform struct {
	maxSide int
	quality int
	prober  Prober
}

func NewTransform(cfg Config, prober Prober) *Transform {
	if prober == nil {
		prober = PlaceholderProber{}
	}
	return &Transform{maxSide: cfg.MaxImageSide, quality: cfg.JPEGQuality, prober: prober}
}

// Image decodes, resizes and re-encodes. Deterministic for identical
// input bytes and configuration.
func (t *Transform) Image(data []byte) (*ImageResult, error) {
	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: decode: %v", ErrTransformFailure, err)
	}

	bounds := img.Bounds()
	if bounds.Dx() > t.maxSide || bounds.Dy() > t.maxSide {
		// Fit preserves aspect ratio and never upscales.
		img = imaging.Fit(img, t.maxSide, t.maxSide, imaging.Lanczos)
		bounds = img.Bounds()
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(t.quality)); err != nil {
		return nil, fmt.Errorf("%w: encode: %v", ErrTransformFailure, err)
	}

	return &ImageResult{Data: buf.Bytes(), Width: bounds.Dx(), Height: bounds.Dy()}, nil
}

// Video probes intrinsic metadata. The buffer itself is stored untouched.
func (t *Transform) Video(ctx context.Context, data []byte) (*VideoInfo, error) {
	info, err := t.prober.Probe(ctx, data)
	if err != nil {
		return nil, fmt.Errorf("%w: probe: %v", ErrTransformFailure, err)
	}
	return info, nil
}

// PlaceholderProber reports that nothing was measured. It exists so the
// pipeline keeps a well-formed contract on hosts without ffprobe.
type PlaceholderProber struct{}

func (PlaceholderProber) Probe(_ context.Context, _ []byte) (*VideoInfo, error) {
	return &VideoInfo{Measured: false}, nil
}

// FFProbe shells out to ffprobe and parses its JSON report.
type FFProbe struct {
	bin string
}

// NewProber returns an FFProbe when the binary resolves on PATH and the
// placeholder otherwise.
func NewProber(bin string) Prober {
	if bin == "" {
		return PlaceholderProber{}
	}
	if _, err := exec.LookPath(bin); err != nil {
		return PlaceholderProber{}
	}
	return &FFProbe{bin: bin}
}

type probeReport struct {
	Streams []struct {
		CodecType string `json:"codec_type"`
		Width     int    `json:"width"`
		Height    int    `json:"height"`
	} `json:"streams"`
	Format struct {
		Duration string `json:"duration"`
	} `json:"format"`
}

func (p *FFProbe) Probe(ctx context.Context, data []byte) (*VideoInfo, error) {
	tmp, err := os.CreateTemp("", "daybook-probe-*")
	if err != nil {
		return nil, fmt.Errorf("probe temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return nil, fmt.Errorf("probe temp write: %w", err)
	}
	tmp.Close()

	out, err := exec.CommandContext(ctx, p.bin,
		"-v", "error",
		"-print_format", "json",
		"-show_streams",
		"-show_format",
		tmp.Name(),
	).Output()
	if err != nil {
		return nil, fmt.Errorf("ffprobe: %w", err)
	}

	return parseProbeReport(out)
}

func parseProbeReport(out []byte) (*VideoInfo, error) {
	var report probeReport
	if err := json.Unmarshal(out, &report); err != nil {
		return nil, fmt.Errorf("ffprobe output: %w", err)
	}

	info := &VideoInfo{}
	for _, s := range report.Streams {
		if s.CodecType == "video" {
			info.Width = s.Width
			info.Height = s.Height
			info.Measured = true
			break
		}
	}
	if !info.Measured {
		return nil, fmt.Errorf("no video stream found")
	}

	if d := strings.TrimSpace(report.Format.Duration); d != "" {
		if sec, err := strconv.ParseFloat(d, 64); err == nil {
			info.DurationSec = sec
		}
	}
	return info, nil
}
