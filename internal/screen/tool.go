package screen

import (
	"bytes"
	"image"
	"image/png"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	apperrors "github.com/GriffinCanCode/fishbot/internal/errors"
	"github.com/GriffinCanCode/fishbot/internal/templates"
)

// tool is an external screenshot program writing a PNG to a path.
type tool struct {
	name string
	args func(path string) []string
}

var waylandTools = []tool{
	{"spectacle", func(p string) []string { return []string{"-b", "-n", "-o", p} }},
	{"grim", func(p string) []string { return []string{p} }},
	{"gnome-screenshot", func(p string) []string { return []string{"-f", p} }},
}

// ToolCapturer shells out to the first available screenshot tool.
type ToolCapturer struct {
	tools    []tool
	tempDir  string
	lookPath func(string) (string, error)
	run      func(name string, args ...string) error
}

func NewToolCapturer() *ToolCapturer {
	tmpDir, err := os.MkdirTemp("", "fishbot-screen-*")
	if err != nil {
		slog.Error("failed to create temp dir for screenshots", "error", err)
		tmpDir = os.TempDir()
	}
	return &ToolCapturer{tools: waylandTools, tempDir: tmpDir, lookPath: exec.LookPath, run: runTool}
}

func runTool(name string, args ...string) error {
	cmd := exec.Command(name, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return apperrors.Wrap(err, apperrors.CaptureFailed, name+" failed").WithMetadata("stderr", stderr.String())
	}
	return nil
}

func (t *ToolCapturer) Name() string {
	if tl, ok := t.pick(); ok {
		return tl.name
	}
	return "none"
}

func (t *ToolCapturer) MinInterval() time.Duration { return ToolInterval }

func (t *ToolCapturer) pick() (tool, bool) {
	for _, tl := range t.tools {
		if _, err := t.lookPath(tl.name); err == nil {
			return tl, true
		}
	}
	return tool{}, false
}

func (t *ToolCapturer) Capture() (*image.RGBA, error) {
	tl, ok := t.pick()
	if !ok {
		return nil, apperrors.New(apperrors.CaptureFailed, "no screenshot tool found (install spectacle, grim or gnome-screenshot)")
	}

	path := filepath.Join(t.tempDir, "frame.png")
	defer os.Remove(path)

	if err := t.run(tl.name, tl.args(path)...); err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CaptureFailed, "read screenshot")
	}
	defer f.Close()

	img, err := png.Decode(f)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CaptureFailed, "decode screenshot")
	}
	return templates.ToRGBA(img), nil
}

// Close removes the temp directory.
func (t *ToolCapturer) Close() {
	if t.tempDir != "" && t.tempDir != os.TempDir() {
		os.RemoveAll(t.tempDir)
	}
}
