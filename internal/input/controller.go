package input

import (
	"fmt"
	"image"
	"os/exec"
	"runtime"
	"strconv"
	"strings"
	"time"

	apperrors "github.com/GriffinCanCode/fishbot/internal/errors"
)

// stepInterval paces eased pointer motion at about 60 Hz.
const stepInterval = time.Second / 60

// Runner executes an external command and returns its stdout.
type Runner func(name string, args ...string) ([]byte, error)

func execRunner(name string, args ...string) ([]byte, error) {
	return exec.Command(name, args...).Output()
}

// Controller drives xdotool on Unix desktops and user32 through PowerShell on Windows.
type Controller struct {
	osType string
	run    Runner
	sleep  func(time.Duration)
}

func NewController() *Controller {
	return &Controller{osType: runtime.GOOS, run: execRunner, sleep: time.Sleep}
}

// Check reports whether the platform input tool is available.
func (c *Controller) Check() error {
	if c.osType == "windows" {
		return nil
	}
	if _, err := exec.LookPath("xdotool"); err != nil {
		return apperrors.Wrap(err, apperrors.InputDispatch, "xdotool not found")
	}
	return nil
}

func (c *Controller) PressButton(b Button) error {
	if c.osType == "windows" {
		down, up := windowsButtonFlags(b)
		return c.powershell(fmt.Sprintf(mouseScript+"[Input]::mouse_event(%d,0,0,0,[IntPtr]::Zero)\n[Input]::mouse_event(%d,0,0,0,[IntPtr]::Zero)", down, up))
	}
	return c.xdotool("click", strconv.Itoa(int(b)))
}

func (c *Controller) PressKey(key string) error {
	kc, err := lookupKey(key)
	if err != nil {
		return apperrors.Wrap(err, apperrors.InputDispatch, "press key")
	}
	if c.osType == "windows" {
		return c.powershell(fmt.Sprintf(mouseScript+"[Input]::keybd_event(%d,0,0,[IntPtr]::Zero)\n[Input]::keybd_event(%d,0,2,[IntPtr]::Zero)", kc.vk, kc.vk))
	}
	return c.xdotool("key", kc.xdotool)
}

// MoveTo glides the pointer to (x, y) over d following ease.
func (c *Controller) MoveTo(x, y int, d time.Duration, ease Easing) error {
	target := image.Pt(x, y)
	if c.osType == "windows" {
		return c.powershell(windowsMoveScript(target, d, ease))
	}

	from, err := c.Position()
	if err != nil || d <= 0 {
		return c.warp(target)
	}

	steps := max(1, int(d/stepInterval))
	for _, p := range path(from, target, steps, ease) {
		if err := c.warp(p); err != nil {
			return err
		}
		c.sleep(d / time.Duration(steps))
	}
	return nil
}

// windowsMoveScript runs the whole eased glide inside one PowerShell process.
// The start point is read there and each step lands on a precomputed fraction
// of the distance to target.
func windowsMoveScript(target image.Point, d time.Duration, ease Easing) string {
	var b strings.Builder
	b.WriteString(mouseScript)
	if d > 0 {
		if ease == nil {
			ease = Linear
		}
		steps := max(1, int(d/stepInterval))
		fracs := make([]string, steps)
		for i := range fracs {
			fracs[i] = strconv.FormatFloat(ease(float64(i+1)/float64(steps)), 'f', 4, 64)
		}
		fmt.Fprintf(&b, "Add-Type -AssemblyName System.Windows.Forms\n$p=[System.Windows.Forms.Cursor]::Position\n")
		fmt.Fprintf(&b, "foreach($f in @(%s)){[Input]::SetCursorPos([int]($p.X+(%d-$p.X)*$f),[int]($p.Y+(%d-$p.Y)*$f)) | Out-Null; Start-Sleep -Milliseconds %d}\n",
			strings.Join(fracs, ","), target.X, target.Y, (d / time.Duration(steps)).Milliseconds())
	}
	fmt.Fprintf(&b, "[Input]::SetCursorPos(%d,%d) | Out-Null", target.X, target.Y)
	return b.String()
}

// Position returns the current pointer location.
func (c *Controller) Position() (image.Point, error) {
	if c.osType == "windows" {
		out, err := c.run("powershell", "-NoProfile", "-Command",
			`Add-Type -AssemblyName System.Windows.Forms; $p=[System.Windows.Forms.Cursor]::Position; "$($p.X) $($p.Y)"`)
		if err != nil {
			return image.Point{}, apperrors.Wrap(err, apperrors.InputDispatch, "query pointer")
		}
		var p image.Point
		if _, err := fmt.Sscanf(strings.TrimSpace(string(out)), "%d %d", &p.X, &p.Y); err != nil {
			return image.Point{}, apperrors.Wrap(err, apperrors.InputDispatch, "parse pointer")
		}
		return p, nil
	}

	out, err := c.run("xdotool", "getmouselocation", "--shell")
	if err != nil {
		return image.Point{}, apperrors.Wrap(err, apperrors.InputDispatch, "query pointer")
	}
	return parseShellLocation(string(out))
}

func (c *Controller) warp(p image.Point) error {
	if c.osType == "windows" {
		return c.powershell(fmt.Sprintf(mouseScript+"[Input]::SetCursorPos(%d,%d) | Out-Null", p.X, p.Y))
	}
	return c.xdotool("mousemove", strconv.Itoa(p.X), strconv.Itoa(p.Y))
}

func (c *Controller) xdotool(args ...string) error {
	if _, err := c.run("xdotool", args...); err != nil {
		return apperrors.Wrap(err, apperrors.InputDispatch, "xdotool "+args[0])
	}
	return nil
}

func (c *Controller) powershell(script string) error {
	if _, err := c.run("powershell", "-NoProfile", "-Command", script); err != nil {
		return apperrors.Wrap(err, apperrors.InputDispatch, "powershell input")
	}
	return nil
}

// parseShellLocation reads "X=..\nY=.." as printed by xdotool getmouselocation --shell.
func parseShellLocation(out string) (image.Point, error) {
	var p image.Point
	var haveX, haveY bool
	for _, line := range strings.Split(out, "\n") {
		k, v, ok := strings.Cut(strings.TrimSpace(line), "=")
		if !ok {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			continue
		}
		switch k {
		case "X":
			p.X, haveX = n, true
		case "Y":
			p.Y, haveY = n, true
		}
	}
	if !haveX || !haveY {
		return image.Point{}, apperrors.Newf(apperrors.InputDispatch, "unexpected pointer output %q", out)
	}
	return p, nil
}

func windowsButtonFlags(b Button) (down, up int) {
	switch b {
	case ButtonRight:
		return 0x08, 0x10
	case ButtonMiddle:
		return 0x20, 0x40
	default:
		return 0x02, 0x04
	}
}

const mouseScript = `
Add-Type -TypeDefinition '
using System;
using System.Runtime.InteropServices;
public class Input {
    [DllImport("user32.dll")]
    public static extern void mouse_event(uint dwFlags, uint dx, uint dy, uint dwData, IntPtr dwExtraInfo);
    [DllImport("user32.dll")]
    public static extern void keybd_event(byte bVk, byte bScan, uint dwFlags, IntPtr dwExtraInfo);
    [DllImport("user32.dll")]
    public static extern bool SetCursorPos(int x, int y);
}
'
`
