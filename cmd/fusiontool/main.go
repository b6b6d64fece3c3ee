// Command fusiontool is an operator/debug utility for the fusion pipeline:
// it validates control-point files, round-trips cached interpolation
// tables, renders a cached table's displacement field as a PNG, and walks
// control points for interactive review. It does not run the pipeline
// itself.
package main

import (
	"flag"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"

	"golang.org/x/image/draw"
	"golang.org/x/term"

	"github.com/intuitionamiga/irfusion/internal/registration"
)

func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: fusiontool <command> [options]\n\n")
		fmt.Fprintf(os.Stderr, "Commands:\n")
		fmt.Fprintf(os.Stderr, "  validate-points -points FILE -w W -h H\n")
		fmt.Fprintf(os.Stderr, "        Parse and solve a control-point file, reporting the fitted affine.\n")
		fmt.Fprintf(os.Stderr, "  cache-roundtrip -points FILE -w W -h H -cache DIR\n")
		fmt.Fprintf(os.Stderr, "        Build (or reuse) a cached LUT and confirm it round-trips.\n")
		fmt.Fprintf(os.Stderr, "  preview -cache DIR -w W -h H -o out.png\n")
		fmt.Fprintf(os.Stderr, "        Render a cached LUT's displacement field as a PNG, scaled to\n")
		fmt.Fprintf(os.Stderr, "        fit a terminal-friendly preview size.\n")
		fmt.Fprintf(os.Stderr, "  review -points FILE -w W -h H\n")
		fmt.Fprintf(os.Stderr, "        Interactively walk each control point and confirm it by hand.\n")
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  fusiontool validate-points -points control.txt -w 720 -h 576\n")
		fmt.Fprintf(os.Stderr, "  fusiontool cache-roundtrip -points control.txt -w 720 -h 576 -cache ./lutcache\n")
	}

	if len(os.Args) < 2 {
		flag.Usage()
		os.Exit(1)
	}

	cmd := os.Args[1]
	args := os.Args[2:]

	var err error
	switch cmd {
	case "validate-points":
		err = runValidatePoints(args)
	case "cache-roundtrip":
		err = runCacheRoundtrip(args)
	case "preview":
		err = runPreview(args)
	case "review":
		err = runReview(args)
	case "-h", "-help", "--help":
		flag.Usage()
		return
	default:
		fmt.Fprintf(os.Stderr, "error: unknown command %q\n\n", cmd)
		flag.Usage()
		os.Exit(1)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// pointsFlagSet registers the -points/-w/-h flags shared by every subcommand
// that takes a control-point file. Callers add any subcommand-specific
// flags before calling fs.Parse themselves.
func pointsFlagSet(name string) (fs *flag.FlagSet, points, width, height *string) {
	fs = flag.NewFlagSet(name, flag.ExitOnError)
	points = fs.String("points", "", "control-point file path")
	width = fs.String("w", "", "base frame width")
	height = fs.String("h", "", "base frame height")
	return
}

func openControlPoints(path string) ([]registration.ControlPoint, error) {
	if path == "" {
		return nil, fmt.Errorf("missing -points FILE")
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()
	return registration.ParseControlPointFile(f)
}

func atoiOrDie(name, s string) int {
	var v int
	_, err := fmt.Sscanf(s, "%d", &v)
	if err != nil || v <= 0 {
		fmt.Fprintf(os.Stderr, "error: -%s must be a positive integer, got %q\n", name, s)
		os.Exit(1)
	}
	return v
}

func runValidatePoints(args []string) error {
	fs, pointsPath, w, h := pointsFlagSet("validate-points")
	fs.Parse(args)

	points, err := openControlPoints(*pointsPath)
	if err != nil {
		return err
	}
	width := atoiOrDie("w", *w)
	height := atoiOrDie("h", *h)

	fwd, err := registration.Solve(points)
	if err != nil {
		return fmt.Errorf("solving affine: %w", err)
	}

	fmt.Printf("parsed %d control points for a %dx%d base frame\n", len(points), width, height)
	fmt.Printf("fitted affine: x' = %.6f*x + %.6f*y + %.6f\n", fwd.A, fwd.B, fwd.C)
	fmt.Printf("               y' = %.6f*x + %.6f*y + %.6f\n", fwd.D, fwd.E, fwd.F)

	var sumErrSq float64
	for _, p := range points {
		px, py := fwd.Apply(p.IRX, p.IRY)
		dx, dy := px-p.VisX, py-p.VisY
		sumErrSq += dx*dx + dy*dy
	}
	fmt.Printf("mean squared residual (pixels^2): %.4f\n", sumErrSq/float64(len(points)))
	return nil
}

func runCacheRoundtrip(args []string) error {
	fs, pointsPath, w, h := pointsFlagSet("cache-roundtrip")
	cacheDir := fs.String("cache", "", "cache directory")
	fs.Parse(args)

	if *cacheDir == "" {
		return fmt.Errorf("missing -cache DIR")
	}
	points, err := openControlPoints(*pointsPath)
	if err != nil {
		return err
	}
	width := atoiOrDie("w", *w)
	height := atoiOrDie("h", *h)

	fwd, err := registration.Solve(points)
	if err != nil {
		return fmt.Errorf("solving affine: %w", err)
	}

	lut, reused, err := registration.LoadOrBuild(*cacheDir, fwd, points, width, height)
	if err != nil {
		return fmt.Errorf("loading/building LUT: %w", err)
	}
	fmt.Printf("LUT ready: %dx%d, reused-from-cache=%v\n", lut.Width, lut.Height, reused)

	again, reusedAgain, err := registration.LoadOrBuild(*cacheDir, fwd, points, width, height)
	if err != nil {
		return fmt.Errorf("re-loading LUT: %w", err)
	}
	if !reusedAgain {
		return fmt.Errorf("second load did not reuse the cache it just wrote")
	}
	if again.Width != lut.Width || again.Height != lut.Height {
		return fmt.Errorf("round-tripped LUT geometry mismatch")
	}
	fmt.Println("cache round-trip confirmed")
	return nil
}

// runPreview renders a cached LUT's displacement field (the squared
// magnitude of sampled-source minus destination coordinate at every pixel,
// times 8 and clipped to 255) as a grayscale PNG, downscaled with draw.ApproxBiLinear to a fixed preview
// width so large frames stay viewable.
func runPreview(args []string) error {
	fs := flag.NewFlagSet("preview", flag.ExitOnError)
	cacheDir := fs.String("cache", "", "cache directory")
	w := fs.String("w", "", "base frame width")
	h := fs.String("h", "", "base frame height")
	out := fs.String("o", "preview.png", "output PNG path")
	fs.Parse(args)

	if *cacheDir == "" {
		return fmt.Errorf("missing -cache DIR")
	}
	width := atoiOrDie("w", *w)
	height := atoiOrDie("h", *h)

	lut, err := registration.LoadLUT(*cacheDir, width, height)
	if err != nil {
		return fmt.Errorf("loading cached LUT: %w", err)
	}

	full := image.NewGray(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			dx := lut.ColTab[y][x] - float64(x)
			dy := lut.RowTab[y][x] - float64(y)
			mag := dx*dx + dy*dy
			v := mag * 8
			if v > 255 {
				v = 255
			}
			full.SetGray(x, y, color.Gray{Y: uint8(v)})
		}
	}

	const previewWidth = 256
	pw, ph := previewWidth, previewWidth*height/width
	if ph < 1 {
		ph = 1
	}
	scaled := image.NewGray(image.Rect(0, 0, pw, ph))
	draw.ApproxBiLinear.Scale(scaled, scaled.Bounds(), full, full.Bounds(), draw.Over, nil)

	f, err := os.Create(*out)
	if err != nil {
		return fmt.Errorf("creating %s: %w", *out, err)
	}
	defer f.Close()
	if err := png.Encode(f, scaled); err != nil {
		return fmt.Errorf("encoding %s: %w", *out, err)
	}
	fmt.Printf("wrote displacement preview to %s (%dx%d)\n", *out, pw, ph)
	return nil
}

// runReview walks each control point one at a time and asks the operator to
// confirm, reject, or quit, using a raw-mode terminal so a single keypress
// answers the prompt with no Enter required.
func runReview(args []string) error {
	fs, pointsPath, _, _ := pointsFlagSet("review")
	fs.Parse(args)

	points, err := openControlPoints(*pointsPath)
	if err != nil {
		return err
	}

	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		for i, p := range points {
			fmt.Printf("%d: visible(%.0f,%.0f) -> base(%.0f,%.0f)\n", i, p.VisX, p.VisY, p.IRX, p.IRY)
		}
		return nil
	}

	oldState, err := term.MakeRaw(fd)
	if err != nil {
		return fmt.Errorf("entering raw mode: %w", err)
	}
	defer term.Restore(fd, oldState)

	accepted := 0
	buf := make([]byte, 1)
	for i, p := range points {
		fmt.Printf("\r\npoint %d/%d: visible(%.0f,%.0f) -> base(%.0f,%.0f)  [y/n/q] ", i+1, len(points), p.VisX, p.VisY, p.IRX, p.IRY)
		if _, err := os.Stdin.Read(buf); err != nil {
			break
		}
		switch buf[0] {
		case 'q', 'Q':
			term.Restore(fd, oldState)
			fmt.Printf("\r\nstopped at point %d/%d, %d accepted\r\n", i+1, len(points), accepted)
			return nil
		case 'y', 'Y':
			accepted++
		}
	}
	term.Restore(fd, oldState)
	fmt.Printf("\r\nreviewed %d points, %d accepted\r\n", len(points), accepted)
	return nil
}
