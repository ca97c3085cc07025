// Command vfxcore exercises the compute core's library API from the
// shell: it does not parse image files (the §6 image-reader
// collaborators that decode PNG/JPEG/TIFF/HDR and the EXR header into
// an f32 buffer are out of this core's scope) — it operates on raw
// planar float32 buffers piped on stdin/stdout, in the layout Image
// already uses: width*height*channels, row-major, channel-interleaved.
//
// Usage:
//
//	vfxcore info  -w W -h H -c C                 report the strategy the engine would pick
//	vfxcore resize -w W -h H -c C -dw DW -dh DH -filter bilinear|bicubic|lanczos3|nearest
//	vfxcore blur   -w W -h H -c C -radius R
//	vfxcore color  -w W -h H -c C -cdl S,S,S,O,O,O,P,P,P,SAT
//
// Buffers are read from stdin and the result written to stdout; errors
// go to stderr and set a non-zero exit code. This mirrors the
// subcommand-dispatch shape of a CLI front end without taking on flag
// parsing for the full §6 verb list, which belongs to that external
// collaborator.
package main

import (
	"encoding/binary"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/deepteams/vfxcore/color"
	"github.com/deepteams/vfxcore/compute"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	var err error
	switch os.Args[1] {
	case "info":
		err = runInfo(os.Args[2:])
	case "resize":
		err = runResize(os.Args[2:])
	case "blur":
		err = runBlur(os.Args[2:])
	case "color":
		err = runColor(os.Args[2:])
	case "-h", "-help", "--help", "help":
		printUsage()
		return
	default:
		fmt.Fprintf(os.Stderr, "vfxcore: unknown command %q\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "vfxcore: %v\n", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Fprintf(os.Stderr, `Usage:
  vfxcore info   -w W -h H -c C
  vfxcore resize -w W -h H -c C -dw DW -dh DH [-filter bilinear]
  vfxcore blur   -w W -h H -c C -radius R
  vfxcore color  -w W -h H -c C -cdl s,s,s,o,o,o,p,p,p,sat

Buffers are raw float32 planar pixel data on stdin/stdout.
`)
}

func shapeFlags(fs *flag.FlagSet) (w, h, c *uint) {
	w = fs.Uint("w", 0, "width")
	h = fs.Uint("h", 0, "height")
	c = fs.Uint("c", 4, "channels")
	return
}

func readBuffer(w, h, c uint32) (compute.Buffer, error) {
	n := uint64(w) * uint64(h) * uint64(c)
	data := make([]float32, n)
	if err := binary.Read(os.Stdin, binary.LittleEndian, data); err != nil {
		return compute.Buffer{}, fmt.Errorf("reading %d float32 samples from stdin: %w", n, err)
	}
	return compute.Buffer{Data: data, Width: w, Height: h, Channels: c}, nil
}

func writeBuffer(b compute.Buffer) error {
	return binary.Write(os.Stdout, binary.LittleEndian, b.Data)
}

func runInfo(args []string) error {
	fs := flag.NewFlagSet("info", flag.ExitOnError)
	w, h, c := shapeFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	engine := compute.NewEngine(compute.DefaultLimits())
	strategy := engine.PlanStrategy(uint32(*w), uint32(*h), uint32(*c))
	fmt.Printf("shape: %dx%dx%d\nstrategy: %s\n", *w, *h, *c, strategy.Kind)
	if strategy.TileSize > 0 {
		fmt.Printf("tile: %d\n", strategy.TileSize)
	}
	return nil
}

func runResize(args []string) error {
	fs := flag.NewFlagSet("resize", flag.ExitOnError)
	w, h, c := shapeFlags(fs)
	dw := fs.Uint("dw", 0, "destination width")
	dh := fs.Uint("dh", 0, "destination height")
	filterName := fs.String("filter", "bilinear", "nearest|bilinear|bicubic|lanczos3")
	if err := fs.Parse(args); err != nil {
		return err
	}

	src, err := readBuffer(uint32(*w), uint32(*h), uint32(*c))
	if err != nil {
		return err
	}

	filter, err := parseFilter(*filterName)
	if err != nil {
		return err
	}

	dst := compute.NewBuffer(uint32(*dw), uint32(*dh), uint32(*c))
	compute.ExecResize(src, &dst, filter)
	return writeBuffer(dst)
}

func parseFilter(name string) (compute.Filter, error) {
	switch name {
	case "nearest":
		return compute.FilterNearest, nil
	case "bilinear":
		return compute.FilterBilinear, nil
	case "bicubic":
		return compute.FilterBicubic, nil
	case "lanczos3":
		return compute.FilterLanczos3, nil
	default:
		return 0, fmt.Errorf("unknown filter %q", name)
	}
}

func runBlur(args []string) error {
	fs := flag.NewFlagSet("blur", flag.ExitOnError)
	w, h, c := shapeFlags(fs)
	radius := fs.Float64("radius", 2.0, "gaussian blur radius")
	if err := fs.Parse(args); err != nil {
		return err
	}

	src, err := readBuffer(uint32(*w), uint32(*h), uint32(*c))
	if err != nil {
		return err
	}

	dst := compute.NewBuffer(src.Width, src.Height, src.Channels)
	compute.ExecBlur(src, &dst, float32(*radius))
	return writeBuffer(dst)
}

func runColor(args []string) error {
	fs := flag.NewFlagSet("color", flag.ExitOnError)
	w, h, c := shapeFlags(fs)
	cdlSpec := fs.String("cdl", "1,1,1,0,0,0,1,1,1,1", "slope,offset,power,sat (10 comma-separated floats)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cdl, err := parseCDL(*cdlSpec)
	if err != nil {
		return err
	}

	src, err := readBuffer(uint32(*w), uint32(*h), uint32(*c))
	if err != nil {
		return err
	}

	pipeline := color.NewPipeline().CDLOp(cdl)
	n := int(src.Width) * int(src.Height)
	ch := int(src.Channels)
	for i := 0; i < n; i++ {
		base := i * ch
		rgb := [3]float32{src.Data[base], 0, 0}
		if ch > 1 {
			rgb[1] = src.Data[base+1]
		}
		if ch > 2 {
			rgb[2] = src.Data[base+2]
		}
		out := pipeline.Apply(rgb)
		src.Data[base] = out[0]
		if ch > 1 {
			src.Data[base+1] = out[1]
		}
		if ch > 2 {
			src.Data[base+2] = out[2]
		}
	}
	return writeBuffer(src)
}

func parseCDL(spec string) (color.CDLParams, error) {
	parts := strings.Split(spec, ",")
	if len(parts) != 10 {
		return color.CDLParams{}, fmt.Errorf("-cdl needs 10 comma-separated values, got %d", len(parts))
	}
	vals := make([]float32, 10)
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 32)
		if err != nil {
			return color.CDLParams{}, fmt.Errorf("-cdl value %d (%q): %w", i, p, err)
		}
		vals[i] = float32(f)
	}
	return color.CDLParams{
		Slope:  [3]float32{vals[0], vals[1], vals[2]},
		Offset: [3]float32{vals[3], vals[4], vals[5]},
		Power:  [3]float32{vals[6], vals[7], vals[8]},
		Sat:    vals[9],
	}, nil
}
