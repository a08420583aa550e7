package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"evosculpt/internal/evo"
	"evosculpt/internal/export"
	"evosculpt/internal/model"
	"evosculpt/internal/stats"
	"evosculpt/internal/studio"
)

const replHelp = `commands:
  select <i> [fitness]        set genome i's fitness (default 1.0)
  toggle <i>                  flip genome i between selected and unselected
  evolve                      breed the next generation from the selection
  resize <g>                  switch to a g x g population
  reset                       discard the population and start over
  mode <plane|cylinder|sphere|torus>
  show                        print the grid with selected cells marked
  preview <i>                 print genome i's phenotype
  export-image <i> <path> [upscale]
  export-mesh <i> <path>
  export-sheet <path> [upscale]
  stats                       activation distribution over the population
  help
  quit`

var errUsage = errors.New("usage")

type repl struct {
	session *studio.Session
	out     io.Writer
	prompt  bool
	color   bool
}

func newREPL(session *studio.Session, out io.Writer) *repl {
	return &repl{session: session, out: out}
}

// run reads one command per line and ticks the session after each one.
// Blank lines and lines starting with # are skipped. Command errors are
// reported and the loop keeps going.
func (r *repl) run(ctx context.Context, in io.Reader) error {
	scanner := bufio.NewScanner(in)
	for {
		if r.prompt {
			fmt.Fprint(r.out, "> ")
		}
		if !scanner.Scan() {
			break
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		quit, err := r.execute(line)
		if err != nil {
			fmt.Fprintf(r.out, "error: %v\n", err)
		}
		if quit {
			return nil
		}
		if err := r.tick(ctx); err != nil {
			fmt.Fprintf(r.out, "error: %v\n", err)
		}
	}
	return scanner.Err()
}

func (r *repl) tick(ctx context.Context) error {
	result, err := r.session.Tick(ctx)
	if result.Serviced != 0 {
		fmt.Fprintf(r.out, "tick serviced=%s generation=%d population=%d champions=%d fallback=%t\n",
			result.Serviced, result.Generation, result.PopulationSize, len(result.Champions), result.Fallback)
	}
	return err
}

func (r *repl) execute(line string) (bool, error) {
	fields := strings.Fields(line)
	cmd, args := fields[0], fields[1:]

	switch cmd {
	case "quit", "exit":
		return true, nil
	case "help":
		fmt.Fprintln(r.out, replHelp)
	case "select":
		if len(args) < 1 || len(args) > 2 {
			return false, fmt.Errorf("%w: select <i> [fitness]", errUsage)
		}
		i, err := r.index(args[0])
		if err != nil {
			return false, err
		}
		value := evo.SelectedFitness
		if len(args) == 2 {
			value, err = strconv.ParseFloat(args[1], 64)
			if err != nil {
				return false, fmt.Errorf("invalid fitness %q", args[1])
			}
		}
		r.session.SetFitness(i, value)
		fmt.Fprintf(r.out, "fitness index=%d value=%.3f\n", i, value)
	case "toggle":
		if len(args) != 1 {
			return false, fmt.Errorf("%w: toggle <i>", errUsage)
		}
		i, err := r.index(args[0])
		if err != nil {
			return false, err
		}
		r.session.ToggleSelection(i)
		f, _ := r.session.Fitness(i)
		fmt.Fprintf(r.out, "fitness index=%d value=%.3f\n", i, f)
	case "evolve":
		r.session.RequestEvolve()
	case "resize":
		if len(args) != 1 {
			return false, fmt.Errorf("%w: resize <g>", errUsage)
		}
		g, err := strconv.Atoi(args[0])
		if err != nil {
			return false, fmt.Errorf("invalid grid size %q", args[0])
		}
		return false, r.session.RequestResize(g)
	case "reset":
		r.session.RequestReset()
	case "mode":
		if len(args) != 1 {
			return false, fmt.Errorf("%w: mode <plane|cylinder|sphere|torus>", errUsage)
		}
		mode, err := model.ParseStitchingMode(args[0])
		if err != nil {
			return false, err
		}
		if err := r.session.SetStitching(mode); err != nil {
			return false, err
		}
		fmt.Fprintf(r.out, "stitching=%s\n", mode)
	case "show":
		r.show()
	case "preview":
		if len(args) != 1 {
			return false, fmt.Errorf("%w: preview <i>", errUsage)
		}
		i, err := r.index(args[0])
		if err != nil {
			return false, err
		}
		img, ok := r.session.CurrentImage(i)
		if !ok {
			return false, fmt.Errorf("phenotype %d unavailable", i)
		}
		if r.color {
			writeTruecolor(r.out, img)
		} else {
			writeASCII(r.out, img)
		}
	case "export-image":
		return false, r.exportImage(args)
	case "export-mesh":
		return false, r.exportMesh(args)
	case "export-sheet":
		return false, r.exportSheet(args)
	case "stats":
		r.session.LogActivationDistribution()
		for _, c := range stats.SortedDistribution(r.session.ActivationDistribution()) {
			fmt.Fprintf(r.out, "activation=%s neurons=%d\n", c.Name, c.Count)
		}
	default:
		return false, fmt.Errorf("unknown command %q (try help)", cmd)
	}
	return false, nil
}

func (r *repl) index(arg string) (int, error) {
	i, err := strconv.Atoi(arg)
	if err != nil {
		return 0, fmt.Errorf("invalid index %q", arg)
	}
	if i < 0 || i >= r.session.Len() {
		return 0, fmt.Errorf("index %d out of range [0,%d)", i, r.session.Len())
	}
	return i, nil
}

func (r *repl) show() {
	g := r.session.GridSize()
	fmt.Fprintf(r.out, "generation=%d grid=%d population=%d stitching=%s dirty=%t\n",
		r.session.CurrentGeneration(), g, r.session.Len(), r.session.Stitching(), r.session.IsDirty())
	var b strings.Builder
	for y := 0; y < g; y++ {
		for x := 0; x < g; x++ {
			i := y*g + x
			mark := " "
			if f, _ := r.session.Fitness(i); f > 0 {
				mark = "*"
			}
			fmt.Fprintf(&b, "%4d%s", i, mark)
		}
		b.WriteByte('\n')
	}
	fmt.Fprint(r.out, b.String())
	r.session.ClearDirty()
}

func (r *repl) exportImage(args []string) error {
	if len(args) < 2 || len(args) > 3 {
		return fmt.Errorf("%w: export-image <i> <path> [upscale]", errUsage)
	}
	i, err := r.index(args[0])
	if err != nil {
		return err
	}
	upscale, err := optionalUpscale(args[2:])
	if err != nil {
		return err
	}
	img, ok := r.session.CurrentImage(i)
	if !ok {
		return fmt.Errorf("phenotype %d unavailable", i)
	}
	if err := export.WriteImage(args[1], img, upscale); err != nil {
		return err
	}
	fmt.Fprintf(r.out, "exported image=%d path=%s bytes=%s\n", i, filepath.Clean(args[1]), fileSize(args[1]))
	return nil
}

func (r *repl) exportMesh(args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("%w: export-mesh <i> <path>", errUsage)
	}
	i, err := r.index(args[0])
	if err != nil {
		return err
	}
	mesh, ok := r.session.CurrentMesh(i)
	if !ok {
		return fmt.Errorf("mesh %d unavailable", i)
	}
	name := fmt.Sprintf("gen%d_%d_%s", r.session.CurrentGeneration(), i, r.session.Stitching())
	if err := export.WriteOBJFile(args[1], mesh, name); err != nil {
		return err
	}
	fmt.Fprintf(r.out, "exported mesh=%d triangles=%d path=%s bytes=%s\n", i, mesh.TriangleCount(), filepath.Clean(args[1]), fileSize(args[1]))
	return nil
}

func (r *repl) exportSheet(args []string) error {
	if len(args) < 1 || len(args) > 2 {
		return fmt.Errorf("%w: export-sheet <path> [upscale]", errUsage)
	}
	upscale, err := optionalUpscale(args[1:])
	if err != nil {
		return err
	}
	n := r.session.Len()
	images := make([]model.Image, n)
	selected := make([]bool, n)
	for i := 0; i < n; i++ {
		img, ok := r.session.CurrentImage(i)
		if !ok {
			return fmt.Errorf("phenotype %d unavailable", i)
		}
		images[i] = img
		f, _ := r.session.Fitness(i)
		selected[i] = f > 0
	}
	if err := export.WriteContactSheet(args[0], images, r.session.GridSize(), upscale, selected); err != nil {
		return err
	}
	fmt.Fprintf(r.out, "exported sheet population=%d path=%s bytes=%s\n", n, filepath.Clean(args[0]), fileSize(args[0]))
	return nil
}

func optionalUpscale(args []string) (int, error) {
	if len(args) == 0 {
		return 1, nil
	}
	v, err := strconv.Atoi(args[0])
	if err != nil || v < 1 {
		return 0, fmt.Errorf("invalid upscale %q", args[0])
	}
	return v, nil
}
