// Package control implements a line-oriented protocol for driving a
// wfc.Collapser from a host process, in the shape of a UCI-style REPL:
// one command per line, read from stdin, responses written to stdout.
package control

import (
	"bufio"
	"fmt"
	"io"
	"log"
	"os"
	"runtime/pprof"
	"strconv"
	"strings"
	"sync/atomic"

	"github.com/hailam/wfc3d/internal/wfc"
)

// directionTokens maps the protocol's direction tokens to wfc.Direction.
var directionTokens = map[string]wfc.Direction{
	"+x": wfc.DirPosX, "-x": wfc.DirNegX,
	"+y": wfc.DirPosY, "-y": wfc.DirNegY,
	"+z": wfc.DirPosZ, "-z": wfc.DirNegZ,
}

// Controller dispatches line commands against a single wfc.Map, driving
// collapses through an embedded Collapser.
type Controller struct {
	m         wfc.Map
	collapser *wfc.Collapser

	running       bool
	runDone       chan struct{}
	stopRequested atomic.Bool

	profileFile *os.File
}

// New returns a Controller for m, driven by collapser.
func New(m wfc.Map, collapser *wfc.Collapser) *Controller {
	return &Controller{m: m, collapser: collapser}
}

// Run reads commands from r until EOF or a "quit" command, writing
// responses to w. Grounded on the teacher's bufio.Scanner +
// strings.Fields dispatch loop (internal/uci/uci.go's UCI.Run).
func (c *Controller) Run(r io.Reader, w io.Writer) {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		parts := strings.Fields(line)
		cmd := parts[0]
		args := parts[1:]

		switch cmd {
		case "status":
			c.handleStatus(w)
		case "collapse":
			c.handleCollapse(w, args)
		case "collapsebox":
			c.handleCollapseBox(w, args)
		case "stop":
			c.handleStop(w)
		case "undo":
			c.handleUndo(w, args)
		case "enforce":
			c.handleBoundary(w, args, wfc.ConstraintEnforce)
		case "exclude":
			c.handleBoundary(w, args, wfc.ConstraintExclude)
		case "cpuprofile":
			c.handleCPUProfile(w, args)
		case "quit":
			c.handleQuit()
			return
		default:
			fmt.Fprintf(w, "error unknown command %q\n", cmd)
		}
	}
}

func (c *Controller) handleStatus(w io.Writer) {
	h := c.m.History()
	fmt.Fprintf(w, "status running=%v history_len=%d total_pushes=%d removal_queue_len=%d\n",
		c.running, h.Len(), h.TotalPushes(), c.m.RemovalQueue().Len())
}

func parsePosition(args []string) (wfc.Position, []string, error) {
	if len(args) < 3 {
		return wfc.Position{}, args, fmt.Errorf("want 3 integer coordinates, got %d args", len(args))
	}
	x, err := strconv.Atoi(args[0])
	if err != nil {
		return wfc.Position{}, args, fmt.Errorf("x: %w", err)
	}
	y, err := strconv.Atoi(args[1])
	if err != nil {
		return wfc.Position{}, args, fmt.Errorf("y: %w", err)
	}
	z, err := strconv.Atoi(args[2])
	if err != nil {
		return wfc.Position{}, args, fmt.Errorf("z: %w", err)
	}
	return wfc.Position{X: x, Y: y, Z: z}, args[3:], nil
}

// handleCollapse implements "collapse x y z module": an immediate,
// synchronous, explicit collapse of one slot to a chosen module.
func (c *Controller) handleCollapse(w io.Writer, args []string) {
	pos, rest, err := parsePosition(args)
	if err != nil {
		fmt.Fprintf(w, "error %v\n", err)
		return
	}
	if len(rest) < 1 {
		fmt.Fprintf(w, "error collapse requires a module index\n")
		return
	}
	module, err := strconv.Atoi(rest[0])
	if err != nil {
		fmt.Fprintf(w, "error module: %v\n", err)
		return
	}

	slot := c.m.GetSlot(pos)
	if slot == nil {
		fmt.Fprintf(w, "error no slot at %v\n", pos)
		return
	}
	if err := slot.Collapse(module); err != nil {
		fmt.Fprintf(w, "collapsefailed %v\n", err)
		return
	}
	fmt.Fprintln(w, "ok")
}

// handleCollapseBox implements "collapsebox ox oy oz sx sy sz": drives
// the Collapser over a box region asynchronously, in its own goroutine,
// so "stop" can request cancellation mid-run (grounded on the teacher's
// async go/stop search handling in UCI.handleGo/handleStop).
func (c *Controller) handleCollapseBox(w io.Writer, args []string) {
	if c.running {
		fmt.Fprintln(w, "error a collapse is already running")
		return
	}
	origin, rest, err := parsePosition(args)
	if err != nil {
		fmt.Fprintf(w, "error origin: %v\n", err)
		return
	}
	size, _, err := parsePosition(rest)
	if err != nil {
		fmt.Fprintf(w, "error size: %v\n", err)
		return
	}

	c.running = true
	c.stopRequested.Store(false)
	c.runDone = make(chan struct{})

	observer := &stopObserver{stop: &c.stopRequested}
	go func() {
		defer close(c.runDone)
		err := c.collapser.CollapseBox(c.m, origin, size, observer)
		c.running = false
		if err != nil {
			fmt.Fprintf(w, "collapsebox failed %v\n", err)
			return
		}
		fmt.Fprintln(w, "collapsebox ok")
	}()
}

type stopObserver struct {
	stop *atomic.Bool
}

func (o *stopObserver) OnProgress(remaining, total int) bool {
	return o.stop.Load()
}

func (c *Controller) handleStop(w io.Writer) {
	if !c.running {
		fmt.Fprintln(w, "ok")
		return
	}
	c.stopRequested.Store(true)
	<-c.runDone
	fmt.Fprintln(w, "ok")
}

func (c *Controller) handleUndo(w io.Writer, args []string) {
	steps := 1
	if len(args) > 0 {
		n, err := strconv.Atoi(args[0])
		if err != nil {
			fmt.Fprintf(w, "error steps: %v\n", err)
			return
		}
		steps = n
	}
	if err := c.collapser.Undo(c.m, steps); err != nil {
		fmt.Fprintf(w, "error %v\n", err)
		return
	}
	fmt.Fprintln(w, "ok")
}

// handleBoundary implements "enforce x y z direction connector" and
// "exclude x y z direction connector".
func (c *Controller) handleBoundary(w io.Writer, args []string, mode wfc.ConstraintMode) {
	pos, rest, err := parsePosition(args)
	if err != nil {
		fmt.Fprintf(w, "error %v\n", err)
		return
	}
	if len(rest) < 2 {
		fmt.Fprintln(w, "error want a direction and a connector name")
		return
	}
	dir, ok := directionTokens[rest[0]]
	if !ok {
		fmt.Fprintf(w, "error unknown direction %q\n", rest[0])
		return
	}
	connector := rest[1]

	err = c.m.ApplyBoundaryConstraints([]wfc.BoundaryConstraint{
		{Position: pos, Direction: dir, Connector: connector, Mode: mode},
	})
	if err != nil {
		fmt.Fprintf(w, "collapsefailed %v\n", err)
		return
	}
	fmt.Fprintln(w, "ok")
}

// handleCPUProfile implements "cpuprofile <path|stop>", grounded on the
// teacher's setoption cpuprofile handling.
func (c *Controller) handleCPUProfile(w io.Writer, args []string) {
	if c.profileFile != nil {
		pprof.StopCPUProfile()
		c.profileFile.Close()
		c.profileFile = nil
		fmt.Fprintln(w, "cpuprofile stopped")
	}
	if len(args) == 0 || args[0] == "stop" {
		return
	}

	f, err := os.Create(args[0])
	if err != nil {
		fmt.Fprintf(w, "error creating profile: %v\n", err)
		return
	}
	if err := pprof.StartCPUProfile(f); err != nil {
		f.Close()
		fmt.Fprintf(w, "error starting profile: %v\n", err)
		return
	}
	c.profileFile = f
	fmt.Fprintf(w, "cpuprofile started %s\n", args[0])
}

func (c *Controller) handleQuit() {
	if c.running {
		c.stopRequested.Store(true)
		<-c.runDone
	}
	if c.profileFile != nil {
		pprof.StopCPUProfile()
		c.profileFile.Close()
	}
	log.Println("control: quit")
}
