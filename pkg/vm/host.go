package vm

import (
	"context"
	"time"

	"github.com/tliron/commonlog"

	"github.com/moorhen-dev/moorhen/pkg/program"
	"github.com/moorhen-dev/moorhen/pkg/value"
)

var log = commonlog.GetLogger("moorhen.vm")

// How many instructions run between budget checks.
const defaultTickSlice = 1000

// RespKind classifies what the interpreter needs from its caller.
type RespKind uint8

const (
	// RespDispatchFork: register the fork as a task, then keep executing.
	RespDispatchFork RespKind = iota
	// RespSuspend: park the task; resume with Resume.
	RespSuspend
	// RespAbortTicks / RespAbortTime: the task blew its budget.
	RespAbortTicks
	RespAbortTime
	// RespSuccess: the task finished with a value.
	RespSuccess
	// RespException: the task finished with an uncaught exception.
	RespException
	// RespAborted: the task was stopped or hit an internal fault.
	RespAborted
)

// HostResponse is one interpreter stop, terminal or not.
type HostResponse struct {
	Kind       RespKind
	Value      value.Var
	Exception  *Exception
	Fork       *Fork
	SuspendFor value.Var
}

// Terminal reports whether the task cannot run any further without outside
// intervention.
func (r HostResponse) Terminal() bool {
	return r.Kind != RespDispatchFork
}

// Opts bound a task's resource use.
type Opts struct {
	MaxStackDepth int
	MaxTicks      uint64
	MaxTime       time.Duration
}

// DefaultOpts mirrors the classic server defaults.
func DefaultOpts() Opts {
	return Opts{
		MaxStackDepth: 50,
		MaxTicks:      300_000,
		MaxTime:       5 * time.Second,
	}
}

// Host drives one task's State against its budgets and surfaces every stop
// as a HostResponse. It owns the tick and wall-clock accounting; the
// scheduler above it owns queues and persistence.
type Host struct {
	world     WorldState
	opts      Opts
	state     *State
	startTime time.Time
	running   bool
}

func NewHost(world WorldState, opts Opts) *Host {
	return &Host{world: world, opts: opts}
}

func (h *Host) start(taskID int64) *State {
	h.state = &State{
		taskID:        taskID,
		world:         h.world,
		maxStackDepth: h.opts.MaxStackDepth,
	}
	h.startTime = time.Now()
	h.running = true
	return h.state
}

// StartCall begins executing a verb as a new task.
func (h *Host) StartCall(taskID int64, vd *VerbDef, this, player value.Objid, args []value.Var) {
	s := h.start(taskID)
	s.stack = []*activation{newActivation(vd, this, player, this, args)}
	log.Debugf("task %d: start %s on #%d", taskID, vd.Name, this)
}

// StartEval begins executing a bare program, as the eval tooling does: no
// location, no arguments, permissions of the given player.
func (h *Host) StartEval(taskID int64, p *program.Program, player value.Objid) {
	vd := &VerbDef{Program: p, Definer: player, Owner: player, Name: "eval", Debug: true}
	h.StartCall(taskID, vd, player, player, nil)
}

// StartFork begins executing a fork branch as its own task. The branch
// inherits the forking frame's environment and identity; newTaskID lands in
// the fork's task-id variable when the source named one.
func (h *Host) StartFork(newTaskID int64, f *Fork) {
	s := h.start(newTaskID)
	a := &activation{
		prog:        f.prog,
		ops:         f.prog.Fork(f.fv),
		valstack:    make([]value.Var, 0, f.prog.MaxStack),
		env:         f.env,
		this:        f.this,
		player:      f.player,
		caller:      f.caller,
		verb:        f.verb,
		definer:     f.definer,
		permissions: f.perms,
		debug:       f.debug,
	}
	if f.taskIDVar != nil {
		a.env[*f.taskIDVar] = value.Int(newTaskID)
	}
	s.stack = []*activation{a}
	log.Debugf("task %d: start fork of %s (delay %s)", newTaskID, f.verb, f.Delay)
}

// Resume continues a suspended task; v becomes the suspension's value.
func (h *Host) Resume(v value.Var) {
	h.state.top().push(v)
	h.startTime = time.Now()
	h.state.tickCount = 0
	h.running = true
}

// Stop abandons the task.
func (h *Host) Stop() {
	h.running = false
}

// Run drives the interpreter until a terminal response, forwarding every
// fork to dispatch as it appears. Non-terminal stops keep the loop going.
func (h *Host) Run(ctx context.Context, dispatch func(*Fork)) HostResponse {
	for {
		r := h.ExecInterpreter(ctx)
		if r.Terminal() {
			return r
		}
		if dispatch != nil {
			dispatch(r.Fork)
		}
	}
}

// ExecInterpreter runs the task until it stops for any reason: completion,
// an uncaught exception, a fork to dispatch, a suspension, or a blown
// budget. A RespDispatchFork response leaves the task runnable; call again
// to continue it.
func (h *Host) ExecInterpreter(ctx context.Context) HostResponse {
	for h.running {
		if err := ctx.Err(); err != nil {
			h.running = false
			return HostResponse{Kind: RespAborted}
		}
		if h.state.tickCount >= h.opts.MaxTicks {
			h.running = false
			log.Warningf("task %d: out of ticks (%d)", h.state.taskID, h.state.tickCount)
			return HostResponse{Kind: RespAbortTicks}
		}
		if time.Since(h.startTime) > h.opts.MaxTime {
			h.running = false
			log.Warningf("task %d: out of time", h.state.taskID)
			return HostResponse{Kind: RespAbortTime}
		}

		slice := uint64(defaultTickSlice)
		if remaining := h.opts.MaxTicks - h.state.tickCount; remaining < slice {
			slice = remaining
		}
		r := h.state.exec(slice)
		if r == nil {
			continue
		}
		switch r.kind {
		case execComplete:
			h.running = false
			return HostResponse{Kind: RespSuccess, Value: r.value}
		case execException:
			h.running = false
			log.Debugf("task %d: uncaught %s", h.state.taskID, r.exc.Error())
			return HostResponse{Kind: RespException, Exception: r.exc}
		case execAborted:
			h.running = false
			return HostResponse{Kind: RespAborted}
		case execSuspend:
			h.running = false
			return HostResponse{Kind: RespSuspend, SuspendFor: r.suspendFor}
		case execFork:
			return HostResponse{Kind: RespDispatchFork, Fork: r.fork}
		}
	}
	return HostResponse{Kind: RespAborted}
}

// Accessors for schedulers and tracebacks.

func (h *Host) TaskID() int64 { return h.state.taskID }

func (h *Host) Ticks() uint64 { return h.state.tickCount }

// Caller identity of the innermost frame.
func (h *Host) This() value.Objid { return h.state.top().this }

func (h *Host) Verb() string { return h.state.top().verb }

func (h *Host) Permissions() value.Objid { return h.state.top().permissions }
