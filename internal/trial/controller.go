package trial

import (
	"time"

	"github.com/google/uuid"

	"github.com/OpBox/RandIntGoNoGoSwitch/internal/clock"
	"github.com/OpBox/RandIntGoNoGoSwitch/internal/config"
	"github.com/OpBox/RandIntGoNoGoSwitch/internal/events"
	"github.com/OpBox/RandIntGoNoGoSwitch/internal/hal"
	"github.com/OpBox/RandIntGoNoGoSwitch/internal/reward"
	"github.com/OpBox/RandIntGoNoGoSwitch/internal/schedule"
	"github.com/OpBox/RandIntGoNoGoSwitch/internal/sensor"
	"github.com/OpBox/RandIntGoNoGoSwitch/internal/tracker"
	"github.com/OpBox/RandIntGoNoGoSwitch/internal/window"
)

// Fixed timing constants. The foreperiod is the minimum sustained nosepoke
// before a stimulus may start; the reward delay separates a rewarded lick
// from the first pulse.
const (
	ForeperiodMS           = 100
	RewardDelayMS          = 100
	SyncPulseMS            = 500
	FreeRewardOnsetDelayMS = 500
)

// #region session-state

// SessionState is the session controller's lifecycle.
type SessionState int

const (
	// NotStarted precedes the first session_start command.
	NotStarted SessionState = iota
	// Running is the normal trial-sequencing state.
	Running
	// Halted is terminal. Resuming requires a process restart.
	Halted
)

// String returns the state name.
func (s SessionState) String() string {
	switch s {
	case Running:
		return "running"
	case Halted:
		return "halted"
	default:
		return "not_started"
	}
}

// #endregion session-state

// #region command-source

// CommandSource hands the controller at most one host command per iteration.
// Transport buffering is the implementation's concern; commands arriving
// during limbo are applied once limbo ends.
type CommandSource interface {
	Poll() (config.Command, bool)
}

// #endregion command-source

// #region controller

// Controller is the trial orchestrator plus session controller. It owns all
// mutable trial state (subject config, windows, sensor channels, scheduler,
// sequencer) and is driven by Step from a single goroutine; there is no
// internal locking.
type Controller struct {
	clk    clock.Clock
	subj   *config.Subject
	rew    *config.Reward
	sched  *schedule.Scheduler
	seq    *reward.Sequencer
	bank   *hal.Bank
	inputs hal.Inputs
	sink   events.Sink
	cmds   CommandSource
	trk    *tracker.Sampler

	nosepoke *sensor.Channel
	lick     *sensor.Channel

	iti  window.Window // active from trial resolution until the next trial may start
	stim window.Window // armed at nosepoke entry + foreperiod; active while playing
	rt   window.Window // reaction-time window, from stimulus onset
	mt   window.Window // movement-time window, from nosepoke exit

	planned schedule.Stimulus

	session        SessionState
	sessionID      string
	startMS        int64
	logicActive    bool  // sensor-driven trial logic enabled
	lastActivityMS int64 // feeds the free-reward idle timeout

	// idle yields between limbo polls. Tests replace it to advance a fake
	// clock instead of sleeping.
	idle func()
}

// NewController wires an orchestrator over the given collaborators. sched
// must be built over the same subj; cmds may be nil when there is no host
// link.
func NewController(
	clk clock.Clock,
	subj *config.Subject,
	rew *config.Reward,
	sched *schedule.Scheduler,
	bank *hal.Bank,
	inputs hal.Inputs,
	sink events.Sink,
	cmds CommandSource,
) *Controller {
	return &Controller{
		clk:      clk,
		subj:     subj,
		rew:      rew,
		sched:    sched,
		seq:      reward.NewSequencer(rew, bank.Pump, sink),
		bank:     bank,
		inputs:   inputs,
		sink:     sink,
		cmds:     cmds,
		trk:      tracker.NewSampler(subj, inputs, sink),
		nosepoke: sensor.NewChannel("nosepoke"),
		lick:     sensor.NewChannel("lick"),
		idle:     func() { time.Sleep(time.Millisecond) },
	}
}

// Session returns the session lifecycle state.
func (c *Controller) Session() SessionState { return c.session }

// SessionID returns the identifier stamped at session start.
func (c *Controller) SessionID() string { return c.sessionID }

// Planned returns the currently planned stimulus.
func (c *Controller) Planned() schedule.Stimulus { return c.planned }

// Sequencer exposes the reward sequencer, mainly for tests.
func (c *Controller) Sequencer() *reward.Sequencer { return c.seq }

// SetIdle replaces the limbo yield hook.
func (c *Controller) SetIdle(f func()) { c.idle = f }

// #endregion controller

// #region step

// Step runs one loop iteration in the fixed order: host command, sensors,
// stimulus timer, reward/movement timer, free-reward idle check, position
// sampler. After a session quit it performs no work at all.
func (c *Controller) Step() {
	if c.session == Halted {
		return
	}

	if c.cmds != nil {
		if cmd, ok := c.cmds.Poll(); ok {
			c.applyCommand(cmd)
		}
	}
	if c.session == Halted {
		return
	}

	now := c.clk.NowMillis()
	c.pollSensors(now)
	c.checkStimulus(now)
	c.checkRewardAndMovement(now)
	c.checkFreeRewardIdle(now)
	c.trk.Check(now)
}

// #endregion step

// #region commands

func (c *Controller) applyCommand(cmd config.Command) {
	switch config.Apply(c.subj, c.rew, cmd, c.sink) {
	case config.ActionPumpForward:
		c.bank.PumpRev.Set(false)
		c.bank.Pump.Set(true)
	case config.ActionPumpReverse:
		c.bank.Pump.Set(false)
		c.bank.PumpRev.Set(true)
	case config.ActionPumpOff:
		c.bank.Pump.Set(false)
		c.bank.PumpRev.Set(false)
	case config.ActionFreeReward:
		c.FreeReward()
	case config.ActionSessionStart:
		c.StartSession()
	case config.ActionSessionQuit:
		c.StopSession()
	}
}

// #endregion commands

// #region sensors

// pollSensors reads both channels and feeds transitions to the trial logic.
// Transitions detected here are visible to this same iteration's window
// checks, so a disruptive re-entry always wins over a concurrent timer
// expiry.
func (c *Controller) pollSensors(nowMS int64) {
	if tr, ok := c.nosepoke.Poll(c.inputs.Nosepoke(), nowMS); ok {
		if tr.Kind == sensor.Entry {
			c.sink.Int(events.LabelNosepokeEntry, tr.AtMS)
		} else {
			c.sink.Int(events.LabelNosepokeExit, tr.AtMS)
		}
		c.lastActivityMS = tr.AtMS
		if c.logicActive && !c.subj.LickTraining {
			c.onNosepoke(tr)
		}
	}
	if tr, ok := c.lick.Poll(c.inputs.Lick(), nowMS); ok {
		if tr.Kind == sensor.Entry {
			c.sink.Int(events.LabelLickEntry, tr.AtMS)
		} else {
			c.sink.Int(events.LabelLickExit, tr.AtMS)
		}
		c.lastActivityMS = tr.AtMS
		if c.logicActive && tr.Kind == sensor.Entry {
			c.onLick(tr)
		}
	}
}

func (c *Controller) onNosepoke(tr sensor.Transition) {
	if tr.Kind == sensor.Entry {
		// Re-entry during the movement window disrupts the trial.
		if c.mt.Active() {
			c.resolve(ResponseNone, tr.AtMS)
			return
		}
		if c.stim.Idle() && tr.AtMS >= c.iti.EndMS() {
			c.stim.Arm(tr.AtMS + ForeperiodMS)
		}
		return
	}

	// Exit. A release before the foreperiod elapsed aborts the approach
	// without resolving a trial.
	if c.stim.Armed() {
		c.stim.Disarm()
		return
	}
	if c.rt.Active() {
		if tr.AtMS <= c.rt.EndMS() {
			c.mt.Activate(tr.AtMS + c.subj.MaxMTMS)
			c.rt.Disarm()
		} else {
			c.resolve(ResponseNone, tr.AtMS)
		}
	}
}

func (c *Controller) onLick(tr sensor.Transition) {
	if c.mt.Active() {
		c.resolve(ResponseLick, tr.AtMS)
		return
	}
	if c.subj.LickTraining && c.stim.Active() {
		c.resolve(ResponseLick, tr.AtMS)
	}
}

// #endregion sensors

// #region stimulus

func (c *Controller) checkStimulus(nowMS int64) {
	if !c.logicActive {
		return
	}

	if c.stim.Armed() && nowMS >= c.stim.StartMS() {
		start := c.stim.StartMS()
		c.bank.Stim.Play(c.planned.Ident)
		c.stim.Activate(start + c.subj.StimDurMS)
		c.sink.Int(events.LabelStimStart, nowMS)
		c.sink.Char(events.LabelStimPlayed, c.planned.Class.Code(), c.planned.Ident)
		if !c.subj.LickTraining {
			c.rt.Activate(start + c.subj.MaxRTMS)
		}
		return
	}

	if c.stim.Active() && nowMS >= c.stim.EndMS() {
		c.bank.Stim.Silence()
		c.stim.Disarm()
		c.sink.Int(events.LabelStimStop, nowMS)
		if c.subj.LickTraining {
			c.resolve(ResponseNone, nowMS)
		}
	}
}

// #endregion stimulus

// #region reward-movement

// checkRewardAndMovement advances the pulse train and the movement-time
// expiry together; both are millisecond-window comparisons made every
// iteration.
func (c *Controller) checkRewardAndMovement(nowMS int64) {
	c.seq.Check(nowMS)
	if c.logicActive && c.mt.Active() && nowMS >= c.mt.EndMS() {
		c.sink.Int(events.LabelMovementExpiry, nowMS)
		c.resolve(ResponseNone, nowMS)
	}
}

// #endregion reward-movement

// #region resolve

// resolve completes the current trial: it silences the stimulus, disarms the
// response windows, classifies the outcome, updates the reversal criterion,
// and prepares the next trial. A false alarm under the repeat policy keeps
// the planned stimulus and zeroes the next ITI instead of redrawing.
func (c *Controller) resolve(response byte, nowMS int64) {
	if c.stim.Active() {
		c.bank.Stim.Silence()
		c.sink.Int(events.LabelStimStop, nowMS)
	}
	c.stim.Disarm()
	c.rt.Disarm()
	c.mt.Disarm()

	var outcome Outcome
	if response == ResponseLick {
		if c.planned.Class == schedule.Go {
			outcome = Hit
		} else {
			outcome = FalseAlarm
		}
	} else {
		if c.planned.Class == schedule.Go {
			outcome = Miss
		} else {
			outcome = CorrectRejection
		}
	}
	c.sink.Char(events.LabelTrialOutcome, response, outcome.Code())

	if outcome == Hit {
		c.seq.Arm(nowMS + RewardDelayMS)
	}

	if c.sched.UpdateAccuracy(outcome.Correct()) {
		c.sink.Int(events.LabelReversal, nowMS)
	}
	c.lastActivityMS = nowMS

	if outcome == FalseAlarm && c.subj.RepeatFalseAlarms {
		// Forced repetition: same stimulus, zero ITI, run counters untouched.
		c.iti.Activate(nowMS)
		if c.subj.LickTraining {
			c.stim.Arm(nowMS)
		}
		return
	}

	c.prepareNext(nowMS)
}

// prepareNext draws the next inter-trial interval and stimulus. In lick
// training the stimulus is armed directly at the interval's end; otherwise
// it waits for a sustained nosepoke.
func (c *Controller) prepareNext(nowMS int64) {
	itiSec := c.sched.DrawITISeconds()
	end := nowMS + int64(itiSec)*1000
	c.iti.Activate(end)
	c.sink.IntPair(events.LabelITI, nowMS, int64(itiSec))

	c.planned = c.sched.SelectStimulus()
	c.sink.Char(events.LabelStimPlanned, c.planned.Class.Code(), c.planned.Ident)

	if c.subj.LickTraining {
		c.stim.Arm(end)
	}
}

// #endregion resolve

// #region limbo

// Limbo blocks until untilMS while still servicing the sensor channels and
// the position sampler. Trial logic, the other timers, and host commands are
// suspended for the duration; the transport buffers anything that arrives.
func (c *Controller) Limbo(untilMS int64) {
	for {
		now := c.clk.NowMillis()
		if now >= untilMS {
			return
		}
		c.pollSensors(now)
		c.trk.Check(now)
		c.idle()
	}
}

// #endregion limbo

// #region free-reward

// FreeReward delivers the configured pulse train outside the trial
// structure, triggered by the idle timeout or an explicit host command. It
// is bookkeeping-neutral: run counters, the accuracy window, and the planned
// stimulus are untouched (the stimulus is saved and restored around the
// forced Go stimulus).
func (c *Controller) FreeReward() {
	if c.session != Running {
		return
	}

	if c.stim.Active() {
		c.bank.Stim.Silence()
		c.sink.Int(events.LabelStimStop, c.clk.NowMillis())
	}
	c.stim.Disarm()
	c.seq.Abort()
	c.logicActive = false

	saved := c.planned

	var ident byte
	if len(c.subj.GoSet) > 0 {
		ident = c.subj.GoSet[0]
	}
	start := c.clk.NowMillis()
	c.bank.Stim.Play(ident)
	c.sink.Int(events.LabelStimStart, start)
	c.sink.Char(events.LabelStimPlayed, schedule.Go.Code(), ident)

	c.Limbo(start + FreeRewardOnsetDelayMS)
	c.seq.DeliverSync(c.clk.NowMillis, c.Limbo)

	c.planned = saved
	c.Limbo(start + c.subj.StimDurMS)
	c.bank.Stim.Silence()
	now := c.clk.NowMillis()
	c.sink.Int(events.LabelStimStop, now)

	c.lastActivityMS = now
	c.logicActive = true
}

// checkFreeRewardIdle fires a free reward when the box has been quiet for
// the configured timeout. Any sensor transition or trial resolution counts
// as activity.
func (c *Controller) checkFreeRewardIdle(nowMS int64) {
	if !c.logicActive || c.subj.FreeRewardTimeoutMS <= 0 {
		return
	}
	if nowMS-c.lastActivityMS >= c.subj.FreeRewardTimeoutMS {
		c.FreeReward()
	}
}

// #endregion free-reward

// #region session

// StartSession begins the session: sync pulses on both dedicated lines, a
// session identifier and start timestamp, and the first interval/stimulus
// draw. The first draw is not a trial resolution, so no accuracy update
// happens. Calling it while already running is a no-op; a halted session
// stays halted.
func (c *Controller) StartSession() {
	if c.session != NotStarted {
		return
	}

	c.sessionID = uuid.New().String()
	now := c.clk.NowMillis()

	c.bank.SyncA.Set(true)
	c.bank.SyncB.Set(true)
	c.Limbo(now + SyncPulseMS)
	c.bank.SyncA.Set(false)
	c.bank.SyncB.Set(false)

	now = c.clk.NowMillis()
	c.startMS = now
	c.sink.Char(events.LabelSessionID, []byte(c.sessionID)...)
	c.sink.Int(events.LabelSessionStart, now)

	c.prepareNext(now)

	c.session = Running
	c.logicActive = true
	c.lastActivityMS = now
}

// StopSession halts the session permanently: active stimulus silenced, a
// live response window reported as an aborted trial, engaged sensors
// force-released, end timestamp and sync pulses emitted, every output line
// driven low. After this, Step performs no further work.
func (c *Controller) StopSession() {
	if c.session == Halted {
		return
	}
	now := c.clk.NowMillis()

	if c.stim.Active() {
		c.bank.Stim.Silence()
		c.sink.Int(events.LabelStimStop, now)
	}
	c.stim.Disarm()

	if c.rt.Active() || c.mt.Active() {
		c.sink.Char(events.LabelTrialOutcome, ResponseNone, Aborted.Code())
	}
	c.rt.Disarm()
	c.mt.Disarm()
	c.seq.Abort()
	c.logicActive = false

	if tr, ok := c.nosepoke.ForceRelease(now); ok {
		c.sink.Int(events.LabelNosepokeExit, tr.AtMS)
	}
	if tr, ok := c.lick.ForceRelease(now); ok {
		c.sink.Int(events.LabelLickExit, tr.AtMS)
	}

	c.sink.Int(events.LabelSessionEnd, now)

	c.bank.SyncA.Set(true)
	c.bank.SyncB.Set(true)
	c.Limbo(now + SyncPulseMS)
	c.bank.AllLow()

	c.session = Halted
}

// #endregion session
