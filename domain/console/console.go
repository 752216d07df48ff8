// Package console holds the teleoperation control panel state: the latest
// MTM/PSM poses, the button states and the messages each button publishes.
package console

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/open-teleop/teleop-console/pkg/config"
	customlog "github.com/open-teleop/teleop-console/pkg/log"
	"github.com/open-teleop/teleop-console/pkg/processing"
)

var (
	// ErrUnknownCommand is returned by Apply for names it does not handle.
	ErrUnknownCommand = errors.New("unknown console command")
	// ErrBusClosed reports that the message bus has shut down.
	ErrBusClosed = errors.New("bus closed")
)

// Command names accepted by Apply.
const (
	CommandHome       = "home"
	CommandManual     = "manual"
	CommandTeleopTest = "teleop_test"
	CommandTeleop     = "teleop"
	CommandHead       = "head"
	CommandClutch     = "clutch"
	CommandMoveTool   = "move_tool"
)

// Publisher sends a JSON-serialisable message on a bus topic.
type Publisher interface {
	PublishJSON(topic string, v interface{}) error
}

// Source yields the deliveries received since the previous call.
type Source interface {
	Drain() []processing.Delivery
}

// Command is a button press coming from the panel, the API or the bus.
// State is only meaningful for the checkable buttons (head, clutch, move_tool).
type Command struct {
	Name  string `json:"command"`
	State bool   `json:"state"`
}

// State is a render snapshot of the console.
type State struct {
	MasterFrame     Frame     `json:"mtm_frame"`
	SlaveFrame      Frame     `json:"psm_frame"`
	MasterUpdatedAt time.Time `json:"mtm_updated_at"`
	SlaveUpdatedAt  time.Time `json:"psm_updated_at"`
	ConsoleButton   string    `json:"console_button"`
	Head            bool      `json:"head"`
	Clutch          bool      `json:"clutch"`
	MoveTool        bool      `json:"move_tool"`
	Enabled         bool      `json:"teleop_enabled"`
	MasterMode      *Mode     `json:"mtm_mode,omitempty"`
	SlaveMode       *Mode     `json:"psm_mode,omitempty"`
	Ticks           uint64    `json:"ticks"`
	LastError       string    `json:"last_error,omitempty"`
}

// Console is the control panel model. All methods are safe for concurrent
// use; publishes happen under the console lock so mode pairs stay ordered.
type Console struct {
	topics    config.Topics
	publisher Publisher
	source    Source
	logger    customlog.Logger

	mu              sync.Mutex
	masterFrame     Frame
	slaveFrame      Frame
	masterUpdatedAt time.Time
	slaveUpdatedAt  time.Time
	consoleButton   string
	head            bool
	clutch          bool
	moveTool        bool
	enabled         bool
	masterMode      *Mode
	slaveMode       *Mode
	ticks           uint64
	lastError       string
}

// New creates a console publishing on topics through publisher. source may be
// nil when poses are pushed with OnMasterPose/OnSlavePose directly.
func New(topics config.Topics, publisher Publisher, source Source, logger customlog.Logger) *Console {
	return &Console{
		topics:      topics,
		publisher:   publisher,
		source:      source,
		logger:      logger,
		masterFrame: IdentityFrame(),
		slaveFrame:  IdentityFrame(),
	}
}

// Topics returns the topics the console was built with.
func (c *Console) Topics() config.Topics {
	return c.topics
}

// OnMasterPose stores the latest MTM pose.
func (c *Console) OnMasterPose(p Pose) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.masterFrame = FrameFromPose(p)
	c.masterUpdatedAt = time.Now()
}

// OnSlavePose stores the latest PSM pose.
func (c *Console) OnSlavePose(p Pose) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.slaveFrame = FrameFromPose(p)
	c.slaveUpdatedAt = time.Now()
}

// Tick drains pending poses, publishes the teleop enable flag and returns
// the snapshot to render.
func (c *Console) Tick() State {
	if c.source != nil {
		for _, d := range c.source.Drain() {
			c.deliver(d)
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.enabled = c.head && !c.clutch && !c.moveTool
	c.publishLocked(c.topics.TeleopEnable, BoolMsg{Data: c.enabled})
	c.ticks++

	return c.snapshotLocked()
}

func (c *Console) deliver(d processing.Delivery) {
	var pose Pose
	switch d.Topic {
	case c.topics.MasterPose, c.topics.SlavePose:
		if err := json.Unmarshal(d.Payload, &pose); err != nil {
			c.logger.Warnf("Dropping undecodable pose on '%s': %v", d.Topic, err)
			c.setError(fmt.Errorf("decode pose on %s: %w", d.Topic, err))
			return
		}
	default:
		c.logger.Debugf("Ignoring delivery on unexpected topic '%s'", d.Topic)
		return
	}

	if d.Topic == c.topics.MasterPose {
		c.OnMasterPose(pose)
	} else {
		c.OnSlavePose(pose)
	}
}

// PressHome resets both manipulators.
func (c *Console) PressHome() {
	c.pressConsole(CommandHome, ModeReset, ModeReset)
}

// PressManual puts both manipulators in manual mode.
func (c *Console) PressManual() {
	c.pressConsole(CommandManual, ModeManual, ModeManual)
}

// PressTeleopTest puts both manipulators in teleop mode.
func (c *Console) PressTeleopTest() {
	c.pressConsole(CommandTeleopTest, ModeTeleop, ModeTeleop)
}

// PressTeleop puts the MTM in teleop and holds the PSM until enabled.
func (c *Console) PressTeleop() {
	c.pressConsole(CommandTeleop, ModeTeleop, ModeHold)
}

func (c *Console) pressConsole(button string, master, slave Mode) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.consoleButton = button
	c.logger.Infof("Console %s: MTM=%s PSM=%s", button, master, slave)

	c.publishModeLocked(c.topics.MasterMode, master, &c.masterMode)
	c.publishModeLocked(c.topics.SlaveMode, slave, &c.slaveMode)
}

// ToggleHead publishes the enable-slider joint override for the head sensor.
func (c *Console) ToggleHead(pressed bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.toggleHeadLocked(pressed)
}

func (c *Console) toggleHeadLocked(pressed bool) {
	c.head = pressed
	c.publishLocked(c.topics.EnableSlider, HeadJointState(pressed))
}

// ToggleClutch only records the clutch state; the controllers read the
// enable flag on the next tick.
func (c *Console) ToggleClutch(pressed bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.toggleClutchLocked(pressed)
}

func (c *Console) toggleClutchLocked(pressed bool) {
	c.clutch = pressed
	if pressed {
		c.logger.Errorf("MOVE IT")
	} else {
		c.logger.Errorf("HOLD IT!")
	}
}

// ToggleMoveTool frees the PSM for manual tool repositioning, or holds it.
func (c *Console) ToggleMoveTool(pressed bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.toggleMoveToolLocked(pressed)
}

func (c *Console) toggleMoveToolLocked(pressed bool) {
	c.moveTool = pressed
	mode := ModeHold
	if pressed {
		mode = ModeManual
	}
	c.publishModeLocked(c.topics.SlaveMode, mode, &c.slaveMode)
}

// Apply runs a named command.
func (c *Console) Apply(cmd Command) error {
	switch cmd.Name {
	case CommandHome:
		c.PressHome()
	case CommandManual:
		c.PressManual()
	case CommandTeleopTest:
		c.PressTeleopTest()
	case CommandTeleop:
		c.PressTeleop()
	case CommandHead:
		c.ToggleHead(cmd.State)
	case CommandClutch:
		c.ToggleClutch(cmd.State)
	case CommandMoveTool:
		c.ToggleMoveTool(cmd.State)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownCommand, cmd.Name)
	}
	return nil
}

// Toggle flips a checkable button and returns the command that was applied.
func (c *Console) Toggle(name string) (Command, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	// read and flip under one lock so concurrent toggles never collapse
	var cmd Command
	switch name {
	case CommandHead:
		cmd = Command{Name: name, State: !c.head}
		c.toggleHeadLocked(cmd.State)
	case CommandClutch:
		cmd = Command{Name: name, State: !c.clutch}
		c.toggleClutchLocked(cmd.State)
	case CommandMoveTool:
		cmd = Command{Name: name, State: !c.moveTool}
		c.toggleMoveToolLocked(cmd.State)
	default:
		return Command{}, fmt.Errorf("%w: %q is not checkable", ErrUnknownCommand, name)
	}
	return cmd, nil
}

// Snapshot returns the current state without ticking.
func (c *Console) Snapshot() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

func (c *Console) snapshotLocked() State {
	s := State{
		MasterFrame:     c.masterFrame,
		SlaveFrame:      c.slaveFrame,
		MasterUpdatedAt: c.masterUpdatedAt,
		SlaveUpdatedAt:  c.slaveUpdatedAt,
		ConsoleButton:   c.consoleButton,
		Head:            c.head,
		Clutch:          c.clutch,
		MoveTool:        c.moveTool,
		Enabled:         c.enabled,
		Ticks:           c.ticks,
		LastError:       c.lastError,
	}
	if c.masterMode != nil {
		m := *c.masterMode
		s.MasterMode = &m
	}
	if c.slaveMode != nil {
		m := *c.slaveMode
		s.SlaveMode = &m
	}
	return s
}

func (c *Console) publishModeLocked(topic string, mode Mode, last **Mode) {
	m := mode
	*last = &m
	c.publishLocked(topic, Int8Msg{Data: int8(mode)})
}

func (c *Console) publishLocked(topic string, v interface{}) {
	if err := c.publisher.PublishJSON(topic, v); err != nil {
		c.logger.Warnf("Failed to publish on '%s': %v", topic, err)
		c.lastError = fmt.Sprintf("publish %s: %v", topic, err)
	}
}

func (c *Console) setError(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lastError = err.Error()
}
