package console

import "fmt"

// Mode is a control mode code understood by the MTM and PSM controllers.
type Mode int8

// Mode codes, shared by both manipulators.
const (
	ModeReset  Mode = 0
	ModeManual Mode = 1
	ModeHold   Mode = 2
	ModeTeleop Mode = 3
)

func (m Mode) String() string {
	switch m {
	case ModeReset:
		return "RESET"
	case ModeManual:
		return "MANUAL"
	case ModeHold:
		return "HOLD"
	case ModeTeleop:
		return "TELEOP"
	default:
		return fmt.Sprintf("Mode(%d)", int8(m))
	}
}

// BoolMsg matches std_msgs/Bool.
type BoolMsg struct {
	Data bool `json:"data"`
}

// Int8Msg matches std_msgs/Int8.
type Int8Msg struct {
	Data int8 `json:"data"`
}

// JointStateMsg matches the name/position part of sensor_msgs/JointState.
type JointStateMsg struct {
	Name     []string  `json:"name"`
	Position []float64 `json:"position"`
}

// HeadJoints are the MTM joints overridden by the head sensor button.
var HeadJoints = []string{
	"right_outer_yaw_joint",
	"right_shoulder_pitch_joint",
	"right_elbow_pitch_joint",
	"right_wrist_platform_joint",
	"right_wrist_pitch_joint",
	"right_wrist_yaw_joint",
	"right_wrist_roll_joint",
}

// HeadJointState builds the enable-slider override. Wrist joints (3..6)
// flip to -1 when the head sensor is released.
func HeadJointState(pressed bool) JointStateMsg {
	msg := JointStateMsg{
		Name:     append([]string(nil), HeadJoints...),
		Position: make([]float64, len(HeadJoints)),
	}
	for i := range msg.Position {
		msg.Position[i] = 1
	}
	if !pressed {
		for i := 3; i < len(msg.Position); i++ {
			msg.Position[i] = -1
		}
	}
	return msg
}
