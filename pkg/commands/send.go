package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/gosuri/uitable"
	"github.com/open-teleop/teleop-console/domain/console"
	"github.com/open-teleop/teleop-console/pkg/zeromq"
	"github.com/spf13/cobra"
)

const statusCommand = "status"

// SendOptions are the flags of the send command.
type SendOptions struct {
	State   bool
	Address string
	Timeout time.Duration
}

func addSend(topLevel *cobra.Command, opts *RootOptions) {
	so := &SendOptions{}

	cmd := &cobra.Command{
		Use:   "send <command>",
		Short: "Press a console button on a running console.",
		Long: `Sends one command to a running console over its command socket and prints
the resulting state. Commands: home, manual, teleop_test, teleop, head, clutch,
move_tool, status. --state sets the checked state of head, clutch and move_tool.`,
		Example: `
teleop-console send teleop
teleop-console send head --state
teleop-console send status
`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true

			address := so.Address
			if address == "" {
				cfg, _, err := loadBootstrap(cmd, opts)
				if err != nil {
					return err
				}
				if cfg.ZeroMQ.CommandBindAddress == "" {
					return fmt.Errorf("no command address: set --address or zeromq.command_bind_address")
				}
				address = connectAddress(cfg.ZeroMQ.CommandBindAddress)
			}

			msgType, data := commandRequest(args[0], so.State)
			state, err := requestState(address, so.Timeout, msgType, data)
			if err != nil {
				return err
			}
			printState(color.Output, state)
			return nil
		},
	}

	cmd.Flags().BoolVar(&so.State, "state", false, "Checked state for head, clutch and move_tool.")
	cmd.Flags().StringVar(&so.Address, "address", "", "Command socket to connect to. Defaults to zeromq.command_bind_address.")
	cmd.Flags().DurationVar(&so.Timeout, "timeout", 2*time.Second, "How long to wait for the reply.")

	topLevel.AddCommand(cmd)
}

func commandRequest(name string, state bool) (string, interface{}) {
	if name == statusCommand {
		return zeromq.MsgTypeStatusRequest, nil
	}
	return zeromq.MsgTypeConsoleCommand, console.Command{Name: name, State: state}
}

func requestState(address string, timeout time.Duration, msgType string, data interface{}) (console.State, error) {
	client, err := zeromq.NewCommandClient(address, timeout)
	if err != nil {
		return console.State{}, err
	}
	defer client.Close()

	reply, err := client.Request(msgType, data)
	if err != nil {
		return console.State{}, fmt.Errorf("%s: %w", address, err)
	}

	var state console.State
	if err := json.Unmarshal(reply.Data, &state); err != nil {
		return console.State{}, fmt.Errorf("decode console state: %w", err)
	}
	return state, nil
}

// connectAddress turns a wildcard bind endpoint into one a client can connect to.
func connectAddress(bind string) string {
	for _, wildcard := range []string{"://*:", "://0.0.0.0:"} {
		if strings.Contains(bind, wildcard) {
			return strings.Replace(bind, wildcard, "://localhost:", 1)
		}
	}
	return bind
}

func printState(w io.Writer, s console.State) {
	bold := color.New(color.Bold)
	on := color.New(color.FgGreen, color.Bold)
	off := color.New(color.FgRed)

	flag := func(b bool) string {
		if b {
			return on.Sprint("on")
		}
		return off.Sprint("off")
	}
	mode := func(m *console.Mode) string {
		if m == nil {
			return "-"
		}
		return m.String()
	}
	button := s.ConsoleButton
	if button == "" {
		button = "-"
	}

	tbl := uitable.New()
	tbl.Separator = "  "
	tbl.AddRow(bold.Sprint("Console"), button)
	tbl.AddRow(bold.Sprint("MTM mode"), mode(s.MasterMode))
	tbl.AddRow(bold.Sprint("PSM mode"), mode(s.SlaveMode))
	tbl.AddRow(bold.Sprint("Head"), flag(s.Head))
	tbl.AddRow(bold.Sprint("Clutch"), flag(s.Clutch))
	tbl.AddRow(bold.Sprint("Move tool"), flag(s.MoveTool))
	tbl.AddRow(bold.Sprint("Teleop enable"), flag(s.Enabled))
	tbl.AddRow(bold.Sprint("Ticks"), s.Ticks)
	if s.LastError != "" {
		tbl.AddRow(bold.Sprint("Last error"), color.RedString(s.LastError))
	}
	tbl.RightAlign(0)

	_, _ = fmt.Fprintln(w, tbl)
}
