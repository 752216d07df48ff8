package commands

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"time"

	"github.com/fatih/color"
	"github.com/gosuri/uitable"
	"github.com/open-teleop/teleop-console/pkg/config"
	customlog "github.com/open-teleop/teleop-console/pkg/log"
	"github.com/open-teleop/teleop-console/pkg/processing"
	"github.com/open-teleop/teleop-console/pkg/zeromq"
	"github.com/spf13/cobra"
)

// TopicsOptions are the flags of the topics command.
type TopicsOptions struct {
	Live    bool
	Address string
	Timeout time.Duration
}

func addTopics(topLevel *cobra.Command, opts *RootOptions) {
	to := &TopicsOptions{}

	cmd := &cobra.Command{
		Use:   "topics",
		Short: "Show the topics the console publishes and subscribes to.",
		Example: `
teleop-console topics
teleop-console topics --live
`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmd.SilenceUsage = true

			cfg, _, err := loadBootstrap(cmd, opts)
			if err != nil {
				return err
			}

			if to.Live {
				address := to.Address
				if address == "" {
					address = connectAddress(cfg.ZeroMQ.CommandBindAddress)
				}
				stats, err := requestTopicStats(address, to.Timeout)
				if err != nil {
					return err
				}
				printTopicStats(color.Output, stats)
				return nil
			}

			topicCfg, err := config.LoadConfig(cfg.TopicConfigPath())
			if err != nil {
				if !errors.Is(err, fs.ErrNotExist) {
					return err
				}
				topicCfg = config.DefaultConfig()
			}
			printTopicMappings(color.Output, topicCfg)
			return nil
		},
	}

	cmd.Flags().BoolVar(&to.Live, "live", false, "Query message counts from a running console.")
	cmd.Flags().StringVar(&to.Address, "address", "", "Command socket to connect to with --live.")
	cmd.Flags().DurationVar(&to.Timeout, "timeout", 2*time.Second, "How long to wait for the reply with --live.")

	topLevel.AddCommand(cmd)
}

func requestTopicStats(address string, timeout time.Duration) ([]processing.TopicInfo, error) {
	client, err := zeromq.NewCommandClient(address, timeout)
	if err != nil {
		return nil, err
	}
	defer client.Close()

	reply, err := client.Request(zeromq.MsgTypeTopicsRequest, nil)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", address, err)
	}

	var stats []processing.TopicInfo
	if err := json.Unmarshal(reply.Data, &stats); err != nil {
		return nil, fmt.Errorf("decode topic stats: %w", err)
	}
	return stats, nil
}

func directionColor(direction string) *color.Color {
	if direction == config.DirectionInbound {
		return color.New(color.FgCyan)
	}
	return color.New(color.FgYellow)
}

func printTopicMappings(w io.Writer, cfg *config.Config) {
	bold := color.New(color.Bold)

	_, _ = fmt.Fprintf(w, "%s %s (version %s, robot %s)\n\n",
		bold.Sprint("Topic config"), cfg.ConfigID, cfg.Version, cfg.RobotID)

	// the registry fills in defaults the same way the running console does
	registry := processing.NewTopicRegistry(customlog.NewWriterLogger("error", io.Discard))
	registry.LoadFromConfig(cfg)

	tbl := uitable.New()
	tbl.Separator = "  "
	tbl.AddRow(bold.Sprint("ID"), bold.Sprint("Topic"), bold.Sprint("Direction"), bold.Sprint("Type"), bold.Sprint("Priority"))
	for _, topic := range registry.GetAllTopics() {
		info, ok := registry.GetTopicInfo(topic)
		if !ok {
			continue
		}
		tbl.AddRow(info.TopicID, info.Topic, directionColor(info.Direction).Sprint(info.Direction), info.MessageType, info.Priority)
	}

	_, _ = fmt.Fprintln(w, tbl)
}

func printTopicStats(w io.Writer, stats []processing.TopicInfo) {
	bold := color.New(color.Bold)

	tbl := uitable.New()
	tbl.Separator = "  "
	tbl.AddRow(bold.Sprint("Topic"), bold.Sprint("Direction"), bold.Sprint("Count"), bold.Sprint("Errors"), bold.Sprint("Last"))
	for _, s := range stats {
		last := "-"
		if s.LastReceived > 0 {
			last = time.Unix(0, s.LastReceived).Format("15:04:05.000")
		}
		errs := fmt.Sprint(s.ErrorCount)
		if s.ErrorCount > 0 {
			errs = color.RedString(errs)
		}
		tbl.AddRow(s.Topic, directionColor(s.Direction).Sprint(s.Direction), s.StatCount, errs, last)
	}
	tbl.RightAlign(2)

	_, _ = fmt.Fprintln(w, tbl)
}
