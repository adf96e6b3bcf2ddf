package shell

import (
	"embed"
	"errors"
	"strings"
)

//go:embed helptext/*.txt
var helpFS embed.FS

var helpTopics = []string{"analyze", "bench", "best", "params", "position", "set"}

func (sc *ShellController) help(cmd *shellcmd) (*Response, error) {
	topic := "usage"
	if len(cmd.args) > 0 {
		topic = strings.TrimSpace(cmd.args[0])
	}
	if strings.ContainsAny(topic, "/\\.") {
		return nil, errors.New("There is no help text for the topic " + topic)
	}
	dat, err := helpFS.ReadFile("helptext/" + topic + ".txt")
	if err != nil {
		return nil, errors.New("There is no help text for the topic " + topic)
	}
	if topic == "usage" && sc.gitVersion != "" {
		return msg("guardtowers " + sc.gitVersion + "\n\n" + string(dat)), nil
	}
	return msg(string(dat)), nil
}
