package contradiction

import (
	"context"
	"fmt"

	"github.com/slack-go/slack"
)

// SlackNotifier posts a message when a profile is rejected for a critical
// contradiction. It is optional; the validator Wave works without one
// configured.
type SlackNotifier struct {
	client  *slack.Client
	channel string
}

func NewSlackNotifier(token, channel string) *SlackNotifier {
	return &SlackNotifier{client: slack.New(token), channel: channel}
}

func (n *SlackNotifier) NotifyRejection(ctx context.Context, imageHash string, findings []Finding) error {
	if n == nil || n.client == nil {
		return nil
	}
	var worst Finding
	for _, f := range findings {
		if severityOrder[f.Severity] >= severityOrder[worst.Severity] {
			worst = f
		}
	}
	text := fmt.Sprintf("image %s rejected: %s (%s vs %s)", imageHash, worst.RuleID, worst.KeyA, worst.KeyB)
	_, _, err := n.client.PostMessageContext(ctx, n.channel, slack.MsgOptionText(text, false))
	return err
}
