// Package notify posts build-failure summaries to a Slack-compatible webhook.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/go-go-golems/relctl/pkg/tags"
)

type block struct {
	Type string     `json:"type"`
	Text *blockText `json:"text,omitempty"`
}

type blockText struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type payload struct {
	Blocks []block `json:"blocks"`
}

// Notifier posts failure summaries to a webhook endpoint.
type Notifier struct {
	WebhookURL string
	Client     *http.Client
}

func New(webhookURL string) *Notifier {
	return &Notifier{
		WebhookURL: webhookURL,
		Client:     &http.Client{Timeout: 10 * time.Second},
	}
}

// Eligible reports whether failures for this tag are worth notifying about:
// final releases, release-line branches and latest only.
func Eligible(tag string) bool {
	return tags.IsReleaseTag(tag) || tags.IsVersionBranch(tag) || tag == "latest"
}

// SendBuildFailure posts a formatted failure summary with a link to the
// failed build. Ineligible tags are skipped with a log line.
func (n *Notifier) SendBuildFailure(ctx context.Context, tag, buildURL string) error {
	if !Eligible(tag) {
		log.Info().Str("tag", tag).Msg("notification not sent, tag is not a version tag or latest")
		return nil
	}

	parsed, err := url.Parse(buildURL)
	if err != nil {
		return errors.Wrap(err, "parse build url")
	}
	segments := strings.Split(strings.Trim(parsed.Path, "/"), "/")
	buildID := segments[len(segments)-1]
	repoName := ""
	if len(segments) >= 2 {
		repoName = segments[0] + "/" + segments[1]
	}

	msg := payload{Blocks: []block{
		{
			Type: "section",
			Text: &blockText{
				Type: "mrkdwn",
				Text: fmt.Sprintf(
					"*Build <%s|`%s`> of repository `%s` is failed.*\n<%s|View build details>",
					buildURL, buildID, repoName, buildURL),
			},
		},
		{Type: "divider"},
	}}

	body, err := json.Marshal(msg)
	if err != nil {
		return errors.Wrap(err, "marshal notification payload")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.WebhookURL, bytes.NewReader(body))
	if err != nil {
		return errors.Wrap(err, "build notification request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.Client.Do(req)
	if err != nil {
		return errors.Wrap(err, "post notification")
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode >= 300 {
		return errors.Errorf("notification endpoint returned status %d", resp.StatusCode)
	}
	return nil
}
