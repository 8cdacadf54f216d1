package downstream

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/go-go-golems/relctl/pkg/config"
	"github.com/go-go-golems/relctl/pkg/poll"
	"github.com/go-go-golems/relctl/pkg/tags"
)

// fullSuiteLabel on the upstream PR forces the full downstream test suite.
const fullSuiteLabel = "fullTestSuit"

// ErrAmbiguousRun reports that more than one new run appeared after a
// dispatch, so the triggered run cannot be identified. The dispatch API
// returns no run id and exposes no correlation token, so we fail explicitly
// instead of picking an arbitrary candidate.
type ErrAmbiguousRun struct {
	Candidates []int64
}

func (e *ErrAmbiguousRun) Error() string {
	return fmt.Sprintf("ambiguous downstream run identification: %d new runs appeared %v", len(e.Candidates), e.Candidates)
}

// TriggerOptions carries the upstream context for one downstream trigger.
type TriggerOptions struct {
	Resolution tags.Resolution
	ShaTag     string
	Labels     []string
	PRURL      string
	PRNumber   string
}

// Coordinator dispatches the downstream workflow and awaits its completion.
type Coordinator struct {
	Actions Actions
	Cfg     *config.Pipeline

	// Poll knobs; zero values take the production defaults.
	CreationInterval   time.Duration
	CreationTimeout    time.Duration
	CompletionInterval time.Duration
	CompletionTimeout  time.Duration
}

func (c *Coordinator) creationInterval() time.Duration {
	if c.CreationInterval > 0 {
		return c.CreationInterval
	}
	return 500 * time.Millisecond
}

func (c *Coordinator) creationTimeout() time.Duration {
	if c.CreationTimeout > 0 {
		return c.CreationTimeout
	}
	return 60 * time.Second
}

func (c *Coordinator) completionInterval() time.Duration {
	if c.CompletionInterval > 0 {
		return c.CompletionInterval
	}
	return 5 * time.Second
}

func (c *Coordinator) completionTimeout() time.Duration {
	if c.CompletionTimeout > 0 {
		return c.CompletionTimeout
	}
	return 10800 * time.Second
}

// SelectBranch picks the downstream branch for the trigger, in priority
// order: a branch named after the tag, the paired version branch, the
// floating release line, the tag itself when it is a version branch, and the
// configured default.
func (c *Coordinator) SelectBranch(ctx context.Context, res tags.Resolution) (string, error) {
	exists, err := c.Actions.BranchExists(ctx, res.Tag)
	if err != nil {
		return "", err
	}
	switch {
	case exists:
		return res.Tag, nil
	case res.PRVersionBranch != "":
		return res.PRVersionBranch, nil
	case res.IsRelease:
		return tags.FloatingTag(res.Tag), nil
	case tags.IsVersionBranch(res.Tag):
		return res.Tag, nil
	default:
		return c.Cfg.DefaultDownstreamBranch, nil
	}
}

// Trigger dispatches the downstream workflow, identifies the newly created
// run by set difference over two run-list snapshots, polls the run until it
// completes, and fails with a run link on any conclusion but "success".
func (c *Coordinator) Trigger(ctx context.Context, opts TriggerOptions) error {
	res := opts.Resolution

	fullSuite := res.Tag == "latest" || res.IsRelease ||
		tags.IsVersionBranch(res.Tag) || hasLabel(opts.Labels, fullSuiteLabel)

	branch, err := c.SelectBranch(ctx, res)
	if err != nil {
		return err
	}
	log.Info().Str("branch", branch).Bool("full_test_suite", fullSuite).Msg("downstream branch selected")

	initialPR := ""
	if opts.PRNumber != "" {
		initialPR = fmt.Sprintf("%s/%s/comments", opts.PRURL, opts.PRNumber)
	}

	before, err := c.Actions.ListRunIDs(ctx, branch)
	if err != nil {
		return err
	}

	err = c.Actions.Dispatch(ctx, branch, DispatchInputs{
		Tag:           res.Tag,
		ShaTag:        opts.ShaTag,
		VersionBranch: res.PRVersionBranch,
		FullTestSuite: fullSuite,
		InitialPRURL:  initialPR,
	})
	if err != nil {
		return err
	}

	err = poll.Until(ctx, c.creationInterval(), c.creationTimeout(), func(ctx context.Context) (bool, error) {
		ids, err := c.Actions.ListRunIDs(ctx, branch)
		if err != nil {
			return false, err
		}
		return len(ids) > len(before), nil
	})
	if err != nil {
		return errors.Wrap(err, "waiting for downstream run creation")
	}

	after, err := c.Actions.ListRunIDs(ctx, branch)
	if err != nil {
		return err
	}

	runID, err := identifyNewRun(before, after)
	if err != nil {
		return err
	}

	link := fmt.Sprintf("https://github.com/%s/actions/runs/%d", c.Cfg.RunLinkRepo, runID)
	log.Info().Str("link", link).Msg("downstream run link")
	log.Info().Msg("waiting for completed status")

	err = poll.Until(ctx, c.completionInterval(), c.completionTimeout(), func(ctx context.Context) (bool, error) {
		info, err := c.Actions.RunInfo(ctx, runID)
		if err != nil {
			return false, err
		}
		return info.Status == "completed", nil
	})
	if err != nil {
		return errors.Wrap(err, "waiting for downstream run completion")
	}

	info, err := c.Actions.RunInfo(ctx, runID)
	if err != nil {
		return err
	}
	if info.Conclusion != "success" {
		return errors.Errorf("downstream tests failed! See %s", link)
	}
	log.Info().Msg("downstream tests passed successfully")
	return nil
}

// identifyNewRun computes the set difference after minus before. Exactly one
// new run must appear; anything else is a hard error.
func identifyNewRun(before, after []int64) (int64, error) {
	seen := make(map[int64]struct{}, len(before))
	for _, id := range before {
		seen[id] = struct{}{}
	}
	var fresh []int64
	for _, id := range after {
		if _, ok := seen[id]; !ok {
			fresh = append(fresh, id)
		}
	}
	switch len(fresh) {
	case 1:
		return fresh[0], nil
	case 0:
		return 0, errors.New("dispatch produced no new downstream run")
	default:
		return 0, &ErrAmbiguousRun{Candidates: fresh}
	}
}

func hasLabel(labels []string, want string) bool {
	for _, l := range labels {
		if strings.Contains(l, want) {
			return true
		}
	}
	return false
}
