// Package downstream triggers a workflow in a dependent repository and waits
// for its completion.
package downstream

import (
	"context"
	"net/http"
	"strconv"

	"github.com/google/go-github/v53/github"
	"github.com/pkg/errors"
	"golang.org/x/oauth2"
)

// RunInfo is the observable state of one workflow run.
type RunInfo struct {
	Status     string
	Conclusion string
}

// DispatchInputs are the workflow inputs carried by a dispatch event.
type DispatchInputs struct {
	Tag           string
	ShaTag        string
	VersionBranch string
	FullTestSuite bool
	InitialPRURL  string
}

// Actions is the capability surface the coordinator needs from the
// downstream repository's CI system.
type Actions interface {
	BranchExists(ctx context.Context, branch string) (bool, error)
	ListRunIDs(ctx context.Context, branch string) ([]int64, error)
	Dispatch(ctx context.Context, branch string, inputs DispatchInputs) error
	RunInfo(ctx context.Context, runID int64) (RunInfo, error)
}

// GithubActions implements Actions against the GitHub Actions API.
type GithubActions struct {
	client   *github.Client
	owner    string
	repo     string
	workflow string
}

var _ Actions = (*GithubActions)(nil)

func NewGithubActions(ctx context.Context, token, owner, repo, workflow string) *GithubActions {
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	return &GithubActions{
		client:   github.NewClient(oauth2.NewClient(ctx, ts)),
		owner:    owner,
		repo:     repo,
		workflow: workflow,
	}
}

func (g *GithubActions) BranchExists(ctx context.Context, branch string) (bool, error) {
	_, resp, err := g.client.Repositories.GetBranch(ctx, g.owner, g.repo, branch, true)
	if err != nil {
		if resp != nil && resp.StatusCode == http.StatusNotFound {
			return false, nil
		}
		return false, errors.Wrapf(err, "get branch %s", branch)
	}
	return true, nil
}

func (g *GithubActions) ListRunIDs(ctx context.Context, branch string) ([]int64, error) {
	runs, _, err := g.client.Actions.ListRepositoryWorkflowRuns(ctx, g.owner, g.repo,
		&github.ListWorkflowRunsOptions{
			Branch:      branch,
			ListOptions: github.ListOptions{PerPage: 100},
		})
	if err != nil {
		return nil, errors.Wrapf(err, "list workflow runs for %s", branch)
	}
	ids := make([]int64, 0, len(runs.WorkflowRuns))
	for _, run := range runs.WorkflowRuns {
		ids = append(ids, run.GetID())
	}
	return ids, nil
}

func (g *GithubActions) Dispatch(ctx context.Context, branch string, inputs DispatchInputs) error {
	req := github.CreateWorkflowDispatchEventRequest{
		Ref: branch,
		Inputs: map[string]interface{}{
			"evm_tag":               inputs.Tag,
			"evm_sha_tag":           inputs.ShaTag,
			"evm_pr_version_branch": inputs.VersionBranch,
			"full_test_suite":       strconv.FormatBool(inputs.FullTestSuite),
			"initial_pr":            inputs.InitialPRURL,
		},
	}
	_, err := g.client.Actions.CreateWorkflowDispatchEventByFileName(ctx, g.owner, g.repo, g.workflow, req)
	return errors.Wrapf(err, "dispatch workflow on %s", branch)
}

func (g *GithubActions) RunInfo(ctx context.Context, runID int64) (RunInfo, error) {
	run, _, err := g.client.Actions.GetWorkflowRunByID(ctx, g.owner, g.repo, runID)
	if err != nil {
		return RunInfo{}, errors.Wrapf(err, "get workflow run %d", runID)
	}
	return RunInfo{Status: run.GetStatus(), Conclusion: run.GetConclusion()}, nil
}
