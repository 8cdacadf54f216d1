package config

import (
	"os"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

const DefaultConfigFilename = ".relctl.yaml"

const (
	solanaNodeVersion = "v1.18.18"
	solanaBPFVersion  = "v1.18.18"
)

// Pipeline holds every knob the release pipeline needs. It is built once at
// process start and passed by reference; core packages never read process env.
type Pipeline struct {
	DockerUser     string `yaml:"docker_user,omitempty"`
	DockerPassword string `yaml:"docker_password,omitempty"`

	Org           string `yaml:"org"`
	ImageName     string `yaml:"image_name"`
	TestImageName string `yaml:"test_image_name"`

	RunLinkRepo        string `yaml:"run_link_repo,omitempty"`
	DownstreamOwner    string `yaml:"downstream_owner"`
	DownstreamRepo     string `yaml:"downstream_repo"`
	DownstreamWorkflow string `yaml:"downstream_workflow"`

	TrunkBranch             string `yaml:"trunk_branch"`
	DefaultDownstreamBranch string `yaml:"default_downstream_branch"`

	ComposeBin         string `yaml:"compose_bin"`
	ComposeFile        string `yaml:"compose_file"`
	TestCommand        string `yaml:"test_command"`
	DiagnosticsService string `yaml:"diagnostics_service"`

	BaseImage    string   `yaml:"base_image"`
	BPFVersion   string   `yaml:"bpf_version"`
	HelperImages []string `yaml:"helper_images,omitempty"`

	RegistryBaseURL string `yaml:"registry_base_url"`
	GithubEnvPath   string `yaml:"-"`
}

// FromEnv builds the pipeline configuration from the process environment with
// defaults matching the production pipeline.
func FromEnv() *Pipeline {
	p := &Pipeline{
		DockerUser:     os.Getenv("DHUBU"),
		DockerPassword: os.Getenv("DHUBP"),

		Org:           os.Getenv("DOCKERHUB_ORG_NAME"),
		ImageName:     envOr("IMAGE_NAME", "evm_loader"),
		TestImageName: envOr("TEST_IMAGE_NAME", "neon_tests"),

		RunLinkRepo:        os.Getenv("RUN_LINK_REPO"),
		DownstreamWorkflow: envOr("DOWNSTREAM_WORKFLOW", "pipeline.yml"),

		TrunkBranch:             "develop",
		DefaultDownstreamBranch: "develop",

		ComposeBin:         envOr("COMPOSE_BIN", "docker-compose"),
		ComposeFile:        envOr("COMPOSE_FILE", "./ci/docker-compose-ci.yml"),
		TestCommand:        "python3 clickfile.py run evm --numprocesses 8 --network docker_net",
		DiagnosticsService: "neon-core-api",

		BaseImage:  "solanalabs/solana:" + solanaNodeVersion,
		BPFVersion: solanaBPFVersion,

		RegistryBaseURL: "https://registry.hub.docker.com",
		GithubEnvPath:   os.Getenv("GITHUB_ENV"),
	}

	if repo := os.Getenv("PROXY_REPO"); repo != "" {
		if owner, name, ok := strings.Cut(repo, "/"); ok {
			p.DownstreamOwner = owner
			p.DownstreamRepo = name
		}
	}
	if p.Org != "" {
		p.HelperImages = []string{p.Org + "/neon_test_programs:latest"}
	}
	return p
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// Load overlays an optional YAML file on top of the base configuration. A
// missing file is not an error.
func Load(path string, base *Pipeline) (*Pipeline, error) {
	if base == nil {
		base = FromEnv()
	}
	_, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return base, nil
		}
		return nil, errors.Wrap(err, "stat config")
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read config")
	}
	if err := yaml.Unmarshal(b, base); err != nil {
		return nil, errors.Wrap(err, "parse config yaml")
	}
	return base, nil
}

func (p *Pipeline) Validate() error {
	if p.Org == "" {
		return errors.New("missing dockerhub org name (DOCKERHUB_ORG_NAME)")
	}
	if p.ImageName == "" {
		return errors.New("missing image name")
	}
	return nil
}

// Image returns the fully qualified artifact image reference for a tag.
func (p *Pipeline) Image(tag string) string {
	return p.Org + "/" + p.ImageName + ":" + tag
}

// TestImage returns the fully qualified test image reference for a tag.
func (p *Pipeline) TestImage(tag string) string {
	return p.Org + "/" + p.TestImageName + ":" + tag
}
