package init

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"

	prof "github.com/opst/mlstudio/cmd/mlstudio/config/profiles"
	"github.com/opst/mlstudio/cmd/mlstudio/subcommands/common"
	"github.com/youta-t/flarc"
	"gopkg.in/yaml.v3"
)

type Flag struct {
	Api string `flag:"api" metavar:"URL" help:"Register a profile pointing this server, instead of reading PROFILE_FILE."`
}

const ARG_PROFILE_FILE = "PROFILE_FILE"

type Option struct {
	// profileMarker is where the name of the selected profile is written.
	profileMarker string
}

func WithProfileMarker(path string) func(*Option) *Option {
	return func(o *Option) *Option {
		o.profileMarker = path
		return o
	}
}

func New(options ...func(*Option) *Option) (flarc.Command, error) {
	option := &Option{profileMarker: common.ProfileFile}
	for _, o := range options {
		option = o(option)
	}

	return flarc.NewCommand(
		"Initialize this directory to work with an ML studio server.",
		Flag{},
		flarc.Args{
			{
				Name: ARG_PROFILE_FILE, Required: false,
				Help: "filepath to mlstudio profile file (YAML with apiRoot and optional cert.ca).",
			},
		},
		common.NewTaskWithCommonFlag(Task(option.profileMarker)),
		flarc.WithDescription(`
Register a new profile into your profile store, and select it in this directory.

The name of the profile is given by "--profile" (default: current filepath).
The server is read from PROFILE_FILE, or given by "--api".

Example
-------

	{{ .Command }} ./profile.yaml
	{{ .Command }} --api http://localhost:8000
`),
	)
}

func Task(profileMarker string) common.TaskWithCommonFlag[Flag] {
	return func(
		ctx context.Context,
		logger *log.Logger,
		cf common.CommonFlags,
		cl flarc.Commandline[Flag],
		params []any,
	) error {
		newProf, err := readProfile(cl)
		if err != nil {
			return err
		}
		if err := newProf.Verify(); err != nil {
			return err
		}

		store, err := prof.LoadProfileStore(cf.ProfileStore)
		if errors.Is(err, prof.ErrProfileStoreNotFound) {
			store = prof.ProfileStore{}
		} else if err != nil {
			return fmt.Errorf("failed to load profile store (%s): %w", cf.ProfileStore, err)
		}

		store[cf.Profile] = newProf
		if err := store.Save(cf.ProfileStore); err != nil {
			return fmt.Errorf("failed to save profile store (%s): %w", cf.ProfileStore, err)
		}
		logger.Printf("profile %s is saved to %s", cf.Profile, cf.ProfileStore)

		if err := os.WriteFile(profileMarker, []byte(cf.Profile), os.FileMode(0600)); err != nil {
			return fmt.Errorf("failed to write %s: %w", profileMarker, err)
		}
		return nil
	}
}

func readProfile(cl flarc.Commandline[Flag]) (*prof.Profile, error) {
	api := strings.TrimSpace(cl.Flags().Api)
	files := cl.Args()[ARG_PROFILE_FILE]

	switch {
	case api != "" && len(files) != 0:
		return nil, fmt.Errorf("%w: PROFILE_FILE and --api are exclusive", flarc.ErrUsage)
	case api != "":
		return &prof.Profile{ApiRoot: api}, nil
	case len(files) == 0:
		return nil, fmt.Errorf("%w: PROFILE_FILE or --api is required", flarc.ErrUsage)
	}

	content, err := os.ReadFile(files[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read profile file (%s): %w", files[0], err)
	}
	p := new(prof.Profile)
	if err := yaml.Unmarshal(content, p); err != nil {
		return nil, fmt.Errorf("failed to parse profile file (%s): %w", files[0], err)
	}
	return p, nil
}
