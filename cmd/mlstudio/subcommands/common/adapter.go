package common

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/opst/mlstudio/cmd/mlstudio/config/profiles"
	"github.com/opst/mlstudio/cmd/mlstudio/env"
	cerr "github.com/opst/mlstudio/cmd/mlstudio/errors"
	"github.com/opst/mlstudio/cmd/mlstudio/rest"
	"github.com/opst/mlstudio/cmd/mlstudio/subcommands/logger"
	"github.com/youta-t/flarc"
)

type TaskWithCommonFlag[T any] func(
	ctx context.Context,
	logger *log.Logger,
	commonFlag CommonFlags,
	cl flarc.Commandline[T],
	params []any,
) error

func NewTaskWithCommonFlag[T any](task TaskWithCommonFlag[T]) flarc.Task[T] {
	return func(ctx context.Context, cl flarc.Commandline[T], pos []any) error {
		var commonFlag CommonFlags
		found := false
		newpos := make([]any, 0, len(pos))
		for _, p := range pos {
			switch v := p.(type) {
			case CommonFlags:
				found = true
				commonFlag = v
			default:
				newpos = append(newpos, p)
			}
		}
		if !found {
			return errors.New("programming error: common flags not found")
		}

		return task(
			ctx,
			logger.For(cl.Stderr(), cl.Fullname()),
			commonFlag,
			cl,
			newpos,
		)
	}
}

type Task[T any] func(
	ctx context.Context,
	logger *log.Logger,
	mlEnv env.MLStudioEnv,
	client rest.MLStudioClient,
	cl flarc.Commandline[T],
	params []any,
) error

// NewTask resolves the server and the env for the task.
//
// The server is the profile selected by common flags. When the profile store
// or the profile is missing, MLSTUDIO_API_BASE_URL (or its default) is used.
func NewTask[T any](task Task[T]) flarc.Task[T] {
	return NewTaskWithCommonFlag(func(
		ctx context.Context,
		logger *log.Logger,
		commonFlag CommonFlags,
		cl flarc.Commandline[T],
		params []any,
	) error {
		prof, err := resolveProfile(logger, commonFlag)
		if err != nil {
			return err
		}

		e, err := env.LoadMLStudioEnv(commonFlag.Env)
		if err != nil {
			return cerr.New(
				"failed to load mlstudioenv",
				cerr.WithDetail(commonFlag.Env),
				cerr.WithCause(err),
			)
		}

		client, err := rest.NewClient(prof)
		if err != nil {
			return cerr.New(
				"failed to create mlstudio client",
				cerr.WithDetail(fmt.Sprintf("profile: %s in %s", commonFlag.Profile, commonFlag.ProfileStore)),
				cerr.WithHint("Your profile can be broken. Remove it and try `mlstudio init` again."),
				cerr.WithCause(err),
			)
		}
		return task(ctx, logger, *e, client, cl, params)
	})
}

func resolveProfile(logger *log.Logger, commonFlag CommonFlags) (*profiles.Profile, error) {
	fallback := func() *profiles.Profile {
		return &profiles.Profile{ApiRoot: env.ApiBaseUrl(commonFlag.DotEnv)}
	}

	store, err := profiles.LoadProfileStore(commonFlag.ProfileStore)
	if errors.Is(err, profiles.ErrProfileStoreNotFound) {
		return fallback(), nil
	} else if err != nil {
		return nil, cerr.New(
			"failed to load profile store",
			cerr.WithDetail(commonFlag.ProfileStore),
			cerr.WithCause(err),
		)
	}

	prof, ok := store[commonFlag.Profile]
	if !ok || prof == nil {
		p := fallback()
		logger.Printf(
			"profile '%s' is not found in %s. using %s",
			commonFlag.Profile, commonFlag.ProfileStore, p.ApiRoot,
		)
		return p, nil
	}
	return prof, nil
}
