package common

import (
	"os"
	"path"
	"path/filepath"
	"strings"
)

const (
	// ProfileFile names the profile to be used in the directory and its descendants.
	ProfileFile = ".mlstudioprofile"

	// EnvFile holds defaults for commands in the directory and its descendants.
	EnvFile = "mlstudioenv"

	DotEnvFile = ".env"
)

type CommonFlags struct {
	Profile      string `flag:"profile" help:"mlstudio profile name to use"`
	ProfileStore string `flag:"profile-store" help:"path to mlstudio profile store file"`
	Env          string `flag:"env" help:"path to mlstudioenv file"`
	DotEnv       string `flag:"dotenv" help:"path to .env file which may set MLSTUDIO_API_BASE_URL"`
}

type commonFlagDetection struct {
	home string
}

type CommonFlagDetectionOption func(*commonFlagDetection) *commonFlagDetection

func WithHome(home string) CommonFlagDetectionOption {
	return func(opt *commonFlagDetection) *commonFlagDetection {
		opt.home = home
		return opt
	}
}

// Flags detects default values of CommonFlags for commands run at the directory.
//
// .mlstudioprofile and mlstudioenv are searched from the directory toward the root.
// The nearest ones win.
func Flags(from string, opt ...CommonFlagDetectionOption) (CommonFlags, error) {
	detparam := commonFlagDetection{}
	for _, o := range opt {
		detparam = *o(&detparam)
	}

	home := detparam.home
	if home == "" {
		if _home, err := os.UserHomeDir(); err == nil {
			home = _home
		}
	}

	if _from, err := filepath.Abs(from); err == nil {
		from = _from
	}

	profile := from
	env := path.Join(from, EnvFile)

	profileFound := false
	envFound := false
	for searchpath := from; ; {
		if !profileFound {
			candidate := path.Join(searchpath, ProfileFile)
			if s, err := os.Stat(candidate); err == nil && s.Mode().IsRegular() {
				content, err := os.ReadFile(candidate)
				if err != nil {
					return CommonFlags{}, err
				}
				profileFound = true
				first, _, _ := strings.Cut(string(content), "\n")
				profile = strings.TrimSpace(first)
			}
		}
		if !envFound {
			candidate := path.Join(searchpath, EnvFile)
			if s, err := os.Stat(candidate); err == nil && s.Mode().IsRegular() {
				envFound = true
				env = candidate
			}
		}

		if profileFound && envFound {
			break
		}

		next := path.Dir(searchpath)
		if next == searchpath {
			break
		}
		searchpath = next
	}

	return CommonFlags{
		Profile:      profile,
		ProfileStore: path.Join(home, ".mlstudio", "profile"),
		Env:          env,
		DotEnv:       path.Join(from, DotEnvFile),
	}, nil
}
