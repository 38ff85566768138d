package profiles

import (
	"encoding/base64"
	"encoding/pem"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"

	"github.com/hectane/go-acl"
	"github.com/opst/mlstudio/cmd/mlstudio/config/open"
	yaml "gopkg.in/yaml.v3"
)

var ErrProfileStoreNotFound = errors.New("profile store is not found")
var ErrCannotCreateConfig = errors.New("cannot create config file")
var ErrCannotUpdateConfig = errors.New("cannot update config file")
var ErrProfileInvalid = errors.New("mlstudio profile is invalid")

// ProfileStore is a map from profile name to Profile.
type ProfileStore map[string]*Profile

type Cert struct {
	// base64 encoded CA certificate
	CA string `yaml:"ca,omitempty"`
}

// Profile tells where the ML studio server is.
type Profile struct {
	// base URL of the server, like "http://localhost:8000"
	ApiRoot string `yaml:"apiRoot"`

	Cert Cert `yaml:"cert,omitempty"`
}

func verifyUrl(s string) bool {
	u, err := url.Parse(s)
	return err == nil && u.IsAbs() && (u.Scheme == "http" || u.Scheme == "https")
}

func verifyPEM(b64cert string) bool {
	bin, err := base64.StdEncoding.DecodeString(b64cert)
	if err != nil {
		return false
	}
	blk, _ := pem.Decode(bin)
	return blk != nil
}

// Verify Profile
//
// # Return
//
// nil if it is valid. Otherwise, ErrProfileInvalid error.
func (p *Profile) Verify() error {
	if !verifyUrl(p.ApiRoot) {
		return fmt.Errorf("%w: apiRoot is not http(s) URL: %s", ErrProfileInvalid, p.ApiRoot)
	}
	if p.Cert.CA != "" && !verifyPEM(p.Cert.CA) {
		return fmt.Errorf("%w: cert.ca is not PEM", ErrProfileInvalid)
	}
	return nil
}

// LoadProfileStore loads profile store from file.
func LoadProfileStore(filepath string) (ProfileStore, error) {
	buf, err := os.ReadFile(filepath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w at %s", ErrProfileStoreNotFound, filepath)
		}
		return nil, err
	}
	ret := ProfileStore{}
	if err := yaml.Unmarshal(buf, &ret); err != nil {
		return nil, err
	}
	return ret, nil
}

// Save profile store to file.
//
// The previous content is kept in "<path>.backup" until the new content is written.
func (ps ProfileStore) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), os.FileMode(0700)); err != nil {
		return err
	}

	buf, err := yaml.Marshal(ps)
	if err != nil {
		return err
	}

	bkpath := path + ".backup"
	previous, err := os.ReadFile(path)
	switch {
	case err == nil:
		// existing file may have loose permission.
		if err := acl.Chmod(path, os.FileMode(0600)); err != nil {
			return err
		}
		bk, err := open.NewSafeFile(bkpath)
		if err != nil {
			return err
		}
		_, err = bk.Write(previous)
		bk.Close()
		if err != nil {
			return err
		}
	case os.IsPermission(err):
		return fmt.Errorf(
			"%w, because no permission to read file at %s",
			ErrCannotUpdateConfig, path,
		)
	case os.IsNotExist(err):
		// nothing to back up.
	default:
		return err
	}

	f, err := open.NewSafeFile(path)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrCannotCreateConfig, path, err)
	}
	defer f.Close()

	if _, err := f.Write(buf); err != nil {
		return err
	}
	os.Remove(bkpath)
	return nil
}
