package prompt_test

import (
	"strings"
	"testing"

	"github.com/opst/mlstudio/cmd/mlstudio/subcommands/internal/prompt"
)

func TestConfirm(t *testing.T) {
	out := new(strings.Builder)
	p := prompt.New(strings.NewReader("y\nno\nYES\n\nmaybe"), out)

	expected := []bool{true, false, true, false, false, false}
	for n, e := range expected {
		if actual := p.Confirm("retry?"); actual != e {
			t.Errorf("answer #%d: expected %v, but %v", n, e, actual)
		}
	}
	if !strings.HasPrefix(out.String(), "retry? [y/N]: retry? [y/N]: ") {
		t.Errorf("unexpected prompt: %q", out.String())
	}
}
