package epmctx

import (
	"bytes"
	"testing"

	"github.com/elm-tooling/epm/internal/epmlog"
)

func TestNewResolvesElmHomeFromEnv(t *testing.T) {
	t.Setenv("ELM_HOME", "/tmp/custom-elm-home")
	log := epmlog.New(&bytes.Buffer{}, &bytes.Buffer{}, false)
	ctx, err := New(log, false, false)
	if err != nil {
		t.Fatalf("New: %s", err)
	}
	if ctx.ElmHome != "/tmp/custom-elm-home" {
		t.Errorf("ElmHome = %q, want /tmp/custom-elm-home", ctx.ElmHome)
	}
}

func TestConfirmDefaultsYesOnEmptyAnswer(t *testing.T) {
	if !Confirm(false, "") {
		t.Error("Confirm(false, \"\") = false, want true (default yes)")
	}
	if Confirm(false, "n") {
		t.Error("Confirm(false, \"n\") = true, want false")
	}
	if !Confirm(true, "n") {
		t.Error("Confirm(true, \"n\") = false, want true (--yes skips prompting)")
	}
}
