package featureflag

import "testing"

func TestEnabledFallsBackToDefaultOnAbsentOrInvalid(t *testing.T) {
	t.Setenv(string(StrictOfflineCache), "")
	if Enabled(StrictOfflineCache) != defaults[StrictOfflineCache] {
		t.Errorf("Enabled() with absent env = %v, want default %v", Enabled(StrictOfflineCache), defaults[StrictOfflineCache])
	}

	t.Setenv(string(StrictOfflineCache), "nonsense")
	if Enabled(StrictOfflineCache) != defaults[StrictOfflineCache] {
		t.Errorf("Enabled() with invalid env = %v, want default", Enabled(StrictOfflineCache))
	}
}

func TestEnabledHonorsExplicitOverride(t *testing.T) {
	WithOverride(StrictOfflineCache, true, func() {
		if !Enabled(StrictOfflineCache) {
			t.Error("Enabled() = false inside WithOverride(true)")
		}
	})
	WithOverride(StrictOfflineCache, false, func() {
		if Enabled(StrictOfflineCache) {
			t.Error("Enabled() = true inside WithOverride(false)")
		}
	})
}
