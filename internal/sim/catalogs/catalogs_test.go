package catalogs

import "testing"

func TestLoad_ShippedConfigs(t *testing.T) {
	c, err := Load("../../../configs")
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if len(c.Resources.Palette) != 4 {
		t.Fatalf("resource palette size = %d, want 4", len(c.Resources.Palette))
	}
	if c.Resources.Palette[0] != "FOOD" {
		t.Fatalf("palette[0] = %s, want FOOD", c.Resources.Palette[0])
	}
	if c.Resources.Index["GOLD"] != 3 {
		t.Fatalf("GOLD index = %d, want 3", c.Resources.Index["GOLD"])
	}

	for _, digest := range []string{c.Resources.Digest, c.Buildings.Digest, c.Roles.Digest} {
		if len(digest) != 64 {
			t.Fatalf("digest %q is not sha256 hex", digest)
		}
	}

	farm, ok := c.Buildings.ByID["FARM"]
	if !ok {
		t.Fatalf("FARM missing from building catalog")
	}
	if farm.WorkerSlots != 2 || farm.Rates["FOOD"] <= 0 {
		t.Fatalf("FARM def = %+v", farm)
	}

	tc, ok := c.Buildings.ByID["TOWN_CENTER"]
	if !ok || tc.Aura == nil {
		t.Fatalf("TOWN_CENTER aura missing")
	}
	if tc.Aura.Radius != 50 || tc.Aura.Bonus != 0.05 {
		t.Fatalf("TOWN_CENTER aura = %+v", tc.Aura)
	}

	// Order is sorted for deterministic iteration.
	for i := 1; i < len(c.Buildings.Order); i++ {
		if c.Buildings.Order[i-1] >= c.Buildings.Order[i] {
			t.Fatalf("building order not sorted: %v", c.Buildings.Order)
		}
	}

	farmer, ok := c.Roles.ByID["FARMER"]
	if !ok {
		t.Fatalf("FARMER missing from role catalog")
	}
	if farmer.FoodPerTick != 0.5 || farmer.SkillMultiplier != 1.0 {
		t.Fatalf("FARMER def = %+v", farmer)
	}
}

func TestLoad_MissingDirFails(t *testing.T) {
	if _, err := Load(t.TempDir()); err == nil {
		t.Fatalf("load from empty dir succeeded")
	}
}
