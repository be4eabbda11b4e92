package catalogs

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

type Catalogs struct {
	Resources ResourceCatalog
	Buildings BuildingCatalog
	Roles     RoleCatalog
}

type ResourceCatalog struct {
	Palette []string
	Index   map[string]uint16
	Digest  string
}

type BuildingCatalog struct {
	ByID   map[string]BuildingDef
	Order  []string
	Digest string
}

type BuildingDef struct {
	ID          string             `json:"id"`
	Rates       map[string]float64 `json:"rates,omitempty"` // resource -> units per tick
	WorkerSlots int                `json:"worker_slots,omitempty"`
	Passive     bool               `json:"passive,omitempty"`
	Housing     int                `json:"housing,omitempty"`
	Aura        *AuraDef           `json:"aura,omitempty"`
}

// AuraDef is a distance-gated production bonus radiating from buildings
// of this type. Radius boundary is inclusive; bonus is a fraction
// (0.05 = +5%).
type AuraDef struct {
	Radius float64 `json:"radius"`
	Bonus  float64 `json:"bonus"`
}

type RoleCatalog struct {
	ByID   map[string]RoleDef
	Order  []string
	Digest string
}

type RoleDef struct {
	ID              string  `json:"id"`
	FoodPerTick     float64 `json:"food_per_tick"`
	SkillMultiplier float64 `json:"skill_multiplier"`
}

func Load(configDir string) (*Catalogs, error) {
	var c Catalogs

	if err := loadResources(filepath.Join(configDir, "resources.json"), &c.Resources); err != nil {
		return nil, err
	}
	if err := loadBuildings(filepath.Join(configDir, "buildings.json"), &c.Buildings); err != nil {
		return nil, err
	}
	if err := loadRoles(filepath.Join(configDir, "roles.json"), &c.Roles); err != nil {
		return nil, err
	}

	return &c, nil
}

func sha256Hex(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

func loadResources(path string, out *ResourceCatalog) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	var names []string
	if err := json.Unmarshal(raw, &names); err != nil {
		return fmt.Errorf("resources.json: %w", err)
	}
	if len(names) == 0 {
		return fmt.Errorf("resources.json: empty palette")
	}

	out.Index = make(map[string]uint16, len(names))
	for i, name := range names {
		if name == "" {
			return fmt.Errorf("resources.json: empty resource name")
		}
		if _, dup := out.Index[name]; dup {
			return fmt.Errorf("resources.json: duplicate resource %q", name)
		}
		out.Index[name] = uint16(i)
	}
	out.Palette = names
	out.Digest = sha256Hex(raw)
	return nil
}

func loadBuildings(path string, out *BuildingCatalog) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	out.Digest = sha256Hex(raw)

	var defs []BuildingDef
	if err := json.Unmarshal(raw, &defs); err != nil {
		return fmt.Errorf("buildings.json: %w", err)
	}
	out.ByID = map[string]BuildingDef{}
	for _, d := range defs {
		if d.ID == "" {
			return fmt.Errorf("buildings.json: empty id")
		}
		if _, dup := out.ByID[d.ID]; dup {
			return fmt.Errorf("buildings.json: duplicate id %q", d.ID)
		}
		out.ByID[d.ID] = d
	}

	ids := make([]string, 0, len(out.ByID))
	for id := range out.ByID {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	out.Order = ids
	return nil
}

func loadRoles(path string, out *RoleCatalog) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	out.Digest = sha256Hex(raw)

	var defs []RoleDef
	if err := json.Unmarshal(raw, &defs); err != nil {
		return fmt.Errorf("roles.json: %w", err)
	}
	out.ByID = map[string]RoleDef{}
	for _, d := range defs {
		if d.ID == "" {
			return fmt.Errorf("roles.json: empty id")
		}
		if _, dup := out.ByID[d.ID]; dup {
			return fmt.Errorf("roles.json: duplicate id %q", d.ID)
		}
		out.ByID[d.ID] = d
	}

	ids := make([]string, 0, len(out.ByID))
	for id := range out.ByID {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	out.Order = ids
	return nil
}
