package wfc

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// catalogModuleJSON is the on-disk shape of one module definition,
// grounded on the teacher's json-tagged response structs
// (internal/tablebase/lichess.go's lichessResponse).
type catalogModuleJSON struct {
	Name              string                `json:"name"`
	Probability       float64               `json:"probability"`
	PossibleNeighbors [][]int               `json:"possible_neighbors"`
	Faces             [NumDirections]string `json:"faces"`
}

type catalogFileJSON struct {
	Modules []catalogModuleJSON `json:"modules"`
}

// LoadCatalog parses the JSON module list r holds and builds a Catalog,
// per the schema `{"modules": [{"name", "probability",
// "possible_neighbors": [[int,...] x6], "faces": [string x6]}]}`.
func LoadCatalog(r io.Reader) (*Catalog, error) {
	var raw catalogFileJSON
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode catalog json: %w", err)
	}

	defs := make([]ModuleDef, len(raw.Modules))
	for i, m := range raw.Modules {
		if len(m.PossibleNeighbors) != int(NumDirections) {
			return nil, fmt.Errorf("module %q: possible_neighbors needs %d direction lists, got %d",
				m.Name, NumDirections, len(m.PossibleNeighbors))
		}
		defs[i].Name = m.Name
		defs[i].Probability = m.Probability
		defs[i].Faces = m.Faces
		for d := 0; d < int(NumDirections); d++ {
			defs[i].PossibleNeighbors[d] = m.PossibleNeighbors[d]
		}
	}

	return NewCatalog(defs)
}

// LoadCatalogFile opens and parses a catalog JSON file at path.
func LoadCatalogFile(path string) (*Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open catalog file %s: %w", path, err)
	}
	defer f.Close()
	return LoadCatalog(f)
}

// boundaryConstraintJSON is the on-disk shape of one
// apply_boundary_constraints entry.
type boundaryConstraintJSON struct {
	Position  [3]int `json:"position"`
	Direction int    `json:"direction"`
	Connector string `json:"connector"`
	Mode      string `json:"mode"`
}

// LoadBoundaryConstraints parses a JSON array of
// `{"position":[x,y,z],"direction":int,"connector":string,
// "mode":"enforce"|"exclude"}` entries.
func LoadBoundaryConstraints(r io.Reader) ([]BoundaryConstraint, error) {
	var raw []boundaryConstraintJSON
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode boundary constraints json: %w", err)
	}

	out := make([]BoundaryConstraint, len(raw))
	for i, bc := range raw {
		var mode ConstraintMode
		switch bc.Mode {
		case "enforce":
			mode = ConstraintEnforce
		case "exclude":
			mode = ConstraintExclude
		default:
			return nil, fmt.Errorf("boundary constraint %d: unknown mode %q", i, bc.Mode)
		}
		if bc.Direction < 0 || bc.Direction >= int(NumDirections) {
			return nil, fmt.Errorf("boundary constraint %d: direction %d out of range", i, bc.Direction)
		}
		out[i] = BoundaryConstraint{
			Position:  Position{X: bc.Position[0], Y: bc.Position[1], Z: bc.Position[2]},
			Direction: Direction(bc.Direction),
			Connector: bc.Connector,
			Mode:      mode,
		}
	}
	return out, nil
}

// LoadBoundaryConstraintsFile opens and parses a boundary constraints
// JSON file at path.
func LoadBoundaryConstraintsFile(path string) ([]BoundaryConstraint, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open boundary constraints file %s: %w", path, err)
	}
	defer f.Close()
	return LoadBoundaryConstraints(f)
}
