package align

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v2"
)

/* A Record of the shifts applied in a run, so an operator can see (or
   diff) what happened to each image. Written out as YAML:

reference: {x: 258.31, y: 259.87}
shifts:
  img_00001.tif: {rows: 0, cols: -1}
  img_00002.tif: {rows: 1, cols: -1}

*/

type Record struct {
	Reference Point            `yaml:"reference"`
	Shifts    map[string]Shift `yaml:"shifts"`
}

func NewRecord(ref Point) Record {
	return Record{
		Reference: ref,
		Shifts:    map[string]Shift{},
	}
}

func (r Record) Add(filename string, s Shift) { r.Shifts[filepath.Base(filename)] = s }

func (r Record) AsYaml() (string, error) {
	b, err := yaml.Marshal(r)
	if err != nil {
		return "", fmt.Errorf("marshal shift record: %v", err)
	}
	return string(b), nil
}

func (r Record) WriteYaml(filename string) error {
	str, err := r.AsYaml()
	if err != nil {
		return err
	}
	if err := os.WriteFile(filename, []byte(str), 0644); err != nil {
		return fmt.Errorf("write '%s': %v", filename, err)
	}
	return nil
}

func LoadRecord(filename string) (Record, error) {
	r := NewRecord(Point{})

	if contents, err := os.ReadFile(filename); err != nil {
		return r, fmt.Errorf("read '%s': %v", filename, err)
	} else if err := yaml.Unmarshal(contents, &r); err != nil {
		return r, fmt.Errorf("parse '%s': %v", filename, err)
	}

	return r, nil
}
