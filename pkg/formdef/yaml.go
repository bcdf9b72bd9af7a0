package formdef

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-formblocks/pkg/model"
)

// LoadYAML decodes a form definition. JSON documents are valid YAML and load
// the same way.
func LoadYAML(r io.Reader) (model.FormModel, error) {
	var form model.FormModel
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&form); err != nil {
		if errors.Is(err, io.EOF) {
			return model.FormModel{}, fmt.Errorf("formdef: empty definition")
		}
		return model.FormModel{}, fmt.Errorf("formdef: decode: %w", err)
	}
	if err := Normalize(&form); err != nil {
		return model.FormModel{}, err
	}
	return form, nil
}

// LoadFile reads a definition from disk.
func LoadFile(path string) (model.FormModel, error) {
	f, err := os.Open(path)
	if err != nil {
		return model.FormModel{}, fmt.Errorf("formdef: open %s: %w", path, err)
	}
	defer f.Close()
	return LoadYAML(f)
}

// LoadFS reads a definition from fsys.
func LoadFS(fsys fs.FS, name string) (model.FormModel, error) {
	f, err := fsys.Open(name)
	if err != nil {
		return model.FormModel{}, fmt.Errorf("formdef: open %s: %w", name, err)
	}
	defer f.Close()
	return LoadYAML(f)
}
