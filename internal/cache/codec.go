package cache

import (
	"bytes"
	"encoding/gob"

	"github.com/pkg/errors"

	"github.com/funvibe/vellum/internal/symbols"
	"github.com/funvibe/vellum/internal/typesystem"
)

func init() {
	gob.Register(&typesystem.App{})
	gob.Register(&typesystem.Fn{})
	gob.Register(&typesystem.Tuple{})
	gob.Register(&typesystem.Pair{})
	gob.Register(&typesystem.Var{})
	gob.Register(&typesystem.Generic{})

	gob.Register(symbols.LocalVariable{})
	gob.Register(symbols.ModuleConstant{})
	gob.Register(symbols.ModuleFn{})
	gob.Register(symbols.Record{})
}

// Encode serialises a module interface.
func Encode(info *symbols.TypeInfo) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(info); err != nil {
		return nil, errors.Wrapf(err, "encoding interface of %s", info.Name)
	}
	return buf.Bytes(), nil
}

// Decode is the inverse of Encode. Maps that were empty come back empty,
// not nil.
func Decode(payload []byte) (*symbols.TypeInfo, error) {
	var info symbols.TypeInfo
	if err := gob.NewDecoder(bytes.NewReader(payload)).Decode(&info); err != nil {
		return nil, errors.Wrap(err, "decoding interface")
	}
	if info.Types == nil {
		info.Types = make(map[string]*symbols.TypeConstructor)
	}
	if info.TypesConstructors == nil {
		info.TypesConstructors = make(map[string][]string)
	}
	if info.Values == nil {
		info.Values = make(map[string]*symbols.ValueConstructor)
	}
	if info.Accessors == nil {
		info.Accessors = make(map[string]*symbols.AccessorsMap)
	}
	return &info, nil
}
