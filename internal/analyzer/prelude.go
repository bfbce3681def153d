package analyzer

import (
	"github.com/funvibe/vellum/internal/ast"
	"github.com/funvibe/vellum/internal/config"
	"github.com/funvibe/vellum/internal/symbols"
	"github.com/funvibe/vellum/internal/typesystem"
)

// PreludeModule is the module name builtin types and values belong to.
const PreludeModule = ""

// Prelude builds the builtin types and values every module starts with.
// Generics get ids from ids so they never clash with a module's own.
func Prelude(ids *typesystem.IDGen) *symbols.TypeInfo {
	info := symbols.NewTypeInfo(PreludeModule, "", ast.Lib)

	simple := []struct {
		name string
		t    typesystem.Type
	}{
		{config.IntTypeName, typesystem.Int()},
		{config.ByteArrayTypeName, typesystem.ByteArray()},
		{config.StringTypeName, typesystem.String()},
		{config.BoolTypeName, typesystem.Bool()},
		{config.VoidTypeName, typesystem.Void()},
		{config.DataTypeName, typesystem.Data()},
		{config.PRNGTypeName, typesystem.PRNG()},
		{config.OrderingTypeName, typesystem.Ordering()},
		{config.MillerLoopResultTypeName, typesystem.MillerLoopResult()},
		{config.G1ElementTypeName, typesystem.G1Element()},
		{config.G2ElementTypeName, typesystem.G2Element()},
	}
	for _, s := range simple {
		info.Types[s.name] = &symbols.TypeConstructor{Public: true, Module: PreludeModule, Type: s.t}
	}

	generic := func(name string, build func(typesystem.Type) typesystem.Type) typesystem.Type {
		g := &typesystem.Generic{ID: ids.Next()}
		info.Types[name] = &symbols.TypeConstructor{
			Public:     true,
			Module:     PreludeModule,
			Parameters: []typesystem.Type{g},
			Type:       build(g),
		}
		return g
	}
	generic(config.ListTypeName, typesystem.List)
	generic(config.FuzzerTypeName, typesystem.Fuzzer)
	generic(config.SamplerTypeName, typesystem.Sampler)
	optionParam := generic(config.OptionTypeName, typesystem.Option)

	record := func(name string, arity, count int, t typesystem.Type) {
		info.Values[name] = &symbols.ValueConstructor{
			Public: true,
			Variant: symbols.Record{
				Module:            PreludeModule,
				Name:              name,
				Arity:             arity,
				ConstructorsCount: count,
			},
			Type: t,
		}
	}

	record(config.TrueCtorName, 0, 2, typesystem.Bool())
	record(config.FalseCtorName, 0, 2, typesystem.Bool())
	info.TypesConstructors[config.BoolTypeName] = []string{config.FalseCtorName, config.TrueCtorName}

	record(config.SomeCtorName, 1, 2, typesystem.Function([]typesystem.Type{optionParam}, typesystem.Option(optionParam)))
	record(config.NoneCtorName, 0, 2, typesystem.Option(optionParam))
	info.TypesConstructors[config.OptionTypeName] = []string{config.SomeCtorName, config.NoneCtorName}

	record(config.VoidCtorName, 0, 1, typesystem.Void())
	info.TypesConstructors[config.VoidTypeName] = []string{config.VoidCtorName}

	for _, name := range []string{config.LessCtorName, config.EqualCtorName, config.GreatCtorName} {
		record(name, 0, 3, typesystem.Ordering())
	}
	info.TypesConstructors[config.OrderingTypeName] = []string{config.LessCtorName, config.EqualCtorName, config.GreatCtorName}

	return info
}
