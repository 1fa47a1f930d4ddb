package reader

import (
	"context"
	"log/slog"

	"pydocket/internal/source"
)

// Module reads a whole file: its docstring, then its functions, classes,
// exceptions and attributes in source order.
func (r *Reader) Module(ctx context.Context, f *source.File) (*Symbol, error) {
	res := f.Module()
	sym := &Symbol{Name: f.Name, Kind: KindModule}

	doc, err := docFields(f, f.Root, f.Name)
	if err != nil {
		return nil, err
	}
	sym.Merge(doc)

	for _, def := range f.Definitions(f.Root) {
		switch def.Kind {
		case source.KindFunction:
			fn, err := r.Function(ctx, def)
			if err != nil {
				return nil, err
			}
			sym.Functions = append(sym.Functions, fn)
		case source.KindClass:
			cls, err := r.Class(ctx, def)
			if err != nil {
				return nil, err
			}
			if cls.Kind == KindException {
				sym.Exceptions = append(sym.Exceptions, cls)
			} else {
				sym.Classes = append(sym.Classes, cls)
			}
		}
	}

	attrs, err := scanAttributes(f, f.Root, f.Name)
	if err != nil {
		return nil, err
	}
	sym.Attributes = publicAttributes(attrs)

	r.logger.Debug("read module",
		slog.String("module", res.Name),
		slog.Int("functions", len(sym.Functions)),
		slog.Int("classes", len(sym.Classes)),
		slog.Int("exceptions", len(sym.Exceptions)),
	)
	return sym, nil
}
