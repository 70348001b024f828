package codegen

import (
	"fmt"
	"go/ast"
	"go/token"
	"regexp"
	"strings"
)

// Directive prefixes recognized in doc comments.
const (
	directivePrefix   = "opz:"
	dispatchDirective = "opz:dispatch"
	handlerDirective  = "opz:handler"
)

var (
	identRx = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)
	// Handler tokens are spliced verbatim into the generated call, so they
	// must name a function resolvable in the package scope: a plain
	// identifier or a single-dot method expression.
	handlerRx = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)?$`)
)

// directive is one parsed opz: comment line.
type directive struct {
	kind string // dispatchDirective or handlerDirective
	args []string
	pos  token.Position
}

// pendingVariant is a handler-annotated struct awaiting assignment to a
// dispatch set.
type pendingVariant struct {
	variant Variant
	target  string // for= qualifier, empty when the package's single dispatch applies
	pos     token.Position
}

// markerImpl is a hand-written method whose name matches a dispatch marker.
type markerImpl struct {
	receiver string
	method   string
	pos      token.Position
}

// Scan extracts every dispatch set declared in the given files. Files
// carrying a standard generated-code header are ignored, so re-running the
// generator over its own output is safe.
//
// Scan validates the declarations the way the runtime cannot: directives on
// the wrong kind of type, missing or ambiguous handler annotations, and
// unsupported payload shapes are reported with source positions. Handler
// signatures themselves are left to the compiler.
func Scan(fset *token.FileSet, files []*ast.File) ([]Dispatch, error) {
	var (
		dispatches []*Dispatch
		byName     = map[string]*Dispatch{}
		pending    []pendingVariant
		impls      []markerImpl
		annotated  = map[string]bool{} // struct types carrying opz:handler
	)

	for _, file := range files {
		if ast.IsGenerated(file) {
			continue
		}

		for _, decl := range file.Decls {
			switch decl := decl.(type) {
			case *ast.FuncDecl:
				if decl.Recv == nil || len(decl.Recv.List) == 0 {
					continue
				}
				impls = append(impls, markerImpl{
					receiver: receiverTypeName(decl.Recv.List[0].Type),
					method:   decl.Name.Name,
					pos:      fset.Position(decl.Pos()),
				})

			case *ast.GenDecl:
				if decl.Tok != token.TYPE {
					continue
				}
				for _, spec := range decl.Specs {
					typeSpec, ok := spec.(*ast.TypeSpec)
					if !ok {
						continue
					}

					dir, err := findDirective(fset, typeSpec.Doc, decl.Doc, len(decl.Specs) == 1)
					if err != nil {
						return nil, err
					}
					if dir == nil {
						continue
					}

					switch dir.kind {
					case dispatchDirective:
						d, err := parseDispatch(typeSpec, dir)
						if err != nil {
							return nil, err
						}
						if _, exists := byName[d.TypeName]; exists {
							return nil, fmt.Errorf("%s: duplicate dispatch declaration for %s", dir.pos, d.TypeName)
						}
						dispatches = append(dispatches, d)
						byName[d.TypeName] = d

					case handlerDirective:
						v, err := parseHandler(typeSpec, dir)
						if err != nil {
							return nil, err
						}
						pending = append(pending, v)
						annotated[v.variant.TypeName] = true
					}
				}
			}
		}
	}

	// Assign variants to their dispatch sets in declaration order.
	for _, pv := range pending {
		var d *Dispatch
		switch {
		case pv.target != "":
			d = byName[pv.target]
			if d == nil {
				return nil, fmt.Errorf("%s: variant %s names unknown dispatch type %s",
					pv.pos, pv.variant.TypeName, pv.target)
			}
		case len(dispatches) == 1:
			d = dispatches[0]
		case len(dispatches) == 0:
			return nil, fmt.Errorf("%s: variant %s declared without any //%s type in the package",
				pv.pos, pv.variant.TypeName, dispatchDirective)
		default:
			return nil, fmt.Errorf("%s: variant %s is ambiguous: package declares %d dispatch types, add for=<type>",
				pv.pos, pv.variant.TypeName, len(dispatches))
		}
		d.Variants = append(d.Variants, pv.variant)
	}

	// A hand-written type that claims membership via the marker method but
	// carries no handler directive would silently miss dispatch generation.
	// Mirror the behavior of a missing annotation: fail loudly.
	for _, impl := range impls {
		for _, d := range dispatches {
			if impl.method == d.Marker && impl.receiver != "" && !annotated[impl.receiver] {
				return nil, fmt.Errorf("%s: %s implements %s.%s but has no //%s directive",
					impl.pos, impl.receiver, d.TypeName, d.Marker, handlerDirective)
			}
		}
	}

	result := make([]Dispatch, len(dispatches))
	for i, d := range dispatches {
		result[i] = *d
	}
	return result, nil
}

// findDirective returns the single opz: directive attached to a type
// declaration, looking at the spec's own doc first and the enclosing decl's
// doc when the spec is the decl's only member.
func findDirective(fset *token.FileSet, specDoc, declDoc *ast.CommentGroup, singleSpec bool) (*directive, error) {
	docs := []*ast.CommentGroup{specDoc}
	if singleSpec {
		docs = append(docs, declDoc)
	}

	var found *directive
	for _, doc := range docs {
		if doc == nil {
			continue
		}
		for _, comment := range doc.List {
			line := strings.TrimPrefix(comment.Text, "//")
			if !strings.HasPrefix(line, directivePrefix) {
				continue
			}
			pos := fset.Position(comment.Pos())

			fields := strings.Fields(line)
			kind := fields[0]
			if kind != dispatchDirective && kind != handlerDirective {
				return nil, fmt.Errorf("%s: unknown directive //%s", pos, kind)
			}
			if found != nil {
				return nil, fmt.Errorf("%s: multiple opz directives on one declaration", pos)
			}
			found = &directive{kind: kind, args: fields[1:], pos: pos}
		}
	}
	return found, nil
}

// parseDispatch validates a dispatch-annotated type and extracts its model.
func parseDispatch(spec *ast.TypeSpec, dir *directive) (*Dispatch, error) {
	iface, ok := spec.Type.(*ast.InterfaceType)
	if !ok {
		return nil, fmt.Errorf("%s: //%s requires an interface type, %s is not one",
			dir.pos, dispatchDirective, spec.Name.Name)
	}

	marker, err := markerMethod(spec.Name.Name, iface, dir.pos)
	if err != nil {
		return nil, err
	}

	d := &Dispatch{
		TypeName: spec.Name.Name,
		Marker:   marker,
		Flavor:   FlavorExecute,
	}

	for _, arg := range dir.args {
		key, value, ok := strings.Cut(arg, "=")
		if !ok {
			return nil, fmt.Errorf("%s: malformed %s argument %q, want key=value", dir.pos, dispatchDirective, arg)
		}
		if !identRx.MatchString(value) {
			return nil, fmt.Errorf("%s: context type %q must be a plain identifier declared in this package", dir.pos, value)
		}
		switch key {
		case "with":
			if d.Flavor != FlavorExecute {
				return nil, fmt.Errorf("%s: only one with= or mut= argument is allowed", dir.pos)
			}
			d.Flavor = FlavorWith
			d.Arg = value
		case "mut":
			if d.Flavor != FlavorExecute {
				return nil, fmt.Errorf("%s: only one with= or mut= argument is allowed", dir.pos)
			}
			d.Flavor = FlavorMut
			d.Arg = value
		default:
			return nil, fmt.Errorf("%s: unknown %s argument %q", dir.pos, dispatchDirective, key)
		}
	}

	return d, nil
}

// markerMethod validates the sealed-interface shape: exactly one unexported
// method with no parameters and no results.
func markerMethod(typeName string, iface *ast.InterfaceType, pos token.Position) (string, error) {
	if iface.Methods == nil || len(iface.Methods.List) != 1 {
		return "", fmt.Errorf("%s: dispatch interface %s must declare exactly one marker method", pos, typeName)
	}

	method := iface.Methods.List[0]
	funcType, ok := method.Type.(*ast.FuncType)
	if !ok || len(method.Names) != 1 {
		return "", fmt.Errorf("%s: dispatch interface %s must not embed other interfaces", pos, typeName)
	}

	name := method.Names[0].Name
	if ast.IsExported(name) {
		return "", fmt.Errorf("%s: marker method %s.%s must be unexported to seal the variant set", pos, typeName, name)
	}
	if (funcType.Params != nil && len(funcType.Params.List) > 0) ||
		(funcType.Results != nil && len(funcType.Results.List) > 0) {
		return "", fmt.Errorf("%s: marker method %s.%s must take no arguments and return nothing", pos, typeName, name)
	}

	return name, nil
}

// parseHandler validates a handler-annotated struct and extracts its
// variant model: the handler token and payload field names in declaration
// order.
func parseHandler(spec *ast.TypeSpec, dir *directive) (pendingVariant, error) {
	var pv pendingVariant

	structType, ok := spec.Type.(*ast.StructType)
	if !ok {
		return pv, fmt.Errorf("%s: //%s requires a struct type, %s is not one",
			dir.pos, handlerDirective, spec.Name.Name)
	}
	if spec.TypeParams != nil {
		return pv, fmt.Errorf("%s: variant %s must not be generic", dir.pos, spec.Name.Name)
	}

	if len(dir.args) == 0 {
		return pv, fmt.Errorf("%s: //%s on %s is missing the handler name", dir.pos, handlerDirective, spec.Name.Name)
	}
	handler := dir.args[0]
	if !handlerRx.MatchString(handler) {
		return pv, fmt.Errorf("%s: handler %q is not a function name", dir.pos, handler)
	}

	var target string
	for _, arg := range dir.args[1:] {
		key, value, ok := strings.Cut(arg, "=")
		if !ok || key != "for" {
			return pv, fmt.Errorf("%s: unknown %s argument %q", dir.pos, handlerDirective, arg)
		}
		target = value
	}

	var fields []string
	if structType.Fields != nil {
		for _, field := range structType.Fields.List {
			if len(field.Names) == 0 {
				return pv, fmt.Errorf("%s: variant %s must not embed fields", dir.pos, spec.Name.Name)
			}
			for _, name := range field.Names {
				fields = append(fields, name.Name)
			}
		}
	}

	pv = pendingVariant{
		variant: Variant{
			TypeName: spec.Name.Name,
			Handler:  handler,
			Fields:   fields,
		},
		target: target,
		pos:    dir.pos,
	}
	return pv, nil
}

// receiverTypeName unwraps a method receiver expression to its base type
// name. Pointer and generic receivers are unwrapped; anything else yields
// the empty string.
func receiverTypeName(expr ast.Expr) string {
	switch expr := expr.(type) {
	case *ast.Ident:
		return expr.Name
	case *ast.StarExpr:
		return receiverTypeName(expr.X)
	case *ast.IndexExpr:
		return receiverTypeName(expr.X)
	case *ast.IndexListExpr:
		return receiverTypeName(expr.X)
	}
	return ""
}
