package codegen

import (
	"bytes"
	"fmt"
	"go/format"
	"strings"
	"text/template"
)

// opzImportPath is the runtime package the generated assertions bind to.
const opzImportPath = "github.com/zoobzio/opz"

// Header is the generated-code marker, recognized by ast.IsGenerated and by
// Scan when it skips previous generator output.
const Header = "// Code generated by opzgen. DO NOT EDIT."

var fileTemplate = template.Must(template.New("dispatch").Parse(`{{.Header}}

package {{.Package}}

{{- if .Variants}}

import (
	"context"

	"{{.OpzImport}}"
)
{{- range .Variants}}

func ({{.TypeName}}) {{$.Marker}}() {}

func (v {{.TypeName}}) {{$.Method}}({{$.Params}}) error {
	return {{.Call}}
}
{{- end}}

{{range .Variants -}}
var _ {{$.DispatchType}} = {{.TypeName}}{}
var _ {{$.Assert}} = {{.TypeName}}{}
{{end -}}
{{- end}}
`))

type fileView struct {
	Header       string
	Package      string
	OpzImport    string
	Marker       string
	Method       string
	Params       string
	DispatchType string
	Assert       string
	Variants     []variantView
}

type variantView struct {
	TypeName string
	Call     string
}

// Emit renders the dispatch file for one variant set: the marker method and
// flavor-matching Execute method per variant, plus compile-time assertions
// binding every variant to the sealed interface and the opz capability.
// The output is gofmt-formatted.
//
// Each generated method body is a single handler call threading the
// variant's payload fields in declaration order, then the shared context
// argument:
//
//	func (v Forward) ExecuteWithMut(ctx context.Context, arg *Canvas) error {
//		return applyForward(ctx, v.Dist, arg)
//	}
func Emit(pkgName string, d Dispatch) ([]byte, error) {
	view := fileView{
		Header:       Header,
		Package:      pkgName,
		OpzImport:    opzImportPath,
		Marker:       d.Marker,
		Method:       d.Flavor.Method(),
		DispatchType: d.TypeName,
	}

	switch d.Flavor {
	case FlavorWith:
		view.Params = fmt.Sprintf("ctx context.Context, arg %s", d.Arg)
		view.Assert = fmt.Sprintf("opz.ExecutableWith[%s]", d.Arg)
	case FlavorMut:
		view.Params = fmt.Sprintf("ctx context.Context, arg *%s", d.Arg)
		view.Assert = fmt.Sprintf("opz.ExecutableWithMut[%s]", d.Arg)
	default:
		view.Params = "ctx context.Context"
		view.Assert = "opz.Executable"
	}

	for _, v := range d.Variants {
		view.Variants = append(view.Variants, variantView{
			TypeName: v.TypeName,
			Call:     callExpr(v, d.Flavor),
		})
	}

	var buf bytes.Buffer
	if err := fileTemplate.Execute(&buf, view); err != nil {
		return nil, fmt.Errorf("render dispatch for %s: %w", d.TypeName, err)
	}

	src, err := format.Source(buf.Bytes())
	if err != nil {
		// A formatting failure means the template produced invalid Go,
		// almost always from a handler token that is not a function name.
		return nil, fmt.Errorf("format dispatch for %s: %w\n%s", d.TypeName, err, buf.Bytes())
	}
	return src, nil
}

// callExpr builds the handler invocation for one variant: context first,
// payload fields in declaration order, shared argument last.
func callExpr(v Variant, flavor Flavor) string {
	args := make([]string, 0, len(v.Fields)+2)
	args = append(args, "ctx")
	for _, field := range v.Fields {
		args = append(args, "v."+field)
	}
	if flavor != FlavorExecute {
		args = append(args, "arg")
	}
	return fmt.Sprintf("%s(%s)", v.Handler, strings.Join(args, ", "))
}
