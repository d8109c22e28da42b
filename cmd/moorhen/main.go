// moorhen - inspection tool for compiled verb programs
//
// Usage:
//   moorhen -disasm file.bin              # disassemble a compiled program
//   moorhen -decompile file.bin           # reconstruct and dump its syntax tree
//   moorhen -store verbs.db -list         # list stored verbs
//   moorhen -store verbs.db -cat 2:greet  # disassemble a stored verb
//
// Without -store, the verb database comes from the nearest moorhen.toml.
package main

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/tliron/commonlog"

	"github.com/moorhen-dev/moorhen/manifest"
	"github.com/moorhen-dev/moorhen/pkg/ast"
	"github.com/moorhen-dev/moorhen/pkg/decompile"
	"github.com/moorhen-dev/moorhen/pkg/program"
	"github.com/moorhen-dev/moorhen/pkg/store"
	"github.com/moorhen-dev/moorhen/pkg/value"

	_ "github.com/tliron/commonlog/simple"
)

var log = commonlog.GetLogger("moorhen")

func main() {
	disasmFile := flag.String("disasm", "", "disassemble a compiled program file")
	decompileFile := flag.String("decompile", "", "decompile a compiled program file")
	storePath := flag.String("store", "", "verb store database path")
	list := flag.Bool("list", false, "list verbs in the store")
	cat := flag.String("cat", "", "disassemble a stored verb, as obj:verb")
	verbose := flag.Bool("v", false, "verbose logging")
	flag.Parse()

	m, err := manifest.FindAndLoad(".")
	if err != nil {
		fatal("%v", err)
	}
	verbosity, err := m.Log.Verbosity()
	if err != nil {
		fatal("%v", err)
	}
	if *verbose {
		verbosity = 3
	}
	commonlog.Configure(verbosity, nil)

	switch {
	case *disasmFile != "":
		p := loadProgram(*disasmFile)
		fmt.Print(program.Disassemble(p))

	case *decompileFile != "":
		p := loadProgram(*decompileFile)
		stmts, err := decompile.Program(p)
		if err != nil {
			fatal("%v", err)
		}
		dumpStmts(os.Stdout, stmts, 0)

	case *list || *cat != "":
		path := *storePath
		if path == "" {
			path = m.StorePath()
		}
		log.Debugf("opening verb store %s", path)
		s, err := store.Open(path)
		if err != nil {
			fatal("%v", err)
		}
		defer s.Close()
		if *list {
			listVerbs(s)
		} else {
			catVerb(s, *cat)
		}

	default:
		flag.Usage()
		os.Exit(2)
	}
}

func fatal(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "moorhen: "+format+"\n", args...)
	os.Exit(1)
}

func loadProgram(path string) *program.Program {
	data, err := os.ReadFile(path)
	if err != nil {
		fatal("%v", err)
	}
	p, err := program.Decode(data)
	if err != nil {
		fatal("%v", err)
	}
	return p
}

func listVerbs(s *store.Store) {
	ids, err := s.List()
	if err != nil {
		fatal("%v", err)
	}
	for _, id := range ids {
		fmt.Println(id)
	}
}

func catVerb(s *store.Store, spec string) {
	id, err := parseVerbID(spec)
	if err != nil {
		fatal("%v", err)
	}
	p, err := s.Get(id)
	if err != nil {
		fatal("%v", err)
	}
	fmt.Print(program.Disassemble(p))
}

func parseVerbID(spec string) (store.VerbID, error) {
	objStr, verb, ok := strings.Cut(strings.TrimPrefix(spec, "#"), ":")
	if !ok || verb == "" {
		return store.VerbID{}, fmt.Errorf("bad verb id %q, want obj:verb", spec)
	}
	obj, err := strconv.ParseInt(objStr, 10, 64)
	if err != nil {
		return store.VerbID{}, fmt.Errorf("bad object id in %q: %w", spec, err)
	}
	return store.VerbID{Obj: value.Objid(obj), Verb: verb}, nil
}

// --- syntax tree dump ---

func indent(w *os.File, depth int) {
	fmt.Fprint(w, strings.Repeat("  ", depth))
}

func dumpStmts(w *os.File, stmts []ast.Stmt, depth int) {
	for _, s := range stmts {
		dumpStmt(w, s, depth)
	}
}

func dumpStmt(w *os.File, s ast.Stmt, depth int) {
	indent(w, depth)
	switch s := s.(type) {
	case *ast.Cond:
		for i, arm := range s.Arms {
			if i > 0 {
				indent(w, depth)
			}
			kw := "if"
			if i > 0 {
				kw = "elseif"
			}
			fmt.Fprintf(w, "%s %s\n", kw, exprString(arm.Condition))
			dumpStmts(w, arm.Statements, depth+1)
		}
		if len(s.Otherwise) > 0 {
			indent(w, depth)
			fmt.Fprintln(w, "else")
			dumpStmts(w, s.Otherwise, depth+1)
		}
	case *ast.While:
		fmt.Fprintf(w, "while%s %s\n", nameSuffix(s.ID), exprString(s.Condition))
		dumpStmts(w, s.Body, depth+1)
	case *ast.ForList:
		fmt.Fprintf(w, "for %s in %s\n", s.ID, exprString(s.Expr))
		dumpStmts(w, s.Body, depth+1)
	case *ast.ForRange:
		fmt.Fprintf(w, "for %s in [%s..%s]\n", s.ID, exprString(s.From), exprString(s.To))
		dumpStmts(w, s.Body, depth+1)
	case *ast.Fork:
		fmt.Fprintf(w, "fork%s (%s)\n", nameSuffix(s.ID), exprString(s.Time))
		dumpStmts(w, s.Body, depth+1)
	case *ast.TryExcept:
		fmt.Fprintln(w, "try")
		dumpStmts(w, s.Body, depth+1)
		for _, arm := range s.Excepts {
			indent(w, depth)
			fmt.Fprintf(w, "except%s (%s)\n", nameSuffix(arm.ID), codesString(arm.Codes))
			dumpStmts(w, arm.Statements, depth+1)
		}
	case *ast.TryFinally:
		fmt.Fprintln(w, "try")
		dumpStmts(w, s.Body, depth+1)
		indent(w, depth)
		fmt.Fprintln(w, "finally")
		dumpStmts(w, s.Handler, depth+1)
	case *ast.Break:
		fmt.Fprintf(w, "break%s\n", nameSuffix(s.Exit))
	case *ast.Continue:
		fmt.Fprintf(w, "continue%s\n", nameSuffix(s.Exit))
	case *ast.Return:
		if s.Expr == nil {
			fmt.Fprintln(w, "return")
		} else {
			fmt.Fprintf(w, "return %s\n", exprString(s.Expr))
		}
	case *ast.ExprStmt:
		fmt.Fprintf(w, "%s\n", exprString(s.Expr))
	default:
		fmt.Fprintf(w, "?%T\n", s)
	}
}

func nameSuffix(id string) string {
	if id == "" {
		return ""
	}
	return " " + id
}

var binNames = map[ast.BinaryOp]string{
	ast.BinAdd: "+", ast.BinSub: "-", ast.BinMul: "*", ast.BinDiv: "/",
	ast.BinMod: "%", ast.BinExp: "^", ast.BinEq: "==", ast.BinNe: "!=",
	ast.BinLt: "<", ast.BinLe: "<=", ast.BinGt: ">", ast.BinGe: ">=",
	ast.BinIn: "in",
}

func exprString(e ast.Expr) string {
	switch e := e.(type) {
	case *ast.VarExpr:
		return e.Value.String()
	case *ast.ID:
		return e.Name
	case *ast.ListExpr:
		return "{" + argsString(e.Args) + "}"
	case *ast.Binary:
		return fmt.Sprintf("(%s %s %s)", exprString(e.LHS), binNames[e.Op], exprString(e.RHS))
	case *ast.Unary:
		if e.Op == ast.UnaryNeg {
			return "-" + exprString(e.Expr)
		}
		return "!" + exprString(e.Expr)
	case *ast.And:
		return fmt.Sprintf("(%s && %s)", exprString(e.LHS), exprString(e.RHS))
	case *ast.Or:
		return fmt.Sprintf("(%s || %s)", exprString(e.LHS), exprString(e.RHS))
	case *ast.CondExpr:
		return fmt.Sprintf("(%s ? %s | %s)",
			exprString(e.Condition), exprString(e.Consequence), exprString(e.Alternative))
	case *ast.Index:
		return fmt.Sprintf("%s[%s]", exprString(e.Base), exprString(e.Index))
	case *ast.RangeExpr:
		return fmt.Sprintf("%s[%s..%s]", exprString(e.Base), exprString(e.From), exprString(e.To))
	case *ast.Length:
		return "$"
	case *ast.Assign:
		return fmt.Sprintf("%s = %s", exprString(e.Left), exprString(e.Right))
	case *ast.Scatter:
		items := make([]string, len(e.Items))
		for i, item := range e.Items {
			items[i] = scatterItemString(item)
		}
		return fmt.Sprintf("{%s} = %s", strings.Join(items, ", "), exprString(e.Expr))
	case *ast.Prop:
		return fmt.Sprintf("%s.(%s)", exprString(e.Location), exprString(e.Property))
	case *ast.Verb:
		return fmt.Sprintf("%s:(%s)(%s)", exprString(e.Location), exprString(e.Verb), argsString(e.Args))
	case *ast.Call:
		return fmt.Sprintf("%s(%s)", e.Function, argsString(e.Args))
	case *ast.Pass:
		return fmt.Sprintf("pass(%s)", argsString(e.Args))
	case *ast.Catch:
		s := fmt.Sprintf("`%s ! %s", exprString(e.Trye), codesString(e.Codes))
		if e.Except != nil {
			s += " => " + exprString(e.Except)
		}
		return s + "'"
	default:
		return fmt.Sprintf("?%T", e)
	}
}

func argsString(args []ast.Arg) string {
	parts := make([]string, len(args))
	for i, a := range args {
		if a.Kind == ast.ArgSplice {
			parts[i] = "@" + exprString(a.Expr)
		} else {
			parts[i] = exprString(a.Expr)
		}
	}
	return strings.Join(parts, ", ")
}

func codesString(c ast.CatchCodes) string {
	if c.Any {
		return "ANY"
	}
	return argsString(c.Codes)
}

func scatterItemString(item ast.ScatterItem) string {
	switch item.Kind {
	case ast.ScatterOptional:
		if item.Expr != nil {
			return fmt.Sprintf("?%s = %s", item.ID, exprString(item.Expr))
		}
		return "?" + item.ID
	case ast.ScatterRest:
		return "@" + item.ID
	default:
		return item.ID
	}
}
