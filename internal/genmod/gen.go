package genmod

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/rs/zerolog"
)

// Gen renders one output file at a time. Unsupported types do not stop
// generation: they are logged as warnings and leave FIXME markers.
type Gen struct {
	// Source is the description file named in the do-not-edit banner.
	Source string
	Log    zerolog.Logger

	buf    bytes.Buffer
	prefix string
}

func (g *Gen) out(format string, args ...any) {
	fmt.Fprintf(&g.buf, format, args...)
	g.buf.WriteByte('\n')
}

func (g *Gen) start(m *Module) {
	g.buf.Reset()
	g.prefix = "mpy_" + m.Name
	g.doNotEdit()
}

func (g *Gen) flush(w io.Writer) error {
	_, err := g.buf.WriteTo(w)
	return err
}

// cond wraps body in #if cond ... #endif // cond when cond is set.
func (g *Gen) cond(cond string, body func()) {
	if cond == "" {
		body()
		return
	}
	g.out("#if %s", cond)
	body()
	g.out("#endif // %s", cond)
}

func (g *Gen) doNotEdit() {
	whence := ""
	if g.Source != "" {
		whence = " from " + filepath.Base(g.Source)
	}
	g.banner("DO NOT EDIT - auto-generated"+whence+" by genmod", "=")
}

func (g *Gen) banner(message, border string) {
	line := "// " + strings.Repeat(border, 60/len(border))
	g.out("%s", line)
	for _, l := range strings.Split(message, "\n") {
		g.out("// %s", l)
	}
	g.out("%s", line)
}

// fixedArity reports whether a call fits MP_DEFINE_CONST_FUN_OBJ_0..3.
func fixedArity(withSelf int, args []Arg) bool {
	return withSelf+len(args) <= 3 && countOptional(args) == 0
}

func countOptional(args []Arg) int {
	n := 0
	for _, a := range args {
		if a.Optional() {
			n++
		}
	}
	return n
}

func (g *Gen) symbol(class, name string) string {
	if class == "" {
		return g.prefix + "_" + name
	}
	return g.prefix + "_" + class + "_" + name
}

// Header writes mod<name>_i.h: declarations shared by the C and C++ sides.
func (g *Gen) Header(w io.Writer, m *Module) error {
	g.start(m)
	guard := "__MICROPY_INCLUDED_MOD" + strings.ToUpper(m.Name) + "_I_H"
	g.out("#ifndef %s", guard)
	g.out("#define %s", guard)
	for _, sect := range m.Sections {
		g.cond(sect.Condition, func() {
			for _, name := range sortedKeys(sect.Functions) {
				fn := sect.Functions[name]
				g.cond(fn.Condition, func() { g.hMethod(fn, "", name) })
			}
			for _, name := range sortedKeys(sect.Classes) {
				cls := sect.Classes[name]
				g.cond(cls.Condition, func() { g.hClass(cls, name) })
			}
		})
	}
	g.out("")
	g.out("#endif // %s", guard)
	return g.flush(w)
}

func (g *Gen) hClass(cls Class, name string) {
	csym := g.prefix + "_" + name
	g.out("")
	g.out("// class %s", name)
	g.out("extern const mp_obj_type_t %s_type;", csym)
	g.out("extern mp_obj_t %s_make_new(const mp_obj_type_t *, mp_uint_t, mp_uint_t, const mp_obj_t *);", csym)
	for _, mname := range sortedKeys(cls.Methods) {
		meth := cls.Methods[mname]
		g.cond(meth.Condition, func() { g.hMethod(meth, name, mname) })
	}
}

func (g *Gen) hMethod(meth Method, class, name string) {
	withSelf := 0
	if class != "" {
		withSelf = 1
	}
	var cargs []string
	if fixedArity(withSelf, meth.Args) {
		if withSelf == 1 {
			cargs = append(cargs, "mp_obj_t self_in")
		}
		for range meth.Args {
			cargs = append(cargs, "mp_obj_t")
		}
	} else {
		cargs = []string{"size_t n_args", "const mp_obj_t *args"}
	}
	g.out("extern mp_obj_t %s(%s);", g.symbol(class, name), strings.Join(cargs, ", "))
}

// CModule writes mod<name>.c: function objects, type objects and the module
// globals table.
func (g *Gen) CModule(w io.Writer, m *Module) error {
	g.start(m)
	upper := strings.ToUpper(m.Name)
	g.out(`#include "py/runtime.h"`)
	g.out("#if MICROPY_PY_%s", upper)
	g.out("")
	g.out(`#include "mod%s_i.h"`, m.Name)
	for _, sect := range m.Sections {
		g.cond(sect.Condition, func() { g.cSection(sect) })
	}
	g.out("")
	g.out("// Module")
	g.out("STATIC const mp_rom_map_elem_t %s_module_globals_table[] = {", g.prefix)
	g.out("    { MP_ROM_QSTR(MP_QSTR___name__), MP_ROM_QSTR(MP_QSTR_%s) },", m.Name)
	for _, sect := range m.Sections {
		g.cond(sect.Condition, func() {
			for _, fname := range sortedKeys(sect.Functions) {
				g.cond(sect.Functions[fname].Condition, func() {
					g.out("    { MP_ROM_QSTR(MP_QSTR_%s), MP_ROM_PTR(&%s_obj) },", fname, g.symbol("", fname))
				})
			}
			for _, cname := range sortedKeys(sect.Classes) {
				g.cond(sect.Classes[cname].Condition, func() {
					g.out("    { MP_ROM_QSTR(MP_QSTR_%s), MP_ROM_PTR(&%s_%s_type) },", cname, g.prefix, cname)
				})
			}
			g.cConstants(sect.Constants, "    ")
		})
	}
	g.out("};")
	g.out("")
	g.out("STATIC MP_DEFINE_CONST_DICT(%s_module_globals,", g.prefix)
	g.out("                            %s_module_globals_table);", g.prefix)
	g.out("")
	g.out("const mp_obj_module_t mp_module_%s = {", m.Name)
	g.out("    .base = { &mp_type_module },")
	g.out("    .name = MP_QSTR_%s,", m.Name)
	g.out("    .globals = (mp_obj_dict_t *)&%s_module_globals,", g.prefix)
	g.out("};")
	g.out("")
	g.out("#endif // MICROPY_PY_%s", upper)
	return g.flush(w)
}

func (g *Gen) cConstants(consts map[string]string, indent string) {
	for _, name := range sortedKeys(consts) {
		typ := consts[name]
		if typ != "int" {
			g.Log.Warn().Str("constant", name).Str("type", typ).Msg("unsupported constant type")
			continue
		}
		g.out("%s{ MP_ROM_QSTR(MP_QSTR_%s), MP_ROM_INT(%s) },", indent, name, name)
	}
}

func (g *Gen) cSection(sect Section) {
	for _, inc := range sect.CInclude {
		g.out("#include %s", inc)
	}
	for _, name := range sortedKeys(sect.Functions) {
		fn := sect.Functions[name]
		g.cond(fn.Condition, func() { g.cDefineMethod(fn, "", name) })
	}
	for _, name := range sortedKeys(sect.Classes) {
		cls := sect.Classes[name]
		g.cond(cls.Condition, func() { g.cClass(cls, name) })
	}
}

func (g *Gen) cClass(cls Class, name string) {
	csym := g.prefix + "_" + name
	g.out("")
	g.out("// class %s", name)
	for _, mname := range sortedKeys(cls.Methods) {
		meth := cls.Methods[mname]
		g.cond(meth.Condition, func() { g.cDefineMethod(meth, name, mname) })
	}
	g.out("")
	g.out("STATIC const mp_rom_map_elem_t %s_locals_dict_table[] = {", csym)
	for _, mname := range sortedKeys(cls.Methods) {
		g.cond(cls.Methods[mname].Condition, func() {
			g.out("  { MP_ROM_QSTR(MP_QSTR_%s), MP_ROM_PTR(&%s_%s_obj) },", mname, csym, mname)
		})
	}
	g.cConstants(cls.Constants, "  ")
	g.out("};")
	g.out("")
	g.out("STATIC MP_DEFINE_CONST_DICT(%s_locals_dict,", csym)
	g.out("                            %s_locals_dict_table);", csym)
	g.out("")
	g.out("const mp_obj_type_t %s_type = {", csym)
	g.out("    { &mp_type_type },")
	g.out("    .name = MP_QSTR_%s,", name)
	g.out("    .make_new = %s_make_new,", csym)
	g.out("    .locals_dict = (mp_obj_t)&%s_locals_dict,", csym)
	g.out("};")
}

func (g *Gen) cDefineMethod(meth Method, class, name string) {
	withSelf := 0
	if class != "" {
		withSelf = 1
	}
	msym := g.symbol(class, name)
	n := withSelf + len(meth.Args)
	if fixedArity(withSelf, meth.Args) {
		g.out("STATIC MP_DEFINE_CONST_FUN_OBJ_%d(%s_obj,", n, msym)
		g.out("                                 %s);", msym)
		return
	}
	g.out("STATIC MP_DEFINE_CONST_FUN_OBJ_VAR_BETWEEN(%s_obj, %d, %d,", msym, n-countOptional(meth.Args), n)
	g.out("                                           %s);", msym)
}

// Implementation writes mod<name>_i.cpp: object structs, constructors and
// the wrappers that call into C++.
func (g *Gen) Implementation(w io.Writer, m *Module) error {
	g.start(m)
	upper := strings.ToUpper(m.Name)
	g.out(`extern "C" {`)
	g.out(`    #include "py/mpconfig.h"`)
	g.out("}")
	g.out("#if MICROPY_PY_%s", upper)
	for _, inc := range m.Include {
		g.out("#include %s", inc)
	}
	g.out(`extern "C" {`)
	g.out(`    #include "py/runtime.h"`)
	g.out(`    #include "mod%s_i.h"`, m.Name)
	g.out("}")
	for _, sect := range m.Sections {
		g.cond(sect.Condition, func() {
			for _, cname := range sortedKeys(sect.Classes) {
				g.cond(sect.Classes[cname].Condition, func() {
					csym := g.prefix + "_" + cname
					g.out("struct %s_obj_t {", csym)
					g.out("    mp_obj_base_t base;")
					g.out("    %s *cpp;", cname)
					g.out("};")
				})
			}
		})
	}
	for _, sect := range m.Sections {
		g.cond(sect.Condition, func() {
			for _, name := range sortedKeys(sect.Functions) {
				fn := sect.Functions[name]
				g.cond(fn.Condition, func() { g.cppMethod(fn, "", name) })
			}
			for _, name := range sortedKeys(sect.Classes) {
				cls := sect.Classes[name]
				g.cond(cls.Condition, func() { g.cppClass(cls, name) })
			}
		})
	}
	g.out("#endif // MICROPY_PY_%s", upper)
	return g.flush(w)
}

func (g *Gen) cppClass(cls Class, name string) {
	csym := g.prefix + "_" + name
	g.out("")
	g.banner("class "+name, "-")
	g.out("mp_obj_t %s_make_new(const mp_obj_type_t *type,", csym)
	g.out("        mp_uint_t n_args, mp_uint_t n_kw, const mp_obj_t *args) {")
	g.out("    (void)type;")
	g.out("    mp_arg_check_num(n_args, n_kw, %d, %d, false);", len(cls.Args)-countOptional(cls.Args), len(cls.Args))
	for i, a := range cls.Args {
		g.cppArgIn(a, fmt.Sprintf("args[%d]", i), fmt.Sprintf("(n_args > %d)", i))
	}
	g.out("    %s_obj_t *o =", csym)
	g.out("        m_new_obj_with_finaliser(%s_obj_t);", csym)
	g.out("    o->base.type = &%s_type;", csym)
	g.out("    o->cpp = new %s(%s);", name, cppArgs(cls.Args))
	g.out("    return o;")
	g.out("}")
	for _, mname := range sortedKeys(cls.Methods) {
		meth := cls.Methods[mname]
		g.cond(meth.Condition, func() { g.cppMethod(meth, name, mname) })
	}
}

func cppArgs(args []Arg) string {
	exprs := make([]string, len(args))
	for i, a := range args {
		exprs[i] = a.Expr()
	}
	return strings.Join(exprs, ", ")
}

func (g *Gen) cppMethod(fn Method, class, name string) {
	withSelf := 0
	csym := ""
	if class != "" {
		withSelf = 1
		csym = g.prefix + "_" + class
	}
	msym := g.symbol(class, name)
	g.out("")
	if fixedArity(withSelf, fn.Args) {
		var cargs []string
		if withSelf == 1 {
			cargs = append(cargs, "mp_obj_t self_in")
		}
		for _, a := range fn.Args {
			cargs = append(cargs, "mp_obj_t "+a.Name+"_in")
		}
		g.out("mp_obj_t %s(%s) {", msym, strings.Join(cargs, ", "))
		if withSelf == 1 {
			g.out("    %s_obj_t *self = (%s_obj_t *)self_in;", csym, csym)
		}
		for _, a := range fn.Args {
			g.cppArgIn(a, a.Name+"_in", "")
		}
	} else {
		g.out("mp_obj_t %s(size_t n_args, const mp_obj_t *args) {", msym)
		if withSelf == 1 {
			g.out("    %s_obj_t *self = (%s_obj_t *)args[0];", csym, csym)
		}
		for i, a := range fn.Args {
			idx := withSelf + i
			g.cppArgIn(a, fmt.Sprintf("args[%d]", idx), fmt.Sprintf("(n_args > %d)", idx))
		}
	}

	if fn.Code != nil {
		for _, line := range fn.Code {
			g.out("    %s", line)
		}
		g.out("}")
		return
	}

	lhs, ret, conv := "", "mp_const_none", []string(nil)
	if fn.Ret != "" {
		var decl string
		decl, ret, conv = g.retConv(fn.Ret, class, name)
		lhs = decl + " = "
	}
	if withSelf == 1 {
		g.out("    %sself->cpp->%s(%s);", lhs, name, cppArgs(fn.Args))
	} else {
		g.out("    %s%s(%s);", lhs, name, cppArgs(fn.Args))
	}
	for _, line := range conv {
		g.out("    %s", line)
	}
	g.out("    return %s;", ret)
	g.out("}")
}

// retConv maps a return type to the declaration of the C++ result, the
// expression that converts it to an mp_obj_t, and any statements needed in
// between.
func (g *Gen) retConv(ret, class, name string) (decl, conv string, stmts []string) {
	switch ret {
	case "int":
		return "int ret", "MP_OBJ_NEW_SMALL_INT(ret)", nil
	case "string":
		return "const char *ret", "mp_obj_new_str(ret, strlen(ret), false)", nil
	case "bool":
		return "int ret", "ret ? mp_const_true : mp_const_false", nil
	case "float":
		return "float ret", "mp_obj_new_float((mp_float_t)ret)", nil
	}
	if isClassName(ret) {
		rsym := g.prefix + "_" + ret
		return ret + " *ret", "(mp_obj_t)ret_out", []string{
			fmt.Sprintf("%s_obj_t *ret_out = m_new_obj_with_finaliser(%s_obj_t);", rsym, rsym),
			fmt.Sprintf("ret_out->base.type = &%s_type;", rsym),
			"ret_out->cpp = ret;",
		}
	}
	where := name
	if class != "" {
		where = class + "." + name
	}
	g.Log.Warn().Str("type", ret).Str("for", where).Msg("unsupported return type")
	return "FIXME", "FIXME(ret)", nil
}

func isClassName(s string) bool {
	r, _ := utf8.DecodeRuneInString(s)
	return unicode.IsUpper(r)
}

func (g *Gen) cppArgIn(a Arg, src, present string) {
	basic := func(lhs, rhs string) {
		if a.Optional() && present != "" {
			g.out("    %s = %s ? %s : %s;", lhs, present, rhs, a.Default)
			return
		}
		g.out("    %s = %s;", lhs, rhs)
	}

	switch a.Type {
	case "int":
		basic("int "+a.Name, "mp_obj_get_int("+src+")")
	case "float":
		basic("mp_float_t "+a.Name, "mp_obj_get_float("+src+")")
	case "bool":
		basic("int "+a.Name, "mp_obj_is_true("+src+")")
	case "string":
		basic("const char *"+a.Name, "mp_obj_str_get_str("+src+")")
	case "buffer":
		g.out("    mp_buffer_info_t %s;", a.Name)
		g.out("    mp_get_buffer_raise(%s, &%s, MP_BUFFER_READ);", src, a.Name)
	default:
		if isClassName(a.Type) && a.Type != "SPECIAL" {
			csym := g.prefix + "_" + a.Type
			g.out("    if (! MP_OBJ_IS_TYPE(%s, &%s_type)) {", src, csym)
			g.out(`        nlr_raise(mp_obj_new_exception_msg(&mp_type_TypeError, "%s required"));`, a.Type)
			g.out("    }")
			g.out("    %s *%s = ((%s_obj_t *)%s)->cpp;", a.Type, a.Name, csym, src)
			return
		}
		g.Log.Warn().Str("type", a.Type).Str("for", src).Msg("unsupported argument type")
		g.out("    FIXME %s <- %s;", a.Name, src)
	}
}

// OutputFiles names the three generated files for module name.
func OutputFiles(name string) (header, impl, module string) {
	stub := "mod" + name
	return stub + "_i.h", stub + "_i.cpp", stub + ".c"
}

// WriteAll writes the header, C++ glue and C module into dir. Each file is
// rendered fully before it is created.
func (g *Gen) WriteAll(dir string, m *Module) error {
	header, impl, module := OutputFiles(m.Name)
	for _, f := range []struct {
		name   string
		render func(io.Writer, *Module) error
	}{
		{header, g.Header},
		{impl, g.Implementation},
		{module, g.CModule},
	} {
		var buf bytes.Buffer
		if err := f.render(&buf, m); err != nil {
			return err
		}
		path := filepath.Join(dir, f.name)
		if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
			return fmt.Errorf("writing %s: %w", path, err)
		}
		g.Log.Info().Str("file", path).Msg("generated")
	}
	return nil
}
