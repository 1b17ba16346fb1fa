package sourcemap

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
)

type Config map[string]*cfgVal

// NewConfig creates a new configuration object primed with all the
// default values expected by the generator
func NewConfig() *Config {
	m := make(Config)
	// prepended by consumers to the entries in `sources`
	m.SetString("map.source_root", "")
	// name of the generated file the map is associated with
	m.SetString("map.file", "")
	// url of the map, returned by SaveMap
	m.SetString("map.url", "")
	// path SaveMap writes the map to
	m.SetString("map.write_to", "")
	// emit `sourcesContent`
	m.SetBool("map.embed_sources", false)
	// sources that never get mappings nor content
	m.SetStrings("map.exclude_sources", nil)
	// prepended to each normalized source path
	m.SetString("map.root_path", "")
	// trimmed from the start of each source path
	m.SetString("map.base_path", "")
	// compose with source maps embedded in the sources as data
	// URIs.  Only takes effect with map.embed_sources
	m.SetBool("map.apply_inline", false)
	// bound for the inline source map fixed point
	m.SetInt("compose.max_passes", 32)
	return &m
}

func (c *Config) Debug() {
	c.Fprint(os.Stdout)
}

// Fprint writes every setting, sorted by key, to w
func (c *Config) Fprint(w io.Writer) {
	fmt.Fprintln(w, "Configuration")

	keys := make([]string, 0, len(*c))
	width := 0
	for k := range *c {
		keys = append(keys, k)
		width = max(width, len(k))
	}
	sort.Strings(keys)

	for _, k := range keys {
		fmt.Fprintf(w, "%s%s : %s\n", k, strings.Repeat(" ", width-len(k)), (*c)[k].String())
	}
}

type cfgValType int

const (
	cfgValType_Undefined cfgValType = iota
	cfgValType_Bool
	cfgValType_Int
	cfgValType_String
	cfgValType_Strings
)

func (vt cfgValType) String() string {
	return map[cfgValType]string{
		cfgValType_Undefined: "undefined",
		cfgValType_Bool:      "bool",
		cfgValType_Int:       "int",
		cfgValType_String:    "string",
		cfgValType_Strings:   "strings",
	}[vt]
}

type cfgVal struct {
	typ       cfgValType
	asBool    bool
	asInt     int
	asString  string
	asStrings []string
}

// assignType is mostly for preventing programming errors
func (v *cfgVal) assignType(vt cfgValType) {
	if v.typ != vt && v.typ != cfgValType_Undefined {
		panic(fmt.Sprintf("Can't assign `%s` to type `%s`", vt, v.typ))
	}
	v.typ = vt
}

func (v *cfgVal) checkType(vt cfgValType) {
	if v.typ != vt {
		panic(fmt.Sprintf("Can't retrieve `%s` from `%s` variable", vt, v.typ))
	}
}

func (v *cfgVal) String() string {
	switch v.typ {
	case cfgValType_Bool:
		return fmt.Sprintf("%t (bool)", v.asBool)
	case cfgValType_Int:
		return fmt.Sprintf("%d (int)", v.asInt)
	case cfgValType_String:
		return fmt.Sprintf("%q (string)", v.asString)
	case cfgValType_Strings:
		return fmt.Sprintf("[%s] (strings)", strings.Join(v.asStrings, ", "))
	case cfgValType_Undefined:
		return "(undefined)"
	default:
		panic(fmt.Sprintf("unknown cfgVal type: %v", v.typ))
	}
}

func (c *Config) SetBool(path string, v bool) {
	c.set(path, cfgValType_Bool).asBool = v
}

func (c *Config) SetInt(path string, v int) {
	c.set(path, cfgValType_Int).asInt = v
}

func (c *Config) SetString(path string, v string) {
	c.set(path, cfgValType_String).asString = v
}

// SetStrings stores a copy of `v`
func (c *Config) SetStrings(path string, v []string) {
	c.set(path, cfgValType_Strings).asStrings = append([]string(nil), v...)
}

// set reuses the existing value so a key can't silently change its
// type after NewConfig defined it
func (c *Config) set(path string, vt cfgValType) *cfgVal {
	val, ok := (*c)[path]
	if !ok {
		val = &cfgVal{}
		(*c)[path] = val
	}
	val.assignType(vt)
	return val
}

// get returns the value at `path`, panicking when it's missing or
// holds another type
func (c *Config) get(path string, vt cfgValType) *cfgVal {
	val, ok := (*c)[path]
	if !ok {
		panic(fmt.Sprintf("%s setting `%s` does not exist", vt, path))
	}
	val.checkType(vt)
	return val
}

func (c *Config) GetBool(path string) bool {
	return c.get(path, cfgValType_Bool).asBool
}

func (c *Config) GetInt(path string) int {
	return c.get(path, cfgValType_Int).asInt
}

func (c *Config) GetString(path string) string {
	return c.get(path, cfgValType_String).asString
}

// GetStrings returns a copy of the list at `path`
func (c *Config) GetStrings(path string) []string {
	return append([]string(nil), c.get(path, cfgValType_Strings).asStrings...)
}
