// Package resolve implements schema-aware resolution of plain YAML
// scalars: deciding, per schema, whether an untagged scalar is a null,
// bool, int, float or string, and producing the typed result.
package resolve

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"sync"
)

// Schema selects the resolution rules.
type Schema int

const (
	// SchemaYAML11 resolves per YAML 1.1 (y/n/yes/no/on/off booleans,
	// 0777 octals, _-separated numbers).
	SchemaYAML11 Schema = iota

	// SchemaYAML11PyYAML matches the PyYAML variant of 1.1.
	SchemaYAML11PyYAML

	// SchemaYAML12 and SchemaYAML12Core resolve per the YAML 1.2 core
	// schema (true/false only, 0o/0x radix prefixes).
	SchemaYAML12
	SchemaYAML12Core

	// SchemaYAML12Failsafe resolves everything as a string.
	SchemaYAML12Failsafe

	// SchemaYAML12JSON and SchemaJSON accept only JSON lexemes.
	SchemaYAML12JSON
	SchemaJSON
)

func (s Schema) String() string {
	switch s {
	case SchemaYAML11:
		return "yaml-1.1"
	case SchemaYAML11PyYAML:
		return "yaml-1.1-pyyaml"
	case SchemaYAML12:
		return "yaml-1.2"
	case SchemaYAML12Core:
		return "yaml-1.2-core"
	case SchemaYAML12Failsafe:
		return "yaml-1.2-failsafe"
	case SchemaYAML12JSON:
		return "yaml-1.2-json"
	case SchemaJSON:
		return "json"
	}
	return "<unknown schema>"
}

// Short tags produced by Resolve.
const (
	NullTag  = "!!null"
	BoolTag  = "!!bool"
	StrTag   = "!!str"
	IntTag   = "!!int"
	FloatTag = "!!float"
	SeqTag   = "!!seq"
	MapTag   = "!!map"
	MergeTag = "!!merge"
)

const longTagPrefix = "tag:yaml.org,2002:"

// ShortTag rewrites a tag:yaml.org,2002:* tag to its !!short form.
func ShortTag(tag string) string {
	if strings.HasPrefix(tag, longTagPrefix) {
		return "!!" + tag[len(longTagPrefix):]
	}
	return tag
}

// LongTag rewrites a !!short tag to its tag:yaml.org,2002:* form.
func LongTag(tag string) string {
	if strings.HasPrefix(tag, "!!") {
		return longTagPrefix + tag[2:]
	}
	return tag
}

type resolveMapItem struct {
	value interface{}
	tag   string
}

var (
	resolveTable   = make([]byte, 256)
	resolveMap11   = make(map[string]resolveMapItem)
	resolveMap12   = make(map[string]resolveMapItem)
	resolveMapJSON = make(map[string]resolveMapItem)
)

var initResolveOnce sync.Once

func initResolve() {
	t := resolveTable
	t[int('+')] = 'S' // Sign
	t[int('-')] = 'S'
	for _, c := range "0123456789" {
		t[int(c)] = 'D' // Digit
	}
	for _, c := range "yYnNtTfFoO~" {
		t[int(c)] = 'M' // In map
	}
	t[int('.')] = '.' // Float (potentially in map)

	common := []struct {
		v   interface{}
		tag string
		l   []string
	}{
		{v: true, tag: BoolTag, l: []string{"true", "True", "TRUE"}},
		{v: false, tag: BoolTag, l: []string{"false", "False", "FALSE"}},
		{tag: NullTag, l: []string{"", "~", "null", "Null", "NULL"}},
		{v: math.NaN(), tag: FloatTag, l: []string{".nan", ".NaN", ".NAN"}},
		{v: math.Inf(+1), tag: FloatTag, l: []string{".inf", ".Inf", ".INF", "+.inf", "+.Inf", "+.INF"}},
		{v: math.Inf(-1), tag: FloatTag, l: []string{"-.inf", "-.Inf", "-.INF"}},
		{v: "<<", tag: MergeTag, l: []string{"<<"}},
	}
	extra11 := []struct {
		v   interface{}
		tag string
		l   []string
	}{
		{v: true, tag: BoolTag, l: []string{"y", "Y", "yes", "Yes", "YES", "on", "On", "ON"}},
		{v: false, tag: BoolTag, l: []string{"n", "N", "no", "No", "NO", "off", "Off", "OFF"}},
	}

	for _, item := range common {
		for _, s := range item.l {
			resolveMap11[s] = resolveMapItem{value: item.v, tag: item.tag}
			resolveMap12[s] = resolveMapItem{value: item.v, tag: item.tag}
		}
	}
	for _, item := range extra11 {
		for _, s := range item.l {
			resolveMap11[s] = resolveMapItem{value: item.v, tag: item.tag}
		}
	}

	resolveMapJSON["null"] = resolveMapItem{tag: NullTag}
	resolveMapJSON["true"] = resolveMapItem{value: true, tag: BoolTag}
	resolveMapJSON["false"] = resolveMapItem{value: false, tag: BoolTag}
}

func schemaMap(schema Schema) map[string]resolveMapItem {
	switch schema {
	case SchemaYAML11, SchemaYAML11PyYAML:
		return resolveMap11
	case SchemaYAML12JSON, SchemaJSON:
		return resolveMapJSON
	}
	return resolveMap12
}

func resolvableTag(tag string) bool {
	switch tag {
	case "", StrTag, BoolTag, IntTag, FloatTag, NullTag:
		return true
	}
	return false
}

var (
	yamlStyleFloat = regexp.MustCompile(`^[-+]?(\.\d+|\d+(\.\d*)?)([eE][-+]?\d+)?$`)
	jsonStyleNum   = regexp.MustCompile(`^-?(0|[1-9]\d*)(\.\d+)?([eE][-+]?\d+)?$`)
)

// Resolve determines the tag and typed value of a plain scalar under
// the given schema. An explicit tag restricts the result: a scalar
// that cannot be read as the requested tag is an error.
func Resolve(schema Schema, tag, in string) (rtag string, out interface{}, err error) {
	initResolveOnce.Do(initResolve)
	tag = ShortTag(tag)
	if !resolvableTag(tag) {
		return tag, in, nil
	}
	if schema == SchemaYAML12Failsafe {
		if tag != "" && tag != StrTag {
			return tag, in, nil
		}
		return StrTag, in, nil
	}

	defer func() {
		if tag == "" || tag == rtag || tag == StrTag {
			return
		}
		if tag == FloatTag && rtag == IntTag {
			rtag = FloatTag
			switch v := out.(type) {
			case int64:
				out = float64(v)
			case uint64:
				out = float64(v)
			}
			return
		}
		err = fmt.Errorf("resolve: cannot decode %s %q as a %s", rtag, in, tag)
	}()

	hint := byte('N')
	if in != "" {
		hint = resolveTable[in[0]]
	}
	if hint == 0 || tag == StrTag {
		return StrTag, in, nil
	}

	if item, ok := schemaMap(schema)[in]; ok {
		return item.tag, item.value, nil
	}
	if schema == SchemaYAML12JSON || schema == SchemaJSON {
		return resolveJSONNumber(in)
	}

	switch hint {
	case 'M':
		// Checked the map above; anything else is a string.
	case '.':
		if f, ferr := strconv.ParseFloat(in, 64); ferr == nil {
			return FloatTag, f, nil
		}
	case 'D', 'S':
		plain := in
		if schema == SchemaYAML11 || schema == SchemaYAML11PyYAML {
			plain = strings.ReplaceAll(in, "_", "")
		}
		if ntag, nout, ok := resolveNumber(schema, plain); ok {
			return ntag, nout, nil
		}
	}
	return StrTag, in, nil
}

func resolveNumber(schema Schema, plain string) (string, interface{}, bool) {
	base := 10
	digits := plain
	neg := false
	switch {
	case strings.HasPrefix(plain, "-"):
		neg = true
		digits = plain[1:]
	case strings.HasPrefix(plain, "+"):
		digits = plain[1:]
	}
	switch {
	case strings.HasPrefix(digits, "0x"), strings.HasPrefix(digits, "0X"):
		base, digits = 16, digits[2:]
	case strings.HasPrefix(digits, "0o"), strings.HasPrefix(digits, "0O"):
		base, digits = 8, digits[2:]
	case strings.HasPrefix(digits, "0b"), strings.HasPrefix(digits, "0B"):
		// Binary is a 1.1-ism.
		if schema != SchemaYAML11 && schema != SchemaYAML11PyYAML {
			return "", nil, false
		}
		base, digits = 2, digits[2:]
	case len(digits) > 1 && digits[0] == '0' && allOctal(digits[1:]):
		// 1.1-style 0777 octals.
		if schema == SchemaYAML11 || schema == SchemaYAML11PyYAML {
			base, digits = 8, digits[1:]
		}
	}
	if digits == "" {
		return "", nil, false
	}
	if base != 10 {
		if !validDigits(digits, base) {
			return "", nil, false
		}
		signed := digits
		if neg {
			signed = "-" + digits
		}
		if i, err := strconv.ParseInt(signed, base, 64); err == nil {
			return IntTag, i, true
		}
		if !neg {
			if u, err := strconv.ParseUint(digits, base, 64); err == nil {
				return IntTag, u, true
			}
		}
		return "", nil, false
	}
	if i, err := strconv.ParseInt(plain, 10, 64); err == nil {
		return IntTag, i, true
	}
	if !neg {
		if u, err := strconv.ParseUint(digits, 10, 64); err == nil {
			return IntTag, u, true
		}
	}
	if yamlStyleFloat.MatchString(plain) {
		if f, err := strconv.ParseFloat(plain, 64); err == nil {
			return FloatTag, f, true
		}
	}
	return "", nil, false
}

func resolveJSONNumber(in string) (string, interface{}, error) {
	if !jsonStyleNum.MatchString(in) {
		return StrTag, in, nil
	}
	if !strings.ContainsAny(in, ".eE") {
		if i, err := strconv.ParseInt(in, 10, 64); err == nil {
			return IntTag, i, nil
		}
		if u, err := strconv.ParseUint(in, 10, 64); err == nil {
			return IntTag, u, nil
		}
	}
	if f, err := strconv.ParseFloat(in, 64); err == nil {
		return FloatTag, f, nil
	}
	return StrTag, in, nil
}

func validDigits(s string, base int) bool {
	for i := 0; i < len(s); i++ {
		c := s[i]
		var d int
		switch {
		case c >= '0' && c <= '9':
			d = int(c - '0')
		case c >= 'a' && c <= 'f':
			d = int(c-'a') + 10
		case c >= 'A' && c <= 'F':
			d = int(c-'A') + 10
		default:
			return false
		}
		if d >= base {
			return false
		}
	}
	return len(s) > 0
}

func allOctal(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '7' {
			return false
		}
	}
	return len(s) > 0
}
