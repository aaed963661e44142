// value_convert.go: conversions between value variants, and ToCode.
//
// Every conversion is total over its declared failure: it either succeeds or
// returns a *ScriptError of kind conversion. Natural coercions follow the
// original engine: integer↔double, boolean→0/1, string parse attempts,
// color→solid image. A delayed error value surfaces its wrapped error from
// any conversion.

package script

import (
	"fmt"
	"image/color"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Date-time values render and parse in these layouts.
const (
	dateTimeLayout = "2006-01-02 15:04:05"
	dateLayout     = "2006-01-02"
)

// ToString converts to a string. Nil renders as the empty string; numbers,
// booleans and dates use their literal forms; collections use ToCode.
func (v Value) ToString() (string, error) {
	switch v.Type {
	case TypeNil, TypeDummy:
		return "", nil
	case TypeInt:
		return strconv.FormatInt(v.Data.(int64), 10), nil
	case TypeBool:
		if v.Data.(bool) {
			return "true", nil
		}
		return "false", nil
	case TypeDouble:
		return formatDouble(v.Data.(float64)), nil
	case TypeString:
		return v.Data.(string), nil
	case TypeColor:
		return formatColor(v.Data.(color.NRGBA)), nil
	case TypeDateTime:
		return v.Data.(time.Time).Format(dateTimeLayout), nil
	case TypeCollection:
		return v.ToCode(), nil
	case TypeError:
		return "", v.Data.(*ScriptError)
	default:
		return "", errConversion(v.TypeName(), "string")
	}
}

// ToInt converts to an integer. Doubles convert only when integral, strings
// are parsed, booleans map to 0/1.
func (v Value) ToInt() (int64, error) {
	switch v.Type {
	case TypeInt:
		return v.Data.(int64), nil
	case TypeBool:
		if v.Data.(bool) {
			return 1, nil
		}
		return 0, nil
	case TypeDouble:
		f := v.Data.(float64)
		if f == float64(int64(f)) {
			return int64(f), nil
		}
		return 0, errConversion(v.TypeName(), "integer")
	case TypeString:
		n, err := strconv.ParseInt(strings.TrimSpace(v.Data.(string)), 10, 64)
		if err != nil {
			return 0, errConversion("string", "integer")
		}
		return n, nil
	case TypeError:
		return 0, v.Data.(*ScriptError)
	default:
		return 0, errConversion(v.TypeName(), "integer")
	}
}

// ToDouble converts to a double. Integers widen, booleans map to 0/1,
// strings are parsed.
func (v Value) ToDouble() (float64, error) {
	switch v.Type {
	case TypeDouble:
		return v.Data.(float64), nil
	case TypeInt:
		return float64(v.Data.(int64)), nil
	case TypeBool:
		if v.Data.(bool) {
			return 1, nil
		}
		return 0, nil
	case TypeString:
		f, err := strconv.ParseFloat(strings.TrimSpace(v.Data.(string)), 64)
		if err != nil {
			return 0, errConversion("string", "double")
		}
		return f, nil
	case TypeError:
		return 0, v.Data.(*ScriptError)
	default:
		return 0, errConversion(v.TypeName(), "double")
	}
}

// ToBool converts to a boolean. Nil is false; the strings true/false and
// yes/no parse (the data files use yes/no).
func (v Value) ToBool() (bool, error) {
	switch v.Type {
	case TypeBool:
		return v.Data.(bool), nil
	case TypeNil:
		return false, nil
	case TypeString:
		switch strings.TrimSpace(v.Data.(string)) {
		case "true", "yes":
			return true, nil
		case "false", "no":
			return false, nil
		}
		return false, errConversion("string", "boolean")
	case TypeError:
		return false, v.Data.(*ScriptError)
	default:
		return false, errConversion(v.TypeName(), "boolean")
	}
}

// ToColor converts to a color. Strings parse as rgb(r,g,b), rgba(r,g,b,a)
// or #rrggbb / #rrggbbaa.
func (v Value) ToColor() (color.NRGBA, error) {
	switch v.Type {
	case TypeColor:
		return v.Data.(color.NRGBA), nil
	case TypeString:
		c, ok := parseColor(v.Data.(string))
		if !ok {
			return color.NRGBA{}, errConversion("string", "color")
		}
		return c, nil
	case TypeError:
		return color.NRGBA{}, v.Data.(*ScriptError)
	default:
		return color.NRGBA{}, errConversion(v.TypeName(), "color")
	}
}

// ToDateTime converts to a date-time. Strings parse in "2006-01-02 15:04:05"
// or "2006-01-02" layout.
func (v Value) ToDateTime() (time.Time, error) {
	switch v.Type {
	case TypeDateTime:
		return v.Data.(time.Time), nil
	case TypeString:
		s := strings.TrimSpace(v.Data.(string))
		if t, err := time.Parse(dateTimeLayout, s); err == nil {
			return t, nil
		}
		if t, err := time.Parse(dateLayout, s); err == nil {
			return t, nil
		}
		return time.Time{}, errConversion("string", "date time")
	case TypeError:
		return time.Time{}, v.Data.(*ScriptError)
	default:
		return time.Time{}, errConversion(v.TypeName(), "date time")
	}
}

// ToImage converts to a generated image. Colors become a solid image; image
// file loading belongs to the package/asset layer, not the core.
func (v Value) ToImage() (*GeneratedImage, error) {
	switch v.Type {
	case TypeImage:
		return v.Data.(*GeneratedImage), nil
	case TypeColor:
		return SolidImage(v.Data.(color.NRGBA)), nil
	case TypeError:
		return nil, v.Data.(*ScriptError)
	default:
		return nil, errConversion(v.TypeName(), "image")
	}
}

// ToCode renders script code that evaluates back to this value. For nil,
// integers, doubles, booleans, strings, colors and collections of those the
// result re-parses to an Equal value; reference values render an opaque
// description.
func (v Value) ToCode() string {
	switch v.Type {
	case TypeNil:
		return "nil"
	case TypeInt:
		return strconv.FormatInt(v.Data.(int64), 10)
	case TypeBool:
		if v.Data.(bool) {
			return "true"
		}
		return "false"
	case TypeDouble:
		return formatDouble(v.Data.(float64))
	case TypeString:
		return quoteString(v.Data.(string))
	case TypeColor:
		return formatColor(v.Data.(color.NRGBA))
	case TypeDateTime:
		return "to_date(" + quoteString(v.Data.(time.Time).Format(dateTimeLayout)) + ")"
	case TypeRegex:
		return "regex(" + quoteString(v.Data.(*regexp.Regexp).String()) + ")"
	case TypeCollection:
		return collectionToCode(v.Data.(CollectionLike))
	case TypeObject:
		return "<" + v.Data.(ObjectLike).ObjectTypeName() + ">"
	case TypeFunction:
		return "<function>"
	case TypeImage:
		return "<image>"
	case TypeIterator:
		return "<iterator>"
	case TypeDummy:
		return "<dummy>"
	case TypeError:
		return "<error: " + v.Data.(*ScriptError).Msg + ">"
	default:
		return "<" + v.TypeName() + ">"
	}
}

func collectionToCode(c CollectionLike) string {
	var b strings.Builder
	b.WriteByte('[')
	it := c.MakeIterator()
	first := true
	var key Value
	for {
		item, ok := it.Next(&key, nil)
		if !ok {
			break
		}
		if !first {
			b.WriteString(", ")
		}
		first = false
		if key.Type == TypeString {
			b.WriteString(key.Data.(string))
			b.WriteString(": ")
		}
		b.WriteString(item.ToCode())
		key = Nil
	}
	b.WriteByte(']')
	return b.String()
}

// formatDouble keeps a decimal point so the literal re-parses as a double,
// and avoids exponent notation, which number literals do not support.
func formatDouble(f float64) string {
	s := strconv.FormatFloat(f, 'g', -1, 64)
	if strings.ContainsAny(s, "eE") {
		s = strconv.FormatFloat(f, 'f', -1, 64)
	}
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}

func formatColor(c color.NRGBA) string {
	if c.A != 255 {
		return fmt.Sprintf("rgba(%d,%d,%d,%d)", c.R, c.G, c.B, c.A)
	}
	return fmt.Sprintf("rgb(%d,%d,%d)", c.R, c.G, c.B)
}

func parseColor(s string) (color.NRGBA, bool) {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "#") {
		hex := s[1:]
		var r, g, b, a uint8 = 0, 0, 0, 255
		switch len(hex) {
		case 8:
			if n, err := strconv.ParseUint(hex[6:8], 16, 8); err == nil {
				a = uint8(n)
			} else {
				return color.NRGBA{}, false
			}
			fallthrough
		case 6:
			for i, dst := range []*uint8{&r, &g, &b} {
				n, err := strconv.ParseUint(hex[2*i:2*i+2], 16, 8)
				if err != nil {
					return color.NRGBA{}, false
				}
				*dst = uint8(n)
			}
			return color.NRGBA{R: r, G: g, B: b, A: a}, true
		}
		return color.NRGBA{}, false
	}
	open := strings.IndexByte(s, '(')
	if open < 0 || !strings.HasSuffix(s, ")") {
		return color.NRGBA{}, false
	}
	name := strings.TrimSpace(s[:open])
	if name != "rgb" && name != "rgba" {
		return color.NRGBA{}, false
	}
	parts := strings.Split(s[open+1:len(s)-1], ",")
	if (name == "rgb" && len(parts) != 3) || (name == "rgba" && len(parts) != 4) {
		return color.NRGBA{}, false
	}
	comps := make([]uint8, 0, 4)
	for _, p := range parts {
		n, err := strconv.ParseUint(strings.TrimSpace(p), 10, 8)
		if err != nil {
			return color.NRGBA{}, false
		}
		comps = append(comps, uint8(n))
	}
	c := color.NRGBA{R: comps[0], G: comps[1], B: comps[2], A: 255}
	if name == "rgba" {
		c.A = comps[3]
	}
	return c, true
}

// quoteString renders a double-quoted string literal with the escapes the
// lexer understands.
func quoteString(s string) string {
	var b strings.Builder
	b.WriteByte('"')
	for _, r := range s {
		switch r {
		case '\\':
			b.WriteString(`\\`)
		case '"':
			b.WriteString(`\"`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		default:
			b.WriteRune(r)
		}
	}
	b.WriteByte('"')
	return b.String()
}
