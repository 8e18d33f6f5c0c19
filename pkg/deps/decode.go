package deps

import (
	"encoding/json"
	"encoding/xml"
	stderrors "errors"
	"regexp"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/matzehuels/depscan/pkg/errors"
)

// DecodeTOML unmarshals text into v, converting syntax errors into a
// ParseFailure that carries the offending line.
func DecodeTOML(format, text string, v any) error {
	if _, err := toml.Decode(text, v); err != nil {
		var perr toml.ParseError
		if stderrors.As(err, &perr) {
			return errors.NewParseFailure(format, perr.Position.Line, "toml", "%s", perr.Message)
		}
		return errors.NewParseFailure(format, 0, "toml", "%v", err)
	}
	return nil
}

// DecodeJSON unmarshals text into v, converting syntax and type errors into
// a ParseFailure that carries the offending line.
func DecodeJSON(format, text string, v any) error {
	if err := json.Unmarshal([]byte(text), v); err != nil {
		var syn *json.SyntaxError
		var typ *json.UnmarshalTypeError
		switch {
		case stderrors.As(err, &syn):
			return errors.NewParseFailure(format, lineAt(text, syn.Offset), "json", "%s", syn.Error())
		case stderrors.As(err, &typ):
			return errors.NewParseFailure(format, lineAt(text, typ.Offset), "json",
				"field %q: cannot use %s as %s", typ.Field, typ.Value, typ.Type)
		}
		return errors.NewParseFailure(format, 0, "json", "%v", err)
	}
	return nil
}

var yamlLineRE = regexp.MustCompile(`line (\d+):\s*(.*)`)

// DecodeYAML unmarshals text into v, converting errors into a ParseFailure.
// yaml.v3 reports positions only in its messages, so the line is recovered
// from the first "line N:" it mentions.
func DecodeYAML(format, text string, v any) error {
	if err := yaml.Unmarshal([]byte(text), v); err != nil {
		if m := yamlLineRE.FindStringSubmatch(err.Error()); m != nil {
			line, _ := strconv.Atoi(m[1])
			return errors.NewParseFailure(format, line, "yaml", "%s", m[2])
		}
		return errors.NewParseFailure(format, 0, "yaml", "%s", strings.TrimPrefix(err.Error(), "yaml: "))
	}
	return nil
}

// DecodeXML unmarshals text into v, converting syntax errors into a
// ParseFailure that carries the offending line.
func DecodeXML(format, text string, v any) error {
	if err := xml.Unmarshal([]byte(text), v); err != nil {
		var syn *xml.SyntaxError
		if stderrors.As(err, &syn) {
			return errors.NewParseFailure(format, syn.Line, "xml", "%s", syn.Msg)
		}
		return errors.NewParseFailure(format, 0, "xml", "%v", err)
	}
	return nil
}

func lineAt(text string, offset int64) int {
	if offset < 0 || offset > int64(len(text)) {
		return 0
	}
	return strings.Count(text[:offset], "\n") + 1
}
