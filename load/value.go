package load

import (
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/syssam/datascript/schema/field"
)

// DateTimeLayouts are the layouts accepted for datetime fixture values.
var DateTimeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04",
	time.DateOnly,
}

// Value converts a fixture scalar to the Go value of a column. A YAML null
// becomes nil, and text written as {template} is kept as text for the table
// to read as a modifier.
func Value(node *yaml.Node, c *field.Column) (any, error) {
	if node == nil {
		return nil, nil
	}
	if node.Kind == yaml.AliasNode {
		node = node.Alias
	}
	if node.Kind != yaml.ScalarNode {
		return nil, fmt.Errorf("column %s: line %d: value must be a scalar", c.Name, node.Line)
	}
	if node.Tag == "!!null" {
		return nil, nil
	}
	s := node.Value
	if t := strings.TrimSpace(s); len(t) >= 2 && t[0] == '{' && t[len(t)-1] == '}' {
		return s, nil
	}
	v, err := convert(s, c)
	if err != nil {
		return nil, fmt.Errorf("column %s: line %d: %w", c.Name, node.Line, err)
	}
	return v, nil
}

func convert(s string, c *field.Column) (any, error) {
	switch c.Type {
	case field.TypeInteger:
		return strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	case field.TypeDecimal:
		return decimal.NewFromString(strings.TrimSpace(s))
	case field.TypeFloat:
		return strconv.ParseFloat(strings.TrimSpace(s), 64)
	case field.TypeBoolean:
		return strconv.ParseBool(strings.TrimSpace(s))
	case field.TypeDateTime:
		return parseDateTime(s)
	case field.TypeGUID:
		return uuid.Parse(strings.TrimSpace(s))
	case field.TypeBinary:
		if h, ok := strings.CutPrefix(s, "0x"); ok {
			return hex.DecodeString(h)
		}
		return []byte(s), nil
	}
	return s, nil
}

func parseDateTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range DateTimeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid datetime %q", s)
}
