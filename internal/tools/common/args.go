package common

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ArgString returns the argument as a string. Numbers are formatted without
// a fractional part when they are integral, so an hour sent as 18 or "18"
// reads the same. Missing arguments return "".
func ArgString(args map[string]any, key string) string {
	switch v := args[key].(type) {
	case string:
		return strings.TrimSpace(v)
	case float64:
		if v == math.Trunc(v) {
			return strconv.FormatInt(int64(v), 10)
		}
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int:
		return strconv.Itoa(v)
	case nil:
		return ""
	default:
		return fmt.Sprint(v)
	}
}
