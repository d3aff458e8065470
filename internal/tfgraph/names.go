package tfgraph

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseTensorName splits a signature tensor name such as
// "serving_default_vgg_input:0" into operation name and output index.
// A name without an index refers to output 0.
func ParseTensorName(s string) (string, int, error) {
	if s == "" {
		return "", 0, fmt.Errorf("empty tensor name")
	}
	i := strings.LastIndexByte(s, ':')
	if i < 0 {
		return s, 0, nil
	}
	name, idxStr := s[:i], s[i+1:]
	if name == "" {
		return "", 0, fmt.Errorf("tensor name %q: missing operation", s)
	}
	idx, err := strconv.Atoi(idxStr)
	if err != nil || idx < 0 {
		return "", 0, fmt.Errorf("tensor name %q: invalid output index %q", s, idxStr)
	}
	return name, idx, nil
}

// flatten extracts a single probability vector from a fetched output value.
// Models emit [batch][classes]; only batch 0 is used.
func flatten(v any) ([]float32, error) {
	switch t := v.(type) {
	case [][]float32:
		if len(t) == 0 {
			return nil, fmt.Errorf("empty output batch")
		}
		return t[0], nil
	case []float32:
		return t, nil
	default:
		return nil, fmt.Errorf("unexpected output type %T", v)
	}
}
