package form

import (
	"errors"
	"math"
	"reflect"
	"regexp"
	"strconv"
	"strings"

	"github.com/mitchellh/mapstructure"
)

var (
	errNotNumber = errors.New("must be a number")
	errNotWhole  = errors.New("must be a whole number")
)

// Optional numeric fields are pointers: an empty or blank string leaves them
// nil ("not provided") instead of producing 0 or NaN. Anything that does not
// parse as a finite number is rejected with a field error.
func numericHook(from reflect.Type, to reflect.Type, data any) (any, error) {
	target, isPtr := to, false
	if target.Kind() == reflect.Ptr {
		target, isPtr = target.Elem(), true
	}
	if from.Kind() == reflect.Float64 && isIntKind(target.Kind()) {
		if f := reflect.ValueOf(data).Float(); f != math.Trunc(f) {
			return nil, errNotWhole
		}
		return data, nil
	}
	if from.Kind() != reflect.String {
		return data, nil
	}
	s := strings.TrimSpace(reflect.ValueOf(data).String())

	switch target.Kind() {
	case reflect.Float32, reflect.Float64:
		if s == "" {
			return emptyValue(target, isPtr), nil
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return nil, errNotNumber
		}
		return f, nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		if s == "" {
			return emptyValue(target, isPtr), nil
		}
		i, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			if f, ferr := strconv.ParseFloat(s, 64); ferr == nil && !math.IsNaN(f) && !math.IsInf(f, 0) {
				return nil, errNotWhole
			}
			return nil, errNotNumber
		}
		return i, nil
	case reflect.Bool:
		switch strings.ToLower(s) {
		case "on", "yes":
			return true, nil
		case "", "off", "no":
			return false, nil
		}
	}
	return data, nil
}

func isIntKind(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return true
	}
	return false
}

func emptyValue(t reflect.Type, isPtr bool) any {
	if isPtr {
		return nil
	}
	return reflect.Zero(t).Interface()
}

// Decode copies raw (decoded JSON or form values) onto dst, a pointer to a form
// struct. Keys absent from raw leave the corresponding fields as they were;
// lists and nested objects present in raw replace the previous value.
func Decode(raw map[string]any, dst any) FieldErrors {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:       mapstructure.DecodeHookFuncType(numericHook),
		WeaklyTypedInput: true,
		ZeroFields:       true,
		TagName:          "json",
		Result:           dst,
	})
	if err != nil {
		return FieldErrors{FormKey: err.Error()}
	}
	if err := dec.Decode(raw); err != nil {
		return decodeErrors(err)
	}
	return nil
}

var (
	hookErrPattern  = regexp.MustCompile(`^error decoding '([^']*)': (.+)$`)
	fieldErrPattern = regexp.MustCompile(`^'([^']*)' `)
	parseErrPattern = regexp.MustCompile(`^cannot parse '([^']*)'`)
)

func decodeErrors(err error) FieldErrors {
	var msgs []string
	var merr *mapstructure.Error
	if errors.As(err, &merr) {
		msgs = merr.Errors
	} else {
		msgs = []string{err.Error()}
	}

	out := FieldErrors{}
	for _, msg := range msgs {
		if m := hookErrPattern.FindStringSubmatch(msg); m != nil {
			out.add(m[1], leaf(m[1])+" "+m[2])
			continue
		}
		if m := parseErrPattern.FindStringSubmatch(msg); m != nil {
			out.add(m[1], leaf(m[1])+" has an invalid value")
			continue
		}
		if m := fieldErrPattern.FindStringSubmatch(msg); m != nil {
			out.add(m[1], leaf(m[1])+" has an invalid value")
			continue
		}
		out.add(FormKey, msg)
	}
	return out
}

func (e FieldErrors) add(path, msg string) {
	if path == "" {
		path = FormKey
	}
	if _, exists := e[path]; !exists {
		e[path] = msg
	}
}

func leaf(path string) string {
	if i := strings.LastIndexByte(path, '.'); i >= 0 {
		path = path[i+1:]
	}
	if i := strings.IndexByte(path, '['); i > 0 {
		path = path[:i]
	}
	return path
}
