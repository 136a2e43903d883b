package docstore

import (
	"reflect"
	"time"

	"github.com/go-viper/mapstructure/v2"
)

// Decode copies a document's fields into out, matching json tag names.
// Numbers are converted loosely so integer ratings land in float fields.
func Decode(doc Document, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		TagName:          "json",
		WeaklyTypedInput: true,
		DecodeHook:       timeToStringHook,
	})
	if err != nil {
		return err
	}
	return dec.Decode(doc.Data)
}

// timeToStringHook renders store timestamps as RFC 3339 strings.
func timeToStringHook(from, to reflect.Type, data any) (any, error) {
	if to.Kind() != reflect.String {
		return data, nil
	}
	if t, ok := data.(time.Time); ok {
		return t.UTC().Format(time.RFC3339Nano), nil
	}
	return data, nil
}

// Time reads a timestamp field stored either as a time or an RFC 3339 string.
func Time(v any) (time.Time, bool) {
	switch t := v.(type) {
	case time.Time:
		return t, true
	case string:
		parsed, err := time.Parse(time.RFC3339Nano, t)
		if err != nil {
			return time.Time{}, false
		}
		return parsed, true
	default:
		return time.Time{}, false
	}
}
