package graph

import (
	"encoding/json"
	"fmt"
	"time"
)

// DateTime is the DateTime scalar, an RFC 3339 timestamp.
type DateTime struct {
	time.Time
}

func (DateTime) ImplementsGraphQLType(name string) bool {
	return name == "DateTime"
}

func (t *DateTime) UnmarshalGraphQL(input interface{}) error {
	switch v := input.(type) {
	case string:
		parsed, err := time.Parse(time.RFC3339Nano, v)
		if err != nil {
			return fmt.Errorf("invalid DateTime %q: %w", v, err)
		}
		t.Time = parsed
		return nil
	case time.Time:
		t.Time = v
		return nil
	default:
		return fmt.Errorf("wrong type for DateTime: %T", input)
	}
}

func (t DateTime) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.UTC().Format(time.RFC3339Nano))
}

func dateTime(t *time.Time) *DateTime {
	if t == nil {
		return nil
	}
	return &DateTime{Time: *t}
}
