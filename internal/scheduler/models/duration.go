package models

import (
	"encoding/json"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"
)

// Duration is shown as "1m30s" in JSON and stored as whole milliseconds in Mongo.
type Duration time.Duration

func (d Duration) String() string {
	return time.Duration(d).String()
}

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Duration) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("duration must be a string such as \"90s\": %w", err)
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(parsed)
	return nil
}

func (d Duration) MarshalBSONValue() (bsontype.Type, []byte, error) {
	return bson.MarshalValue(time.Duration(d).Milliseconds())
}

func (d *Duration) UnmarshalBSONValue(t bsontype.Type, data []byte) error {
	ms, ok := bson.RawValue{Type: t, Value: data}.AsInt64OK()
	if !ok {
		return fmt.Errorf("cannot decode duration from BSON %s", t)
	}
	*d = Duration(time.Duration(ms) * time.Millisecond)
	return nil
}
