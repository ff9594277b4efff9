package connect

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Result is the reply to a relay call: {"ok": value} or {"err": message}.
type Result struct {
	OK  any
	Err string
}

// Ok wraps a successful value.
func Ok(v any) Result { return Result{OK: v} }

// Fail carries err's message, which is what callers on the wire see.
func Fail(err error) Result { return Result{Err: err.Error()} }

func (r Result) Failed() bool { return r.Err != "" }

func (r Result) MarshalJSON() ([]byte, error) {
	if r.Err != "" {
		return json.Marshal(struct {
			Err string `json:"err"`
		}{r.Err})
	}
	return json.Marshal(struct {
		OK any `json:"ok"`
	}{r.OK})
}

func (r *Result) UnmarshalJSON(data []byte) error {
	var j struct {
		OK  json.RawMessage `json:"ok"`
		Err *string         `json:"err"`
	}
	if err := json.Unmarshal(data, &j); err != nil {
		return err
	}
	if j.Err != nil {
		*r = Result{Err: *j.Err}
		return nil
	}
	var v any
	if len(j.OK) > 0 {
		if err := json.Unmarshal(j.OK, &v); err != nil {
			return err
		}
	}
	*r = Result{OK: v}
	return nil
}

// recovered turns a recovered panic value into an error.
func recovered(p any) error {
	if err, ok := p.(error); ok {
		return err
	}
	return errors.New(fmt.Sprint(p))
}
