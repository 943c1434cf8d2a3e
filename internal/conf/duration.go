package conf

import (
	"encoding/json"
	"regexp"
	"strconv"
	"time"

	"github.com/mediactl/mediactl/internal/conf/jsonwrapper"
)

var reDays = regexp.MustCompile("^(-?[0-9]+)d")

const day = 24 * time.Hour

// Duration is a time.Duration that is encoded as a string and that
// supports a day suffix ("2d3h").
type Duration time.Duration

func (d Duration) String() string {
	v := time.Duration(d)
	if v == 0 {
		return "0s"
	}

	ret := ""
	if v < 0 {
		ret = "-"
		v = -v
	}

	if days := v / day; days > 0 {
		ret += strconv.FormatInt(int64(days), 10) + "d"
	}

	if rest := v % day; rest != 0 {
		ret += rest.String()
	}

	return ret
}

// MarshalJSON implements json.Marshaler.
func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Duration) parse(in string) error {
	var days int64
	negative := false

	if m := reDays.FindStringSubmatch(in); m != nil {
		days, _ = strconv.ParseInt(m[1], 10, 64)
		if days < 0 {
			negative = true
			days = -days
		}
		in = in[len(m[0]):]
	}

	var v time.Duration
	if in != "" {
		var err error
		v, err = time.ParseDuration(in)
		if err != nil {
			return err
		}
	}

	v += time.Duration(days) * day
	if negative {
		v = -v
	}

	*d = Duration(v)
	return nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (d *Duration) UnmarshalJSON(b []byte) error {
	var in string
	if err := jsonwrapper.Unmarshal(b, &in); err != nil {
		return err
	}
	return d.parse(in)
}

// UnmarshalEnv implements env.Unmarshaler.
func (d *Duration) UnmarshalEnv(_ string, v string) error {
	return d.parse(v)
}
