// SPDX-License-Identifier: MIT

package profile

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// Resolutions of a datetime marginal, in seconds.
const (
	SecondResolution int64 = 1
	DayResolution    int64 = 86400
)

// Datetime models timestamps as offsets in seconds from Epoch, the observed
// minimum. Day resolution is used when every value is midnight UTC.
type Datetime struct {
	Epoch      time.Time  `json:"epoch" yaml:"epoch"`
	Resolution int64      `json:"resolution" yaml:"resolution"`
	Offsets    Continuous `json:"offsets" yaml:"offsets"`
}

// Quantile returns the UTC timestamp at cumulative probability u, truncated to
// the resolution and kept inside the observed span.
func (d *Datetime) Quantile(u float64) time.Time {
	off := d.Offsets.Quantile(u)
	res := float64(d.Resolution)
	if res < 1 {
		res = 1
	}
	off = clamp(math.Floor(off/res)*res, d.Offsets.Min, d.Offsets.Max)

	return time.Unix(d.Epoch.Unix()+int64(off), 0).UTC()
}

// secondsSince is t − epoch in seconds, fractional part included. Unlike
// t.Sub it does not saturate past ~292 years.
func secondsSince(t, epoch time.Time) float64 {
	return float64(t.Unix()-epoch.Unix()) + float64(t.Nanosecond()-epoch.Nanosecond())/1e9
}

func fitDatetime(present []any, opts Options) (*Datetime, error) {
	d := &Datetime{Resolution: DayResolution, Offsets: Continuous{Family: Gaussian}}
	if len(present) == 0 {
		return d, nil
	}

	ts := make([]time.Time, len(present))
	for i, v := range present {
		t, ok := asTime(v, opts.DatetimeLayouts)
		if !ok {
			return nil, fmt.Errorf("value %v (%T) is not a timestamp: %w", v, v, ErrTypeConflict)
		}
		ts[i] = t.UTC()
		if !midnight(ts[i]) {
			d.Resolution = SecondResolution
		}
	}

	d.Epoch = ts[0]
	for _, t := range ts[1:] {
		if t.Before(d.Epoch) {
			d.Epoch = t
		}
	}
	d.Epoch = d.Epoch.Truncate(time.Second)

	xs := make([]float64, len(ts))
	for i, t := range ts {
		xs[i] = math.Floor(secondsSince(t, d.Epoch))
	}
	d.Offsets = *fitNumbers(xs, opts)
	d.Offsets.Integral = true

	return d, nil
}

func midnight(t time.Time) bool {
	return t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0 && t.Nanosecond() == 0
}

func (d *Datetime) validate(empty bool) error {
	if d.Resolution != SecondResolution && d.Resolution != DayResolution {
		return fmt.Errorf("unsupported resolution %d", d.Resolution)
	}
	if err := d.Offsets.validate(empty); err != nil {
		return fmt.Errorf("offsets: %w", err)
	}
	if !empty && d.Offsets.Min < 0 {
		return errors.New("negative offset from epoch")
	}

	return nil
}
