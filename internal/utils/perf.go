package utils

import (
	"time"

	"github.com/airenas/go-app/pkg/goapp"
)

// MeasureTime logs elapsed time of an operation. Use with defer:
// defer utils.MeasureTime("recognizer", time.Now())
func MeasureTime(name string, start time.Time) {
	goapp.Log.Info().Dur("elapsed", time.Since(start)).Str("func", name).Msg("time")
}
