package history

import (
	"fmt"
	"time"
)

// Window is the BETWEEN range of a historical data query, as SQL expressions.
type Window struct {
	Start string
	End   string
}

// BinExpression returns the time bin expression for a time span,
// e.g. "bin(time, 5minute)".
func BinExpression(label string) (string, error) {
	e, err := Resolve(label)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("bin(time, %s)", singular(e.Bin)), nil
}

// BuildWindow returns the query window ending at now and reaching back by the
// duration of the time span.
func BuildWindow(label string, now time.Time) (Window, error) {
	e, err := Resolve(label)
	if err != nil {
		return Window{}, err
	}
	end := fmt.Sprintf("from_milliseconds(%d)", now.UnixMilli())
	return Window{
		Start: fmt.Sprintf("%s - %s", end, singular(e.Duration)),
		End:   end,
	}, nil
}
