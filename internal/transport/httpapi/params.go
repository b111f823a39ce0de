package httpapi

import (
	"fmt"
	"strconv"
)

func parseSeq(raw string) (int64, error) {
	seq, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || seq < 0 {
		return 0, fmt.Errorf("invalid sequence cursor %q", raw)
	}
	return seq, nil
}
