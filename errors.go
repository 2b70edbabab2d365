package limitbook

import "errors"

var (
	ErrInvalidParam   = errors.New("the param is invalid")
	ErrSequenceGap    = errors.New("event sequence gap detected")
	ErrDepthUnderflow = errors.New("depth change underflows the price level")
)
