package io

import (
	"errors"

	"github.com/ezrec/sos/translate"
)

var f = translate.From

var (
	// Device errors
	ErrDrumImage = errors.New(f("drum image truncated"))
	ErrDrumFull  = errors.New(f("drum image exceeds capacity"))
)
