package domain

import "errors"

var (
	ErrNoNodes        = errors.New("no nodes resolved")
	ErrNodeNotFound   = errors.New("node not found")
	ErrNodeExists     = errors.New("node already exists")
	ErrConnectTimeout = errors.New("connect timeout")
)
