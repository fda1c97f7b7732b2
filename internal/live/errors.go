package live

import "errors"

var ErrBrokerClosed = errors.New("broker closed")
