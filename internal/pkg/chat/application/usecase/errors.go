package usecase

import (
	"errors"
	"fmt"
)

// ErrPersistence indicates an infrastructure/repository failure inside a use case
var ErrPersistence = fmt.Errorf("chat use case persistence error")

// ErrEncryption indicates the content codec could not seal or open a message
var ErrEncryption = errors.New("chat use case encryption error")

// ErrInvalidInput flags missing identifiers or malformed parameters
var ErrInvalidInput = errors.New("chat use case invalid input")
