package ai

import (
	"errors"

	"github.com/zhouzirui/dialogue-sim/backend/internal/service/profile"
)

// ErrNotConfigured means no generation backend credential was supplied.
var ErrNotConfigured = errors.New("generation backend not configured")

var (
	ErrEmptyInput       = errors.New("question is empty")
	ErrUnknownCharacter = errors.New("character not found")
	ErrBackendFailure   = errors.New("generation backend failed")
	ErrProfileNotFound  = profile.ErrProfileNotFound
)
