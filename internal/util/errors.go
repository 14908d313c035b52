package util

import "errors"

var (
	ErrModuleNotFound       = errors.New("module not found")
	ErrInvalidSetting       = errors.New("invalid setting")
	ErrInvalidPIN           = errors.New("PIN must be 4 digits")
	ErrWrongPIN             = errors.New("wrong parent PIN")
	ErrQuestionBankNotFound = errors.New("question bank not found")
	ErrBackupNotFound       = errors.New("backup not found")
	ErrPermissionDenied     = errors.New("permission denied")
)
