package services

import "errors"

// Общие ошибки сервисного слоя, используемые и в маппинге HTTP.
var (
	// Ресурс не найден
	ErrNotFound           = errors.New("requested resource not found")
	ErrTournamentNotFound = errors.New("tournament not found")

	// Ошибки валидации формы
	ErrTitleRequired       = errors.New("tournament title is required")
	ErrStartTimeRequired   = errors.New("tournament start time is required")
	ErrInvalidPlatform     = errors.New("unknown platform")
	ErrLinkIndexOutOfRange = errors.New("link index out of range")
	ErrEmptyAttachment     = errors.New("attached file is empty")
	ErrCommentEmpty        = errors.New("comment must not be empty")

	// Ошибки состояния формы
	ErrInvalidTransition  = errors.New("operation not allowed in the current form state")
	ErrSubmitInFlight     = errors.New("a submit is already in progress")
	ErrDeleteNotConfirmed = errors.New("delete was not confirmed")
	ErrToggleInFlight     = errors.New("a like toggle is already in progress for this tournament")

	// Ошибки аутентификации и авторизации
	ErrAuthRequired = errors.New("sign in to perform this action")
	ErrNotOwner     = errors.New("only the creator of the tournament can modify it")
)
