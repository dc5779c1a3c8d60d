package domain

import "errors"

// Доменные ошибки - используются во всех слоях приложения

// Vehicle errors
var (
	ErrVehicleNotFound     = errors.New("vehicle not found")
	ErrInvalidLicensePlate = errors.New("invalid license plate")
	ErrInvalidVehicleData  = errors.New("invalid vehicle data")
)

// Permit errors
var (
	ErrPermitNotFound    = errors.New("permit not found")
	ErrPermitNotCovering = errors.New("permit does not cover this admission")
	ErrPermitConsumed    = errors.New("permit already consumed")
	ErrInvalidPermitData = errors.New("invalid permit data")
)

// Yard errors
var (
	ErrYardNotFound = errors.New("yard not found")
)

// Visit errors
var (
	ErrVisitNotFound        = errors.New("visit not found")
	ErrVisitNotPending      = errors.New("visit is not pending confirmation")
	ErrVisitNotOnSite       = errors.New("visit is not on site")
	ErrNoActiveVisit        = errors.New("no active visit for vehicle at this yard")
	ErrVehicleAlreadyOnSite = errors.New("vehicle already on site")
	ErrInvalidVisitData     = errors.New("invalid visit data")
)

// Policy errors
var (
	// ErrPermitRequired - строгий режим площадки запрещает допуск без действующего пропуска
	ErrPermitRequired = errors.New("yard requires a covering active permit")
)

// Report errors
var (
	ErrInvalidReportWindow = errors.New("report window end must not be before start")
)

// Task errors
var (
	ErrTaskNotFound = errors.New("task not found")
)

// Weighing errors
var (
	ErrRequirementNotFound = errors.New("weighing requirement not found")
	ErrRequirementConflict = errors.New("weighing requirement state conflict")
	ErrWeighingNotFound    = errors.New("weighing not found")
	ErrInvalidWeight       = errors.New("invalid weight value")
	ErrInvalidWeighingKind = errors.New("invalid weighing kind")
	ErrSkipReasonRequired  = errors.New("skip reason is required")
)

// Authorization errors
var (
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrTokenExpired = errors.New("token expired")
	ErrInvalidToken = errors.New("invalid token")
)

// General errors
var (
	ErrInternal   = errors.New("internal server error")
	ErrNotFound   = errors.New("not found")
	ErrBadRequest = errors.New("bad request")
	ErrConflict   = errors.New("conflict")
)
