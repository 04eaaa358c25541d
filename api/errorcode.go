package api

import "github.com/urbanpulse/resilience-api/store"

var (
	errorMessageMap = map[int64]string{
		999: "internal server error",

		1010: "invalid parameters",
		1011: "cannot parse request",

		1100: store.ErrReportNotFound.Error(),
		1101: "analysis is still running",
		1102: store.ErrScoreNotFound.Error(),
		1103: "unknown analysis domain",
	}

	errorInternalServer = errorJSON(999)

	errorInvalidParameters = errorJSON(1010)

	errorAnalysisNotFound = errorJSON(1100)
	errorScoreNotFound    = errorJSON(1102)
	errorUnknownDomain    = errorJSON(1103)
)

type ErrorResponse struct {
	Code    int64  `json:"code"`
	Message string `json:"message"`
}

// errorJSON converts an error code to a standardized error object
func errorJSON(code int64) ErrorResponse {
	var message string
	if msg, ok := errorMessageMap[code]; ok {
		message = msg
	} else {
		message = "unknown"
	}

	return ErrorResponse{
		Code:    code,
		Message: message,
	}
}
