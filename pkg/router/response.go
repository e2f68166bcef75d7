package router

import (
	"errors"
	"net/http"

	"github.com/questx-lab/raffle/pkg/errorx"
)

type response struct {
	Code  int64  `json:"code"`
	Error string `json:"error,omitempty"`
	Data  any    `json:"data,omitempty"`
}

func newResponse(data any) response {
	return response{
		Code: 0,
		Data: data,
	}
}

func newErrorResponse(err error) response {
	errx := errorx.Error{}
	if errors.As(err, &errx) {
		return response{
			Code:  int64(errx.Code),
			Error: errx.Message,
		}
	}

	return response{
		Code:  int64(errorx.Unknown.Code),
		Error: errorx.Unknown.Message,
	}
}

func (r response) status() int {
	switch errorx.Code(r.Code) {
	case 0:
		return http.StatusOK
	case errorx.Unauthenticated:
		return http.StatusUnauthorized
	case errorx.PermissionDenied, errorx.Unauthorized:
		return http.StatusForbidden
	case errorx.NotFound:
		return http.StatusNotFound
	case errorx.Unavailable:
		return http.StatusConflict
	case errorx.Unknown.Code, errorx.Internal:
		return http.StatusInternalServerError
	}

	return http.StatusBadRequest
}
