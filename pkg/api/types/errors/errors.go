package errors

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

// ErrorMessage is an error payload of the server, like {"detail": "Project not found"}.
//
// Validation errors carry a list of issues in "detail" instead of a string.
type ErrorMessage struct {
	Detail string  `json:"detail"`
	Issues []Issue `json:"-"`
	Cause  error   `json:"-"`
}

// Issue is an entry of validation errors.
type Issue struct {
	Loc  []any  `json:"loc"`
	Msg  string `json:"msg"`
	Type string `json:"type"`
}

func (i Issue) String() string {
	loc := make([]string, 0, len(i.Loc))
	for _, l := range i.Loc {
		loc = append(loc, fmt.Sprint(l))
	}
	return fmt.Sprintf("%s: %s", strings.Join(loc, "."), i.Msg)
}

func (em *ErrorMessage) UnmarshalJSON(bytes []byte) error {
	f := new(struct {
		Detail json.RawMessage `json:"detail"`
	})
	if err := json.Unmarshal(bytes, f); err != nil {
		return err
	}
	if len(f.Detail) == 0 {
		return fmt.Errorf(`required field missing: "detail"`)
	}

	var detail string
	if err := json.Unmarshal(f.Detail, &detail); err == nil {
		em.Detail = detail
		return nil
	}

	var issues []Issue
	if err := json.Unmarshal(f.Detail, &issues); err != nil {
		return fmt.Errorf(`"detail" is neither a string nor a list of issues: %w`, err)
	}
	em.Issues = issues
	lines := make([]string, 0, len(issues))
	for _, i := range issues {
		lines = append(lines, i.String())
	}
	em.Detail = strings.Join(lines, "\n")
	return nil
}

func (e ErrorMessage) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Detail string `json:"detail"`
	}{Detail: e.Detail})
}

func (e ErrorMessage) String() string {
	if e.Cause != nil {
		return fmt.Sprint(e.Detail, "\n caused by:", e.Cause.Error())
	}
	return e.Detail
}

func (e ErrorMessage) Error() string {
	return e.String()
}

func (e ErrorMessage) Unwrap() error {
	return e.Cause
}

func NewErrorMessage(code int, detail string, cause error) *echo.HTTPError {
	msg := ErrorMessage{Detail: detail, Cause: cause}
	return echo.NewHTTPError(code, msg).SetInternal(msg)
}

func NotFound(detail string) *echo.HTTPError {
	return NewErrorMessage(http.StatusNotFound, detail, nil)
}

func BadRequest(detail string, err error) *echo.HTTPError {
	return NewErrorMessage(http.StatusBadRequest, detail, err)
}

func InternalServerError(err error) *echo.HTTPError {
	return NewErrorMessage(
		http.StatusInternalServerError,
		fmt.Sprintf("unexpected error: %s", err),
		err,
	)
}
