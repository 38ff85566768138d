package rest

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	cerr "github.com/opst/mlstudio/cmd/mlstudio/errors"
	apierr "github.com/opst/mlstudio/pkg/api/types/errors"
)

// MessageFor is a summary of errors per status code range.
type MessageFor map[StatusCodeRange]string

func requestFailed(action string, code int) MessageFor {
	return MessageFor{
		Status4xx: fmt.Sprintf("%s: request failed (status code = %d)", action, code),
		Status5xx: fmt.Sprintf("%s: server error (status code = %d)", action, code),
	}
}

// unmarshal http response which has json content.
//
// args:
//   - resp: http response to be processed.
//   - v: value which response should be.
//   - messageFor: title of error message for HTTP status code range.
//
// return:
//
//	error if...
//	- can not read response body
//	- response body is not shaped of v
//	- status code is not 2xx
func unmarshalJsonResponse[T any](resp *http.Response, v *T, messageFor MessageFor) error {
	if err := checkStatus(resp, messageFor); err != nil {
		return err
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return cerr.New(
			fmt.Sprintf("unexpected response: %s (status code = %d)", err.Error(), resp.StatusCode),
			cerr.WithCause(err),
		)
	}
	return nil
}

// checkStatus returns CUIError caused by *StatusError for non-2xx responses.
//
// When it returns an error, the response body has been consumed.
func checkStatus(resp *http.Response, messageFor MessageFor) error {
	scr := StatusCodeRangeOf(resp.StatusCode)
	if scr == Status2xx {
		return nil
	}

	message, ok := messageFor[scr]
	if !ok {
		message = fmt.Sprintf("request failed: %s (status code = %d)", scr, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return cerr.New(
			message,
			cerr.WithDetail("cannot read server message: "+err.Error()),
			cerr.WithCause(&StatusError{Code: resp.StatusCode}),
		)
	}

	detail := parseErrorMessage(body)
	return cerr.New(
		message,
		cerr.WithDetail(detail),
		cerr.WithCause(&StatusError{Code: resp.StatusCode, Detail: detail}),
	)
}

// parseErrorMessage extracts a message from error response.
//
// It tries {"detail": ...}, then {"message": ...}, and falls back to the raw body.
func parseErrorMessage(body []byte) string {
	em := apierr.ErrorMessage{}
	if err := json.Unmarshal(body, &em); err == nil {
		return em.Detail
	}

	msg := struct {
		Message *string `json:"message"`
	}{}
	if err := json.Unmarshal(body, &msg); err == nil && msg.Message != nil {
		return *msg.Message
	}

	return strings.TrimSpace(string(body))
}
