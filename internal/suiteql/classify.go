package suiteql

import (
	"encoding/json"
	"net/http"
)

// Kind is the classification of one SuiteQL response.
type Kind int

const (
	// KindSuccess is a 2xx response with a JSON body.
	KindSuccess Kind = iota
	// KindAuthFailure is a 401 or a recognized invalid-login /
	// invalid-session error code; it drives the retry ladder.
	KindAuthFailure
	// KindRequestFailure is any other non-2xx response; surfaced
	// immediately with the remote message, never retried.
	KindRequestFailure
	// KindParseFailure is a 2xx response whose body is not valid JSON;
	// surfaced immediately, never retried.
	KindParseFailure
)

// Error codes NetSuite uses for stale or invalid bearer credentials.
var authErrorCodes = map[string]bool{
	"INVALID_LOGIN_ATTEMPT": true,
	"INVALID_SESSION":       true,
}

// Classification is the single source of truth every call site and the
// retry ladder share.
type Classification struct {
	Kind    Kind
	Message string
	// Raw and Rows are populated for KindSuccess only. Rows is the
	// result set normalized as items, then data, then empty.
	Raw  map[string]interface{}
	Rows []interface{}
}

// errorEnvelope matches the error body NetSuite returns for failed
// requests.
type errorEnvelope struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// Classify maps one HTTP response to its classification.
func Classify(status int, body []byte) Classification {
	if status >= 200 && status < 300 {
		var decoded interface{}
		if err := json.Unmarshal(body, &decoded); err != nil {
			return Classification{Kind: KindParseFailure, Message: "response was not valid JSON"}
		}
		// Any valid JSON is a success; rows come only from an object
		// envelope.
		raw, _ := decoded.(map[string]interface{})
		return Classification{Kind: KindSuccess, Raw: raw, Rows: normalizeRows(raw)}
	}

	message := string(body)
	isAuth := status == http.StatusUnauthorized

	var envelope errorEnvelope
	if err := json.Unmarshal(body, &envelope); err == nil && envelope.Error.Message != "" {
		message = envelope.Error.Message
		if authErrorCodes[envelope.Error.Code] {
			isAuth = true
		}
	}

	if isAuth {
		return Classification{Kind: KindAuthFailure, Message: message}
	}
	return Classification{Kind: KindRequestFailure, Message: message}
}

func normalizeRows(raw map[string]interface{}) []interface{} {
	if items, ok := raw["items"].([]interface{}); ok {
		return items
	}
	if data, ok := raw["data"].([]interface{}); ok {
		return data
	}
	return []interface{}{}
}
