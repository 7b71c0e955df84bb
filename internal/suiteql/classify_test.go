package suiteql

import "testing"

func TestClassify(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		want    Kind
		message string
	}{
		{name: "2xx with items", status: 200, body: `{"items":[{"id":1}]}`, want: KindSuccess},
		{name: "2xx non-json", status: 200, body: `<html>proxy error</html>`, want: KindParseFailure},
		{name: "2xx json array", status: 200, body: `[{"id":1},{"id":2}]`, want: KindSuccess},
		{name: "2xx json scalar", status: 200, body: `true`, want: KindSuccess},
		{name: "401 plain", status: 401, body: `unauthorized`, want: KindAuthFailure, message: "unauthorized"},
		{name: "invalid login code", status: 403, body: `{"error":{"code":"INVALID_LOGIN_ATTEMPT","message":"Invalid login attempt."}}`, want: KindAuthFailure, message: "Invalid login attempt."},
		{name: "invalid session code", status: 400, body: `{"error":{"code":"INVALID_SESSION","message":"Session invalid."}}`, want: KindAuthFailure, message: "Session invalid."},
		{name: "non-auth remote error", status: 400, body: `{"error":{"code":"INVALID_QUERY","message":"Unknown column."}}`, want: KindRequestFailure, message: "Unknown column."},
		{name: "500 plain", status: 500, body: `internal error`, want: KindRequestFailure, message: "internal error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(tt.status, []byte(tt.body))
			if got.Kind != tt.want {
				t.Fatalf("Kind = %v, want %v", got.Kind, tt.want)
			}
			if tt.message != "" && got.Message != tt.message {
				t.Fatalf("Message = %q, want %q", got.Message, tt.message)
			}
		})
	}
}

func TestClassify_NormalizesRows(t *testing.T) {
	fromItems := Classify(200, []byte(`{"items":[1,2,3],"data":[9]}`))
	if len(fromItems.Rows) != 3 {
		t.Fatalf("items must win, got %d rows", len(fromItems.Rows))
	}

	fromData := Classify(200, []byte(`{"data":[9,8]}`))
	if len(fromData.Rows) != 2 {
		t.Fatalf("expected data fallback, got %d rows", len(fromData.Rows))
	}

	empty := Classify(200, []byte(`{"status":"ok"}`))
	if empty.Rows == nil || len(empty.Rows) != 0 {
		t.Fatalf("expected empty non-nil rows, got %#v", empty.Rows)
	}

	// A non-object body is still a success, just with no rows.
	array := Classify(200, []byte(`[1,2,3]`))
	if array.Kind != KindSuccess {
		t.Fatalf("array body must classify as success, got %v", array.Kind)
	}
	if array.Rows == nil || len(array.Rows) != 0 {
		t.Fatalf("expected empty non-nil rows for array body, got %#v", array.Rows)
	}
}
