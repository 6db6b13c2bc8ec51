package rest

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	apperrors "vitiligo-tracker/internal/errors"
)

func TestTrackingRequest_UnmarshalNumbersAndStrings(t *testing.T) {
	cases := map[string]struct {
		body  string
		age   int
		weeks float64
	}{
		"numbers":      {`{"age": 30, "weeks": 4.5}`, 30, 4.5},
		"strings":      {`{"age": "30", "weeks": "4.5"}`, 30, 4.5},
		"comma weeks":  {`{"age": " 7 ", "weeks": "2,5"}`, 7, 2.5},
		"absent":       {`{}`, 0, 0},
		"explicit nil": {`{"age": null, "weeks": null}`, 0, 0},
	}
	for name, tc := range cases {
		var req TrackingRequest
		require.NoError(t, json.Unmarshal([]byte(tc.body), &req), name)
		require.Equal(t, tc.age, req.Age, name)
		require.Equal(t, tc.weeks, req.Weeks, name)
	}
}

func TestTrackingRequest_UnmarshalRejectsBadNumbers(t *testing.T) {
	for _, body := range []string{
		`{"age": "thirty"}`,
		`{"age": -1}`,
		`{"age": true}`,
		`{"weeks": "-2"}`,
		`{"weeks": [4]}`,
		`{"before_image": 5}`,
	} {
		var req TrackingRequest
		err := json.Unmarshal([]byte(body), &req)
		require.True(t, apperrors.IsKind(err, apperrors.KindInvalidInput), body)
	}
}
