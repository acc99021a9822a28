package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFeedback_MarshalUnsetAsNull(t *testing.T) {
	raw, err := json.Marshal(Feedback{})
	require.NoError(t, err)
	require.JSONEq(t, `{"rating":null}`, string(raw))

	raw, err = json.Marshal(Feedback{Rating: RatingDislike})
	require.NoError(t, err)
	require.JSONEq(t, `{"rating":"dislike"}`, string(raw))
}

func TestFeedback_Unmarshal(t *testing.T) {
	cases := []struct {
		in      string
		want    Rating
		wantErr bool
	}{
		{in: `{"rating":"like"}`, want: RatingLike},
		{in: `{"rating":null}`, want: RatingUnset},
		{in: `{}`, want: RatingUnset},
		{in: `null`, want: RatingUnset},
		{in: `{"rating":"meh"}`, wantErr: true},
		{in: `{"rating":""}`, wantErr: true},
	}
	for _, tc := range cases {
		var fb Feedback
		err := json.Unmarshal([]byte(tc.in), &fb)
		if tc.wantErr {
			require.Error(t, err, "in=%s", tc.in)
			continue
		}
		require.NoError(t, err, "in=%s", tc.in)
		require.Equal(t, tc.want, fb.Rating, "in=%s", tc.in)
	}
}

func TestMessage_JSONShape(t *testing.T) {
	question := Message{ID: "question-1", Content: "find orders over 1000"}
	raw, err := json.Marshal(question)
	require.NoError(t, err)
	require.JSONEq(t, `{"id":"question-1","content":"find orders over 1000","isAnswer":false}`, string(raw))

	answer := Message{ID: "answer-1", Content: "SELECT 1", IsAnswer: true, Feedback: &Feedback{}}
	raw, err = json.Marshal(answer)
	require.NoError(t, err)
	require.JSONEq(t, `{"id":"answer-1","content":"SELECT 1","isAnswer":true,"feedback":{"rating":null}}`, string(raw))
}

func TestMessage_CloneDoesNotShareFeedback(t *testing.T) {
	orig := Message{ID: "answer-1", IsAnswer: true, Feedback: &Feedback{Rating: RatingLike}}
	cp := orig.Clone()
	cp.Feedback.Rating = RatingDislike
	require.Equal(t, RatingLike, orig.Rating())
	require.Equal(t, RatingDislike, cp.Rating())
	require.Equal(t, RatingUnset, Message{}.Rating())
}
