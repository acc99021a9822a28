package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Rating is a tri-state feedback value. The zero value means unset.
type Rating string

const (
	RatingUnset   Rating = ""
	RatingLike    Rating = "like"
	RatingDislike Rating = "dislike"
)

// Valid reports whether r is one of the known rating values, including unset.
func (r Rating) Valid() bool {
	switch r {
	case RatingUnset, RatingLike, RatingDislike:
		return true
	}
	return false
}

// Feedback is the rating attached to an answer message. An unset rating is
// encoded as JSON null.
type Feedback struct {
	Rating Rating
}

type feedbackJSON struct {
	Rating *string `json:"rating"`
}

func (f Feedback) MarshalJSON() ([]byte, error) {
	var out feedbackJSON
	if f.Rating != RatingUnset {
		r := string(f.Rating)
		out.Rating = &r
	}
	return json.Marshal(out)
}

func (f *Feedback) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*f = Feedback{}
		return nil
	}
	var in feedbackJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	if in.Rating == nil {
		*f = Feedback{}
		return nil
	}
	r := Rating(*in.Rating)
	if r == RatingUnset || !r.Valid() {
		return fmt.Errorf("domain: unknown rating %q", *in.Rating)
	}
	*f = Feedback{Rating: r}
	return nil
}

// Message is a single entry in the conversation: either the user's question
// or the backend's answer. Feedback is only carried by answers.
type Message struct {
	ID       string    `json:"id"`
	Content  string    `json:"content"`
	IsAnswer bool      `json:"isAnswer"`
	Feedback *Feedback `json:"feedback,omitempty"`
}

// Rating returns the message's current rating, or RatingUnset when it has no
// feedback attached.
func (m Message) Rating() Rating {
	if m.Feedback == nil {
		return RatingUnset
	}
	return m.Feedback.Rating
}

// Clone returns a copy of m that shares no pointers with it.
func (m Message) Clone() Message {
	if m.Feedback != nil {
		fb := *m.Feedback
		m.Feedback = &fb
	}
	return m
}
