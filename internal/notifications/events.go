package notifications

import (
	"fmt"
	"strconv"
	"strings"
)

// Tables a client may watch on the change feed.
const (
	TableQuestions     = "questions"
	TableAnswers       = "answers"
	TableAnswerReplies = "answer_replies"
	TableVotes         = "votes"
	TableUserBadges    = "user_badges"
)

var watchableColumns = map[string]map[string]struct{}{
	TableQuestions:     {"id": {}, "user_id": {}, "category_id": {}},
	TableAnswers:       {"id": {}, "question_id": {}, "user_id": {}},
	TableAnswerReplies: {"answer_id": {}},
	TableVotes:         {"question_id": {}, "answer_id": {}},
	TableUserBadges:    {"user_id": {}},
}

// Change operations.
const (
	OpInsert = "INSERT"
	OpUpdate = "UPDATE"
	OpDelete = "DELETE"
)

// Event types sent to sockets.
const (
	EventChange      = "change"
	EventBadgeEarned = "badge_earned"
	EventSubscribed  = "subscribed"
	EventError       = "error"
)

// Filter narrows a table subscription to rows whose column equals a parent id.
type Filter struct {
	Column string
	ID     uint
}

func (f Filter) String() string {
	return f.Column + "=" + strconv.FormatUint(uint64(f.ID), 10)
}

// ParseFilter parses "column=id".
func ParseFilter(s string) (Filter, error) {
	col, idStr, ok := strings.Cut(strings.TrimSpace(s), "=")
	if !ok || col == "" {
		return Filter{}, fmt.Errorf("filter must look like column=id")
	}
	id, err := strconv.ParseUint(idStr, 10, 32)
	if err != nil || id == 0 {
		return Filter{}, fmt.Errorf("filter id must be a positive integer")
	}
	return Filter{Column: col, ID: uint(id)}, nil
}

// Topic is one (table, filter) pair on the change feed.
type Topic struct {
	Table  string
	Filter Filter
}

// NewTopic validates table and filter against the watchable set.
func NewTopic(table, filter string) (Topic, error) {
	cols, ok := watchableColumns[table]
	if !ok {
		return Topic{}, fmt.Errorf("table %q cannot be watched", table)
	}
	f, err := ParseFilter(filter)
	if err != nil {
		return Topic{}, err
	}
	if _, ok := cols[f.Column]; !ok {
		return Topic{}, fmt.Errorf("column %q cannot be watched on %s", f.Column, table)
	}
	return Topic{Table: table, Filter: f}, nil
}

func (t Topic) String() string {
	return t.Table + ":" + t.Filter.String()
}

// Channel is the Redis channel carrying pulses for t.
func (t Topic) Channel() string {
	return changePrefix + t.String()
}

// ChangeEvent is a payload-free pulse telling subscribers to re-fetch.
type ChangeEvent struct {
	Type   string `json:"type"`
	Table  string `json:"table"`
	Filter string `json:"filter"`
	Op     string `json:"op"`
}

// BadgeEarnedPayload is delivered on a user's channel when a badge is awarded.
type BadgeEarnedPayload struct {
	BadgeID uint   `json:"badge_id"`
	Name    string `json:"name"`
	Icon    string `json:"icon"`
	Message string `json:"message"`
}

// Envelope wraps user-channel messages.
type Envelope struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

const (
	userPrefix   = "notifications:user:"
	changePrefix = "changes:"
)

// UserChannel derives the Redis channel name for a user.
func UserChannel(userID uint) string {
	return userPrefix + strconv.FormatUint(uint64(userID), 10)
}

func parseUserChannel(channel string) (uint, bool) {
	rest, ok := strings.CutPrefix(channel, userPrefix)
	if !ok {
		return 0, false
	}
	id, err := strconv.ParseUint(rest, 10, 32)
	if err != nil {
		return 0, false
	}
	return uint(id), true
}

func parseChangeChannel(channel string) (string, bool) {
	return strings.CutPrefix(channel, changePrefix)
}
