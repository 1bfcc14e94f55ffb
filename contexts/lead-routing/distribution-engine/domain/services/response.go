package services

import (
	"strings"

	"lares/contexts/lead-routing/distribution-engine/domain/entities"
)

const (
	ReplyAccept = "accept"
	ReplyReject = "reject"
)

var acceptTokens = map[string]bool{
	"1":      true,
	"yes":    true,
	"accept": true,
	"sim":    true,
	"aceito": true,
}

var rejectTokens = map[string]bool{
	"2":      true,
	"no":     true,
	"reject": true,
	"nao":    true,
	"não":    true,
	"recuso": true,
}

// ParseReply maps an inbound reply to an attempt resolution. Structured
// button/list reply ids take priority over free text; unrecognized content
// returns ok=false and leaves the attempt pending.
func ParseReply(structuredReplyID, body string) (entities.AttemptStatus, bool) {
	switch strings.ToLower(strings.TrimSpace(structuredReplyID)) {
	case ReplyAccept:
		return entities.AttemptStatusAccepted, true
	case ReplyReject:
		return entities.AttemptStatusRejected, true
	}
	token := strings.ToLower(strings.TrimSpace(body))
	if acceptTokens[token] {
		return entities.AttemptStatusAccepted, true
	}
	if rejectTokens[token] {
		return entities.AttemptStatusRejected, true
	}
	return "", false
}
