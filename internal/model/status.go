package model

import "strings"

// ClaimStatus is the one-character status code stored on a claim.
type ClaimStatus string

// Status codes. Sent is a legacy approved state: existing rows may carry it but
// no transition produces it.
const (
	StatusDraft    ClaimStatus = "1"
	StatusPending  ClaimStatus = "2"
	StatusSent     ClaimStatus = "3"
	StatusAccepted ClaimStatus = "4"
	StatusRejected ClaimStatus = "5"
)

var statusNames = map[ClaimStatus]string{
	StatusDraft:    "Draft",
	StatusPending:  "Pending",
	StatusSent:     "Sent",
	StatusAccepted: "Accepted",
	StatusRejected: "Rejected",
}

func (s ClaimStatus) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return "Unknown"
}

// Valid reports whether s is a known code.
func (s ClaimStatus) Valid() bool {
	_, ok := statusNames[s]
	return ok
}

// Editable claims can be changed, deleted or submitted by their owner.
func (s ClaimStatus) Editable() bool {
	return s == StatusDraft || s == StatusRejected
}

// Approved covers the terminal approval state and its legacy alias.
func (s ClaimStatus) Approved() bool {
	return s == StatusAccepted || s == StatusSent
}

// StatusFilter maps a listing category ("all", "draft", ...) to the codes it
// selects. A nil slice with ok=true means no filtering.
func StatusFilter(category string) (codes []ClaimStatus, ok bool) {
	switch strings.ToLower(category) {
	case "all":
		return nil, true
	case "draft":
		return []ClaimStatus{StatusDraft}, true
	case "pending":
		return []ClaimStatus{StatusPending}, true
	case "accepted":
		return []ClaimStatus{StatusAccepted, StatusSent}, true
	case "rejected":
		return []ClaimStatus{StatusRejected}, true
	}
	return nil, false
}
