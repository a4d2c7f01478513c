package domain

import "time"

// CampaignEvent and AdEvent are the lifecycle transitions the management
// layer may request. The delivery engine itself never transitions state;
// it only reads it.
type CampaignEvent string

const (
	CampaignSubmit   CampaignEvent = "submit"
	CampaignApprove  CampaignEvent = "approve"
	CampaignActivate CampaignEvent = "activate"
	CampaignPause    CampaignEvent = "pause"
	CampaignResume   CampaignEvent = "resume"
	CampaignEnd      CampaignEvent = "end"
)

type AdEvent string

const (
	AdApprove  AdEvent = "approve"
	AdReject   AdEvent = "reject"
	AdPause    AdEvent = "pause"
	AdResume   AdEvent = "resume"
	AdComplete AdEvent = "complete"
)

var campaignTransitions = map[CampaignStatus]map[CampaignEvent]CampaignStatus{
	CampaignDraft: {
		CampaignSubmit: CampaignReview,
	},
	CampaignReview: {
		CampaignApprove: CampaignScheduled,
		CampaignEnd:     CampaignEnded,
	},
	CampaignScheduled: {
		CampaignActivate: CampaignActive,
		CampaignEnd:      CampaignEnded,
	},
	CampaignActive: {
		CampaignPause: CampaignPaused,
		CampaignEnd:   CampaignEnded,
	},
	CampaignPaused: {
		CampaignResume: CampaignActive,
		CampaignEnd:    CampaignEnded,
	},
	// CampaignEnded is terminal.
}

var adTransitions = map[AdStatus]map[AdEvent]AdStatus{
	AdPending: {
		AdApprove: AdActive,
		AdReject:  AdRejected, // terminal
	},
	AdActive: {
		AdPause:    AdPaused,
		AdComplete: AdCompleted,
	},
	AdPaused: {
		AdResume:   AdActive,
		AdComplete: AdCompleted,
	},
}

// NextCampaignStatus returns the status a campaign moves to on the given
// event. ok is false when the transition is illegal from the current
// status, including any event against a terminal status.
func NextCampaignStatus(from CampaignStatus, event CampaignEvent) (CampaignStatus, bool) {
	to, ok := campaignTransitions[from][event]
	return to, ok
}

// NextAdStatus returns the status an ad moves to on the given event.
func NextAdStatus(from AdStatus, event AdEvent) (AdStatus, bool) {
	to, ok := adTransitions[from][event]
	return to, ok
}

// Eligible reports whether an ad may be considered for delivery at all.
// It is evaluated before any frequency or budget check. Unknown statuses
// are simply ineligible, never an error.
func Eligible(c *Campaign, a *Ad, now time.Time) bool {
	if c == nil || a == nil {
		return false
	}
	if c.Status != CampaignActive || a.Status != AdActive {
		return false
	}
	if now.Before(c.StartTime) {
		return false
	}
	if c.Expired(now) {
		return false
	}
	return true
}
