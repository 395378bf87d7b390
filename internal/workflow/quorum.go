// Package workflow decides review outcomes for posts and contributions.
//
// Both workflows use the same majority rule over the community's contributor
// count N: a direction wins once it has at least floor(N/2)+1 votes. For even
// N exactly half is not enough, so a 2-2 split on four contributors stays
// pending instead of resolving either way. The rule is deliberate and must not
// be made symmetric.
package workflow

import (
	"strings"

	"github.com/steemit/agora/internal/models"
)

// Outcome is what a set of votes resolves to
type Outcome int

// Outcomes
const (
	Pending Outcome = iota
	Approve
	Reject
)

func (o Outcome) String() string {
	switch o {
	case Approve:
		return "approve"
	case Reject:
		return "reject"
	default:
		return "pending"
	}
}

// Vote is a single verdict with optional written feedback
type Vote struct {
	Verdict  models.Verdict
	Feedback string
}

// Decision is the evaluation of a vote set
type Decision struct {
	Outcome          Outcome  `json:"-"`
	Approvals        int      `json:"approvals"`
	Rejections       int      `json:"rejections"`
	Eligible         int      `json:"eligible"`
	Threshold        int      `json:"threshold"`
	ApprovalsNeeded  int      `json:"approvals_needed"`
	RejectionsNeeded int      `json:"rejections_needed"`
	Reasons          []string `json:"reasons,omitempty"`
}

// Threshold returns the number of same-direction votes needed among total
// eligible contributors.
func Threshold(total int) int {
	if total < 0 {
		total = 0
	}
	return total/2 + 1
}

// Evaluate counts votes against the majority threshold. Approval is checked
// first, so if both directions somehow reach the threshold the result is
// Approve.
func Evaluate(votes []Vote, total int) Decision {
	d := Decision{
		Eligible:  total,
		Threshold: Threshold(total),
	}

	for _, v := range votes {
		switch v.Verdict {
		case models.VerdictApproved:
			d.Approvals++
		case models.VerdictRejected:
			d.Rejections++
			if fb := strings.TrimSpace(v.Feedback); fb != "" {
				d.Reasons = append(d.Reasons, fb)
			}
		}
	}

	switch {
	case d.Approvals >= d.Threshold:
		d.Outcome = Approve
	case d.Rejections >= d.Threshold:
		d.Outcome = Reject
	default:
		d.Outcome = Pending
		d.ApprovalsNeeded = d.Threshold - d.Approvals
		d.RejectionsNeeded = d.Threshold - d.Rejections
	}

	return d
}

// EvaluatePost evaluates the reviews of a pending post
func EvaluatePost(reviews []models.Review, contributors int) Decision {
	votes := make([]Vote, 0, len(reviews))
	for _, r := range reviews {
		votes = append(votes, Vote{Verdict: r.Verdict, Feedback: r.Feedback})
	}
	return Evaluate(votes, contributors)
}

// EvaluateContribution evaluates the votes on a contribution
func EvaluateContribution(reviews []models.ContributionReview, contributors int) Decision {
	votes := make([]Vote, 0, len(reviews))
	for _, r := range reviews {
		votes = append(votes, Vote{Verdict: r.Verdict, Feedback: r.Comment})
	}
	return Evaluate(votes, contributors)
}

// PostStatus maps the decision to the status a pending post should move to.
// Rejected posts return to DRAFT so the author can revise them.
func (d Decision) PostStatus() models.PostStatus {
	switch d.Outcome {
	case Approve:
		return models.PostPublished
	case Reject:
		return models.PostDraft
	default:
		return models.PostPending
	}
}

// ContributionStatus maps the decision to a contribution status
func (d Decision) ContributionStatus() models.ContributionStatus {
	switch d.Outcome {
	case Approve:
		return models.ContributionApproved
	case Reject:
		return models.ContributionRejected
	default:
		return models.ContributionPending
	}
}
