package models

import (
	"math"
	"time"
)

// Poll option bounds. MaxPollOptionLength is in characters and matches the
// text column.
const (
	MinPollOptions      = 2
	MaxPollOptions      = 10
	MaxPollOptionLength = 255
)

// PollOption is one choice of a poll post with its running vote counter.
type PollOption struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	PostID    uint      `gorm:"not null;index" json:"post_id"`
	Text      string    `gorm:"type:varchar(255);not null" json:"text"`
	Position  int       `gorm:"not null;default:0" json:"position"`
	VoteCount int       `gorm:"not null;default:0" json:"vote_count"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName specifies the table name for GORM
func (PollOption) TableName() string {
	return "poll_options"
}

// PollVote records that a character voted on a poll post. One vote per
// (post, voter); the first vote sticks.
type PollVote struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	PostID       uint      `gorm:"not null;uniqueIndex:idx_poll_vote_voter" json:"post_id"`
	CharacterID  uint      `gorm:"not null;uniqueIndex:idx_poll_vote_voter" json:"character_id"`
	PollOptionID uint      `gorm:"not null;index" json:"poll_option_id"`
	CreatedAt    time.Time `json:"created_at"`
}

// TableName specifies the table name for GORM
func (PollVote) TableName() string {
	return "poll_votes"
}

// PollOptionResult is a poll option with its share of the total vote.
type PollOptionResult struct {
	ID         uint   `json:"id"`
	Text       string `json:"text"`
	Votes      int    `json:"votes"`
	Percentage int    `json:"percentage"`
}

// PollResults is the recomputed state of a poll post.
type PollResults struct {
	PostID     uint               `json:"post_id"`
	TotalVotes int                `json:"total_votes"`
	Options    []PollOptionResult `json:"options"`
	VotedFor   *uint              `json:"voted_for,omitempty"`
}

// NewPollResults computes percentage = round(votes / total * 100) per option,
// or 0 for every option when nobody has voted.
func NewPollResults(postID uint, options []PollOption) *PollResults {
	res := &PollResults{
		PostID:  postID,
		Options: make([]PollOptionResult, 0, len(options)),
	}
	for _, o := range options {
		res.TotalVotes += o.VoteCount
	}
	for _, o := range options {
		pct := 0
		if res.TotalVotes > 0 {
			pct = int(math.Round(float64(o.VoteCount) / float64(res.TotalVotes) * 100))
		}
		res.Options = append(res.Options, PollOptionResult{
			ID:         o.ID,
			Text:       o.Text,
			Votes:      o.VoteCount,
			Percentage: pct,
		})
	}
	return res
}
