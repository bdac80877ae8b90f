package player

import "math"

type SkipRequest struct {
	VoterID string
	// Privileged voters skip immediately.
	Privileged bool
	// Listeners is the number of non-bot members in the voice channel.
	Listeners int
}

type SkipResult struct {
	Skipped      bool
	Forced       bool
	AlreadyVoted bool
	Votes        int
	Required     int
}

// RequiredVotes is the number of votes needed to skip with n listeners.
func RequiredVotes(listeners int, threshold float64) int {
	return max(1, int(math.Ceil(float64(listeners)*threshold)))
}

// Skip records a vote against the current track and ends it once enough
// listeners agree. The requester of the track or a privileged voter skips
// outright.
func (c *Controller) Skip(guildID string, req SkipRequest) (SkipResult, error) {
	var (
		res SkipResult
		err error
	)
	c.lanes.do(guildID, func() {
		gp, cur, aerr := c.active(guildID)
		if aerr != nil {
			err = aerr
			return
		}
		res.Required = RequiredVotes(req.Listeners, c.threshold)
		if req.Privileged || (cur.Requester.ID != "" && cur.Requester.ID == req.VoterID) {
			res.Forced = true
		} else {
			added := c.queue.AddSkipVote(guildID, req.VoterID)
			res.Votes = c.queue.SkipVotes(guildID)
			if !added {
				res.AlreadyVoted = true
				return
			}
			if res.Votes < res.Required {
				return
			}
		}
		c.queue.ResetSkipVotes(guildID)
		res.Skipped = true
		gp.handle.Stop()
	})
	return res, err
}
