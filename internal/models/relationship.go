package models

// FollowResult identifies the target of a successful follow/unfollow so the
// UI can confirm the action.
type FollowResult struct {
	UserID   string `json:"user_id"`
	FullName string `json:"full_name"`
}

// FollowStatus is the read-only relationship state between the authenticated
// actor and a target user.
type FollowStatus struct {
	IsFollowing    bool `json:"is_following"`
	FollowingCount int  `json:"following_count"` // actor's following count
	FollowerCount  int  `json:"follower_count"`  // target's follower count
}
